//go:build ignore

// build.go - SheetPulse build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, cli, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	version = "1.0.0"
	module  = "sheetpulse"
	distDir = "dist"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// executables maps a cmd/ directory to its output name.
var executables = map[string]string{
	"web":        "sheetpulse-web",
	"sheetpulse": "sheetpulse",
}

type buildContext struct {
	verbose bool
	release bool
	goos    string
	goarch  string
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target GOOS")
	goarch := flag.String("arch", runtime.GOARCH, "Target GOARCH")
	flag.Parse()

	printHeader()
	start := time.Now()
	ctx := &buildContext{verbose: *verbose, goos: *goos, goarch: *goarch}

	var err error
	switch *target {
	case "all":
		err = buildAll(ctx)
	case "web":
		err = buildExecutable("web", ctx)
	case "cli":
		err = buildExecutable("sheetpulse", ctx)
	case "test":
		err = runTests(ctx)
	case "clean":
		err = clean(ctx)
	case "release":
		ctx.release = true
		if err = clean(ctx); err == nil {
			err = buildAll(ctx)
		}
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "        SheetPulse - Build System          " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *buildContext) error {
	printInfo("Building all executables...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return err
	}
	for name := range executables {
		if err := buildExecutable(name, ctx); err != nil {
			return err
		}
	}
	return copyConfigExample(ctx)
}

// buildExecutable stamps the version, commit and build time into the binary.
func buildExecutable(name string, ctx *buildContext) error {
	exeName, ok := executables[name]
	if !ok {
		return fmt.Errorf("unknown executable: %s", name)
	}
	if ctx.goos == "windows" {
		exeName += ".exe"
	}
	printInfo(fmt.Sprintf("Building %s (%s/%s)...", name, ctx.goos, ctx.goarch))

	ldflags := strings.Join([]string{
		"-X " + module + "/pkg/contracts.Version=" + version,
		"-X " + module + "/pkg/contracts.GitCommit=" + gitCommit(),
		"-X " + module + "/internal/app.BuildTime=" + time.Now().Format(time.RFC3339),
	}, " ")
	if ctx.release {
		ldflags = "-s -w " + ldflags
	}

	args := []string{"build", "-ldflags", ldflags, "-o", filepath.Join(distDir, exeName)}
	if ctx.release {
		args = append(args, "-trimpath")
	}
	args = append(args, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+ctx.goos, "GOARCH="+ctx.goarch, "CGO_ENABLED=0")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if ctx.verbose {
		printInfo("go " + strings.Join(args, " "))
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}
	printSuccess(fmt.Sprintf("Built %s", filepath.Join(distDir, exeName)))
	return nil
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func runTests(ctx *buildContext) error {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if ctx.verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go tests failed: %w", err)
	}
	printSuccess("All tests passed")
	return nil
}

// copyConfigExample ships the example config next to the binaries when one
// exists.
func copyConfigExample(ctx *buildContext) error {
	src := filepath.Join("configs", "config.example.yaml")
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		if ctx.verbose {
			printWarning("No " + src + " to copy")
		}
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(distDir, filepath.Base(src)), data, 0644)
}

func clean(ctx *buildContext) error {
	printInfo("Cleaning " + distDir + "...")
	if err := os.RemoveAll(distDir); err != nil {
		return fmt.Errorf("failed to clean %s: %w", distDir, err)
	}
	if ctx.verbose {
		printInfo("Removed " + distDir)
	}
	return os.MkdirAll(distDir, 0755)
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET [-v] [-os GOOS] [-arch GOARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all       Build the web server and the CLI (default)")
	fmt.Println("  web       Build the web server")
	fmt.Println("  cli       Build the command-line tool")
	fmt.Println("  test      Run Go tests with the race detector")
	fmt.Println("  clean     Remove the dist directory")
	fmt.Println("  release   Clean, then build stripped binaries")
}
