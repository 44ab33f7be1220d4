package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved application directories.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir    string
	DataDir    string
	ExportsDir string
	CacheDir   string
	LogsDir    string
	WebDir     string
}

// GetPaths resolves the default directories against the executable location.
func GetPaths() (*Paths, error) {
	return ResolvePaths(PathsConfig{
		DataDir:    DefaultDataDir,
		ExportsDir: DefaultExportsDir,
		CacheDir:   DefaultCacheDir,
		LogsDir:    DefaultLogsDir,
		WebDir:     DefaultWebDir,
	})
}

// ResolvePaths turns configured directories into absolute paths. An empty
// BaseDir means the directory containing the executable.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
		}
		base = filepath.Dir(exe)
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir, fallback string) string {
		if dir == "" {
			dir = fallback
		}
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(base, dir)
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    resolve(cfg.DataDir, DefaultDataDir),
		ExportsDir: resolve(cfg.ExportsDir, DefaultExportsDir),
		CacheDir:   resolve(cfg.CacheDir, DefaultCacheDir),
		LogsDir:    resolve(cfg.LogsDir, DefaultLogsDir),
		WebDir:     resolve(cfg.WebDir, DefaultWebDir),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.CacheDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetDataPath resolves a workbook path. Absolute paths are returned as-is.
func (p *Paths) GetDataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// GetExportPath returns the location of an exported deck
func (p *Paths) GetExportPath(id string) string {
	return filepath.Join(p.ExportsDir, id+DeckExtension)
}

// GetCachePath returns a path inside the cache directory
func (p *Paths) GetCachePath(name string) string {
	return filepath.Join(p.CacheDir, name)
}

// GetLogPath returns a path inside the logs directory
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("cache_dir", p.CacheDir),
		slog.String("logs_dir", p.LogsDir),
		slog.String("web_dir", p.WebDir))
}
