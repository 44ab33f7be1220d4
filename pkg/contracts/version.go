// Package contracts holds the types shared by the SheetPulse binaries and
// their HTTP clients.
package contracts

import (
	"fmt"
	"runtime"
)

// APIVersion is the version of the HTTP API.
const APIVersion = "v1"

var (
	// Version is overridden at link time with
	// -X sheetpulse/pkg/contracts.Version=...
	Version = "1.0.0"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version      string `json:"version"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		APIVersion:   APIVersion,
	}
}

// GetFullVersionString returns the version line printed by --version.
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (commit: %s, go: %s, %s/%s)",
		info.Version, info.GitCommit, info.GoVersion, info.OS, info.Architecture)
}
