// Package cli provides the shared command-line plumbing for the rule-filter
// tools: version reporting, consistent error exits, and a verbosity-gated
// logger for long-running modes.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"
)

// Version information for the rule-filter tools. Rule corpora pin a
// compatible tool version with "# requires:" directives against Version.
const (
	Version   = "0.4.1"
	BuildDate = "2025-08-22"
	CommitSHA = "unknown" // Will be set during build
)

// VersionInfo contains version and build information
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	CommitSHA string `json:"commit_sha"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns structured version information
func GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion prints version information in a consistent format
func PrintVersion(toolName string, jsonOutput bool) {
	info := GetVersionInfo()

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":         toolName,
			"version_info": info,
		}, "", "  ")
		if err == nil {
			fmt.Println(string(data))
			return
		}
		fmt.Fprintf(os.Stderr, "Error: Failed to marshal version info to JSON: %v\n", err)
	}

	fmt.Printf("%s v%s\n", toolName, info.Version)
	fmt.Printf("Go Version: %s\n", info.GoVersion)
	fmt.Printf("Platform: %s/%s\n", info.Platform, info.Arch)
}

// ExitWithError prints an error message and exits with code 1
func ExitWithError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// Logger provides timestamped progress logging, gated on verbosity.
type Logger struct {
	Verbose bool
}

// NewLogger creates a new logger instance
func NewLogger(verbose bool) *Logger {
	return &Logger{Verbose: verbose}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose {
		fmt.Printf("[INFO] %s: %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	fmt.Printf("[WARN] %s: %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}
