// Package extract walks a source tree and turns every supported file into a
// module record plus the raw dependency edges implied by its imports.
package extract

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// DefaultExcludedDirs are directory names never descended into.
var DefaultExcludedDirs = []string{
	"__pycache__", "node_modules", "venv", "env", ".venv",
	"build", "dist", ".git", ".idea", ".vscode",
	"target", "bin", "obj", "packages", "vendor",
}

// DefaultIgnoredFiles are file names skipped even when their extension is supported.
var DefaultIgnoredFiles = []string{"__init__.py", "setup.py", "conftest.py"}

// DefaultMaxFileSize bounds how much of a single file is read.
const DefaultMaxFileSize int64 = 2 << 20

// Options controls a scan.
type Options struct {
	// Root is the local directory to scan.
	Root string
	// Exclude adds directory or file names to the defaults.
	Exclude []string
	// IncludeTests keeps files recognized as tests.
	IncludeTests bool
	// Workers bounds per-file parsing concurrency. Zero means GOMAXPROCS.
	Workers int
	// MaxFileSize skips larger files with a warning. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

// ConfigError reports options that prevent a scan from starting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("extract: invalid %s: %s", e.Field, e.Reason)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func (o Options) validate() error {
	if strings.TrimSpace(o.Root) == "" {
		return &ConfigError{Field: "root", Reason: "empty path"}
	}
	info, err := os.Stat(o.Root)
	if err != nil {
		return &ConfigError{Field: "root", Reason: err.Error()}
	}
	if !info.IsDir() {
		return &ConfigError{Field: "root", Reason: fmt.Sprintf("%s is not a directory", o.Root)}
	}
	for _, name := range o.Exclude {
		if strings.TrimSpace(name) == "" {
			return &ConfigError{Field: "exclude", Reason: "empty name"}
		}
		if strings.ContainsAny(name, `/\`) {
			return &ConfigError{Field: "exclude", Reason: fmt.Sprintf("%q must be a bare name, not a path", name)}
		}
	}
	if o.Workers < 0 {
		return &ConfigError{Field: "workers", Reason: "must not be negative"}
	}
	if o.MaxFileSize < 0 {
		return &ConfigError{Field: "max_file_size", Reason: "must not be negative"}
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) maxFileSize() int64 {
	if o.MaxFileSize > 0 {
		return o.MaxFileSize
	}
	return DefaultMaxFileSize
}

// excludedNames merges the defaults with caller exclusions.
func (o Options) excludedNames() (dirs, files map[string]bool) {
	dirs = make(map[string]bool, len(DefaultExcludedDirs)+len(o.Exclude))
	files = make(map[string]bool, len(DefaultIgnoredFiles)+len(o.Exclude))
	for _, d := range DefaultExcludedDirs {
		dirs[d] = true
	}
	for _, f := range DefaultIgnoredFiles {
		files[f] = true
	}
	for _, n := range o.Exclude {
		dirs[n] = true
		files[n] = true
	}
	return dirs, files
}
