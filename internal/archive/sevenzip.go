// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec. Command output
// is discarded: 7z writes its banner and file list to stdout.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}

var defaultExec executor = &osExecutor{}

// windowsInstallPaths are probed before falling back to the bare binary
// name, since the 7-Zip installer does not put 7z.exe on PATH.
var windowsInstallPaths = []string{
	`C:\Program Files\7-Zip\7z.exe`,
	`C:\Program Files (x86)\7-Zip\7z.exe`,
}

// SevenZip shells out to a 7-Zip compatible executable with
// `x -y -o<dest> <archive>`, suppressing its output streams.
type SevenZip struct {
	exec executor
	goos string
}

// NewSevenZip returns the external-tool extraction backend.
func NewSevenZip() *SevenZip {
	return &SevenZip{exec: defaultExec, goos: runtime.GOOS}
}

func newSevenZip(exec executor, goos string) *SevenZip {
	return &SevenZip{exec: exec, goos: goos}
}

// Name returns the backend name.
func (s *SevenZip) Name() string { return "7z" }

// binary resolves the executable to invoke, or "" when none is found.
// On Windows the known install locations are probed first; elsewhere the
// tool is looked up on PATH under its common names.
func (s *SevenZip) binary() string {
	if s.goos == "windows" {
		for _, p := range windowsInstallPaths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	for _, name := range []string{"7z", "7zz"} {
		if path, err := s.exec.LookPath(name); err == nil {
			return path
		}
	}
	if s.goos == "windows" {
		// Assume it is on the search path anyway.
		return "7z"
	}
	return ""
}

// Available reports whether a 7-Zip executable could be located.
func (s *SevenZip) Available() bool {
	return s.binary() != ""
}

// Extract runs `7z x -y -o<destDir> <archivePath>`.
func (s *SevenZip) Extract(ctx context.Context, archivePath, destDir string) error {
	bin := s.binary()
	if bin == "" {
		return fmt.Errorf("7z executable not found")
	}
	if err := s.exec.RunSilent(ctx, bin, "x", "-y", "-o"+destDir, archivePath); err != nil {
		return fmt.Errorf("running %s on %s: %w", bin, archivePath, err)
	}
	return nil
}
