// Package pve wraps the Proxmox VE host tooling (pct, pveam) behind a small
// client. All host interaction goes through CommandExecutor so tests can
// substitute a fake.
package pve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandExecutor abstracts external command execution.
type CommandExecutor interface {
	LookPath(file string) (string, error)
	// Run executes a command and returns stdout. Stderr is folded into the
	// returned error.
	Run(ctx context.Context, name string, args ...string) (string, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
	FileExists(path string) bool
}

// RealExecutor executes commands on the real system.
type RealExecutor struct{}

// LookPath finds the path to an executable.
func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its stdout.
func (e *RealExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), newCommandError(name, args, stderr.String(), err)
	}
	return stdout.String(), nil
}

// CombinedOutput runs a command and returns combined stdout and stderr.
func (e *RealExecutor) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// FileExists checks if a file exists.
func (e *RealExecutor) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CommandError reports a non-zero exit from an invoked host tool.
type CommandError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func newCommandError(tool string, args []string, stderr string, err error) *CommandError {
	return &CommandError{
		Tool:   tool,
		Args:   args,
		Stderr: strings.TrimSpace(stderr),
		Err:    err,
	}
}

// Error formats the failure with the tool name and captured stderr.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s %s failed: %s", e.Tool, strings.Join(e.Args, " "), e.Stderr)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code, or -1 if unknown.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
