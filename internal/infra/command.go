// Package infra implements infrastructure concerns (supervisors, filesystem, watchers, notifiers).
package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CommandRunner abstracts command execution for testing
type CommandRunner interface {
	// Output runs name and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunWithInput runs name with stdin fed from input.
	RunWithInput(ctx context.Context, input io.Reader, name string, args ...string) error
}

// RealCommandRunner executes real system commands
type RealCommandRunner struct{}

// Output executes a command and returns its stdout.
// Stderr is folded into the error so callers can log why a command failed.
func (r *RealCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, commandError(name, err, stderr.String())
	}
	return out, nil
}

// RunWithInput executes a command with the given stdin and waits for it to complete
func (r *RealCommandRunner) RunWithInput(ctx context.Context, input io.Reader, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = input
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return commandError(name, err, stderr.String())
	}
	return nil
}

func commandError(name string, err error, stderr string) error {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return fmt.Errorf("%s: %w", name, err)
}
