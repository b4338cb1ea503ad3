// Package shell runs external command lines and hands back their output text.
// Exit codes are not reported: the tools driven by vpnspeed signal success
// only through what they print.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"

	"github.com/apex/log"

	pkgerrors "vpnspeed/pkg/errors"
)

// Runner executes a command line and returns its output.
type Runner interface {
	Run(ctx context.Context, command string) string
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, command string) string

// Run calls f(ctx, command).
func (f RunnerFunc) Run(ctx context.Context, command string) string {
	return f(ctx, command)
}

// Exec runs commands through the platform shell.
type Exec struct {
	log log.Interface
}

// NewExec creates a shell runner that logs invocation failures to logger.
func NewExec(logger log.Interface) *Exec {
	return &Exec{log: logger}
}

// Run executes command and returns its trimmed standard output. A nonzero
// exit status still yields the output; any other failure yields the error
// text in place of output.
func (e *Exec) Run(ctx context.Context, command string) string {
	name, flag := shell()
	cmd := exec.CommandContext(ctx, name, flag, command)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		cerr := &pkgerrors.CommandError{Command: command, Err: err}
		e.log.WithError(err).Errorf("Error executing command `%s`", command)
		return cerr.Error()
	}

	return strings.TrimSpace(stdout.String())
}

func shell() (string, string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	return "sh", "-c"
}
