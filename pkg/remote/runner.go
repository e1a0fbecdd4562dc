// Package remote runs shell commands on testbed hosts over SSH.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	// DefaultUser is the login user of the stock testbed images.
	DefaultUser = "ubuntu"

	// StatusUnavailable is reported when the remote command could not be run
	// at all, matching the ssh client's own exit code for connection errors.
	StatusUnavailable = 255
)

// Runner runs a command on a remote host and reports its exit status. A
// non-nil error means the command could not be started; a command that ran
// and failed returns its status and a nil error.
type Runner interface {
	Run(ctx context.Context, host, command string) (int, error)
}

// Kind names a Runner implementation.
type Kind string

const (
	// KindExec spawns the system ssh client.
	KindExec Kind = "exec"

	// KindNative uses an in-process SSH client.
	KindNative Kind = "native"
)

// Options are shared by every Runner implementation.
type Options struct {
	User    string
	KeyPath string
	Stdout  io.Writer
	Stderr  io.Writer
}

func (o Options) withDefaults() Options {
	if o.User == "" {
		o.User = DefaultUser
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// New creates a Runner of the given kind.
func New(kind Kind, opts Options) (Runner, error) {
	switch kind {
	case KindExec, "":
		return NewExecRunner(opts), nil
	case KindNative:
		return NewNativeRunner(opts)
	default:
		return nil, fmt.Errorf("unknown remote runner %q", kind)
	}
}

// ExecRunner runs commands through the ssh binary found on PATH.
type ExecRunner struct {
	// SSHPath overrides the ssh binary.
	SSHPath string
	Options Options
	// ExtraArgs are passed before the destination, e.g. "-p", "2222".
	ExtraArgs []string
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(opts Options) *ExecRunner {
	return &ExecRunner{
		SSHPath: "ssh",
		Options: opts.withDefaults(),
	}
}

// Args returns the ssh client arguments used to run command on host.
func (r *ExecRunner) Args(host, command string) []string {
	args := []string{
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		"-o", "ConnectTimeout=10",
	}
	if r.Options.KeyPath != "" {
		args = append(args, "-i", r.Options.KeyPath)
	}
	args = append(args, r.ExtraArgs...)
	args = append(args, r.Options.User+"@"+strings.TrimSpace(host), command)
	return args
}

// Run executes command on host and returns the ssh client's exit status,
// which is the remote command's status when the connection succeeded.
func (r *ExecRunner) Run(ctx context.Context, host, command string) (int, error) {
	cmd := exec.CommandContext(ctx, r.SSHPath, r.Args(host, command)...)
	cmd.Stdout = r.Options.Stdout
	cmd.Stderr = r.Options.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return StatusUnavailable, fmt.Errorf("ssh %s: %w", host, err)
}
