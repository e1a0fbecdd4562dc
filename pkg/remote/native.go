package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rzbill/labnet/pkg/utils"
	"golang.org/x/crypto/ssh"
)

// NativeRunner runs commands with the golang.org/x/crypto/ssh client.
type NativeRunner struct {
	Options Options
	Port    string
	Timeout time.Duration
	config  *ssh.ClientConfig
}

const defaultKeyPath = "~/.ssh/id_rsa"

// NewNativeRunner loads the private key and prepares the client config.
// KeyPath defaults to ~/.ssh/id_rsa.
func NewNativeRunner(opts Options) (*NativeRunner, error) {
	opts = opts.withDefaults()
	keyPath, err := utils.ExpandHome(utils.PickFirstNonEmpty(opts.KeyPath, defaultKeyPath))
	if err != nil {
		return nil, fmt.Errorf("resolve ssh key path: %w", err)
	}
	opts.KeyPath = keyPath

	pem, err := os.ReadFile(opts.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key %s: %w", opts.KeyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key %s: %w", opts.KeyPath, err)
	}

	r := &NativeRunner{
		Options: opts,
		Port:    "22",
		Timeout: 10 * time.Second,
	}
	r.config = &ssh.ClientConfig{
		User:            opts.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // throwaway testbed hosts
		Timeout:         r.Timeout,
	}
	return r, nil
}

// Run dials host, runs command in a session and returns its exit status.
func (r *NativeRunner) Run(ctx context.Context, host, command string) (int, error) {
	addr := net.JoinHostPort(strings.TrimSpace(host), r.Port)

	dialer := net.Dialer{Timeout: r.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return StatusUnavailable, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, r.config)
	if err != nil {
		conn.Close()
		return StatusUnavailable, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return StatusUnavailable, fmt.Errorf("open session on %s: %w", addr, err)
	}
	defer session.Close()

	session.Stdout = r.Options.Stdout
	session.Stderr = r.Options.Stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		client.Close()
		return StatusUnavailable, ctx.Err()
	case err := <-done:
		return exitStatus(err)
	}
}

func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}
	return StatusUnavailable, err
}
