// Package probe checks reachability and throughput from testbed hosts back
// to a reference address.
package probe

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/remote"
	"github.com/rzbill/labnet/pkg/types"
)

// Options shape the bundled remote check.
type Options struct {
	// PingCount is the number of echo requests sent.
	PingCount int
	// PingInterval is the ping -i argument, in seconds.
	PingInterval string
	// IperfSeconds is the duration of the iperf3 run.
	IperfSeconds int
}

// DefaultOptions returns five pings 200ms apart followed by a four second iperf3 run.
func DefaultOptions() Options {
	return Options{
		PingCount:    5,
		PingInterval: ".2",
		IperfSeconds: 4,
	}
}

// Command returns the remote command checking ref: a bounded ping, then,
// only if it succeeded, a bounded iperf3 client run.
func Command(ref string, opts Options) string {
	return fmt.Sprintf("ping -c %d -i %s %s && iperf3 -c %s -t %d",
		opts.PingCount, opts.PingInterval, ref, ref, opts.IperfSeconds)
}

// ReadTargets returns one target per non-blank line: its first
// whitespace-separated token. Remaining tokens are ignored.
func ReadTargets(r io.Reader) ([]string, error) {
	var targets []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		targets = append(targets, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read host list: %w", err)
	}
	return targets, nil
}

// Attempt is the outcome of checking one host.
type Attempt struct {
	Host   string
	Status int
	Err    error
}

// OK reports whether the remote check passed.
func (a Attempt) OK() bool {
	return a.Err == nil && a.Status == 0
}

// Result collects the attempts of a run.
type Result struct {
	RunID      string
	Ref        string
	StartedAt  time.Time
	FinishedAt time.Time
	Attempts   []Attempt
}

// Record converts the result into its run history form.
func (r Result) Record() *types.ProbeRun {
	run := &types.ProbeRun{
		ID:         r.RunID,
		Ref:        r.Ref,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Attempts:   make([]types.ProbeAttempt, 0, len(r.Attempts)),
		LastStatus: r.LastStatus(),
	}
	for _, a := range r.Attempts {
		pa := types.ProbeAttempt{Host: a.Host, Status: a.Status}
		if a.Err != nil {
			pa.Error = a.Err.Error()
		}
		run.Attempts = append(run.Attempts, pa)
	}
	return run
}

// LastStatus returns the exit status of the last attempt, or 0 if there was none.
func (r Result) LastStatus() int {
	if len(r.Attempts) == 0 {
		return 0
	}
	return r.Attempts[len(r.Attempts)-1].Status
}

// Prober runs the check against each host in turn.
type Prober struct {
	Runner  remote.Runner
	Options Options
	Logger  log.Logger
}

// New creates a Prober.
func New(runner remote.Runner, opts Options, logger log.Logger) *Prober {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Prober{
		Runner:  runner,
		Options: opts,
		Logger:  logger.WithComponent("probe"),
	}
}

// RunFile reads the host list at path and probes every target.
func (p *Prober) RunFile(ctx context.Context, path, ref string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open host list: %w", err)
	}
	defer f.Close()

	targets, err := ReadTargets(f)
	if err != nil {
		return Result{}, err
	}
	return p.Run(ctx, targets, ref), nil
}

// Run probes targets strictly one after another. A failing host is logged
// and does not stop the run.
func (p *Prober) Run(ctx context.Context, targets []string, ref string) Result {
	res := Result{RunID: uuid.NewString(), Ref: ref, StartedAt: time.Now()}
	logger := p.Logger.With(log.Str(log.RunIDKey, res.RunID), log.Str("ref", ref))
	command := Command(ref, p.Options)

	logger.Info("starting probe run", log.Int("targets", len(targets)))
	for _, host := range targets {
		logger.Info("test host", log.Str("host", host))

		status, err := p.Runner.Run(ctx, host, command)
		attempt := Attempt{Host: host, Status: status, Err: err}
		res.Attempts = append(res.Attempts, attempt)

		switch {
		case err != nil:
			logger.Warn("remote command could not run", log.Str("host", host), log.Err(err))
		case status != 0:
			logger.Warn("remote check failed", log.Str("host", host), log.Int("status", status))
		default:
			logger.Debug("remote check passed", log.Str("host", host))
		}
	}
	res.FinishedAt = time.Now()
	return res
}
