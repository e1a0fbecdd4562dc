package cmd

import (
	"fmt"

	"github.com/rzbill/labnet/pkg/cli/format"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/probe"
	"github.com/rzbill/labnet/pkg/remote"
	"github.com/rzbill/labnet/pkg/utils"
	"github.com/spf13/cobra"
)

// newRunner is swapped out in tests.
var newRunner = remote.New

type probeOptions struct {
	runner       string
	user         string
	sshKey       string
	pingCount    int
	iperfSeconds int
	summary      bool
	historyDir   string
}

func newProbeCmd(global *globalOptions) *cobra.Command {
	opts := &probeOptions{}

	cmd := &cobra.Command{
		Use:   "probe HOSTS_FILE REF_ADDR",
		Short: "Check reachability and throughput from each host to a reference address",
		Long: `Probe logs into every host listed in HOSTS_FILE, one per line (only the
first whitespace-separated token of a line is used), and runs a short
ping followed by an iperf3 client run against REF_ADDR. Hosts are
checked one after another; a failing host does not stop the run. The
exit status is the status of the last host checked.`,
		Example: `  labnet probe hosts.txt 10.10.1.1
  labnet probe --runner native --ssh-key ~/.ssh/testbed hosts.txt 10.10.1.1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, global, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.runner, "runner", "", "remote runner (exec, native)")
	cmd.Flags().StringVar(&opts.user, "user", "", "login user on the hosts")
	cmd.Flags().StringVar(&opts.sshKey, "ssh-key", "", "private key used to log in")
	cmd.Flags().IntVar(&opts.pingCount, "ping-count", 0, "number of echo requests per host")
	cmd.Flags().IntVar(&opts.iperfSeconds, "iperf-seconds", 0, "iperf3 run duration per host")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print a per-host summary at the end")
	cmd.Flags().StringVar(&opts.historyDir, "history-dir", "", "record the run in the history database at this directory")
	return cmd
}

func runProbe(cmd *cobra.Command, global *globalOptions, opts *probeOptions, hostsFile, ref string) error {
	cfg, logger, err := loadConfig(cmd, global)
	if err != nil {
		return err
	}

	cfg.Probe.Runner = utils.PickFirstNonEmpty(opts.runner, cfg.Probe.Runner)
	cfg.Probe.User = utils.PickFirstNonEmpty(opts.user, cfg.Probe.User)
	cfg.Probe.SSHKey = utils.PickFirstNonEmpty(opts.sshKey, cfg.Probe.SSHKey)
	cfg.Probe.HistoryDir = utils.PickFirstNonEmpty(opts.historyDir, cfg.Probe.HistoryDir)
	if opts.pingCount != 0 {
		cfg.Probe.PingCount = opts.pingCount
	}
	if opts.iperfSeconds != 0 {
		cfg.Probe.IperfSeconds = opts.iperfSeconds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	keyPath, err := utils.ExpandHome(cfg.Probe.SSHKey)
	if err != nil {
		return err
	}
	runner, err := newRunner(remote.Kind(cfg.Probe.Runner), remote.Options{
		User:    cfg.Probe.User,
		KeyPath: keyPath,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	prober := probe.New(runner, probe.Options{
		PingCount:    cfg.Probe.PingCount,
		PingInterval: cfg.Probe.PingInterval,
		IperfSeconds: cfg.Probe.IperfSeconds,
	}, logger)

	res, err := prober.RunFile(cmd.Context(), hostsFile, ref)
	if err != nil {
		return err
	}

	if cfg.Probe.HistoryDir != "" {
		if err := recordRun(cmd.Context(), cfg.Probe.HistoryDir, res.Record(), logger); err != nil {
			logger.Warn("failed to record probe run", log.Str(log.RunIDKey, res.RunID), log.Err(err))
		}
	}

	if opts.summary {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, format.Header("Probe %s", res.RunID))
		for _, a := range res.Attempts {
			fmt.Fprintf(out, "  %s %s (status %d)\n", format.StatusSymbol(a.OK()), a.Host, a.Status)
		}
	}

	if status := res.LastStatus(); status != 0 {
		return &ExitError{Code: status}
	}
	return nil
}
