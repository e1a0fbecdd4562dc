// Command pingtest checks every host listed in a file against a reference
// address and exits with the status of the last host checked.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzbill/labnet/internal/config"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/probe"
	"github.com/rzbill/labnet/pkg/remote"
	"github.com/rzbill/labnet/pkg/store"
	"github.com/rzbill/labnet/pkg/utils"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: pingtest <hosts-file> <ref-addr>")
		os.Exit(1)
	}

	os.Exit(run(os.Args[1], os.Args[2]))
}

func run(hostsFile, ref string) int {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pingtest: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "pingtest: %v\n", err)
		return 1
	}

	logger, err := log.ApplyConfig(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pingtest: %v\n", err)
		return 1
	}

	keyPath, err := utils.ExpandHome(cfg.Probe.SSHKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pingtest: %v\n", err)
		return 1
	}
	runner, err := remote.New(remote.Kind(cfg.Probe.Runner), remote.Options{
		User:    cfg.Probe.User,
		KeyPath: keyPath,
	})
	if err != nil {
		logger.Error("failed to create remote runner", log.Err(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prober := probe.New(runner, probe.Options{
		PingCount:    cfg.Probe.PingCount,
		PingInterval: cfg.Probe.PingInterval,
		IperfSeconds: cfg.Probe.IperfSeconds,
	}, logger)

	res, err := prober.RunFile(ctx, hostsFile, ref)
	if err != nil {
		logger.Error("probe failed", log.Err(err))
		return 1
	}

	if cfg.Probe.HistoryDir != "" {
		if err := record(ctx, cfg.Probe.HistoryDir, res, logger); err != nil {
			logger.Warn("failed to record probe run", log.Err(err))
		}
	}
	return res.LastStatus()
}

func record(ctx context.Context, dir string, res probe.Result, logger log.Logger) error {
	path, err := utils.ExpandHome(dir)
	if err != nil {
		return err
	}
	s := store.NewBadgerStore(logger)
	if err := s.Open(path); err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(ctx, res.Record())
}
