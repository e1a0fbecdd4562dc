package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rzbill/labnet/pkg/cli/format"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/store"
	"github.com/rzbill/labnet/pkg/types"
	"github.com/rzbill/labnet/pkg/utils"
	"github.com/spf13/cobra"
)

// openHistory is swapped out in tests.
var openHistory = func(dir string, logger log.Logger) (store.Store, error) {
	path, err := utils.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	s := store.NewBadgerStore(logger)
	if err := s.Open(path); err != nil {
		return nil, err
	}
	return s, nil
}

func recordRun(ctx context.Context, dir string, run *types.ProbeRun, logger log.Logger) error {
	s, err := openHistory(dir, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(ctx, run)
}

type historyOptions struct {
	historyDir string
	delete     bool
}

func newHistoryCmd(global *globalOptions) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recorded probe runs, or show the hosts of one run",
		Example: `  labnet history --history-dir ~/.labnet/history
  labnet history 6f1c2a9e-0d4b-4a8e-9d53-b1f4c2d7e001
  labnet history --delete 6f1c2a9e-0d4b-4a8e-9d53-b1f4c2d7e001`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, global)
			if err != nil {
				return err
			}
			dir := utils.PickFirstNonEmpty(opts.historyDir, cfg.Probe.HistoryDir)
			if dir == "" {
				return fmt.Errorf("no history directory configured (set probe.history_dir or --history-dir)")
			}
			if opts.delete && len(args) == 0 {
				return fmt.Errorf("--delete needs a run id")
			}

			s, err := openHistory(dir, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			table := NewResourceTable()

			switch {
			case opts.delete:
				if err := s.DeleteRun(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s deleted run %s\n", format.StatusSymbol(true), args[0])
				return nil
			case len(args) == 1:
				run, err := s.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return renderRun(out, table, run)
			default:
				runs, err := s.ListRuns(ctx)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No probe runs recorded")
					return nil
				}
				return renderRuns(out, table, runs)
			}
		},
	}

	cmd.Flags().StringVar(&opts.historyDir, "history-dir", "", "history database directory")
	cmd.Flags().BoolVar(&opts.delete, "delete", false, "delete the given run")
	return cmd
}

func renderRuns(w io.Writer, t *ResourceTable, runs []*types.ProbeRun) error {
	headers := []string{"ID", "STARTED", "REF", "HOSTS", "FAILED", "LAST_STATUS"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		failed := fmt.Sprintf("%d", r.Failed())
		if r.Failed() > 0 {
			failed = format.Warning("%s", failed)
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Ref,
			fmt.Sprintf("%d", len(r.Attempts)),
			failed,
			fmt.Sprintf("%d", r.LastStatus),
		})
	}
	return t.render(w, headers, rows)
}

func renderRun(w io.Writer, t *ResourceTable, run *types.ProbeRun) error {
	fmt.Fprintln(w, format.Label("Run", run.ID))
	fmt.Fprintln(w, format.Label("Ref", run.Ref))
	fmt.Fprintln(w, format.Label("Duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()))

	headers := []string{"HOST", "OK", "STATUS", "ERROR"}
	rows := make([][]string, 0, len(run.Attempts))
	for _, a := range run.Attempts {
		rows = append(rows, []string{
			a.Host,
			format.StatusSymbol(a.Status == 0 && a.Error == ""),
			fmt.Sprintf("%d", a.Status),
			a.Error,
		})
	}
	return t.render(w, headers, rows)
}
