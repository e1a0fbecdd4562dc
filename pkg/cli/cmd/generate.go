package cmd

import (
	"fmt"

	"github.com/rzbill/labnet/pkg/cli/format"
	"github.com/rzbill/labnet/pkg/emit"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/utils"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	cluster clusterFlags
	format  string
	output  string
}

func newGenerateCmd(global *globalOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the cluster request descriptor",
		Long: `Build the tor/aggregation/core topology for the cluster parameters and
write its request descriptor. The rspec format is what the testbed
provisioning service consumes; yaml and json carry the same content.`,
		Example: `  # Default cluster: 6 workers on 2 tors, rspec on stdout
  labnet generate --username alice

  # Larger cluster written to a file
  labnet generate --num-worker 14 --num-tor 4 -o profile.xml

  # Inspect the topology as yaml
  labnet generate --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, global, opts)
		},
	}

	opts.cluster.register(cmd)
	cmd.Flags().StringVar(&opts.format, "format", "", "descriptor format (rspec, yaml, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the descriptor to a file instead of stdout")
	return cmd
}

func runGenerate(cmd *cobra.Command, global *globalOptions, opts *generateOptions) error {
	cfg, topo, logger, err := buildTopology(cmd, global, &opts.cluster)
	if err != nil {
		return err
	}

	cfg.Output.Format = utils.PickFirstNonEmpty(opts.format, cfg.Output.Format)
	cfg.Output.Path = utils.PickFirstNonEmpty(opts.output, cfg.Output.Path)
	if err := cfg.Validate(); err != nil {
		return err
	}

	f, err := emit.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	var submitter emit.Submitter = emit.WriterSubmitter{W: cmd.OutOrStdout()}
	if cfg.Output.Path != "" && cfg.Output.Path != "-" {
		submitter = emit.FileSubmitter{Path: cfg.Output.Path}
	}

	if err := emit.New(f, submitter, logger).Emit(cmd.Context(), topo); err != nil {
		logger.Error("descriptor emission failed", log.Err(err))
		return err
	}

	if fs, ok := submitter.(emit.FileSubmitter); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s wrote %s descriptor to %s (%d nodes, %d links)\n",
			format.StatusSymbol(true), f, fs.Path, len(topo.Nodes), len(topo.Links()))
	}
	return nil
}
