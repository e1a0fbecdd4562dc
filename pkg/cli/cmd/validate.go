package cmd

import (
	"fmt"

	"github.com/rzbill/labnet/pkg/cli/format"
	"github.com/spf13/cobra"
)

func newValidateCmd(global *globalOptions) *cobra.Command {
	flags := &clusterFlags{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the cluster parameters without emitting a descriptor",
		Example: `  labnet validate --num-tor 4
  labnet validate --config labnet.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, topo, _, err := buildTopology(cmd, global, flags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s topology is valid: %d nodes, %d tor, %d aggregation, 1 core\n",
				format.StatusSymbol(true), len(topo.Nodes), len(topo.Tors), len(topo.Aggregations))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
