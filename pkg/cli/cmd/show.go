package cmd

import (
	"fmt"

	"github.com/rzbill/labnet/pkg/cli/format"
	"github.com/spf13/cobra"
)

type showOptions struct {
	cluster   clusterFlags
	noHeaders bool
	nodesOnly bool
	linksOnly bool
}

func newShowCmd(global *globalOptions) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the nodes and links of the cluster topology",
		Example: `  labnet show
  labnet show --num-worker 10 --num-tor 4 --links`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.nodesOnly && opts.linksOnly {
				return fmt.Errorf("--nodes and --links are mutually exclusive")
			}
			_, topo, _, err := buildTopology(cmd, global, &opts.cluster)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			table := NewResourceTable()
			table.ShowHeaders = !opts.noHeaders

			if !opts.linksOnly {
				fmt.Fprintln(out, format.Header("Nodes"))
				if err := table.RenderNodes(out, topo); err != nil {
					return err
				}
			}
			if !opts.nodesOnly {
				if !opts.linksOnly {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, format.Header("Links"))
				if err := table.RenderLinks(out, topo); err != nil {
					return err
				}
			}
			return nil
		},
	}

	opts.cluster.register(cmd)
	cmd.Flags().BoolVar(&opts.noHeaders, "no-headers", false, "don't print table headers")
	cmd.Flags().BoolVar(&opts.nodesOnly, "nodes", false, "only print nodes")
	cmd.Flags().BoolVar(&opts.linksOnly, "links", false, "only print links")
	return cmd
}
