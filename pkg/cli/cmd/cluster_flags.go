package cmd

import (
	"fmt"

	"github.com/rzbill/labnet/internal/config"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/topology"
	"github.com/rzbill/labnet/pkg/types"
	"github.com/spf13/cobra"
)

// clusterFlags mirror the cluster section of the config file.
type clusterFlags struct {
	image            string
	hardwareType     string
	username         string
	numWorker        int
	numTor           int
	localStorageSize string
}

func (f *clusterFlags) register(cmd *cobra.Command) {
	defaults := types.DefaultClusterSpec()
	cmd.Flags().StringVar(&f.image, "image", string(defaults.DiskImage), "base disk image every node boots")
	cmd.Flags().StringVar(&f.hardwareType, "hardware-type", string(defaults.HardwareType), "node hardware type")
	cmd.Flags().StringVar(&f.username, "username", "", "user for which user-specific software is configured")
	cmd.Flags().IntVar(&f.numWorker, "num-worker", defaults.WorkerCount, "number of worker servers (the experiment adds a jumphost and a controller)")
	cmd.Flags().IntVar(&f.numTor, "num-tor", defaults.TorCount, "number of tor switches, a multiple of two")
	cmd.Flags().StringVar(&f.localStorageSize, "local-storage-size", defaults.LocalStorageSize, "size of the node-local storage partition")
}

// apply overrides spec with the flags set on the command line.
func (f *clusterFlags) apply(cmd *cobra.Command, spec *types.ClusterSpec) {
	changed := cmd.Flags().Changed
	if changed("image") {
		spec.DiskImage = types.DiskImage(f.image)
	}
	if changed("hardware-type") {
		spec.HardwareType = types.HardwareType(f.hardwareType)
	}
	if changed("username") {
		spec.Username = f.username
	}
	if changed("num-worker") {
		spec.WorkerCount = f.numWorker
	}
	if changed("num-tor") {
		spec.TorCount = f.numTor
	}
	if changed("local-storage-size") {
		spec.LocalStorageSize = f.localStorageSize
	}
}

// buildTopology loads the config, applies the cluster flags and builds the
// topology.
func buildTopology(cmd *cobra.Command, opts *globalOptions, flags *clusterFlags) (*config.Config, *types.Topology, log.Logger, error) {
	cfg, logger, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	flags.apply(cmd, &cfg.Cluster)

	topo, err := topology.NewBuilder(topology.WithLogger(logger)).Build(cfg.Cluster)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid cluster parameters: %w", err)
	}
	return cfg, topo, logger, nil
}
