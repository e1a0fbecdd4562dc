// Package types defines the core data structures for labnet topologies.
package types

import "fmt"

// HardwareType is the testbed node type every machine is allocated as.
type HardwareType string

// DiskImage is the base disk image every machine is booted with.
type DiskImage string

const (
	// HardwareM510 is the CloudLab Utah m510 (8-Core Intel Xeon D-1548).
	HardwareM510 HardwareType = "m510"

	// ImageUbuntu16 is the stock Ubuntu 16.04 image.
	ImageUbuntu16 DiskImage = "UBUNTU16-64-STD"
)

// KnownHardwareTypes lists hardware types offered by default, with the label
// shown on the testbed dashboard. Other values are passed through untouched.
var KnownHardwareTypes = map[HardwareType]string{
	HardwareM510: "m510 (CloudLab Utah, 8-Core Intel Xeon D-1548)",
}

// KnownDiskImages lists disk images offered by default, with their label.
var KnownDiskImages = map[DiskImage]string{
	ImageUbuntu16: "Ubuntu 16.04",
}

const (
	// DefaultWorkerCount is the number of workers when none is configured.
	DefaultWorkerCount = 6

	// DefaultTorCount is the number of tor links when none is configured.
	DefaultTorCount = 2

	// DefaultLocalStorageSize is the size of each node-local block store.
	DefaultLocalStorageSize = "20GB"
)

// ClusterSpec holds the parameters a topology is derived from.
type ClusterSpec struct {
	// Number of worker servers. The experiment holds WorkerCount+2 machines.
	WorkerCount int `json:"numWorker" yaml:"num_worker" mapstructure:"num_worker"`

	// Number of tor links. Must be even and at least 2.
	TorCount int `json:"numTor" yaml:"num_tor" mapstructure:"num_tor"`

	HardwareType HardwareType `json:"hardwareType" yaml:"hardware_type" mapstructure:"hardware_type"`

	DiskImage DiskImage `json:"image" yaml:"image" mapstructure:"image"`

	// User for which all user-specific software is configured.
	Username string `json:"username" yaml:"username" mapstructure:"username"`

	// Size of the node-local storage partition, e.g. "20GB".
	LocalStorageSize string `json:"localStorageSize" yaml:"local_storage_size" mapstructure:"local_storage_size"`
}

// DefaultClusterSpec returns a ClusterSpec populated with the default parameters.
func DefaultClusterSpec() ClusterSpec {
	return ClusterSpec{
		WorkerCount:      DefaultWorkerCount,
		TorCount:         DefaultTorCount,
		HardwareType:     HardwareM510,
		DiskImage:        ImageUbuntu16,
		LocalStorageSize: DefaultLocalStorageSize,
	}
}

// Validate checks the tor count rule. No other field is range checked.
func (c ClusterSpec) Validate() error {
	if c.TorCount < 2 || c.TorCount%2 != 0 {
		return NewInvalidTopologyError("num_tor",
			fmt.Sprintf("number of tor switches must be a multiple of two (and >=2), got %d", c.TorCount))
	}
	return nil
}

// NodeCount returns the total number of machines: jumphost, controller and workers.
func (c ClusterSpec) NodeCount() int {
	if c.WorkerCount < 0 {
		return 2
	}
	return c.WorkerCount + 2
}
