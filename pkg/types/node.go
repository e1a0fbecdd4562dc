package types

import "fmt"

// Role is the function a machine serves in the experiment.
type Role string

const (
	// RoleJumphost is the single publicly routable entry point.
	RoleJumphost Role = "jumphost"

	// RoleController runs the experiment controller.
	RoleController Role = "controller"

	// RoleWorker is a cluster server.
	RoleWorker Role = "worker"
)

const (
	// JumphostName is the hostname of the jumphost.
	JumphostName = "jumphost"

	// ControllerName is the hostname of the experiment controller.
	ControllerName = "expctrl"

	// LocalStorageDevice is the device path of every node-local block store.
	LocalStorageDevice = "/dev/xvdca"

	// ExperimentInterface is the name of the interface each node attaches to its tor.
	ExperimentInterface = "exp_iface"

	// SetupScript is run on every node after boot.
	SetupScript = "/local/repository/system-setup.sh"
)

// BlockStore is a node-local storage partition.
type BlockStore struct {
	Name       string `json:"name" yaml:"name"`
	DevicePath string `json:"devicePath" yaml:"devicePath"`
	Size       string `json:"size" yaml:"size"`
}

// Execute is a command run on a node once it has booted.
type Execute struct {
	Shell   string `json:"shell" yaml:"shell"`
	Command string `json:"command" yaml:"command"`
}

// Node represents a machine in the experiment. Nodes are built by NewNode and
// are not modified afterwards.
type Node struct {
	// Hostname, unique within a topology
	Name string `json:"name" yaml:"name"`

	Role Role `json:"role" yaml:"role"`

	HardwareType HardwareType `json:"hardwareType" yaml:"hardwareType"`

	DiskImage DiskImage `json:"diskImage" yaml:"diskImage"`

	// Routable means the node gets a public control IP.
	Routable bool `json:"routable" yaml:"routable"`

	// Interface is the name of the interface attached to the node's tor.
	Interface string `json:"interface" yaml:"interface"`

	LocalStorage BlockStore `json:"localStorage" yaml:"localStorage"`

	// Setup is the post-boot command.
	Setup Execute `json:"setup" yaml:"setup"`
}

// NewNode builds a fully populated node for the given spec.
// Only the jumphost is routable.
func NewNode(name string, role Role, spec ClusterSpec) Node {
	return Node{
		Name:         name,
		Role:         role,
		HardwareType: spec.HardwareType,
		DiskImage:    spec.DiskImage,
		Routable:     role == RoleJumphost,
		Interface:    ExperimentInterface,
		LocalStorage: BlockStore{
			Name:       name + "_local_storage_bs",
			DevicePath: LocalStorageDevice,
			Size:       spec.LocalStorageSize,
		},
		Setup: Execute{
			Shell:   "sh",
			Command: fmt.Sprintf("sudo %s %s %s %d", SetupScript, LocalStorageDevice, spec.Username, spec.WorkerCount),
		},
	}
}

// InterfaceID returns the client id of the node's experiment interface.
func (n Node) InterfaceID() string {
	return n.Name + ":" + n.Interface
}

// WorkerName returns the hostname of the i-th worker, counting from 1.
func WorkerName(i int) string {
	return fmt.Sprintf("worker%02d", i)
}
