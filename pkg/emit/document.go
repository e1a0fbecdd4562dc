// Package emit serializes topologies and delivers the resulting descriptor
// to the provisioning channel.
package emit

import (
	"github.com/rzbill/labnet/pkg/rspec"
	"github.com/rzbill/labnet/pkg/types"
)

// Document is the format neutral descriptor used by the yaml and json encodings.
type Document struct {
	Kind  string         `json:"kind" yaml:"kind"`
	Spec  DocumentSpec   `json:"spec" yaml:"spec"`
	Nodes []DocumentNode `json:"nodes" yaml:"nodes"`
	Links []DocumentLink `json:"links" yaml:"links"`
}

type DocumentSpec struct {
	NumWorker        int    `json:"numWorker" yaml:"num_worker"`
	NumTor           int    `json:"numTor" yaml:"num_tor"`
	HardwareType     string `json:"hardwareType" yaml:"hardware_type"`
	Image            string `json:"image" yaml:"image"`
	Username         string `json:"username" yaml:"username"`
	LocalStorageSize string `json:"localStorageSize" yaml:"local_storage_size"`
}

type DocumentNode struct {
	Name              string           `json:"name" yaml:"name"`
	Role              string           `json:"role" yaml:"role"`
	HardwareType      string           `json:"hardwareType" yaml:"hardware_type"`
	DiskImage         string           `json:"diskImage" yaml:"disk_image"`
	RoutableControlIP bool             `json:"routableControlIp" yaml:"routable_control_ip"`
	Interface         string           `json:"interface" yaml:"interface"`
	Link              string           `json:"link" yaml:"link"`
	Blockstore        types.BlockStore `json:"blockstore" yaml:"blockstore"`
	Setup             types.Execute    `json:"setup" yaml:"setup"`
}

type DocumentLink struct {
	Name             string   `json:"name" yaml:"name"`
	Tier             string   `json:"tier" yaml:"tier"`
	BestEffort       bool     `json:"bestEffort" yaml:"best_effort"`
	VLANTagging      bool     `json:"vlanTagging" yaml:"vlan_tagging"`
	LinkMultiplexing bool     `json:"linkMultiplexing" yaml:"link_multiplexing"`
	TrivialOK        bool     `json:"trivialOk" yaml:"trivial_ok"`
	Bandwidth        int      `json:"bandwidth" yaml:"bandwidth"`
	Latency          float64  `json:"latency" yaml:"latency"`
	Interfaces       []string `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Links            []string `json:"links,omitempty" yaml:"links,omitempty"`
}

// NewDocument flattens a topology into a Document.
func NewDocument(t *types.Topology) *Document {
	doc := &Document{
		Kind: "ClusterTopology",
		Spec: DocumentSpec{
			NumWorker:        t.Spec.WorkerCount,
			NumTor:           t.Spec.TorCount,
			HardwareType:     string(t.Spec.HardwareType),
			Image:            string(t.Spec.DiskImage),
			Username:         t.Spec.Username,
			LocalStorageSize: t.Spec.LocalStorageSize,
		},
		Nodes: make([]DocumentNode, 0, len(t.Nodes)),
	}

	for _, n := range t.Nodes {
		link, _ := t.AttachmentOf(n.Name)
		doc.Nodes = append(doc.Nodes, DocumentNode{
			Name:              n.Name,
			Role:              string(n.Role),
			HardwareType:      string(n.HardwareType),
			DiskImage:         rspec.ImageURN(n.DiskImage),
			RoutableControlIP: n.Routable,
			Interface:         n.InterfaceID(),
			Link:              link,
			Blockstore:        n.LocalStorage,
			Setup:             n.Setup,
		})
	}

	for _, l := range t.Links() {
		dl := DocumentLink{
			Name:             l.Name,
			Tier:             string(l.Tier),
			BestEffort:       l.BestEffort,
			VLANTagging:      l.VLANTagging,
			LinkMultiplexing: l.LinkMultiplexing,
			TrivialOK:        l.TrivialOK,
			Bandwidth:        l.Bandwidth,
			Latency:          l.Latency,
			Links:            l.MemberNames(types.MemberLink),
		}
		for _, name := range l.MemberNames(types.MemberNode) {
			dl.Interfaces = append(dl.Interfaces, name+":"+types.ExperimentInterface)
		}
		doc.Links = append(doc.Links, dl)
	}

	return doc
}
