// Package rspec renders a topology as a GENI v3 request RSpec, the document
// the testbed provisioning service consumes.
package rspec

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/rzbill/labnet/pkg/types"
)

const (
	// Namespace is the GENI v3 rspec namespace.
	Namespace = "http://www.geni.net/resources/rspec/3"

	// EmulabNamespace holds the testbed specific extensions.
	EmulabNamespace = "http://www.protogeni.net/resources/rspec/ext/emulab/1"

	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "http://www.geni.net/resources/rspec/3 http://www.geni.net/resources/rspec/3/request.xsd"

	// ImageAuthority is the aggregate disk images are resolved against.
	ImageAuthority = "utah.cloudlab.us"

	// ImageProject owns the stock disk images.
	ImageProject = "emulab-ops"
)

// Request is the root of a request rspec.
type Request struct {
	XMLName        xml.Name `xml:"rspec"`
	Xmlns          string   `xml:"xmlns,attr"`
	XmlnsEmulab    string   `xml:"xmlns:emulab,attr"`
	XmlnsXSI       string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	Type           string   `xml:"type,attr"`
	Nodes          []Node   `xml:"node"`
	Links          []Link   `xml:"link"`
}

// Node is a raw PC request.
type Node struct {
	ClientID          string     `xml:"client_id,attr"`
	Exclusive         bool       `xml:"exclusive,attr"`
	SliverType        SliverType `xml:"sliver_type"`
	HardwareType      Named      `xml:"hardware_type"`
	Services          Services   `xml:"services"`
	Interface         Interface  `xml:"interface"`
	RoutableControlIP *struct{}  `xml:"emulab:routable_control_ip"`
	Blockstore        Blockstore `xml:"emulab:blockstore"`
}

type SliverType struct {
	Name      string `xml:"name,attr"`
	DiskImage Named  `xml:"disk_image"`
}

type Named struct {
	Name string `xml:"name,attr"`
}

type Services struct {
	Execute []Execute `xml:"execute"`
}

type Execute struct {
	Shell   string `xml:"shell,attr"`
	Command string `xml:"command,attr"`
}

type Interface struct {
	ClientID string `xml:"client_id,attr"`
}

type Blockstore struct {
	Name       string `xml:"name,attr"`
	Mountpoint string `xml:"mountpoint,attr"`
	Class      string `xml:"class,attr"`
	Size       string `xml:"size,attr"`
	Placement  string `xml:"placement,attr"`
}

// Link is a LAN request. Node members appear as interface refs, link
// members as emulab member_link elements.
type Link struct {
	ClientID         string         `xml:"client_id,attr"`
	InterfaceRefs    []InterfaceRef `xml:"interface_ref"`
	MemberLinks      []MemberLink   `xml:"emulab:member_link"`
	BestEffort       Toggle         `xml:"emulab:best_effort"`
	VLANTagging      Toggle         `xml:"emulab:vlan_tagging"`
	LinkMultiplexing Toggle         `xml:"emulab:link_multiplexing"`
	TrivialOK        Toggle         `xml:"emulab:trivial_ok"`
	Property         Property       `xml:"property"`
	LinkType         Named          `xml:"link_type"`
}

type InterfaceRef struct {
	ClientID string `xml:"client_id,attr"`
}

type MemberLink struct {
	ClientID string `xml:"client_id,attr"`
}

type Toggle struct {
	Enabled bool `xml:"enabled,attr"`
}

// Property carries capacity in kbps and latency in ms.
type Property struct {
	Capacity int     `xml:"capacity,attr"`
	Latency  float64 `xml:"latency,attr"`
}

// ImageURN returns the URN of a stock disk image.
func ImageURN(image types.DiskImage) string {
	return fmt.Sprintf("urn:publicid:IDN+%s+image+%s:%s", ImageAuthority, ImageProject, image)
}

// NewRequest converts a topology into a request rspec. Nodes keep their
// construction order, links are listed tors first, then aggregations, then core.
func NewRequest(t *types.Topology) *Request {
	req := &Request{
		Xmlns:          Namespace,
		XmlnsEmulab:    EmulabNamespace,
		XmlnsXSI:       xsiNamespace,
		SchemaLocation: schemaLocation,
		Type:           "request",
		Nodes:          make([]Node, 0, len(t.Nodes)),
	}

	for _, n := range t.Nodes {
		node := Node{
			ClientID:     n.Name,
			Exclusive:    true,
			SliverType:   SliverType{Name: "raw-pc", DiskImage: Named{Name: ImageURN(n.DiskImage)}},
			HardwareType: Named{Name: string(n.HardwareType)},
			Services:     Services{Execute: []Execute{{Shell: n.Setup.Shell, Command: n.Setup.Command}}},
			Interface:    Interface{ClientID: n.InterfaceID()},
			Blockstore: Blockstore{
				Name:       n.LocalStorage.Name,
				Mountpoint: n.LocalStorage.DevicePath,
				Class:      "local",
				Size:       n.LocalStorage.Size,
				Placement:  "any",
			},
		}
		if n.Routable {
			node.RoutableControlIP = &struct{}{}
		}
		req.Nodes = append(req.Nodes, node)
	}

	for _, l := range t.Links() {
		link := Link{
			ClientID:         l.Name,
			BestEffort:       Toggle{Enabled: l.BestEffort},
			VLANTagging:      Toggle{Enabled: l.VLANTagging},
			LinkMultiplexing: Toggle{Enabled: l.LinkMultiplexing},
			TrivialOK:        Toggle{Enabled: l.TrivialOK},
			Property:         Property{Capacity: l.Bandwidth, Latency: l.Latency},
			LinkType:         Named{Name: "lan"},
		}
		for _, m := range l.Members {
			switch m.Kind {
			case types.MemberNode:
				ifaceID := m.Name + ":" + types.ExperimentInterface
				if n, ok := t.Node(m.Name); ok {
					ifaceID = n.InterfaceID()
				}
				link.InterfaceRefs = append(link.InterfaceRefs, InterfaceRef{ClientID: ifaceID})
			case types.MemberLink:
				link.MemberLinks = append(link.MemberLinks, MemberLink{ClientID: m.Name})
			}
		}
		req.Links = append(req.Links, link)
	}

	return req
}

// Marshal renders the topology as an indented request rspec document.
func Marshal(t *types.Topology) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(NewRequest(t)); err != nil {
		return nil, fmt.Errorf("encode request rspec: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("flush request rspec: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
