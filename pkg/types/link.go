package types

import "fmt"

// Tier is the level of a LAN in the two-tier tree.
type Tier string

const (
	// TierTor is a leaf LAN holding nodes.
	TierTor Tier = "tor"

	// TierAggregation joins exactly two tor LANs.
	TierAggregation Tier = "aggregation"

	// TierCore joins every aggregation LAN.
	TierCore Tier = "core"
)

const (
	// LinkBandwidth is the requested capacity of every LAN, in kbps.
	LinkBandwidth = 999

	// LinkLatency is the requested latency of every LAN, in ms.
	LinkLatency = 0.1

	// CoreLinkName is the name of the single core LAN.
	CoreLinkName = "core"
)

// MemberKind tells whether a link member is a node or another link.
type MemberKind string

const (
	MemberNode MemberKind = "node"
	MemberLink MemberKind = "link"
)

// Member is a reference to a node or link attached to a link.
type Member struct {
	Kind MemberKind `json:"kind" yaml:"kind"`
	Name string     `json:"name" yaml:"name"`
}

// NodeMember references a node by name.
func NodeMember(name string) Member {
	return Member{Kind: MemberNode, Name: name}
}

// LinkMember references a link by name.
func LinkMember(name string) Member {
	return Member{Kind: MemberLink, Name: name}
}

// Link is a LAN segment. Links are built by NewLink and WithMembers, never
// modified in place.
type Link struct {
	Name string `json:"name" yaml:"name"`

	Tier Tier `json:"tier" yaml:"tier"`

	BestEffort       bool `json:"bestEffort" yaml:"bestEffort"`
	VLANTagging      bool `json:"vlanTagging" yaml:"vlanTagging"`
	LinkMultiplexing bool `json:"linkMultiplexing" yaml:"linkMultiplexing"`

	// TrivialOK allows the testbed to satisfy the LAN without a switch.
	TrivialOK bool `json:"trivialOk" yaml:"trivialOk"`

	// Bandwidth in kbps
	Bandwidth int `json:"bandwidth" yaml:"bandwidth"`

	// Latency in ms
	Latency float64 `json:"latency" yaml:"latency"`

	// Members in attachment order
	Members []Member `json:"members" yaml:"members"`
}

// NewLink builds a link of the given tier with the standard settings. Only
// tor links accept a trivial (switchless) embedding.
func NewLink(name string, tier Tier, members ...Member) Link {
	return Link{
		Name:             name,
		Tier:             tier,
		BestEffort:       true,
		VLANTagging:      false,
		LinkMultiplexing: false,
		TrivialOK:        tier == TierTor,
		Bandwidth:        LinkBandwidth,
		Latency:          LinkLatency,
		Members:          append([]Member(nil), members...),
	}
}

// WithMembers returns a copy of the link holding the given members.
func (l Link) WithMembers(members ...Member) Link {
	l.Members = append([]Member(nil), members...)
	return l
}

// MemberNames returns the names of the members of the given kind.
func (l Link) MemberNames(kind MemberKind) []string {
	var names []string
	for _, m := range l.Members {
		if m.Kind == kind {
			names = append(names, m.Name)
		}
	}
	return names
}

// TorName returns the name of the i-th tor link, counting from 1.
func TorName(i int) string {
	return fmt.Sprintf("tor%02d", i)
}

// AggregationName returns the name of the i-th aggregation link, counting from 1.
func AggregationName(i int) string {
	return fmt.Sprintf("agg%02d", i)
}
