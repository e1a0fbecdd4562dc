// Package topology derives a two-tier tor/aggregation/core network and the
// placement of every node in it from a ClusterSpec.
package topology

import (
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/types"
)

// Links is the set of LANs of a topology, grouped by tier.
type Links struct {
	Tors         []types.Link
	Aggregations []types.Link
	Core         types.Link
}

// Validate reports whether spec can be turned into a topology.
func Validate(spec types.ClusterSpec) error {
	return spec.Validate()
}

// BuildLinks creates torCount tor links, torCount/2 aggregation links and the
// core link. Aggregation k joins tors 2k and 2k+1. Tor links are returned
// without members; nodes are attached by AssignNodesToTors.
func BuildLinks(torCount int) (Links, error) {
	if err := (types.ClusterSpec{TorCount: torCount}).Validate(); err != nil {
		return Links{}, err
	}

	tors := make([]types.Link, torCount)
	for i := range tors {
		tors[i] = types.NewLink(types.TorName(i+1), types.TierTor)
	}

	aggs := make([]types.Link, torCount/2)
	coreMembers := make([]types.Member, 0, len(aggs))
	for k := range aggs {
		aggs[k] = types.NewLink(types.AggregationName(k+1), types.TierAggregation,
			types.LinkMember(tors[2*k].Name),
			types.LinkMember(tors[2*k+1].Name),
		)
		coreMembers = append(coreMembers, types.LinkMember(aggs[k].Name))
	}

	return Links{
		Tors:         tors,
		Aggregations: aggs,
		Core:         types.NewLink(types.CoreLinkName, types.TierCore, coreMembers...),
	}, nil
}

// BuildNodes returns the jumphost, the controller and then the workers
// worker01..workerNN, in that order.
func BuildNodes(spec types.ClusterSpec) []types.Node {
	nodes := make([]types.Node, 0, spec.NodeCount())
	nodes = append(nodes,
		types.NewNode(types.JumphostName, types.RoleJumphost, spec),
		types.NewNode(types.ControllerName, types.RoleController, spec),
	)
	for i := 1; i <= spec.WorkerCount; i++ {
		nodes = append(nodes, types.NewNode(types.WorkerName(i), types.RoleWorker, spec))
	}
	return nodes
}

// AssignNodesToTors attaches the node at position idx to tors[idx%len(tors)].
// idx runs over all nodes, so the jumphost and controller take tor slots
// like any worker. It returns the attachment map and the tor links rebuilt
// with their node members in attachment order.
func AssignNodesToTors(nodes []types.Node, tors []types.Link) (map[string]string, []types.Link) {
	attachments := make(map[string]string, len(nodes))
	if len(tors) == 0 {
		return attachments, nil
	}

	members := make([][]types.Member, len(tors))
	for idx, n := range nodes {
		slot := idx % len(tors)
		attachments[n.Name] = tors[slot].Name
		members[slot] = append(members[slot], types.NodeMember(n.Name))
	}

	attached := make([]types.Link, len(tors))
	for i, tor := range tors {
		attached[i] = tor.WithMembers(members[i]...)
	}
	return attachments, attached
}

// Build validates spec and computes its topology. Nothing is built when
// validation fails.
func Build(spec types.ClusterSpec) (*types.Topology, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}

	links, err := BuildLinks(spec.TorCount)
	if err != nil {
		return nil, err
	}
	nodes := BuildNodes(spec)
	attachments, tors := AssignNodesToTors(nodes, links.Tors)

	return &types.Topology{
		Spec:         spec,
		Nodes:        nodes,
		Tors:         tors,
		Aggregations: links.Aggregations,
		Core:         links.Core,
		Attachments:  attachments,
	}, nil
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used by the builder.
func WithLogger(logger log.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// Builder wraps Build with logging for command line use.
type Builder struct {
	logger log.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{logger: log.GetDefaultLogger()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithComponent("topology")
	return b
}

// Build computes the topology for spec.
func (b *Builder) Build(spec types.ClusterSpec) (*types.Topology, error) {
	t, err := Build(spec)
	if err != nil {
		b.logger.Error("invalid cluster parameters", log.Err(err), log.Int("num_tor", spec.TorCount))
		return nil, err
	}

	for _, tor := range t.Tors {
		if len(tor.Members) == 0 {
			b.logger.Warn("tor link has no nodes attached",
				log.Str("link", tor.Name), log.Int("nodes", len(t.Nodes)), log.Int("num_tor", spec.TorCount))
		}
	}

	b.logger.Debug("built topology",
		log.Int("nodes", len(t.Nodes)),
		log.Int("tors", len(t.Tors)),
		log.Int("aggregations", len(t.Aggregations)))
	return t, nil
}
