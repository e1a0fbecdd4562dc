package types

// Topology is the full descriptor handed to the emitter: every node, every
// link and the tor each node is attached to.
type Topology struct {
	Spec ClusterSpec `json:"spec" yaml:"spec"`

	// Nodes in construction order: jumphost, controller, workers
	Nodes []Node `json:"nodes" yaml:"nodes"`

	Tors         []Link `json:"tors" yaml:"tors"`
	Aggregations []Link `json:"aggregations" yaml:"aggregations"`
	Core         Link   `json:"core" yaml:"core"`

	// Attachments maps node name to tor link name.
	Attachments map[string]string `json:"attachments" yaml:"attachments"`
}

// Links returns every link, tors first, then aggregations, then core.
func (t *Topology) Links() []Link {
	links := make([]Link, 0, len(t.Tors)+len(t.Aggregations)+1)
	links = append(links, t.Tors...)
	links = append(links, t.Aggregations...)
	links = append(links, t.Core)
	return links
}

// Node looks up a node by name.
func (t *Topology) Node(name string) (Node, bool) {
	for _, n := range t.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// Link looks up a link by name.
func (t *Topology) Link(name string) (Link, bool) {
	for _, l := range t.Links() {
		if l.Name == name {
			return l, true
		}
	}
	return Link{}, false
}

// AttachmentOf returns the tor link a node is attached to.
func (t *Topology) AttachmentOf(node string) (string, bool) {
	tor, ok := t.Attachments[node]
	return tor, ok
}

// RoutableNodes returns the nodes with a public control IP.
func (t *Topology) RoutableNodes() []Node {
	var out []Node
	for _, n := range t.Nodes {
		if n.Routable {
			out = append(out, n)
		}
	}
	return out
}
