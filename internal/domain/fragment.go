package domain

// Map is the full {spheres, nodes, edges} payload of one organization.
// It is the unit of replacement for the view-state store and the shape
// of bulk export and import.
type Map struct {
	OrganizationID int64    `json:"organization_id,omitempty" yaml:"organization_id,omitempty"`
	Spheres        []Sphere `json:"spheres" yaml:"spheres"`
	Nodes          []Node   `json:"nodes" yaml:"nodes"`
	Edges          []Edge   `json:"edges" yaml:"edges"`
}

// NewMap creates an empty map
func NewMap(organizationID int64) *Map {
	return &Map{
		OrganizationID: organizationID,
		Spheres:        make([]Sphere, 0),
		Nodes:          make([]Node, 0),
		Edges:          make([]Edge, 0),
	}
}

// AddSphere adds a sphere to the map
func (m *Map) AddSphere(sphere Sphere) {
	m.Spheres = append(m.Spheres, sphere)
}

// AddNode adds a node to the map
func (m *Map) AddNode(node Node) {
	m.Nodes = append(m.Nodes, node)
}

// AddEdge adds an edge to the map
func (m *Map) AddEdge(edge Edge) {
	m.Edges = append(m.Edges, edge)
}

// Counts returns the number of spheres, nodes and edges
func (m *Map) Counts() (spheres, nodes, edges int) {
	return len(m.Spheres), len(m.Nodes), len(m.Edges)
}

// Clone returns a deep copy
func (m *Map) Clone() *Map {
	out := NewMap(m.OrganizationID)
	for _, s := range m.Spheres {
		out.Spheres = append(out.Spheres, s.Clone())
	}
	for _, n := range m.Nodes {
		out.Nodes = append(out.Nodes, n.Clone())
	}
	for _, e := range m.Edges {
		out.Edges = append(out.Edges, e.Clone())
	}
	return out
}
