package viewstate

import (
	"spheremap/internal/domain"
	"spheremap/internal/layout"
)

// SelectNode selects an existing node. Unknown ids leave the selection unchanged.
func (s *Store) SelectNode(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodeIndex[id]; !ok {
		return false
	}
	s.selected = &id
	return true
}

// ClearSelection deselects any node
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// SelectedNode returns the live copy of the selected node
func (s *Store) SelectedNode() (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return domain.Node{}, false
	}
	i, ok := s.nodeIndex[*s.selected]
	if !ok {
		return domain.Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// SetEdgeSphere chooses the sphere whose nodes are offered as edge endpoints
func (s *Store) SetEdgeSphere(id int64) []domain.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edgeSphere = &id
	s.syncCandidates()
	return cloneNodes(s.candidates)
}

// EdgeCandidates returns the nodes of the chosen edge sphere
func (s *Store) EdgeCandidates() []domain.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNodes(s.candidates)
}

func (s *Store) syncCandidates() {
	s.candidates = nil
	if s.edgeSphere == nil {
		return
	}
	for _, n := range s.nodes {
		if n.SphereID == *s.edgeSphere {
			s.candidates = append(s.candidates, n)
		}
	}
}

// DefaultSphereID returns the first sphere's id, used as the default owner for new nodes
func (s *Store) DefaultSphereID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.spheres) == 0 {
		return 0, false
	}
	return s.spheres[0].ID, true
}

// Spheres returns all spheres in model order
func (s *Store) Spheres() []domain.Sphere {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSpheres(s.spheres)
}

// Nodes returns all nodes in model order
func (s *Store) Nodes() []domain.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNodes(s.nodes)
}

// Edges returns all edges in model order
func (s *Store) Edges() []domain.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEdges(s.edges)
}

// Sphere looks up a sphere by id
func (s *Store) Sphere(id int64) (domain.Sphere, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.sphereIndex[id]
	if !ok {
		return domain.Sphere{}, false
	}
	return s.spheres[i].Clone(), true
}

// Node looks up a node by id
func (s *Store) Node(id int64) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.nodeIndex[id]
	if !ok {
		return domain.Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// ApplyNodePosition sets a node's position locally. It is the only local
// mutation made ahead of a server round trip.
func (s *Store) ApplyNodePosition(id int64, pos domain.Position) (domain.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.nodeIndex[id]
	if !ok {
		return domain.Node{}, false
	}
	s.nodes[i].Position = domain.NewPosition(pos.X, pos.Y)
	for j := range s.candidates {
		if s.candidates[j].ID == id {
			s.candidates[j].Position = s.nodes[i].Position
		}
	}
	return s.nodes[i].Clone(), true
}

// Map returns the current model
func (s *Store) Map() *domain.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &domain.Map{
		OrganizationID: s.organizationID,
		Spheres:        cloneSpheres(s.spheres),
		Nodes:          cloneNodes(s.nodes),
		Edges:          cloneEdges(s.edges),
	}
}

// View is a consistent read of everything a render pass needs
type View struct {
	Mode    domain.LayoutMode
	Layout  *layout.Layout
	Spheres []domain.Sphere
	Visible map[int64]bool
	Focus   *int64
	Nodes   []domain.Node
	Edges   []domain.Edge
}

// View captures the store under one read lock
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := make(map[int64]bool, len(s.visible))
	for id := range s.visible {
		visible[id] = true
	}
	var focus *int64
	if s.focus != nil {
		id := *s.focus
		focus = &id
	}
	nodes := s.filteredNodes()
	return View{
		Mode:    s.mode,
		Layout:  s.layout,
		Spheres: cloneSpheres(s.spheres),
		Visible: visible,
		Focus:   focus,
		Nodes:   nodes,
		Edges:   s.filteredEdges(nodes),
	}
}

func cloneSpheres(in []domain.Sphere) []domain.Sphere {
	out := make([]domain.Sphere, 0, len(in))
	for _, sp := range in {
		out = append(out, sp.Clone())
	}
	return out
}

func cloneNodes(in []domain.Node) []domain.Node {
	out := make([]domain.Node, 0, len(in))
	for _, n := range in {
		out = append(out, n.Clone())
	}
	return out
}

func cloneEdges(in []domain.Edge) []domain.Edge {
	out := make([]domain.Edge, 0, len(in))
	for _, e := range in {
		out = append(out, e.Clone())
	}
	return out
}
