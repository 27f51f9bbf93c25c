// Package viewstate holds the canonical map model together with the derived
// view state: visible spheres, focus, filters, layout mode, selection and the
// last computed sphere layout.
//
// A Store is safe for concurrent use. ReplaceModel is the single point where
// the whole model changes; the last call to complete wins.
package viewstate

import (
	"strings"
	"sync"

	"spheremap/internal/domain"
	"spheremap/internal/layout"
)

// Filters narrows the rendered nodes. Zero values match everything.
type Filters struct {
	SphereID *int64            `json:"sphere_id,omitempty"`
	Type     domain.NodeType   `json:"node_type,omitempty"`
	Status   domain.NodeStatus `json:"status,omitempty"`
	Search   string            `json:"search,omitempty"`
}

// IsZero reports whether no filter is set
func (f Filters) IsZero() bool {
	return f.SphereID == nil && f.Type == "" && f.Status == "" && strings.TrimSpace(f.Search) == ""
}

// Store is the graph view-state store
type Store struct {
	mu sync.RWMutex

	organizationID int64
	spheres        []domain.Sphere
	nodes          []domain.Node
	edges          []domain.Edge
	sphereIndex    map[int64]int
	nodeIndex      map[int64]int

	visible    map[int64]bool
	focus      *int64
	mode       domain.LayoutMode
	filters    Filters
	selected   *int64
	edgeSphere *int64
	candidates []domain.Node
	layout     *layout.Layout
}

// New creates an empty store in the default layout mode
func New() *Store {
	s := &Store{
		sphereIndex: make(map[int64]int),
		nodeIndex:   make(map[int64]int),
		visible:     make(map[int64]bool),
		mode:        domain.DefaultLayoutMode,
	}
	s.layout = layout.Compute(s.mode, nil)
	return s
}

// Replace replaces the model with the contents of m
func (s *Store) Replace(m *domain.Map) {
	if m == nil {
		m = domain.NewMap(0)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizationID = m.OrganizationID
	s.replaceModelLocked(m.Spheres, m.Nodes, m.Edges)
}

// ReplaceModel swaps in a new model. Visibility is intersected with the new
// sphere ids and reset to all spheres when nothing survives. A focus or
// selection whose target vanished is cleared.
func (s *Store) ReplaceModel(spheres []domain.Sphere, nodes []domain.Node, edges []domain.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceModelLocked(spheres, nodes, edges)
}

// replaceModelLocked requires s.mu held for writing
func (s *Store) replaceModelLocked(spheres []domain.Sphere, nodes []domain.Node, edges []domain.Edge) {
	s.spheres = cloneSpheres(spheres)
	s.nodes = cloneNodes(nodes)
	s.edges = cloneEdges(edges)
	s.reindex()

	next := make(map[int64]bool, len(s.spheres))
	for _, sp := range s.spheres {
		if s.visible[sp.ID] {
			next[sp.ID] = true
		}
	}
	if len(next) == 0 {
		for _, sp := range s.spheres {
			next[sp.ID] = true
		}
	}
	s.visible = next

	if s.focus != nil {
		if _, ok := s.sphereIndex[*s.focus]; !ok {
			s.focus = nil
		}
	}
	if s.selected != nil {
		if _, ok := s.nodeIndex[*s.selected]; !ok {
			s.selected = nil
		}
	}

	s.layout = layout.Compute(s.mode, s.spheres)
	s.syncCandidates()
}

func (s *Store) reindex() {
	s.sphereIndex = make(map[int64]int, len(s.spheres))
	for i, sp := range s.spheres {
		if _, dup := s.sphereIndex[sp.ID]; !dup {
			s.sphereIndex[sp.ID] = i
		}
	}
	s.nodeIndex = make(map[int64]int, len(s.nodes))
	for i, n := range s.nodes {
		if _, dup := s.nodeIndex[n.ID]; !dup {
			s.nodeIndex[n.ID] = i
		}
	}
}

// SetLayoutMode switches the layout algorithm and recomputes entries.
// Unrecognised modes are ignored; the result reports whether mode was applied.
func (s *Store) SetLayoutMode(mode domain.LayoutMode) bool {
	m, ok := domain.ParseLayoutMode(string(mode))
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.layout = layout.Compute(s.mode, s.spheres)
	return true
}

// Mode returns the active layout mode
func (s *Store) Mode() domain.LayoutMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Layout returns the last computed layout. It is never mutated after creation.
func (s *Store) Layout() *layout.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

// OrganizationID returns the organization of the current model
func (s *Store) OrganizationID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.organizationID
}

// ToggleSphereVisibility flips one sphere's visibility. Hiding the last
// visible sphere makes every sphere visible again. Unknown ids are ignored.
func (s *Store) ToggleSphereVisibility(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sphereIndex[id]; !ok {
		return
	}
	if s.visible[id] {
		delete(s.visible, id)
	} else {
		s.visible[id] = true
	}
	if len(s.visible) == 0 {
		for _, sp := range s.spheres {
			s.visible[sp.ID] = true
		}
	}
}

// IsSphereVisible reports whether a sphere is visible
func (s *Store) IsSphereVisible(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible[id]
}

// VisibleSphereIDs returns the visible sphere ids in sphere order
func (s *Store) VisibleSphereIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.visible))
	for _, sp := range s.spheres {
		if s.visible[sp.ID] {
			out = append(out, sp.ID)
		}
	}
	return out
}

// SetFocus focuses a sphere. Focusing the focused sphere clears focus.
func (s *Store) SetFocus(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focus != nil && *s.focus == id {
		s.focus = nil
		return
	}
	s.focus = &id
}

// ClearFocus removes any focus
func (s *Store) ClearFocus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = nil
}

// Focus returns the focused sphere id
func (s *Store) Focus() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.focus == nil {
		return 0, false
	}
	return *s.focus, true
}

// SetFilters replaces the filter criteria
func (s *Store) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.SphereID != nil {
		id := *f.SphereID
		f.SphereID = &id
	}
	s.filters = f
}

// Filters returns the current filter criteria
func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// FilteredNodes returns the nodes passing sphere, type, status, focus,
// visibility and search filters, in model order
func (s *Store) FilteredNodes() []domain.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filteredNodes()
}

func (s *Store) filteredNodes() []domain.Node {
	query := strings.ToLower(strings.TrimSpace(s.filters.Search))
	out := make([]domain.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if s.filters.SphereID != nil && n.SphereID != *s.filters.SphereID {
			continue
		}
		if s.filters.Type != "" && n.Type != s.filters.Type {
			continue
		}
		if s.filters.Status != "" && n.Status != s.filters.Status {
			continue
		}
		if s.focus != nil && n.SphereID != *s.focus {
			continue
		}
		if !s.visible[n.SphereID] {
			continue
		}
		if query != "" && !strings.Contains(haystack(n), query) {
			continue
		}
		out = append(out, n.Clone())
	}
	return out
}

func haystack(n domain.Node) string {
	parts := make([]string, 0, 2+len(n.Owners))
	for _, p := range append([]string{n.Label, n.Summary}, n.Owners...) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// FilteredEdges returns edges whose endpoints both pass FilteredNodes
func (s *Store) FilteredEdges() []domain.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filteredEdges(s.filteredNodes())
}

func (s *Store) filteredEdges(nodes []domain.Node) []domain.Edge {
	allowed := make(map[int64]bool, len(nodes))
	for _, n := range nodes {
		allowed[n.ID] = true
	}
	out := make([]domain.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		if allowed[e.SourceNodeID] && allowed[e.TargetNodeID] {
			out = append(out, e.Clone())
		}
	}
	return out
}
