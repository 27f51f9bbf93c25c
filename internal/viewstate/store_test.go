package viewstate

import (
	"math"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spheremap/internal/domain"
	"spheremap/internal/layout"
)

func sphereList(ids ...int64) []domain.Sphere {
	out := make([]domain.Sphere, 0, len(ids))
	for _, id := range ids {
		out = append(out, *domain.NewSphere(id, ""))
	}
	return out
}

func node(id, sphereID int64, label string) domain.Node {
	return *domain.NewNode(id, sphereID, label)
}

func edge(id, source, target int64) domain.Edge {
	e, _ := domain.NewEdge(id, source, target, domain.RelationUses)
	return *e
}

func int64p(v int64) *int64 { return &v }

func TestReplaceModelVisibility(t *testing.T) {
	t.Run("first load makes every sphere visible", func(t *testing.T) {
		s := New()
		s.ReplaceModel(sphereList(1, 2, 3), nil, nil)
		assert.Equal(t, []int64{1, 2, 3}, s.VisibleSphereIDs())
	})

	t.Run("overlapping replacement keeps the intersection", func(t *testing.T) {
		s := New()
		s.ReplaceModel(sphereList(1, 2, 3), nil, nil)
		s.ReplaceModel(sphereList(2, 3, 4), nil, nil)
		assert.Equal(t, []int64{2, 3}, s.VisibleSphereIDs())
	})

	t.Run("disjoint replacement resets to all", func(t *testing.T) {
		s := New()
		s.ReplaceModel(sphereList(1, 2), nil, nil)
		s.ToggleSphereVisibility(1)
		s.ReplaceModel(sphereList(1, 5), nil, nil)
		assert.Equal(t, []int64{1, 5}, s.VisibleSphereIDs())

		s.ReplaceModel(sphereList(7, 8), nil, nil)
		assert.Equal(t, []int64{7, 8}, s.VisibleSphereIDs())
	})

	t.Run("empty model", func(t *testing.T) {
		s := New()
		s.ReplaceModel(sphereList(1), nil, nil)
		s.ReplaceModel(nil, nil, nil)
		assert.Empty(t, s.VisibleSphereIDs())
		assert.Zero(t, s.Layout().Len())
	})
}

func TestReplaceModelClearsStaleReferences(t *testing.T) {
	s := New()
	s.ReplaceModel(sphereList(1, 2), []domain.Node{node(10, 1, "a"), node(11, 2, "b")}, nil)
	s.SetFocus(2)
	require.True(t, s.SelectNode(11))

	s.ReplaceModel(sphereList(1), []domain.Node{node(10, 1, "a")}, nil)

	_, focused := s.Focus()
	assert.False(t, focused)
	_, selected := s.SelectedNode()
	assert.False(t, selected)
}

func TestReplaceModelKeepsLiveSelection(t *testing.T) {
	s := New()
	s.ReplaceModel(sphereList(1), []domain.Node{node(10, 1, "old")}, nil)
	require.True(t, s.SelectNode(10))

	s.ReplaceModel(sphereList(1), []domain.Node{node(10, 1, "new")}, nil)

	n, ok := s.SelectedNode()
	require.True(t, ok)
	assert.Equal(t, "new", n.Label)
}

func TestReplaceModelDoesNotAlias(t *testing.T) {
	s := New()
	nodes := []domain.Node{node(1, 1, "a")}
	s.ReplaceModel(sphereList(1), nodes, nil)
	nodes[0].Label = "mutated"

	n, _ := s.Node(1)
	assert.Equal(t, "a", n.Label)
}

func TestToggleSphereVisibility(t *testing.T) {
	s := New()
	s.ReplaceModel(sphereList(1, 2), nil, nil)

	s.ToggleSphereVisibility(1)
	assert.Equal(t, []int64{2}, s.VisibleSphereIDs())

	s.ToggleSphereVisibility(1)
	assert.Equal(t, []int64{1, 2}, s.VisibleSphereIDs())

	t.Run("hiding the last visible sphere shows all", func(t *testing.T) {
		s.ToggleSphereVisibility(1)
		s.ToggleSphereVisibility(2)
		assert.Equal(t, []int64{1, 2}, s.VisibleSphereIDs())
	})

	t.Run("unknown id is ignored", func(t *testing.T) {
		s.ToggleSphereVisibility(99)
		assert.Equal(t, []int64{1, 2}, s.VisibleSphereIDs())
		assert.False(t, s.IsSphereVisible(99))
	})
}

func TestSetFocusToggles(t *testing.T) {
	s := New()
	s.ReplaceModel(sphereList(1, 2), nil, nil)

	s.SetFocus(1)
	id, ok := s.Focus()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	s.SetFocus(2)
	id, _ = s.Focus()
	assert.Equal(t, int64(2), id)

	s.SetFocus(2)
	_, ok = s.Focus()
	assert.False(t, ok)

	s.SetFocus(1)
	s.ClearFocus()
	_, ok = s.Focus()
	assert.False(t, ok)
}

func TestSetLayoutMode(t *testing.T) {
	s := New()
	s.ReplaceModel(sphereList(1, 2, 3, 4), nil, nil)
	assert.Equal(t, domain.LayoutSaved, s.Mode())

	assert.True(t, s.SetLayoutMode(domain.LayoutGrid))
	assert.Equal(t, domain.LayoutGrid, s.Layout().Mode)
	e, ok := s.Layout().Lookup(4)
	require.True(t, ok)
	assert.Equal(t, layout.Grid(4)[3], e.Placement)

	assert.False(t, s.SetLayoutMode("force"))
	assert.Equal(t, domain.LayoutGrid, s.Mode())
}

func TestSavedLayoutFallsBackToRadial(t *testing.T) {
	s := New()
	s.ReplaceModel(sphereList(1, 2, 3), nil, nil)

	l := s.Layout()
	require.Equal(t, 3, l.Len())
	for i, id := range []int64{1, 2, 3} {
		e, ok := l.Lookup(id)
		require.True(t, ok)
		angle := float64(i) * 2 * math.Pi / 3
		assert.InDelta(t, 0.5+0.35*math.Cos(angle), e.CenterX, 1e-9)
		assert.InDelta(t, 0.5+0.35*math.Sin(angle), e.CenterY, 1e-9)
		assert.Equal(t, domain.DefaultSphereRadius, e.Radius)
	}
}

func filterFixture() *Store {
	s := New()
	api := node(1, 1, "Checkout API")
	api.Type = domain.NodeTypeAPI
	api.Owners = []string{"Alice"}

	worker := node(2, 1, "Invoice worker")
	worker.Type = domain.NodeTypeTask
	worker.Summary = "renders checkout receipts"

	archived := node(3, 2, "Legacy store")
	archived.Type = domain.NodeTypeStore
	archived.Status = domain.NodeStatusArchived

	other := node(4, 2, "Events bus")
	other.Type = domain.NodeTypeEvent

	s.ReplaceModel(sphereList(1, 2),
		[]domain.Node{api, worker, archived, other},
		[]domain.Edge{edge(100, 1, 2), edge(101, 2, 4), edge(102, 3, 4)},
	)
	return s
}

func nodeIDs(nodes []domain.Node) []int64 {
	out := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func edgeIDs(edges []domain.Edge) []int64 {
	out := make([]int64, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.ID)
	}
	return out
}

func TestFilteredNodes(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		focus   *int64
		hide    []int64
		want    []int64
	}{
		{"no filters", Filters{}, nil, nil, []int64{1, 2, 3, 4}},
		{"sphere filter", Filters{SphereID: int64p(2)}, nil, nil, []int64{3, 4}},
		{"type filter", Filters{Type: domain.NodeTypeAPI}, nil, nil, []int64{1}},
		{"status filter", Filters{Status: domain.NodeStatusArchived}, nil, nil, []int64{3}},
		{"focus", Filters{}, int64p(1), nil, []int64{1, 2}},
		{"hidden sphere", Filters{}, nil, []int64{2}, []int64{1, 2}},
		{"search label case insensitive", Filters{Search: "  checkout "}, nil, nil, []int64{1, 2}},
		{"search owners", Filters{Search: "alice"}, nil, nil, []int64{1}},
		{"type matches but search does not", Filters{Type: domain.NodeTypeAPI, Search: "invoice"}, nil, nil, []int64{}},
		{"focus and sphere filter disagree", Filters{SphereID: int64p(2)}, int64p(1), nil, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := filterFixture()
			s.SetFilters(tt.filters)
			if tt.focus != nil {
				s.SetFocus(*tt.focus)
			}
			for _, id := range tt.hide {
				s.ToggleSphereVisibility(id)
			}
			assert.Equal(t, tt.want, nodeIDs(s.FilteredNodes()))
		})
	}
}

func TestFilteredEdges(t *testing.T) {
	s := filterFixture()
	assert.Equal(t, []int64{100, 101, 102}, edgeIDs(s.FilteredEdges()))

	s.SetFilters(Filters{Status: domain.NodeStatusActive})
	assert.Equal(t, []int64{100, 101}, edgeIDs(s.FilteredEdges()))

	s.SetFilters(Filters{SphereID: int64p(1)})
	assert.Equal(t, []int64{100}, edgeIDs(s.FilteredEdges()), "edge with one endpoint filtered out is dropped")
}

func TestSelection(t *testing.T) {
	s := filterFixture()

	assert.False(t, s.SelectNode(42))
	_, ok := s.SelectedNode()
	assert.False(t, ok)

	assert.True(t, s.SelectNode(2))
	n, ok := s.SelectedNode()
	require.True(t, ok)
	assert.Equal(t, "Invoice worker", n.Label)

	s.ClearSelection()
	_, ok = s.SelectedNode()
	assert.False(t, ok)
}

func TestEdgeCandidates(t *testing.T) {
	s := filterFixture()
	assert.Empty(t, s.EdgeCandidates())

	assert.Equal(t, []int64{3, 4}, nodeIDs(s.SetEdgeSphere(2)))

	s.ReplaceModel(sphereList(1, 2), []domain.Node{node(5, 2, "new")}, nil)
	assert.Equal(t, []int64{5}, nodeIDs(s.EdgeCandidates()))

	assert.Empty(t, s.SetEdgeSphere(9))
}

func TestApplyNodePosition(t *testing.T) {
	s := filterFixture()

	n, ok := s.ApplyNodePosition(1, domain.Position{X: 1.5, Y: 0.25})
	require.True(t, ok)
	assert.Equal(t, domain.Position{X: 1, Y: 0.25}, n.Position)

	stored, _ := s.Node(1)
	assert.Equal(t, n.Position, stored.Position)

	_, ok = s.ApplyNodePosition(99, domain.CenterPosition())
	assert.False(t, ok)
}

func TestViewIsConsistent(t *testing.T) {
	s := filterFixture()
	s.SetFocus(2)

	v := s.View()
	assert.Equal(t, []int64{3, 4}, nodeIDs(v.Nodes))
	assert.Equal(t, []int64{102}, edgeIDs(v.Edges))
	require.NotNil(t, v.Focus)
	assert.Equal(t, int64(2), *v.Focus)
	assert.Len(t, v.Spheres, 2)
	assert.True(t, v.Visible[1])

	v.Visible[1] = false
	assert.True(t, s.IsSphereVisible(1))
}

func TestReplaceFromMap(t *testing.T) {
	s := New()
	m := domain.NewMap(9)
	m.AddSphere(*domain.NewSphere(1, "a"))
	s.Replace(m)

	assert.Equal(t, int64(9), s.OrganizationID())
	id, ok := s.DefaultSphereID()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Len(t, s.Map().Spheres, 1)
}

func TestReplaceKeepsOrganizationWithItsModel(t *testing.T) {
	maps := make([]*domain.Map, 2)
	for i := range maps {
		org := int64(i + 1)
		m := domain.NewMap(org)
		m.AddSphere(*domain.NewSphere(org*10, ""))
		maps[i] = m
	}

	s := New()
	s.Replace(maps[0])

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Replace(maps[(i+j)%2])
			}
		}(i)
	}

	mismatches := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		m := s.Map()
		if len(m.Spheres) != 1 || m.Spheres[0].ID != m.OrganizationID*10 {
			mismatches++
		}
	}
	assert.Zero(t, mismatches)
}

func TestConcurrentAccess(t *testing.T) {
	s := filterFixture()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch (i + j) % 4 {
				case 0:
					s.ReplaceModel(sphereList(1, 2), []domain.Node{node(1, 1, "a")}, nil)
				case 1:
					s.ToggleSphereVisibility(1)
				case 2:
					_ = s.View()
				case 3:
					s.SetLayoutMode(domain.LayoutRadial)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.NotEmpty(t, s.VisibleSphereIDs())
}

func TestVisibilityNeverEmptyProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("toggle sequences never hide every sphere", prop.ForAll(
		func(toggles []int64) bool {
			s := New()
			s.ReplaceModel(sphereList(1, 2, 3, 4), nil, nil)
			for _, id := range toggles {
				s.ToggleSphereVisibility(id)
				if len(s.VisibleSphereIDs()) == 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 5)),
	))

	properties.TestingRun(t)
}
