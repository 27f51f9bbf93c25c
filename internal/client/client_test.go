package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spheremap/internal/domain"
	"spheremap/internal/layout"
	"spheremap/internal/normalize"
)

type captured struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &got.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestFetchMap(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"spheres": [], "nodes": [], "edges": []}`)
	c := New(srv.URL+"/", WithToken(" secret "))

	sphere := int64(3)
	data, err := c.FetchMap(context.Background(), MapQuery{
		OrganizationID: 7,
		SphereID:       &sphere,
		NodeType:       "api",
		Search:         "  billing ",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"spheres": [], "nodes": [], "edges": []}`, string(data))

	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/map/", got.path)
	assert.Equal(t, "node_type=api&organization_id=7&search=billing&sphere_id=3", got.query)
	assert.Equal(t, "Bearer secret", got.auth)
}

func TestAPIErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", http.StatusBadRequest, `{"detail": "Sphere not found"}`, "fetch map: Sphere not found"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail": [{"msg": "field required"}, {"msg": "bad id"}]}`, "fetch map: field required; bad id"},
		{"plain body", http.StatusBadGateway, `upstream down`, "fetch map: upstream down"},
		{"empty body", http.StatusNotFound, ``, "fetch map: 404 Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			_, err := New(srv.URL).FetchMap(context.Background(), MapQuery{OrganizationID: 1})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, err.Error())
		})
	}

	t.Run("not found helper", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusNotFound, `{"detail": "Node not found"}`)
		err := New(srv.URL).DeleteNode(context.Background(), 4)
		assert.True(t, IsNotFound(err))
	})
}

func TestNoTokenNoHeader(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[]`)
	_, err := New(srv.URL).Members(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, got.auth)
	assert.Equal(t, "/api/organizations/2/members", got.path)
}

func TestMembersAndGroups(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[{"id": 1, "role": "owner", "user": {"id": 5, "email": "a@b.c"}}]`)
	members, err := New(srv.URL).Members(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "a@b.c", members[0].User.Email)

	srv, got := newTestServer(t, http.StatusOK, `[{"id": 3, "organization_id": 1, "name": "ops"}]`)
	groups, err := New(srv.URL).Groups(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "/api/organizations/1/groups", got.path)
	assert.Equal(t, "ops", groups[0].Name)
}

func TestCreateNode(t *testing.T) {
	srv, got := newTestServer(t, http.StatusCreated,
		`{"id": 12, "sphere_id": 2, "label": "Orders", "node_type": "api", "status": "active",
		  "position": {"x": 0.4, "y": 0.6}, "links_json": ["https://x"], "owners_json": [], "metadata_json": {}}`)

	n, err := New(srv.URL).CreateNode(context.Background(), NodeCreate{
		SphereID: 2,
		Label:    "Orders",
		NodeType: domain.NodeTypeAPI,
		Status:   domain.NodeStatusActive,
		Position: domain.Position{X: 0.4, Y: 0.6},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/nodes", got.path)
	assert.Equal(t, "Orders", got.body["label"])
	assert.Equal(t, map[string]any{"x": 0.4, "y": 0.6}, got.body["position"])

	assert.Equal(t, int64(12), n.ID)
	assert.Equal(t, []string{"https://x"}, n.Links)
}

func TestUpdateNodeSendsOnlySetFields(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"id": 3, "sphere_id": 1, "status": "archived"}`)
	status := domain.NodeStatusArchived

	n, err := New(srv.URL).UpdateNode(context.Background(), 3, NodePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "/api/nodes/3", got.path)
	assert.Equal(t, map[string]any{"status": "archived"}, got.body)
	assert.True(t, n.IsArchived())
}

func TestInvalidEntityResponse(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"label": "no id"}`)
	_, err := New(srv.URL).UpdateEdge(context.Background(), 1, EdgePatch{})
	assert.ErrorContains(t, err, "update edge")

	srv, _ = newTestServer(t, http.StatusOK, `not json`)
	_, err = New(srv.URL).UpdateSphere(context.Background(), 1, SpherePatch{})
	assert.ErrorContains(t, err, "update sphere")
}

func TestEdgeAndSphereCRUD(t *testing.T) {
	t.Run("create edge", func(t *testing.T) {
		srv, got := newTestServer(t, http.StatusCreated, `{"id": 9, "sphere_id": 1, "source_node_id": 1, "target_node_id": 2, "relation_type": "uses"}`)
		e, err := New(srv.URL).CreateEdge(context.Background(), EdgeCreate{SphereID: 1, SourceNodeID: 1, TargetNodeID: 2, RelationType: domain.RelationUses})
		require.NoError(t, err)
		assert.Equal(t, "/api/edges", got.path)
		assert.Equal(t, int64(9), e.ID)
	})

	t.Run("delete edge", func(t *testing.T) {
		srv, got := newTestServer(t, http.StatusNoContent, ``)
		require.NoError(t, New(srv.URL).DeleteEdge(context.Background(), 9))
		assert.Equal(t, http.MethodDelete, got.method)
		assert.Equal(t, "/api/edges/9", got.path)
	})

	t.Run("create sphere sends empty group list", func(t *testing.T) {
		srv, got := newTestServer(t, http.StatusCreated, `{"id": 4, "name": "Core", "center_x": null}`)
		s, err := New(srv.URL).CreateSphere(context.Background(), SphereCreate{OrganizationID: 1, Name: "Core", Color: "#38bdf8"})
		require.NoError(t, err)
		assert.Equal(t, "/api/spheres/", got.path)
		assert.Equal(t, []any{}, got.body["group_ids"])
		assert.Equal(t, "Core", s.Name)
		assert.False(t, s.Placed.CenterX)
	})

	t.Run("patch sphere geometry", func(t *testing.T) {
		srv, got := newTestServer(t, http.StatusOK, `{"id": 4, "radius": 0.3}`)
		r := 0.3
		_, err := New(srv.URL).UpdateSphere(context.Background(), 4, SpherePatch{Radius: &r})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"radius": 0.3}, got.body)
	})

	t.Run("delete sphere", func(t *testing.T) {
		srv, got := newTestServer(t, http.StatusNoContent, ``)
		require.NoError(t, New(srv.URL).DeleteSphere(context.Background(), 4))
		assert.Equal(t, "/api/spheres/4", got.path)
	})
}

func TestSaveSphereLayout(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[]`)
	entries := []layout.Entry{
		{SphereID: 1, Placement: layout.Placement{CenterX: 0.25, CenterY: 0.5, Radius: 0.9}},
	}

	require.NoError(t, New(srv.URL).SaveSphereLayout(context.Background(), 6, entries))
	assert.Equal(t, "/api/spheres/layout", got.path)
	assert.Equal(t, float64(6), got.body["organization_id"])
	items := got.body["layout"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, map[string]any{"sphere_id": float64(1), "center_x": 0.25, "center_y": 0.5, "radius": domain.MaxSphereRadius}, items[0])
}

func TestExportImport(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"organization_id": 3, "spheres": [1], "nodes": [], "edges": []}`)
	data, err := New(srv.URL).ExportGraph(context.Background(), 3)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"organization_id": 3`)
	assert.Equal(t, "/api/graph/export", got.path)
	assert.Equal(t, "organization_id=3", got.query)

	srv, got = newTestServer(t, http.StatusOK, `{"nodes": [], "edges": []}`)
	_, err = New(srv.URL).ImportGraph(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/graph/import", got.path)
	assert.Equal(t, float64(3), got.body["organization_id"])
	assert.Equal(t, []any{}, got.body["nodes"])
	assert.Equal(t, []any{}, got.body["edges"])
	assert.NotContains(t, got.body, "spheres")
}

func TestImportGraphPostsExportedRecords(t *testing.T) {
	export := `{
  "organization_id": 9,
  "nodes": [
    {"id": 10, "sphere_id": 1, "label": "API", "node_type": "api", "status": "active",
     "position": {"x": 0.2, "y": 0.4}, "created_at": "2024-03-01T10:00:00Z", "updated_at": "2024-03-02T09:30:00Z"},
    {"label": "no ids"}
  ],
  "edges": [
    {"id": 5, "source_node_id": 10, "target_node_id": 11, "relation_type": "uses", "created_at": "2024-03-01T10:00:00Z"}
  ]
}`
	raw, err := normalize.DecodeJSON([]byte(export))
	require.NoError(t, err)
	bulk := normalize.Sift(raw)
	assert.Equal(t, 1, bulk.Report.SkippedNodes)

	srv, got := newTestServer(t, http.StatusOK, `{}`)
	_, err = New(srv.URL).ImportGraph(context.Background(), 3, bulk.Raw)
	require.NoError(t, err)

	assert.Equal(t, float64(3), got.body["organization_id"])
	nodes := got.body["nodes"].([]any)
	require.Len(t, nodes, 1)
	node := nodes[0].(map[string]any)
	assert.Equal(t, float64(10), node["id"])
	assert.Equal(t, "2024-03-01T10:00:00Z", node["created_at"])
	assert.Equal(t, "2024-03-02T09:30:00Z", node["updated_at"])
	assert.Equal(t, map[string]any{"x": 0.2, "y": 0.4}, node["position"])

	edges := got.body["edges"].([]any)
	require.Len(t, edges, 1)
	assert.Equal(t, "2024-03-01T10:00:00Z", edges[0].(map[string]any)["created_at"])
}

func TestTimeoutAndCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).FetchMap(ctx, MapQuery{OrganizationID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
