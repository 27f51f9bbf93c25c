package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"spheremap/internal/domain"
	"spheremap/internal/layout"
	"spheremap/internal/normalize"
)

// MapQuery selects the organization and server-side filters of a map fetch
type MapQuery struct {
	OrganizationID int64
	SphereID       *int64
	NodeType       string
	Status         string
	Search         string
}

func (q MapQuery) values() url.Values {
	v := url.Values{}
	v.Set("organization_id", id(q.OrganizationID))
	if q.SphereID != nil {
		v.Set("sphere_id", id(*q.SphereID))
	}
	if q.NodeType != "" {
		v.Set("node_type", q.NodeType)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

// FetchMap returns the raw {spheres, nodes, edges} document
func (c *Client) FetchMap(ctx context.Context, q MapQuery) ([]byte, error) {
	return c.do(ctx, "fetch map", http.MethodGet, "/api/map/", q.values(), nil)
}

// Member is an organization member
type Member struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	User struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Group is an organization group
type Group struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organization_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Color          string `json:"color,omitempty"`
}

// Members lists an organization's members
func (c *Client) Members(ctx context.Context, organizationID int64) ([]Member, error) {
	data, err := c.do(ctx, "load members", http.MethodGet, "/api/organizations/"+id(organizationID)+"/members", nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[[]Member]("load members", data)
}

// Groups lists an organization's groups
func (c *Client) Groups(ctx context.Context, organizationID int64) ([]Group, error) {
	data, err := c.do(ctx, "load groups", http.MethodGet, "/api/organizations/"+id(organizationID)+"/groups", nil, nil)
	if err != nil {
		return nil, err
	}
	return decode[[]Group]("load groups", data)
}

// NodeCreate is the body of a node creation
type NodeCreate struct {
	SphereID int64             `json:"sphere_id"`
	Label    string            `json:"label"`
	NodeType domain.NodeType   `json:"node_type"`
	Status   domain.NodeStatus `json:"status"`
	Summary  string            `json:"summary"`
	Position domain.Position   `json:"position"`
	Links    []string          `json:"links"`
	Owners   []string          `json:"owners"`
	Metadata map[string]any    `json:"metadata"`
}

// NodePatch is a partial node update; nil fields are left untouched
type NodePatch struct {
	Label    *string            `json:"label,omitempty"`
	NodeType *domain.NodeType   `json:"node_type,omitempty"`
	Status   *domain.NodeStatus `json:"status,omitempty"`
	Summary  *string            `json:"summary,omitempty"`
	Position *domain.Position   `json:"position,omitempty"`
	Links    []string           `json:"links,omitempty"`
	Owners   []string           `json:"owners,omitempty"`
	Metadata map[string]any     `json:"metadata,omitempty"`
}

// CreateNode creates a node and returns it as stored
func (c *Client) CreateNode(ctx context.Context, in NodeCreate) (domain.Node, error) {
	data, err := c.do(ctx, "create node", http.MethodPost, "/api/nodes", nil, in)
	if err != nil {
		return domain.Node{}, err
	}
	return entity("create node", data, normalize.Node)
}

// UpdateNode patches a node
func (c *Client) UpdateNode(ctx context.Context, nodeID int64, patch NodePatch) (domain.Node, error) {
	data, err := c.do(ctx, "update node", http.MethodPatch, "/api/nodes/"+id(nodeID), nil, patch)
	if err != nil {
		return domain.Node{}, err
	}
	return entity("update node", data, normalize.Node)
}

// DeleteNode deletes a node
func (c *Client) DeleteNode(ctx context.Context, nodeID int64) error {
	_, err := c.do(ctx, "delete node", http.MethodDelete, "/api/nodes/"+id(nodeID), nil, nil)
	return err
}

// EdgeCreate is the body of an edge creation
type EdgeCreate struct {
	SphereID     int64               `json:"sphere_id"`
	SourceNodeID int64               `json:"source_node_id"`
	TargetNodeID int64               `json:"target_node_id"`
	RelationType domain.RelationType `json:"relation_type"`
	Metadata     map[string]any      `json:"metadata"`
}

// EdgePatch is a partial edge update
type EdgePatch struct {
	RelationType *domain.RelationType `json:"relation_type,omitempty"`
	Metadata     map[string]any       `json:"metadata,omitempty"`
}

// CreateEdge creates an edge and returns it as stored
func (c *Client) CreateEdge(ctx context.Context, in EdgeCreate) (domain.Edge, error) {
	data, err := c.do(ctx, "create edge", http.MethodPost, "/api/edges", nil, in)
	if err != nil {
		return domain.Edge{}, err
	}
	return entity("create edge", data, normalize.Edge)
}

// UpdateEdge patches an edge
func (c *Client) UpdateEdge(ctx context.Context, edgeID int64, patch EdgePatch) (domain.Edge, error) {
	data, err := c.do(ctx, "update edge", http.MethodPatch, "/api/edges/"+id(edgeID), nil, patch)
	if err != nil {
		return domain.Edge{}, err
	}
	return entity("update edge", data, normalize.Edge)
}

// DeleteEdge deletes an edge
func (c *Client) DeleteEdge(ctx context.Context, edgeID int64) error {
	_, err := c.do(ctx, "delete edge", http.MethodDelete, "/api/edges/"+id(edgeID), nil, nil)
	return err
}

// SphereCreate is the body of a sphere creation
type SphereCreate struct {
	OrganizationID int64   `json:"organization_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Color          string  `json:"color"`
	GroupIDs       []int64 `json:"group_ids"`
}

// SpherePatch is a partial sphere update
type SpherePatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Color       *string  `json:"color,omitempty"`
	CenterX     *float64 `json:"center_x,omitempty"`
	CenterY     *float64 `json:"center_y,omitempty"`
	Radius      *float64 `json:"radius,omitempty"`
	GroupIDs    []int64  `json:"group_ids,omitempty"`
}

// CreateSphere creates a sphere and returns it as stored
func (c *Client) CreateSphere(ctx context.Context, in SphereCreate) (domain.Sphere, error) {
	if in.GroupIDs == nil {
		in.GroupIDs = []int64{}
	}
	data, err := c.do(ctx, "create sphere", http.MethodPost, "/api/spheres/", nil, in)
	if err != nil {
		return domain.Sphere{}, err
	}
	return entity("create sphere", data, normalize.Sphere)
}

// UpdateSphere patches a sphere
func (c *Client) UpdateSphere(ctx context.Context, sphereID int64, patch SpherePatch) (domain.Sphere, error) {
	data, err := c.do(ctx, "update sphere", http.MethodPatch, "/api/spheres/"+id(sphereID), nil, patch)
	if err != nil {
		return domain.Sphere{}, err
	}
	return entity("update sphere", data, normalize.Sphere)
}

// DeleteSphere deletes a sphere
func (c *Client) DeleteSphere(ctx context.Context, sphereID int64) error {
	_, err := c.do(ctx, "delete sphere", http.MethodDelete, "/api/spheres/"+id(sphereID), nil, nil)
	return err
}

type sphereLayoutItem struct {
	SphereID int64   `json:"sphere_id"`
	CenterX  float64 `json:"center_x"`
	CenterY  float64 `json:"center_y"`
	Radius   float64 `json:"radius"`
}

// SaveSphereLayout persists computed sphere placements so they become the saved layout
func (c *Client) SaveSphereLayout(ctx context.Context, organizationID int64, entries []layout.Entry) error {
	items := make([]sphereLayoutItem, 0, len(entries))
	for _, e := range entries {
		circle := e.Circle()
		items = append(items, sphereLayoutItem{
			SphereID: e.SphereID,
			CenterX:  circle.CenterX,
			CenterY:  circle.CenterY,
			Radius:   circle.Radius,
		})
	}
	body := map[string]any{
		"organization_id": organizationID,
		"layout":          items,
	}
	_, err := c.do(ctx, "save layout", http.MethodPost, "/api/spheres/layout", nil, body)
	return err
}

// ExportGraph returns the raw export document of an organization
func (c *Client) ExportGraph(ctx context.Context, organizationID int64) ([]byte, error) {
	q := url.Values{}
	q.Set("organization_id", id(organizationID))
	return c.do(ctx, "export graph", http.MethodGet, "/api/graph/export", q, nil)
}

// ImportGraph posts bulk records for an organization. Records are sent as
// read so server-owned fields such as created_at survive an export/import
// round trip; only organization_id is overridden.
func (c *Client) ImportGraph(ctx context.Context, organizationID int64, raw *normalize.RawPayload) ([]byte, error) {
	if raw == nil {
		raw = &normalize.RawPayload{}
	}
	body := struct {
		OrganizationID int64              `json:"organization_id"`
		Spheres        []normalize.Record `json:"spheres,omitempty"`
		Nodes          []normalize.Record `json:"nodes"`
		Edges          []normalize.Record `json:"edges"`
	}{
		OrganizationID: organizationID,
		Spheres:        raw.Spheres,
		Nodes:          nonNilRecords(raw.Nodes),
		Edges:          nonNilRecords(raw.Edges),
	}
	return c.do(ctx, "import graph", http.MethodPost, "/api/graph/import", nil, body)
}

func nonNilRecords(r []normalize.Record) []normalize.Record {
	if r == nil {
		return []normalize.Record{}
	}
	return r
}

func entity[T any](op string, data []byte, norm func(normalize.Record) (T, bool)) (T, error) {
	var zero T
	rec, err := normalize.DecodeRecord(data)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	out, ok := norm(rec)
	if !ok {
		return zero, fmt.Errorf("%s: response is not a valid record", op)
	}
	return out, nil
}
