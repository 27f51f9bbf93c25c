package service

import (
	"context"
	"fmt"
	"strings"

	"spheremap/internal/client"
	"spheremap/internal/domain"
	"spheremap/internal/geometry"
	"spheremap/internal/normalize"
)

// CreateNode validates the form and creates a node at its sphere's layout center
func (d *Dashboard) CreateNode(ctx context.Context, form NodeForm) (domain.Node, error) {
	form.normalize()
	if err := check(&form); err != nil {
		return domain.Node{}, d.fail(err)
	}
	if _, ok := d.store.Sphere(form.SphereID); !ok {
		return domain.Node{}, d.fail(fmt.Errorf("%w: sphere %d is not on the map", ErrValidation, form.SphereID))
	}

	nodeType := domain.DefaultNodeType
	if t, ok := domain.ParseNodeType(form.NodeType); ok {
		nodeType = t
	}
	status := domain.DefaultNodeStatus
	if s, ok := domain.ParseNodeStatus(form.Status); ok {
		status = s
	}

	node, err := d.api.CreateNode(ctx, client.NodeCreate{
		SphereID: form.SphereID,
		Label:    form.Label,
		NodeType: nodeType,
		Status:   status,
		Summary:  form.Summary,
		Position: d.store.Layout().Center(form.SphereID),
		Links:    form.Links,
		Owners:   form.Owners,
		Metadata: map[string]any{},
	})
	d.metrics.RecordMutation("create_node", err)
	if err != nil {
		return domain.Node{}, d.fail(fmt.Errorf("create node: %w", err))
	}

	d.commit(ctx, Event{Type: EventNodeCreated, Payload: map[string]int64{"node_id": node.ID}}, "Created node %q", node.Label)
	return node, nil
}

// UpdateNode patches a node. Empty labels and unknown types or statuses are rejected.
func (d *Dashboard) UpdateNode(ctx context.Context, id int64, patch client.NodePatch) (domain.Node, error) {
	if err := checkNodePatch(&patch); err != nil {
		return domain.Node{}, d.fail(err)
	}

	node, err := d.api.UpdateNode(ctx, id, patch)
	d.metrics.RecordMutation("update_node", err)
	if err != nil {
		return domain.Node{}, d.fail(fmt.Errorf("update node: %w", err))
	}

	d.commit(ctx, Event{Type: EventNodeUpdated, Payload: map[string]int64{"node_id": id}}, "Updated node %q", node.Label)
	return node, nil
}

// ArchiveNode sets a node's status to archived
func (d *Dashboard) ArchiveNode(ctx context.Context, id int64) (domain.Node, error) {
	status := domain.NodeStatusArchived
	return d.UpdateNode(ctx, id, client.NodePatch{Status: &status})
}

// DeleteNode deletes a node
func (d *Dashboard) DeleteNode(ctx context.Context, id int64) error {
	err := d.api.DeleteNode(ctx, id)
	d.metrics.RecordMutation("delete_node", err)
	if err != nil {
		return d.fail(fmt.Errorf("delete node: %w", err))
	}
	if selected, ok := d.store.SelectedNode(); ok && selected.ID == id {
		d.store.ClearSelection()
	}

	d.commit(ctx, Event{Type: EventNodeDeleted, Payload: map[string]int64{"node_id": id}}, "Deleted node %d", id)
	return nil
}

// CreateEdge validates the form and creates an edge. Self-loops are
// rejected before any request is made.
func (d *Dashboard) CreateEdge(ctx context.Context, form EdgeForm) (domain.Edge, error) {
	form.normalize()
	if err := check(&form); err != nil {
		return domain.Edge{}, d.fail(err)
	}
	for _, nodeID := range []int64{form.SourceNodeID, form.TargetNodeID} {
		if _, ok := d.store.Node(nodeID); !ok {
			return domain.Edge{}, d.fail(fmt.Errorf("%w: node %d is not on the map", ErrValidation, nodeID))
		}
	}

	relation := domain.DefaultRelationType
	if r, ok := domain.ParseRelationType(form.RelationType); ok {
		relation = r
	}

	edge, err := d.api.CreateEdge(ctx, client.EdgeCreate{
		SphereID:     form.SphereID,
		SourceNodeID: form.SourceNodeID,
		TargetNodeID: form.TargetNodeID,
		RelationType: relation,
		Metadata:     map[string]any{},
	})
	d.metrics.RecordMutation("create_edge", err)
	if err != nil {
		return domain.Edge{}, d.fail(fmt.Errorf("create edge: %w", err))
	}

	d.commit(ctx, Event{Type: EventEdgeCreated, Payload: map[string]int64{"edge_id": edge.ID}}, "Created %s edge", edge.RelationType)
	return edge, nil
}

// UpdateEdge changes an edge's relation type
func (d *Dashboard) UpdateEdge(ctx context.Context, id int64, relation string) (domain.Edge, error) {
	r, ok := domain.ParseRelationType(relation)
	if !ok {
		return domain.Edge{}, d.fail(fmt.Errorf("%w: unknown relation type %q", ErrValidation, relation))
	}

	edge, err := d.api.UpdateEdge(ctx, id, client.EdgePatch{RelationType: &r})
	d.metrics.RecordMutation("update_edge", err)
	if err != nil {
		return domain.Edge{}, d.fail(fmt.Errorf("update edge: %w", err))
	}

	d.commit(ctx, Event{Type: EventEdgeUpdated, Payload: map[string]int64{"edge_id": id}}, "Updated edge %d", id)
	return edge, nil
}

// DeleteEdge deletes an edge
func (d *Dashboard) DeleteEdge(ctx context.Context, id int64) error {
	err := d.api.DeleteEdge(ctx, id)
	d.metrics.RecordMutation("delete_edge", err)
	if err != nil {
		return d.fail(fmt.Errorf("delete edge: %w", err))
	}

	d.commit(ctx, Event{Type: EventEdgeDeleted, Payload: map[string]int64{"edge_id": id}}, "Deleted edge %d", id)
	return nil
}

// CreateSphere validates the form and creates a sphere in the selected organization
func (d *Dashboard) CreateSphere(ctx context.Context, form SphereForm) (domain.Sphere, error) {
	orgID := d.OrganizationID()
	if orgID == 0 {
		return domain.Sphere{}, d.fail(ErrNoOrganization)
	}
	form.normalize()
	if err := check(&form); err != nil {
		return domain.Sphere{}, d.fail(err)
	}
	if form.Color == "" {
		form.Color = DefaultSphereColor
	}

	sphere, err := d.api.CreateSphere(ctx, client.SphereCreate{
		OrganizationID: orgID,
		Name:           form.Name,
		Description:    form.Description,
		Color:          form.Color,
		GroupIDs:       form.GroupIDs,
	})
	d.metrics.RecordMutation("create_sphere", err)
	if err != nil {
		return domain.Sphere{}, d.fail(fmt.Errorf("create sphere: %w", err))
	}

	d.commit(ctx, Event{Type: EventSphereCreated, Payload: map[string]int64{"sphere_id": sphere.ID}}, "Created sphere %q", sphere.Name)
	return sphere, nil
}

// UpdateSphere patches a sphere. Geometry is clamped before it is sent.
func (d *Dashboard) UpdateSphere(ctx context.Context, id int64, patch client.SpherePatch) (domain.Sphere, error) {
	if err := checkSpherePatch(&patch); err != nil {
		return domain.Sphere{}, d.fail(err)
	}

	sphere, err := d.api.UpdateSphere(ctx, id, patch)
	d.metrics.RecordMutation("update_sphere", err)
	if err != nil {
		return domain.Sphere{}, d.fail(fmt.Errorf("update sphere: %w", err))
	}

	d.commit(ctx, Event{Type: EventSphereUpdated, Payload: map[string]int64{"sphere_id": id}}, "Updated sphere %q", sphere.Name)
	return sphere, nil
}

// DeleteSphere deletes a sphere
func (d *Dashboard) DeleteSphere(ctx context.Context, id int64) error {
	err := d.api.DeleteSphere(ctx, id)
	d.metrics.RecordMutation("delete_sphere", err)
	if err != nil {
		return d.fail(fmt.Errorf("delete sphere: %w", err))
	}

	d.commit(ctx, Event{Type: EventSphereDeleted, Payload: map[string]int64{"sphere_id": id}}, "Deleted sphere %d", id)
	return nil
}

// SaveLayout persists the currently computed sphere placements and switches
// to the saved layout so they are read back from the spheres
func (d *Dashboard) SaveLayout(ctx context.Context) error {
	orgID := d.OrganizationID()
	if orgID == 0 {
		return d.fail(ErrNoOrganization)
	}
	current := d.store.Layout()
	if current.Len() == 0 {
		return d.fail(fmt.Errorf("%w: there are no spheres to lay out", ErrValidation))
	}

	err := d.api.SaveSphereLayout(ctx, orgID, current.Entries)
	d.metrics.RecordMutation("save_layout", err)
	if err != nil {
		return d.fail(fmt.Errorf("save layout: %w", err))
	}

	d.store.SetLayoutMode(domain.LayoutSaved)
	d.commit(ctx, Event{
		Type:    EventLayoutChanged,
		Payload: map[string]string{"layout_mode": string(domain.LayoutSaved)},
	}, "Saved %s layout for %d spheres", current.Mode, current.Len())
	return nil
}

// Export returns the remote export document of the selected organization
func (d *Dashboard) Export(ctx context.Context) ([]byte, error) {
	orgID := d.OrganizationID()
	if orgID == 0 {
		return nil, d.fail(ErrNoOrganization)
	}
	data, err := d.api.ExportGraph(ctx, orgID)
	d.metrics.RecordMutation("export", err)
	if err != nil {
		return nil, d.fail(fmt.Errorf("export graph: %w", err))
	}
	d.notify("Exported organization %d", orgID)
	return data, nil
}

// Import posts the surviving records of a sifted bulk document to the
// selected organization and refetches the map
func (d *Dashboard) Import(ctx context.Context, b *normalize.Bulk) error {
	orgID := d.OrganizationID()
	if orgID == 0 {
		return d.fail(ErrNoOrganization)
	}
	if b == nil || b.Raw == nil || b.Map == nil {
		return d.fail(fmt.Errorf("%w: import payload is empty", ErrValidation))
	}
	m := b.Map

	_, err := d.api.ImportGraph(ctx, orgID, b.Raw)
	d.metrics.RecordMutation("import", err)
	if err != nil {
		return d.fail(fmt.Errorf("import graph: %w", err))
	}

	spheres, nodes, edges := m.Counts()
	d.commit(ctx, Event{
		Type:    EventModelReplaced,
		Payload: map[string]int{"spheres": spheres, "nodes": nodes, "edges": edges},
	}, "Imported %d spheres, %d nodes, %d edges", spheres, nodes, edges)
	return nil
}

// commit finishes a successful mutation by refetching the map. The notice
// is only shown when the refetch succeeds; otherwise its error stays.
func (d *Dashboard) commit(ctx context.Context, ev Event, format string, args ...any) {
	d.events.Publish(ev)
	if err := d.Refresh(ctx); err != nil {
		return
	}
	d.notify(format, args...)
}

func checkNodePatch(p *client.NodePatch) error {
	if p.Label != nil {
		label := strings.TrimSpace(*p.Label)
		if label == "" {
			return fmt.Errorf("%w: label is required", ErrValidation)
		}
		p.Label = &label
	}
	if p.NodeType != nil {
		t, ok := domain.ParseNodeType(string(*p.NodeType))
		if !ok {
			return fmt.Errorf("%w: unknown node type %q", ErrValidation, *p.NodeType)
		}
		p.NodeType = &t
	}
	if p.Status != nil {
		s, ok := domain.ParseNodeStatus(string(*p.Status))
		if !ok {
			return fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
		}
		p.Status = &s
	}
	if p.Position != nil {
		pos := domain.NewPosition(p.Position.X, p.Position.Y)
		p.Position = &pos
	}
	if p.Links != nil {
		p.Links = trimAll(p.Links)
	}
	if p.Owners != nil {
		p.Owners = trimAll(p.Owners)
	}
	return nil
}

func checkSpherePatch(p *client.SpherePatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return fmt.Errorf("%w: name is required", ErrValidation)
		}
		p.Name = &name
	}
	if p.Color != nil {
		color := strings.TrimSpace(*p.Color)
		if err := validate.Var(color, "required,hexcolor"); err != nil {
			return fmt.Errorf("%w: color must be a hex colour", ErrValidation)
		}
		p.Color = &color
	}
	p.CenterX = clampPtr(p.CenterX, geometry.ClampUnit)
	p.CenterY = clampPtr(p.CenterY, geometry.ClampUnit)
	p.Radius = clampPtr(p.Radius, domain.ClampRadius)
	return nil
}

func clampPtr(v *float64, clamp func(float64) float64) *float64 {
	if v == nil {
		return nil
	}
	out := clamp(*v)
	return &out
}
