package service

import (
	"context"

	"spheremap/internal/domain"
	"spheremap/internal/viewstate"
)

// SetLayoutMode switches the sphere layout. Unknown modes are ignored and
// reported as false.
func (d *Dashboard) SetLayoutMode(mode string) bool {
	m, ok := domain.ParseLayoutMode(mode)
	if !ok || !d.store.SetLayoutMode(m) {
		return false
	}
	d.rerender()
	d.events.Publish(Event{
		Type:    EventLayoutChanged,
		Payload: map[string]string{"layout_mode": string(m)},
	})
	return true
}

// ToggleSphere flips a sphere's visibility
func (d *Dashboard) ToggleSphere(id int64) {
	d.store.ToggleSphereVisibility(id)
	d.viewChanged()
}

// SetFocus focuses a sphere, or clears focus if it is already focused
func (d *Dashboard) SetFocus(id int64) {
	d.store.SetFocus(id)
	d.viewChanged()
}

// ClearFocus removes the focus
func (d *Dashboard) ClearFocus() {
	d.store.ClearFocus()
	d.viewChanged()
}

// SetFilters replaces the filters and refetches the map with them
func (d *Dashboard) SetFilters(ctx context.Context, f viewstate.Filters) error {
	d.store.SetFilters(f)
	d.viewChanged()
	return d.Refresh(ctx)
}

// SelectNode opens the node card. Unknown nodes are not selected.
func (d *Dashboard) SelectNode(id int64) bool {
	if !d.store.SelectNode(id) {
		return false
	}
	d.events.Publish(Event{Type: EventSelectionChanged, Payload: map[string]int64{"node_id": id}})
	return true
}

// CloseNodeCard clears the selection
func (d *Dashboard) CloseNodeCard() {
	d.store.ClearSelection()
	d.events.Publish(Event{Type: EventSelectionChanged})
}

// SetEdgeSphere picks the sphere whose nodes are offered as edge endpoints
func (d *Dashboard) SetEdgeSphere(id int64) []domain.Node {
	return d.store.SetEdgeSphere(id)
}

func (d *Dashboard) viewChanged() {
	frame := d.rerender()
	d.events.Publish(Event{
		Type:    EventViewChanged,
		Payload: map[string]int{"nodes": len(frame.Nodes), "edges": len(frame.Edges)},
	})
}
