// Package render reconciles the view state into pixel-space frames and
// drives an external renderer. It also maps node drags back into
// constrained canvas-relative positions.
package render

import (
	"errors"
	"math"
	"sync"

	"spheremap/internal/domain"
	"spheremap/internal/geometry"
	"spheremap/internal/viewstate"
)

// FitPadding is the pixel margin around the focused sphere's nodes
const FitPadding = 80

// UnfocusedOpacity is applied to sphere zones other than the focused one
const UnfocusedOpacity = 0.25

// ErrUnknownNode is returned when a drag names a node not in the model
var ErrUnknownNode = errors.New("unknown node")

// Renderer accepts a full replacement of the drawn elements
type Renderer interface {
	SetElements(nodes []domain.RenderNode, edges []domain.RenderEdge)
}

// SphereRenderer is implemented by renderers that also draw sphere zones
type SphereRenderer interface {
	SetSpheres(zones []domain.SphereZone)
}

// FrameRenderer is implemented by renderers that want the whole frame,
// including layout mode, focus and fit box
type FrameRenderer interface {
	SetFrame(frame domain.Frame)
}

// BuildFrame computes the pixel-space frame for a view on a canvas of the
// given size. Non-positive sizes fall back to geometry.DefaultSize.
func BuildFrame(view viewstate.View, size geometry.Size) domain.Frame {
	size = size.OrDefault()
	frame := domain.Frame{
		Width:      size.Width,
		Height:     size.Height,
		LayoutMode: view.Mode,
		Spheres:    make([]domain.SphereZone, 0, len(view.Spheres)),
		Nodes:      make([]domain.RenderNode, 0, len(view.Nodes)),
		Edges:      make([]domain.RenderEdge, 0, len(view.Edges)),
	}
	if view.Focus != nil {
		id := *view.Focus
		frame.FocusSphereID = &id
	}

	known := make(map[int64]*domain.Sphere, len(view.Spheres))
	for i := range view.Spheres {
		known[view.Spheres[i].ID] = &view.Spheres[i]
	}

	if view.Layout != nil {
		for _, entry := range view.Layout.Entries {
			sphere, ok := known[entry.SphereID]
			if !ok || !view.Visible[entry.SphereID] {
				continue
			}
			c := entry.Circle()
			opacity := 1.0
			if view.Focus != nil && *view.Focus != entry.SphereID {
				opacity = UnfocusedOpacity
			}
			frame.Spheres = append(frame.Spheres, domain.SphereZone{
				SphereID: entry.SphereID,
				Name:     sphere.Name,
				Color:    domain.SphereColor(sphere),
				X:        c.CenterX * size.Width,
				Y:        c.CenterY * size.Height,
				Radius:   c.Radius * size.MinSide(),
				Opacity:  opacity,
			})
		}
	}

	var fit *domain.Box
	for _, n := range view.Nodes {
		px := PlaceNode(n, view, size)
		frame.Nodes = append(frame.Nodes, domain.RenderNode{
			ID:       domain.NodeElementID(n.ID),
			NodeID:   n.ID,
			Label:    n.Label,
			NodeType: n.Type,
			Status:   n.Status,
			SphereID: n.SphereID,
			Color:    domain.NodeColor(n.Type),
			X:        px.X,
			Y:        px.Y,
		})
		if view.Focus != nil && n.SphereID == *view.Focus {
			fit = extend(fit, px)
		}
	}
	if fit != nil {
		padded := fit.Pad(FitPadding)
		frame.Fit = &padded
	}

	for _, e := range view.Edges {
		frame.Edges = append(frame.Edges, domain.RenderEdge{
			ID:           domain.EdgeElementID(e.ID),
			EdgeID:       e.ID,
			Source:       domain.NodeElementID(e.SourceNodeID),
			Target:       domain.NodeElementID(e.TargetNodeID),
			RelationType: e.RelationType,
			Color:        domain.RelationColor(e.RelationType),
		})
	}
	return frame
}

// PlaceNode returns a node's pixel position. When its sphere has a layout
// entry the relative position is projected onto that sphere's circle first.
func PlaceNode(n domain.Node, view viewstate.View, size geometry.Size) geometry.Point {
	size = size.OrDefault()
	px := geometry.RelativeToPixel(n.Position.Point(), size.Width, size.Height)
	entry, ok := view.Layout.Lookup(n.SphereID)
	if !ok {
		return px
	}
	rel := geometry.Point{X: px.X / size.Width, Y: px.Y / size.Height}
	projected := geometry.ProjectOntoCircle(rel, entry.Circle())
	return geometry.Point{X: projected.X * size.Width, Y: projected.Y * size.Height}
}

func extend(b *domain.Box, p geometry.Point) *domain.Box {
	if b == nil {
		return &domain.Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
	}
	b.MinX = math.Min(b.MinX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MaxY = math.Max(b.MaxY, p.Y)
	return b
}

// Driver renders the store's view through a Renderer
type Driver struct {
	store    *viewstate.Store
	renderer Renderer

	mu   sync.Mutex
	size geometry.Size
}

// NewDriver creates a driver. A nil renderer only computes frames.
func NewDriver(store *viewstate.Store, renderer Renderer) *Driver {
	return &Driver{
		store:    store,
		renderer: renderer,
		size:     geometry.DefaultSize,
	}
}

// Size returns the canvas size used by the last render
func (d *Driver) Size() geometry.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Frame computes a frame without touching the renderer
func (d *Driver) Frame(size geometry.Size) domain.Frame {
	return BuildFrame(d.store.View(), size)
}

// Render computes a frame for size, remembers the size and hands the frame
// to the renderer as a full replacement
func (d *Driver) Render(size geometry.Size) domain.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.size = size.OrDefault()
	frame := BuildFrame(d.store.View(), d.size)
	d.push(frame)
	return frame
}

// Rerender renders again at the last known size
func (d *Driver) Rerender() domain.Frame {
	return d.Render(d.Size())
}

func (d *Driver) push(frame domain.Frame) {
	if d.renderer == nil {
		return
	}
	if fr, ok := d.renderer.(FrameRenderer); ok {
		fr.SetFrame(frame)
		return
	}
	if sr, ok := d.renderer.(SphereRenderer); ok {
		sr.SetSpheres(frame.Spheres)
	}
	d.renderer.SetElements(frame.Nodes, frame.Edges)
}
