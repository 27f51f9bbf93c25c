package render

import (
	"fmt"

	"spheremap/internal/domain"
	"spheremap/internal/geometry"
)

// DragResult is the outcome of a node drag
type DragResult struct {
	NodeID int64 `json:"node_id"`
	// Pixel is where the node snaps to on the canvas.
	Pixel geometry.Point `json:"pixel"`
	// Position is the constrained canvas-relative position to persist.
	Position domain.Position `json:"position"`
}

// Constrain converts a dropped pixel position into a canvas-relative
// position projected onto the node's sphere, without mutating anything
func (d *Driver) Constrain(nodeID int64, pixel geometry.Point, size geometry.Size) (DragResult, error) {
	n, ok := d.store.Node(nodeID)
	if !ok {
		return DragResult{}, fmt.Errorf("%w: %d", ErrUnknownNode, nodeID)
	}
	size = size.OrDefault()
	rel := geometry.PixelToRelative(pixel, size.Width, size.Height)
	if entry, ok := d.store.Layout().Lookup(n.SphereID); ok {
		rel = geometry.ProjectOntoCircle(rel, entry.Circle())
	}
	return DragResult{
		NodeID:   nodeID,
		Pixel:    geometry.Point{X: rel.X * size.Width, Y: rel.Y * size.Height},
		Position: domain.PositionFromPoint(rel),
	}, nil
}

// Drag applies a drop: the constrained position is written to the store and
// the frame is re-rendered so the node snaps into place. Persisting the
// position is left to the caller.
func (d *Driver) Drag(nodeID int64, pixel geometry.Point, size geometry.Size) (DragResult, error) {
	result, err := d.Constrain(nodeID, pixel, size)
	if err != nil {
		return DragResult{}, err
	}
	if _, ok := d.store.ApplyNodePosition(nodeID, result.Position); !ok {
		return DragResult{}, fmt.Errorf("%w: %d", ErrUnknownNode, nodeID)
	}
	d.Render(size)
	return result, nil
}
