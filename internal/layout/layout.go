// Package layout places spheres on the canvas.
//
// Radial and Grid are pure functions of the sphere count and return one
// placement per index; callers zip the result against their sphere order.
// Compute applies a layout mode to an ordered sphere list and keys the result
// by sphere id.
package layout

import (
	"math"

	"spheremap/internal/domain"
	"spheremap/internal/geometry"
)

const (
	// RadialDistance is the distance of each sphere center from the canvas center.
	RadialDistance = 0.35
	// GridFill is the share of the smaller cell side used as a sphere radius.
	GridFill = 0.35
)

// Placement is one sphere's center and radius in canvas-relative units
type Placement struct {
	CenterX float64 `json:"center_x" yaml:"center_x"`
	CenterY float64 `json:"center_y" yaml:"center_y"`
	Radius  float64 `json:"radius" yaml:"radius"`
}

// Radial spaces n spheres evenly on a circle around (0.5, 0.5), starting at angle 0
func Radial(n int) []Placement {
	if n <= 0 {
		return []Placement{}
	}
	step := 2 * math.Pi / float64(max(n, 1))
	out := make([]Placement, n)
	for i := range out {
		angle := float64(i) * step
		out[i] = Placement{
			CenterX: geometry.ClampUnit(0.5 + RadialDistance*math.Cos(angle)),
			CenterY: geometry.ClampUnit(0.5 + RadialDistance*math.Sin(angle)),
			Radius:  domain.DefaultSphereRadius,
		}
	}
	return out
}

// Grid fills a ceil(sqrt(n)) column grid row-major from the top left
func Grid(n int) []Placement {
	if n <= 0 {
		return []Placement{}
	}
	columns := int(math.Ceil(math.Sqrt(float64(max(n, 1)))))
	rows := int(math.Ceil(float64(n) / float64(columns)))
	cellWidth := 1 / float64(max(columns, 1))
	cellHeight := 1 / float64(max(rows, 1))
	radius := math.Min(cellWidth, cellHeight) * GridFill

	out := make([]Placement, n)
	for i := range out {
		column := i % columns
		row := i / columns
		out[i] = Placement{
			CenterX: geometry.ClampUnit(float64(column)*cellWidth + cellWidth/2),
			CenterY: geometry.ClampUnit(float64(row)*cellHeight + cellHeight/2),
			Radius:  radius,
		}
	}
	return out
}

// Saved uses each sphere's persisted geometry, falling back field by field
// to the radial placement for the same index
func Saved(spheres []domain.Sphere) []Placement {
	fallback := Radial(len(spheres))
	out := make([]Placement, len(spheres))
	for i, s := range spheres {
		p := fallback[i]
		if s.Placed.CenterX {
			p.CenterX = s.CenterX
		}
		if s.Placed.CenterY {
			p.CenterY = s.CenterY
		}
		if s.Placed.Radius {
			p.Radius = s.Radius
		}
		out[i] = Placement{
			CenterX: geometry.ClampUnit(p.CenterX),
			CenterY: geometry.ClampUnit(p.CenterY),
			Radius:  domain.ClampRadius(p.Radius),
		}
	}
	return out
}

// Place returns the placements for mode. Unknown modes behave as saved.
func Place(mode domain.LayoutMode, spheres []domain.Sphere) []Placement {
	switch mode {
	case domain.LayoutRadial:
		return Radial(len(spheres))
	case domain.LayoutGrid:
		return Grid(len(spheres))
	default:
		return Saved(spheres)
	}
}
