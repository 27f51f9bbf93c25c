package domain

import "spheremap/internal/geometry"

// Position is a node's canvas-relative location, both axes in [0,1]
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// CenterPosition is the default node position
func CenterPosition() Position {
	return Position{X: 0.5, Y: 0.5}
}

// NewPosition creates a position clamped into the unit square
func NewPosition(x, y float64) Position {
	return Position{X: geometry.ClampUnit(x), Y: geometry.ClampUnit(y)}
}

// Point converts the position for geometry helpers
func (p Position) Point() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

// PositionFromPoint converts a geometry point back, clamping it
func PositionFromPoint(pt geometry.Point) Position {
	return NewPosition(pt.X, pt.Y)
}
