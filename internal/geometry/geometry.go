// Package geometry holds the small numeric helpers the map layout is built on:
// clamping, lenient number coercion, circle projection and conversion between
// canvas-relative and pixel coordinates.
package geometry

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// minExtent guards pixel/relative conversion against zero-sized canvases.
const minExtent = 1e-6

// Point is a 2D coordinate. Relative points live in [0,1]x[0,1].
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Circle is a circular region in canvas-relative units.
type Circle struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Radius  float64 `json:"radius"`
}

// Center returns the circle's center as a point
func (c Circle) Center() Point {
	return Point{X: c.CenterX, Y: c.CenterY}
}

// Size is a canvas size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultSize is used when the canvas reports no usable dimensions.
var DefaultSize = Size{Width: 1280, Height: 720}

// OrDefault replaces non-positive dimensions with DefaultSize's.
func (s Size) OrDefault() Size {
	out := s
	if !(out.Width > 0) || math.IsInf(out.Width, 0) {
		out.Width = DefaultSize.Width
	}
	if !(out.Height > 0) || math.IsInf(out.Height, 0) {
		out.Height = DefaultSize.Height
	}
	return out
}

// MinSide returns the shorter canvas side.
func (s Size) MinSide() float64 {
	return math.Min(s.Width, s.Height)
}

// Clamp bounds v into [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit bounds v into [0, 1].
func ClampUnit(v float64) float64 {
	return Clamp(v, 0, 1)
}

// ToNumber coerces v to a finite float64. Anything that is not a finite
// number (nil, NaN, Inf, non-numeric strings, other types) yields fallback.
func ToNumber(v any, fallback float64) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return fallback
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

// RelativeToPixel maps a relative point onto a canvas of the given size.
// Components are clamped into [0,1] first.
func RelativeToPixel(p Point, width, height float64) Point {
	return Point{
		X: ClampUnit(p.X) * width,
		Y: ClampUnit(p.Y) * height,
	}
}

// PixelToRelative maps a pixel point back into relative units, clamped to [0,1].
func PixelToRelative(p Point, width, height float64) Point {
	return Point{
		X: ClampUnit(p.X / math.Max(width, minExtent)),
		Y: ClampUnit(p.Y / math.Max(height, minExtent)),
	}
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// ProjectOntoCircle keeps p if it lies inside c (boundary inclusive) and
// otherwise moves it along the ray from the center so it sits on the boundary.
func ProjectOntoCircle(p Point, c Circle) Point {
	dx := p.X - c.CenterX
	dy := p.Y - c.CenterY
	distance := math.Sqrt(dx*dx + dy*dy)
	if distance <= c.Radius || distance == 0 {
		return p
	}
	scale := c.Radius / distance
	return Point{
		X: c.CenterX + dx*scale,
		Y: c.CenterY + dy*scale,
	}
}
