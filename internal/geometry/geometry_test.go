package geometry

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		want      float64
	}{
		{"inside", 0.4, 0, 1, 0.4},
		{"below", -3, 0, 1, 0},
		{"above", 5, 0.08, 0.48, 0.48},
		{"on lower bound", 0.08, 0.08, 0.48, 0.08},
		{"on upper bound", 1, 0, 1, 1},
		{"nan", math.NaN(), 0, 1, 0},
		{"negative infinity", math.Inf(-1), 0, 1, 0},
		{"positive infinity", math.Inf(1), 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.v, tt.lo, tt.hi))
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float64", 0.25, 0.25},
		{"int", 3, 3},
		{"int64", int64(-7), -7},
		{"uint8", uint8(9), 9},
		{"float32", float32(0.5), 0.5},
		{"json number", json.Number("1.5"), 1.5},
		{"bad json number", json.Number("x"), 42},
		{"numeric string", " 0.75 ", 0.75},
		{"empty string", "", 42},
		{"word", "abc", 42},
		{"nil", nil, 42},
		{"bool", true, 42},
		{"nan", math.NaN(), 42},
		{"inf", math.Inf(1), 42},
		{"string inf", "Inf", 42},
		{"slice", []any{1}, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToNumber(tt.in, 42))
		})
	}
}

func TestSizeOrDefault(t *testing.T) {
	assert.Equal(t, DefaultSize, Size{}.OrDefault())
	assert.Equal(t, Size{Width: 800, Height: 720}, Size{Width: 800, Height: -1}.OrDefault())
	assert.Equal(t, Size{Width: 1280, Height: 600}, Size{Width: math.NaN(), Height: 600}.OrDefault())
	assert.Equal(t, 600.0, Size{Width: 800, Height: 600}.MinSide())
}

func TestRelativePixelConversion(t *testing.T) {
	t.Run("relative to pixel clamps first", func(t *testing.T) {
		got := RelativeToPixel(Point{X: 1.5, Y: -0.2}, 1000, 500)
		assert.Equal(t, Point{X: 1000, Y: 0}, got)
	})

	t.Run("pixel to relative clamps result", func(t *testing.T) {
		got := PixelToRelative(Point{X: 2000, Y: -10}, 1000, 500)
		assert.Equal(t, Point{X: 1, Y: 0}, got)
	})

	t.Run("zero sized canvas does not divide by zero", func(t *testing.T) {
		got := PixelToRelative(Point{X: 0, Y: 0}, 0, 0)
		assert.Equal(t, Point{X: 0, Y: 0}, got)
	})
}

func TestProjectOntoCircle(t *testing.T) {
	circle := Circle{CenterX: 0.5, CenterY: 0.5, Radius: 0.2}

	t.Run("inside point unchanged", func(t *testing.T) {
		p := Point{X: 0.55, Y: 0.45}
		assert.Equal(t, p, ProjectOntoCircle(p, circle))
	})

	t.Run("center unchanged", func(t *testing.T) {
		p := Point{X: 0.5, Y: 0.5}
		assert.Equal(t, p, ProjectOntoCircle(p, circle))
	})

	t.Run("boundary unchanged", func(t *testing.T) {
		p := Point{X: 0.7, Y: 0.5}
		assert.Equal(t, p, ProjectOntoCircle(p, circle))
	})

	t.Run("outside point lands on boundary", func(t *testing.T) {
		got := ProjectOntoCircle(Point{X: 1, Y: 0.5}, circle)
		assert.InDelta(t, 0.7, got.X, tolerance)
		assert.InDelta(t, 0.5, got.Y, tolerance)
	})

	t.Run("zero radius collapses to center", func(t *testing.T) {
		got := ProjectOntoCircle(Point{X: 0.9, Y: 0.1}, Circle{CenterX: 0.3, CenterY: 0.3})
		assert.InDelta(t, 0.3, got.X, tolerance)
		assert.InDelta(t, 0.3, got.Y, tolerance)
	})
}

func TestGeometryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("clamp stays in range and keeps in-range values", prop.ForAll(
		func(v, lo, width float64) bool {
			hi := lo + width
			got := Clamp(v, lo, hi)
			if got < lo || got > hi {
				return false
			}
			if v >= lo && v <= hi {
				return got == v
			}
			return true
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-100, 100),
		gen.Float64Range(0, 100),
	))

	properties.Property("projection keeps inside points and moves outside points onto the boundary", prop.ForAll(
		func(px, py, cx, cy, r float64) bool {
			p := Point{X: px, Y: py}
			c := Circle{CenterX: cx, CenterY: cy, Radius: r}
			got := ProjectOntoCircle(p, c)
			if Distance(p, c.Center()) <= r {
				return got == p
			}
			if math.Abs(Distance(got, c.Center())-r) > tolerance {
				return false
			}
			// same direction from the center
			cross := (p.X-cx)*(got.Y-cy) - (p.Y-cy)*(got.X-cx)
			dot := (p.X-cx)*(got.X-cx) + (p.Y-cy)*(got.Y-cy)
			return math.Abs(cross) < 1e-9 && dot >= 0
		},
		gen.Float64Range(-1, 2),
		gen.Float64Range(-1, 2),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0.01, 0.5),
	))

	properties.Property("pixel round trip restores relative points", prop.ForAll(
		func(x, y, w, h float64) bool {
			p := Point{X: x, Y: y}
			back := PixelToRelative(RelativeToPixel(p, w, h), w, h)
			return math.Abs(back.X-x) < tolerance && math.Abs(back.Y-y) < tolerance
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(1, 5000),
		gen.Float64Range(1, 5000),
	))

	properties.TestingRun(t)
}
