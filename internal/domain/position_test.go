package domain

import (
	"testing"

	"spheremap/internal/geometry"
)

func TestNewPosition(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want Position
	}{
		{"inside", 0.2, 0.8, Position{X: 0.2, Y: 0.8}},
		{"clamped high", 1.4, 3, Position{X: 1, Y: 1}},
		{"clamped low", -0.1, -9, Position{X: 0, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPosition(tt.x, tt.y); got != tt.want {
				t.Errorf("NewPosition(%v, %v) = %+v, want %+v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestPositionPointRoundTrip(t *testing.T) {
	p := Position{X: 0.3, Y: 0.6}
	if back := PositionFromPoint(p.Point()); back != p {
		t.Errorf("expected %+v, got %+v", p, back)
	}
	if got := PositionFromPoint(geometry.Point{X: 2, Y: 0.5}); got.X != 1 {
		t.Errorf("expected clamped X, got %v", got.X)
	}
}
