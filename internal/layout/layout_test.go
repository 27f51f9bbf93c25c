package layout

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spheremap/internal/domain"
)

const tolerance = 1e-9

func spheres(ids ...int64) []domain.Sphere {
	out := make([]domain.Sphere, 0, len(ids))
	for _, id := range ids {
		out = append(out, *domain.NewSphere(id, ""))
	}
	return out
}

func TestRadial(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Radial(0))
		assert.Empty(t, Radial(-2))
	})

	t.Run("single sphere at angle zero", func(t *testing.T) {
		got := Radial(1)
		require.Len(t, got, 1)
		assert.InDelta(t, 0.85, got[0].CenterX, tolerance)
		assert.InDelta(t, 0.5, got[0].CenterY, tolerance)
		assert.Equal(t, domain.DefaultSphereRadius, got[0].Radius)
	})

	t.Run("three spheres at 0, 120 and 240 degrees", func(t *testing.T) {
		got := Radial(3)
		require.Len(t, got, 3)
		for i, p := range got {
			angle := float64(i) * 2 * math.Pi / 3
			assert.InDelta(t, 0.5+0.35*math.Cos(angle), p.CenterX, tolerance)
			assert.InDelta(t, 0.5+0.35*math.Sin(angle), p.CenterY, tolerance)
			assert.InDelta(t, 0.35, math.Hypot(p.CenterX-0.5, p.CenterY-0.5), tolerance)
		}
	})
}

func TestGrid(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Grid(0))
	})

	t.Run("single cell", func(t *testing.T) {
		got := Grid(1)
		require.Len(t, got, 1)
		assert.Equal(t, Placement{CenterX: 0.5, CenterY: 0.5, Radius: 0.35}, got[0])
	})

	t.Run("five spheres fill a 3x2 grid row major", func(t *testing.T) {
		got := Grid(5)
		require.Len(t, got, 5)
		third := 1.0 / 3
		assert.InDelta(t, third/2, got[0].CenterX, tolerance)
		assert.InDelta(t, 0.25, got[0].CenterY, tolerance)
		assert.InDelta(t, third+third/2, got[1].CenterX, tolerance)
		assert.InDelta(t, third/2, got[3].CenterX, tolerance)
		assert.InDelta(t, 0.75, got[3].CenterY, tolerance)
		assert.InDelta(t, 0.35*third, got[4].Radius, tolerance)
	})

	t.Run("neighbours do not overlap", func(t *testing.T) {
		got := Grid(9)
		for i := 0; i < len(got); i++ {
			for j := i + 1; j < len(got); j++ {
				d := math.Hypot(got[i].CenterX-got[j].CenterX, got[i].CenterY-got[j].CenterY)
				assert.Greater(t, d, got[i].Radius+got[j].Radius)
			}
		}
	})
}

func TestSaved(t *testing.T) {
	t.Run("no persisted coordinates falls back to radial", func(t *testing.T) {
		got := Saved(spheres(1, 2, 3))
		assert.Equal(t, Radial(3), got)
	})

	t.Run("persisted fields win individually", func(t *testing.T) {
		list := spheres(1, 2)
		list[0].SetGeometry(0.1, 0.2, 0.3)
		list[0].Placed = domain.Placement{CenterX: true, CenterY: true, Radius: true}
		list[1].SetGeometry(0.9, 0.5, 0.4)
		list[1].Placed = domain.Placement{CenterX: true}

		got := Saved(list)
		fallback := Radial(2)

		assert.Equal(t, Placement{CenterX: 0.1, CenterY: 0.2, Radius: 0.3}, got[0])
		assert.Equal(t, 0.9, got[1].CenterX)
		assert.InDelta(t, fallback[1].CenterY, got[1].CenterY, tolerance)
		assert.Equal(t, domain.DefaultSphereRadius, got[1].Radius)
	})
}

func TestCompute(t *testing.T) {
	t.Run("saved mode with three unplaced spheres is radial", func(t *testing.T) {
		l := Compute(domain.LayoutSaved, spheres(10, 20, 30))
		require.Equal(t, 3, l.Len())
		radial := Radial(3)
		for i, id := range []int64{10, 20, 30} {
			e, ok := l.Lookup(id)
			require.True(t, ok)
			assert.Equal(t, radial[i], e.Placement)
		}
	})

	t.Run("unknown mode behaves as saved", func(t *testing.T) {
		l := Compute("spiral", spheres(1))
		assert.Equal(t, domain.LayoutSaved, l.Mode)
	})

	t.Run("duplicate ids keep first entry", func(t *testing.T) {
		l := Compute(domain.LayoutGrid, spheres(1, 1, 2))
		assert.Equal(t, 2, l.Len())
		e, _ := l.Lookup(1)
		assert.Equal(t, Grid(3)[0], e.Placement)
	})

	t.Run("center of unknown sphere is canvas center", func(t *testing.T) {
		l := Compute(domain.LayoutRadial, spheres(1))
		assert.Equal(t, domain.CenterPosition(), l.Center(99))
		assert.InDelta(t, 0.85, l.Center(1).X, tolerance)
	})

	t.Run("nil layout", func(t *testing.T) {
		var l *Layout
		_, ok := l.Lookup(1)
		assert.False(t, ok)
		assert.Zero(t, l.Len())
	})
}

func TestEntryCircleClamps(t *testing.T) {
	e := Entry{SphereID: 1, Placement: Placement{CenterX: 1.2, CenterY: -0.3, Radius: 0.9}}
	c := e.Circle()
	assert.Equal(t, 1.0, c.CenterX)
	assert.Equal(t, 0.0, c.CenterY)
	assert.Equal(t, domain.MaxSphereRadius, c.Radius)
}

func TestLayoutProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	valid := func(ps []Placement, n int) bool {
		if len(ps) != n {
			return false
		}
		for _, p := range ps {
			if !(p.Radius > 0) || p.CenterX < 0 || p.CenterX > 1 || p.CenterY < 0 || p.CenterY > 1 {
				return false
			}
		}
		return true
	}

	properties.Property("radial returns n in-range entries", prop.ForAll(
		func(n int) bool { return valid(Radial(n), n) },
		gen.IntRange(0, 400),
	))

	properties.Property("grid returns n in-range entries", prop.ForAll(
		func(n int) bool { return valid(Grid(n), n) },
		gen.IntRange(0, 400),
	))

	properties.TestingRun(t)
}
