package layout

import (
	"spheremap/internal/domain"
	"spheremap/internal/geometry"
)

// Entry is the computed placement of one sphere
type Entry struct {
	SphereID int64 `json:"sphere_id" yaml:"sphere_id"`
	Placement
}

// Circle returns the entry as a circle with its geometry clamped
func (e Entry) Circle() geometry.Circle {
	return geometry.Circle{
		CenterX: geometry.ClampUnit(e.CenterX),
		CenterY: geometry.ClampUnit(e.CenterY),
		Radius:  domain.ClampRadius(e.Radius),
	}
}

// Layout is the set of entries computed for one mode, keyed 1:1 by sphere id
type Layout struct {
	Mode    domain.LayoutMode
	Entries []Entry
	index   map[int64]int
}

// Compute places spheres under mode and keys the result by sphere id.
// Duplicate sphere ids keep their first entry.
func Compute(mode domain.LayoutMode, spheres []domain.Sphere) *Layout {
	if _, ok := domain.ParseLayoutMode(string(mode)); !ok {
		mode = domain.DefaultLayoutMode
	}
	placements := Place(mode, spheres)
	l := &Layout{
		Mode:    mode,
		Entries: make([]Entry, 0, len(spheres)),
		index:   make(map[int64]int, len(spheres)),
	}
	for i, s := range spheres {
		if _, seen := l.index[s.ID]; seen {
			continue
		}
		l.index[s.ID] = len(l.Entries)
		l.Entries = append(l.Entries, Entry{SphereID: s.ID, Placement: placements[i]})
	}
	return l
}

// Lookup returns the entry for a sphere
func (l *Layout) Lookup(sphereID int64) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	i, ok := l.index[sphereID]
	if !ok {
		return Entry{}, false
	}
	return l.Entries[i], true
}

// Center returns the sphere's layout center, or the canvas center when unknown
func (l *Layout) Center(sphereID int64) domain.Position {
	if e, ok := l.Lookup(sphereID); ok {
		return domain.NewPosition(e.CenterX, e.CenterY)
	}
	return domain.CenterPosition()
}

// Len returns the number of entries
func (l *Layout) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}
