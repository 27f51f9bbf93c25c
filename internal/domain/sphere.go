package domain

import (
	"strconv"
	"strings"

	"spheremap/internal/geometry"
)

// Sphere geometry bounds in canvas-relative units
const (
	DefaultSphereRadius = 0.22
	MinSphereRadius     = 0.08
	MaxSphereRadius     = 0.48
)

// GroupRef references an organization group attached to a sphere
type GroupRef struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Placement records which geometry fields came from persisted data.
// The saved layout falls back per field when one is missing.
type Placement struct {
	CenterX bool
	CenterY bool
	Radius  bool
}

// Complete reports whether every geometry field was persisted
func (p Placement) Complete() bool {
	return p.CenterX && p.CenterY && p.Radius
}

// Sphere is a named circular region of the canvas owning a set of nodes
type Sphere struct {
	ID             int64      `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	CenterX        float64    `json:"center_x" yaml:"center_x"`
	CenterY        float64    `json:"center_y" yaml:"center_y"`
	Radius         float64    `json:"radius" yaml:"radius"`
	Color          string     `json:"color" yaml:"color"`
	OrganizationID int64      `json:"organization_id" yaml:"organization_id"`
	Groups         []GroupRef `json:"groups" yaml:"groups"`
	Placed         Placement  `json:"-" yaml:"-"`
}

// DefaultSphereName is the name given to spheres whose record has none
func DefaultSphereName(id int64) string {
	return "Sphere " + itoa(id)
}

// NewSphere creates a sphere at the canvas center with the default radius
func NewSphere(id int64, name string) *Sphere {
	if strings.TrimSpace(name) == "" {
		name = DefaultSphereName(id)
	}
	return &Sphere{
		ID:      id,
		Name:    name,
		CenterX: 0.5,
		CenterY: 0.5,
		Radius:  DefaultSphereRadius,
		Color:   NodeColor(DefaultNodeType),
		Groups:  []GroupRef{},
	}
}

// SetGeometry sets center and radius, clamping each into its legal range
func (s *Sphere) SetGeometry(centerX, centerY, radius float64) {
	s.CenterX = geometry.ClampUnit(centerX)
	s.CenterY = geometry.ClampUnit(centerY)
	s.Radius = ClampRadius(radius)
}

// Circle returns the sphere's region
func (s *Sphere) Circle() geometry.Circle {
	return geometry.Circle{CenterX: s.CenterX, CenterY: s.CenterY, Radius: s.Radius}
}

// ClampRadius bounds r into [MinSphereRadius, MaxSphereRadius]
func ClampRadius(r float64) float64 {
	return geometry.Clamp(r, MinSphereRadius, MaxSphereRadius)
}

// Clone returns a copy with its own group slice
func (s Sphere) Clone() Sphere {
	out := s
	out.Groups = append([]GroupRef(nil), s.Groups...)
	return out
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
