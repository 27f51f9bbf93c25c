package domain

import (
	"fmt"
	"strings"
)

// LayoutMode selects the algorithm used to place spheres
type LayoutMode string

const (
	LayoutSaved  LayoutMode = "saved"
	LayoutRadial LayoutMode = "radial"
	LayoutGrid   LayoutMode = "grid"
)

// DefaultLayoutMode is active after load
const DefaultLayoutMode = LayoutSaved

// ParseLayoutMode checks s against the recognised modes
func ParseLayoutMode(s string) (LayoutMode, bool) {
	switch m := LayoutMode(strings.ToLower(strings.TrimSpace(s))); m {
	case LayoutSaved, LayoutRadial, LayoutGrid:
		return m, true
	}
	return "", false
}

// Frame is the pixel-space output of one reconciliation pass
type Frame struct {
	Width         float64      `json:"width"`
	Height        float64      `json:"height"`
	LayoutMode    LayoutMode   `json:"layout_mode"`
	FocusSphereID *int64       `json:"focus_sphere_id,omitempty"`
	Spheres       []SphereZone `json:"spheres"`
	Nodes         []RenderNode `json:"nodes"`
	Edges         []RenderEdge `json:"edges"`
	Fit           *Box         `json:"fit,omitempty"`
}

// SphereZone is a sphere's region in pixels
type SphereZone struct {
	SphereID int64   `json:"sphere_id"`
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Opacity  float64 `json:"opacity"`
}

// RenderNode is a node placed in pixel space
type RenderNode struct {
	ID       string     `json:"id"`
	NodeID   int64      `json:"node_id"`
	Label    string     `json:"label"`
	NodeType NodeType   `json:"node_type"`
	Status   NodeStatus `json:"status"`
	SphereID int64      `json:"sphere_id"`
	Color    string     `json:"color"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
}

// RenderEdge connects two render nodes by their element ids
type RenderEdge struct {
	ID           string       `json:"id"`
	EdgeID       int64        `json:"edge_id"`
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	RelationType RelationType `json:"relation_type"`
	Color        string       `json:"color"`
}

// Box is an axis-aligned pixel rectangle
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Pad grows the box by p on every side
func (b Box) Pad(p float64) Box {
	return Box{MinX: b.MinX - p, MinY: b.MinY - p, MaxX: b.MaxX + p, MaxY: b.MaxY + p}
}

// NodeElementID is the renderer element id of a node
func NodeElementID(id int64) string {
	return fmt.Sprintf("node-%d", id)
}

// EdgeElementID is the renderer element id of an edge
func EdgeElementID(id int64) string {
	return fmt.Sprintf("edge-%d", id)
}
