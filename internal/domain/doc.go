// Package domain defines the canonical model of a sphere map.
//
// # Core Types
//
// Sphere is a named circular region of the canvas. Its center and radius are
// canvas-relative and always held inside their legal ranges.
//
// Node is a typed entity owned by one sphere. Its position is relative to the
// whole canvas and is constrained to the owning sphere only at render time.
//
// Edge is a typed relation between two distinct nodes.
//
// Map groups the three for one organization and is the unit of replacement,
// export and import.
//
// # Render Frames
//
// Frame, SphereZone, RenderNode and RenderEdge describe the pixel-space
// result of a reconciliation pass, ready to hand to a renderer.
//
// # Design Principles
//
// - Value types with clamping constructors
// - No I/O or external dependencies beyond geometry helpers
// - Fixed enumerations with explicit defaults
package domain
