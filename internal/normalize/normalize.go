// Package normalize turns loosely shaped sphere, node and edge records into
// canonical domain entities.
//
// A record is either fully admitted or dropped. Dropped records are logged
// and counted, never returned as errors, so one bad record cannot fail a batch.
package normalize

import (
	"log"
	"math"

	"spheremap/internal/domain"
	"spheremap/internal/geometry"
)

// Sphere normalizes a sphere record. It requires an integer id.
func Sphere(r Record) (domain.Sphere, bool) {
	rawID, _ := r.Lookup(FieldID)
	id, ok := ToInt(rawID)
	if !ok {
		log.Printf("normalize: skipping sphere record: invalid id %v", rawID)
		return domain.Sphere{}, false
	}

	s := domain.NewSphere(id, r.String(FieldName))
	s.Description = r.String(FieldDescription)
	if color := r.String(FieldColor); color != "" {
		s.Color = color
	}
	if raw, ok := r.Lookup(FieldOrganizationID); ok {
		if org, ok := ToInt(raw); ok {
			s.OrganizationID = org
		}
	}
	if raw, ok := r.Lookup(FieldGroups); ok {
		s.Groups = ToGroups(raw)
	}

	cx, placedX := number(r, FieldCenterX, 0.5)
	cy, placedY := number(r, FieldCenterY, 0.5)
	radius, placedR := number(r, FieldRadius, domain.DefaultSphereRadius)
	s.SetGeometry(cx, cy, radius)
	s.Placed = domain.Placement{CenterX: placedX, CenterY: placedY, Radius: placedR}

	return *s, true
}

// Node normalizes a node record. It requires an integer id and sphere_id.
func Node(r Record) (domain.Node, bool) {
	rawID, _ := r.Lookup(FieldID)
	id, ok := ToInt(rawID)
	if !ok {
		log.Printf("normalize: skipping node record: invalid id %v", rawID)
		return domain.Node{}, false
	}
	rawSphere, _ := r.Lookup(FieldSphereID)
	sphereID, ok := ToInt(rawSphere)
	if !ok {
		log.Printf("normalize: skipping node %d: invalid sphere_id %v", id, rawSphere)
		return domain.Node{}, false
	}

	n := domain.NewNode(id, sphereID, r.String(FieldLabel))
	if t, ok := domain.ParseNodeType(r.String(FieldNodeType)); ok {
		n.Type = t
	}
	n.Status = nodeStatus(r)
	if raw, ok := r.Lookup(FieldPosition); ok {
		n.Position = ToPosition(raw)
	}
	n.Summary = r.String(FieldSummary)
	if raw, ok := r.Lookup(FieldLinks); ok {
		n.Links = ToStrings(raw)
	}
	if raw, ok := r.Lookup(FieldOwners); ok {
		n.Owners = ToStrings(raw)
	}
	if raw, ok := r.Lookup(FieldMetadata); ok {
		n.Metadata = ToMetadata(raw)
	}

	return *n, true
}

// nodeStatus resolves status from the explicit field and the archived flag.
// A flag that cannot be parsed or contradicts an explicit status is ignored.
func nodeStatus(r Record) domain.NodeStatus {
	explicit, explicitOK := domain.ParseNodeStatus(r.String(FieldStatus))
	_, hasExplicit := r.Lookup(FieldStatus)

	if raw, ok := r.Lookup(FieldArchived); ok {
		if archived, ok := ToBool(raw); ok {
			derived := domain.NodeStatusActive
			if archived {
				derived = domain.NodeStatusArchived
			}
			if !hasExplicit || (explicitOK && explicit == derived) {
				return derived
			}
		}
	}
	if explicitOK {
		return explicit
	}
	return domain.DefaultNodeStatus
}

// Edge normalizes an edge record. It requires an integer id, source and target.
func Edge(r Record) (domain.Edge, bool) {
	rawID, _ := r.Lookup(FieldID)
	id, ok := ToInt(rawID)
	if !ok {
		log.Printf("normalize: skipping edge record: invalid id %v", rawID)
		return domain.Edge{}, false
	}
	rawSource, _ := r.Lookup(FieldSourceNodeID)
	source, ok := ToInt(rawSource)
	if !ok {
		log.Printf("normalize: skipping edge %d: invalid source %v", id, rawSource)
		return domain.Edge{}, false
	}
	rawTarget, _ := r.Lookup(FieldTargetNodeID)
	target, ok := ToInt(rawTarget)
	if !ok {
		log.Printf("normalize: skipping edge %d: invalid target %v", id, rawTarget)
		return domain.Edge{}, false
	}

	e := domain.Edge{
		ID:           id,
		SourceNodeID: source,
		TargetNodeID: target,
		RelationType: domain.DefaultRelationType,
		Metadata:     make(map[string]any),
	}
	if rel, ok := domain.ParseRelationType(r.String(FieldRelationType)); ok {
		e.RelationType = rel
	}
	if raw, ok := r.Lookup(FieldSphereID); ok {
		if sphereID, ok := ToInt(raw); ok {
			e.SphereID = &sphereID
		}
	}
	if raw, ok := r.Lookup(FieldMetadata); ok {
		e.Metadata = ToMetadata(raw)
	}

	return e, true
}

// number reads a finite number for f. The second result reports whether the
// record supplied a usable value.
func number(r Record, f Field, fallback float64) (float64, bool) {
	raw, ok := r.Lookup(f)
	if !ok {
		return fallback, false
	}
	v := geometry.ToNumber(raw, math.NaN())
	if math.IsNaN(v) {
		return fallback, false
	}
	return v, true
}
