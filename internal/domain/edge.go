package domain

import (
	"errors"
	"strings"
)

// RelationType represents the kind of dependency an edge expresses
type RelationType string

const (
	RelationUses     RelationType = "uses"
	RelationProduces RelationType = "produces"
	RelationConsumes RelationType = "consumes"
	RelationDepends  RelationType = "depends"
)

// DefaultRelationType is assigned when a record carries no recognised relation
const DefaultRelationType = RelationDepends

// RelationTypes returns every recognised relation type
func RelationTypes() []RelationType {
	return []RelationType{RelationUses, RelationProduces, RelationConsumes, RelationDepends}
}

// ParseRelationType lower-cases s and checks it against the enumeration
func ParseRelationType(s string) (RelationType, bool) {
	r := RelationType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RelationTypes() {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// ErrSelfLoop is returned when an edge would connect a node to itself
var ErrSelfLoop = errors.New("edge source and target must differ")

// Edge is a typed relation between two nodes. SphereID is optional.
type Edge struct {
	ID           int64          `json:"id" yaml:"id"`
	SphereID     *int64         `json:"sphere_id,omitempty" yaml:"sphere_id,omitempty"`
	SourceNodeID int64          `json:"source_node_id" yaml:"source_node_id"`
	TargetNodeID int64          `json:"target_node_id" yaml:"target_node_id"`
	RelationType RelationType   `json:"relation_type" yaml:"relation_type"`
	Metadata     map[string]any `json:"metadata" yaml:"metadata"`
}

// NewEdge creates an edge, refusing self-loops
func NewEdge(id, sourceID, targetID int64, relation RelationType) (*Edge, error) {
	if sourceID == targetID {
		return nil, ErrSelfLoop
	}
	if _, ok := ParseRelationType(string(relation)); !ok {
		relation = DefaultRelationType
	}
	return &Edge{
		ID:           id,
		SourceNodeID: sourceID,
		TargetNodeID: targetID,
		RelationType: relation,
		Metadata:     make(map[string]any),
	}, nil
}

// WithSphere scopes the edge to a sphere
func (e *Edge) WithSphere(sphereID int64) *Edge {
	e.SphereID = &sphereID
	return e
}

// Connects reports whether the edge touches the given node
func (e *Edge) Connects(nodeID int64) bool {
	return e.SourceNodeID == nodeID || e.TargetNodeID == nodeID
}

// Clone returns a copy that shares no mutable state
func (e Edge) Clone() Edge {
	out := e
	if e.SphereID != nil {
		id := *e.SphereID
		out.SphereID = &id
	}
	out.Metadata = cloneMetadata(e.Metadata)
	return out
}
