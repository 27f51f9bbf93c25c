package domain

import "strings"

// NodeType represents the kind of entity a node stands for
type NodeType string

const (
	NodeTypeAPI     NodeType = "api"
	NodeTypeEvent   NodeType = "event"
	NodeTypeService NodeType = "service"
	NodeTypeStore   NodeType = "store"
	NodeTypeTask    NodeType = "task"
	NodeTypeUI      NodeType = "ui"
)

// DefaultNodeType is assigned when a record carries no recognised type
const DefaultNodeType = NodeTypeService

// NodeTypes returns every recognised node type in display order
func NodeTypes() []NodeType {
	return []NodeType{NodeTypeAPI, NodeTypeEvent, NodeTypeService, NodeTypeStore, NodeTypeTask, NodeTypeUI}
}

// ParseNodeType lower-cases s and checks it against the enumeration
func ParseNodeType(s string) (NodeType, bool) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range NodeTypes() {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// NodeStatus represents the lifecycle state of a node
type NodeStatus string

const (
	NodeStatusActive   NodeStatus = "active"
	NodeStatusArchived NodeStatus = "archived"
)

// DefaultNodeStatus is assigned when a record carries no recognised status
const DefaultNodeStatus = NodeStatusActive

// NodeStatuses returns every recognised status
func NodeStatuses() []NodeStatus {
	return []NodeStatus{NodeStatusActive, NodeStatusArchived}
}

// ParseNodeStatus lower-cases s and checks it against the enumeration
func ParseNodeStatus(s string) (NodeStatus, bool) {
	st := NodeStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range NodeStatuses() {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Node is a typed entity owned by exactly one sphere.
// Position is canvas-relative, not sphere-local.
type Node struct {
	ID       int64          `json:"id" yaml:"id"`
	SphereID int64          `json:"sphere_id" yaml:"sphere_id"`
	Label    string         `json:"label" yaml:"label"`
	Type     NodeType       `json:"node_type" yaml:"node_type"`
	Status   NodeStatus     `json:"status" yaml:"status"`
	Position Position       `json:"position" yaml:"position"`
	Summary  string         `json:"summary" yaml:"summary"`
	Links    []string       `json:"links" yaml:"links"`
	Owners   []string       `json:"owners" yaml:"owners"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// DefaultNodeLabel is the label given to nodes whose record has none
func DefaultNodeLabel(id int64) string {
	return "Node " + itoa(id)
}

// NewNode creates a node with defaults applied
func NewNode(id, sphereID int64, label string) *Node {
	if strings.TrimSpace(label) == "" {
		label = DefaultNodeLabel(id)
	}
	return &Node{
		ID:       id,
		SphereID: sphereID,
		Label:    label,
		Type:     DefaultNodeType,
		Status:   DefaultNodeStatus,
		Position: CenterPosition(),
		Links:    []string{},
		Owners:   []string{},
		Metadata: make(map[string]any),
	}
}

// IsArchived reports whether the node has been archived
func (n *Node) IsArchived() bool {
	return n.Status == NodeStatusArchived
}

// SetMetadata sets a metadata value
func (n *Node) SetMetadata(key string, value any) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[key] = value
}

// GetMetadata gets a metadata value
func (n *Node) GetMetadata(key string) (any, bool) {
	if n.Metadata == nil {
		return nil, false
	}
	val, ok := n.Metadata[key]
	return val, ok
}

// Clone returns a deep copy of the slices and metadata map
func (n Node) Clone() Node {
	out := n
	out.Links = append([]string(nil), n.Links...)
	out.Owners = append([]string(nil), n.Owners...)
	out.Metadata = cloneMetadata(n.Metadata)
	return out
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
