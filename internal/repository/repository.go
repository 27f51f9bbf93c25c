package repository

import (
	"context"
	"time"
)

// Snapshot is the last successfully fetched raw map payload of an organization
type Snapshot struct {
	OrganizationID int64     `json:"organization_id"`
	Payload        []byte    `json:"-"`
	Spheres        int       `json:"spheres"`
	Nodes          int       `json:"nodes"`
	Edges          int       `json:"edges"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// SnapshotRepository defines the interface for the last-known-good map cache
type SnapshotRepository interface {
	// SaveSnapshot stores or replaces the organization's snapshot
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	// LoadSnapshot returns nil without error when no snapshot exists
	LoadSnapshot(ctx context.Context, organizationID int64) (*Snapshot, error)
	// ListSnapshots returns snapshot headers without payloads, newest first
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	DeleteSnapshot(ctx context.Context, organizationID int64) error

	// Close releases resources
	Close() error
}
