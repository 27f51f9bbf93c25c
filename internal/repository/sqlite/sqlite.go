package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spheremap/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.SnapshotRepository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.SnapshotRepository = (*Repository)(nil)

// New opens (creating if needed) the database at dbPath and migrates it
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:") {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS map_snapshots (
		organization_id INTEGER PRIMARY KEY,
		payload BLOB NOT NULL,
		sphere_count INTEGER NOT NULL DEFAULT 0,
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0,
		fetched_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_map_snapshots_fetched ON map_snapshots(fetched_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveSnapshot upserts the organization's snapshot
func (r *Repository) SaveSnapshot(ctx context.Context, snap *repository.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is nil")
	}
	if len(snap.Payload) == 0 {
		return errors.New("snapshot payload is empty")
	}
	fetchedAt := snap.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO map_snapshots (organization_id, payload, sphere_count, node_count, edge_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(organization_id) DO UPDATE SET
			payload = excluded.payload,
			sphere_count = excluded.sphere_count,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			fetched_at = excluded.fetched_at
	`, snap.OrganizationID, snap.Payload, snap.Spheres, snap.Nodes, snap.Edges, formatTime(fetchedAt))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the organization's snapshot or nil if none exists
func (r *Repository) LoadSnapshot(ctx context.Context, organizationID int64) (*repository.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT organization_id, payload, sphere_count, node_count, edge_count, fetched_at
		FROM map_snapshots
		WHERE organization_id = ?
	`, organizationID)

	var (
		snap      repository.Snapshot
		fetchedAt string
	)
	err := row.Scan(&snap.OrganizationID, &snap.Payload, &snap.Spheres, &snap.Nodes, &snap.Edges, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	snap.FetchedAt = parseTime(fetchedAt)
	return &snap, nil
}

// ListSnapshots returns snapshot headers, newest first
func (r *Repository) ListSnapshots(ctx context.Context) ([]repository.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT organization_id, sphere_count, node_count, edge_count, fetched_at
		FROM map_snapshots
		ORDER BY fetched_at DESC, organization_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := make([]repository.Snapshot, 0)
	for rows.Next() {
		var (
			snap      repository.Snapshot
			fetchedAt string
		)
		if err := rows.Scan(&snap.OrganizationID, &snap.Spheres, &snap.Nodes, &snap.Edges, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.FetchedAt = parseTime(fetchedAt)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snaps, nil
}

// DeleteSnapshot removes the organization's snapshot
func (r *Repository) DeleteSnapshot(ctx context.Context, organizationID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM map_snapshots WHERE organization_id = ?`, organizationID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
