package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"spheremap/internal/client"
	"spheremap/internal/domain"
	"spheremap/internal/geometry"
	"spheremap/internal/layout"
	"spheremap/internal/metrics"
	"spheremap/internal/normalize"
	"spheremap/internal/render"
	"spheremap/internal/repository"
	"spheremap/internal/viewstate"
)

// API is the remote map API the dashboard talks to. *client.Client implements it.
type API interface {
	FetchMap(ctx context.Context, q client.MapQuery) ([]byte, error)
	Members(ctx context.Context, organizationID int64) ([]client.Member, error)
	Groups(ctx context.Context, organizationID int64) ([]client.Group, error)

	CreateNode(ctx context.Context, in client.NodeCreate) (domain.Node, error)
	UpdateNode(ctx context.Context, nodeID int64, patch client.NodePatch) (domain.Node, error)
	DeleteNode(ctx context.Context, nodeID int64) error

	CreateEdge(ctx context.Context, in client.EdgeCreate) (domain.Edge, error)
	UpdateEdge(ctx context.Context, edgeID int64, patch client.EdgePatch) (domain.Edge, error)
	DeleteEdge(ctx context.Context, edgeID int64) error

	CreateSphere(ctx context.Context, in client.SphereCreate) (domain.Sphere, error)
	UpdateSphere(ctx context.Context, sphereID int64, patch client.SpherePatch) (domain.Sphere, error)
	DeleteSphere(ctx context.Context, sphereID int64) error
	SaveSphereLayout(ctx context.Context, organizationID int64, entries []layout.Entry) error

	ExportGraph(ctx context.Context, organizationID int64) ([]byte, error)
	ImportGraph(ctx context.Context, organizationID int64, raw *normalize.RawPayload) ([]byte, error)
}

var _ API = (*client.Client)(nil)

// ErrNoOrganization is returned by operations that need a selected organization
var ErrNoOrganization = fmt.Errorf("%w: no organization selected", ErrValidation)

// persistTimeout bounds the background position write after a drag
const persistTimeout = 15 * time.Second

// Dashboard coordinates the view-state store, the render driver and the remote API
type Dashboard struct {
	api       API
	store     *viewstate.Store
	driver    *render.Driver
	snapshots repository.SnapshotRepository
	metrics   *metrics.Registry
	events    *EventBus

	mu             sync.RWMutex
	organizationID int64
	members        []client.Member
	groups         []client.Group
	status         Status

	pending sync.WaitGroup
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithSnapshots caches every unfiltered fetch in repo
func WithSnapshots(repo repository.SnapshotRepository) Option {
	return func(d *Dashboard) {
		d.snapshots = repo
	}
}

// WithMetrics records into reg instead of the default registry
func WithMetrics(reg *metrics.Registry) Option {
	return func(d *Dashboard) {
		d.metrics = reg
	}
}

// WithEventBus publishes dashboard events on bus
func WithEventBus(bus *EventBus) Option {
	return func(d *Dashboard) {
		d.events = bus
	}
}

// WithOrganization preselects the organization to fetch
func WithOrganization(id int64) Option {
	return func(d *Dashboard) {
		d.organizationID = id
	}
}

// NewDashboard creates a dashboard around an existing store and driver
func NewDashboard(api API, store *viewstate.Store, driver *render.Driver, opts ...Option) *Dashboard {
	d := &Dashboard{
		api:    api,
		store:  store,
		driver: driver,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = metrics.DefaultRegistry()
	}
	if d.events == nil {
		d.events = NewEventBus()
	}
	return d
}

// Store returns the view-state store
func (d *Dashboard) Store() *viewstate.Store {
	return d.store
}

// Events returns the event bus
func (d *Dashboard) Events() *EventBus {
	return d.events
}

// OrganizationID returns the selected organization
func (d *Dashboard) OrganizationID() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.organizationID
}

// Members returns the members loaded with the organization
func (d *Dashboard) Members() []client.Member {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]client.Member(nil), d.members...)
}

// Groups returns the groups loaded with the organization
func (d *Dashboard) Groups() []client.Group {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]client.Group(nil), d.groups...)
}

// Frame returns the current frame at the last rendered canvas size
func (d *Dashboard) Frame() domain.Frame {
	return d.driver.Frame(d.driver.Size())
}

// Render re-renders at a new canvas size
func (d *Dashboard) Render(size geometry.Size) domain.Frame {
	return d.driver.Render(size)
}

// Refresh fetches the map with the current filters and replaces the model.
// On failure the model is left untouched and the error slot is set.
func (d *Dashboard) Refresh(ctx context.Context) error {
	orgID := d.OrganizationID()
	if orgID == 0 {
		return d.fail(ErrNoOrganization)
	}
	filters := d.store.Filters()

	data, err := d.fetch(ctx, mapQuery(orgID, filters))
	if err != nil {
		return d.fail(fmt.Errorf("load map: %w", err))
	}
	if err := d.apply(ctx, orgID, data, filters.IsZero()); err != nil {
		return d.fail(err)
	}
	return nil
}

// LoadOrganization switches to another organization. The map, members and
// groups are fetched in parallel; filters are reset once all three succeed.
func (d *Dashboard) LoadOrganization(ctx context.Context, orgID int64) error {
	if orgID <= 0 {
		return d.fail(fmt.Errorf("%w: organization id must be positive", ErrValidation))
	}

	var (
		data    []byte
		members []client.Member
		groups  []client.Group
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = d.fetch(gctx, client.MapQuery{OrganizationID: orgID})
		if err != nil {
			return fmt.Errorf("load map: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		members, err = d.api.Members(gctx, orgID)
		if err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		groups, err = d.api.Groups(gctx, orgID)
		if err != nil {
			return fmt.Errorf("load groups: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return d.fail(err)
	}

	d.mu.Lock()
	d.organizationID = orgID
	d.members = members
	d.groups = groups
	d.mu.Unlock()
	d.store.SetFilters(viewstate.Filters{})

	if err := d.apply(ctx, orgID, data, true); err != nil {
		return d.fail(err)
	}

	d.events.Publish(Event{
		Type:    EventOrganizationLoaded,
		Payload: map[string]int64{"organization_id": orgID},
	})
	d.notify("Loaded organization %d", orgID)
	return nil
}

// Restore replaces the model with the cached snapshot of the selected
// organization. It reports false when no snapshot exists.
func (d *Dashboard) Restore(ctx context.Context) (bool, error) {
	orgID := d.OrganizationID()
	if d.snapshots == nil || orgID == 0 {
		return false, nil
	}
	snap, err := d.snapshots.LoadSnapshot(ctx, orgID)
	d.metrics.RecordSnapshot("load", err)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return false, nil
	}
	m, report, err := normalize.JSON(snap.Payload)
	if err != nil {
		return false, fmt.Errorf("decode snapshot: %w", err)
	}
	m.OrganizationID = orgID
	d.replace(m, report)

	log.Printf("Restored map for organization %d from snapshot taken %s", orgID, snap.FetchedAt.Format(time.RFC3339))
	d.notify("Showing cached map from %s", snap.FetchedAt.Format(time.RFC3339))
	return true, nil
}

// Poll refreshes the map every interval until ctx is done. Failures are
// logged and left in the status slot; polling continues.
func (d *Dashboard) Poll(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Periodic refresh failed: %v", err)
			}
		}
	}
}

func (d *Dashboard) fetch(ctx context.Context, q client.MapQuery) ([]byte, error) {
	start := time.Now()
	data, err := d.api.FetchMap(ctx, q)
	d.metrics.RecordFetch(err, time.Since(start))
	return data, err
}

// apply normalizes a fetched payload, replaces the model and renders
func (d *Dashboard) apply(ctx context.Context, orgID int64, data []byte, cache bool) error {
	m, report, err := normalize.JSON(data)
	if err != nil {
		return fmt.Errorf("decode map: %w", err)
	}
	m.OrganizationID = orgID
	d.replace(m, report)

	spheres, nodes, edges := m.Counts()
	log.Printf("Refreshed map for organization %d: %d spheres, %d nodes, %d edges", orgID, spheres, nodes, edges)

	if cache && d.snapshots != nil {
		err := d.snapshots.SaveSnapshot(ctx, &repository.Snapshot{
			OrganizationID: orgID,
			Payload:        data,
			Spheres:        spheres,
			Nodes:          nodes,
			Edges:          edges,
			FetchedAt:      time.Now(),
		})
		d.metrics.RecordSnapshot("save", err)
		if err != nil {
			// the fetch itself succeeded
			log.Printf("Failed to cache map snapshot: %v", err)
		}
	}
	return nil
}

func (d *Dashboard) replace(m *domain.Map, report normalize.Report) {
	d.metrics.RecordNormalization(report.SkippedSpheres, report.SkippedNodes, report.SkippedEdges, report.Duplicates)
	if report.Skipped() > 0 {
		log.Printf("Skipped %d malformed records while normalizing map", report.Skipped())
	}

	d.store.Replace(m)
	spheres, nodes, edges := m.Counts()
	d.metrics.SetModelSize(spheres, nodes, edges)
	d.rerender()

	d.events.Publish(Event{
		Type:    EventModelReplaced,
		Payload: map[string]int{"spheres": spheres, "nodes": nodes, "edges": edges},
	})
}

func (d *Dashboard) rerender() domain.Frame {
	frame := d.driver.Rerender()
	d.metrics.RecordRender(len(frame.Nodes), len(frame.Edges))
	return frame
}

func mapQuery(orgID int64, f viewstate.Filters) client.MapQuery {
	return client.MapQuery{
		OrganizationID: orgID,
		SphereID:       f.SphereID,
		NodeType:       string(f.Type),
		Status:         string(f.Status),
		Search:         f.Search,
	}
}
