package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spheremap/internal/config"
	"spheremap/internal/domain"
	"spheremap/internal/geometry"
	"spheremap/internal/handler"
	"spheremap/internal/hub"
	"spheremap/internal/metrics"
	"spheremap/internal/render"
	"spheremap/internal/repository/sqlite"
	"spheremap/internal/service"
	"spheremap/internal/viewstate"
	"spheremap/internal/watcher"
)

func serveCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		Long: `Serve the dashboard API, the SSE frame stream and Prometheus metrics.

  spheremap serve                    # use the config file
  spheremap serve --addr :9090       # override the listen address
  spheremap serve --org 7 --api https://maps.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Println("Starting spheremap server...")
	reg := metrics.DefaultRegistry()

	sseHub := hub.New(reg.SSEClients)
	store := viewstate.New()
	store.SetLayoutMode(domain.LayoutMode(cfg.Layout.Mode))
	driver := render.NewDriver(store, sseHub)

	opts := []service.Option{
		service.WithMetrics(reg),
		service.WithOrganization(cfg.OrganizationID),
	}
	if cfg.Snapshot.Path != "" {
		repo, err := sqlite.New(cfg.Snapshot.Path)
		if err != nil {
			return fmt.Errorf("open snapshot cache: %w", err)
		}
		defer repo.Close()
		log.Printf("Snapshot cache opened: %s", cfg.Snapshot.Path)
		opts = append(opts, service.WithSnapshots(repo))
	}

	dashboard := service.NewDashboard(newClient(cfg), store, driver, opts...)
	dashboard.Render(geometry.Size{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height})

	// Dashboard events go out on the same stream as frames
	events := make(chan service.Event, 100)
	dashboard.Events().Subscribe(events)

	mux := http.NewServeMux()
	handler.NewDashboardHandler(dashboard).Register(mux)
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", reg.Handler())

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.Chain(mux,
			handler.Recover,
			handler.CORS,
			handler.Logger,
			handler.Metrics(reg),
		),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sseHub.Run(ctx) })

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-events:
				sseHub.Publish(string(ev.Type), ev.Payload)
			}
		}
	})

	g.Go(func() error {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		dashboard.WaitPending()
		return nil
	})

	if cfg.OrganizationID > 0 {
		g.Go(func() error {
			if ok, err := dashboard.Restore(ctx); err != nil {
				log.Printf("Failed to restore snapshot: %v", err)
			} else if ok {
				log.Printf("Restored cached map for organization %d", cfg.OrganizationID)
			}
			if err := dashboard.LoadOrganization(ctx, cfg.OrganizationID); err != nil {
				// the status slot carries the error; keep serving the cached map
				log.Printf("Initial load failed: %v", err)
			}
			if interval := cfg.Refresh.Interval.Duration(); interval > 0 {
				return dashboard.Poll(ctx, interval)
			}
			return nil
		})
	} else {
		log.Println("No organization configured; waiting for PUT /api/organization")
	}

	if cfg.Import.WatchFile != "" {
		g.Go(func() error {
			err := watcher.NewImportWatcher(cfg.Import.WatchFile, dashboard).Watch(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	err := g.Wait()
	log.Println("Server stopped")
	return err
}
