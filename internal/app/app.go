// Package app assembles the offer service from its configuration: storage,
// market data, prep generation, HTTP/gRPC/MCP surfaces and the rescore cron.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/config"
	"jobmate/offer-service/internal/db"
	"jobmate/offer-service/internal/grpcserver"
	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/metrics"
	"jobmate/offer-service/internal/observability"
	"jobmate/offer-service/internal/offer"
	"jobmate/offer-service/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

// backends are the connections behind the offer store.
type backends struct {
	store  offer.Store
	cache  market.Cache
	events offer.Publisher
	pool   *pgxpool.Pool
	rdb    *redis.Client
}

func (b *backends) close() {
	if b.rdb != nil {
		b.rdb.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func openBackends(ctx context.Context, cfg *config.Config, log *logging.Logger) (*backends, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, offers are lost on restart")
		return &backends{
			store:  offer.NewMemoryStore(),
			cache:  market.NewMemoryCache(),
			events: offer.NopPublisher{},
		}, nil
	}

	log.Info("connecting to PostgreSQL")
	pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL, db.PoolOptions{})
	if err != nil {
		return nil, err
	}
	store := offer.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	log.Info("connecting to Redis")
	rdb, err := db.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &backends{
		store:  store,
		cache:  market.NewRedisCache(rdb, "offer:market:"),
		events: offer.NewRedisPublisher(rdb),
		pool:   pool,
		rdb:    rdb,
	}, nil
}

// Serve runs the service until ctx is cancelled, then shuts every listener
// down gracefully. loader may be nil; when set, config file edits to the
// location table are applied without a restart.
func Serve(ctx context.Context, cfg *config.Config, loader *config.Loader, version string, log *logging.Logger) error {
	shutdownTracing, err := observability.Setup(observability.Options{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", "err", err)
		}
	}()

	m := metrics.New()

	be, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer be.close()

	locations := compensation.NewReloadableLocations(cfg.LocationProfiles())
	if loader != nil {
		loader.Watch(log, func(c *config.Config) {
			locations.Replace(c.LocationProfiles())
		})
	}

	gen, err := PrepGenerator(ctx, cfg, log, m)
	if err != nil {
		return err
	}

	svc := offer.NewService(be.store, offer.Options{
		Market:    MarketProvider(cfg, be.cache, log, m),
		Locations: locations,
		Prep:      gen,
		Events:    be.events,
		Log:       log,
		Metrics:   m,
	})

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler, releaseRoutes := Routes(svc, cfg, version, log, m)
	defer releaseRoutes()
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	// ── gRPC server ──────────────────────────────────────────────────────────
	gs := grpcserver.New(svc, log)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	// ── Rescore cron ─────────────────────────────────────────────────────────
	// Started before the servers so a bad schedule leaves nothing running.
	var sched *scheduler.Scheduler
	if cfg.Rescore.Enabled {
		sched = scheduler.New(svc, cfg.Rescore.Schedule, log)
		if err := sched.Start(ctx); err != nil {
			lis.Close()
			return err
		}
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("http listening", "version", version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("grpc listening", "port", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil && !errors.Is(err, net.ErrClosed) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		log.Error("server failed, shutting down", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownTimeout)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", "err", err)
	}
	stopped := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		gs.Stop()
	}
	log.Info("stopped")
	return runErr
}
