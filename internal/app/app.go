package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bistro-pos/internal/cache"
	"github.com/xenking/bistro-pos/internal/domain/invoice"
	"github.com/xenking/bistro-pos/internal/domain/menu"
	"github.com/xenking/bistro-pos/internal/domain/order"
	"github.com/xenking/bistro-pos/internal/domain/revenue"
	"github.com/xenking/bistro-pos/internal/domain/settings"
	"github.com/xenking/bistro-pos/internal/handler"
	"github.com/xenking/bistro-pos/internal/storage/memory"
	"github.com/xenking/bistro-pos/internal/storage/postgres"
	"github.com/xenking/bistro-pos/pkg/health"
	"github.com/xenking/bistro-pos/pkg/httpmiddleware"
)

const serviceName = "bistro-pos"

// repositories is the storage backend the services run on.
type repositories struct {
	menu     menu.Repository
	orders   order.Repository
	invoices invoice.Repository
	revenue  revenue.Repository
	settings settings.Repository
}

// openStorage connects to PostgreSQL, or falls back to the seeded in-memory
// store when no database is configured. The returned func releases the
// backend.
func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config, tp trace.TracerProvider, hs *health.Health) (*repositories, func(), error) {
	if cfg.DatabaseURL == "" {
		lg.Warn("No database configured, using in-memory store; data is lost on exit")
		st := memory.NewSeeded()
		return &repositories{menu: st, orders: st, invoices: st, revenue: st, settings: st}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}
	hs.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))

	orders := postgres.NewOrderRepository(pool, postgres.WithTracerProvider(tp))
	return &repositories{
		menu:     postgres.NewMenuRepository(pool),
		orders:   orders,
		invoices: orders,
		revenue:  orders,
		settings: postgres.NewSettingsRepository(pool),
	}, pool.Close, nil
}

// openCache returns the revenue report cache. An unreachable Redis degrades
// to no caching rather than failing start-up.
func openCache(ctx context.Context, lg *zap.Logger, cfg RedisConfig, hs *health.Health) (revenue.Cache, func()) {
	if cfg.Addr == "" {
		return cache.Noop{}, func() {}
	}
	rc := cache.NewRedis(cache.RedisOptions{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Prefix:   "pos:",
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		lg.Warn("Redis unavailable, revenue reports are not cached",
			zap.String("addr", cfg.Addr),
			zap.Error(err),
		)
		_ = rc.Close()
		return cache.Noop{}, func() {}
	}
	hs.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(rc))
	return rc, func() { _ = rc.Close() }
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	repos, closeStorage, err := openStorage(ctx, lg, cfg, m.TracerProvider(), healthSvc)
	if err != nil {
		return err
	}
	defer closeStorage()

	reportCache, closeCache := openCache(ctx, lg, cfg.Redis, healthSvc)
	defer closeCache()

	metrics, err := newOrderMetrics(m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "order metrics")
	}

	// Domain services.
	rates := settings.NewStore(repos.settings)
	reports := revenue.NewAggregator(repos.revenue, loc, revenue.WithCache(reportCache, cfg.Redis.TTL))
	orders := order.NewManager(repos.orders, repos.menu, rates,
		order.WithObserver(metrics),
		order.WithObserver(reports),
	)

	h := handler.New(handler.Config{Currency: cfg.Currency, Location: loc}, handler.Services{
		Menu:     menu.NewService(repos.menu),
		Items:    repos.menu,
		Orders:   orders,
		Invoices: invoice.NewService(repos.invoices, orders, loc),
		Revenue:  reports,
		Settings: rates,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.Instrument(serviceName, routeFinder, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}
	healthSvc.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}
