package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/auth"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/notifications"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/payroll"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/timeclock"
	"github.com/Smoothestguy/commndx-sub004/internal/platform/config"
	"github.com/Smoothestguy/commndx-sub004/internal/platform/db"
	"github.com/Smoothestguy/commndx-sub004/internal/platform/metrics"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/api"
	authhandler "github.com/Smoothestguy/commndx-sub004/internal/transport/http/handlers/auth"
	notificationshandler "github.com/Smoothestguy/commndx-sub004/internal/transport/http/handlers/notifications"
	payrollhandler "github.com/Smoothestguy/commndx-sub004/internal/transport/http/handlers/payroll"
	reportshandler "github.com/Smoothestguy/commndx-sub004/internal/transport/http/handlers/reports"
	timeclockhandler "github.com/Smoothestguy/commndx-sub004/internal/transport/http/handlers/timeclock"
	"github.com/Smoothestguy/commndx-sub004/internal/transport/http/middleware"
)

// Run wires the full application and blocks serving HTTP.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	collector := metrics.New()

	notifyService := notifications.New(notifications.NewStore(pool))

	payrollService := payroll.NewService(payroll.NewStore(pool))

	clockStore := timeclock.NewStore(pool)
	acquirer := geo.NewIPFallbackAcquirer(cfg.IPLookupURL, cfg.GeoAcquireTimeout)
	clockService := timeclock.NewService(clockStore, acquirer, notifyService, cfg.GraceMinutes)

	monitor := timeclock.NewMonitor(clockStore, timeclock.StoreSampler{Store: clockStore}, notifyService, cfg.MonitorInterval)
	monitor.OnDrift = collector.RecordDriftEvent
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go monitor.Run(monitorCtx)

	idempotency := middleware.NewIdempotencyStore(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Metrics(collector.Record))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(auth.NewStore(pool), cfg.JWTSecret).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermTimeclockUse))
			timeclockhandler.NewHandler(clockService, collector, idempotency).RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermHoursRead))
			payrollhandler.NewHandler(payrollService).RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermReportsRead))
			reportshandler.NewHandler(payrollService).RegisterRoutes(r)
		})

		notificationshandler.NewHandler(notifyService).RegisterRoutes(r)
	})

	slog.Info("time and attendance server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
