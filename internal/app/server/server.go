package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"nomina/internal/domain/activities"
	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/crews"
	"nomina/internal/domain/employees"
	"nomina/internal/domain/periods"
	"nomina/internal/platform/config"
	"nomina/internal/platform/db"
	"nomina/internal/platform/metrics"
	"nomina/internal/platform/querier"
	"nomina/internal/platform/seed"
	"nomina/internal/transport/http/api"
	activitieshandler "nomina/internal/transport/http/handlers/activities"
	audithandler "nomina/internal/transport/http/handlers/audit"
	authhandler "nomina/internal/transport/http/handlers/auth"
	crewshandler "nomina/internal/transport/http/handlers/crews"
	employeeshandler "nomina/internal/transport/http/handlers/employees"
	periodshandler "nomina/internal/transport/http/handlers/periods"
	"nomina/internal/transport/http/middleware"
)

const loginAttemptsPerMinute = 10

// Database is what the router needs from the pool.
type Database interface {
	querier.DB
	Ping(ctx context.Context) error
}

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Log    *zap.Logger
}

// New connects to Postgres, applies migrations and seed data when enabled,
// and builds the router.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		applied, err := db.Migrate(ctx, pool, db.Migrations())
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied", zap.Strings("versions", applied))
	}
	if cfg.RunSeed {
		if err := seed.Run(ctx, pool, cfg, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	return &App{
		Config: cfg,
		DB:     pool,
		Router: NewRouter(cfg, pool, log, collector),
		Log:    log,
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	app, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("nomina server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// NewRouter wires stores, services and handlers over pool. A nil collector
// disables /metrics.
func NewRouter(cfg config.Config, pool Database, log *zap.Logger, collector *metrics.Collector) http.Handler {
	perms := auth.RolePermissions
	recorder := audit.New(pool, log)

	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	employeeSvc := employees.NewService(employees.NewStore(pool))
	activityStore := activities.NewStore(pool)
	activitySvc := activities.NewService(activityStore)
	crewSvc := crews.NewService(crews.NewStore(pool, activityStore))
	periodSvc := periods.NewService(periods.NewStore(pool))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if collector != nil {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.Logger(log))
	router.Use(middleware.Auth(cfg.JWTSecret))

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
	if collector != nil {
		router.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		limitLog := middleware.WithLimitLogger(log)
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, limitLog))
		r.Use(middleware.CatalogWriteLimit(cfg.WriteRateLimit, cfg.ActivationLimit, time.Minute, limitLog))

		authhandler.NewHandler(authSvc, log, middleware.LoginRateLimit(loginAttemptsPerMinute, time.Minute, limitLog)).RegisterRoutes(r)
		employeeshandler.NewHandler(employeeSvc, recorder, perms, log).RegisterRoutes(r)
		activitieshandler.NewHandler(activitySvc, recorder, perms, log).RegisterRoutes(r)
		crewshandler.NewHandler(crewSvc, recorder, perms, log).RegisterRoutes(r)
		periodshandler.NewHandler(periodSvc, recorder, perms, log).RegisterRoutes(r)
		audithandler.NewHandler(recorder, perms, log).RegisterRoutes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "Recurso no encontrado", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "Método no permitido", middleware.GetRequestID(r.Context()))
	})
	return router
}
