package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/neo-social/internal/config"
	httpcontroller "github.com/vadim/neo-social/internal/controller/http"
	"github.com/vadim/neo-social/internal/database"
	contentdao "github.com/vadim/neo-social/internal/domain/content/dao"
	contentservice "github.com/vadim/neo-social/internal/domain/content/service"
	"github.com/vadim/neo-social/internal/domain/post/dao"
	"github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/domain/post/policy"
	"github.com/vadim/neo-social/internal/domain/post/publisher"
	"github.com/vadim/neo-social/internal/domain/post/scheduler"
	"github.com/vadim/neo-social/internal/domain/post/service"
	"github.com/vadim/neo-social/internal/httpx/response"
	"github.com/vadim/neo-social/internal/httpx/upstream/facebook"
	"github.com/vadim/neo-social/internal/httpx/upstream/instagram"
	"github.com/vadim/neo-social/internal/httpx/upstream/openai"
	"github.com/vadim/neo-social/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure
	pool    *pgxpool.Pool
	storage *storage.S3Storage

	// Domain entry points (interfaces for HTTP handlers)
	postPolicy     *policy.Policy
	contentService *contentservice.Service

	// Sweeper for due scheduled posts, nil when disabled
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	if err := app.initDomains(ctx); err != nil {
		app.pool.Close()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	if err := app.registerRoutes(); err != nil {
		app.pool.Close()
		return nil, fmt.Errorf("registering routes: %w", err)
	}

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Scheduler.Enabled {
		app.scheduler = scheduler.New(app.postPolicy, cfg.Scheduler.Spec, logger)
	}

	return app, nil
}

// initInfrastructure connects to PostgreSQL, applies migrations and prepares object storage
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, database.PoolConfig{
		DSN:             a.cfg.Database.PostgresDSN,
		MaxConns:        a.cfg.Database.MaxConns,
		MinConns:        a.cfg.Database.MinConns,
		MaxConnLifetime: a.cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	if a.cfg.Database.MigrateOnStart {
		version, err := database.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return fmt.Errorf("migrating database: %w", err)
		}
		a.logger.Info("database migrated", "version", version)
	}

	store, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
		Bucket:          a.cfg.S3.Bucket,
		Region:          a.cfg.S3.Region,
		PublicURL:       a.cfg.S3.PublicURL,
	})
	if err != nil {
		pool.Close()
		return fmt.Errorf("initializing s3 storage: %w", err)
	}
	a.storage = store

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(ctx context.Context) error {
	registry := a.buildPublisherRegistry()
	a.logger.Info("platform publishers registered", "platforms", registry.Platforms())

	postSvc := service.New(dao.NewPostPostgres(a.pool), dao.NewAttemptPostgres(a.pool))
	a.postPolicy = policy.New(postSvc, registry, a.logger,
		policy.WithConcurrency(a.cfg.Publish.Concurrency),
		policy.WithPlatformTimeout(a.cfg.Publish.PlatformTimeout),
		policy.WithUpcomingLimit(a.cfg.Calendar.UpcomingLimit),
	)

	aiClient := openai.New(
		openai.WithBaseURL(a.cfg.OpenAI.BaseURL),
		openai.WithAPIKey(a.cfg.OpenAI.APIKey),
	)
	a.contentService = contentservice.New(
		aiClient,
		a.storage,
		contentdao.NewContentPostgres(a.pool),
		contentservice.Models{Text: a.cfg.OpenAI.TextModel, Image: a.cfg.OpenAI.ImageModel},
		a.logger,
	)

	return nil
}

// buildPublisherRegistry registers an adapter per configured platform.
// Platforms without an adapter are reported as not supported when published to.
func (a *App) buildPublisherRegistry() *publisher.Registry {
	registry := publisher.NewRegistry()

	fbClient := facebook.New(
		facebook.WithBaseURL(a.cfg.Facebook.BaseURL),
		facebook.WithAPIVersion(a.cfg.Facebook.APIVersion),
	)
	registry.Register(entity.PlatformFacebook, facebook.NewPublisher(fbClient, facebook.Config{
		PageID:      a.cfg.Facebook.PageID,
		AccessToken: a.cfg.Facebook.AccessToken,
	}))

	if a.cfg.Instagram.Enabled() {
		igClient := instagram.New(
			instagram.WithBaseURL(a.cfg.Instagram.BaseURL),
			instagram.WithAPIVersion(a.cfg.Instagram.APIVersion),
		)
		registry.Register(entity.PlatformInstagram, instagram.NewPublisher(igClient, instagram.Config{
			UserID:      a.cfg.Instagram.UserID,
			AccessToken: a.cfg.Instagram.AccessToken,
		}))
	}

	return registry
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() error {
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	swaggerHandler, err := httpcontroller.NewSwaggerHandler("Neo-Social Publishing API", OpenAPISpec)
	if err != nil {
		return err
	}
	swaggerHandler.RegisterRoutes(a.router)

	loc, err := a.cfg.Calendar.Location()
	if err != nil {
		return err
	}

	a.router.Route("/api/v1", func(r chi.Router) {
		mountAPI(r, apiDeps{
			posts:    a.postPolicy,
			content:  a.contentService,
			media:    a.storage,
			location: loc,
			logger:   a.logger,
		})
	})

	return nil
}

type apiDeps struct {
	posts    httpcontroller.PostPolicy
	content  httpcontroller.ContentGenerator
	media    httpcontroller.MediaUploader
	location *time.Location
	logger   *slog.Logger
}

// mountAPI registers the account-scoped API handlers
func mountAPI(r chi.Router, d apiDeps) {
	r.Use(httpcontroller.RequireAccount)

	httpcontroller.NewPostHandler(d.posts, d.location, d.logger).RegisterRoutes(r)
	httpcontroller.NewContentHandler(d.content, d.logger).RegisterRoutes(r)
	httpcontroller.NewMediaHandler(d.media, d.logger).RegisterRoutes(r)
}

// healthHandler handles liveness requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// readyHandler reports ready once PostgreSQL answers
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.pool.Ping(ctx); err != nil {
		a.logger.Warn("readiness check failed", "error", err)
		response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	response.OK(w, map[string]string{"status": "ready"})
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Waits for an in-flight sweep, its platform calls are not interrupted.
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.httpServer.Shutdown(shutdownCtx)

	a.pool.Close()

	if err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}
