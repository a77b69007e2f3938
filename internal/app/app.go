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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/simp-lee/ginx"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/config"
	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/job"
	"github.com/simp-lee/shopbase/internal/metrics"
	"github.com/simp-lee/shopbase/internal/middleware"
	"github.com/simp-lee/shopbase/internal/module/category"
	"github.com/simp-lee/shopbase/internal/module/product"
	"github.com/simp-lee/shopbase/internal/module/tag"
	"github.com/simp-lee/shopbase/internal/resource"
	"github.com/simp-lee/shopbase/internal/revalidate"
	"github.com/simp-lee/shopbase/migrations"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine    *gin.Engine
	db        *gorm.DB
	redis     redis.UniversalClient
	scheduler *job.Scheduler
	logger    *logger.Logger
	cfg       *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, timeout time.Duration) httpServer {
	writeTimeout := 60 * time.Second
	if timeout > 0 {
		// Leave room for the response after a handler used its full budget.
		writeTimeout = timeout + 5*time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, database, metrics, the revalidation publisher, the
// catalog modules, schema migration, middleware, routes and the trash
// retention job.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	if !cfg.Auth.Enabled {
		log.Warn("auth disabled: every request runs as admin of the default tenant",
			slog.String("tenant", cfg.Auth.DefaultTenant))
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Setup database.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		closeDB(db)
	}()

	// 3. Metrics on a private registry so several Apps can coexist in tests.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(registry, log.Logger)
	if sqlDB, err := db.DB(); err == nil {
		if err := m.RegisterDB(sqlDB, cfg.Database.Driver); err != nil {
			log.Warn("register db stats collector", slog.Any("error", err))
		}
	}

	// 4. Revalidation publisher.
	var (
		publisher   revalidate.Publisher = revalidate.Noop{}
		redisClient redis.UniversalClient
	)
	if cfg.Redis.Enabled {
		redisClient, err = config.SetupRedis(context.Background(), &cfg.Redis, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("setup redis: %w", err)
		}
		publisher = revalidate.NewRedisPublisher(redisClient, cfg.Redis.Channel)
	}
	defer func() {
		if success || redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", slog.Any("error", err))
		}
	}()

	// 5. Catalog modules: repository -> service -> handler inside each module.
	opts := resource.Options{
		Publisher: publisher,
		Observer:  m,
		Logger:    log.Logger,
	}
	modules := []Module{
		category.NewModule(db, opts),
		tag.NewModule(db, opts),
		product.NewModule(db, opts),
	}

	// 6. Schema.
	if err := migrate(context.Background(), cfg.Database.Migrate, db, modules, log.Logger); err != nil {
		return nil, err
	}

	// 7. Create Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	global := []gin.HandlerFunc{
		middleware.Recovery(log.Logger, m),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
		middleware.CORSWithConfig(resolveCORSConfig(cfg.Server.Mode, &cfg.Server.CORS)),
	}
	if cfg.Metrics.Enabled {
		global = append(global, middleware.Metrics(m))
	}
	engine.Use(global...)

	// 8. Register all routes.
	deps := &RouteDeps{
		Modules:       modules,
		Checks:        []HealthCheck{DatabaseCheck(db)},
		APIMiddleware: apiMiddleware(cfg),
	}
	if redisClient != nil {
		deps.Checks = append(deps.Checks, RedisCheck(redisClient))
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
		deps.MetricsPath = cfg.Metrics.Path
	}
	if err := RegisterRoutes(engine, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	// 9. Trash retention job.
	var scheduler *job.Scheduler
	if cfg.Jobs.TrashPurge.Enabled {
		targets := make([]resource.Purger, 0, len(modules))
		for _, mod := range modules {
			targets = append(targets, mod.Purger())
		}
		purger := job.NewTrashPurger(targets, cfg.Jobs.TrashPurge.RetentionDuration(), m, log.Logger)
		scheduler, err = job.Schedule(cfg.Jobs.TrashPurge.Schedule, purger)
		if err != nil {
			return nil, fmt.Errorf("schedule trash purge: %w", err)
		}
	}

	success = true
	return &App{
		engine:    engine,
		db:        db,
		redis:     redisClient,
		scheduler: scheduler,
		logger:    log,
		cfg:       cfg,
	}, nil
}

// Handler returns the HTTP handler of the app.
func (a *App) Handler() http.Handler {
	return a.engine
}

func migrate(ctx context.Context, strategy string, db *gorm.DB, modules []Module, log *slog.Logger) error {
	switch strategy {
	case config.MigrateNone:
		log.Info("schema migration disabled")
		return nil
	case config.MigrateGoose:
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		if err := config.RunMigrations(ctx, sqlDB, migrations.FS, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	default:
		for _, m := range modules {
			if err := m.AutoMigrate(db); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
		}
		log.Info("auto migration completed", slog.Int("modules", len(modules)))
		return nil
	}
}

// apiMiddleware guards /api/v1. The address limiter runs before Auth so bad
// tokens are throttled too; the principal limiter after it gives every
// tenant/subject its own bucket.
func apiMiddleware(cfg *config.Config) []gin.HandlerFunc {
	auth := middleware.Auth(middleware.AuthConfig{
		Enabled: cfg.Auth.Enabled,
		Secret:  cfg.Auth.JWTSecret,
		Issuer:  cfg.Auth.Issuer,
		DefaultPrincipal: domain.Principal{
			Subject:  "anonymous",
			TenantID: cfg.Auth.DefaultTenant,
			Roles:    []string{domain.RoleAdmin},
		},
	})
	rl := cfg.Server.RateLimit
	if !rl.Enabled {
		return []gin.HandlerFunc{auth}
	}

	idle, _ := time.ParseDuration(rl.IdleTTL)
	byIP := middleware.RateLimitConfig{RequestsPerSecond: rl.IPRPS, Burst: rl.IPBurst, IdleTTL: idle}
	if byIP.RequestsPerSecond == 0 {
		byIP.RequestsPerSecond, byIP.Burst = rl.RPS, rl.Burst
	}
	return []gin.HandlerFunc{
		middleware.RateLimitByIP(byIP),
		auth,
		middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: rl.RPS,
			Burst:             rl.Burst,
			IdleTTL:           idle,
		}),
	}
}

// resolveCORSConfig builds the CORS middleware settings. In release mode,
// when no allowlist is configured, cross-origin requests are denied.
func resolveCORSConfig(mode string, corsCfg *config.CORSConfig) middleware.CORSConfig {
	out := middleware.DefaultCORSConfig()
	if corsCfg == nil {
		if mode == gin.ReleaseMode {
			out.AllowOrigins = []string{}
		}
		return out
	}

	switch {
	case len(corsCfg.AllowOrigins) > 0:
		out.AllowOrigins = corsCfg.AllowOrigins
	case mode == gin.ReleaseMode:
		out.AllowOrigins = []string{}
	}
	if len(corsCfg.AllowMethods) > 0 {
		out.AllowMethods = corsCfg.AllowMethods
	}
	if len(corsCfg.AllowHeaders) > 0 {
		out.AllowHeaders = corsCfg.AllowHeaders
	}
	out.AllowCredentials = corsCfg.AllowCredentials
	if corsCfg.MaxAge != "" {
		if d, err := time.ParseDuration(corsCfg.MaxAge); err == nil && d > 0 {
			out.MaxAge = d
		}
	}
	return out
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// Run starts the HTTP server and the scheduler and blocks until a shutdown
// signal is received. It shuts down gracefully with a 5-second timeout and
// releases the scheduler, redis and database.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	timeout, _ := time.ParseDuration(a.cfg.Server.Timeout)
	srv := newHTTPServer(addr, a.engine, timeout)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.scheduler != nil {
		a.scheduler.Start()
		log.Info("trash purge scheduled", slog.String("schedule", a.cfg.Jobs.TrashPurge.Schedule))
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if runErr == nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	ginx.CleanupRateLimiters()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			log.Error("scheduler stop error", slog.Any("error", err))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error("redis close error", slog.Any("error", err))
		}
	}

	if a.db != nil {
		closeDB(a.db)
		log.Info("database connection closed")
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("database close error", slog.Any("error", err))
	}
}
