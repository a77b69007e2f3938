package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultMaxIdleConns    = 10
	defaultMaxOpenConns    = 100
	defaultConnMaxLifetime = time.Hour
	defaultSlowQuery       = 200 * time.Millisecond
	sqliteBusyTimeoutMS    = 5000
)

// SetupDatabase opens the catalog database, applies the pool settings and
// verifies the connection with a ping. Timestamps written through the
// returned handle are UTC. Statements go to logger: every statement at
// debug level, slow ones and errors otherwise.
func SetupDatabase(cfg *DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("database config is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dsn, err := sqliteDSN(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(buildPostgresDSN(&cfg.Postgres))
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	slow, err := durationOr(cfg.SlowQuery, defaultSlowQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid database.slow_query %q: %w", cfg.SlowQuery, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(logger, slow),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		sqlDB.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	stats := sqlDB.Stats()
	logger.Info("database connected",
		slog.String("driver", cfg.Driver),
		slog.Int("max_open_conns", stats.MaxOpenConnections),
		slog.Duration("slow_query", slow),
	)
	return db, nil
}

// sqliteDSN creates the parent directory of a file database and adds the
// settings the catalog relies on: foreign keys, a busy timeout, and
// transactions that take the write lock at BEGIN so concurrent writers queue
// on the timeout instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", errors.New("sqlite path is empty")
	}
	if !isSQLiteMemory(path) {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create sqlite directory %q: %w", dir, err)
			}
		}
	}
	if strings.Contains(path, "_pragma=") {
		return path, nil
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(" + strconv.Itoa(sqliteBusyTimeoutMS) + ")&_txlock=immediate", nil
}

func isSQLiteMemory(path string) bool {
	return strings.HasPrefix(path, ":memory:") || strings.Contains(path, "mode=memory")
}

// configurePool sets connection pool parameters on the underlying sql.DB.
// An in-memory sqlite database exists per connection, so it gets exactly one.
func configurePool(db *gorm.DB, cfg *DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	lifetime, err := durationOr(cfg.Pool.ConnMaxLifetime, defaultConnMaxLifetime)
	if err != nil {
		return fmt.Errorf("invalid pool.conn_max_lifetime %q: %w", cfg.Pool.ConnMaxLifetime, err)
	}

	maxOpen := intOr(cfg.Pool.MaxOpenConns, defaultMaxOpenConns)
	maxIdle := intOr(cfg.Pool.MaxIdleConns, defaultMaxIdleConns)
	if cfg.Driver == "sqlite" && isSQLiteMemory(cfg.SQLite.Path) {
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

func intOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// durationOr parses v, using fallback when v is blank. Non-positive values
// are rejected.
func durationOr(v string, fallback time.Duration) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be greater than 0")
	}
	return d, nil
}

func buildPostgresDSN(cfg *PostgresConfig) string {
	if cfg == nil {
		return ""
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   cfg.DBName,
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	query := url.Values{}
	if cfg.SSLMode != "" {
		query.Set("sslmode", cfg.SSLMode)
	}
	query.Set("application_name", "shopbase")
	query.Set("timezone", "UTC")
	u.RawQuery = query.Encode()

	return u.String()
}

// gormWriter forwards gorm's formatted log lines to slog.
type gormWriter struct {
	log *slog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "gorm"))
}

func newGormLogger(log *slog.Logger, slow time.Duration) gormlogger.Interface {
	level := gormlogger.Warn
	if log.Enabled(context.Background(), slog.LevelDebug) {
		level = gormlogger.Info
	}
	return gormlogger.New(gormWriter{log: log}, gormlogger.Config{
		SlowThreshold: slow,
		LogLevel:      level,
		// Lookups that miss are reported to callers as not found.
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
