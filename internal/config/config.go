package config

import (
	"fmt"
	"net"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Redis    RedisConfig    `koanf:"redis"`
	Jobs     JobsConfig     `koanf:"jobs"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string          `koanf:"host"`
	Port      int             `koanf:"port"`
	Mode      string          `koanf:"mode"`
	Timeout   string          `koanf:"timeout"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `koanf:"enabled"`
	// RPS and Burst apply per authenticated principal.
	RPS   int `koanf:"rps"`
	Burst int `koanf:"burst"`
	// IPRPS and IPBurst apply per client address before authentication.
	// Zero reuses RPS and Burst.
	IPRPS   int    `koanf:"ip_rps"`
	IPBurst int    `koanf:"ip_burst"`
	IdleTTL string `koanf:"idle_ttl"`
}

// Migration strategies for database.migrate.
const (
	MigrateAuto  = "auto"
	MigrateGoose = "goose"
	MigrateNone  = "none"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	Migrate  string         `koanf:"migrate"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`

	// SlowQuery is the threshold above which statements are logged at warn.
	SlowQuery string `koanf:"slow_query"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// AuthConfig holds bearer token settings. When disabled every request runs
// as an admin of DefaultTenant.
type AuthConfig struct {
	Enabled       bool   `koanf:"enabled"`
	JWTSecret     string `koanf:"jwt_secret"`
	Issuer        string `koanf:"issuer"`
	DefaultTenant string `koanf:"default_tenant"`
}

// RedisConfig holds the connection used for cache tag invalidation.
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Channel  string `koanf:"channel"`
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	TrashPurge TrashPurgeConfig `koanf:"trash_purge"`
}

// TrashPurgeConfig controls the scheduled removal of old trashed rows.
type TrashPurgeConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Schedule  string `koanf:"schedule"`
	Retention string `koanf:"retention"`
}

// RetentionDuration returns the parsed retention. Call only after Validate.
func (c TrashPurgeConfig) RetentionDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retention)
	return d
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// EnvPrefix marks environment variables that override the YAML file.
const EnvPrefix = "SHOPBASE__"

// Load reads the YAML file at configPath, overlays SHOPBASE__ environment
// variables and validates the result. A double underscore separates levels
// and a single one stays part of the key, so
// SHOPBASE__DATABASE__POOL__MAX_IDLE_CONNS sets database.pool.max_idle_conns.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func envKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "__", ".")
}

// Validate checks cross-field constraints and supported values.
func (c *Config) Validate() error {
	// Validate server.mode.
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	// Validate server.port range.
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	// Validate server.host.
	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Validate database.driver.
	switch c.Database.Driver {
	case "sqlite", "postgres":
		// ok
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	if c.Database.Driver == "sqlite" {
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	}

	// When driver is postgres, required connection fields must be valid.
	if c.Database.Driver == "postgres" {
		host := strings.TrimSpace(c.Database.Postgres.Host)
		if host == "" {
			return fmt.Errorf("database.postgres.host is required when driver is postgres")
		}
		if c.Database.Postgres.Port < 1 || c.Database.Postgres.Port > 65535 {
			return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", c.Database.Postgres.Port)
		}
		user := strings.TrimSpace(c.Database.Postgres.User)
		if user == "" {
			return fmt.Errorf("database.postgres.user is required when driver is postgres")
		}
		dbName := strings.TrimSpace(c.Database.Postgres.DBName)
		if dbName == "" {
			return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
		}
		sslMode := strings.TrimSpace(c.Database.Postgres.SSLMode)

		switch sslMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
			// ok
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", c.Database.Postgres.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
		}
		if c.Server.Mode == gin.ReleaseMode {
			switch sslMode {
			case "require", "verify-ca", "verify-full":
				// ok
			default:
				return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", c.Database.Postgres.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
			}
		}

		c.Database.Postgres.Host = host
		c.Database.Postgres.User = user
		c.Database.Postgres.DBName = dbName
		c.Database.Postgres.SSLMode = sslMode
	}

	// Validate database.migrate (empty means auto).
	migrate := strings.ToLower(strings.TrimSpace(c.Database.Migrate))
	switch migrate {
	case "":
		migrate = MigrateAuto
	case MigrateAuto, MigrateNone:
	case MigrateGoose:
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.migrate %q requires driver %q", MigrateGoose, "postgres")
		}
	default:
		return fmt.Errorf("invalid database.migrate %q: must be one of %q, %q, %q", c.Database.Migrate, MigrateAuto, MigrateGoose, MigrateNone)
	}
	c.Database.Migrate = migrate

	// Normalize optional duration fields: whitespace-only means unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)
	c.Server.RateLimit.IdleTTL = strings.TrimSpace(c.Server.RateLimit.IdleTTL)
	c.Database.Pool.ConnMaxLifetime = strings.TrimSpace(c.Database.Pool.ConnMaxLifetime)
	c.Database.SlowQuery = strings.TrimSpace(c.Database.SlowQuery)

	optionalDurations := []struct {
		name  string
		value string
	}{
		{"server.timeout", c.Server.Timeout},
		{"server.cors.max_age", c.Server.CORS.MaxAge},
		{"server.rate_limit.idle_ttl", c.Server.RateLimit.IdleTTL},
		{"database.pool.conn_max_lifetime", c.Database.Pool.ConnMaxLifetime},
		{"database.slow_query", c.Database.SlowQuery},
	}
	for _, f := range optionalDurations {
		if f.value == "" {
			continue
		}
		if err := positiveDuration(f.name, f.value); err != nil {
			return err
		}
	}

	// Validate server.rate_limit (when enabled, rps and burst must be positive).
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %d: must be positive when rate limiting is enabled", c.Server.RateLimit.RPS)
		}
		if c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", c.Server.RateLimit.Burst)
		}
		if c.Server.RateLimit.IPRPS < 0 || c.Server.RateLimit.IPBurst < 0 {
			return fmt.Errorf("invalid server.rate_limit.ip_rps/ip_burst %d/%d: must not be negative", c.Server.RateLimit.IPRPS, c.Server.RateLimit.IPBurst)
		}
	}

	// Validate auth. The default tenant is needed either way: it scopes
	// requests when auth is off and seeds the CLI otherwise.
	c.Auth.DefaultTenant = strings.TrimSpace(c.Auth.DefaultTenant)
	if c.Auth.DefaultTenant == "" {
		c.Auth.DefaultTenant = "default"
	}
	c.Auth.Issuer = strings.TrimSpace(c.Auth.Issuer)
	if c.Auth.Enabled {
		jwtSecret := strings.TrimSpace(c.Auth.JWTSecret)
		if jwtSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
		}
		if len(jwtSecret) < 32 {
			return fmt.Errorf("invalid auth.jwt_secret: must be at least 32 characters")
		}
		if c.Server.Mode == gin.ReleaseMode && CountSecretClasses(jwtSecret) < 3 {
			return fmt.Errorf("auth.jwt_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
		}
		c.Auth.JWTSecret = jwtSecret
	}

	// Validate redis (when enabled).
	if c.Redis.Enabled {
		addr := strings.TrimSpace(c.Redis.Addr)
		if addr == "" {
			return fmt.Errorf("redis.addr is required when redis is enabled")
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid redis.addr %q: %w", c.Redis.Addr, err)
		}
		if c.Redis.DB < 0 || c.Redis.DB > 15 {
			return fmt.Errorf("invalid redis.db %d: must be between 0 and 15", c.Redis.DB)
		}
		c.Redis.Addr = addr
	}
	c.Redis.Channel = strings.TrimSpace(c.Redis.Channel)
	if c.Redis.Channel == "" {
		c.Redis.Channel = "revalidate"
	}

	// Validate jobs.trash_purge (when enabled).
	if tp := &c.Jobs.TrashPurge; tp.Enabled {
		tp.Schedule = strings.TrimSpace(tp.Schedule)
		if tp.Schedule == "" {
			return fmt.Errorf("jobs.trash_purge.schedule is required when the job is enabled")
		}
		if _, err := cron.ParseStandard(tp.Schedule); err != nil {
			return fmt.Errorf("invalid jobs.trash_purge.schedule %q: %w", tp.Schedule, err)
		}
		tp.Retention = strings.TrimSpace(tp.Retention)
		if tp.Retention == "" {
			return fmt.Errorf("jobs.trash_purge.retention is required when the job is enabled")
		}
		if err := positiveDuration("jobs.trash_purge.retention", tp.Retention); err != nil {
			return err
		}
	}

	// Validate metrics.path.
	c.Metrics.Path = strings.TrimSpace(c.Metrics.Path)
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics.path %q: must start with '/'", c.Metrics.Path)
	}

	// Validate log.level.
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	// Validate log.format.
	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}

	return nil
}

func positiveDuration(name, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, value)
	}
	return nil
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) are present in the given secret string.
func CountSecretClasses(secret string) int {
	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSymbol := false

	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	if hasLower {
		classes++
	}
	if hasUpper {
		classes++
	}
	if hasDigit {
		classes++
	}
	if hasSymbol {
		classes++
	}

	return classes
}
