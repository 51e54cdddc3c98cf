package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string   `env:"PORT,            default=4001"`
	Env            string   `env:"ENV,             default=development"`
	JWTSecret      string   `env:"JWT_SECRET"`
	LogLevel       string   `env:"LOG_LEVEL,       default=info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=http://localhost:5173"`
	BodyLimit      string   `env:"BODY_LIMIT,      default=100K"`

	Tracking TrackingConfig
	Routing  RoutingConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type TrackingConfig struct {
	HistoryLimit  int           `env:"TRACKING_HISTORY_LIMIT,  default=200"`
	IngestWorkers int           `env:"TRACKING_INGEST_WORKERS, default=8"`
	RetentionTTL  time.Duration `env:"TRACKING_RETENTION_TTL,  default=0s"`
	SweepInterval time.Duration `env:"TRACKING_SWEEP_INTERVAL, default=1m"`
	PublisherAuth bool          `env:"TRACKING_PUBLISHER_AUTH, default=false"`
}

type RoutingConfig struct {
	BaseURL string        `env:"ROUTING_BASE_URL, default=https://router.project-osrm.org"`
	Profile string        `env:"ROUTING_PROFILE,  default=driving"`
	Timeout time.Duration `env:"ROUTING_TIMEOUT,  default=10s"`
}

// MongoConfig points at the order subsystem's database. An empty URI
// disables the delivery directory.
type MongoConfig struct {
	URI        string `env:"MONGO_URI"`
	Database   string `env:"MONGO_DB,         default=grocery"`
	Collection string `env:"MONGO_DELIVERIES, default=deliveries"`
}

// RedisConfig enables the directory cache when Addr is set.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL, default=2m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	cfg.AllowedOrigins = cleanOrigins(cfg.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Tracking.HistoryLimit <= 0 {
		return errors.New("TRACKING_HISTORY_LIMIT must be positive")
	}
	if c.Tracking.RetentionTTL < 0 {
		return errors.New("TRACKING_RETENTION_TTL must not be negative")
	}
	if c.Tracking.PublisherAuth {
		if c.JWTSecret == "" {
			return errors.New("TRACKING_PUBLISHER_AUTH requires JWT_SECRET")
		}
		if c.Mongo.URI == "" {
			return errors.New("TRACKING_PUBLISHER_AUTH requires MONGO_URI")
		}
	}
	if c.Redis.Addr != "" && c.Mongo.URI == "" {
		return errors.New("REDIS_ADDR is only used as a cache for MONGO_URI, which is not set")
	}
	return nil
}

// IsDevelopment reports whether human-friendly logs should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Address returns the listen address for the HTTP server.
func (c *Config) Address() string {
	return ":" + c.Port
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
