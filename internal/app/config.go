package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/appversion-backend/internal/data/db"
	"github.com/yungbote/appversion-backend/internal/observability"
	"github.com/yungbote/appversion-backend/internal/platform/envutil"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
	"github.com/yungbote/appversion-backend/internal/realtime/bus"
)

const (
	ConfigPathEnv     = "APPVERSION_CONFIG_PATH"
	defaultConfigPath = "config/config.yaml"
)

// Duration reads YAML strings such as "5s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

type Config struct {
	LogMode   string                   `yaml:"log_mode"`
	HTTP      HTTPConfig               `yaml:"http"`
	DB        DBConfig                 `yaml:"db"`
	Notify    NotifyConfig             `yaml:"notify"`
	Metrics   MetricsConfig            `yaml:"metrics"`
	Otel      observability.OtelConfig `yaml:"otel"`
	Platforms map[string]string        `yaml:"platforms"`
}

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	// DSN takes precedence over the discrete postgres fields.
	DSN        string         `yaml:"dsn"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`

	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type NotifyConfig struct {
	Enabled bool             `yaml:"enabled"`
	Redis   bus.RedisOptions `yaml:"redis"`
}

type MetricsConfig struct {
	Enabled        bool     `yaml:"enabled"`
	DBPoolInterval Duration `yaml:"db_pool_interval"`
}

func defaultConfig() Config {
	return Config{
		LogMode: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{5 * time.Second},
			IdleTimeout:       Duration{2 * time.Minute},
			ShutdownTimeout:   Duration{15 * time.Second},
		},
		DB: DBConfig{
			Driver:     db.DriverSQLite,
			SQLitePath: "appversion.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "postgres",
				Name:    "appversion",
				SSLMode: "disable",
			},
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: Duration{30 * time.Minute},
		},
		Notify: NotifyConfig{
			Redis: bus.RedisOptions{Channel: bus.DefaultChannel},
		},
		Metrics: MetricsConfig{
			Enabled:        true,
			DBPoolInterval: Duration{15 * time.Second},
		},
		Otel: observability.OtelConfig{
			ServiceName: "appversion-backend",
			SampleRatio: 0.1,
		},
	}
}

// ResolveConfigPath picks the flag value, then $APPVERSION_CONFIG_PATH, then
// ./config/config.yaml when it exists. An empty result means defaults and env only.
func ResolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnv)); p != "" {
		return p
	}
	if wd, err := os.Getwd(); err == nil {
		p := filepath.Join(wd, defaultConfigPath)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadConfig layers defaults, the optional YAML file at path, then environment overrides.
func LoadConfig(path string, log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg, log)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, log *logger.Logger) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode, log)

	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr, log)
	if port := envutil.String("PORT", "", log); port != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	cfg.HTTP.ShutdownTimeout.Duration = envutil.Duration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout.Duration, log)
	if origins := envutil.String("CORS_ORIGINS", "", log); origins != "" {
		cfg.HTTP.CORSOrigins = splitList(origins)
	}

	cfg.DB.Driver = strings.ToLower(envutil.String("DB_DRIVER", cfg.DB.Driver, log))
	cfg.DB.DSN = envutil.String("DATABASE_URL", cfg.DB.DSN, log)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath, log)
	cfg.DB.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.DB.Postgres.Host, log)
	cfg.DB.Postgres.Port = envutil.Int("POSTGRES_PORT", cfg.DB.Postgres.Port, log)
	cfg.DB.Postgres.User = envutil.String("POSTGRES_USER", cfg.DB.Postgres.User, log)
	cfg.DB.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Postgres.Password, log)
	cfg.DB.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.DB.Postgres.Name, log)
	cfg.DB.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.DB.Postgres.SSLMode, log)

	cfg.Notify.Enabled = envutil.Bool("NOTIFY_ENABLED", cfg.Notify.Enabled, log)
	cfg.Notify.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Notify.Redis.Addr, log)
	cfg.Notify.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Notify.Redis.Password, log)
	cfg.Notify.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Notify.Redis.Channel, log)

	cfg.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", cfg.Metrics.Enabled, log)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled, log)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName, log)
	cfg.Otel.Environment = envutil.String("OTEL_ENVIRONMENT", cfg.Otel.Environment, log)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint, log)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure, log)
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("db.driver must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, c.DB.Driver)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr is required")
	}
	return nil
}

// DBOptions resolves the connection settings for the configured driver.
func (c Config) DBOptions() db.Options {
	opts := db.Options{
		Driver:          c.DB.Driver,
		MaxOpenConns:    c.DB.MaxOpenConns,
		MaxIdleConns:    c.DB.MaxIdleConns,
		ConnMaxLifetime: c.DB.ConnMaxLifetime.Duration,
	}
	switch c.DB.Driver {
	case db.DriverSQLite:
		opts.DSN = c.DB.SQLitePath
		// sqlite serialises writers; one connection avoids "database is locked".
		opts.MaxOpenConns = 1
	default:
		opts.DSN = c.DB.DSN
		if strings.TrimSpace(opts.DSN) == "" {
			opts.DSN = c.DB.Postgres.dsn()
		}
	}
	return opts
}

func (p PostgresConfig) dsn() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.Name,
	}
	if p.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{p.SSLMode}}.Encode()
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
