// Package config loads settings from config.toml and REPAIR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Log            LogConfig            `mapstructure:"log"`
	Event          EventConfig          `mapstructure:"event"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Ledger         LedgerConfig         `mapstructure:"ledger"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Notification   NotificationConfig   `mapstructure:"notification"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Port    string `mapstructure:"port"`
	Version string `mapstructure:"version"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int           `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int           `mapstructure:"conn_max_idle_time"` // minutes
	SlowQueryThresh time.Duration `mapstructure:"slow_query_threshold"`
}

// DSN returns the connection URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// EventConfig controls the outbox processor and its cleanup of delivered rows
type EventConfig struct {
	ProcessorEnabled bool          `mapstructure:"processor_enabled"`
	BatchSize        int           `mapstructure:"batch_size"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	MaxRetries       int           `mapstructure:"max_retries"`
	CleanupEnabled   bool          `mapstructure:"cleanup_enabled"`
	CleanupRetention time.Duration `mapstructure:"cleanup_retention"`
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"` // empty refuses cross-origin requests
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
}

type LedgerConfig struct {
	// DefaultLocationMethod is the payment method used when an invoice has none,
	// and to find the fallback location when reverting a payment whose location is gone.
	DefaultLocationMethod string `mapstructure:"default_location_method"`
}

// ReconciliationConfig controls invoice/report link repair
type ReconciliationConfig struct {
	DateWindowDays  int           `mapstructure:"date_window_days"` // symmetric window for client+date matching
	LockEnabled     bool          `mapstructure:"lock_enabled"`     // take the redis run lock for non-dry runs
	LockTTL         time.Duration `mapstructure:"lock_ttl"`         // lock expiry if the process dies mid-run
	ScheduleEnabled bool          `mapstructure:"schedule_enabled"` // nightly linking run inside the server
	ScheduleHour    int           `mapstructure:"schedule_hour"`
	ScheduleMinute  int           `mapstructure:"schedule_minute"`
}

type NotificationConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Queue    string `mapstructure:"queue"`
	MaxRetry int    `mapstructure:"max_retry"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC, host:port
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"` // defaults to app.name
	Insecure          bool          `mapstructure:"insecure"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // query variables in spans; never in production
}

// Load reads config.toml from ., ./backend or /app if present. REPAIR_* variables
// (REPAIR_DATABASE_PASSWORD for database.password) override the file, which overrides defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return loadFrom(v)
}

func loadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("REPAIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
