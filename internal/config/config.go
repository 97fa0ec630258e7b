package config

import "time"

// Config is the root configuration for an explorerd instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Database DBConfig       `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Sources  SourcesConfig  `yaml:"sources"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this process in logs.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text (tint) or json
}

// StoreConfig selects the snapshot store backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // postgres or memory
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	// MinConns is the number of warm connections. Unset means
	// DefaultMinConns; an explicit 0 keeps none open.
	MinConns *int `yaml:"min_conns"`
	Migrate  bool   `yaml:"migrate"` // run goose migrations on startup
}

// ServerConfig holds query service settings.
type ServerConfig struct {
	ListenAddr      string          `yaml:"listen_addr"`
	CORSOrigins     []string        `yaml:"cors_origins"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// RateLimitConfig bounds requests per client address. Zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// SourcesConfig holds per-source poller and connector settings.
type SourcesConfig struct {
	Blocks BlocksSourceConfig `yaml:"blocks"`
	Chart  ChartSourceConfig  `yaml:"chart"`
	Rates  SourceConfig       `yaml:"rates"`
}

// SourceConfig is shared by every source.
type SourceConfig struct {
	Disabled  bool          `yaml:"disabled"`
	URL       string        `yaml:"url"`
	APIKey    string        `yaml:"api_key"`
	Interval  time.Duration `yaml:"interval"`   // fixed delay between cycles
	Timeout   time.Duration `yaml:"timeout"`    // bound on one outbound fetch
	ReadLimit int           `yaml:"read_limit"` // rows served per read
}

// BlocksSourceConfig configures the bitquery GraphQL connector.
type BlocksSourceConfig struct {
	SourceConfig `yaml:",inline"`
	Network      string `yaml:"network"`
	FetchLimit   int    `yaml:"fetch_limit"`
}

// ChartSourceConfig configures the blockchain.info charts connector.
type ChartSourceConfig struct {
	SourceConfig   `yaml:",inline"`
	ChartName      string `yaml:"chart_name"`
	Timespan       string `yaml:"timespan"`
	RollingAverage string `yaml:"rolling_average"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}
