package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID      = "explorerd"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultStoreBackend    = BackendPostgres
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultListenAddr      = "127.0.0.1:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRateLimitBurst  = 20
	DefaultSourceTimeout   = 30 * time.Second
	DefaultMetricsPath     = "/metrics"

	DefaultBlocksURL        = "https://graphql.bitquery.io"
	DefaultBlocksInterval   = 2 * time.Minute
	DefaultBlocksNetwork    = "bitcoin"
	DefaultBlocksFetchLimit = 20
	DefaultBlocksReadLimit  = 100

	DefaultChartURL            = "https://api.blockchain.info/charts"
	DefaultChartInterval       = 5 * time.Minute
	DefaultChartName           = "transactions-per-second"
	DefaultChartTimespan       = "5weeks"
	DefaultChartRollingAverage = "8hours"
	DefaultChartReadLimit      = 1000

	DefaultRatesURL       = "https://blockchain.info/ticker"
	DefaultRatesInterval  = 5 * time.Minute
	DefaultRatesReadLimit = 200
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	// Store defaults
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	applyDBDefaults(&c.Database)

	// Server defaults
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = DefaultRateLimitBurst
	}

	// Source defaults
	applySourceDefaults(&c.Sources.Blocks.SourceConfig, DefaultBlocksURL, DefaultBlocksInterval, DefaultBlocksReadLimit)
	if c.Sources.Blocks.Network == "" {
		c.Sources.Blocks.Network = DefaultBlocksNetwork
	}
	if c.Sources.Blocks.FetchLimit == 0 {
		c.Sources.Blocks.FetchLimit = DefaultBlocksFetchLimit
	}

	applySourceDefaults(&c.Sources.Chart.SourceConfig, DefaultChartURL, DefaultChartInterval, DefaultChartReadLimit)
	if c.Sources.Chart.ChartName == "" {
		c.Sources.Chart.ChartName = DefaultChartName
	}
	if c.Sources.Chart.Timespan == "" {
		c.Sources.Chart.Timespan = DefaultChartTimespan
	}
	if c.Sources.Chart.RollingAverage == "" {
		c.Sources.Chart.RollingAverage = DefaultChartRollingAverage
	}

	applySourceDefaults(&c.Sources.Rates, DefaultRatesURL, DefaultRatesInterval, DefaultRatesReadLimit)

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == nil {
		n := DefaultMinConns
		db.MinConns = &n
	}
}

func applySourceDefaults(s *SourceConfig, url string, interval time.Duration, readLimit int) {
	if s.URL == "" {
		s.URL = url
	}
	if s.Interval == 0 {
		s.Interval = interval
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultSourceTimeout
	}
	if s.ReadLimit == 0 {
		s.ReadLimit = readLimit
	}
}
