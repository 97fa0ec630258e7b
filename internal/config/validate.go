package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	switch c.Store.Backend {
	case BackendPostgres:
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store.backend must be %s or %s, got %q", BackendPostgres, BackendMemory, c.Store.Backend)
	}

	if c.Server.ListenAddr == "" {
		return errors.New("server.listen_addr is required")
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return errors.New("server.rate_limit.requests_per_second must be >= 0")
	}

	if err := c.Sources.Blocks.validate("sources.blocks"); err != nil {
		return err
	}
	if !c.Sources.Blocks.Disabled {
		if c.Sources.Blocks.APIKey == "" {
			return errors.New("sources.blocks.api_key is required")
		}
		if c.Sources.Blocks.FetchLimit < 1 {
			return errors.New("sources.blocks.fetch_limit must be >= 1")
		}
	}
	if err := c.Sources.Chart.validate("sources.chart"); err != nil {
		return err
	}
	if err := c.Sources.Rates.validate("sources.rates"); err != nil {
		return err
	}

	if !c.Metrics.Disabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns == nil {
		return nil
	}
	if *db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if *db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, *db.MinConns, db.MaxConns)
	}
	return nil
}

func (s *SourceConfig) validate(prefix string) error {
	if s.Disabled {
		return nil
	}
	if s.URL == "" {
		return fmt.Errorf("%s.url is required", prefix)
	}
	if s.Interval <= 0 {
		return fmt.Errorf("%s.interval must be > 0", prefix)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%s.timeout must be > 0", prefix)
	}
	if s.ReadLimit < 1 {
		return fmt.Errorf("%s.read_limit must be >= 1", prefix)
	}
	return nil
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("unknown level %q", level)
	}
	return l, nil
}
