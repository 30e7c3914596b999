package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	FX struct {
		// One TTL for the whole fallback chain: rates are refreshed hourly,
		// matching the upstream feeds' daily-to-hourly update cadence.
		TTL         time.Duration `yaml:"ttl"`
		PrimaryURL  string        `yaml:"primary_url"`
		FallbackURL string        `yaml:"fallback_url"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"fx"`
	MarketData struct {
		BaseURL       string        `yaml:"base_url"`
		Timeout       time.Duration `yaml:"timeout"`
		DefaultPeriod string        `yaml:"default_period"`
	} `yaml:"market_data"`
	History struct {
		SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
		Redis       struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"history"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Registry struct {
		SQLitePath  string `yaml:"sqlite_path"`
		ArtifactDir string `yaml:"artifact_dir"`
	} `yaml:"registry"`
	Training struct {
		MinRows        int `yaml:"min_rows"`
		DefaultHorizon int `yaml:"default_horizon"`
	} `yaml:"training"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.History.Redis.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Registry.SQLitePath = v
	}
	if v := os.Getenv("ARTIFACT_DIR"); v != "" {
		c.Registry.ArtifactDir = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Kafka.WriteTimeout == 0 {
		c.Kafka.WriteTimeout = 10 * time.Second
	}
	if c.Kafka.ReadTimeout == 0 {
		c.Kafka.ReadTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.FX.TTL == 0 {
		c.FX.TTL = time.Hour
	}
	if c.FX.Timeout == 0 {
		c.FX.Timeout = 5 * time.Second
	}
	if c.FX.PrimaryURL == "" {
		c.FX.PrimaryURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"
	}
	if c.FX.FallbackURL == "" {
		c.FX.FallbackURL = "https://open.er-api.com/v6/latest/USD"
	}
	if c.MarketData.Timeout == 0 {
		c.MarketData.Timeout = 10 * time.Second
	}
	if c.MarketData.DefaultPeriod == "" {
		c.MarketData.DefaultPeriod = "5y"
	}
	if c.History.SnapshotTTL == 0 {
		c.History.SnapshotTTL = 10 * time.Minute
	}
	if c.Registry.ArtifactDir == "" {
		c.Registry.ArtifactDir = "artifacts"
	}
	if c.Registry.SQLitePath == "" {
		c.Registry.SQLitePath = "spotcast.db"
	}
	if c.Training.MinRows == 0 {
		c.Training.MinRows = 180
	}
	if c.Training.DefaultHorizon == 0 {
		c.Training.DefaultHorizon = 1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("market_data.base_url is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
