package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete perfstore configuration
type Config struct {
	Redis     Redis         `yaml:"redis"`
	Retention time.Duration `yaml:"retention"` // TTL applied to every sample
	Scan      Scan          `yaml:"scan"`
	Breaker   Breaker       `yaml:"breaker"`
	HTTP      HTTP          `yaml:"http"`
	Report    Report        `yaml:"report"`
	Log       Log           `yaml:"log"`
}

// Redis holds store connection settings
type Redis struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	LegacyClient bool          `yaml:"legacy_client"` // use the go-redis v8 client
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Scan holds bulk read batch sizes
type Scan struct {
	BatchSize     int64 `yaml:"batch_size"`      // SCAN COUNT hint
	MGetBatchSize int   `yaml:"mget_batch_size"` // keys per MGET
}

// Breaker configures the circuit breaker callers wrap around the store
type Breaker struct {
	Disabled            bool          `yaml:"disabled"`
	MaxRequests         uint32        `yaml:"max_requests"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
}

// HTTP configures the reporting API
type HTTP struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	RateLimitRPS float64       `yaml:"rate_limit_rps"`
	RateBurst    int           `yaml:"rate_burst"`
	LiveInterval time.Duration `yaml:"live_interval"`
}

// Report configures how stored samples become numbers
type Report struct {
	ValueField  string `yaml:"value_field"`
	Concurrency int    `yaml:"concurrency"`
}

// Log configures the global logger
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is specified
func Default() Config {
	return Config{
		Redis: Redis{
			Addr:         "127.0.0.1:6379",
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Retention: 7 * 24 * time.Hour,
		Scan: Scan{
			BatchSize:     10,
			MGetBatchSize: 1000,
		},
		Breaker: Breaker{
			MaxRequests:         1,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
		},
		HTTP: HTTP{
			Host:         "127.0.0.1",
			Port:         8080,
			RateLimitRPS: 50,
			RateBurst:    100,
			LiveInterval: 5 * time.Second,
		},
		Report: Report{
			ValueField:  "duration",
			Concurrency: 4,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads configuration from a YAML file if it exists, applies environment
// overrides and fills in defaults for anything left unset.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the store cannot work with
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Retention < time.Second {
		return fmt.Errorf("retention must be at least 1s, got %s", c.Retention)
	}
	if c.Scan.BatchSize <= 0 {
		return fmt.Errorf("scan.batch_size must be positive, got %d", c.Scan.BatchSize)
	}
	if c.Scan.MGetBatchSize <= 0 {
		return fmt.Errorf("scan.mget_batch_size must be positive, got %d", c.Scan.MGetBatchSize)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if c.HTTP.RateLimitRPS <= 0 {
		return fmt.Errorf("http.rate_limit_rps must be positive, got %g", c.HTTP.RateLimitRPS)
	}
	if c.HTTP.RateBurst <= 0 {
		return fmt.Errorf("http.rate_burst must be positive, got %d", c.HTTP.RateBurst)
	}
	if c.HTTP.LiveInterval <= 0 {
		return fmt.Errorf("http.live_interval must be positive, got %s", c.HTTP.LiveInterval)
	}
	if c.Report.Concurrency <= 0 {
		return fmt.Errorf("report.concurrency must be positive, got %d", c.Report.Concurrency)
	}
	if c.Breaker.MaxRequests == 0 {
		return fmt.Errorf("breaker.max_requests must be positive")
	}
	if c.Breaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("breaker.consecutive_failures must be positive")
	}
	if c.Breaker.Interval <= 0 {
		return fmt.Errorf("breaker.interval must be positive, got %s", c.Breaker.Interval)
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("breaker.timeout must be positive, got %s", c.Breaker.Timeout)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("PERFSTORE_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if db := os.Getenv("PERFSTORE_REDIS_DB"); db != "" {
		val, err := strconv.Atoi(db)
		if err != nil {
			return fmt.Errorf("PERFSTORE_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = val
	}
	if retention := os.Getenv("PERFSTORE_RETENTION"); retention != "" {
		val, err := time.ParseDuration(retention)
		if err != nil {
			return fmt.Errorf("PERFSTORE_RETENTION: %w", err)
		}
		cfg.Retention = val
	}
	if level := os.Getenv("PERFSTORE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		val, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		cfg.HTTP.Port = val
	}
	return nil
}

// applyDefaults fills zero values from Default
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = def.Redis.Addr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = def.Redis.PoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = def.Redis.DialTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = def.Redis.ReadTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = def.Redis.WriteTimeout
	}
	if cfg.Retention == 0 {
		cfg.Retention = def.Retention
	}
	if cfg.Scan.BatchSize == 0 {
		cfg.Scan.BatchSize = def.Scan.BatchSize
	}
	if cfg.Scan.MGetBatchSize == 0 {
		cfg.Scan.MGetBatchSize = def.Scan.MGetBatchSize
	}
	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = def.Breaker.MaxRequests
	}
	if cfg.Breaker.Interval == 0 {
		cfg.Breaker.Interval = def.Breaker.Interval
	}
	if cfg.Breaker.Timeout == 0 {
		cfg.Breaker.Timeout = def.Breaker.Timeout
	}
	if cfg.Breaker.ConsecutiveFailures == 0 {
		cfg.Breaker.ConsecutiveFailures = def.Breaker.ConsecutiveFailures
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = def.HTTP.Host
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = def.HTTP.Port
	}
	if cfg.HTTP.RateLimitRPS == 0 {
		cfg.HTTP.RateLimitRPS = def.HTTP.RateLimitRPS
	}
	if cfg.HTTP.RateBurst == 0 {
		cfg.HTTP.RateBurst = def.HTTP.RateBurst
	}
	if cfg.HTTP.LiveInterval == 0 {
		cfg.HTTP.LiveInterval = def.HTTP.LiveInterval
	}
	if cfg.Report.ValueField == "" {
		cfg.Report.ValueField = def.Report.ValueField
	}
	if cfg.Report.Concurrency == 0 {
		cfg.Report.Concurrency = def.Report.Concurrency
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}
