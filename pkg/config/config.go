// Package config loads the concurrency core's configuration from file, env
// and defaults via viper. The loaded Config is passed explicitly to the
// component constructors; nothing reads ambient process state afterwards.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rmoralis/cloudbatch/pkg/breaker"
	"github.com/rmoralis/cloudbatch/pkg/controller"
	"github.com/rmoralis/cloudbatch/pkg/executor"
	"github.com/rmoralis/cloudbatch/pkg/pool"
)

// Config is the full recognized option surface
type Config struct {
	// Pool options
	MaxConnections     int           `mapstructure:"max_connections"`
	MinConnections     int           `mapstructure:"min_connections"`
	ConnectionTimeout  time.Duration `mapstructure:"connection_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ScaleUpThreshold   float64       `mapstructure:"scale_up_threshold"`
	ScaleDownThreshold float64       `mapstructure:"scale_down_threshold"`
	ConnectionLifetime time.Duration `mapstructure:"connection_lifetime"`

	// Controller options
	InitialConcurrency int           `mapstructure:"initial_concurrency"`
	MaxConcurrency     int           `mapstructure:"max_concurrency"`
	ErrorThreshold     float64       `mapstructure:"error_threshold"`
	MaxLatency         time.Duration `mapstructure:"max_latency"`
	MinThroughput      float64       `mapstructure:"min_throughput"`
	ResourceAware      bool          `mapstructure:"resource_aware"`

	// Breaker options
	CircuitBreakerEnabled bool          `mapstructure:"circuit_breaker_enabled"`
	FailureThreshold      int           `mapstructure:"failure_threshold"`
	CooldownPeriod        time.Duration `mapstructure:"cooldown_period"`

	// Executor options
	ChunkWindow       int           `mapstructure:"chunk_window"`
	PerRequestTimeout time.Duration `mapstructure:"per_request_timeout"`

	// Ambient options
	LogLevel   string `mapstructure:"log_level"`
	LogJSON    bool   `mapstructure:"log_json"`
	ListenAddr string `mapstructure:"listen_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_connections", 10)
	v.SetDefault("min_connections", 1)
	v.SetDefault("connection_timeout", 10*time.Second)
	v.SetDefault("idle_timeout", 60*time.Second)
	v.SetDefault("scale_up_threshold", 0.8)
	v.SetDefault("scale_down_threshold", 0.3)
	v.SetDefault("connection_lifetime", 10*time.Minute)

	v.SetDefault("initial_concurrency", 3)
	v.SetDefault("max_concurrency", 10)
	v.SetDefault("error_threshold", 0.15)
	v.SetDefault("max_latency", 2*time.Second)
	v.SetDefault("min_throughput", 1.0)
	v.SetDefault("resource_aware", false)

	v.SetDefault("circuit_breaker_enabled", true)
	v.SetDefault("failure_threshold", 5)
	v.SetDefault("cooldown_period", 30*time.Second)

	v.SetDefault("chunk_window", 3)
	v.SetDefault("per_request_timeout", 30*time.Second)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("listen_addr", ":9190")
}

// Load reads configuration from the given file (optional) plus CLOUDBATCH_*
// environment variables, over the documented defaults
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("cloudbatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Default returns the documented defaults without touching file or env
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always unmarshal cleanly
	_ = v.Unmarshal(&cfg)
	return cfg
}

// PoolConfig derives the pool configuration
func (c Config) PoolConfig() pool.Config {
	return pool.Config{
		MaxConnections:     c.MaxConnections,
		MinConnections:     c.MinConnections,
		ConnectionTimeout:  c.ConnectionTimeout,
		IdleTimeout:        c.IdleTimeout,
		ConnectionLifetime: c.ConnectionLifetime,
		ScaleUpThreshold:   c.ScaleUpThreshold,
		ScaleDownThreshold: c.ScaleDownThreshold,
	}
}

// ControllerConfig derives the controller configuration
func (c Config) ControllerConfig() controller.Config {
	return controller.Config{
		InitialConcurrency: c.InitialConcurrency,
		MaxConcurrency:     c.MaxConcurrency,
		Rules: controller.Rules{
			MaxErrorRate:  c.ErrorThreshold,
			MaxLatency:    c.MaxLatency,
			MinThroughput: c.MinThroughput,
		},
		ResourceAware: c.ResourceAware,
	}
}

// BreakerConfig derives the circuit breaker configuration
func (c Config) BreakerConfig() breaker.Config {
	return breaker.Config{
		FailureThreshold: c.FailureThreshold,
		CooldownPeriod:   c.CooldownPeriod,
	}
}

// ExecutorConfig derives the executor configuration
func (c Config) ExecutorConfig() executor.Config {
	return executor.Config{
		ChunkWindow:    c.ChunkWindow,
		DefaultTimeout: c.PerRequestTimeout,
	}
}
