// Package config loads boltclient's connection, pool, and retry
// tunables from the environment (BOLTCLIENT_*, mirroring the teacher's
// NORNICDB_CLUSTER_* namespace in pkg/replication/config.go) or from a
// YAML file, for callers that want a single place to wire every knob
// rather than constructing bolt.ConnConfig/PoolConfig/RetryConfig by
// hand.
//
// Environment variables:
//
//	BOLTCLIENT_ADDRESS=localhost:7687
//	BOLTCLIENT_USER_AGENT=boltclient/0.1
//	BOLTCLIENT_DIAL_TIMEOUT=15s
//	BOLTCLIENT_RECV_TIMEOUT=15s
//	BOLTCLIENT_PING_TIMEOUT=5s
//	BOLTCLIENT_POOL_MAX_SIZE=10
//	BOLTCLIENT_POOL_IDLE_TIMEOUT=5m
//	BOLTCLIENT_POOL_PING_EVERY=30s
//	BOLTCLIENT_BREAKER_FAILURE_THRESHOLD=5
//	BOLTCLIENT_BREAKER_RECOVERY_TIMEOUT=30s
//	BOLTCLIENT_RETRY_MAX_RETRIES=3
//	BOLTCLIENT_RETRY_BASE_DELAY=100ms
//	BOLTCLIENT_RETRY_MAX_DELAY=5s
//	BOLTCLIENT_SSL=false
//	BOLTCLIENT_STRICT_HINTS=false
package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/boltclient/pkg/bolt"
)

// Config is every tunable this module exposes, grouped by the layer
// each feeds (spec.md §3's L3 connection/pool and §4's L4 sandbox).
type Config struct {
	Address     string        `yaml:"address"`
	UserAgent   string        `yaml:"user_agent"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	RecvTimeout time.Duration `yaml:"recv_timeout"`
	PingTimeout time.Duration `yaml:"ping_timeout"`

	Pool    PoolSection    `yaml:"pool"`
	Breaker BreakerSection `yaml:"breaker"`
	Retry   RetrySection   `yaml:"retry"`

	// SSL enables TLS with certificate verification disabled, the
	// safe-default-equivalent for servers with self-signed certs;
	// callers needing real verification construct their own
	// bolt.ConnConfig.TLS instead.
	SSL bool `yaml:"ssl"`

	// StrictHints, when true, makes an unrecognized HELLO/SUCCESS hint
	// key an error instead of being silently ignored. Off by default:
	// new server hint keys should never break an already-deployed
	// client.
	StrictHints bool `yaml:"strict_hints"`
}

type PoolSection struct {
	MaxSize     int           `yaml:"max_size"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	PingEvery   time.Duration `yaml:"ping_every"`
}

type BreakerSection struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
}

type RetrySection struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// Default returns the same defaults as bolt.DefaultConnConfig/
// DefaultPoolConfig/DefaultBreakerConfig/DefaultRetryConfig, collected
// into one Config.
func Default() Config {
	pool := bolt.DefaultPoolConfig()
	retry := bolt.DefaultRetryConfig()
	return Config{
		UserAgent:   "boltclient/0.1",
		DialTimeout: 15 * time.Second,
		RecvTimeout: 15 * time.Second,
		PingTimeout: 5 * time.Second,
		Pool: PoolSection{
			MaxSize:     pool.MaxSize,
			IdleTimeout: pool.IdleTimeout,
			PingEvery:   pool.PingEvery,
		},
		Breaker: BreakerSection{
			FailureThreshold: pool.Breaker.FailureThreshold,
			RecoveryTimeout:  pool.Breaker.RecoveryTimeout,
		},
		Retry: RetrySection{
			MaxRetries: retry.MaxRetries,
			BaseDelay:  retry.BaseDelay,
			MaxDelay:   retry.MaxDelay,
		},
	}
}

// LoadFromEnv starts from Default and overrides every field that has
// a matching BOLTCLIENT_* environment variable set.
func LoadFromEnv() Config {
	cfg := Default()
	cfg.Address = getEnv("BOLTCLIENT_ADDRESS", cfg.Address)
	cfg.UserAgent = getEnv("BOLTCLIENT_USER_AGENT", cfg.UserAgent)
	cfg.DialTimeout = getEnvDuration("BOLTCLIENT_DIAL_TIMEOUT", cfg.DialTimeout)
	cfg.RecvTimeout = getEnvDuration("BOLTCLIENT_RECV_TIMEOUT", cfg.RecvTimeout)
	cfg.PingTimeout = getEnvDuration("BOLTCLIENT_PING_TIMEOUT", cfg.PingTimeout)

	cfg.Pool.MaxSize = getEnvInt("BOLTCLIENT_POOL_MAX_SIZE", cfg.Pool.MaxSize)
	cfg.Pool.IdleTimeout = getEnvDuration("BOLTCLIENT_POOL_IDLE_TIMEOUT", cfg.Pool.IdleTimeout)
	cfg.Pool.PingEvery = getEnvDuration("BOLTCLIENT_POOL_PING_EVERY", cfg.Pool.PingEvery)

	cfg.Breaker.FailureThreshold = getEnvInt("BOLTCLIENT_BREAKER_FAILURE_THRESHOLD", cfg.Breaker.FailureThreshold)
	cfg.Breaker.RecoveryTimeout = getEnvDuration("BOLTCLIENT_BREAKER_RECOVERY_TIMEOUT", cfg.Breaker.RecoveryTimeout)

	cfg.Retry.MaxRetries = getEnvInt("BOLTCLIENT_RETRY_MAX_RETRIES", cfg.Retry.MaxRetries)
	cfg.Retry.BaseDelay = getEnvDuration("BOLTCLIENT_RETRY_BASE_DELAY", cfg.Retry.BaseDelay)
	cfg.Retry.MaxDelay = getEnvDuration("BOLTCLIENT_RETRY_MAX_DELAY", cfg.Retry.MaxDelay)

	cfg.SSL = getEnvBool("BOLTCLIENT_SSL", cfg.SSL)
	cfg.StrictHints = getEnvBool("BOLTCLIENT_STRICT_HINTS", cfg.StrictHints)
	return cfg
}

// LoadFromFile reads a YAML config file, applying its values on top of
// Default (a field the file omits keeps its default).
func LoadFromFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ConnConfig projects the connection-relevant fields into a
// bolt.ConnConfig, the type Connect actually takes.
func (c Config) ConnConfig(auth map[string]any) bolt.ConnConfig {
	cc := bolt.DefaultConnConfig(c.Address)
	cc.UserAgent = c.UserAgent
	cc.DialTimeout = c.DialTimeout
	cc.RecvTimeout = c.RecvTimeout
	cc.PingTimeout = c.PingTimeout
	cc.Auth = auth
	if c.SSL {
		cc.TLS = &tls.Config{InsecureSkipVerify: true}
	}
	cc.StrictHints = c.StrictHints || StrictHintsOverride()
	return cc
}

// PoolConfig projects the pool/breaker fields into a bolt.PoolConfig.
func (c Config) PoolConfig() bolt.PoolConfig {
	return bolt.PoolConfig{
		MaxSize:     c.Pool.MaxSize,
		IdleTimeout: c.Pool.IdleTimeout,
		PingEvery:   c.Pool.PingEvery,
		Breaker: bolt.BreakerConfig{
			FailureThreshold: c.Breaker.FailureThreshold,
			RecoveryTimeout:  c.Breaker.RecoveryTimeout,
		},
	}
}

// RetryConfig projects the retry fields into a bolt.RetryConfig.
func (c Config) RetryConfig() bolt.RetryConfig {
	return bolt.RetryConfig{
		MaxRetries: c.Retry.MaxRetries,
		BaseDelay:  c.Retry.BaseDelay,
		MaxDelay:   c.Retry.MaxDelay,
	}
}

// strictHints backs a runtime-togglable override of Config.StrictHints
// for callers that need to flip it after startup (tests exercising
// both behaviors in the same process), mirroring the teacher's
// atomic.Value-backed global toggle in the executor-mode config.
var strictHints atomic.Bool

// SetStrictHintsOverride flips the process-wide strict-hints behavior
// independent of any Config value already loaded.
func SetStrictHintsOverride(strict bool) {
	strictHints.Store(strict)
}

// StrictHintsOverride reports the current process-wide override.
func StrictHintsOverride() bool {
	return strictHints.Load()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
