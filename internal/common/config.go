package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds the environment-driven settings for both the orchestrator
// and runner processes. There is no file-based config parser: every value
// comes from the environment, with a sane default, the way the teacher's
// cli/config package exposes its handful of settings.
type Config struct {
	MySQLDSN string
	RedisAddr     string
	RedisPassword string

	CertPath string
	KeyPath  string
	HTTPAddr string

	DockerHost       string
	WorkspacePrefix  string
	DefaultImage     string

	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	MaxTimeoutSecs int

	JWTKey       string
	JWTExpire    time.Duration
	JWTNewExpire time.Duration
}

var cfg *Config

// GetConfig returns the process-wide configuration, loading it from the
// environment on first use.
func GetConfig() *Config {
	if cfg == nil {
		cfg = loadConfig()
	}
	return cfg
}

func loadConfig() *Config {
	return &Config{
		MySQLDSN:      envOr("FLEETOPS_MYSQL_DSN", "root:root@tcp(localhost:3306)/fleetops?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:     envOr("FLEETOPS_REDIS_ADDR", "localhost:6379"),
		RedisPassword: envOr("FLEETOPS_REDIS_PASSWORD", ""),
		CertPath:      envOr("FLEETOPS_TLS_CERT", ""),
		KeyPath:       envOr("FLEETOPS_TLS_KEY", ""),
		HTTPAddr:      envOr("FLEETOPS_HTTP_ADDR", ":8080"),

		DockerHost:      envOr("FLEETOPS_DOCKER_HOST", "unix:///var/run/docker.sock"),
		WorkspacePrefix: envOr("FLEETOPS_WORKSPACE_PREFIX", "/var/lib/fleetops/workspaces"),
		DefaultImage:    envOr("FLEETOPS_DEFAULT_BUILD_IMAGE", "docker.1ms.run/alpine:3.19"),

		HeartbeatInterval: envDurationOr("FLEETOPS_HEARTBEAT_INTERVAL", 10*time.Second),
		HeartbeatTimeout:  envDurationOr("FLEETOPS_HEARTBEAT_TIMEOUT", 30*time.Second),

		MaxTimeoutSecs: envIntOr("FLEETOPS_MAX_TIMEOUT_SECS", 3600),

		JWTKey:       envOr("FLEETOPS_JWT_KEY", "dev-only-fleetops-signing-key"),
		JWTExpire:    envDurationOr("FLEETOPS_JWT_EXPIRE", 2*time.Hour),
		JWTNewExpire: envDurationOr("FLEETOPS_JWT_REFRESH_WINDOW", 15*time.Minute),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// DefaultCredentialFor returns the fallback SSH credential configured for
// an environment tag (dev/stage/prod) when a host row carries none.
// Per spec, these live in runner config, not the inventory.
func (c *Config) DefaultCredentialFor(env string) (username, password string, ok bool) {
	u := os.Getenv("FLEETOPS_DEFAULT_SSH_USER_" + env)
	p := os.Getenv("FLEETOPS_DEFAULT_SSH_PASSWORD_" + env)
	if u == "" {
		return "", "", false
	}
	return u, p, true
}
