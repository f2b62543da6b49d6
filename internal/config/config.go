package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	HTTPAddr  string `yaml:"http_addr"`
	AdminAddr string `yaml:"admin_addr"`
}

type UpstreamConfig struct {
	Name    string   `yaml:"name"`
	Targets []string `yaml:"targets"`
	Timeout int      `yaml:"timeout_ms"`
}

// GateConfig declares the route classes and redirect targets.
type GateConfig struct {
	APIPrefix   string `yaml:"api_prefix"`
	AdminPrefix string `yaml:"admin_prefix"`
	// ProtectedPaths are prefix-anchored patterns; a single "*" segment
	// matches exactly one non-slash path segment (e.g. /courses/*/study).
	ProtectedPaths []string `yaml:"protected_paths"`
	// SkipPrefixes bypass the gate entirely (built assets, icons, favicon).
	SkipPrefixes     []string `yaml:"skip_prefixes"`
	LoginPath        string   `yaml:"login_path"`
	UnauthorizedPath string   `yaml:"unauthorized_path"`
}

type RateLimitConfig struct {
	MaxRequests  int    `yaml:"max_requests"`
	WindowMs     int    `yaml:"window_ms"`
	SweepEveryMs int    `yaml:"sweep_every_ms"`
	Store        string `yaml:"store"` // "memory" or "redis"
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	// IdentityURL is the base URL of the session/identity service.
	IdentityURL string `yaml:"identity_url"`
	// PublicKeyPEM verifies session JWTs locally. When empty, tokens are
	// verified remotely against the identity service.
	PublicKeyPEM    string `yaml:"public_key_pem"`
	PublicKeyFile   string `yaml:"public_key_file"`
	CookieName      string `yaml:"cookie_name"`
	CacheTTLMs      int    `yaml:"cache_ttl_ms"`
	CacheMaxEntries int    `yaml:"cache_max_entries"`
	// AdminDomains lists email domains whose users get the admin role.
	AdminDomains []string `yaml:"admin_domains"`
	AdminEmails  []string `yaml:"admin_emails"`
	TimeoutMs    int      `yaml:"timeout_ms"`
}

type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`
}

type Config struct {
	Environment   string              `yaml:"environment"` // "production" enables HSTS
	Server        ServerConfig        `yaml:"server"`
	Upstreams     []UpstreamConfig    `yaml:"upstreams"`
	AppUpstream   string              `yaml:"app_upstream"`
	APIUpstream   string              `yaml:"api_upstream"`
	Gate          GateConfig          `yaml:"gate"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Redis         RedisConfig         `yaml:"redis"`
	Auth          AuthConfig          `yaml:"auth"`
	CORS          CORSConfig          `yaml:"cors"`
	Observability ObservabilityConfig `yaml:"observability"`
}

func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMs) * time.Millisecond
}

func (c *RateLimitConfig) SweepEvery() time.Duration {
	return time.Duration(c.SweepEveryMs) * time.Millisecond
}

func (c *AuthConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

func (c *AuthConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	// Local .env files supplement the process environment in development.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets deployment environments override the handful of values that
// differ per instance without editing the yaml.
func (c *Config) applyEnv() {
	if v := os.Getenv("ACADEX_GATE_HTTP_ADDR"); v != "" {
		c.Server.HTTPAddr = v
	}
	if v := os.Getenv("ACADEX_GATE_ADMIN_ADDR"); v != "" {
		c.Server.AdminAddr = v
	}
	if v := os.Getenv("ACADEX_GATE_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("ACADEX_GATE_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("ACADEX_GATE_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("ACADEX_GATE_IDENTITY_URL"); v != "" {
		c.Auth.IdentityURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Server.AdminAddr == "" {
		c.Server.AdminAddr = ":9000"
	}
	if c.AppUpstream == "" {
		c.AppUpstream = "app"
	}
	if c.APIUpstream == "" {
		c.APIUpstream = c.AppUpstream
	}
	if c.Gate.APIPrefix == "" {
		c.Gate.APIPrefix = "/api"
	}
	if c.Gate.AdminPrefix == "" {
		c.Gate.AdminPrefix = "/admin"
	}
	if c.Gate.LoginPath == "" {
		c.Gate.LoginPath = "/auth/login"
	}
	if c.Gate.UnauthorizedPath == "" {
		c.Gate.UnauthorizedPath = "/unauthorized"
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 100
	}
	if c.RateLimit.WindowMs == 0 {
		c.RateLimit.WindowMs = 60000
	}
	if c.RateLimit.SweepEveryMs == 0 {
		c.RateLimit.SweepEveryMs = 300000
	}
	if c.RateLimit.Store == "" {
		c.RateLimit.Store = "memory"
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "acadex_session"
	}
	if c.Auth.CacheTTLMs == 0 {
		c.Auth.CacheTTLMs = 5000
	}
	if c.Auth.CacheMaxEntries == 0 {
		c.Auth.CacheMaxEntries = 1000
	}
	if c.Auth.TimeoutMs == 0 {
		c.Auth.TimeoutMs = 5000
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Requested-With"}
	}
}

func (c *Config) validate() error {
	if len(c.Upstreams) == 0 {
		return fmt.Errorf("at least one upstream is required")
	}
	names := map[string]bool{}
	for _, u := range c.Upstreams {
		if u.Name == "" || len(u.Targets) == 0 {
			return fmt.Errorf("upstream name and targets required")
		}
		if names[u.Name] {
			return fmt.Errorf("duplicate upstream name: %s", u.Name)
		}
		names[u.Name] = true
	}
	if !names[c.AppUpstream] {
		return fmt.Errorf("app_upstream %q not declared in upstreams", c.AppUpstream)
	}
	if !names[c.APIUpstream] {
		return fmt.Errorf("api_upstream %q not declared in upstreams", c.APIUpstream)
	}
	switch c.RateLimit.Store {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("rate_limit.store is redis but redis.addr is empty")
		}
	default:
		return fmt.Errorf("invalid rate_limit.store: %q, must be 'memory' or 'redis'", c.RateLimit.Store)
	}
	for _, p := range c.Gate.ProtectedPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("protected path %q must start with /", p)
		}
	}
	return nil
}

// IsProduction reports whether strict transport headers should be emitted.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
