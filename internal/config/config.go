package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the cardquery API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	SQL        SQLConfig        `yaml:"sql"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	Limits     LimitsConfig     `yaml:"limits"`
	Cache      CacheConfig      `yaml:"cache"`
	Rules      RulesConfig      `yaml:"rules"`
	Generation GenerationConfig `yaml:"generation"`
	Search     SearchConfig     `yaml:"search"`
	Feedback   FeedbackConfig   `yaml:"feedback"`
	Miner      MinerConfig      `yaml:"miner"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. With nothing set the API
// is open.
type AuthConfig struct {
	ServiceSecret string   `yaml:"service_secret"`
	APISecrets    []string `yaml:"api_secrets"`
	JWTSecret     string   `yaml:"jwt_secret"`
	JWTIssuer     string   `yaml:"jwt_issuer"`
}

// CORSConfig lists allowed browser origins; "*" allows any.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the key-value store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis, valkey (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	MemorySize       int      `yaml:"memory_size"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SQLConfig holds the relational store settings.
type SQLConfig struct {
	Driver       string `yaml:"driver"` // sqlite, postgres (default: sqlite)
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// LimitsConfig holds request limits. A zero rate limit disables that scope.
type LimitsConfig struct {
	MaxQueryLength int   `yaml:"max_query_length"`
	MaxParams      int   `yaml:"max_params"`
	MaxBodyBytes   int64 `yaml:"max_body_bytes"`
	PerKey         int64 `yaml:"per_key"`
	PerSession     int64 `yaml:"per_session"`
	Global         int64 `yaml:"global"`
	WindowSec      int   `yaml:"window_sec"`
}

// CacheConfig holds translation cache timings.
type CacheConfig struct {
	TTLSec         int `yaml:"ttl_sec"`
	FeedbackTTLSec int `yaml:"feedback_ttl_sec"`
	LockTTLMs      int `yaml:"lock_ttl_ms"`
}

// RulesConfig holds learned rule lookup settings.
type RulesConfig struct {
	Fuzzy      bool    `yaml:"fuzzy"`
	MinRatio   float64 `yaml:"min_ratio"`
	RefreshSec int     `yaml:"refresh_sec"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// GenerationConfig holds the rule proposer settings. An empty provider
// disables feedback processing.
type GenerationConfig struct {
	Provider    string       `yaml:"provider"` // openai, genai
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	Temperature float32      `yaml:"temperature"`
	TimeoutSec  int          `yaml:"timeout_sec"`
	Budget      BudgetConfig `yaml:"budget"`
}

// SearchConfig holds the upstream card search API settings.
type SearchConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	UserAgent  string `yaml:"user_agent"`
}

// FeedbackConfig holds feedback processing settings.
type FeedbackConfig struct {
	ConfidenceFloor    float64 `yaml:"confidence_floor"`
	TimeoutSec         int     `yaml:"timeout_sec"`
	StaleAfterSec      int     `yaml:"stale_after_sec"`
	SweepIntervalSec   int     `yaml:"sweep_interval_sec"`
	ValidationFailOpen bool    `yaml:"validation_fail_open"`
}

// MinerConfig holds pattern miner settings.
type MinerConfig struct {
	WindowDays     int     `yaml:"window_days"`
	MaxRows        int     `yaml:"max_rows"`
	MinOccurrences int     `yaml:"min_occurrences"`
	MinConfidence  float64 `yaml:"min_confidence"`
	MaxRules       int     `yaml:"max_rules"`
	ValidateLive   *bool   `yaml:"validate_live"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.SQL.Driver == "" {
		c.SQL.Driver = "sqlite"
	}
	if c.SQL.DSN == "" && c.SQL.Driver == "sqlite" {
		c.SQL.DSN = "data/cardquery.db"
	}
	if c.Limits.MaxQueryLength <= 0 {
		c.Limits.MaxQueryLength = 500
	}
	if c.Limits.MaxParams <= 0 {
		c.Limits.MaxParams = 15
	}
	if c.Limits.MaxBodyBytes <= 0 {
		c.Limits.MaxBodyBytes = 16 << 10
	}
	if c.Limits.WindowSec <= 0 {
		c.Limits.WindowSec = 60
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 24 * 3600
	}
	if c.Cache.FeedbackTTLSec <= 0 {
		c.Cache.FeedbackTTLSec = 7 * 24 * 3600
	}
	if c.Cache.LockTTLMs <= 0 {
		c.Cache.LockTTLMs = 5000
	}
	if c.Rules.MinRatio <= 0 {
		c.Rules.MinRatio = 0.85
	}
	if c.Rules.RefreshSec <= 0 {
		c.Rules.RefreshSec = 60
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 30
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 10
	}
	if c.Feedback.ConfidenceFloor <= 0 {
		c.Feedback.ConfidenceFloor = 0.7
	}
	if c.Feedback.TimeoutSec <= 0 {
		c.Feedback.TimeoutSec = 45
	}
	if c.Feedback.StaleAfterSec <= 0 {
		c.Feedback.StaleAfterSec = 600
	}
	if c.Feedback.SweepIntervalSec <= 0 {
		c.Feedback.SweepIntervalSec = 60
	}
	if c.Miner.WindowDays <= 0 {
		c.Miner.WindowDays = 30
	}
	if c.Miner.MaxRows <= 0 {
		c.Miner.MaxRows = 10000
	}
	if c.Miner.MinOccurrences <= 0 {
		c.Miner.MinOccurrences = 3
	}
	if c.Miner.MinConfidence <= 0 {
		c.Miner.MinConfidence = 0.8
	}
	if c.Miner.MaxRules <= 0 {
		c.Miner.MaxRules = 25
	}
	if c.Miner.ValidateLive == nil {
		on := true
		c.Miner.ValidateLive = &on
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "memory":
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be \"memory\", \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	switch c.SQL.Driver {
	case "sqlite":
	case "postgres":
		if c.SQL.DSN == "" {
			return fmt.Errorf("sql.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("sql.driver must be \"sqlite\" or \"postgres\", got %q", c.SQL.Driver)
	}
	switch c.Generation.Provider {
	case "":
	case "openai", "genai":
		if c.Generation.APIKey == "" {
			return fmt.Errorf("generation.api_key is required for provider %q", c.Generation.Provider)
		}
	default:
		return fmt.Errorf("generation.provider must be \"openai\" or \"genai\", got %q", c.Generation.Provider)
	}
	switch c.Generation.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"generation.budget.action must be \"warn\" or \"reject\", got %q",
			c.Generation.Budget.Action,
		)
	}
	if c.Feedback.ConfidenceFloor > 1 || c.Miner.MinConfidence > 1 {
		return fmt.Errorf("confidence thresholds must be within [0, 1]")
	}
	if c.Auth.JWTIssuer != "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_issuer requires auth.jwt_secret")
	}
	return nil
}

// Seconds converts a configured number of seconds.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
