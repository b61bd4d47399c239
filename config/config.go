package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the MYTA backend.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig contains completion provider configurations.
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single completion provider configuration.
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai, gemini
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration.
type LLMModel struct {
	Name            string  `mapstructure:"name"`
	APIName         string  `mapstructure:"api_name"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	CostPer1K       float64 `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64 `mapstructure:"cost_per_1k_output"`
}

// LLMRoutingConfig defines which model to use for different stages of a chat turn.
type LLMRoutingConfig struct {
	Classification string `mapstructure:"classification"`
	Analysis       string `mapstructure:"analysis"`
	Synthesis      string `mapstructure:"synthesis"`
	Fallback       string `mapstructure:"fallback"`
}

// TelemetryConfig contains telemetry and monitoring settings.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	CostTracking bool   `mapstructure:"cost_tracking"`
	PeriodicLogs bool   `mapstructure:"periodic_logs"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort < 0 {
		return fmt.Errorf("telemetry.metrics_port must be >= 0 when telemetry is enabled")
	}
	return nil
}

// AgentsConfig contains specialized-agent settings.
type AgentsConfig struct {
	MaxConcurrentAgents int           `mapstructure:"max_concurrent_agents"`
	AgentTimeout        time.Duration `mapstructure:"agent_timeout"`
	TurnTimeout         time.Duration `mapstructure:"turn_timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
}

// Normalize applies defaults for unset agent values.
func (a AgentsConfig) Normalize() AgentsConfig {
	if a.MaxConcurrentAgents <= 0 {
		a.MaxConcurrentAgents = 5
	}
	if a.AgentTimeout <= 0 {
		a.AgentTimeout = 45 * time.Second
	}
	if a.TurnTimeout <= 0 {
		// generous enough for a full fan-out plus one synthesis call
		a.TurnTimeout = 3 * time.Minute
	}
	return a
}

// YouTubeConfig contains YouTube Data API settings.
type YouTubeConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RefreshEvery time.Duration `mapstructure:"refresh_every"`
}

// CacheConfig controls the orchestrator response cache and agent result caches.
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"` // memory, redis
	ResponseTTL time.Duration `mapstructure:"response_ttl"`
	SweepCron   string        `mapstructure:"sweep_cron"`
}

// Normalize applies cache defaults.
func (c CacheConfig) Normalize() CacheConfig {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.ResponseTTL <= 0 {
		c.ResponseTTL = 30 * time.Minute
	}
	if c.SweepCron == "" {
		c.SweepCron = "@hourly"
	}
	return c
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "memory", "redis":
		return nil
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Backend)
	}
}

// StorageConfig contains storage and persistence settings.
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, host, port, p.DBName, ssl)
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// LoadConfig loads config from file and MYTA_* environment variables.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("server.address", ":10002")
	viper.SetDefault("agents.max_concurrent_agents", 5)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.response_ttl", "30m")
	viper.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	viper.SetDefault("youtube.max_results", 25)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("MYTA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Agents = config.Agents.Normalize()
	config.Cache = config.Cache.Normalize()

	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	if err := config.Cache.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}
