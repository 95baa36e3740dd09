package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	AI       AIConfig       `yaml:"ai"`
	Triage   TriageConfig   `yaml:"triage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr"                env:"GARDEROBA_ADDR"                env-default:":8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"GARDEROBA_READ_HEADER_TIMEOUT" env-default:"10s"`
	ReadTimeout       time.Duration `yaml:"read_timeout"        env:"GARDEROBA_READ_TIMEOUT"        env-default:"30s"`
	// WriteTimeout also bounds AI calls made while serving a request.
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"GARDEROBA_WRITE_TIMEOUT"    env-default:"180s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"GARDEROBA_IDLE_TIMEOUT"     env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"GARDEROBA_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"GARDEROBA_DB" env-default:"garderoba.sqlite3"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// JWTSecret signs tokens. Empty means use the secret stored in the database.
	JWTSecret string        `yaml:"jwt_secret" env:"GARDEROBA_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"GARDEROBA_TOKEN_TTL"  env-default:"168h"`
	AdminUser string        `yaml:"admin_user" env:"GARDEROBA_ADMIN_USER" env-default:"Admin"`
}

// AIConfig holds generative-AI gateway settings.
type AIConfig struct {
	APIKey    string `yaml:"api_key"    env:"GARDEROBA_AI_API_KEY"`
	BaseURL   string `yaml:"base_url"   env:"GARDEROBA_AI_BASE_URL"`
	Model     string `yaml:"model"      env:"GARDEROBA_AI_MODEL"      env-default:"claude-sonnet-4-5"`
	MaxTokens int64  `yaml:"max_tokens" env:"GARDEROBA_AI_MAX_TOKENS" env-default:"4096"`
	// Timeout bounds a single AI call; zero means no limit beyond the request.
	Timeout time.Duration `yaml:"timeout" env:"GARDEROBA_AI_TIMEOUT" env-default:"0s"`
	// RateLimit is the sustained number of AI calls per minute per user.
	RateLimit float64 `yaml:"rate_limit" env:"GARDEROBA_AI_RATE_LIMIT" env-default:"10"`
	RateBurst int     `yaml:"rate_burst" env:"GARDEROBA_AI_RATE_BURST" env-default:"5"`
}

// TriageConfig holds triage session storage settings.
type TriageConfig struct {
	// RedisAddr selects Redis for sessions; empty keeps them in memory.
	RedisAddr     string        `yaml:"redis_addr"     env:"GARDEROBA_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"GARDEROBA_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db"       env:"GARDEROBA_REDIS_DB"       env-default:"0"`
	SessionTTL    time.Duration `yaml:"session_ttl"    env:"GARDEROBA_TRIAGE_TTL"     env-default:"24h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"GARDEROBA_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"GARDEROBA_LOG_FORMAT" env-default:"text"`
	// Path additionally writes every log line to a file.
	Path string `yaml:"path" env:"GARDEROBA_LOG_FILE"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. An empty path falls back to
// GARDEROBA_CONFIG; with neither set only ENV and defaults are used.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("GARDEROBA_CONFIG")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.AI.MaxTokens <= 0 {
		errs = append(errs, errors.New("ai.max_tokens must be positive"))
	}
	if c.AI.Timeout < 0 {
		errs = append(errs, errors.New("ai.timeout must not be negative"))
	}
	if c.AI.RateLimit < 0 || c.AI.RateBurst < 0 {
		errs = append(errs, errors.New("ai.rate_limit and ai.rate_burst must not be negative"))
	}
	if c.Triage.SessionTTL <= 0 {
		errs = append(errs, errors.New("triage.session_ttl must be positive"))
	}

	return errors.Join(errs...)
}
