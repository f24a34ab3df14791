// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/logger"
)

// ServerConfig holds HTTP server settings for webhook mode.
type ServerConfig struct {
	Port       string
	MaxWorkers int
}

// GitHubConfig holds authentication material for the GitHub API.
// Token is used by the CLI; the App fields are used by webhook mode.
type GitHubConfig struct {
	Token          string
	WebhookSecret  string
	AppID          int64
	PrivateKeyPath string
}

// AgentConfig configures the reasoning-agent session.
type AgentConfig struct {
	// Backend selects how the agent is driven: "claude-cli" runs a
	// tool-using Claude Code session, "api" makes a single Anthropic
	// Messages call with no tool access.
	Backend      string
	Model        string
	MaxTurns     int
	Permission   string
	AllowedTools []string
	Command      string
	// APIKey authenticates the "api" backend. Unused by "claude-cli",
	// which relies on the CLI's own credentials.
	APIKey string
}

// ReviewConfig bounds the review input context.
type ReviewConfig struct {
	MaxDiffChars int
}

// DBConfig holds connection settings for the review audit log.
// The store is optional; an empty Host disables it.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig
	GitHub   GitHubConfig
	Agent    AgentConfig
	Review   ReviewConfig
	Database DBConfig
	Logger   logger.Config
}

// Load reads configuration from environment variables and an optional
// config.yaml file, sets sensible defaults, and validates required fields.
// Precedence is handled by Viper: explicit env vars win over file values.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_workers", 4)
	v.SetDefault("github.private_key_path", "keys/pr-warden-app.private-key.pem")
	v.SetDefault("agent.backend", "claude-cli")
	v.SetDefault("agent.model", "claude-sonnet-4-20250514")
	v.SetDefault("agent.max_turns", 25)
	v.SetDefault("agent.permission", "acceptEdits")
	v.SetDefault("agent.allowed_tools", []string{"Read", "Grep", "Glob"})
	v.SetDefault("agent.command", "claude")
	v.SetDefault("review.max_diff_chars", 120_000)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stdout")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:       v.GetString("server.port"),
			MaxWorkers: v.GetInt("server.max_workers"),
		},
		GitHub: GitHubConfig{
			Token:          v.GetString("github.token"),
			WebhookSecret:  v.GetString("github.webhook_secret"),
			AppID:          v.GetInt64("github.app_id"),
			PrivateKeyPath: v.GetString("github.private_key_path"),
		},
		Agent: AgentConfig{
			Backend:      v.GetString("agent.backend"),
			Model:        v.GetString("agent.model"),
			MaxTurns:     v.GetInt("agent.max_turns"),
			Permission:   v.GetString("agent.permission"),
			AllowedTools: v.GetStringSlice("agent.allowed_tools"),
			Command:      v.GetString("agent.command"),
			APIKey:       v.GetString("agent.api_key"),
		},
		Review: ReviewConfig{
			MaxDiffChars: v.GetInt("review.max_diff_chars"),
		},
		Database: DBConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			Username:        v.GetString("database.username"),
			Password:        v.GetString("database.password"),
			Database:        v.GetString("database.database"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
		},
		Logger: logger.Config{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
			Output: v.GetString("logger.output"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Agent.Backend {
	case "claude-cli":
	case "api":
		if c.Agent.APIKey == "" {
			return fmt.Errorf("agent.api_key must be set for the api backend")
		}
	default:
		return fmt.Errorf("unsupported agent backend: %q", c.Agent.Backend)
	}
	if c.Agent.MaxTurns <= 0 {
		return fmt.Errorf("agent.max_turns must be positive, got %d", c.Agent.MaxTurns)
	}
	if c.Review.MaxDiffChars <= 0 {
		return fmt.Errorf("review.max_diff_chars must be positive, got %d", c.Review.MaxDiffChars)
	}
	return nil
}

// HasDatabase reports whether the optional review audit log is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.Host != ""
}

// ValidateWebhook checks the fields webhook mode cannot run without.
func (c *Config) ValidateWebhook() error {
	if c.GitHub.AppID == 0 {
		return fmt.Errorf("PW_GITHUB_APP_ID must be set")
	}
	if c.GitHub.WebhookSecret == "" {
		return fmt.Errorf("PW_GITHUB_WEBHOOK_SECRET must be set")
	}
	return nil
}
