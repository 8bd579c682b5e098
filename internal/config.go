package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	GitHub    GitHubConfig      `yaml:"github"`
	Knowledge KnowledgeConfig   `yaml:"knowledge"`
	SSE       SSEConfig         `yaml:"sse"`
}

// ApplyEnv overrides file values with GITHUB_TOKEN, GITHUB_USERNAME and PORT
// when they are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_USERNAME"); v != "" {
		c.GitHub.Username = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.App.HTTP.Port = port
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.GitHub.Validate(); err != nil {
		return fmt.Errorf("github: %w", err)
	}
	return c.Knowledge.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return err
	}
	return c.RateLimit.Validate()
}

// RateLimitConfig bounds inbound request rate. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RPS, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
	)
}

// GitHubConfig holds GitHub API access settings.
type GitHubConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Username string        `yaml:"username"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Username, validation.Required.Error("GITHUB_USERNAME is not configured")),
		validation.Field(&c.Token, validation.Required.Error("GITHUB_TOKEN is not configured")),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// KnowledgeConfig holds the values repository links are synthesized from.
type KnowledgeConfig struct {
	ExampleRepository string `yaml:"example_repository"`
	DefaultBranch     string `yaml:"default_branch"`
	DevelopmentURL    string `yaml:"development_url"`
	ProductionURL     string `yaml:"production_url"`
	DocsBaseURL       string `yaml:"docs_base_url"`
}

// Validate validates the knowledge configuration.
func (c *KnowledgeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ExampleRepository, validation.Required),
		validation.Field(&c.DefaultBranch, validation.Required),
		validation.Field(&c.DevelopmentURL, validation.Required),
		validation.Field(&c.ProductionURL, validation.Required),
		validation.Field(&c.DocsBaseURL, validation.Required),
	)
}

// SSEConfig holds Server-Sent Events settings.
type SSEConfig struct {
	// Throttle is the minimum interval between knowledge.updated events.
	Throttle time.Duration `yaml:"throttle"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 10000,
			},
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
			Timeout: 15 * time.Second,
		},
		Knowledge: KnowledgeConfig{
			ExampleRepository: "ansuz",
			DefaultBranch:     "Dev",
			DevelopmentURL:    "http://localhost:10000",
			ProductionURL:     "https://ansuz.onrender.com",
			DocsBaseURL:       "https://ansuz.onrender.com/docs",
		},
		SSE: SSEConfig{
			Throttle: 2 * time.Second,
		},
	}
}
