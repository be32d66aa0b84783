package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version    string                    `mapstructure:"version"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Models     map[string]ModelConfig    `mapstructure:"models"`
	Agent      AgentConfig               `mapstructure:"agent"`
	Judge      JudgeConfig               `mapstructure:"judge"`
	Evaluation EvaluationConfig          `mapstructure:"evaluation"`
	Tools      ToolsConfig               `mapstructure:"tools"`
	Logging    LoggingConfig             `mapstructure:"logging"`
	Server     ServerConfig              `mapstructure:"server"`
}

// ProviderConfig represents LLM provider configuration such as Anthropic or an
// OpenAI-compatible gateway.
type ProviderConfig struct {
	Type    string        `mapstructure:"type"`     // anthropic, openai, custom
	BaseURL string        `mapstructure:"base_url"` // API base URL (optional for anthropic)
	APIKey  string        `mapstructure:"api_key"`  // API key
	Timeout time.Duration `mapstructure:"timeout"`  // request timeout
}

// ModelConfig binds a logical model name to a provider entry and model parameters.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Default     bool    `mapstructure:"default"`
}

// AgentConfig describes the primary chat agent runtime parameters.
type AgentConfig struct {
	SystemPrompt  string  `mapstructure:"system_prompt"`
	MaxToolRounds int     `mapstructure:"max_tool_rounds"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature"`
}

// JudgeConfig selects the secondary scoring agent.
type JudgeConfig struct {
	Model          string `mapstructure:"model"` // logical model name, empty = registry default
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EvaluationConfig controls the post-response evaluation pipeline.
type EvaluationConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Dir     string   `mapstructure:"dir"`   // ledger directory, one JSON file per session
	Tools   []string `mapstructure:"tools"` // tool names whose returns qualify as evidence
}

// ToolsConfig configures the agent-facing tools.
type ToolsConfig struct {
	EnableWebSearch      bool     `mapstructure:"enable_web_search"`
	SearchTimeoutSeconds int      `mapstructure:"search_timeout_seconds"`
	NewsCommand          []string `mapstructure:"news_command"` // argv for the news-search subprocess
	NewsTimeoutSeconds   int      `mapstructure:"news_timeout_seconds"`
	EnableExport         bool     `mapstructure:"enable_export"`
	DataDir              string   `mapstructure:"data_dir"` // CSV exports land here
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	CORSEnabled    bool   `mapstructure:"cors_enabled"`
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: DUVO_, dots replaced with underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DUVO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			v.SetConfigName("config.example")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("agent.max_tool_rounds", 6)
	v.SetDefault("agent.max_tokens", 2048)
	v.SetDefault("agent.temperature", 0.2)

	v.SetDefault("judge.model", "")
	v.SetDefault("judge.timeout_seconds", 120)

	v.SetDefault("evaluation.enabled", true)
	v.SetDefault("evaluation.dir", "data/evaluations")
	v.SetDefault("evaluation.tools", []string{"search_hackernews"})

	v.SetDefault("tools.enable_web_search", true)
	v.SetDefault("tools.search_timeout_seconds", 30)
	v.SetDefault("tools.news_command", []string{})
	v.SetDefault("tools.news_timeout_seconds", 60)
	v.SetDefault("tools.enable_export", true)
	v.SetDefault("tools.data_dir", "data")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.cors_enabled", true)
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	if len(c.Models) == 0 {
		return errors.New("at least one model must be defined")
	}

	for name, p := range c.Providers {
		switch strings.ToLower(strings.TrimSpace(p.Type)) {
		case "anthropic", "openai", "custom":
		case "":
			return fmt.Errorf("provider %q must define type", name)
		default:
			return fmt.Errorf("provider %q has unsupported type %q", name, p.Type)
		}
	}

	var defaultFound bool
	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q must reference provider", name)
		}

		if _, ok := c.Providers[m.Provider]; !ok {
			return fmt.Errorf("model %q references unknown provider %q", name, m.Provider)
		}

		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("model %q temperature must be within [0,2]", name)
		}

		if m.MaxTokens < 0 {
			return fmt.Errorf("model %q max_tokens cannot be negative", name)
		}

		if m.Default {
			defaultFound = true
		}
	}

	if !defaultFound {
		return errors.New("at least one model should be marked as default")
	}

	if c.Agent.MaxToolRounds <= 0 {
		return errors.New("agent.max_tool_rounds must be > 0")
	}

	if judgeModel := strings.TrimSpace(c.Judge.Model); judgeModel != "" {
		if _, ok := c.Models[judgeModel]; !ok {
			return fmt.Errorf("judge references unknown model %q", judgeModel)
		}
	}
	if c.Judge.TimeoutSeconds < 0 {
		return errors.New("judge.timeout_seconds must be >= 0")
	}

	if c.Evaluation.Enabled {
		if strings.TrimSpace(c.Evaluation.Dir) == "" {
			return errors.New("evaluation.dir must be set when evaluation is enabled")
		}
		if len(c.Evaluation.Tools) == 0 {
			return errors.New("evaluation.tools must list at least one tool name when evaluation is enabled")
		}
	}

	if c.Tools.SearchTimeoutSeconds <= 0 {
		return errors.New("tools.search_timeout_seconds must be > 0")
	}
	if c.Tools.NewsTimeoutSeconds <= 0 {
		return errors.New("tools.news_timeout_seconds must be > 0")
	}
	if c.Tools.EnableExport && strings.TrimSpace(c.Tools.DataDir) == "" {
		return errors.New("tools.data_dir must be set when export is enabled")
	}

	return nil
}
