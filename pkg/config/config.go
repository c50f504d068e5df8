package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Companion    CompanionConfig    `json:"companion"`
	Providers    ProvidersConfig    `json:"providers"`
	Classifier   ClassifierConfig   `json:"classifier"`
	Channels     ChannelsConfig     `json:"channels"`
	Gateway      GatewayConfig      `json:"gateway"`
	Orchestrator OrchestratorConfig `json:"orchestrator"`
	Habits       HabitsConfig       `json:"habits"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
	mu           sync.RWMutex
}

type CompanionConfig struct {
	Workspace    string `json:"workspace" env:"RITMO_COMPANION_WORKSPACE"`
	Model        string `json:"model" env:"RITMO_COMPANION_MODEL"`
	MaxTokens    int    `json:"max_tokens" env:"RITMO_COMPANION_MAX_TOKENS"`
	ReplyWordCap int    `json:"reply_word_cap" env:"RITMO_COMPANION_REPLY_WORD_CAP"`
	MemoryDepth  int    `json:"memory_depth" env:"RITMO_COMPANION_MEMORY_DEPTH"`
}

type ProvidersConfig struct {
	Anthropic AnthropicConfig `json:"anthropic"`
}

type AnthropicConfig struct {
	APIKey         string `json:"api_key" env:"RITMO_PROVIDERS_ANTHROPIC_API_KEY"`
	APIBase        string `json:"api_base" env:"RITMO_PROVIDERS_ANTHROPIC_API_BASE"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"RITMO_PROVIDERS_ANTHROPIC_TIMEOUT_SECONDS"`
}

// ClassifierConfig points at the trained risk-classifier sidecar. An empty
// URL disables the remote path and the heuristic predictor runs alone.
type ClassifierConfig struct {
	URL            string `json:"url" env:"RITMO_CLASSIFIER_URL"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"RITMO_CLASSIFIER_TIMEOUT_SECONDS"`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	Token     string   `json:"token" env:"RITMO_CHANNELS_DISCORD_TOKEN"`
	AllowFrom []string `json:"allow_from" env:"RITMO_CHANNELS_DISCORD_ALLOW_FROM"`
}

type GatewayConfig struct {
	Host string `json:"host" env:"RITMO_GATEWAY_HOST"`
	Port int    `json:"port" env:"RITMO_GATEWAY_PORT"`
}

type OrchestratorConfig struct {
	QuietHoursStart string `json:"quiet_hours_start" env:"RITMO_ORCHESTRATOR_QUIET_HOURS_START"`
	QuietHoursEnd   string `json:"quiet_hours_end" env:"RITMO_ORCHESTRATOR_QUIET_HOURS_END"`
	// InactivityHighDays is the days-since-last-active threshold that flags
	// high risk on the heuristic path.
	InactivityHighDays int `json:"inactivity_high_days" env:"RITMO_ORCHESTRATOR_INACTIVITY_HIGH_DAYS"`
	LookbackDays       int `json:"lookback_days" env:"RITMO_ORCHESTRATOR_LOOKBACK_DAYS"`
}

type HabitsConfig struct {
	// CooldownDays is the minimum gap between habit nudges for one user.
	// Zero disables the cooldown.
	CooldownDays int `json:"cooldown_days" env:"RITMO_HABITS_COOLDOWN_DAYS"`
}

type SchedulerConfig struct {
	Enabled bool `json:"enabled" env:"RITMO_SCHEDULER_ENABLED"`
	// Cron is a gronx expression in server time; each tick triggers one
	// proactive evaluation per known user, evaluated in their local time.
	Cron string `json:"cron" env:"RITMO_SCHEDULER_CRON"`
}

func DefaultConfig() *Config {
	return &Config{
		Companion: CompanionConfig{
			Workspace:    "~/.ritmo/workspace",
			Model:        "claude-sonnet-4-5",
			MaxTokens:    300,
			ReplyWordCap: 80,
			MemoryDepth:  5,
		},
		Providers: ProvidersConfig{
			Anthropic: AnthropicConfig{
				TimeoutSeconds: 20,
			},
		},
		Classifier: ClassifierConfig{
			TimeoutSeconds: 5,
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Token:     "",
				AllowFrom: []string{},
			},
		},
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 18420,
		},
		Orchestrator: OrchestratorConfig{
			QuietHoursStart:    "22:00",
			QuietHoursEnd:      "06:00",
			InactivityHighDays: 5,
			LookbackDays:       14,
		},
		Habits: HabitsConfig{
			CooldownDays: 2,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
			Cron:    "0 * * * *", // hourly proactive sweep
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if envErr := env.Parse(cfg); envErr != nil {
				return nil, envErr
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) WorkspacePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Companion.Workspace)
}

func (c *Config) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Providers.Anthropic.APIKey
}

func (c *Config) APIBase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Providers.Anthropic.APIBase != "" {
		return c.Providers.Anthropic.APIBase
	}
	return "https://api.anthropic.com"
}

// Validate rejects configurations the gateway cannot run with.
func (c *Config) Validate() error {
	if c.Companion.MemoryDepth <= 0 {
		return fmt.Errorf("companion.memory_depth must be positive")
	}
	if c.Habits.CooldownDays < 0 {
		return fmt.Errorf("habits.cooldown_days must not be negative")
	}
	if _, err := ParseClockTime(c.Orchestrator.QuietHoursStart); err != nil {
		return fmt.Errorf("orchestrator.quiet_hours_start: %w", err)
	}
	if _, err := ParseClockTime(c.Orchestrator.QuietHoursEnd); err != nil {
		return fmt.Errorf("orchestrator.quiet_hours_end: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
