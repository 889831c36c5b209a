// Package core implements the message routing engine for multibot.
//
// The core package connects IM platform adapters with registered intent
// handlers. It handles:
//
//   - Configuration loading and validation (from YAML files)
//   - Keyword resolution: normalized text scored against handler keyword groups
//   - Message caching with TTL eviction backed by the document store
//   - Penalty scheduling (bans and mutes with deferred reversal)
//   - Graceful shutdown and cleanup
//
// # Main Components
//
//   - Engine: central dispatch loop
//   - Registry: handler registration and keyword normalization
//   - Resolver: fuzzy keyword scoring and ambiguity detection
//   - Config: configuration structure and loading
//
// # Example Configuration
//
//   store:
//     path: "multibot.db"
//   bots:
//     discord:
//       enabled: true
//       token: "your-bot-token"
//     twitch:
//       enabled: true
//       username: "mybot"
//       token: "oauth:..."
//       channels: ["mychannel"]
//   logging:
//     level: "info"
//     file: "multibot.log"
package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/pkg/constants"
)

const (
	DefaultLogLevel        = "info"
	DefaultLogMaxSize      = 100 // MB
	DefaultLogMaxBackups   = 5
	DefaultLogMaxAge       = 30 // days
	DefaultLogCompress     = true
	DefaultLogEnableStdout = true

	DefaultStorePath = "multibot.db"
)

// Config is the root configuration document.
type Config struct {
	Store    StoreConfig          `yaml:"store"`
	Matching MatchingConfig       `yaml:"matching"`
	Cache    CacheConfig          `yaml:"cache"`
	Penalty  PenaltyConfig        `yaml:"penalty"`
	Bots     map[string]BotConfig `yaml:"bots"`
	Logging  logger.Config        `yaml:"logging"`
}

// StoreConfig selects the document store backing file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// MatchingConfig tunes the keyword resolver.
type MatchingConfig struct {
	MinScore        float64 `yaml:"min_score"`        // per-word similarity floor, 0..1
	ScoreThreshold  float64 `yaml:"score_threshold"`  // minimum callback score to win
	StrictAmbiguity bool    `yaml:"strict_ambiguity"` // reply asking to rephrase on ties
}

// CacheConfig tunes the message cache.
type CacheConfig struct {
	TTL           string `yaml:"ttl"`            // e.g. "168h"
	SweepInterval string `yaml:"sweep_interval"` // e.g. "1h"
}

// PenaltyConfig tunes the ban/mute scheduler.
type PenaltyConfig struct {
	SweepInterval  string `yaml:"sweep_interval"`  // e.g. "1h"
	DeferThreshold string `yaml:"defer_threshold"` // reversals closer than this run in-process
}

// BotConfig represents one platform bot's credentials.
type BotConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Token    string   `yaml:"token"`
	Username string   `yaml:"username"` // Twitch: IRC nick
	Channels []string `yaml:"channels"` // Twitch: channels to join
}

// LoadConfig loads configuration from file and expands environment variables.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values.
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

// validateConfig fills defaults and rejects configurations the engine
// cannot run with.
func validateConfig(config *Config) error {
	if config.Store.Path == "" {
		config.Store.Path = DefaultStorePath
	}

	if config.Matching.MinScore == 0 {
		config.Matching.MinScore = constants.DefaultCallbackMinScore
	}
	if config.Matching.MinScore < 0 || config.Matching.MinScore > 1 {
		return fmt.Errorf("matching.min_score must be between 0 and 1 (got %v)", config.Matching.MinScore)
	}
	if config.Matching.ScoreThreshold == 0 {
		config.Matching.ScoreThreshold = constants.MinimumScoreToMatch
	}

	if config.Cache.TTL == "" {
		config.Cache.TTL = constants.MessageCacheTTL.String()
	}
	if config.Cache.SweepInterval == "" {
		config.Cache.SweepInterval = constants.MessageCacheSweepInterval.String()
	}
	if config.Penalty.SweepInterval == "" {
		config.Penalty.SweepInterval = constants.PenaltySweepInterval.String()
	}
	if config.Penalty.DeferThreshold == "" {
		config.Penalty.DeferThreshold = constants.ManualUnpunishThreshold.String()
	}
	for name, raw := range map[string]string{
		"cache.ttl":               config.Cache.TTL,
		"cache.sweep_interval":    config.Cache.SweepInterval,
		"penalty.sweep_interval":  config.Penalty.SweepInterval,
		"penalty.defer_threshold": config.Penalty.DeferThreshold,
	} {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive (got %v)", name, d)
		}
	}

	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = DefaultLogMaxAge
	}
	if !config.Logging.Compress {
		config.Logging.Compress = DefaultLogCompress
	}
	if !config.Logging.EnableStdout {
		config.Logging.EnableStdout = DefaultLogEnableStdout
	}

	enabled := 0
	for name, bot := range config.Bots {
		if !bot.Enabled {
			continue
		}
		enabled++
		platform := models.Platform(name)
		if !platform.Valid() {
			return fmt.Errorf("unknown bot platform %q", name)
		}
		if bot.Token == "" {
			return fmt.Errorf("bots.%s.token is required", name)
		}
		if platform == models.PlatformTwitch && bot.Username == "" {
			return fmt.Errorf("bots.twitch.username is required")
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one bot must be enabled")
	}

	return nil
}

// GetBotConfig retrieves configuration for a specific bot.
func (c *Config) GetBotConfig(platform models.Platform) (BotConfig, error) {
	bot, exists := c.Bots[platform.String()]
	if !exists {
		return BotConfig{}, fmt.Errorf("bot platform %s not found in configuration", platform)
	}

	if !bot.Enabled {
		return BotConfig{}, fmt.Errorf("bot platform %s is disabled", platform)
	}

	return bot, nil
}

// CacheTTL returns the parsed cache TTL. Call after validation.
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}

// CacheSweepInterval returns the parsed cache sweep interval.
func (c *Config) CacheSweepInterval() time.Duration {
	d, _ := time.ParseDuration(c.Cache.SweepInterval)
	return d
}

// PenaltySweepInterval returns the parsed penalty sweep interval.
func (c *Config) PenaltySweepInterval() time.Duration {
	d, _ := time.ParseDuration(c.Penalty.SweepInterval)
	return d
}

// PenaltyDeferThreshold returns the parsed deferred-reversal threshold.
func (c *Config) PenaltyDeferThreshold() time.Duration {
	d, _ := time.ParseDuration(c.Penalty.DeferThreshold)
	return d
}
