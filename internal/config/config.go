// Package config loads process configuration from the environment, an
// optional .env file and an optional YAML rules file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/KirkDiggler/ludo/internal/models"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvRedisAddr         = "REDIS_ADDR"
	EnvRedisPassword     = "REDIS_PASSWORD"
	EnvDiscordToken      = "DISCORD_TOKEN"
	EnvApplicationID     = "APPLICATION_ID"
	EnvGuildID           = "GUILD_ID"
	EnvLogLevel          = "LOG_LEVEL"
	EnvSessionTTL        = "LUDO_SESSION_TTL"
	EnvRulesFile         = "LUDO_RULES_FILE"
	EnvThreeSixesForfeit = "LUDO_THREE_SIXES_FORFEIT"
	EnvFinishExtraTurn   = "LUDO_FINISH_EXTRA_TURN"
	EnvAutoMove          = "LUDO_AUTO_MOVE"
	EnvTone              = "LUDO_TONE"
)

// Defaults
const (
	DefaultRedisAddr  = "localhost:6379"
	DefaultLogLevel   = "info"
	DefaultSessionTTL = 24 * time.Hour
)

// Config is the process configuration shared by the binaries
type Config struct {
	RedisAddr     string
	RedisPassword string

	DiscordToken  string
	ApplicationID string
	GuildID       string

	LogLevel string

	// SessionTTL expires idle sessions and seats in Redis
	SessionTTL time.Duration

	// Rules are the defaults for new games
	Rules models.Rules

	// Tone is the preferred messaging tone
	Tone string
}

// LookupFunc reads one environment variable
type LookupFunc func(key string) (string, bool)

// Load reads the .env files (missing files are ignored) and then the process
// environment. Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a variable lookup
func FromLookup(lookup LookupFunc) (*Config, error) {
	cfg := &Config{
		RedisAddr:     getEnv(lookup, EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnv(lookup, EnvRedisPassword, ""),
		DiscordToken:  getEnv(lookup, EnvDiscordToken, ""),
		ApplicationID: getEnv(lookup, EnvApplicationID, ""),
		GuildID:       getEnv(lookup, EnvGuildID, ""),
		LogLevel:      getEnv(lookup, EnvLogLevel, DefaultLogLevel),
		SessionTTL:    DefaultSessionTTL,
		Rules:         models.DefaultRules(),
		Tone:          getEnv(lookup, EnvTone, ""),
	}

	if v, ok := lookup(EnvSessionTTL); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSessionTTL, err)
		}
		if ttl < 0 {
			return nil, fmt.Errorf("invalid %s: must not be negative", EnvSessionTTL)
		}
		cfg.SessionTTL = ttl
	}

	if path, ok := lookup(EnvRulesFile); ok && path != "" {
		rules, err := LoadRules(path, cfg.Rules)
		if err != nil {
			return nil, err
		}
		cfg.Rules = rules
	}

	toggles := []struct {
		key   string
		field *bool
	}{
		{EnvThreeSixesForfeit, &cfg.Rules.ThreeSixesForfeit},
		{EnvFinishExtraTurn, &cfg.Rules.FinishGrantsExtraTurn},
		{EnvAutoMove, &cfg.Rules.AutoMoveSingle},
	}
	for _, t := range toggles {
		v, ok := lookup(t.key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", t.key, err)
		}
		*t.field = b
	}

	return cfg, nil
}

// LoadRules overlays the toggles in a YAML file on base. Keys absent from
// the file keep their base value.
func LoadRules(path string, base models.Rules) (models.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data, base)
}

// ParseRules overlays YAML rule toggles on base
func ParseRules(data []byte, base models.Rules) (models.Rules, error) {
	rules := base
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return base, fmt.Errorf("failed to parse rules: %w", err)
	}
	return rules, nil
}

// NewLogger builds a zap logger for a level name. Debug uses the development
// encoder; anything else the production one.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zc zap.Config
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// getEnv gets an environment variable or returns a default value
func getEnv(lookup LookupFunc, key, defaultValue string) string {
	value, ok := lookup(key)
	if !ok || value == "" {
		return defaultValue
	}
	return value
}
