package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type (
	Config struct {
		TelegramAPIToken string `env:"TOKEN,required"`
		LogLevel         int    `env:"LOG_LEVEL,default=4"`
		DotPath          string `env:"DOT_PATH,default=~/.floodgate"`
		DBPath           string `env:"DB_PATH,default=floodgate.db"`
		MetricsAddr      string `env:"METRICS_ADDR,default=:2112"`

		AdminIDs       []int64 `env:"ADMIN_IDS"`
		WhitelistedIDs []int64 `env:"WHITELISTED_IDS"`

		NotifyAdmins       bool  `env:"NOTIFY_ADMINS,default=true"`
		NotificationChatID int64 `env:"NOTIFICATION_CHAT"`

		Flood      Flood
		Escalation Escalation

		ActuatorTimeout time.Duration `env:"ACTUATOR_TIMEOUT,default=10s"`
	}

	Flood struct {
		Window      time.Duration `env:"FLOOD_WINDOW,default=10s"`
		MaxMessages int           `env:"FLOOD_MAX_MESSAGES,default=5"`
	}

	Escalation struct {
		// Ladder maps the n-th violation to a mute duration, clamping at
		// the last rung.
		Ladder []time.Duration `env:"ESCALATION_LADDER,default=1h,6h,24h,168h"`

		// Lookback bounds which past violations feed the escalation
		// ordinal; MutedRecency bounds the "currently muted" answer. The
		// two are intentionally independent knobs.
		Lookback     time.Duration `env:"ESCALATION_LOOKBACK,default=720h"`
		MutedRecency time.Duration `env:"MUTED_RECENCY,default=24h"`

		DeactivateAfter time.Duration `env:"DEACTIVATE_AFTER,default=24h"`
		Retention       time.Duration `env:"RETENTION,default=2160h"`
	}
)

func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper("FG_", envconfig.OsLookuper()),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get user home directory: %w", err)
	}
	cfg.DotPath = strings.Replace(cfg.DotPath, "~", home, 1)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the core refuses to run with. Called
// eagerly at startup, never re-checked afterwards.
func (c *Config) Validate() error {
	if c.Flood.Window <= 0 {
		return fmt.Errorf("invalid config: flood window must be positive, got %s", c.Flood.Window)
	}
	if c.Flood.MaxMessages <= 0 {
		return fmt.Errorf("invalid config: flood max messages must be positive, got %d", c.Flood.MaxMessages)
	}
	if len(c.Escalation.Ladder) == 0 {
		return fmt.Errorf("invalid config: escalation ladder must not be empty")
	}
	for i, rung := range c.Escalation.Ladder {
		if rung <= 0 {
			return fmt.Errorf("invalid config: escalation ladder rung %d must be positive, got %s", i, rung)
		}
	}
	if c.Escalation.Lookback <= 0 {
		return fmt.Errorf("invalid config: escalation lookback must be positive, got %s", c.Escalation.Lookback)
	}
	if c.Escalation.MutedRecency <= 0 {
		return fmt.Errorf("invalid config: muted recency must be positive, got %s", c.Escalation.MutedRecency)
	}
	if c.Escalation.Retention <= 0 {
		return fmt.Errorf("invalid config: retention must be positive, got %s", c.Escalation.Retention)
	}
	return nil
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) IsWhitelisted(userID int64) bool {
	for _, id := range c.WhitelistedIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsExempt reports whether a user bypasses flood tracking entirely.
func (c *Config) IsExempt(userID int64) bool {
	return c.IsAdmin(userID) || c.IsWhitelisted(userID)
}
