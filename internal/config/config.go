package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Ledger struct {
		ID            string `yaml:"id"             env:"LEDGER_ID"`
		Administrator string `yaml:"administrator"  env:"LEDGER_ADMIN"`
		StateFile     string `yaml:"state_file"     env:"LEDGER_STATE_FILE"`
	} `yaml:"ledger"`
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id"   env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Schedule struct {
		AuditCron      string `yaml:"audit_cron"      env:"CRON_AUDIT"`
		CheckpointCron string `yaml:"checkpoint_cron" env:"CRON_CHECKPOINT"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database"`
	Metrics struct {
		Listen string `yaml:"listen" env:"METRICS_LISTEN"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy" env:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Defaults
	if cfg.Ledger.ID == "" {
		cfg.Ledger.ID = "ninetydays"
	}
	if cfg.Ledger.StateFile == "" {
		cfg.Ledger.StateFile = "data/challenge_state.json"
	}
	if cfg.Schedule.AuditCron == "" {
		cfg.Schedule.AuditCron = "0 0 * * * *"
	}
	if cfg.Schedule.CheckpointCron == "" {
		cfg.Schedule.CheckpointCron = "0 */5 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/ninetydays.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Ledger.Administrator == "" {
		return fmt.Errorf("ledger.administrator is required")
	}
	if c.Ledger.Administrator == c.Ledger.ID {
		return fmt.Errorf("ledger.administrator must differ from ledger.id")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}
