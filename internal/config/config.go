// Package config loads and validates the application configuration from
// defaults, an optional config.yaml, and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config holds every tunable of the bot. Values come from config.yaml and
// BOT_* environment variables (e.g. BOT_TELEGRAM_TOKEN); defaults cover all
// optional fields.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	ERPNext   ERPNextConfig   `mapstructure:"erpnext"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Drafts    DraftsConfig    `mapstructure:"drafts"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig covers the bot identity and admin gating.
type TelegramConfig struct {
	Token        string  `mapstructure:"token"          validate:"required"`
	AdminUserIDs []int64 `mapstructure:"admin_user_ids" validate:"required,min=1,dive,gt=0"`

	// BotInfo is populated at startup via GetMe, not from configuration.
	BotInfo *models.User `mapstructure:"-"`
}

// IsAdmin reports whether the given Telegram user id is a configured admin.
func (c *TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}

	return false
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ERPNextConfig configures the external ERPNext instance. BaseURL may be
// empty: credential verification is then skipped and item creation stays
// disabled until an URL is configured.
type ERPNextConfig struct {
	BaseURL        string   `mapstructure:"base_url"        validate:"omitempty,url"`
	VerifyEndpoint string   `mapstructure:"verify_endpoint" validate:"required"`
	ReportResource string   `mapstructure:"report_resource" validate:"required"`
	ReportFields   []string `mapstructure:"report_fields"   validate:"required,min=1,dive,required"`
	ReportLimit    int      `mapstructure:"report_limit"    validate:"required,min=1,max=100"`
	CustomerGroup  string   `mapstructure:"customer_group"  validate:"required"`
	CustomerType   string   `mapstructure:"customer_type"   validate:"required"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// SchedulerConfig maps task names from the task registry to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a registered task and assigns its cron schedule
// (six-field cron, seconds first).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// DraftsConfig bounds how long an untouched item draft survives before the
// cleanup task removes it.
type DraftsConfig struct {
	MaxAge time.Duration `mapstructure:"max_age" validate:"required,min=1h"`
}

// Load reads configuration in precedence order (defaults, config.yaml, BOT_*
// environment variables) and validates the result.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound, so the
	// required settings are bound explicitly for env-only deployments.
	for _, key := range []string{"telegram.token", "telegram.admin_user_ids", "erpnext.base_url"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment key %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		slog.Info("No config file found, using defaults and environment")
	}

	cfg := &Config{}

	// Weak typing lets comma separated admin IDs from the environment decode
	// into the int64 slice.
	weakDecode := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weakDecode); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Debug("Configuration loaded",
		"database_path", cfg.Database.Path,
		"erpnext_configured", cfg.ERPNext.BaseURL != "",
		"admin_count", len(cfg.Telegram.AdminUserIDs),
		"log_level", cfg.Logger.Level)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "salesbridge.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("erpnext.verify_endpoint", "/api/method/frappe.auth.get_logged_user")
	v.SetDefault("erpnext.report_resource", "Lead")
	v.SetDefault("erpnext.report_fields", []string{"name", "owner", "status", "creation"})
	v.SetDefault("erpnext.report_limit", 5)
	v.SetDefault("erpnext.customer_group", "Commercial")
	v.SetDefault("erpnext.customer_type", "Company")

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 0 4 * * *")
	v.SetDefault("scheduler.tasks.draft_cleanup.enabled", true)
	v.SetDefault("scheduler.tasks.draft_cleanup.schedule", "0 30 * * * *")

	v.SetDefault("drafts.max_age", 48*time.Hour)

	setMessageDefaults(v)
}
