package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"presencebot/internal/monitor"
)

// loadEnvFile exports variables from an optional .env file. Variables already
// set in the process environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadConfig reads path (optional) over the defaults, applies environment
// overrides and validates the result.
func loadConfig(path string, getenv func(string) (string, bool)) (*Config, error) {
	cfg := defaultConfigTemplate()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		slog.Info("No config file, using defaults and environment", "path", path)
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnvOverrides(&cfg, getenv); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := getenv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := getenv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}
	int64v := func(key string, dst *int64) error {
		v, ok := getenv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("BOT_TOKEN", &cfg.BotToken)
	str("API_HASH", &cfg.Telegram.APIHash)
	str("SESSION_STRING", &cfg.Telegram.SessionString)
	str("SESSION_FILE", &cfg.Telegram.SessionFile)
	str("TARGET_CONTACT", &cfg.Target.Contact)
	str("TARGET_NAME", &cfg.Target.Name)
	str("HISTORY_FILE", &cfg.History.File)
	str("TIMEZONE", &cfg.Timezone)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FILE", &cfg.Logging.File)

	for _, err := range []error{
		int64v("CHAT_ID", &cfg.ChatID),
		integer("API_ID", &cfg.Telegram.APIID),
		int64v("TARGET_USER_ID", &cfg.Target.UserID),
		integer("CHECK_INTERVAL", &cfg.Monitor.CheckIntervalSeconds),
		integer("HISTORY_CAPACITY", &cfg.History.Capacity),
	} {
		if err != nil {
			return err
		}
	}

	if port, ok := getenv("PORT"); ok && strings.TrimSpace(port) != "" {
		cfg.HTTP.Enabled = true
		cfg.HTTP.Addr = ":" + strings.TrimSpace(port)
	}
	return nil
}

func (c *Config) validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("bot_token (BOT_TOKEN) is required"))
	}
	if c.Telegram.APIID == 0 || c.Telegram.APIHash == "" {
		errs = append(errs, errors.New("telegram api_id and api_hash (API_ID, API_HASH) are required"))
	}
	if c.Subject() == "" {
		errs = append(errs, errors.New("a target is required: target.user_id (TARGET_USER_ID) or target.contact (TARGET_CONTACT)"))
	}
	if c.Monitor.CheckIntervalSeconds <= 0 {
		errs = append(errs, errors.New("monitor.check_interval_seconds must be positive"))
	}
	if c.History.Capacity <= 0 {
		errs = append(errs, errors.New("history.capacity must be positive"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.Healthchecks.Enabled && c.Healthchecks.PingURL == "" {
		errs = append(errs, errors.New("healthchecks.ping_url is required when healthchecks are enabled"))
	}
	return errors.Join(errs...)
}

// Subject is the identifier handed to the presence source: the numeric user
// id when set, the contact name otherwise.
func (c *Config) Subject() string {
	if c.Target.UserID != 0 {
		return strconv.FormatInt(c.Target.UserID, 10)
	}
	return strings.TrimSpace(c.Target.Contact)
}

// SubjectLabel names the target in alerts.
func (c *Config) SubjectLabel() string {
	if c.Target.Name != "" {
		return c.Target.Name
	}
	return c.Subject()
}

func (c *Config) location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("Timezone not found, using UTC", "timezone", c.Timezone)
		return time.UTC
	}
	return loc
}

func (c *Config) monitorConfig() monitor.Config {
	return monitor.Config{
		Subject:        c.Subject(),
		SubjectLabel:   c.SubjectLabel(),
		Interval:       seconds(c.Monitor.CheckIntervalSeconds),
		BackoffFloor:   seconds(c.Monitor.BackoffFloorSeconds),
		BackoffCeiling: seconds(c.Monitor.BackoffCeilingSeconds),
		AuthCooldown:   seconds(c.Monitor.AuthCooldownSeconds),
		Location:       c.location(),
	}
}

// getConfigJSONSafe returns config JSON with credentials redacted.
func getConfigJSONSafe(c *Config) (string, error) {
	redacted := *c
	redacted.BotToken = ""
	redacted.Telegram.APIHash = ""
	redacted.Telegram.SessionString = ""
	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error serializing config: %w", err)
	}
	return string(data), nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
