package main

import (
	"presencebot/internal/history"
	"presencebot/internal/monitor"
	"presencebot/internal/userbot"
)

const (
	defaultConfigPath = "config.json"
	defaultEnvFile    = ".env"
	defaultTimezone   = "Europe/Moscow"
)

func defaultConfigTemplate() Config {
	return Config{
		EnvFile:  defaultEnvFile,
		Timezone: defaultTimezone,
		Telegram: TelegramConfig{SessionFile: "status_monitor_session.json"},
		Monitor: MonitorConfig{
			CheckIntervalSeconds:   int(monitor.DefaultInterval.Seconds()),
			BackoffFloorSeconds:    int(monitor.DefaultBackoffFloor.Seconds()),
			BackoffCeilingSeconds:  int(monitor.DefaultBackoffCeiling.Seconds()),
			AuthCooldownSeconds:    int(monitor.DefaultAuthCooldown.Seconds()),
			CallTimeoutSeconds:     int(userbot.DefaultCallTimeout.Seconds()),
			ReconnectWindowSeconds: int(userbot.DefaultReconnectWindow.Seconds()),
		},
		History: HistoryConfig{
			File:     "activity_history.json",
			Capacity: history.DefaultCapacity,
			PageSize: history.DefaultPageSize,
		},
		Logging:      LoggingConfig{Level: "info"},
		DailyReport:  DailyReportConfig{Enabled: false, Cron: "0 23 * * *"},
		Healthchecks: HealthchecksConfig{Enabled: false, PeriodSeconds: 60},
		HTTP:         HTTPConfig{Enabled: false, Addr: ":8080"},
	}
}

// applyConfigDefaults fills zero values left by a partial config file.
func applyConfigDefaults(cfg *Config) {
	def := defaultConfigTemplate()
	if cfg.EnvFile == "" {
		cfg.EnvFile = def.EnvFile
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.Monitor.CheckIntervalSeconds == 0 {
		cfg.Monitor.CheckIntervalSeconds = def.Monitor.CheckIntervalSeconds
	}
	if cfg.Monitor.BackoffFloorSeconds == 0 {
		cfg.Monitor.BackoffFloorSeconds = def.Monitor.BackoffFloorSeconds
	}
	if cfg.Monitor.BackoffCeilingSeconds == 0 {
		cfg.Monitor.BackoffCeilingSeconds = def.Monitor.BackoffCeilingSeconds
	}
	if cfg.Monitor.AuthCooldownSeconds == 0 {
		cfg.Monitor.AuthCooldownSeconds = def.Monitor.AuthCooldownSeconds
	}
	if cfg.Monitor.CallTimeoutSeconds == 0 {
		cfg.Monitor.CallTimeoutSeconds = def.Monitor.CallTimeoutSeconds
	}
	if cfg.Monitor.ReconnectWindowSeconds == 0 {
		cfg.Monitor.ReconnectWindowSeconds = def.Monitor.ReconnectWindowSeconds
	}
	if cfg.History.File == "" {
		cfg.History.File = def.History.File
	}
	if cfg.History.Capacity == 0 {
		cfg.History.Capacity = def.History.Capacity
	}
	if cfg.History.PageSize == 0 {
		cfg.History.PageSize = def.History.PageSize
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.DailyReport.Cron == "" {
		cfg.DailyReport.Cron = def.DailyReport.Cron
	}
	if cfg.Healthchecks.PeriodSeconds == 0 {
		cfg.Healthchecks.PeriodSeconds = def.Healthchecks.PeriodSeconds
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = def.HTTP.Addr
	}
}
