package main

// Config holds all configuration from config.json and the environment.
type Config struct {
	BotToken string `json:"bot_token"`
	// ChatID is the destination chat; 0 until claimed with /start.
	ChatID int64 `json:"chat_id"`
	// EnvFile receives CHAT_ID when a chat is claimed. Set from --env-file.
	EnvFile string `json:"-"`

	Telegram     TelegramConfig     `json:"telegram"`
	Target       TargetConfig       `json:"target"`
	Timezone     string             `json:"timezone"`
	Monitor      MonitorConfig      `json:"monitor"`
	History      HistoryConfig      `json:"history"`
	Logging      LoggingConfig      `json:"logging"`
	DailyReport  DailyReportConfig  `json:"daily_report"`
	Healthchecks HealthchecksConfig `json:"healthchecks"`
	HTTP         HTTPConfig         `json:"http"`
}

type TelegramConfig struct {
	APIID         int    `json:"api_id"`
	APIHash       string `json:"api_hash"`
	SessionString string `json:"session_string"`
	SessionFile   string `json:"session_file"`
}

// TargetConfig selects the watched account: by user id, or by a substring of
// a contact's name.
type TargetConfig struct {
	UserID  int64  `json:"user_id"`
	Contact string `json:"contact"`
	// Name is shown in alerts; defaults to the subject.
	Name string `json:"name"`
}

type MonitorConfig struct {
	CheckIntervalSeconds  int `json:"check_interval_seconds"`
	BackoffFloorSeconds   int `json:"backoff_floor_seconds"`
	BackoffCeilingSeconds int `json:"backoff_ceiling_seconds"`
	AuthCooldownSeconds   int `json:"auth_cooldown_seconds"`
	// CallTimeoutSeconds bounds each Telegram request; expiry counts as a
	// lost connection.
	CallTimeoutSeconds     int `json:"call_timeout_seconds"`
	ReconnectWindowSeconds int `json:"reconnect_window_seconds"`
}

type HistoryConfig struct {
	File     string `json:"file"`
	Capacity int    `json:"capacity"`
	PageSize int    `json:"page_size"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type DailyReportConfig struct {
	Enabled bool `json:"enabled"`
	// Cron is a standard 5-field spec evaluated in Timezone.
	Cron string `json:"cron"`
}

type HealthchecksConfig struct {
	Enabled       bool   `json:"enabled"`
	PingURL       string `json:"ping_url"`
	PeriodSeconds int    `json:"period_seconds"`
}

type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}
