package main

import (
	"net/http"
	"sync"
	"time"

	"presencebot/internal/history"
	"presencebot/internal/monitor"
)

// AppContext holds the application dependencies shared by the bot handlers
// and the background jobs.
type AppContext struct {
	Config       *Config
	History      *history.Store
	Status       *monitor.Status
	Chat         *ChatBinding
	Healthchecks *HealthchecksState
	Location     *time.Location
	HTTP         *http.Client

	// ProcStats is swapped in tests.
	ProcStats func() (ProcessStats, error)
	Now       func() time.Time
}

// HealthchecksStats is a point-in-time copy of the pinger counters.
type HealthchecksStats struct {
	TotalPings      int
	FailedPings     int
	LastPingTime    time.Time
	LastPingSuccess bool
	LastError       string
}

// HealthchecksState tracks the healthchecks.io pinger.
type HealthchecksState struct {
	mu    sync.Mutex
	stats HealthchecksStats
}

// InitApp initializes the application context
func InitApp(cfg *Config, store *history.Store, status *monitor.Status) *AppContext {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        5,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &AppContext{
		Config:       cfg,
		History:      store,
		Status:       status,
		Chat:         NewChatBinding(cfg.ChatID, cfg.EnvFile),
		Healthchecks: &HealthchecksState{},
		Location:     cfg.location(),
		HTTP:         httpClient,
		ProcStats:    readProcessStats,
		Now:          time.Now,
	}
}

func (ctx *AppContext) now() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return ctx.Now()
}

func (h *HealthchecksState) record(ok bool, errMsg string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.TotalPings++
	if !ok {
		h.stats.FailedPings++
	}
	h.stats.LastPingTime = at
	h.stats.LastPingSuccess = ok
	h.stats.LastError = errMsg
}

func (h *HealthchecksState) Snapshot() HealthchecksStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
