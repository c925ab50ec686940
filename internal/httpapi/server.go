// Package httpapi exposes a read-only HTTP view of the monitor: liveness,
// operational counters and history.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"presencebot/internal/format"
	"presencebot/internal/history"
	"presencebot/internal/monitor"
)

type StatusReader interface {
	Snapshot() monitor.Snapshot
}

type HistoryReader interface {
	Page(index int) (history.Page, error)
	TodaySummary() (history.Summary, error)
}

type API struct {
	status  StatusReader
	history HistoryReader
	logger  *slog.Logger
	now     func() time.Time
}

func New(status StatusReader, hist HistoryReader, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{status: status, history: hist, logger: logger, now: time.Now}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(20 * time.Second))

	r.Get("/healthz", a.health)
	r.Route("/api", func(api chi.Router) {
		api.Get("/status", a.getStatus)
		api.Get("/history", a.getHistory)
		api.Get("/stats", a.getStats)
	})
	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	snap := a.status.Snapshot()
	code := http.StatusOK
	status := "ok"
	if !snap.IsConnected {
		code = http.StatusServiceUnavailable
		status = "disconnected"
	}
	writeJSON(w, code, map[string]any{"status": status, "state": snap.State})
}

type statusResponse struct {
	monitor.Snapshot
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (a *API) getStatus(w http.ResponseWriter, _ *http.Request) {
	snap := a.status.Snapshot()
	uptime := snap.Uptime(a.now())
	writeJSON(w, http.StatusOK, statusResponse{
		Snapshot:      snap,
		Uptime:        format.FormatUptime(uptime),
		UptimeSeconds: int64(uptime / time.Second),
	})
}

func (a *API) getHistory(w http.ResponseWriter, r *http.Request) {
	index := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_page", "page must be an integer")
			return
		}
		index = v
	}
	page, err := a.history.Page(index)
	if err != nil {
		a.logger.Error("history page failed", "err", err, "page", index)
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) getStats(w http.ResponseWriter, _ *http.Request) {
	sum, err := a.history.TodaySummary()
	if err != nil {
		a.logger.Error("today summary failed", "err", err)
		writeError(w, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// RunServer serves until ctx is cancelled, then shuts down gracefully.
func RunServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "err", err)
			return err
		}
		return nil
	}
}
