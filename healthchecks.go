package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════
//  HEALTHCHECKS.IO INTEGRATION
// ═══════════════════════════════════════════════════════════════════

// startHealthchecksPinger pings healthchecks.io every period until runCtx is
// done. While the monitor is disconnected it pings the /fail endpoint.
func startHealthchecksPinger(runCtx context.Context, ctx *AppContext) {
	if !ctx.Config.Healthchecks.Enabled || ctx.Config.Healthchecks.PingURL == "" {
		slog.Info("Healthchecks.io disabled or no URL configured")
		return
	}

	period := ctx.Config.Healthchecks.PeriodSeconds
	if period <= 0 {
		period = 60
	}
	slog.Info("Healthchecks.io pinger started", "period_sec", period)

	ticker := time.NewTicker(time.Duration(period) * time.Second)
	defer ticker.Stop()

	// Initial ping on startup. The monitor is usually still connecting, so
	// this one signals a start rather than a failure.
	sendHealthcheck(runCtx, ctx, strings.TrimRight(ctx.Config.Healthchecks.PingURL, "/")+"/start")

	for {
		select {
		case <-runCtx.Done():
			return
		case <-ticker.C:
			pingHealthchecks(runCtx, ctx)
		}
	}
}

func healthchecksURL(base string, healthy bool) string {
	base = strings.TrimRight(base, "/")
	if healthy {
		return base
	}
	return base + "/fail"
}

// pingHealthchecks sends one ping reflecting the monitor's connection state.
func pingHealthchecks(runCtx context.Context, appCtx *AppContext) {
	healthy := appCtx.Status.Snapshot().IsConnected
	url := healthchecksURL(appCtx.Config.Healthchecks.PingURL, healthy)
	if sendHealthcheck(runCtx, appCtx, url) && !healthy {
		slog.Warn("Healthchecks: reported failure, monitor disconnected")
	}
}

// sendHealthcheck GETs url and records the outcome.
func sendHealthcheck(runCtx context.Context, appCtx *AppContext, url string) bool {
	ctx, cancel := context.WithTimeout(runCtx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		recordHealthcheck(appCtx, false, fmt.Sprintf("request error: %v", err))
		return false
	}

	if appCtx.HTTP == nil {
		appCtx.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := appCtx.HTTP.Do(req)
	if err != nil {
		recordHealthcheck(appCtx, false, fmt.Sprintf("network error: %v", err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		recordHealthcheck(appCtx, false, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return false
	}
	recordHealthcheck(appCtx, true, "")
	return true
}

func recordHealthcheck(ctx *AppContext, ok bool, errMsg string) {
	ctx.Healthchecks.record(ok, errMsg, ctx.now())
	if !ok {
		slog.Warn("Healthchecks ping failed", "err", errMsg)
	}
}
