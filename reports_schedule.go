package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"presencebot/internal/monitor"
)

// startDailyReport schedules the daily summary push. The scheduler stops when
// runCtx is cancelled.
func startDailyReport(runCtx context.Context, ctx *AppContext, notifier monitor.Notifier) (*cron.Cron, error) {
	if !ctx.Config.DailyReport.Enabled {
		slog.Info("Daily report disabled")
		return nil, nil
	}

	c := cron.New(cron.WithLocation(ctx.Location))
	spec := ctx.Config.DailyReport.Cron
	if _, err := c.AddFunc(spec, func() {
		if err := sendDailyReport(runCtx, ctx, notifier); err != nil {
			slog.Warn("Daily report not sent", "err", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("daily report schedule %q: %w", spec, err)
	}

	c.Start()
	slog.Info("Daily report scheduled", "cron", spec, "next", nextRun(c).Format(time.RFC3339))

	go func() {
		<-runCtx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}

func sendDailyReport(runCtx context.Context, ctx *AppContext, notifier monitor.Notifier) error {
	sum, err := ctx.History.TodaySummary()
	if err != nil {
		return fmt.Errorf("today summary: %w", err)
	}
	text := "🗓 <b>Daily report</b>\n\n" + formatStats(sum, ctx.Location, ctx.now())
	sendCtx, cancel := context.WithTimeout(runCtx, 30*time.Second)
	defer cancel()
	if err := notifier.Notify(sendCtx, text); err != nil {
		return err
	}
	slog.Info("Daily report sent", "date", sum.Date, "total", sum.Total)
	return nil
}

func nextRun(c *cron.Cron) time.Time {
	entries := c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
