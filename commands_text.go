package main

import (
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"presencebot/internal/format"
	"presencebot/internal/history"
	"presencebot/internal/monitor"
	"presencebot/internal/presence"
)

const (
	lastErrorMaxLen   = 200
	statsRecentLength = 5
)

func kindEmoji(k presence.StatusKind) string {
	if k == presence.KindOnline {
		return "🟢"
	}
	return "⚪"
}

func getStartText(chatID int64) string {
	return fmt.Sprintf("👋 <b>Presence monitor</b>\n\n"+
		"✅ Chat ID saved: <code>%d</code>\n\n"+
		"Commands:\n"+
		"/history - activity history\n"+
		"/stats - today's statistics\n"+
		"/heartbeat - bot status\n\n"+
		"🔔 Notifications arrive automatically", chatID)
}

func formatHistoryPage(p history.Page) string {
	if len(p.Items) == 0 {
		return "📭 History is empty"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Activity history</b> (page %d/%d)\n", p.Page+1, p.TotalPages)
	for _, e := range p.Items {
		fmt.Fprintf(&b, "\n%s <code>%s</code>", kindEmoji(e.StatusKind), e.Timestamp)
		if e.LastSeen != "" {
			fmt.Fprintf(&b, "\n   └ Last seen: %s", e.LastSeen)
		}
	}
	fmt.Fprintf(&b, "\n\n📊 Total entries: %d", p.TotalItems)
	return b.String()
}

// getPaginationKeyboard returns nil when everything fits on one page.
func getPaginationKeyboard(page, totalPages int) *tgbotapi.InlineKeyboardMarkup {
	if totalPages <= 1 {
		return nil
	}
	var row []tgbotapi.InlineKeyboardButton
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", fmt.Sprintf("history_%d", page-1)))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page+1, totalPages), "noop"))
	if page < totalPages-1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("history_%d", page+1)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}

func getHistoryText(ctx *AppContext, page int) (string, *tgbotapi.InlineKeyboardMarkup) {
	p, err := ctx.History.Page(page)
	if err != nil {
		slog.Error("History page failed", "err", err, "page", page)
		return "❌ Could not read history: <code>" + html.EscapeString(err.Error()) + "</code>", nil
	}
	return formatHistoryPage(p), getPaginationKeyboard(p.Page, p.TotalPages)
}

func formatStats(s history.Summary, loc *time.Location, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Statistics for %s</b>\n\n", s.Date)
	fmt.Fprintf(&b, "🔢 Total activity: <b>%d</b>\n", s.Total)
	fmt.Fprintf(&b, "🟢 Online: <b>%d</b>\n", s.Online)
	fmt.Fprintf(&b, "⚪ Offline (with time): <b>%d</b>", s.Offline)

	if len(s.Entries) > 0 {
		b.WriteString("\n\n📝 <b>Last 5:</b>")
		recent := s.Entries
		if len(recent) > statsRecentLength {
			recent = recent[len(recent)-statsRecentLength:]
		}
		for _, e := range recent {
			fmt.Fprintf(&b, "\n%s %s", kindEmoji(e.StatusKind), e.Timestamp)
			if at, err := e.Time(loc); err == nil {
				fmt.Fprintf(&b, " (%s)", format.Ago(at, now))
			}
		}
	}
	return b.String()
}

func getStatsText(ctx *AppContext) string {
	s, err := ctx.History.TodaySummary()
	if err != nil {
		slog.Error("Today summary failed", "err", err)
		return "❌ Could not read history: <code>" + html.EscapeString(err.Error()) + "</code>"
	}
	return formatStats(s, ctx.Location, ctx.now())
}

func getHeartbeatText(ctx *AppContext) string {
	return formatHeartbeat(ctx, ctx.Status.Snapshot())
}

func formatHeartbeat(ctx *AppContext, snap monitor.Snapshot) string {
	now := ctx.now()
	loc := ctx.Location

	state := "Stopped"
	if snap.IsConnected {
		state = "Running"
	}

	var b strings.Builder
	b.WriteString("💓 <b>Heartbeat - bot status</b>\n\n")
	fmt.Fprintf(&b, "%s Status: <b>%s</b> (<code>%s</code>)\n", format.BoolToEmoji(snap.IsConnected), state, snap.State)
	fmt.Fprintf(&b, "⏱ Uptime: <b>%s</b>\n", format.FormatUptime(snap.Uptime(now)))
	fmt.Fprintf(&b, "📊 Checks: <b>%d</b>\n", snap.TotalChecks)
	fmt.Fprintf(&b, "🔔 Alerts: <b>%d</b>\n", snap.TotalAlerts)
	fmt.Fprintf(&b, "⚠️ FloodWait: <b>%d</b>\n", snap.FloodWaitCount)
	fmt.Fprintf(&b, "🔄 Reconnects: <b>%d</b>\n", snap.ReconnectCount)

	if !snap.LastCheck.IsZero() {
		fmt.Fprintf(&b, "\n🕐 Last check: <code>%s</code> (%s)", snap.LastCheck.In(loc).Format("15:04:05"), format.Ago(snap.LastCheck, now))
	}
	if snap.LastError != "" {
		fmt.Fprintf(&b, "\n\n❌ <b>Last error:</b>\n<code>%s</code>", html.EscapeString(format.Truncate(snap.LastError, lastErrorMaxLen)))
	}
	if !snap.LastReconnect.IsZero() {
		fmt.Fprintf(&b, "\n\n🔄 Last reconnect: <code>%s</code>", snap.LastReconnect.In(loc).Format("02.01 15:04:05"))
	}

	if ctx.Config != nil && ctx.Config.Healthchecks.Enabled && ctx.Healthchecks != nil {
		hc := ctx.Healthchecks.Snapshot()
		fmt.Fprintf(&b, "\n\n🩺 Healthchecks: %d pings, %d failed, last %s", hc.TotalPings, hc.FailedPings, format.Ago(hc.LastPingTime, now))
	}

	if ctx.ProcStats != nil {
		if ps, err := ctx.ProcStats(); err == nil {
			fmt.Fprintf(&b, "\n\n🖥 Process: RSS <b>%s</b>, CPU <b>%.1f%%</b>, goroutines <b>%d</b>", format.FormatBytes(ps.RSS), ps.CPUPercent, ps.Goroutines)
			if ps.HostUptime > 0 {
				fmt.Fprintf(&b, "\n🏠 Host uptime: <b>%s</b>", format.FormatUptime(ps.HostUptime))
			}
		} else {
			slog.Debug("Process stats unavailable", "err", err)
		}
	}
	return b.String()
}

func getHelpText(r *CommandRegistry) string {
	var b strings.Builder
	b.WriteString("ℹ️ <b>Presence monitor</b>\n")
	for _, name := range r.Names() {
		fmt.Fprintf(&b, "\n/%s - %s", name, r.commands[name].Description())
	}
	b.WriteString("\n\n🔔 Alerts are sent when the watched account opens its status or comes online.")
	return b.String()
}
