package main

import (
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StartCmd claims the chat as the alert destination.
type StartCmd struct{}

func (c *StartCmd) Execute(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message, _ string) {
	chatID := msg.Chat.ID
	bound, err := ctx.Chat.Claim(chatID)
	if err != nil {
		slog.Error("Failed to persist CHAT_ID", "err", err, "chat_id", chatID)
	}
	if !bound {
		return
	}
	slog.Info("Destination chat bound", "chat_id", chatID)
	sendHTML(bot, chatID, getStartText(chatID), nil)
}

func (c *StartCmd) Description() string { return "save this chat for notifications" }

// HistoryCmd shows the activity log, newest first. An optional argument is
// the 1-based page number.
type HistoryCmd struct{}

func (c *HistoryCmd) Execute(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message, args string) {
	page := 0
	if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil {
		page = n - 1
	}
	text, kb := getHistoryText(ctx, page)
	sendHTML(bot, msg.Chat.ID, text, kb)
}

func (c *HistoryCmd) Description() string { return "activity history" }

type StatsCmd struct{}

func (c *StatsCmd) Execute(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message, _ string) {
	sendHTML(bot, msg.Chat.ID, getStatsText(ctx), nil)
}

func (c *StatsCmd) Description() string { return "today's statistics" }

type HeartbeatCmd struct{}

func (c *HeartbeatCmd) Execute(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message, _ string) {
	sendHTML(bot, msg.Chat.ID, getHeartbeatText(ctx), nil)
}

func (c *HeartbeatCmd) Description() string { return "bot status" }

type HelpCmd struct{}

func (c *HelpCmd) Execute(_ *AppContext, bot BotAPI, msg *tgbotapi.Message, _ string) {
	sendHTML(bot, msg.Chat.ID, getHelpText(cmdRegistry), nil)
}

func (c *HelpCmd) Description() string { return "this help" }
