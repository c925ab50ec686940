package main

import (
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var cmdRegistry *CommandRegistry

func init() {
	cmdRegistry = SetupCommandRegistry()
}

func handleUpdate(ctx *AppContext, bot BotAPI, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		handleCallback(ctx, bot, update.CallbackQuery)
		return
	}
	if update.Message != nil && update.Message.IsCommand() {
		handleCommand(ctx, bot, update.Message)
	}
}

func handleCommand(ctx *AppContext, bot BotAPI, msg *tgbotapi.Message) {
	if ctx == nil {
		slog.Error("App context is nil in handleCommand")
		return
	}
	if msg == nil || msg.Chat == nil {
		return
	}
	if !ctx.Chat.Allows(msg.Chat.ID) {
		slog.Debug("Ignoring command from foreign chat", "chat_id", msg.Chat.ID, "command", msg.Command())
		return
	}
	if cmdRegistry.Execute(ctx, bot, msg) {
		return
	}
	safeSend(bot, tgbotapi.NewMessage(msg.Chat.ID, "❓ Unknown command. Use /help"))
}

func handleCallback(ctx *AppContext, bot BotAPI, query *tgbotapi.CallbackQuery) {
	if ctx == nil {
		slog.Error("App context is nil in handleCallback")
		return
	}
	if query == nil || query.Message == nil || query.Message.Chat == nil {
		return
	}
	ackCallback(bot, query.ID)

	chatID := query.Message.Chat.ID
	msgID := query.Message.MessageID
	data := query.Data

	if !ctx.Chat.Allows(chatID) {
		slog.Debug("Ignoring callback from foreign chat", "chat_id", chatID)
		return
	}

	switch {
	case data == "noop":
		return
	case strings.HasPrefix(data, "history_"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "history_"))
		if err != nil {
			slog.Warn("Malformed history callback", "data", data)
			return
		}
		text, kb := getHistoryText(ctx, page)
		editHTML(bot, chatID, msgID, text, kb)
	default:
		slog.Debug("Unhandled callback", "data", data)
	}
}
