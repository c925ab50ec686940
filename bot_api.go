package main

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"presencebot/internal/monitor"
)

// BotAPI abstracts Telegram bot methods used by the app.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// telegramNotifier delivers monitor alerts to the bound chat as HTML.
type telegramNotifier struct {
	bot  BotAPI
	chat *ChatBinding
}

var _ monitor.Notifier = (*telegramNotifier)(nil)

func newTelegramNotifier(bot BotAPI, chat *ChatBinding) *telegramNotifier {
	return &telegramNotifier{bot: bot, chat: chat}
}

func (n *telegramNotifier) Notify(ctx context.Context, text string) error {
	chatID := n.chat.ID()
	if chatID == 0 {
		return monitor.ErrNoDestination
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := n.bot.Send(msg)
	return err
}
