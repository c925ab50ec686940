package main

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

func TestStartClaimsChatAndPersists(t *testing.T) {
	app := newTestAppContext(t)
	app.Chat = NewChatBinding(0, app.Config.EnvFile)
	bot := &fakeBot{}

	handleCommand(app, bot, commandMsg(55, "/start"))

	if got := app.Chat.ID(); got != 55 {
		t.Fatalf("bound chat = %d, want 55", got)
	}
	if text := bot.lastText(t); !strings.Contains(text, "<code>55</code>") {
		t.Fatalf("start reply = %q", text)
	}
	env, err := godotenv.Read(app.Config.EnvFile)
	if err != nil {
		t.Fatalf("read env: %v", err)
	}
	if env["CHAT_ID"] != "55" {
		t.Fatalf("CHAT_ID in .env = %q, want 55", env["CHAT_ID"])
	}

	handleCommand(app, bot, commandMsg(66, "/start"))
	if got := app.Chat.ID(); got != 55 {
		t.Fatalf("second /start rebound chat to %d", got)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("foreign /start must be ignored, sent = %d", len(bot.sent))
	}
}

func TestCommandsFromForeignChatIgnored(t *testing.T) {
	app := newTestAppContext(t)
	bot := &fakeBot{}

	for _, text := range []string{"/history", "/stats", "/heartbeat", "/nope"} {
		handleCommand(app, bot, commandMsg(999, text))
	}
	if len(bot.sent) != 0 {
		t.Fatalf("expected no replies to a foreign chat, got %d", len(bot.sent))
	}
}

func TestUnknownCommand(t *testing.T) {
	app := newTestAppContext(t)
	bot := &fakeBot{}
	handleCommand(app, bot, commandMsg(1, "/nope"))
	if text := bot.lastText(t); !strings.Contains(text, "Unknown command") {
		t.Fatalf("reply = %q", text)
	}
}

func TestHistoryCommand(t *testing.T) {
	app := newTestAppContext(t)
	bot := &fakeBot{}

	handleCommand(app, bot, commandMsg(1, "/history"))
	msg := bot.sent[0].(tgbotapi.MessageConfig)
	if msg.Text != "📭 History is empty" || msg.ReplyMarkup != nil {
		t.Fatalf("empty history reply = %q markup=%v", msg.Text, msg.ReplyMarkup)
	}

	addEntries(t, app, 12)
	handleCommand(app, bot, commandMsg(1, "/history"))
	msg = bot.sent[1].(tgbotapi.MessageConfig)
	if !strings.Contains(msg.Text, "(page 1/3)") || !strings.Contains(msg.Text, "Total entries: 12") {
		t.Fatalf("history text = %q", msg.Text)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard, got %T", msg.ReplyMarkup)
	}
	row := kb.InlineKeyboard[0]
	if len(row) != 2 || *row[0].CallbackData != "noop" || *row[1].CallbackData != "history_1" {
		t.Fatalf("keyboard row = %+v", row)
	}

	handleCommand(app, bot, commandMsg(1, "/history 3"))
	if text := bot.lastText(t); !strings.Contains(text, "(page 3/3)") {
		t.Fatalf("history 3 text = %q", text)
	}
}

func TestHistoryCallbackPaging(t *testing.T) {
	app := newTestAppContext(t)
	addEntries(t, app, 12)
	bot := &fakeBot{}

	query := &tgbotapi.CallbackQuery{
		ID:      "1",
		Data:    "history_2",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, MessageID: 10},
	}
	handleCallback(app, bot, query)

	if len(bot.requests) != 1 {
		t.Fatalf("expected callback ack request")
	}
	edit, ok := bot.sent[0].(tgbotapi.EditMessageTextConfig)
	if !ok || edit.MessageID != 10 || !strings.Contains(edit.Text, "(page 3/3)") {
		t.Fatalf("edit = %#v", bot.sent[0])
	}
	row := edit.ReplyMarkup.InlineKeyboard[0]
	if len(row) != 2 || *row[0].CallbackData != "history_1" || *row[1].CallbackData != "noop" {
		t.Fatalf("keyboard row = %+v", row)
	}

	// out of range pages clamp
	query.Data = "history_99"
	handleCallback(app, bot, query)
	if text := bot.lastText(t); !strings.Contains(text, "(page 3/3)") {
		t.Fatalf("clamped page text = %q", text)
	}
}

func TestCallbackNoopAndForeign(t *testing.T) {
	app := newTestAppContext(t)
	bot := &fakeBot{}

	handleCallback(app, bot, &tgbotapi.CallbackQuery{ID: "1", Data: "noop", Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}})
	if len(bot.requests) != 1 || len(bot.sent) != 0 {
		t.Fatalf("noop: requests=%d sent=%d", len(bot.requests), len(bot.sent))
	}

	handleCallback(app, bot, &tgbotapi.CallbackQuery{ID: "2", Data: "history_0", Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 999}}})
	if len(bot.requests) != 2 || len(bot.sent) != 0 {
		t.Fatalf("foreign callback: requests=%d sent=%d", len(bot.requests), len(bot.sent))
	}
}

func TestCallbackNilIgnored(t *testing.T) {
	app := newTestAppContext(t)
	bot := &fakeBot{}
	handleCallback(app, bot, nil)
	handleCallback(app, bot, &tgbotapi.CallbackQuery{ID: "4", Data: "noop"})
	if len(bot.requests) != 0 {
		t.Fatalf("expected no callback ack for nil query or message")
	}
}

func TestHandleUpdateDispatch(t *testing.T) {
	app := newTestAppContext(t)
	bot := &fakeBot{}

	handleUpdate(app, bot, tgbotapi.Update{Message: commandMsg(1, "/help")})
	if text := bot.lastText(t); !strings.Contains(text, "/heartbeat - bot status") {
		t.Fatalf("help text = %q", text)
	}

	handleUpdate(app, bot, tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}}})
	if len(bot.sent) != 1 {
		t.Fatalf("plain text must not be answered")
	}

	handleUpdate(app, bot, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "9", Data: "noop", Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}}})
	if len(bot.requests) != 1 {
		t.Fatalf("callback update not acked")
	}
}
