package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/pflag"

	"presencebot/internal/history"
	"presencebot/internal/httpapi"
	"presencebot/internal/monitor"
	"presencebot/internal/userbot"
)

var version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", defaultConfigPath, "path to config.json (optional)")
	envFile := pflag.String("env-file", defaultEnvFile, "path to the .env file; CHAT_ID is saved here by /start")
	logLevel := pflag.String("log-level", "", "override the log level (debug, info, warn, error)")
	showVersion := pflag.BoolP("version", "v", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println("presencebot", version)
		return
	}

	setupLogger(LoggingConfig{Level: "info"})
	if err := run(*configPath, *envFile, *logLevel); err != nil {
		slog.Error("Fatal error", "err", err)
		closeLogger()
		os.Exit(1)
	}
	closeLogger()
}

func run(configPath, envFile, logLevel string) error {
	if err := loadEnvFile(envFile); err != nil {
		return err
	}
	cfg, err := loadConfig(configPath, os.LookupEnv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.EnvFile = envFile
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	setupLogger(cfg.Logging)
	if safe, err := getConfigJSONSafe(cfg); err == nil {
		slog.Debug("Effective configuration", "config", safe)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.location()
	store := history.New(cfg.History.File, history.Options{
		Capacity: cfg.History.Capacity,
		PageSize: cfg.History.PageSize,
		Location: loc,
	})
	status := monitor.NewStatus(time.Now())

	storage, err := userbot.NewStorage(ctx, cfg.Telegram.SessionString, cfg.Telegram.SessionFile)
	if err != nil {
		return err
	}
	source, err := userbot.New(userbot.Options{
		AppID:   cfg.Telegram.APIID,
		AppHash: cfg.Telegram.APIHash,
		Storage: storage,
		Logger:  slog.Default(),

		CallTimeout:     seconds(cfg.Monitor.CallTimeoutSeconds),
		ReconnectWindow: seconds(cfg.Monitor.ReconnectWindowSeconds),
	})
	if err != nil {
		return err
	}
	defer source.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("start bot: %w", err)
	}
	slog.Info("Bot started", "username", bot.Self.UserName, "version", version)

	app := InitApp(cfg, store, status)
	notifier := newTelegramNotifier(bot, app.Chat)
	mon := monitor.New(cfg.monitorConfig(), source, notifier, store, status, slog.Default())

	slog.Info("Monitoring target", "subject", cfg.Subject(), "label", cfg.SubjectLabel(),
		"interval_sec", cfg.Monitor.CheckIntervalSeconds, "history", store.Path(), "capacity", store.Capacity())
	if app.Chat.ID() == 0 {
		slog.Warn("CHAT_ID not set. Send /start to the bot to bind a chat")
	} else {
		slog.Info("Destination chat", "chat_id", app.Chat.ID())
	}

	if _, err := startDailyReport(ctx, app, notifier); err != nil {
		return err
	}

	var wg sync.WaitGroup
	goSafe(&wg, "monitor-loop", func() {
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Monitor stopped", "err", err)
		}
	})
	goSafe(&wg, "healthchecks", func() { startHealthchecksPinger(ctx, app) })
	if cfg.HTTP.Enabled {
		server := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.New(status, store, slog.Default()).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		slog.Info("HTTP status API listening", "addr", cfg.HTTP.Addr)
		goSafe(&wg, "http-server", func() {
			if err := httpapi.RunServer(ctx, server, slog.Default()); err != nil {
				slog.Error("HTTP server stopped", "err", err)
			}
		})
	}

	runBot(ctx, app, bot)

	slog.Info("Shutting down...")
	wg.Wait()
	return nil
}

// runBot serves bot updates until ctx is cancelled.
func runBot(ctx context.Context, app *AppContext, bot *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go func() {
				defer recoverPanic("update-handler")
				handleUpdate(app, bot, update)
			}()
		}
	}
}

func goSafe(wg *sync.WaitGroup, name string, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer recoverPanic(name)
		fn()
	}()
}

func recoverPanic(name string) {
	if r := recover(); r != nil {
		slog.Error("Panic recovered in goroutine", "goroutine", name, "err", r, "stack", string(debug.Stack()))
	}
}
