// Package main contains the entrypoint for the sales bridge bot, which links
// Telegram group chats to an ERPNext instance through per-group sales
// managers.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/salesbridge/internal/bot"
	"github.com/edgard/salesbridge/internal/bot/handlers"
	"github.com/edgard/salesbridge/internal/bot/tasks"
	"github.com/edgard/salesbridge/internal/config"
	"github.com/edgard/salesbridge/internal/database"
	"github.com/edgard/salesbridge/internal/erpnext"
	"github.com/edgard/salesbridge/internal/logger"
	"github.com/edgard/salesbridge/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component together, starts the bot, and blocks until
// shutdown. It returns the process exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)

	store := database.NewStore(db, log)
	if err := store.Ping(ctx); err != nil {
		log.Error("Database ping failed", "error", err)
		return 1
	}

	erpClient := erpnext.NewHTTPClient(cfg.ERPNext, log)

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Store:   store,
		ERPNext: erpClient,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// The bot username feeds the inline search hint shown during drafts.
	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}

	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllHandlers(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, erpClient, tg, sched)

	log.Info("Starting bot")

	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Give the handler a moment to flush before exiting.
		time.Sleep(time.Second)

		return 1
	}

	log.Info("Bot stopped gracefully")
	time.Sleep(time.Second)

	return 0
}
