// Package telegram handles creation of the bot instance and registration of
// its command and callback handlers.
package telegram

import (
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"github.com/edgard/salesbridge/internal/bot/handlers"
)

// NewTelegramBot creates a new bot instance using the go-telegram/bot
// library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created")

	return b, nil
}

// applyMiddleware wraps a handler with its middleware. The first entry in
// the slice becomes the outermost wrapper.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}

	return handler
}

// RegisterHandlers registers the handler list with the bot instance in
// order, applying each handler's middleware.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registered []handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	log := logger.With("component", "handler_registry")

	if len(registered) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	for _, reg := range registered {
		if reg.Handler == nil {
			log.Warn("Skipping registration of nil handler", "pattern", reg.Pattern)
			continue
		}

		handler := applyMiddleware(reg.Handler, reg.Middleware)
		b.RegisterHandler(reg.HandlerType, reg.Pattern, reg.MatchType, handler)
		log.Debug("Registered handler", "pattern", reg.Pattern, "middleware_count", len(reg.Middleware))
	}

	log.Info("Registered Telegram handlers", "count", len(registered))

	return nil
}
