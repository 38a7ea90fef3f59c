// Package handlers contains the Telegram command, callback, and text
// handlers that drive manager assignment, credential onboarding, and the
// item creation workflow.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly wraps a handler so only configured admin users can invoke it.
func AdminOnly(deps HandlerDeps) func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			log := deps.Logger.With("middleware", "admin_only")

			if update == nil || update.Message == nil || update.Message.From == nil {
				log.WarnContext(ctx, "Received update without message or sender, skipping")
				return
			}

			userID := update.Message.From.ID
			if !deps.Config.Telegram.IsAdmin(userID) {
				log.WarnContext(ctx, "Unauthorized command attempt",
					"user_id", userID,
					"chat_id", update.Message.Chat.ID)

				_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   deps.Config.Messages.NotAuthorized,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send authorization warning", "error", err)
				}

				return
			}

			next(ctx, b, update)
		}
	}
}
