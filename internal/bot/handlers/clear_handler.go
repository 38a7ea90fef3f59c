package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewClearHandler creates the /clear command handler. It removes every
// assignment along with the stored credentials; users and chats stay
// recorded. Registration wraps it in the admin middleware.
func NewClearHandler(deps HandlerDeps) bot.HandlerFunc {
	return clearHandler{deps: deps}.Handle
}

type clearHandler struct {
	deps HandlerDeps
}

func (h clearHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "clear")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Received clear update without message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /clear command", "user_id", update.Message.From.ID, "chat_id", chatID)

	text := h.deps.Config.Messages.ClearDoneMsg

	if err := h.deps.Store.ClearAssignments(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to clear assignments", "error", err)

		text = h.deps.Config.Messages.GeneralErrorMsg
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send clear reply", "error", err, "chat_id", chatID)
	}
}
