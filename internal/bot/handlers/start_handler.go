package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

// NewStartHandler creates a handler for the /start command. It records the
// sender and replies with a greeting that matches where they stand in the
// onboarding flow.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps: deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Received start update without message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command",
		"user_id", update.Message.From.ID,
		"chat_id", update.Message.Chat.ID)

	sender := update.Message.From

	created, err := h.deps.Store.UpsertUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName)
	if err != nil {
		log.ErrorContext(ctx, "Failed to record user", "error", err, "user_id", sender.ID)
		h.reply(ctx, b, update.Message.Chat.ID, h.deps.Config.Messages.GeneralErrorMsg, log)

		return
	}

	if created {
		log.InfoContext(ctx, "Registered new user", "user_id", sender.ID, "username", sender.Username)
	}

	if isGroupChat(update.Message.Chat) {
		if err := h.deps.Store.UpsertChat(ctx, update.Message.Chat.ID, update.Message.Chat.Title); err != nil {
			log.ErrorContext(ctx, "Failed to record chat", "error", err, "chat_id", update.Message.Chat.ID)
		}

		h.reply(ctx, b, update.Message.Chat.ID, h.deps.Config.Messages.StartGroupMsg, log)

		return
	}

	assignment, err := h.deps.Store.GetAssignmentByUser(ctx, sender.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up assignment", "error", err, "user_id", sender.ID)
		h.reply(ctx, b, update.Message.Chat.ID, h.deps.Config.Messages.GeneralErrorMsg, log)

		return
	}

	msgs := h.deps.Config.Messages

	var text string

	switch {
	case assignment == nil:
		text = msgs.StartUnassignedMsg
	case assignment.CredentialsStatus == database.StatusPendingKey:
		text = fmt.Sprintf(msgs.StartPendingKeyFmt, assignment.GroupLabel())
	case assignment.CredentialsStatus == database.StatusPendingSecret:
		text = msgs.StartPendingSecretMsg
	default:
		text = msgs.StartActiveMsg
	}

	h.reply(ctx, b, update.Message.Chat.ID, text, log)
}

func (h startHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send start reply", "error", err, "chat_id", chatID)
	}
}
