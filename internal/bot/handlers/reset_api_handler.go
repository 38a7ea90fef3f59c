package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewResetAPIHandler creates the /reset_api command handler. A manager runs
// it in the private chat to wipe their stored credentials and restart the
// key/secret handshake.
func NewResetAPIHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetAPIHandler{deps: deps}.Handle
}

type resetAPIHandler struct {
	deps HandlerDeps
}

func (h resetAPIHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "reset_api")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Received reset update without message or sender", "update_id", update.ID)
		return
	}

	if !isPrivateChat(update.Message.Chat) {
		return
	}

	msgs := h.deps.Config.Messages
	userID := update.Message.From.ID

	log.InfoContext(ctx, "Handling /reset_api command", "user_id", userID)

	detail, err := h.deps.Store.GetAssignmentByUser(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load assignment", "error", err, "user_id", userID)
		h.reply(ctx, b, userID, msgs.GeneralErrorMsg, log)

		return
	}

	if detail == nil {
		h.reply(ctx, b, userID, msgs.CredsNotAssignedMsg, log)
		return
	}

	if err := h.deps.Store.ResetCredentials(ctx, userID); err != nil {
		log.ErrorContext(ctx, "Failed to reset credentials", "error", err, "user_id", userID)
		h.reply(ctx, b, userID, msgs.GeneralErrorMsg, log)

		return
	}

	log.InfoContext(ctx, "Credentials reset", "user_id", userID, "chat_id", detail.ChatID)

	h.reply(ctx, b, userID, msgs.ResetDoneMsg, log)

	// Let the group know its integration paused until new credentials arrive.
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: detail.ChatID,
		Text:   fmt.Sprintf(msgs.ResetGroupNoticeFmt, detail.ManagerLabel()),
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to notify group about reset", "error", err, "chat_id", detail.ChatID)
	}
}

func (h resetAPIHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reset reply", "error", err, "chat_id", chatID)
	}
}
