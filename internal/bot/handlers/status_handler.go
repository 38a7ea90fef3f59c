package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

// NewStatusHandler creates the /status command handler. In a group it reports
// the group's assignment; in a private chat it reports the sender's own.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps: deps}.Handle
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "status")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Received status update without message or sender", "update_id", update.ID)
		return
	}

	msgs := h.deps.Config.Messages
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /status command", "chat_id", chatID)

	var (
		detail *database.AssignmentDetail
		err    error
	)

	inGroup := isGroupChat(update.Message.Chat)
	if inGroup {
		detail, err = h.deps.Store.GetAssignmentByChat(ctx, chatID)
	} else {
		detail, err = h.deps.Store.GetAssignmentByUser(ctx, update.Message.From.ID)
	}

	if err != nil {
		log.ErrorContext(ctx, "Failed to load assignment", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, msgs.GeneralErrorMsg, log)

		return
	}

	if detail == nil {
		text := msgs.StatusNotLinkedMsg
		if inGroup {
			text = msgs.StatusNoManagerMsg
		}

		h.reply(ctx, b, chatID, text, log)

		return
	}

	customer := msgs.StatusNoCustomerMsg
	if detail.CustomerDocname.Valid && detail.CustomerDocname.String != "" {
		customer = detail.CustomerDocname.String
	}

	var text string
	if inGroup {
		text = fmt.Sprintf(msgs.StatusGroupFmt,
			detail.GroupLabel(), detail.ManagerLabel(), string(detail.CredentialsStatus), customer)
	} else {
		text = fmt.Sprintf(msgs.StatusPrivateFmt,
			detail.GroupLabel(), string(detail.CredentialsStatus), customer)
	}

	h.reply(ctx, b, chatID, text, log)
}

func (h statusHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send status reply", "error", err, "chat_id", chatID)
	}
}
