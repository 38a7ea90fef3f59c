package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

// NewItemCommandHandler creates the /new command handler. It opens a fresh
// item draft for the group's manager, replacing any draft already in flight.
func NewItemCommandHandler(deps HandlerDeps) bot.HandlerFunc {
	return newItemHandler{deps: deps}.Handle
}

type newItemHandler struct {
	deps HandlerDeps
}

func (h newItemHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "new_item")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Received new item update without message or sender", "update_id", update.ID)
		return
	}

	msgs := h.deps.Config.Messages
	chatID := update.Message.Chat.ID
	sender := update.Message.From

	if !isGroupChat(update.Message.Chat) {
		h.reply(ctx, b, chatID, msgs.GroupOnlyMsg, log)
		return
	}

	log.InfoContext(ctx, "Handling /new command", "chat_id", chatID, "user_id", sender.ID)

	if _, err := h.deps.Store.UpsertUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName); err != nil {
		log.ErrorContext(ctx, "Failed to record user", "error", err, "user_id", sender.ID)
	}

	if err := h.deps.Store.UpsertChat(ctx, chatID, update.Message.Chat.Title); err != nil {
		log.ErrorContext(ctx, "Failed to record chat", "error", err, "chat_id", chatID)
	}

	detail, err := h.deps.Store.GetAssignmentByChat(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load assignment", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, msgs.GeneralErrorMsg, log)

		return
	}

	if detail == nil || detail.UserID != sender.ID {
		h.reply(ctx, b, chatID, msgs.NewNotManagerMsg, log)
		return
	}

	if detail.CredentialsStatus != database.StatusActive {
		h.reply(ctx, b, chatID, msgs.NewNotActiveMsg, log)
		return
	}

	if h.deps.Config.ERPNext.BaseURL == "" {
		h.reply(ctx, b, chatID, msgs.NewNoBaseURLMsg, log)
		return
	}

	ensureCustomerLink(ctx, b, h.deps, detail, log)

	draft := &database.DraftState{
		Stage:  database.StageAwaitItemCode,
		ChatID: chatID,
	}

	if err := h.deps.Store.SaveItemDraft(ctx, sender.ID, draft); err != nil {
		log.ErrorContext(ctx, "Failed to open item draft", "error", err, "user_id", sender.ID)
		h.reply(ctx, b, chatID, msgs.GeneralErrorMsg, log)

		return
	}

	h.reply(ctx, b, chatID, msgs.NewStartMsg, log)
}

func (h newItemHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send new item reply", "error", err, "chat_id", chatID)
	}
}
