package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	// assignCallbackPrefix tags candidate buttons sent by /assign_manager.
	assignCallbackPrefix = "assign_sm:"
	// assignCandidateLimit caps how many candidates one keyboard offers.
	assignCandidateLimit = 25
)

// NewAssignManagerHandler creates the /assign_manager command handler. It
// checks the caller is an admin in a group chat and offers a keyboard of
// users who are not managing any group yet.
func NewAssignManagerHandler(deps HandlerDeps) bot.HandlerFunc {
	return assignManagerHandler{deps: deps}.Handle
}

type assignManagerHandler struct {
	deps HandlerDeps
}

func (h assignManagerHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "assign_manager")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Received assign update without message or sender", "update_id", update.ID)
		return
	}

	msgs := h.deps.Config.Messages
	chatID := update.Message.Chat.ID
	senderID := update.Message.From.ID

	if !isGroupChat(update.Message.Chat) {
		h.reply(ctx, b, chatID, msgs.GroupOnlyMsg, log)
		return
	}

	if !h.deps.Config.Telegram.IsAdmin(senderID) {
		log.WarnContext(ctx, "Non-admin tried to assign a manager", "user_id", senderID, "chat_id", chatID)
		h.reply(ctx, b, chatID, msgs.AssignAdminOnlyMsg, log)

		return
	}

	log.InfoContext(ctx, "Handling /assign_manager command", "chat_id", chatID, "user_id", senderID)

	if err := h.deps.Store.UpsertChat(ctx, chatID, update.Message.Chat.Title); err != nil {
		log.ErrorContext(ctx, "Failed to record chat", "error", err, "chat_id", chatID)
	}

	existing, err := h.deps.Store.GetAssignmentByChat(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up group assignment", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, msgs.GeneralErrorMsg, log)

		return
	}

	if existing != nil {
		h.reply(ctx, b, chatID, fmt.Sprintf(msgs.AssignAlreadyFmt, existing.ManagerLabel()), log)
		return
	}

	candidates, err := h.deps.Store.ListUnassignedUsers(ctx, assignCandidateLimit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list candidates", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, msgs.GeneralErrorMsg, log)

		return
	}

	if len(candidates) == 0 {
		h.reply(ctx, b, chatID, msgs.AssignNoCandidatesMsg, log)
		return
	}

	var rows [][]models.InlineKeyboardButton

	var row []models.InlineKeyboardButton

	for _, candidate := range candidates {
		row = append(row, models.InlineKeyboardButton{
			Text:         truncateChoiceLabel(candidate.DisplayLabel()),
			CallbackData: fmt.Sprintf("%s%d:%d", assignCallbackPrefix, chatID, candidate.TelegramID),
		})

		if len(row) == choiceButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}

	if len(row) > 0 {
		rows = append(rows, row)
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        msgs.AssignPromptMsg,
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send candidate keyboard", "error", err, "chat_id", chatID)
	}
}

func (h assignManagerHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send assign reply", "error", err, "chat_id", chatID)
	}
}
