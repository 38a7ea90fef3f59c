package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

// NewAssignCallbackHandler handles taps on the /assign_manager candidate
// keyboard. It validates the tap, creates the assignment, notifies the new
// manager privately, and replaces the keyboard with the outcome.
func NewAssignCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return assignCallbackHandler{deps: deps}.Handle
}

type assignCallbackHandler struct {
	deps HandlerDeps
}

func (h assignCallbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "assign_callback")

	query := update.CallbackQuery
	if query == nil {
		log.WarnContext(ctx, "Received assign callback without query", "update_id", update.ID)
		return
	}

	msgs := h.deps.Config.Messages

	if !h.deps.Config.Telegram.IsAdmin(query.From.ID) {
		// Alert without consuming the keyboard so an admin can still tap it.
		h.answer(ctx, b, query.ID, msgs.AssignAdminOnlyMsg, true, log)
		return
	}

	h.answer(ctx, b, query.ID, "", false, log)

	chatID, candidateID, ok := parseAssignToken(query.Data)
	if !ok {
		log.WarnContext(ctx, "Malformed assign callback data", "data", query.Data)
		h.editOutcome(ctx, b, query, msgs.AssignBadTokenMsg, log)

		return
	}

	msg := query.Message.Message
	if msg != nil && msg.Chat.ID != chatID {
		log.WarnContext(ctx, "Assign callback fired in a different chat",
			"token_chat_id", chatID,
			"chat_id", msg.Chat.ID)
		h.editOutcome(ctx, b, query, msgs.AssignWrongChatMsg, log)

		return
	}

	if msg != nil {
		if err := h.deps.Store.UpsertChat(ctx, chatID, msg.Chat.Title); err != nil {
			log.ErrorContext(ctx, "Failed to refresh chat title", "error", err, "chat_id", chatID)
		}
	}

	candidate, err := h.deps.Store.GetUser(ctx, candidateID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load candidate", "error", err, "user_id", candidateID)
		h.editOutcome(ctx, b, query, msgs.GeneralErrorMsg, log)

		return
	}

	if candidate == nil {
		h.editOutcome(ctx, b, query, msgs.AssignUnknownUserMsg, log)
		return
	}

	member, err := b.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatID,
		UserID: candidateID,
	})
	if err != nil || member == nil || member.Left != nil || member.Banned != nil {
		log.WarnContext(ctx, "Candidate is not a member of the group",
			"error", err,
			"chat_id", chatID,
			"user_id", candidateID)
		h.editOutcome(ctx, b, query, msgs.AssignNotMemberMsg, log)

		return
	}

	if err := h.deps.Store.CreateAssignment(ctx, chatID, candidateID); err != nil {
		var assignErr *database.AssignmentError
		if errors.As(err, &assignErr) {
			h.editOutcome(ctx, b, query, assignErr.Reason, log)
			return
		}

		log.ErrorContext(ctx, "Failed to create assignment", "error", err, "chat_id", chatID, "user_id", candidateID)
		h.editOutcome(ctx, b, query, msgs.GeneralErrorMsg, log)

		return
	}

	managerLabel := candidate.DisplayLabel()
	groupLabel := strconv.FormatInt(chatID, 10)

	detail, err := h.deps.Store.GetAssignmentByChat(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to reload assignment", "error", err, "chat_id", chatID)
	} else if detail != nil {
		managerLabel = detail.ManagerLabel()
		groupLabel = detail.GroupLabel()
	}

	dmStatus := msgs.AssignDMSentMsg

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: candidateID,
		Text:   fmt.Sprintf(msgs.AssignDMFmt, groupLabel),
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to notify new manager privately", "error", err, "user_id", candidateID)

		dmStatus = msgs.AssignDMFailedMsg
	}

	log.InfoContext(ctx, "Sales manager assigned", "chat_id", chatID, "user_id", candidateID)

	h.editOutcome(ctx, b, query, fmt.Sprintf(msgs.AssignDoneFmt, managerLabel, dmStatus), log)
}

// parseAssignToken splits "assign_sm:<chatID>:<candidateID>" callback data.
func parseAssignToken(data string) (chatID, candidateID int64, ok bool) {
	rest, found := strings.CutPrefix(data, assignCallbackPrefix)
	if !found {
		return 0, 0, false
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}

	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	candidateID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return chatID, candidateID, true
}

func (h assignCallbackHandler) answer(ctx context.Context, b *bot.Bot, queryID, text string, alert bool, log *slog.Logger) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to answer assign callback", "error", err)
	}
}

// editOutcome replaces the candidate keyboard message with the outcome text,
// falling back to a fresh message when the edit is rejected.
func (h assignCallbackHandler) editOutcome(ctx context.Context, b *bot.Bot, query *models.CallbackQuery, text string, log *slog.Logger) {
	msg := query.Message.Message
	if msg == nil {
		log.WarnContext(ctx, "Assign outcome has no editable message")
		return
	}

	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to edit assign message", "error", err)

		_, err = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   text,
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send assign outcome", "error", err, "chat_id", msg.Chat.ID)
		}
	}
}
