package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

// ERPNext issues 15 hex character API keys and 15 or 16 hex character
// secrets.
var (
	apiKeyPattern    = regexp.MustCompile(`^[A-Fa-f0-9]{15}$`)
	apiSecretPattern = regexp.MustCompile(`^[A-Fa-f0-9]{15,16}$`)
)

// handlePrivateText runs the credential handshake. Private plain text from
// an assigned manager is interpreted as an API key or secret depending on
// how far their assignment has progressed.
func (h defaultHandler) handlePrivateText(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "credentials")

	msg := update.Message
	sender := msg.From

	text := strings.TrimSpace(msg.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return
	}

	if _, err := h.deps.Store.UpsertUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName); err != nil {
		log.ErrorContext(ctx, "Failed to record user", "error", err, "user_id", sender.ID)
	}

	msgs := h.deps.Config.Messages

	detail, err := h.deps.Store.GetAssignmentByUser(ctx, sender.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load assignment", "error", err, "user_id", sender.ID)
		sendText(ctx, b, msg.Chat.ID, msgs.GeneralErrorMsg, log)

		return
	}

	switch RouteText(EventPrivateText, sender.ID, msg.Chat.ID, detail, nil) {
	case RouteNotAssigned:
		sendText(ctx, b, msg.Chat.ID, msgs.CredsNotAssignedMsg, log)
	case RouteExpectKey:
		h.handleKeySubmission(ctx, b, sender.ID, text, log)
	case RouteExpectSecret:
		h.handleSecretSubmission(ctx, b, detail, text, log)
	case RouteAlreadyActive:
		sendText(ctx, b, msg.Chat.ID, msgs.CredsActiveMsg, log)
	}
}

func (h defaultHandler) handleKeySubmission(ctx context.Context, b *bot.Bot, userID int64, text string, log *slog.Logger) {
	msgs := h.deps.Config.Messages

	if !apiKeyPattern.MatchString(text) {
		sendText(ctx, b, userID, msgs.CredsBadKeyMsg, log)
		return
	}

	if err := h.deps.Store.SetAPIKey(ctx, userID, text); err != nil {
		log.ErrorContext(ctx, "Failed to store API key", "error", err, "user_id", userID)
		sendText(ctx, b, userID, msgs.GeneralErrorMsg, log)

		return
	}

	log.InfoContext(ctx, "API key saved", "user_id", userID)

	sendText(ctx, b, userID, msgs.CredsKeySavedMsg, log)
}

// handleSecretSubmission stores the secret regardless of the verification
// outcome: a failed check leaves the handshake waiting for another secret,
// never stranded halfway.
func (h defaultHandler) handleSecretSubmission(ctx context.Context, b *bot.Bot, detail *database.AssignmentDetail, text string, log *slog.Logger) {
	msgs := h.deps.Config.Messages
	userID := detail.UserID

	if !apiSecretPattern.MatchString(text) {
		sendText(ctx, b, userID, msgs.CredsBadSecretMsg, log)
		return
	}

	verifyErr := h.deps.ERPNext.VerifyCredentials(ctx, detail.APIKey.String, text)
	verified := verifyErr == nil

	if err := h.deps.Store.SetAPISecret(ctx, userID, text, verified); err != nil {
		log.ErrorContext(ctx, "Failed to store API secret", "error", err, "user_id", userID)
		sendText(ctx, b, userID, msgs.GeneralErrorMsg, log)

		return
	}

	if !verified {
		log.WarnContext(ctx, "Credential verification failed", "error", verifyErr, "user_id", userID)

		sendText(ctx, b, userID, fmt.Sprintf(msgs.CredsVerifyFailedFmt, errorDetail(verifyErr)), log)
		sendText(ctx, b, detail.ChatID, fmt.Sprintf(msgs.CredsGroupFailedFmt, detail.ManagerLabel()), log)

		return
	}

	log.InfoContext(ctx, "Credentials verified", "user_id", userID, "chat_id", detail.ChatID)

	sendText(ctx, b, userID, msgs.CredsVerifiedMsg, log)
	sendText(ctx, b, detail.ChatID, fmt.Sprintf(msgs.CredsGroupVerifiedFmt, detail.ManagerLabel()), log)

	fresh, err := h.deps.Store.GetAssignmentByChat(ctx, detail.ChatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to reload assignment", "error", err, "chat_id", detail.ChatID)
		return
	}

	if fresh != nil {
		ensureCustomerLink(ctx, b, h.deps, fresh, log)
	}
}
