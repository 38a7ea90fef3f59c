package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

// NewReportHandler creates the /report command handler. It pulls the latest
// rows of the configured ERPNext resource using the group's stored
// credentials and renders them as a plain text digest.
func NewReportHandler(deps HandlerDeps) bot.HandlerFunc {
	return reportHandler{deps: deps}.Handle
}

type reportHandler struct {
	deps HandlerDeps
}

func (h reportHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "report")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Received report update without message or sender", "update_id", update.ID)
		return
	}

	msgs := h.deps.Config.Messages
	chatID := update.Message.Chat.ID

	if !isGroupChat(update.Message.Chat) {
		h.reply(ctx, b, chatID, msgs.GroupOnlyMsg, log)
		return
	}

	log.InfoContext(ctx, "Handling /report command", "chat_id", chatID)

	detail, err := h.deps.Store.GetAssignmentByChat(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load assignment", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, msgs.GeneralErrorMsg, log)

		return
	}

	if detail == nil {
		h.reply(ctx, b, chatID, msgs.ReportNoAssignmentMsg, log)
		return
	}

	if detail.CredentialsStatus != database.StatusActive {
		h.reply(ctx, b, chatID, msgs.ReportNotActiveMsg, log)
		return
	}

	if !detail.HasCredentials() {
		h.reply(ctx, b, chatID, msgs.ReportNoCredsMsg, log)
		return
	}

	erp := h.deps.Config.ERPNext

	rows, err := h.deps.ERPNext.FetchReportRows(ctx,
		detail.APIKey.String, detail.APISecret.String,
		erp.ReportResource, erp.ReportFields, erp.ReportLimit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to fetch report rows", "error", err, "resource", erp.ReportResource)
		h.reply(ctx, b, chatID, fmt.Sprintf(msgs.ReportFetchErrorMsg, errorDetail(err)), log)

		return
	}

	if len(rows) == 0 {
		h.reply(ctx, b, chatID, msgs.ReportEmptyMsg, log)
		return
	}

	h.reply(ctx, b, chatID, h.renderReport(rows), log)
}

// renderReport turns report rows into the digest text. Field order follows
// the configured field list so every row reads the same way.
func (h reportHandler) renderReport(rows []map[string]any) string {
	erp := h.deps.Config.ERPNext

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, fmt.Sprintf(h.deps.Config.Messages.ReportHeaderFmt, erp.ReportResource, len(rows)))

	for _, row := range rows {
		pairs := make([]string, 0, len(erp.ReportFields))

		for _, field := range erp.ReportFields {
			value, present := row[field]
			if !present || value == nil {
				continue
			}

			rendered := strings.TrimSpace(fmt.Sprintf("%v", value))
			if rendered == "" {
				continue
			}

			pairs = append(pairs, field+": "+rendered)
		}

		if len(pairs) > 0 {
			lines = append(lines, "- "+strings.Join(pairs, ", "))
		}
	}

	return strings.Join(lines, "\n")
}

func (h reportHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send report reply", "error", err, "chat_id", chatID)
	}
}
