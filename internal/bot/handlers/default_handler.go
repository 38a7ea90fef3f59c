package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDefaultHandler creates the catch-all handler for updates no command or
// callback registration claimed: private text feeds the credential
// handshake, group text feeds item drafts, inline queries search units, and
// stray callback taps get a polite dismissal.
func NewDefaultHandler(deps HandlerDeps) bot.HandlerFunc {
	return defaultHandler{deps: deps}.Handle
}

type defaultHandler struct {
	deps HandlerDeps
}

func (h defaultHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	switch Classify(update) {
	case EventPrivateText:
		h.handlePrivateText(ctx, b, update)
	case EventGroupText:
		h.handleGroupText(ctx, b, update)
	case EventInline:
		h.handleInlineQuery(ctx, b, update.InlineQuery)
	case EventCallback:
		h.handleStrayCallback(ctx, b, update.CallbackQuery)
	case EventNone:
	}
}

func (h defaultHandler) handleStrayCallback(ctx context.Context, b *bot.Bot, query *models.CallbackQuery) {
	log := h.deps.Logger.With("handler", "default")

	log.DebugContext(ctx, "Answering unrecognized callback", "data", query.Data, "user_id", query.From.ID)

	h.answerCallback(ctx, b, query.ID, h.deps.Config.Messages.ChoiceUnknownMsg, log)
}

func (h defaultHandler) answerCallback(ctx context.Context, b *bot.Bot, queryID, text string, log *slog.Logger) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to answer callback", "error", err)
	}
}
