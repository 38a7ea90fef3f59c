package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/edgard/salesbridge/internal/database"
)

const (
	// inlineResultLimit caps how many units one inline answer carries.
	inlineResultLimit = 25
	// inlineEmptyCacheSeconds lets Telegram reuse an empty answer briefly
	// instead of re-querying on every keystroke.
	inlineEmptyCacheSeconds = 5
)

// handleInlineQuery serves the unit search. It only produces results while
// the querying user has a draft waiting on a unit, matching against the
// unit list cached in that draft.
func (h defaultHandler) handleInlineQuery(ctx context.Context, b *bot.Bot, query *models.InlineQuery) {
	log := h.deps.Logger.With("handler", "unit_search")

	draft, err := h.deps.Store.GetItemDraft(ctx, query.From.ID)
	if err != nil {
		log.WarnContext(ctx, "Failed to load draft for inline query", "error", err, "user_id", query.From.ID)
		h.answerInline(ctx, b, query.ID, nil, log)

		return
	}

	if draft == nil || draft.Stage != database.StageAwaitUnit || len(draft.Units) == 0 {
		h.answerInline(ctx, b, query.ID, nil, log)
		return
	}

	needle := strings.ToLower(strings.TrimSpace(query.Query))

	var results []models.InlineQueryResult

	for _, unit := range draft.Units {
		if needle != "" && !strings.Contains(strings.ToLower(unit), needle) {
			continue
		}

		results = append(results, &models.InlineQueryResultArticle{
			ID:    uuid.NewString(),
			Title: unit,
			InputMessageContent: &models.InputTextMessageContent{
				MessageText: unit,
			},
			Description: h.deps.Config.Messages.InlineResultDescMsg,
		})

		if len(results) == inlineResultLimit {
			break
		}
	}

	h.answerInline(ctx, b, query.ID, results, log)
}

func (h defaultHandler) answerInline(ctx context.Context, b *bot.Bot, queryID string, results []models.InlineQueryResult, log *slog.Logger) {
	cacheTime := 0
	if len(results) == 0 {
		cacheTime = inlineEmptyCacheSeconds
	}

	_, err := b.AnswerInlineQuery(ctx, &bot.AnswerInlineQueryParams{
		InlineQueryID: queryID,
		Results:       results,
		CacheTime:     cacheTime,
		IsPersonal:    true,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to answer inline query", "error", err)
	}
}
