package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

// NewChoiceCallbackHandler handles taps on the paginated choice keyboards:
// page flips re-render the keyboard in place, picks feed the chosen option
// into the draft.
func NewChoiceCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return choiceCallbackHandler{deps: deps}.Handle
}

type choiceCallbackHandler struct {
	deps HandlerDeps
}

func (h choiceCallbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	log := h.deps.Logger.With("handler", "choice_callback")

	query := update.CallbackQuery
	if query == nil {
		log.WarnContext(ctx, "Received choice callback without query", "update_id", update.ID)
		return
	}

	msgs := h.deps.Config.Messages

	token, ok := parseChoiceToken(query.Data)
	if !ok {
		log.WarnContext(ctx, "Malformed choice callback data", "data", query.Data)
		h.answer(ctx, b, query.ID, msgs.ChoiceBadTokenMsg, log)

		return
	}

	if query.From.ID != token.UserID {
		h.answer(ctx, b, query.ID, msgs.ChoiceNotYoursMsg, log)
		return
	}

	detail, err := h.deps.Store.GetAssignmentByChat(ctx, token.ChatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load assignment", "error", err, "chat_id", token.ChatID)
		h.answer(ctx, b, query.ID, msgs.GeneralErrorMsg, log)

		return
	}

	if detail == nil || detail.UserID != token.UserID {
		h.answer(ctx, b, query.ID, msgs.ChoiceNoAssignmentMsg, log)
		return
	}

	if detail.CredentialsStatus != database.StatusActive {
		h.answer(ctx, b, query.ID, msgs.ChoiceNotActiveMsg, log)
		return
	}

	draft, err := h.deps.Store.GetItemDraft(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, database.ErrCorruptedDraft) {
			log.WarnContext(ctx, "Discarding corrupted item draft", "user_id", token.UserID)
			discardDraft(ctx, h.deps, token.UserID, log)
			h.answer(ctx, b, query.ID, msgs.FlowRestartMsg, log)

			return
		}

		log.ErrorContext(ctx, "Failed to load item draft", "error", err, "user_id", token.UserID)
		h.answer(ctx, b, query.ID, msgs.GeneralErrorMsg, log)

		return
	}

	if draft == nil {
		h.answer(ctx, b, query.ID, msgs.FlowRestartMsg, log)
		return
	}

	if draft.ChatID != token.ChatID {
		discardDraft(ctx, h.deps, token.UserID, log)
		h.answer(ctx, b, query.ID, msgs.FlowWrongChatMsg, log)

		return
	}

	if !token.Kind.Valid() {
		log.WarnContext(ctx, "Unknown choice kind", "kind", string(token.Kind))
		h.answer(ctx, b, query.ID, msgs.ChoiceBadKindMsg, log)

		return
	}

	switch token.Op {
	case opPage:
		h.handlePageFlip(ctx, b, query, token, detail, draft, log)
	case opPick:
		h.handlePick(ctx, b, query, token, detail, draft, log)
	}
}

// handlePageFlip persists the requested page and redraws the keyboard on
// the message that was tapped.
func (h choiceCallbackHandler) handlePageFlip(ctx context.Context, b *bot.Bot, query *models.CallbackQuery, token choiceToken, detail *database.AssignmentDetail, draft *database.DraftState, log *slog.Logger) {
	msgs := h.deps.Config.Messages

	page, err := strconv.Atoi(token.RawValue)
	if err != nil {
		h.answer(ctx, b, query.ID, msgs.ChoiceBadPageMsg, log)
		return
	}

	options := draft.Choices(token.Kind)
	if len(options) == 0 {
		h.answer(ctx, b, query.ID, msgs.ChoiceEmptyMsg, log)
		return
	}

	page = clampChoicePage(page, len(options))
	draft.SetPage(token.Kind, page)

	if err := h.deps.Store.SaveItemDraft(ctx, token.UserID, draft); err != nil {
		log.ErrorContext(ctx, "Failed to save draft page", "error", err, "user_id", token.UserID)
		h.answer(ctx, b, query.ID, msgs.GeneralErrorMsg, log)

		return
	}

	if msg := query.Message.Message; msg != nil {
		prompt := msgs.FlowGroupPromptMsg
		if token.Kind == database.KindUnit {
			prompt = msgs.FlowUnitPromptMsg
		}

		keyboard := buildChoiceKeyboard(token.Kind, token.ChatID, token.UserID, options, page,
			msgs.ChoicePrevLabel, msgs.ChoiceNextLabel)

		_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      msg.Chat.ID,
			MessageID:   msg.ID,
			Text:        choicePromptText(prompt, msgs.ChoicePageFmt, page, len(options)),
			ReplyMarkup: keyboard,
		})
		if err != nil {
			log.WarnContext(ctx, "Failed to redraw choice keyboard", "error", err, "chat_id", msg.Chat.ID)
		}
	}

	h.answer(ctx, b, query.ID, "", log)
}

// handlePick resolves the tapped option index against the cached list and
// advances the draft with it.
func (h choiceCallbackHandler) handlePick(ctx context.Context, b *bot.Bot, query *models.CallbackQuery, token choiceToken, detail *database.AssignmentDetail, draft *database.DraftState, log *slog.Logger) {
	msgs := h.deps.Config.Messages

	selected, ok := resolveChoiceIndex(token.RawValue, draft.Choices(token.Kind))
	if !ok {
		h.answer(ctx, b, query.ID, msgs.ChoiceGoneMsg, log)
		return
	}

	h.answer(ctx, b, query.ID, fmt.Sprintf(msgs.ChoicePickedFmt, selected), log)

	// Retire the keyboard; an expired message just keeps its buttons.
	if msg := query.Message.Message; msg != nil {
		_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      fmt.Sprintf(msgs.ChoicePickedFmt, selected),
		})
		if err != nil {
			log.DebugContext(ctx, "Failed to retire choice keyboard", "error", err)
		}
	}

	advanceDraft(ctx, b, h.deps, detail, draft, selected, log)
}

func (h choiceCallbackHandler) answer(ctx context.Context, b *bot.Bot, queryID, text string, log *slog.Logger) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to answer choice callback", "error", err)
	}
}
