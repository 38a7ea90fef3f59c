package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
	"github.com/edgard/salesbridge/internal/erpnext"
)

const (
	doctypeItemGroup = "Item Group"
	doctypeUnit      = "UOM"
	// resourceListLimit bounds the option lists fetched for choice keyboards.
	resourceListLimit = 500
)

// handleGroupText feeds plain group messages from the assigned manager into
// their item draft. Messages from anyone else, bots, and commands are
// ignored without a reply.
func (h defaultHandler) handleGroupText(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "item_flow")

	msg := update.Message
	sender := msg.From

	if sender.IsBot {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return
	}

	if _, err := h.deps.Store.UpsertUser(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName); err != nil {
		log.ErrorContext(ctx, "Failed to record user", "error", err, "user_id", sender.ID)
	}

	if err := h.deps.Store.UpsertChat(ctx, msg.Chat.ID, msg.Chat.Title); err != nil {
		log.ErrorContext(ctx, "Failed to record chat", "error", err, "chat_id", msg.Chat.ID)
	}

	detail, err := h.deps.Store.GetAssignmentByChat(ctx, msg.Chat.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load assignment", "error", err, "chat_id", msg.Chat.ID)
		return
	}

	if detail == nil || detail.UserID != sender.ID || detail.CredentialsStatus != database.StatusActive {
		return
	}

	draft, err := h.deps.Store.GetItemDraft(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, database.ErrCorruptedDraft) {
			log.WarnContext(ctx, "Discarding corrupted item draft", "user_id", sender.ID)
			discardDraft(ctx, h.deps, sender.ID, log)
			sendText(ctx, b, msg.Chat.ID, h.deps.Config.Messages.FlowRestartMsg, log)

			return
		}

		log.ErrorContext(ctx, "Failed to load item draft", "error", err, "user_id", sender.ID)

		return
	}

	switch RouteText(EventGroupText, sender.ID, msg.Chat.ID, detail, draft) {
	case RouteAdvanceDraft:
		advanceDraft(ctx, b, h.deps, detail, draft, text, log)
	case RouteDraftElsewhere:
		log.WarnContext(ctx, "Draft belongs to another group",
			"user_id", sender.ID,
			"draft_chat_id", draft.ChatID,
			"chat_id", msg.Chat.ID)
		discardDraft(ctx, h.deps, sender.ID, log)
		sendText(ctx, b, msg.Chat.ID, h.deps.Config.Messages.FlowWrongChatMsg, log)
	}
}

// advanceDraft feeds one value into the draft state machine. The value may
// arrive as typed group text, a keyboard pick, or an inline search result;
// by the time it lands here they are all just text.
func advanceDraft(ctx context.Context, b *bot.Bot, deps HandlerDeps, detail *database.AssignmentDetail, draft *database.DraftState, input string, log *slog.Logger) {
	msgs := deps.Config.Messages
	chatID := draft.ChatID

	if !detail.HasCredentials() {
		discardDraft(ctx, deps, detail.UserID, log)
		sendText(ctx, b, chatID, msgs.FlowNoCredsMsg, log)

		return
	}

	input = strings.TrimSpace(input)
	if input == "" {
		sendText(ctx, b, chatID, msgs.FlowEmptyValueMsg, log)
		return
	}

	key := detail.APIKey.String
	secret := detail.APISecret.String

	switch draft.Stage {
	case database.StageAwaitItemCode:
		draft.ItemCode = input
		draft.Stage = database.StageAwaitItemName

		if err := deps.Store.SaveItemDraft(ctx, detail.UserID, draft); err != nil {
			log.ErrorContext(ctx, "Failed to save item draft", "error", err, "user_id", detail.UserID)
			sendText(ctx, b, chatID, msgs.GeneralErrorMsg, log)

			return
		}

		sendText(ctx, b, chatID, msgs.FlowAskNameMsg, log)

	case database.StageAwaitItemName:
		groups, err := deps.ERPNext.ListResourceNames(ctx, key, secret, doctypeItemGroup, resourceListLimit)
		if err != nil {
			log.ErrorContext(ctx, "Failed to fetch item groups", "error", err)
			discardDraft(ctx, deps, detail.UserID, log)
			sendText(ctx, b, chatID, fmt.Sprintf(msgs.FlowGroupsFetchErrMsg, errorDetail(err)), log)

			return
		}

		if len(groups) == 0 {
			discardDraft(ctx, deps, detail.UserID, log)
			sendText(ctx, b, chatID, msgs.ChoiceEmptyMsg, log)

			return
		}

		draft.ItemName = input
		draft.ItemGroups = groups
		draft.ItemGroupPage = 0
		draft.Stage = database.StageAwaitItemGroup

		if err := deps.Store.SaveItemDraft(ctx, detail.UserID, draft); err != nil {
			log.ErrorContext(ctx, "Failed to save item draft", "error", err, "user_id", detail.UserID)
			sendText(ctx, b, chatID, msgs.GeneralErrorMsg, log)

			return
		}

		sendChoicePage(ctx, b, deps, detail, draft, database.KindItemGroup, log)

	case database.StageAwaitItemGroup:
		selected, ok := matchChoice(input, draft.ItemGroups)
		if !ok {
			sendText(ctx, b, chatID, msgs.FlowBadGroupMsg, log)
			return
		}

		units, err := deps.ERPNext.ListResourceNames(ctx, key, secret, doctypeUnit, resourceListLimit)
		if err != nil {
			log.ErrorContext(ctx, "Failed to fetch units", "error", err)
			discardDraft(ctx, deps, detail.UserID, log)
			sendText(ctx, b, chatID, fmt.Sprintf(msgs.FlowUnitsFetchErrMsg, errorDetail(err)), log)

			return
		}

		if len(units) == 0 {
			discardDraft(ctx, deps, detail.UserID, log)
			sendText(ctx, b, chatID, msgs.ChoiceEmptyMsg, log)

			return
		}

		draft.ItemGroup = selected
		draft.Units = units
		draft.UnitPage = 0
		draft.Stage = database.StageAwaitUnit

		if err := deps.Store.SaveItemDraft(ctx, detail.UserID, draft); err != nil {
			log.ErrorContext(ctx, "Failed to save item draft", "error", err, "user_id", detail.UserID)
			sendText(ctx, b, chatID, msgs.GeneralErrorMsg, log)

			return
		}

		sendChoicePage(ctx, b, deps, detail, draft, database.KindUnit, log)

		if info := deps.Config.Telegram.BotInfo; info != nil && info.Username != "" {
			sendText(ctx, b, chatID, fmt.Sprintf(msgs.ChoiceSearchHintFmt, info.Username), log)
		}

	case database.StageAwaitUnit:
		selected, ok := matchChoice(input, draft.Units)
		if !ok {
			sendText(ctx, b, chatID, msgs.FlowBadUnitMsg, log)
			return
		}

		item := erpnext.Item{
			Code:  draft.ItemCode,
			Name:  draft.ItemName,
			Group: draft.ItemGroup,
			Unit:  selected,
		}

		if err := deps.ERPNext.CreateItem(ctx, key, secret, item); err != nil {
			log.WarnContext(ctx, "Item creation rejected", "error", err, "item_code", item.Code)

			// The draft stays at the unit stage so the manager can retry.
			sendText(ctx, b, chatID, fmt.Sprintf(msgs.FlowCreateErrorMsg, errorDetail(err)), log)

			return
		}

		log.InfoContext(ctx, "Item created",
			"item_code", item.Code,
			"chat_id", chatID,
			"user_id", detail.UserID)

		discardDraft(ctx, deps, detail.UserID, log)
		sendText(ctx, b, chatID, fmt.Sprintf(msgs.FlowCreatedFmt, item.Code, item.Name, item.Group, item.Unit), log)

	default:
		discardDraft(ctx, deps, detail.UserID, log)
		sendText(ctx, b, chatID, msgs.FlowRestartMsg, log)
	}
}

// sendChoicePage posts the current page of options for a list-bound stage.
func sendChoicePage(ctx context.Context, b *bot.Bot, deps HandlerDeps, detail *database.AssignmentDetail, draft *database.DraftState, kind database.ChoiceKind, log *slog.Logger) {
	msgs := deps.Config.Messages

	prompt := msgs.FlowGroupPromptMsg
	if kind == database.KindUnit {
		prompt = msgs.FlowUnitPromptMsg
	}

	options := draft.Choices(kind)
	page := draft.Page(kind)

	keyboard := buildChoiceKeyboard(kind, draft.ChatID, detail.UserID, options, page,
		msgs.ChoicePrevLabel, msgs.ChoiceNextLabel)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      draft.ChatID,
		Text:        choicePromptText(prompt, msgs.ChoicePageFmt, page, len(options)),
		ReplyMarkup: keyboard,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send choice keyboard", "error", err, "chat_id", draft.ChatID)
	}
}

func discardDraft(ctx context.Context, deps HandlerDeps, userID int64, log *slog.Logger) {
	if err := deps.Store.DeleteItemDraft(ctx, userID); err != nil {
		log.ErrorContext(ctx, "Failed to discard item draft", "error", err, "user_id", userID)
	}
}

// ensureCustomerLink makes sure the group's ERPNext customer record exists
// and is referenced by the assignment. It looks the customer up by the name
// derived from the group title, creates it when missing, and announces the
// link in the group. Failures are logged and left for the next attempt.
func ensureCustomerLink(ctx context.Context, b *bot.Bot, deps HandlerDeps, detail *database.AssignmentDetail, log *slog.Logger) {
	if detail.CustomerDocname.Valid && detail.CustomerDocname.String != "" {
		return
	}

	if !detail.HasCredentials() || deps.Config.ERPNext.BaseURL == "" {
		return
	}

	key := detail.APIKey.String
	secret := detail.APISecret.String
	customerName := customerNameFromTitle(detail.Title.String, detail.ChatID)

	docname, err := deps.ERPNext.FindCustomer(ctx, key, secret, customerName)
	if err != nil {
		log.WarnContext(ctx, "Customer lookup failed", "error", err, "customer_name", customerName)
		return
	}

	if docname == "" {
		docname, err = deps.ERPNext.CreateCustomer(ctx, key, secret, customerName)
		if err != nil {
			log.WarnContext(ctx, "Customer creation failed", "error", err, "customer_name", customerName)
			return
		}
	}

	if err := deps.Store.SetCustomerRef(ctx, detail.ChatID, docname); err != nil {
		log.ErrorContext(ctx, "Failed to store customer reference", "error", err, "chat_id", detail.ChatID)
		return
	}

	detail.CustomerDocname = sql.NullString{String: docname, Valid: true}

	log.InfoContext(ctx, "Customer linked", "chat_id", detail.ChatID, "docname", docname)

	sendText(ctx, b, detail.ChatID,
		fmt.Sprintf(deps.Config.Messages.CustomerLinkedFmt, customerName, docname), log)
}

// customerNameFromTitle derives the ERPNext customer name from a group
// title. Titles follow the "<region> <channel> <customer...>" convention, so
// everything after the second word is the customer; shorter titles are used
// whole, and an empty title falls back to a synthetic name.
func customerNameFromTitle(title string, chatID int64) string {
	trimmed := strings.TrimSpace(title)

	parts := strings.Fields(trimmed)
	if len(parts) > 2 {
		return strings.Join(parts[2:], " ")
	}

	if trimmed != "" {
		return trimmed
	}

	return fmt.Sprintf("Auto Customer %d", chatID)
}

func sendText(ctx context.Context, b *bot.Bot, chatID int64, text string, log *slog.Logger) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
