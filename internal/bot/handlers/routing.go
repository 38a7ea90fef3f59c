package handlers

import (
	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/database"
)

// EventKind identifies which part of an update the default handler should act on.
type EventKind int

const (
	// EventNone marks updates the default handler has nothing to do with.
	EventNone EventKind = iota
	// EventPrivateText is a plain text message in a private chat.
	EventPrivateText
	// EventGroupText is a plain text message in a group or supergroup.
	EventGroupText
	// EventCallback is a callback query no registered handler claimed.
	EventCallback
	// EventInline is an inline query.
	EventInline
)

// Classify inspects an update and reports which event the default handler
// should process. Callback and inline queries win over messages because an
// update carries at most one of them.
func Classify(update *models.Update) EventKind {
	if update == nil {
		return EventNone
	}

	if update.CallbackQuery != nil {
		return EventCallback
	}

	if update.InlineQuery != nil {
		return EventInline
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return EventNone
	}

	switch {
	case isPrivateChat(msg.Chat):
		return EventPrivateText
	case isGroupChat(msg.Chat):
		return EventGroupText
	default:
		return EventNone
	}
}

func isPrivateChat(chat models.Chat) bool {
	return chat.Type == "private"
}

func isGroupChat(chat models.Chat) bool {
	return chat.Type == "group" || chat.Type == "supergroup"
}

// TextRoute names the action a plain text message should trigger.
type TextRoute int

const (
	// RouteIgnore drops the message silently.
	RouteIgnore TextRoute = iota
	// RouteNotAssigned tells a private sender they have no group yet.
	RouteNotAssigned
	// RouteExpectKey treats the text as an API key submission.
	RouteExpectKey
	// RouteExpectSecret treats the text as an API secret submission.
	RouteExpectSecret
	// RouteAlreadyActive reminds the sender their credentials are verified.
	RouteAlreadyActive
	// RouteAdvanceDraft feeds the text into the sender's item draft.
	RouteAdvanceDraft
	// RouteDraftElsewhere discards a draft that belongs to another group.
	RouteDraftElsewhere
)

// RouteText decides what a text message means for the sender given their
// assignment and current draft. Private chats drive the credential handshake;
// group chats only ever advance an item draft.
func RouteText(kind EventKind, senderID, chatID int64, assignment *database.AssignmentDetail, draft *database.DraftState) TextRoute {
	switch kind {
	case EventPrivateText:
		if assignment == nil {
			return RouteNotAssigned
		}

		switch assignment.CredentialsStatus {
		case database.StatusPendingKey:
			return RouteExpectKey
		case database.StatusPendingSecret:
			return RouteExpectSecret
		case database.StatusActive:
			return RouteAlreadyActive
		default:
			return RouteIgnore
		}

	case EventGroupText:
		if assignment == nil || assignment.UserID != senderID {
			return RouteIgnore
		}

		if assignment.CredentialsStatus != database.StatusActive {
			return RouteIgnore
		}

		if draft == nil {
			return RouteIgnore
		}

		if draft.ChatID != chatID {
			return RouteDraftElsewhere
		}

		return RouteAdvanceDraft

	default:
		return RouteIgnore
	}
}
