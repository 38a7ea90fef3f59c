package handlers_test

import (
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/salesbridge/internal/bot/handlers"
	"github.com/edgard/salesbridge/internal/database"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		update *models.Update
		want   handlers.EventKind
	}{
		{
			name:   "nil update",
			update: nil,
			want:   handlers.EventNone,
		},
		{
			name:   "empty update",
			update: &models.Update{},
			want:   handlers.EventNone,
		},
		{
			name: "callback query wins over message",
			update: &models.Update{
				CallbackQuery: &models.CallbackQuery{},
				Message: &models.Message{
					From: &models.User{ID: 1},
					Chat: models.Chat{ID: 1, Type: "private"},
				},
			},
			want: handlers.EventCallback,
		},
		{
			name:   "inline query",
			update: &models.Update{InlineQuery: &models.InlineQuery{}},
			want:   handlers.EventInline,
		},
		{
			name: "private text",
			update: &models.Update{Message: &models.Message{
				From: &models.User{ID: 1},
				Chat: models.Chat{ID: 1, Type: "private"},
			}},
			want: handlers.EventPrivateText,
		},
		{
			name: "group text",
			update: &models.Update{Message: &models.Message{
				From: &models.User{ID: 1},
				Chat: models.Chat{ID: -100, Type: "group"},
			}},
			want: handlers.EventGroupText,
		},
		{
			name: "supergroup text",
			update: &models.Update{Message: &models.Message{
				From: &models.User{ID: 1},
				Chat: models.Chat{ID: -100, Type: "supergroup"},
			}},
			want: handlers.EventGroupText,
		},
		{
			name: "channel post ignored",
			update: &models.Update{Message: &models.Message{
				From: &models.User{ID: 1},
				Chat: models.Chat{ID: -100, Type: "channel"},
			}},
			want: handlers.EventNone,
		},
		{
			name: "message without sender ignored",
			update: &models.Update{Message: &models.Message{
				Chat: models.Chat{ID: 1, Type: "private"},
			}},
			want: handlers.EventNone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := handlers.Classify(tc.update); got != tc.want {
				t.Errorf("Classify() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRouteText(t *testing.T) {
	t.Parallel()

	const (
		managerID = int64(7)
		groupID   = int64(-100)
	)

	assigned := func(userID int64, status database.CredentialStatus) *database.AssignmentDetail {
		return &database.AssignmentDetail{Assignment: database.Assignment{
			ChatID:            groupID,
			UserID:            userID,
			CredentialsStatus: status,
		}}
	}

	draftIn := func(chatID int64) *database.DraftState {
		return &database.DraftState{Stage: database.StageAwaitItemCode, ChatID: chatID}
	}

	tests := []struct {
		name       string
		kind       handlers.EventKind
		senderID   int64
		chatID     int64
		assignment *database.AssignmentDetail
		draft      *database.DraftState
		want       handlers.TextRoute
	}{
		{
			name:     "private unassigned",
			kind:     handlers.EventPrivateText,
			senderID: managerID,
			chatID:   managerID,
			want:     handlers.RouteNotAssigned,
		},
		{
			name:       "private pending key",
			kind:       handlers.EventPrivateText,
			senderID:   managerID,
			chatID:     managerID,
			assignment: assigned(managerID, database.StatusPendingKey),
			want:       handlers.RouteExpectKey,
		},
		{
			name:       "private pending secret",
			kind:       handlers.EventPrivateText,
			senderID:   managerID,
			chatID:     managerID,
			assignment: assigned(managerID, database.StatusPendingSecret),
			want:       handlers.RouteExpectSecret,
		},
		{
			name:       "private already active",
			kind:       handlers.EventPrivateText,
			senderID:   managerID,
			chatID:     managerID,
			assignment: assigned(managerID, database.StatusActive),
			want:       handlers.RouteAlreadyActive,
		},
		{
			name:     "group without assignment",
			kind:     handlers.EventGroupText,
			senderID: managerID,
			chatID:   groupID,
			draft:    draftIn(groupID),
			want:     handlers.RouteIgnore,
		},
		{
			name:       "group text from non-manager",
			kind:       handlers.EventGroupText,
			senderID:   99,
			chatID:     groupID,
			assignment: assigned(managerID, database.StatusActive),
			draft:      draftIn(groupID),
			want:       handlers.RouteIgnore,
		},
		{
			name:       "group manager not active",
			kind:       handlers.EventGroupText,
			senderID:   managerID,
			chatID:     groupID,
			assignment: assigned(managerID, database.StatusPendingSecret),
			draft:      draftIn(groupID),
			want:       handlers.RouteIgnore,
		},
		{
			name:       "group manager without draft",
			kind:       handlers.EventGroupText,
			senderID:   managerID,
			chatID:     groupID,
			assignment: assigned(managerID, database.StatusActive),
			want:       handlers.RouteIgnore,
		},
		{
			name:       "group manager with matching draft",
			kind:       handlers.EventGroupText,
			senderID:   managerID,
			chatID:     groupID,
			assignment: assigned(managerID, database.StatusActive),
			draft:      draftIn(groupID),
			want:       handlers.RouteAdvanceDraft,
		},
		{
			name:       "group manager with draft from another group",
			kind:       handlers.EventGroupText,
			senderID:   managerID,
			chatID:     groupID,
			assignment: assigned(managerID, database.StatusActive),
			draft:      draftIn(-200),
			want:       handlers.RouteDraftElsewhere,
		},
		{
			name:     "non-text event",
			kind:     handlers.EventNone,
			senderID: managerID,
			chatID:   groupID,
			want:     handlers.RouteIgnore,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := handlers.RouteText(tc.kind, tc.senderID, tc.chatID, tc.assignment, tc.draft)
			if got != tc.want {
				t.Errorf("RouteText() = %v, want %v", got, tc.want)
			}
		})
	}
}
