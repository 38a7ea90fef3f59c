package database_test

import (
	"database/sql"
	"testing"

	"github.com/edgard/salesbridge/internal/database"
)

func TestUserDisplayLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		user     database.User
		expected string
	}{
		{
			name: "full name",
			user: database.User{
				TelegramID: 111,
				Username:   sql.NullString{String: "alice", Valid: true},
				FirstName:  sql.NullString{String: "Alice", Valid: true},
				LastName:   sql.NullString{String: "Stone", Valid: true},
			},
			expected: "Alice Stone",
		},
		{
			name: "first name only",
			user: database.User{
				TelegramID: 111,
				FirstName:  sql.NullString{String: "Alice", Valid: true},
			},
			expected: "Alice",
		},
		{
			name: "username fallback",
			user: database.User{
				TelegramID: 111,
				Username:   sql.NullString{String: "alice", Valid: true},
			},
			expected: "@alice",
		},
		{
			name:     "numeric id fallback",
			user:     database.User{TelegramID: 111},
			expected: "111",
		},
		{
			name: "blank strings treated as missing",
			user: database.User{
				TelegramID: 111,
				Username:   sql.NullString{String: "", Valid: true},
				FirstName:  sql.NullString{String: "", Valid: true},
			},
			expected: "111",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.user.DisplayLabel(); got != tc.expected {
				t.Errorf("DisplayLabel() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestAssignmentDetailLabels(t *testing.T) {
	t.Parallel()

	detail := database.AssignmentDetail{
		Assignment: database.Assignment{ChatID: -555, UserID: 111},
		Title:      sql.NullString{String: "Wholesale Buyers", Valid: true},
		FirstName:  sql.NullString{String: "Alice", Valid: true},
	}

	if got := detail.ManagerLabel(); got != "Alice" {
		t.Errorf("ManagerLabel() = %q, want %q", got, "Alice")
	}
	if got := detail.GroupLabel(); got != "Wholesale Buyers" {
		t.Errorf("GroupLabel() = %q, want %q", got, "Wholesale Buyers")
	}

	bare := database.AssignmentDetail{
		Assignment: database.Assignment{ChatID: -555, UserID: 111},
	}
	if got := bare.ManagerLabel(); got != "111" {
		t.Errorf("ManagerLabel() fallback = %q, want %q", got, "111")
	}
	if got := bare.GroupLabel(); got != "-555" {
		t.Errorf("GroupLabel() fallback = %q, want %q", got, "-555")
	}
}

func TestDraftStageValid(t *testing.T) {
	t.Parallel()

	valid := []database.DraftStage{
		database.StageAwaitItemCode,
		database.StageAwaitItemName,
		database.StageAwaitItemGroup,
		database.StageAwaitUnit,
	}
	for _, stage := range valid {
		if !stage.Valid() {
			t.Errorf("stage %q reported invalid", stage)
		}
	}

	for _, stage := range []database.DraftStage{"", "await_price", "AWAIT_CODE"} {
		if stage.Valid() {
			t.Errorf("stage %q reported valid", stage)
		}
	}
}

func TestDraftStateChoiceAccess(t *testing.T) {
	t.Parallel()

	state := database.DraftState{
		Stage:      database.StageAwaitItemGroup,
		ItemGroups: []string{"Products", "Services"},
		Units:      []string{"Nos"},
	}

	if got := state.Choices(database.KindItemGroup); len(got) != 2 {
		t.Errorf("Choices(item_group) = %v, want 2 entries", got)
	}
	if got := state.Choices(database.KindUnit); len(got) != 1 {
		t.Errorf("Choices(uom) = %v, want 1 entry", got)
	}

	state.SetPage(database.KindItemGroup, 2)
	state.SetPage(database.KindUnit, 1)

	if got := state.Page(database.KindItemGroup); got != 2 {
		t.Errorf("Page(item_group) = %d, want 2", got)
	}
	if got := state.Page(database.KindUnit); got != 1 {
		t.Errorf("Page(uom) = %d, want 1", got)
	}
}
