package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// CredentialStatus tracks how far an assigned manager has progressed through
// the ERPNext credential handshake.
type CredentialStatus string

const (
	// StatusPendingKey means the assignment exists but no API key was sent yet.
	StatusPendingKey CredentialStatus = "pending_key"
	// StatusPendingSecret means the key is stored and the secret is awaited
	// (or its last verification failed).
	StatusPendingSecret CredentialStatus = "pending_secret"
	// StatusActive means a key/secret pair passed verification.
	StatusActive CredentialStatus = "active"
)

// User represents a Telegram user who has contacted the bot, either privately
// or through group activity. Users are never deleted except by a full reset.
type User struct {
	TelegramID int64          `db:"telegram_id"`
	Username   sql.NullString `db:"username"`
	FirstName  sql.NullString `db:"first_name"`
	LastName   sql.NullString `db:"last_name"`
	StartedAt  time.Time      `db:"started_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// DisplayLabel renders the user for buttons and notifications: full name,
// else @username, else the numeric id.
func (u *User) DisplayLabel() string {
	return displayLabel(u.FirstName.String, u.LastName.String, u.Username.String, u.TelegramID)
}

// Chat represents a group chat the bot has seen. The title is refreshed
// opportunistically and a known title is never overwritten with an empty one.
type Chat struct {
	ChatID    int64          `db:"chat_id"`
	Title     sql.NullString `db:"title"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Assignment binds exactly one user to exactly one chat, together with the
// credential handshake state and the linked ERPNext customer record.
type Assignment struct {
	ChatID            int64            `db:"chat_id"`
	UserID            int64            `db:"user_id"`
	AssignedAt        time.Time        `db:"assigned_at"`
	APIKey            sql.NullString   `db:"api_key"`
	APISecret         sql.NullString   `db:"api_secret"`
	CredentialsStatus CredentialStatus `db:"credentials_status"`
	CustomerDocname   sql.NullString   `db:"customer_docname"`
}

// HasCredentials reports whether both the key and the secret are stored.
func (a *Assignment) HasCredentials() bool {
	return a.APIKey.Valid && a.APIKey.String != "" && a.APISecret.Valid && a.APISecret.String != ""
}

// AssignmentDetail is an assignment joined with chat and user metadata for
// display purposes.
type AssignmentDetail struct {
	Assignment

	Title     sql.NullString `db:"title"`
	Username  sql.NullString `db:"username"`
	FirstName sql.NullString `db:"first_name"`
	LastName  sql.NullString `db:"last_name"`
}

// ManagerLabel renders the assigned manager the same way User.DisplayLabel
// does.
func (d *AssignmentDetail) ManagerLabel() string {
	return displayLabel(d.FirstName.String, d.LastName.String, d.Username.String, d.UserID)
}

// GroupLabel renders the chat title, falling back to the numeric chat id.
func (d *AssignmentDetail) GroupLabel() string {
	if d.Title.Valid && d.Title.String != "" {
		return d.Title.String
	}

	return strconv.FormatInt(d.ChatID, 10)
}

func displayLabel(first, last, username string, id int64) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{first, last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if username != "" {
		return "@" + username
	}

	return strconv.FormatInt(id, 10)
}

// DraftStage tags the step an item draft is waiting on. Only the four values
// below ever reach storage; anything else is treated as a corrupted draft.
type DraftStage string

const (
	StageAwaitItemCode  DraftStage = "await_item_code"
	StageAwaitItemName  DraftStage = "await_item_name"
	StageAwaitItemGroup DraftStage = "await_item_group"
	StageAwaitUnit      DraftStage = "await_uom"
)

// Valid reports whether the stage is one of the four known draft stages.
func (s DraftStage) Valid() bool {
	switch s {
	case StageAwaitItemCode, StageAwaitItemName, StageAwaitItemGroup, StageAwaitUnit:
		return true
	}

	return false
}

// ChoiceKind names a list-bound draft field resolved through the paginated
// choice keyboard.
type ChoiceKind string

const (
	// KindItemGroup selects from the fetched ERPNext item groups.
	KindItemGroup ChoiceKind = "item_group"
	// KindUnit selects from the fetched ERPNext units of measure.
	KindUnit ChoiceKind = "uom"
)

// Valid reports whether the kind is a known choice kind.
func (k ChoiceKind) Valid() bool {
	return k == KindItemGroup || k == KindUnit
}

// DraftState is the full in-flight state of one guided item creation. It is
// persisted wholesale as a JSON blob keyed by the drafting user; the zero
// page indexes and empty lists are omitted from the encoding.
type DraftState struct {
	Stage  DraftStage `json:"stage"`
	ChatID int64      `json:"chat_id"`

	ItemCode  string `json:"item_code,omitempty"`
	ItemName  string `json:"item_name,omitempty"`
	ItemGroup string `json:"item_group,omitempty"`

	ItemGroups []string `json:"item_groups,omitempty"`
	Units      []string `json:"uoms,omitempty"`

	ItemGroupPage int `json:"item_group_page,omitempty"`
	UnitPage      int `json:"uom_page,omitempty"`
}

// Choices returns the cached option list for the given kind.
func (d *DraftState) Choices(kind ChoiceKind) []string {
	if kind == KindItemGroup {
		return d.ItemGroups
	}

	return d.Units
}

// Page returns the current page index for the given kind.
func (d *DraftState) Page(kind ChoiceKind) int {
	if kind == KindItemGroup {
		return d.ItemGroupPage
	}

	return d.UnitPage
}

// SetPage stores the current page index for the given kind.
func (d *DraftState) SetPage(kind ChoiceKind, page int) {
	if kind == KindItemGroup {
		d.ItemGroupPage = page
	} else {
		d.UnitPage = page
	}
}
