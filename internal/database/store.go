package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrCorruptedDraft marks a stored draft whose state blob cannot be decoded
// into a known stage. The caller is expected to delete the draft and ask the
// user to restart; corrupted drafts are never repaired.
var ErrCorruptedDraft = errors.New("corrupted item draft state")

// AssignmentError reports a violated assignment invariant (unknown user,
// chat already assigned, user already assigned elsewhere). It is always
// recoverable: the Reason is shown to the initiating chat and nothing has
// been mutated.
type AssignmentError struct {
	Reason string
}

func (e *AssignmentError) Error() string {
	return e.Reason
}

// Store defines the data access layer for users, chats, assignments, and item
// drafts. Every method runs inside a single process-wide critical section, so
// invariant checks and the write that follows them are atomic relative to any
// other store call.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertUser records a user contact, creating the row on first sight and
	// refreshing username/first/last afterwards. Reports whether the user is new.
	UpsertUser(ctx context.Context, userID int64, username, firstName, lastName string) (bool, error)

	// GetUser retrieves a user by Telegram id. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// ListUnassignedUsers returns users without an assignment, ordered by
	// display label ascending, capped at limit.
	ListUnassignedUsers(ctx context.Context, limit int) ([]*User, error)

	// UpsertChat records a group chat, never overwriting a known title with an
	// empty one.
	UpsertChat(ctx context.Context, chatID int64, title string) error

	// GetChat retrieves a chat by id. Returns nil, nil if not found.
	GetChat(ctx context.Context, chatID int64) (*Chat, error)

	// GetAssignmentByChat returns the assignment for a chat joined with
	// chat/user metadata. Returns nil, nil if the chat has no assignment.
	GetAssignmentByChat(ctx context.Context, chatID int64) (*AssignmentDetail, error)

	// GetAssignmentByUser returns the assignment held by a user. Returns
	// nil, nil if the user holds none.
	GetAssignmentByUser(ctx context.Context, userID int64) (*AssignmentDetail, error)

	// CreateAssignment binds a user to a chat with credential status
	// pending_key. Fails with *AssignmentError if the user is unknown, the
	// chat is already assigned, or the user is assigned elsewhere.
	CreateAssignment(ctx context.Context, chatID, userID int64) error

	// SetAPIKey stores a verified-format API key and moves the user's
	// assignment to pending_secret.
	SetAPIKey(ctx context.Context, userID int64, key string) error

	// SetAPISecret stores the secret regardless of the verification outcome;
	// the status becomes active only when verified is true.
	SetAPISecret(ctx context.Context, userID int64, secret string, verified bool) error

	// ResetCredentials clears both credentials and returns the assignment to
	// pending_key.
	ResetCredentials(ctx context.Context, userID int64) error

	// SetCustomerRef persists the linked ERPNext customer docname on the
	// chat's assignment.
	SetCustomerRef(ctx context.Context, chatID int64, docname string) error

	// ClearAssignments removes every assignment while keeping users and chats.
	ClearAssignments(ctx context.Context) error

	// ResetAll wipes users, chats, assignments, and drafts in one transaction.
	ResetAll(ctx context.Context) error

	// GetItemDraft loads a user's in-flight draft. Returns nil, nil when the
	// user has none and an error wrapping ErrCorruptedDraft when the stored
	// blob cannot be decoded into a known stage.
	GetItemDraft(ctx context.Context, userID int64) (*DraftState, error)

	// SaveItemDraft replaces the user's draft wholesale.
	SaveItemDraft(ctx context.Context, userID int64, state *DraftState) error

	// DeleteItemDraft removes the user's draft if present.
	DeleteItemDraft(ctx context.Context, userID int64) error

	// DeleteStaleItemDrafts removes drafts untouched for longer than maxAge
	// and reports how many were removed.
	DeleteStaleItemDrafts(ctx context.Context, maxAge time.Duration) (int64, error)

	// RunSQLMaintenance performs database maintenance (integrity check,
	// ANALYZE, VACUUM).
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
// The mutex is the single serialization point for all store operations.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const assignmentDetailQuery = `
    SELECT a.chat_id, a.user_id, a.assigned_at, a.api_key, a.api_secret,
           a.credentials_status, a.customer_docname,
           c.title, u.username, u.first_name, u.last_name
    FROM assignments a
    LEFT JOIN chats c ON c.chat_id = a.chat_id
    LEFT JOIN users u ON u.telegram_id = a.user_id
`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// UpsertUser records a user contact inside one critical section: existence
// check, then insert or update.
func (s *sqlxStore) UpsertUser(ctx context.Context, userID int64, username, firstName, lastName string) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for user upsert", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	var exists bool
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM users WHERE telegram_id = ? LIMIT 1`, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error checking if user exists", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check if user %d exists: %w", userID, err)
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET username = ?, first_name = ?, last_name = ?, updated_at = ? WHERE telegram_id = ?`,
			nullString(username), nullString(firstName), nullString(lastName), now, userID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (telegram_id, username, first_name, last_name, started_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			userID, nullString(username), nullString(firstName), nullString(lastName), now, now)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving user contact", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to save user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	operation := "updated"
	if !exists {
		operation = "created"
	}
	s.logger.DebugContext(ctx, "User contact recorded", "operation", operation, "user_id", userID)

	return !exists, nil
}

// GetUser retrieves a user by Telegram id. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var user User
	query := `SELECT telegram_id, username, first_name, last_name, started_at, updated_at
	          FROM users WHERE telegram_id = ?`

	err := s.db.GetContext(ctx, &user, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", "user_id", userID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user", "user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user by ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return &user, nil
}

// ListUnassignedUsers returns users without an assignment ordered by display
// label: full name, else username, else the numeric id.
func (s *sqlxStore) ListUnassignedUsers(ctx context.Context, limit int) ([]*User, error) {
	if limit <= 0 {
		limit = 25
		s.logger.DebugContext(ctx, "Invalid limit provided, using default", "default_limit", limit)
	} else if limit > 100 {
		limit = 100
		s.logger.DebugContext(ctx, "Limit exceeded maximum value, capping", "capped_limit", limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var users []*User
	query := `
        SELECT telegram_id, username, first_name, last_name, started_at, updated_at
        FROM users
        WHERE telegram_id NOT IN (SELECT user_id FROM assignments)
        ORDER BY COALESCE(
            NULLIF(TRIM(COALESCE(first_name, '') || ' ' || COALESCE(last_name, '')), ''),
            username,
            CAST(telegram_id AS TEXT)
        ) ASC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &users, query, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing unassigned users", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to list unassigned users: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched unassigned users", "count", len(users))
	return users, nil
}

// UpsertChat records a group chat. A known title is never overwritten with an
// empty one; an empty title on first sight is stored as NULL.
func (s *sqlxStore) UpsertChat(ctx context.Context, chatID int64, title string) error {
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for chat upsert", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	var exists bool
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM chats WHERE chat_id = ? LIMIT 1`, chatID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error checking if chat exists", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to check if chat %d exists: %w", chatID, err)
	}

	switch {
	case exists && title != "":
		_, err = tx.ExecContext(ctx, `UPDATE chats SET title = ?, updated_at = ? WHERE chat_id = ?`, title, now, chatID)
	case exists:
		_, err = tx.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE chat_id = ?`, now, chatID)
	default:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chats (chat_id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			chatID, nullString(title), now, now)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to save chat %d: %w", chatID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	return nil
}

// GetChat retrieves a chat by id. Returns nil, nil if not found.
func (s *sqlxStore) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var chat Chat
	query := `SELECT chat_id, title, created_at, updated_at FROM chats WHERE chat_id = ?`

	err := s.db.GetContext(ctx, &chat, query, chatID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting chat by ID", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get chat %d: %w", chatID, err)
	}

	return &chat, nil
}

// GetAssignmentByChat returns the chat's assignment joined with display
// metadata. Returns nil, nil if the chat has no assignment.
func (s *sqlxStore) GetAssignmentByChat(ctx context.Context, chatID int64) (*AssignmentDetail, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getAssignmentLocked(ctx, assignmentDetailQuery+` WHERE a.chat_id = ?`, chatID)
}

// GetAssignmentByUser returns the assignment held by a user. Returns nil, nil
// if the user holds none.
func (s *sqlxStore) GetAssignmentByUser(ctx context.Context, userID int64) (*AssignmentDetail, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getAssignmentLocked(ctx, assignmentDetailQuery+` WHERE a.user_id = ?`, userID)
}

func (s *sqlxStore) getAssignmentLocked(ctx context.Context, query string, arg int64) (*AssignmentDetail, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var detail AssignmentDetail
	err := s.db.GetContext(ctx, &detail, query, arg)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching assignment", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting assignment", "error", err)
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &detail, nil
}

// CreateAssignment performs the existence and uniqueness checks and the insert
// inside one transaction under the store lock, so two concurrent attempts for
// the same chat or user cannot both succeed.
func (s *sqlxStore) CreateAssignment(ctx context.Context, chatID, userID int64) error {
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for assignment",
			"chat_id", chatID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	var userExists bool
	err = tx.GetContext(ctx, &userExists, `SELECT 1 FROM users WHERE telegram_id = ? LIMIT 1`, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check if user %d exists: %w", userID, err)
	}
	if !userExists {
		return &AssignmentError{Reason: "This user has never contacted the bot."}
	}

	var chatAssigned bool
	err = tx.GetContext(ctx, &chatAssigned, `SELECT 1 FROM assignments WHERE chat_id = ? LIMIT 1`, chatID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check assignment for chat %d: %w", chatID, err)
	}
	if chatAssigned {
		return &AssignmentError{Reason: "This group already has a sales manager."}
	}

	var userAssigned bool
	err = tx.GetContext(ctx, &userAssigned, `SELECT 1 FROM assignments WHERE user_id = ? LIMIT 1`, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check assignment for user %d: %w", userID, err)
	}
	if userAssigned {
		return &AssignmentError{Reason: "This user is already a sales manager in another group."}
	}

	var chatExists bool
	err = tx.GetContext(ctx, &chatExists, `SELECT 1 FROM chats WHERE chat_id = ? LIMIT 1`, chatID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check if chat %d exists: %w", chatID, err)
	}
	if !chatExists {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chats (chat_id, title, created_at, updated_at) VALUES (?, NULL, ?, ?)`,
			chatID, now, now)
		if err != nil {
			return fmt.Errorf("failed to create chat %d for assignment: %w", chatID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (chat_id, user_id, assigned_at, credentials_status) VALUES (?, ?, ?, ?)`,
		chatID, userID, now, StatusPendingKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating assignment",
			"chat_id", chatID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to create assignment (chat %d, user %d): %w", chatID, userID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction",
			"chat_id", chatID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Assignment created", "chat_id", chatID, "user_id", userID)
	return nil
}

// SetAPIKey stores the key and advances the handshake to pending_secret.
func (s *sqlxStore) SetAPIKey(ctx context.Context, userID int64, key string) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}
	if key == "" {
		return fmt.Errorf("api key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateAssignmentLocked(ctx, userID,
		`UPDATE assignments SET api_key = ?, credentials_status = ? WHERE user_id = ?`,
		key, StatusPendingSecret, userID)
}

// SetAPISecret stores the secret even when verification failed, so a retry
// does not require re-entering it; only a verified secret activates the
// assignment.
func (s *sqlxStore) SetAPISecret(ctx context.Context, userID int64, secret string, verified bool) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}
	if secret == "" {
		return fmt.Errorf("api secret cannot be empty")
	}

	status := StatusPendingSecret
	if verified {
		status = StatusActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateAssignmentLocked(ctx, userID,
		`UPDATE assignments SET api_secret = ?, credentials_status = ? WHERE user_id = ?`,
		secret, status, userID)
}

// ResetCredentials clears both credentials and returns the assignment to
// pending_key.
func (s *sqlxStore) ResetCredentials(ctx context.Context, userID int64) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateAssignmentLocked(ctx, userID,
		`UPDATE assignments SET api_key = NULL, api_secret = NULL, credentials_status = ? WHERE user_id = ?`,
		StatusPendingKey, userID)
}

func (s *sqlxStore) updateAssignmentLocked(ctx context.Context, userID int64, query string, args ...any) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating assignment credentials", "user_id", userID, "error", err)
		return fmt.Errorf("failed to update assignment for user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when updating assignment",
			"user_id", userID, "affected", affected)
	}

	return nil
}

// SetCustomerRef persists the linked ERPNext customer docname on the chat's
// assignment.
func (s *sqlxStore) SetCustomerRef(ctx context.Context, chatID int64, docname string) error {
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}
	if docname == "" {
		return fmt.Errorf("customer docname cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET customer_docname = ? WHERE chat_id = ?`, docname, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error storing customer docname", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to store customer docname for chat %d: %w", chatID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when storing customer docname",
			"chat_id", chatID, "affected", affected)
	}

	return nil
}

// ClearAssignments removes every assignment (and with them all credential
// state) while preserving user and chat history.
func (s *sqlxStore) ClearAssignments(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM assignments`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error clearing assignments", "error", err)
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Cleared all assignments", "count", count)
	return nil
}

// ResetAll wipes users, chats, assignments, and drafts in a single
// transaction, so either all data is deleted or none is.
func (s *sqlxStore) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for full reset", "error", err)
		return fmt.Errorf("failed to begin transaction for full reset: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	// Children first so the foreign keys never block the parents.
	for _, table := range []string{"item_drafts", "assignments", "chats", "users"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			s.logger.ErrorContext(ctx, "Error deleting table during reset", "table", table, "error", err)
			return fmt.Errorf("failed to delete %s during reset: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction for full reset", "error", err)
		return fmt.Errorf("failed to commit full reset transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Successfully reset all data")
	return nil
}

// GetItemDraft loads a user's draft. Returns nil, nil when absent; an
// undecodable blob or an unknown stage tag yields ErrCorruptedDraft.
func (s *sqlxStore) GetItemDraft(ctx context.Context, userID int64) (*DraftState, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT state FROM item_drafts WHERE user_id = ?`, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting item draft", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get item draft for user %d: %w", userID, err)
	}

	var state DraftState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.logger.WarnContext(ctx, "Stored draft state is not valid JSON", "user_id", userID, "error", err)
		return nil, fmt.Errorf("draft state for user %d: %w", userID, ErrCorruptedDraft)
	}
	if !state.Stage.Valid() {
		s.logger.WarnContext(ctx, "Stored draft has unknown stage", "user_id", userID, "stage", string(state.Stage))
		return nil, fmt.Errorf("draft stage %q for user %d: %w", state.Stage, userID, ErrCorruptedDraft)
	}

	return &state, nil
}

// SaveItemDraft replaces the user's draft wholesale. Drafts with an unknown
// stage are rejected before they can reach storage.
func (s *sqlxStore) SaveItemDraft(ctx context.Context, userID int64, state *DraftState) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}
	if state == nil {
		return fmt.Errorf("cannot save nil draft state")
	}
	if !state.Stage.Valid() {
		return fmt.Errorf("cannot save draft with unknown stage %q", state.Stage)
	}

	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode draft state for user %d: %w", userID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO item_drafts (user_id, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		userID, string(encoded), now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving item draft", "user_id", userID, "error", err)
		return fmt.Errorf("failed to save item draft for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Item draft saved", "user_id", userID, "stage", string(state.Stage))
	return nil
}

// DeleteItemDraft removes the user's draft if present.
func (s *sqlxStore) DeleteItemDraft(ctx context.Context, userID int64) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM item_drafts WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting item draft", "user_id", userID, "error", err)
		return fmt.Errorf("failed to delete item draft for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Item draft deleted", "user_id", userID)
	return nil
}

// DeleteStaleItemDrafts removes drafts untouched for longer than maxAge.
func (s *sqlxStore) DeleteStaleItemDrafts(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, fmt.Errorf("max age must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	result, err := s.db.ExecContext(ctx, `DELETE FROM item_drafts WHERE updated_at < ?`, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting stale item drafts", "error", err)
		return 0, fmt.Errorf("failed to delete stale item drafts: %w", err)
	}

	count, _ := result.RowsAffected()
	if count > 0 {
		s.logger.InfoContext(ctx, "Deleted stale item drafts", "count", count, "cutoff", cutoff)
	}
	return count, nil
}

// RunSQLMaintenance checks integrity, refreshes statistics, and compacts the
// database file. VACUUM must run outside a transaction in SQLite.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance...")

	var integrity string
	if err := s.db.GetContext(ctx, &integrity, `PRAGMA integrity_check;`); err != nil {
		s.logger.WarnContext(ctx, "Integrity check failed to run", "error", err)
	} else if integrity != "ok" {
		s.logger.ErrorContext(ctx, "Database integrity check reported problems", "result", integrity)
	}

	if _, err := s.db.ExecContext(ctx, `ANALYZE;`); err != nil {
		s.logger.WarnContext(ctx, "ANALYZE failed", "error", err)
	}

	_, err := s.db.ExecContext(ctx, `VACUUM;`)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	}

	return nil
}
