// Package tasks implements the scheduled background jobs: periodic database
// maintenance and stale item draft cleanup.
package tasks

import (
	"log/slog"

	"github.com/edgard/salesbridge/internal/config"
	"github.com/edgard/salesbridge/internal/database"
)

// TaskDeps contains the dependencies shared by all scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
