package handlers

import (
	"log/slog"
	"time"

	"github.com/edgard/salesbridge/internal/config"
	"github.com/edgard/salesbridge/internal/database"
	"github.com/edgard/salesbridge/internal/erpnext"
)

// handlerTimeout bounds one update's handling end to end, store access and
// ERPNext round trips included.
const handlerTimeout = 30 * time.Second

// HandlerDeps bundles the dependencies every handler needs.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   database.Store
	ERPNext erpnext.Client
}

// errorDetail renders an error for appending to a user-facing message.
// Returns an empty string for nil errors so format strings stay clean.
func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	return "\n" + err.Error()
}
