package tasks

import (
	"context"
	"fmt"
	"time"
)

// newDraftCleanupTask creates the task that removes item drafts whose last
// activity is older than the configured maximum age.
func newDraftCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "draft_cleanup")

	return func(ctx context.Context) error {
		maxAge := deps.Config.Drafts.MaxAge

		log.InfoContext(ctx, "Starting draft cleanup task", "max_age", maxAge)
		startTime := time.Now()

		removed, err := deps.Store.DeleteStaleItemDrafts(ctx, maxAge)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Draft cleanup task failed", "error", err, "duration", duration)
			return fmt.Errorf("draft cleanup failed: %w", err)
		}

		log.InfoContext(ctx, "Draft cleanup task completed", "removed_drafts", removed, "duration", duration)

		return nil
	}
}
