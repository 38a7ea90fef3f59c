package tasks

import (
	"context"
)

// ScheduledTaskFunc is the signature every scheduled task implements. Tasks
// must respect the scheduler's context for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the map of available tasks. The keys match the
// task names used in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		"sql_maintenance": newSQLMaintenanceTask(deps),
		"draft_cleanup":   newDraftCleanupTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))

	return tasks
}
