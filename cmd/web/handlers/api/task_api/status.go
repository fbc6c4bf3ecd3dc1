// Package task_api exposes the scheduler's view of a transcode task.
package task_api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"thirdcoast.systems/duckflix/cmd/web/handlers/common"
	"thirdcoast.systems/duckflix/pkg/tasks"
)

// Scheduler is the read side of tasks.Handler.
type Scheduler interface {
	Check(id string) tasks.Status
	Position(id string) int
	Stats() tasks.Stats
}

// HandleStatus reports whether a task is pending or running, and its place in
// the queue. Task ids are version ids.
func HandleStatus(sched Scheduler) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		status := sched.Check(id.String())
		if status == tasks.StatusUnknown {
			return common.ErrNotFound("task not found or already finished")
		}
		return common.Respond(c, http.StatusOK, "", map[string]any{
			"id":       id.String(),
			"status":   status.String(),
			"position": sched.Position(id.String()),
		})
	}
}

// HandleStats reports the scheduler's overall load.
func HandleStats(sched Scheduler) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats := sched.Stats()
		return common.Respond(c, http.StatusOK, "", map[string]any{
			"running": stats.Running,
			"pending": stats.Pending,
			"busy":    stats.Busy(),
		})
	}
}
