// Package notification_api lists and acknowledges user notifications.
package notification_api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"thirdcoast.systems/duckflix/cmd/web/handlers/common"
	"thirdcoast.systems/duckflix/internal/movies"
)

type Service interface {
	Notifications(ctx context.Context, userID uuid.UUID, limit int) ([]*movies.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
}

// HandleIndex lists the caller's notifications, newest first.
func HandleIndex(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := common.RequireUser(c)
		if err != nil {
			return err
		}
		limit, err := common.QueryInt(c, "limit", 0)
		if err != nil {
			return err
		}

		notes, err := svc.Notifications(c.Request().Context(), userID, limit)
		if err != nil {
			return common.FromError(err)
		}
		if notes == nil {
			notes = []*movies.Notification{}
		}
		return common.Respond(c, http.StatusOK, "", map[string]any{"notifications": notes})
	}
}

// HandleRead marks one of the caller's notifications as read.
func HandleRead(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := common.RequireUser(c)
		if err != nil {
			return err
		}
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		if err := svc.MarkNotificationRead(c.Request().Context(), id, userID); err != nil {
			return common.FromError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
