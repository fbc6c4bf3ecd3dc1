package movie_api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"thirdcoast.systems/duckflix/cmd/web/handlers/common"
)

// HandleGet returns a movie with all of its versions.
func HandleGet(svc Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		movie, err := svc.GetMovie(c.Request().Context(), id)
		if err != nil {
			return common.FromError(err)
		}
		return common.Respond(c, http.StatusOK, "", map[string]any{"movie": movie})
	}
}
