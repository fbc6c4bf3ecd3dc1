package common

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHeader carries the authenticated user id, set by the auth proxy in
// front of the service.
const UserHeader = "X-User-ID"

// RequireUUIDParam extracts a UUID route parameter or returns a 400 error.
func RequireUUIDParam(c echo.Context, param string) (uuid.UUID, error) {
	u, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
	}
	return u, nil
}

// RequireUser extracts the caller's user id. Returns 401 when the header is
// missing or malformed.
func RequireUser(c echo.Context) (uuid.UUID, error) {
	u, err := uuid.Parse(c.Request().Header.Get(UserHeader))
	if err != nil {
		return uuid.Nil, ErrUnauthorized()
	}
	return u, nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

// Respond writes the standard success envelope.
func Respond(c echo.Context, status int, message string, data any) error {
	body := map[string]any{"status": "success"}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}
