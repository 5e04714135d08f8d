// Package handler defines the HTTP handlers. Handlers bind and
// validate request bodies, delegate business decisions to the service
// and repository layers, and translate the engine's error kinds into
// HTTP statuses.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
	"github.com/iliyamo/campus-space-reservation/internal/model"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// getUserID extracts the user_id stored in the context by the JWT
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// actorFrom builds the verified actor identity from the JWT claims the
// middleware placed in the context.
func actorFrom(c echo.Context) (model.Actor, error) {
	uid, err := getUserID(c)
	if err != nil {
		return model.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return model.Actor{UserID: uid, Role: role}, nil
}

// paramID parses a numeric path parameter; zero is treated as invalid.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// parseRFC3339 parses a timestamp from a request field.
func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// bookingError translates an engine error kind into an HTTP response.
// Unknown errors fall through to 500. ErrUnavailable maps to 503 so
// clients know the request may be retried.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end time must be after start time"})
	case errors.Is(err, booking.ErrSpaceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "space not found"})
	case errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, booking.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "space is not available for the requested interval"})
	case errors.Is(err, booking.ErrOutOfSchedule):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "interval is outside the space availability schedule"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "status transition not allowed"})
	case errors.Is(err, booking.ErrSpaceInUse):
		return c.JSON(http.StatusConflict, echo.Map{"error": "space has active reservations"})
	case errors.Is(err, booking.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, retry later"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
