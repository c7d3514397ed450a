package middleware

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/repository"
	"github.com/iliyamo/event-booking/internal/service"
)

// guardPayload extracts the requester and event ids from a booking
// request body.  Clients send either camelCase or snake_case field
// names, so both spellings are accepted.
type guardPayload struct {
	UserID       uint64 `json:"userId"`
	UserIDSnake  uint64 `json:"user_id"`
	EventID      uint64 `json:"eventId"`
	EventIDSnake uint64 `json:"event_id"`
}

func (p guardPayload) userID() uint64 {
	if p.UserID != 0 {
		return p.UserID
	}
	return p.UserIDSnake
}

func (p guardPayload) eventID() uint64 {
	if p.EventID != 0 {
		return p.EventID
	}
	return p.EventIDSnake
}

// BookingGuard rejects a booking attempt before the handler runs when
// the requester is an administrative account or the event is closed.
// The rules themselves live in service.CheckBookingAllowed and are
// enforced a second time inside the reservation service.  The request
// body is restored after inspection so the handler can bind it
// normally.
func BookingGuard(users *repository.UserRepo, events *repository.EventRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			var p guardPayload
			if err := json.Unmarshal(body, &p); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
			}
			if p.userID() == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "User ID is required"})
			}
			if p.eventID() == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "Event ID is required"})
			}

			ctx := req.Context()
			user, err := users.GetByID(ctx, p.userID())
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
			}
			status, err := events.GetStatus(ctx, p.eventID())
			if err != nil {
				if errors.Is(err, repository.ErrEventNotFound) {
					return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
			}
			if rej := service.CheckBookingAllowed(user.Role, status); rej != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"message": rej.Message})
			}
			return next(c)
		}
	}
}
