package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/repository"
)

// EventHandler exposes event CRUD.  Listing and fetching are public;
// create, update and delete are restricted to admins by the router.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(e *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: e}
}

// eventReq accepts both camelCase and snake_case spellings for the
// multi-word fields, matching what existing clients send.
type eventReq struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Location        string  `json:"location"`
	Date            string  `json:"date"`
	TotalSeats      uint32  `json:"totalSeats"`
	TotalSeatsSnake uint32  `json:"total_seats"`
	Price           float64 `json:"price"`
	Image           string  `json:"image"`
	ImageSnake      string  `json:"img"`
	Status          string  `json:"status"`
}

func (r eventReq) totalSeats() uint32 {
	if r.TotalSeats != 0 {
		return r.TotalSeats
	}
	return r.TotalSeatsSnake
}

func (r eventReq) image() string {
	if r.Image != "" {
		return r.Image
	}
	return r.ImageSnake
}

type eventResp struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	TotalSeats     uint32    `json:"totalSeats"`
	AvailableSeats int32     `json:"availableSeats"`
	Price          float64   `json:"price"`
	Image          string    `json:"image"`
	Status         string    `json:"status"`
}

func toEventResp(ev model.Event) eventResp {
	return eventResp{
		ID:             ev.ID,
		Title:          ev.Title,
		Description:    ev.Description,
		Location:       ev.Location,
		Date:           ev.Date,
		TotalSeats:     ev.TotalSeats,
		AvailableSeats: ev.AvailableSeats,
		Price:          ev.Price,
		Image:          ev.Image,
		Status:         ev.Status,
	}
}

// parseEventDate accepts the handful of date formats clients actually
// send: RFC 3339, date-time without zone, and bare dates.
func parseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised date format")
}

// List returns all events ordered by date.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	out := make([]eventResp, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventResp(ev))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a single event by id.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, toEventResp(ev))
}

// Create inserts a new event.  The remaining seat counter starts equal
// to the total capacity.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title is required"})
	}
	if req.totalSeats() == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "totalSeats must be greater than zero"})
	}
	date, err := parseEventDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != "" && status != model.EventStatusUpcoming && status != model.EventStatusClosed {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
	}

	ev := model.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        date,
		TotalSeats:  req.totalSeats(),
		Price:       req.Price,
		Image:       req.image(),
		Status:      status,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Create(ctx, &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventResp(ev))
}

// Update replaces the mutable fields of an event.  The remaining seat
// counter is never touched here; only the reservation service changes
// it.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}

	if t := strings.TrimSpace(req.Title); t != "" {
		ev.Title = t
	}
	if req.Description != "" {
		ev.Description = req.Description
	}
	if req.Location != "" {
		ev.Location = req.Location
	}
	if req.Date != "" {
		date, err := parseEventDate(req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date"})
		}
		ev.Date = date
	}
	if req.totalSeats() != 0 {
		ev.TotalSeats = req.totalSeats()
	}
	if req.Price != 0 {
		ev.Price = req.Price
	}
	if req.image() != "" {
		ev.Image = req.image()
	}
	if s := strings.ToLower(strings.TrimSpace(req.Status)); s != "" {
		if s != model.EventStatusUpcoming && s != model.EventStatusClosed {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
		}
		ev.Status = s
	}

	if err := h.Events.Update(ctx, &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update event failed"})
	}
	return c.JSON(http.StatusOK, toEventResp(ev))
}

// Delete removes an event.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete event failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Event deleted successfully"})
}
