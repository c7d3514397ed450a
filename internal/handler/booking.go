package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/queue"
	"github.com/iliyamo/event-booking/internal/repository"
	"github.com/iliyamo/event-booking/internal/service"
)

// BookingHandler exposes the booking endpoints.  Creation delegates the
// entire transactional flow to the reservation service; this layer only
// translates HTTP to ReserveInput and rejections back to status codes.
//
// Publish is the post-commit notification hook.  It is best effort: a
// failed publish never fails the request.  Tests inject nil to skip it.
type BookingHandler struct {
	Reservations *service.ReservationService
	Bookings     *repository.BookingRepo
	Events       *repository.EventRepo
	Env          string
	Publish      func(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

func NewBookingHandler(res *service.ReservationService, bookings *repository.BookingRepo, events *repository.EventRepo, env string) *BookingHandler {
	return &BookingHandler{
		Reservations: res,
		Bookings:     bookings,
		Events:       events,
		Env:          env,
		Publish:      queue.PublishBookingConfirmed,
	}
}

// bookingReq accepts both camelCase and snake_case field names.  Seats
// is raw so a single number and an array of numbers both decode.
type bookingReq struct {
	EventID          uint64          `json:"eventId"`
	EventIDSnake     uint64          `json:"event_id"`
	UserID           uint64          `json:"userId"`
	UserIDSnake      uint64          `json:"user_id"`
	Seats            json.RawMessage `json:"seats"`
	Quantity         uint32          `json:"quantity"`
	TotalAmount      float64         `json:"totalAmount"`
	TotalAmountSnake float64         `json:"total_amount"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Mobile           string          `json:"mobile"`
}

func (r bookingReq) eventID() uint64 {
	if r.EventID != 0 {
		return r.EventID
	}
	return r.EventIDSnake
}

func (r bookingReq) userID() uint64 {
	if r.UserID != 0 {
		return r.UserID
	}
	return r.UserIDSnake
}

func (r bookingReq) totalAmount() float64 {
	if r.TotalAmount != 0 {
		return r.TotalAmount
	}
	return r.TotalAmountSnake
}

// decodeSeats accepts `[1,2,3]` or a bare `7`.  Anything else is an
// error; non-numeric members are rejected rather than dropped because
// this is request input, not stored data.
func decodeSeats(raw json.RawMessage) ([]uint32, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var seats []uint32
		if err := json.Unmarshal(raw, &seats); err != nil {
			return nil, err
		}
		return seats, nil
	}
	var one uint32
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []uint32{one}, nil
}

type bookingResp struct {
	ID          uint64    `json:"id"`
	EventID     uint64    `json:"eventId"`
	UserID      uint64    `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Mobile      string    `json:"mobile"`
	Seats       []uint32  `json:"seats"`
	Quantity    uint32    `json:"quantity"`
	TotalAmount float64   `json:"totalAmount"`
	Status      string    `json:"status"`
	BookingDate time.Time `json:"bookingDate"`
}

func toBookingResp(b model.Booking) bookingResp {
	seats := b.Seats
	if seats == nil {
		seats = []uint32{}
	}
	return bookingResp{
		ID:          b.ID,
		EventID:     b.EventID,
		UserID:      b.UserID,
		Name:        b.Name,
		Email:       b.Email,
		Mobile:      b.Mobile,
		Seats:       seats,
		Quantity:    b.Quantity,
		TotalAmount: b.TotalAmount,
		Status:      b.Status,
		BookingDate: b.CreatedAt,
	}
}

// Create books seats on an event.  Expected refusals map to 4xx with
// the rejection's message; anything else is a 500 whose detail is only
// exposed in development.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	seats, err := decodeSeats(req.Seats)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "seats must be a number or an array of numbers"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Reservations.Reserve(ctx, service.ReserveInput{
		EventID:     req.eventID(),
		UserID:      req.userID(),
		Seats:       seats,
		Quantity:    req.Quantity,
		TotalAmount: req.totalAmount(),
		Name:        req.Name,
		Email:       req.Email,
		Mobile:      req.Mobile,
	})
	if err != nil {
		if rej, ok := service.AsRejection(err); ok {
			return c.JSON(rejectionStatus(rej), echo.Map{"message": rej.Message})
		}
		c.Logger().Errorf("booking create failed: %v", err)
		if h.Env == "dev" {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error", "detail": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error"})
	}

	h.notifyConfirmed(booking)
	return c.JSON(http.StatusCreated, toBookingResp(booking))
}

// rejectionStatus maps a refusal reason to its HTTP status.
func rejectionStatus(rej *service.Rejection) int {
	switch rej.Reason {
	case service.ReasonEventNotFound:
		return http.StatusNotFound
	case service.ReasonForbidden, service.ReasonEventClosed:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// notifyConfirmed publishes the confirmation message after commit.  The
// event title lookup and the publish itself are both best effort.
func (h *BookingHandler) notifyConfirmed(b model.Booking) {
	if h.Publish == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var title string
	if h.Events != nil {
		if ev, err := h.Events.GetByID(ctx, b.EventID); err == nil {
			title = ev.Title
		}
	}
	_ = h.Publish(ctx, queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		EventID:     b.EventID,
		UserID:      b.UserID,
		EventTitle:  title,
		Seats:       b.Seats,
		Quantity:    b.Quantity,
		TotalAmount: b.TotalAmount,
		ConfirmedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// List returns bookings, optionally filtered by userId and eventId
// query parameters (snake_case accepted too), newest first.
func (h *BookingHandler) List(c echo.Context) error {
	var f repository.BookingFilter
	if v := firstQuery(c, "userId", "user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid userId"})
		}
		f.UserID = id
	}
	if v := firstQuery(c, "eventId", "event_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid eventId"})
		}
		f.EventID = id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, out)
}

func firstQuery(c echo.Context, names ...string) string {
	for _, n := range names {
		if v := c.QueryParam(n); v != "" {
			return v
		}
	}
	return ""
}

// Get returns one booking by id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// ListByUser returns all bookings of one user, newest first.
func (h *BookingHandler) ListByUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.List(ctx, repository.BookingFilter{UserID: id})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateStatus changes a booking's status, e.g. to cancelled.  Seat and
// capacity bookkeeping for cancellations is out of scope here.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != model.BookingStatusConfirmed && status != model.BookingStatusCancelled {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}
