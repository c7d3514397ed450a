package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/repository"
	"github.com/iliyamo/event-booking/internal/service"
)

// memStore is a minimal in-memory service.ReservationStore for driving
// the handler through real reservation outcomes.
type memStore struct {
	mu        sync.Mutex
	user      model.User
	event     model.Event
	hasEvent  bool
	booked    []uint32
	insertErr error
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := m.event
	if err := fn(ctx); err != nil {
		m.event = saved
		return err
	}
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id uint64) (model.User, error) {
	if m.user.ID == id {
		return m.user, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memStore) GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	if m.hasEvent && m.event.ID == id {
		return m.event, nil
	}
	return model.Event{}, repository.ErrEventNotFound
}

func (m *memStore) BookedSeats(ctx context.Context, eventID uint64) ([]uint32, error) {
	return m.booked, nil
}

func (m *memStore) BookedSeatsByUser(ctx context.Context, eventID, userID uint64) ([]uint32, error) {
	return nil, nil
}

func (m *memStore) DecrementAvailableSeats(ctx context.Context, eventID uint64, qty uint32) error {
	m.event.AvailableSeats -= int32(qty)
	return nil
}

func (m *memStore) AvailableSeats(ctx context.Context, eventID uint64) (int32, error) {
	return m.event.AvailableSeats, nil
}

func (m *memStore) InsertBooking(ctx context.Context, b *model.Booking) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	b.ID = 42
	b.CreatedAt = time.Now()
	return nil
}

func (m *memStore) SupportsSeatList() bool { return true }

func newMemStore() *memStore {
	return &memStore{
		user: model.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: model.RoleUser},
		event: model.Event{
			ID: 1, Title: "Launch", TotalSeats: 50, AvailableSeats: 50,
			Status: model.EventStatusUpcoming,
		},
		hasEvent: true,
	}
}

func newBookingHandler(store *memStore, env string) *BookingHandler {
	return &BookingHandler{
		Reservations: service.NewReservationService(store),
		Env:          env,
		// Publish stays nil so tests never touch a broker.
	}
}

func postBooking(t *testing.T, h *BookingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return rec
}

func TestBookingCreateSuccess(t *testing.T) {
	h := newBookingHandler(newMemStore(), "prod")
	rec := postBooking(t, h, `{"eventId":1,"userId":1,"seats":[4,5],"totalAmount":40}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID          uint64   `json:"id"`
		EventID     uint64   `json:"eventId"`
		Seats       []uint32 `json:"seats"`
		Quantity    uint32   `json:"quantity"`
		TotalAmount float64  `json:"totalAmount"`
		Status      string   `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 42 || resp.EventID != 1 || resp.Quantity != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Status != model.BookingStatusConfirmed {
		t.Fatalf("status = %q", resp.Status)
	}
	if len(resp.Seats) != 2 || resp.Seats[0] != 4 || resp.Seats[1] != 5 {
		t.Fatalf("seats = %v", resp.Seats)
	}
}

func TestBookingCreateSnakeCaseAndSingleSeat(t *testing.T) {
	h := newBookingHandler(newMemStore(), "prod")
	rec := postBooking(t, h, `{"event_id":1,"user_id":1,"seats":7,"total_amount":20}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Seats    []uint32 `json:"seats"`
		Quantity uint32   `json:"quantity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Seats) != 1 || resp.Seats[0] != 7 || resp.Quantity != 1 {
		t.Fatalf("seats = %v quantity = %d", resp.Seats, resp.Quantity)
	}
}

func TestBookingCreateRejectionStatuses(t *testing.T) {
	cases := []struct {
		name       string
		store      func() *memStore
		body       string
		wantStatus int
	}{
		{
			"missing fields",
			newMemStore,
			`{"eventId":1}`,
			http.StatusBadRequest,
		},
		{
			"event not found",
			newMemStore,
			`{"eventId":9,"userId":1,"seats":[1],"totalAmount":10}`,
			http.StatusNotFound,
		},
		{
			"closed event",
			func() *memStore {
				m := newMemStore()
				m.event.Status = model.EventStatusClosed
				return m
			},
			`{"eventId":1,"userId":1,"seats":[1],"totalAmount":10}`,
			http.StatusForbidden,
		},
		{
			"admin booker",
			func() *memStore {
				m := newMemStore()
				m.user.Role = model.RoleAdmin
				return m
			},
			`{"eventId":1,"userId":1,"seats":[1],"totalAmount":10}`,
			http.StatusForbidden,
		},
		{
			"seat conflict",
			func() *memStore {
				m := newMemStore()
				m.booked = []uint32{3}
				return m
			},
			`{"eventId":1,"userId":1,"seats":[3],"totalAmount":10}`,
			http.StatusBadRequest,
		},
		{
			"seat out of range",
			newMemStore,
			`{"eventId":1,"userId":1,"seats":[51],"totalAmount":10}`,
			http.StatusBadRequest,
		},
		{
			"malformed seats",
			newMemStore,
			`{"eventId":1,"userId":1,"seats":"front row","totalAmount":10}`,
			http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newBookingHandler(tc.store(), "prod")
			rec := postBooking(t, h, tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			var resp map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if msg, _ := resp["message"].(string); msg == "" {
				t.Fatal("error response carries no message")
			}
		})
	}
}

func TestBookingCreateStoreFailureDetail(t *testing.T) {
	failing := func() *memStore {
		m := newMemStore()
		m.insertErr = errors.New("connection reset by peer")
		return m
	}

	t.Run("production hides detail", func(t *testing.T) {
		h := newBookingHandler(failing(), "prod")
		rec := postBooking(t, h, `{"eventId":1,"userId":1,"seats":[1],"totalAmount":10}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "connection reset") {
			t.Fatalf("internal detail leaked: %s", rec.Body.String())
		}
	})

	t.Run("dev includes detail", func(t *testing.T) {
		h := newBookingHandler(failing(), "dev")
		rec := postBooking(t, h, `{"eventId":1,"userId":1,"seats":[1],"totalAmount":10}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "connection reset") {
			t.Fatalf("missing detail in dev mode: %s", rec.Body.String())
		}
	})
}

func TestDecodeSeats(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []uint32
		wantErr bool
	}{
		{"array", "[1,2]", []uint32{1, 2}, false},
		{"single", "9", []uint32{9}, false},
		{"null", "null", nil, false},
		{"empty", "", nil, false},
		{"string", `"nine"`, nil, true},
		{"mixed array", `[1,"x"]`, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeSeats(json.RawMessage(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("decodeSeats(%q) = %v, want error", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeSeats(%q): %v", tc.raw, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("decodeSeats(%q) = %v, want %v", tc.raw, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("decodeSeats(%q) = %v, want %v", tc.raw, got, tc.want)
				}
			}
		})
	}
}
