package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/utils"
)

const testSecret = "unit-test-secret"

func doAuthed(t *testing.T, mw echo.MiddlewareFunc, authHeader string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := mw(next)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestJWTAuthValidToken(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, 7, "user", 5)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var gotUser, gotRole interface{}
	rec := doAuthed(t, JWTAuth(testSecret), "Bearer "+access.Token, func(c echo.Context) error {
		gotUser = c.Get("user_id")
		gotRole = c.Get("role")
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	// Claims travel through JSON, so the subject arrives as float64.
	if n, ok := gotUser.(float64); !ok || n != 7 {
		t.Fatalf("user_id = %v (%T), want 7", gotUser, gotUser)
	}
	if gotRole != "user" {
		t.Fatalf("role = %v, want user", gotRole)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	wrongSecret, err := utils.NewAccessToken("other-secret", 7, "user", 5)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	expired, err := utils.NewAccessToken(testSecret, 7, "user", -5)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + wrongSecret.Token},
		{"expired", "Bearer " + expired.Token},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doAuthed(t, JWTAuth(testSecret), tc.header, okHandler)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    interface{}
		allowed []string
		want    int
	}{
		{"allowed role", "admin", []string{"admin"}, http.StatusOK},
		{"one of several", "user", []string{"user", "admin"}, http.StatusOK},
		{"wrong role", "user", []string{"admin"}, http.StatusForbidden},
		{"missing role", nil, []string{"admin"}, http.StatusForbidden},
		{"non-string role", 42, []string{"admin"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.role != nil {
				c.Set("role", tc.role)
			}
			if err := RequireRole(tc.allowed...)(okHandler)(c); err != nil {
				t.Fatalf("middleware returned error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
