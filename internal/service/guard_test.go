package service

import (
	"testing"

	"github.com/iliyamo/event-booking/internal/model"
)

func TestCheckBookingAllowed(t *testing.T) {
	cases := []struct {
		name   string
		role   string
		status string
		want   RejectReason // "" means allowed
	}{
		{"user on upcoming event", model.RoleUser, model.EventStatusUpcoming, ""},
		{"unresolved role and status", "", "", ""},
		{"admin", model.RoleAdmin, model.EventStatusUpcoming, ReasonForbidden},
		{"admin with unresolved status", model.RoleAdmin, "", ReasonForbidden},
		{"closed event", model.RoleUser, model.EventStatusClosed, ReasonEventClosed},
		{"closed event unresolved role", "", model.EventStatusClosed, ReasonEventClosed},
		{"admin on closed event reports role first", model.RoleAdmin, model.EventStatusClosed, ReasonForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rej := CheckBookingAllowed(tc.role, tc.status)
			if tc.want == "" {
				if rej != nil {
					t.Fatalf("CheckBookingAllowed(%q, %q) = %v, want nil", tc.role, tc.status, rej)
				}
				return
			}
			if rej == nil {
				t.Fatalf("CheckBookingAllowed(%q, %q) = nil, want reason %s", tc.role, tc.status, tc.want)
			}
			if rej.Reason != tc.want {
				t.Fatalf("reason = %s, want %s", rej.Reason, tc.want)
			}
			if rej.Message == "" {
				t.Fatal("rejection carries no message")
			}
		})
	}
}
