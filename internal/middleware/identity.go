package middleware

// identity.go defines helpers shared across middleware files for
// identifying the requester. JWTAuth stores the token's subject under
// "user_id"; the claim arrives as a JSON number, so any scalar type is
// rendered. Unauthenticated requests identify as "anon".

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user's identifier as a
// string for rate-limit bucket keys and log lines.
func currentUserID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" && s != "<nil>" {
			return s
		}
	}
	return "anon"
}
