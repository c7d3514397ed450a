package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types
)

// getUserID extracts the user_id stored by the JWT middleware and
// converts it to uint64.  The claim travels through JSON so it may
// arrive as any numeric type or a string.
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
