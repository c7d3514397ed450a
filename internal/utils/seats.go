package utils

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EncodeSeatList serializes seat numbers as a JSON array (e.g. "[1,2,3]").
// This is the canonical on-disk encoding for the bookings.seats column.
func EncodeSeatList(seats []uint32) string {
	if len(seats) == 0 {
		return "[]"
	}
	b, err := json.Marshal(seats)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeSeatList parses a stored seat list into seat numbers.  Rows written
// by this service hold a JSON array, but legacy rows may hold a
// comma-delimited string, JSON arrays of quoted numbers, or malformed
// values.  Decoding is deliberately lossy: any entry that cannot be read
// as a positive integer is dropped rather than failing the whole list, so
// that read paths stay available over partial or legacy data.  A
// malformed value decodes to an empty slice, never an error.
func DecodeSeatList(raw string) []uint32 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []uint32{}
	}
	var arr []interface{}
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		out := make([]uint32, 0, len(arr))
		for _, v := range arr {
			if n, ok := coerceSeat(v); ok {
				out = append(out, n)
			}
		}
		return out
	}
	// Fallback: comma-delimited list of numbers.
	out := []uint32{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.ParseUint(part, 10, 32); err == nil && n > 0 {
			out = append(out, uint32(n))
		}
	}
	return out
}

// coerceSeat converts a decoded JSON value to a seat number.  Numbers must
// be positive integers; quoted numbers are accepted for legacy rows.
func coerceSeat(v interface{}) (uint32, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 && t == float64(uint32(t)) {
			return uint32(t), true
		}
	case string:
		if n, err := strconv.ParseUint(strings.TrimSpace(t), 10, 32); err == nil && n > 0 {
			return uint32(n), true
		}
	case json.Number:
		if n, err := strconv.ParseUint(t.String(), 10, 32); err == nil && n > 0 {
			return uint32(n), true
		}
	}
	return 0, false
}
