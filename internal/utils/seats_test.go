package utils

import (
	"reflect"
	"testing"
)

func TestEncodeSeatList(t *testing.T) {
	cases := []struct {
		name  string
		seats []uint32
		want  string
	}{
		{"nil", nil, "[]"},
		{"empty", []uint32{}, "[]"},
		{"single", []uint32{7}, "[7]"},
		{"many", []uint32{1, 2, 3}, "[1,2,3]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EncodeSeatList(tc.seats); got != tc.want {
				t.Fatalf("EncodeSeatList(%v) = %q, want %q", tc.seats, got, tc.want)
			}
		})
	}
}

func TestDecodeSeatList(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []uint32
	}{
		{"empty string", "", []uint32{}},
		{"whitespace", "   ", []uint32{}},
		{"json array", "[1,2,3]", []uint32{1, 2, 3}},
		{"json single", "[12]", []uint32{12}},
		{"json empty array", "[]", []uint32{}},
		{"quoted numbers", `["4","5"]`, []uint32{4, 5}},
		{"mixed valid and junk", `[1,"two",3,null,-4]`, []uint32{1, 3}},
		{"zero dropped", "[0,1]", []uint32{1}},
		{"fractional dropped", "[1.5,2]", []uint32{2}},
		{"comma delimited", "7,8,9", []uint32{7, 8, 9}},
		{"comma with spaces", " 7 , 8 ", []uint32{7, 8}},
		{"comma with junk", "1,x,3", []uint32{1, 3}},
		{"malformed json", `{"seats":1}`, []uint32{}},
		{"garbage", "not seats at all", []uint32{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecodeSeatList(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("DecodeSeatList(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestDecodeSeatListRoundTrip(t *testing.T) {
	seats := []uint32{3, 14, 159}
	got := DecodeSeatList(EncodeSeatList(seats))
	if !reflect.DeepEqual(got, seats) {
		t.Fatalf("round trip = %v, want %v", got, seats)
	}
}
