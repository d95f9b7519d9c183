package dialog

import (
	"testing"
	"time"
)

func TestMarker(t *testing.T) {
	cases := []struct {
		month time.Month
		day   int
		want  string
	}{
		{time.February, 14, "❤️"},
		{time.February, 16, "❤️"},
		{time.February, 23, "🎖️"},
		{time.March, 9, "🌷"},
		{time.April, 1, "🤡"},
		{time.May, 2, "⚒️"},
		{time.May, 11, "🎖️"},
		{time.December, 21, "❄️"},
		{time.January, 10, "❄️"},
		{time.January, 11, "•"},
		{time.December, 20, "•"},
		{time.October, 14, "•"},
	}
	for _, tc := range cases {
		now := time.Date(2026, tc.month, tc.day, 23, 30, 0, 0, time.UTC)
		if got := Marker(now); got != tc.want {
			t.Fatalf("%s %d: got %q want %q", tc.month, tc.day, got, tc.want)
		}
	}
}
