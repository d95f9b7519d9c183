package dialog

import "time"

type holiday struct {
	sign   string
	month  time.Month
	day    int
	margin int
}

// Earlier entries win when windows overlap.
var holidays = []holiday{
	{"❤️", time.February, 14, 2},
	{"❄️", time.December, 31, 10},
	{"🎖️", time.February, 23, 1},
	{"🌷", time.March, 8, 2},
	{"🤡", time.April, 1, 2},
	{"⚒️", time.May, 1, 1},
	{"🎖️", time.May, 9, 2},
}

const defaultMarker = "•"

// Marker returns the decoration for the current week button on the given
// date. Holiday windows wrap across the year boundary.
func Marker(now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, h := range holidays {
		for _, year := range []int{now.Year() - 1, now.Year(), now.Year() + 1} {
			date := time.Date(year, h.month, h.day, 0, 0, 0, 0, time.UTC)
			days := int(today.Sub(date).Hours() / 24)
			if days < 0 {
				days = -days
			}
			if days <= h.margin {
				return h.sign
			}
		}
	}
	return defaultMarker
}
