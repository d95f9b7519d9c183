package normalize

import "github.com/m3rciful/schedulebot/schedule/lesson"

// WeekdaySet holds teaching days (1..6) that have at least one lesson.
type WeekdaySet map[int]struct{}

// Has reports whether day is in the set.
func (s WeekdaySet) Has(day int) bool {
	_, ok := s[day]
	return ok
}

// Len returns the number of days in the set.
func (s WeekdaySet) Len() int {
	return len(s)
}

// AvailableWeekdays computes the days of the given week that have lessons,
// over the unfiltered per-teacher list. It never modifies raw.
func AvailableWeekdays(raw []lesson.Lesson, week int) WeekdaySet {
	set := make(WeekdaySet)
	for _, l := range raw {
		if !lesson.ValidWeekday(l.Weekday) {
			continue
		}
		if l.HasWeek(week) {
			set[l.Weekday] = struct{}{}
		}
	}
	return set
}
