// Package lesson defines the canonical lesson record shared by the schedule
// pipeline. Upstream payloads of every shape are adapted into Lesson before
// they reach normalization or rendering.
package lesson

import (
	"strings"
	"unicode"
)

// AllWeekdays selects every teaching day of the week.
const AllWeekdays = 0

const (
	// TermWeeks17 is the term length used by the legacy upstream.
	TermWeeks17 = 17
	// TermWeeks18 is the term length used by newer upstream deployments.
	TermWeeks18 = 18
)

var weekdayNames = map[int]string{
	1: "Понедельник",
	2: "Вторник",
	3: "Среда",
	4: "Четверг",
	5: "Пятница",
	6: "Суббота",
}

// Lesson is one scheduled class occurrence for a teacher.
// Values are treated as immutable; transformations return copies.
type Lesson struct {
	Discipline string
	Type       string
	Weekday    int
	Number     int
	Start      string
	End        string
	Room       string
	Campus     string
	Groups     []string
	Weeks      []int
	Teachers   []string

	// Pattern is derived from Weeks during normalization and left zero before.
	Pattern WeekPattern
}

// GroupLabel joins group names for display and ordering.
func (l Lesson) GroupLabel() string {
	return strings.Join(l.Groups, ", ")
}

// HasWeek reports whether the lesson recurs on the given week.
func (l Lesson) HasWeek(week int) bool {
	for _, w := range l.Weeks {
		if w == week {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can modify slices safely.
func (l Lesson) Clone() Lesson {
	out := l
	out.Groups = append([]string(nil), l.Groups...)
	out.Weeks = append([]int(nil), l.Weeks...)
	out.Teachers = append([]string(nil), l.Teachers...)
	out.Pattern.Weeks = append([]int(nil), l.Pattern.Weeks...)
	return out
}

// WeekdayName returns the display name for a weekday in the 1=Monday..6=Saturday scheme.
func WeekdayName(day int) (string, bool) {
	name, ok := weekdayNames[day]
	return name, ok
}

// ValidWeekday reports whether day is a teaching day.
func ValidWeekday(day int) bool {
	_, ok := weekdayNames[day]
	return ok
}

// ValidTerm reports whether the term length is one of the supported conventions.
func ValidTerm(weeks int) bool {
	return weeks == TermWeeks17 || weeks == TermWeeks18
}

// CompactName strips every whitespace rune so that "Иванов И. О." and
// "ИвановИ.О." compare equal.
func CompactName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}
