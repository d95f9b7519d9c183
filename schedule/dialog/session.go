package dialog

import (
	"time"

	"github.com/m3rciful/schedulebot/schedule/lesson"
	"github.com/m3rciful/schedulebot/schedule/resolver"
)

// State is the dialog step a session is in.
type State int

const (
	AwaitingTeacherName State = iota
	AwaitingClarification
	AwaitingWeek
	AwaitingDay
	Rendered
)

var stateNames = [...]string{
	AwaitingTeacherName:   "awaiting_teacher_name",
	AwaitingClarification: "awaiting_clarification",
	AwaitingWeek:          "awaiting_week",
	AwaitingDay:           "awaiting_day",
	Rendered:              "rendered",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Session is the per-user dialog context. The zero value is a fresh session
// waiting for a surname.
type Session struct {
	State   State
	Teacher string

	// Candidates is non-empty only while the user picks among namesakes.
	Candidates []resolver.Candidate
	// Alternatives keeps the namesakes after a pick so "back" can offer them again.
	Alternatives []resolver.Candidate

	// Lessons is the teacher's raw schedule as fetched. It is never modified.
	Lessons   []lesson.Lesson
	FetchedAt time.Time

	// CurrentWeek is 0 when the week service could not be reached.
	CurrentWeek int
	Week        int
	// Weekday is 1..6 or lesson.AllWeekdays once a day has been rendered.
	Weekday int
}
