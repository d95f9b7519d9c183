package dialog

// EventKind names what the user did.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventText
	EventCandidate
	EventWeek
	EventToday
	EventTomorrow
	EventDay
	EventBack
)

var eventNames = map[EventKind]string{
	EventStart:     "start",
	EventText:      "text",
	EventCandidate: "candidate",
	EventWeek:      "week",
	EventToday:     "today",
	EventTomorrow:  "tomorrow",
	EventDay:       "day",
	EventBack:      "back",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one inbound user action.
type Event struct {
	Kind EventKind
	Text string
	// Value is the candidate index, week number or weekday.
	Value int
}

// Start resets the dialog.
func Start() Event { return Event{Kind: EventStart} }

// Text is a free-text message, treated as a surname query.
func Text(s string) Event { return Event{Kind: EventText, Text: s} }

// Choose selects the candidate at index i of the offered list.
func Choose(i int) Event { return Event{Kind: EventCandidate, Value: i} }

// PickWeek selects a week number.
func PickWeek(week int) Event { return Event{Kind: EventWeek, Value: week} }

// PickDay selects a weekday 1..6 or lesson.AllWeekdays.
func PickDay(day int) Event { return Event{Kind: EventDay, Value: day} }

// Today asks for the current day of the current week.
func Today() Event { return Event{Kind: EventToday} }

// Tomorrow asks for the next teaching day.
func Tomorrow() Event { return Event{Kind: EventTomorrow} }

// Back returns to the previous step.
func Back() Event { return Event{Kind: EventBack} }

// fromButton reports whether the event came from an inline button, which
// means the triggering message can be edited in place.
func (e Event) fromButton() bool {
	return e.Kind != EventStart && e.Kind != EventText
}
