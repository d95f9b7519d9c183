package dialog

import (
	"strconv"

	"github.com/m3rciful/schedulebot/schedule/lesson"
	"github.com/m3rciful/schedulebot/schedule/normalize"
	"github.com/m3rciful/schedulebot/schedule/resolver"
)

const weeksPerRow = 4

func backRow() []Button {
	return []Button{{Label: LabelBack, Action: ActionBack}}
}

func candidateKeyboard(cands []resolver.Candidate) [][]Button {
	rows := make([][]Button, 0, len(cands)+1)
	for i, c := range cands {
		rows = append(rows, []Button{{Label: c.Name, Action: ActionTeacher, Payload: strconv.Itoa(i)}})
	}
	return append(rows, backRow())
}

// weekKeyboard lays weeks out four per row and decorates the current one.
func weekKeyboard(term, current int, marker string) [][]Button {
	var rows [][]Button
	var row []Button
	for w := 1; w <= term; w++ {
		label := strconv.Itoa(w)
		if w == current {
			label = marker + label + marker
		}
		row = append(row, Button{Label: label, Action: ActionWeek, Payload: strconv.Itoa(w)})
		if len(row) == weeksPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		[]Button{{Label: LabelToday, Action: ActionToday}, {Label: LabelTomorrow, Action: ActionTomorrow}},
		backRow(),
	)
	return rows
}

// dayKeyboard shows the six teaching days in two rows. Days without lessons
// in the selected week are marked but stay tappable.
func dayKeyboard(avail normalize.WeekdaySet) [][]Button {
	rows := make([][]Button, 0, 4)
	for first := 1; first <= 6; first += 3 {
		row := make([]Button, 0, 3)
		for d := first; d < first+3; d++ {
			name, _ := lesson.WeekdayName(d)
			if !avail.Has(d) {
				name = markDisabled + " " + name
			}
			row = append(row, Button{Label: name, Action: ActionDay, Payload: strconv.Itoa(d)})
		}
		rows = append(rows, row)
	}
	whole := LabelWholeWeek
	if avail.Len() == 0 {
		whole = markDisabled + " " + whole
	}
	rows = append(rows,
		[]Button{{Label: whole, Action: ActionDay, Payload: strconv.Itoa(lesson.AllWeekdays)}},
		backRow(),
	)
	return rows
}

func backKeyboard() [][]Button {
	return [][]Button{backRow()}
}
