// Package normalize turns a raw per-teacher lesson list into the ordered,
// merged and pattern-labelled records that are rendered to users.
package normalize

import (
	"slices"
	"sort"

	"github.com/m3rciful/schedulebot/schedule/lesson"
)

// Options selects the slice of the schedule to normalize.
type Options struct {
	// Weekday is 1..6 or lesson.AllWeekdays.
	Weekday int
	Week    int
	// TermWeeks is the term length used for week-pattern classification.
	TermWeeks int
}

// Normalize sorts, filters, merges and labels raw lessons. The input slice and
// its records are left untouched. An empty result means there is nothing to
// show for the requested day and week.
func Normalize(raw []lesson.Lesson, opts Options) []lesson.Lesson {
	sorted := Sort(raw)

	filtered := make([]lesson.Lesson, 0, len(sorted))
	for _, l := range sorted {
		if opts.Weekday != lesson.AllWeekdays && l.Weekday != opts.Weekday {
			continue
		}
		if !l.HasWeek(opts.Week) {
			continue
		}
		filtered = append(filtered, l)
	}

	merged := Merge(filtered)
	for i := range merged {
		merged[i].Pattern = lesson.Classify(merged[i].Weeks, opts.TermWeeks)
	}
	return merged
}

// Sort returns a copy ordered by (weekday, ordinal, group). The sort is
// stable so records with equal keys keep their upstream order.
func Sort(raw []lesson.Lesson) []lesson.Lesson {
	out := make([]lesson.Lesson, len(raw))
	for i, l := range raw {
		out[i] = l.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.GroupLabel() < b.GroupLabel()
	})
	return out
}

// Merge combines records that share weekday, ordinal and week set. The
// earliest record absorbs the groups of later duplicates and keeps its
// position; absorbed records are dropped after the scan completes.
// The scan is quadratic, bounded by the number of groups sharing a slot.
func Merge(records []lesson.Lesson) []lesson.Lesson {
	out := make([]lesson.Lesson, len(records))
	for i, l := range records {
		out[i] = l.Clone()
	}

	removed := make(map[int]struct{})
	for i := 0; i < len(out); i++ {
		if _, gone := removed[i]; gone {
			continue
		}
		for j := i + 1; j < len(out); j++ {
			if _, gone := removed[j]; gone {
				continue
			}
			if !sameSlot(out[i], out[j]) {
				continue
			}
			out[i].Groups = append(out[i].Groups, out[j].Groups...)
			removed[j] = struct{}{}
		}
	}

	indices := make([]int, 0, len(removed))
	for idx := range removed {
		indices = append(indices, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, idx := range indices {
		out = slices.Delete(out, idx, idx+1)
	}
	return out
}

func sameSlot(a, b lesson.Lesson) bool {
	return a.Number == b.Number &&
		a.Weekday == b.Weekday &&
		lesson.SameWeeks(a.Weeks, b.Weeks)
}
