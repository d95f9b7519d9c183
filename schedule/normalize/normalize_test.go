package normalize

import (
	"testing"

	"github.com/m3rciful/schedulebot/schedule/lesson"
)

func allWeeks(term int) []int {
	out := make([]int, 0, term)
	for w := 1; w <= term; w++ {
		out = append(out, w)
	}
	return out
}

func rec(weekday, num int, group string, weeks []int) lesson.Lesson {
	return lesson.Lesson{
		Discipline: "Физика",
		Type:       "лек",
		Weekday:    weekday,
		Number:     num,
		Start:      "09:00:00",
		End:        "10:30:00",
		Groups:     []string{group},
		Weeks:      weeks,
	}
}

func TestNormalizeMergesSameSlot(t *testing.T) {
	raw := []lesson.Lesson{
		rec(2, 3, "A", allWeeks(17)),
		rec(2, 3, "B", allWeeks(17)),
	}
	got := Normalize(raw, Options{Weekday: 2, Week: 5, TermWeeks: 17})
	if len(got) != 1 {
		t.Fatalf("expected one merged record, got %d", len(got))
	}
	if got[0].GroupLabel() != "A, B" {
		t.Fatalf("groups = %q", got[0].GroupLabel())
	}
	if got[0].Pattern.Kind != lesson.PatternAll {
		t.Fatalf("pattern = %v", got[0].Pattern)
	}
}

func TestNormalizeKeepsRawUntouched(t *testing.T) {
	raw := []lesson.Lesson{
		rec(2, 3, "B", allWeeks(17)),
		rec(2, 3, "A", allWeeks(17)),
	}
	_ = Normalize(raw, Options{Weekday: 2, Week: 1, TermWeeks: 17})
	if raw[0].GroupLabel() != "B" || raw[1].GroupLabel() != "A" {
		t.Fatalf("raw records were modified: %+v", raw)
	}
	if len(raw[0].Weeks) != 17 || !raw[0].Pattern.IsZero() {
		t.Fatalf("raw weeks rewritten: %+v", raw[0])
	}
}

func TestNormalizeOrdering(t *testing.T) {
	raw := []lesson.Lesson{
		rec(3, 1, "C", allWeeks(17)),
		rec(1, 2, "B", allWeeks(17)),
		rec(1, 2, "A", []int{1, 3}),
		rec(1, 1, "Z", allWeeks(17)),
	}
	got := Normalize(raw, Options{Weekday: lesson.AllWeekdays, Week: 1, TermWeeks: 17})
	want := []string{"Z", "A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("got %d records", len(got))
	}
	for i, g := range want {
		if got[i].GroupLabel() != g {
			t.Fatalf("position %d = %q, want %q", i, got[i].GroupLabel(), g)
		}
	}
}

func TestNormalizeFiltersDayAndWeek(t *testing.T) {
	raw := []lesson.Lesson{
		rec(1, 1, "A", []int{1, 3, 5}),
		rec(1, 2, "A", []int{2, 4}),
		rec(2, 1, "A", []int{1}),
	}
	got := Normalize(raw, Options{Weekday: 1, Week: 3, TermWeeks: 17})
	if len(got) != 1 || got[0].Number != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[0].Pattern.String() != "1, 3, 5" {
		t.Fatalf("pattern = %q", got[0].Pattern.String())
	}
}

func TestNormalizeEmptyWhenNothingMatches(t *testing.T) {
	raw := []lesson.Lesson{rec(1, 1, "A", []int{2})}
	if got := Normalize(raw, Options{Weekday: 1, Week: 3, TermWeeks: 17}); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if got := Normalize(raw, Options{Weekday: 4, Week: 2, TermWeeks: 17}); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestNormalizeDoesNotMergeDifferentWeeks(t *testing.T) {
	raw := []lesson.Lesson{
		rec(1, 1, "A", []int{1, 3}),
		rec(1, 1, "B", []int{1, 5}),
	}
	got := Normalize(raw, Options{Weekday: 1, Week: 1, TermWeeks: 17})
	if len(got) != 2 {
		t.Fatalf("records with different week sets were merged: %+v", got)
	}
}

func TestNormalizeNeverGrows(t *testing.T) {
	raw := []lesson.Lesson{
		rec(1, 1, "A", allWeeks(17)),
		rec(1, 1, "B", allWeeks(17)),
		rec(1, 1, "C", allWeeks(17)),
		rec(1, 2, "A", allWeeks(17)),
		rec(2, 1, "A", []int{1}),
	}
	got := Normalize(raw, Options{Weekday: lesson.AllWeekdays, Week: 1, TermWeeks: 17})
	if len(got) > len(raw) {
		t.Fatalf("output %d exceeds input %d", len(got), len(raw))
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct slots, got %d", len(got))
	}
	if got[0].GroupLabel() != "A, B, C" {
		t.Fatalf("groups = %q", got[0].GroupLabel())
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	raw := []lesson.Lesson{
		rec(1, 1, "A", allWeeks(17)),
		rec(1, 1, "B", allWeeks(17)),
		rec(1, 2, "C", []int{2, 4}),
		rec(1, 2, "D", []int{2, 4}),
		rec(1, 2, "E", []int{1}),
	}
	once := Merge(Sort(raw))
	twice := Merge(once)
	if len(once) != len(twice) {
		t.Fatalf("second merge changed count: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].GroupLabel() != twice[i].GroupLabel() {
			t.Fatalf("record %d changed: %q -> %q", i, once[i].GroupLabel(), twice[i].GroupLabel())
		}
	}
}

func TestAvailableWeekdays(t *testing.T) {
	raw := []lesson.Lesson{
		rec(1, 1, "A", []int{1, 2}),
		rec(3, 1, "A", []int{2}),
		rec(5, 1, "A", []int{3}),
		rec(7, 1, "A", []int{2}),
	}
	set := AvailableWeekdays(raw, 2)
	if !set.Has(1) || !set.Has(3) {
		t.Fatalf("expected days 1 and 3, got %v", set)
	}
	if set.Has(5) || set.Has(7) || set.Len() != 2 {
		t.Fatalf("unexpected days in %v", set)
	}
}
