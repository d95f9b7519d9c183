package lesson

import (
	"slices"
	"strconv"
	"strings"
)

// PatternKind classifies a set of week numbers.
type PatternKind int

const (
	// PatternExplicit lists week numbers verbatim.
	PatternExplicit PatternKind = iota
	// PatternAll covers every week of the term.
	PatternAll
	// PatternOdd covers every odd week of the term.
	PatternOdd
	// PatternEven covers every even week of the term.
	PatternEven
)

// WeekPattern is the display form of a lesson's recurrence.
// Weeks is populated only for PatternExplicit and is strictly ascending.
type WeekPattern struct {
	Kind  PatternKind
	Weeks []int
}

// IsZero reports whether the pattern was never classified.
func (p WeekPattern) IsZero() bool {
	return p.Kind == PatternExplicit && len(p.Weeks) == 0
}

// String renders the pattern label shown to users.
func (p WeekPattern) String() string {
	switch p.Kind {
	case PatternAll:
		return "все"
	case PatternOdd:
		return "по нечётным"
	case PatternEven:
		return "по чётным"
	}
	parts := make([]string, len(p.Weeks))
	for i, w := range p.Weeks {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ", ")
}

// Classify maps a week set onto ALL/ODD/EVEN for the given term length, or an
// explicit ascending list. Matching is exact: a subset of ODD stays explicit.
func Classify(weeks []int, term int) WeekPattern {
	set := canonicalWeeks(weeks)
	switch {
	case slices.Equal(set, termRange(1, term, 1)):
		return WeekPattern{Kind: PatternAll}
	case slices.Equal(set, termRange(1, term, 2)):
		return WeekPattern{Kind: PatternOdd}
	case slices.Equal(set, termRange(2, term, 2)):
		return WeekPattern{Kind: PatternEven}
	}
	return WeekPattern{Kind: PatternExplicit, Weeks: set}
}

// SameWeeks reports whether two week lists describe the same set.
func SameWeeks(a, b []int) bool {
	return slices.Equal(canonicalWeeks(a), canonicalWeeks(b))
}

func canonicalWeeks(weeks []int) []int {
	out := append([]int(nil), weeks...)
	slices.Sort(out)
	return slices.Compact(out)
}

func termRange(from, to, step int) []int {
	var out []int
	for w := from; w <= to; w += step {
		out = append(out, w)
	}
	return out
}
