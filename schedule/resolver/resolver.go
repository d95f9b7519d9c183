// Package resolver turns free-text surname input into teacher candidates.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/m3rciful/schedulebot/core/logger"
	"github.com/m3rciful/schedulebot/schedule/lesson"
	"github.com/m3rciful/schedulebot/schedule/upstream"
)

const minQueryRunes = 2

var (
	// ErrInputTooShort is returned before any network call for inputs under two characters.
	ErrInputTooShort = errors.New("resolver: input too short")
	// ErrTeacherNotFound reports that the directory had no result or failed.
	ErrTeacherNotFound = errors.New("resolver: teacher not found")
	// ErrAmbiguousEmpty reports that the directory returned data but none of
	// it matched the query.
	ErrAmbiguousEmpty = errors.New("resolver: no entry matched the query")
)

// Candidate identifies one teacher; Name is both the display label and the
// directory query key.
type Candidate struct {
	Name string
}

// Kind classifies a successful resolution.
type Kind int

const (
	// KindSingle means exactly one teacher matched.
	KindSingle Kind = iota + 1
	// KindAmbiguous means the user must choose among Candidates.
	KindAmbiguous
)

// Resolution is the successful outcome of Resolve.
type Resolution struct {
	Kind       Kind
	Query      string
	Candidates []Candidate
	// Lessons holds the union of lessons for a single match.
	Lessons []lesson.Lesson
}

// Teacher returns the selected candidate of a single match.
func (r Resolution) Teacher() Candidate {
	if len(r.Candidates) == 0 {
		return Candidate{}
	}
	return r.Candidates[0]
}

// Resolver queries a directory and classifies its answers.
type Resolver struct {
	dir upstream.Directory
}

// New returns a resolver backed by dir.
func New(dir upstream.Directory) *Resolver {
	return &Resolver{dir: dir}
}

// NormalizeQuery title-cases input and appends a trailing space to a bare
// surname so the directory matches it as a whole word.
func NormalizeQuery(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) < minQueryRunes {
		return "", ErrInputTooShort
	}
	q := titleCase(trimmed)
	if !strings.ContainsRune(q, ' ') {
		q += " "
	}
	return q, nil
}

// Resolve classifies the directory answer for raw input.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Resolution, error) {
	query, err := NormalizeQuery(raw)
	if err != nil {
		return Resolution{}, err
	}

	entries, err := r.dir.Search(ctx, query)
	if err != nil {
		logResolve(ctx, query, 0, err)
		return Resolution{}, fmt.Errorf("%w: %w", ErrTeacherNotFound, err)
	}

	groups := match(entries, query)
	switch len(groups) {
	case 0:
		logResolve(ctx, query, 0, ErrAmbiguousEmpty)
		return Resolution{}, ErrAmbiguousEmpty
	case 1:
		logResolve(ctx, query, 1, nil)
		return Resolution{
			Kind:       KindSingle,
			Query:      query,
			Candidates: []Candidate{{Name: groups[0].name}},
			Lessons:    groups[0].lessons,
		}, nil
	}

	out := Resolution{Kind: KindAmbiguous, Query: query, Candidates: make([]Candidate, 0, len(groups))}
	for _, g := range groups {
		out.Candidates = append(out.Candidates, Candidate{Name: g.name})
	}
	logResolve(ctx, query, len(groups), nil)
	return out, nil
}

// Schedule fetches the lessons for exactly the candidate's identity,
// collecting the union when the directory splits it across several
// near-identical entries.
func (r *Resolver) Schedule(ctx context.Context, c Candidate) ([]lesson.Lesson, error) {
	entries, err := r.dir.Search(ctx, c.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTeacherNotFound, err)
	}
	key := foldKey(c.Name)
	var out []lesson.Lesson
	found := false
	for _, e := range entries {
		if foldKey(e.Name) != key {
			continue
		}
		found = true
		for _, l := range e.Lessons {
			out = append(out, l.Clone())
		}
	}
	if !found {
		return nil, ErrTeacherNotFound
	}
	return out, nil
}

// Refresh is Schedule that skips the directory cache, for reloading a
// schedule the session considers stale.
func (r *Resolver) Refresh(ctx context.Context, c Candidate) ([]lesson.Lesson, error) {
	return r.Schedule(upstream.BypassCache(ctx), c)
}

// InlineCandidates searches the raw query text and returns at most limit
// matching candidates. Short queries yield no candidates.
func (r *Resolver) InlineCandidates(ctx context.Context, query string, limit int) ([]Candidate, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minQueryRunes {
		return nil, nil
	}
	entries, err := r.dir.Search(ctx, q)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	groups := match(entries, q)
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	out := make([]Candidate, 0, len(groups))
	for _, g := range groups {
		out = append(out, Candidate{Name: g.name})
	}
	return out, nil
}

type group struct {
	name    string
	lessons []lesson.Lesson
}

// match keeps entries whose name contains the query, ignoring whitespace
// and case on both sides, and folds entries that differ only in whitespace.
func match(entries []upstream.TeacherEntry, query string) []group {
	needle := foldKey(query)
	if needle == "" {
		return nil
	}
	var out []group
	index := make(map[string]int)
	for _, e := range entries {
		key := foldKey(e.Name)
		if key == "" || !strings.Contains(key, needle) {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, group{name: strings.TrimSpace(e.Name)})
		}
		for _, l := range e.Lessons {
			out[i].lessons = append(out[i].lessons, l.Clone())
		}
	}
	return out
}

func foldKey(s string) string {
	return strings.ToLower(lesson.CompactName(s))
}

// titleCase upper-cases the first letter of every word and lower-cases the
// rest; any non-letter starts a new word.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

func logResolve(ctx context.Context, query string, count int, err error) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("query", logger.SanitizeLimit(query, 64)),
		slog.Int("count", count),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.Debug(ctx, "schedule.resolver", "teacher.resolve", attrs...)
}
