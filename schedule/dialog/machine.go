// Package dialog drives the per-user conversation that leads from a surname
// to a rendered schedule. The machine is transport-agnostic: it consumes
// Events and returns Outputs that the bot delivers.
//
// Handle must not be called concurrently for the same user; the bot
// serializes updates per user before they reach the machine.
package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/schedulebot/core/logger"
	"github.com/m3rciful/schedulebot/core/telegram/state"
	"github.com/m3rciful/schedulebot/schedule/lesson"
	"github.com/m3rciful/schedulebot/schedule/normalize"
	"github.com/m3rciful/schedulebot/schedule/render"
	"github.com/m3rciful/schedulebot/schedule/resolver"
)

// Resolver finds teachers and fetches their schedules.
type Resolver interface {
	Resolve(ctx context.Context, raw string) (resolver.Resolution, error)
	Schedule(ctx context.Context, c resolver.Candidate) ([]lesson.Lesson, error)
	// Refresh fetches past any cache.
	Refresh(ctx context.Context, c resolver.Candidate) ([]lesson.Lesson, error)
}

// WeekSource reports the current academic week.
type WeekSource interface {
	CurrentWeek(ctx context.Context) (int, error)
}

// Renderer turns normalized lessons into text blocks.
type Renderer interface {
	Render(ctx context.Context, teacher string, week int, records []lesson.Lesson) []string
}

// Options configures a Machine. Zero values pick the defaults.
type Options struct {
	Resolver Resolver
	Weeks    WeekSource
	Renderer Renderer
	Sessions state.Store[Session]

	TermWeeks    int
	MessageLimit int
	// StaleAfter bounds how long a fetched schedule is reused when the user
	// navigates back from a rendered page. Zero never refetches.
	StaleAfter time.Duration
	Location   *time.Location
	Now        func() time.Time
}

// Machine applies the dialog transition table.
type Machine struct {
	resolver Resolver
	weeks    WeekSource
	renderer Renderer
	sessions state.Store[Session]

	term       int
	limit      int
	staleAfter time.Duration
	loc        *time.Location
	now        func() time.Time
}

// New builds a machine. Resolver, Weeks and Renderer are required.
func New(opts Options) *Machine {
	m := &Machine{
		resolver:   opts.Resolver,
		weeks:      opts.Weeks,
		renderer:   opts.Renderer,
		sessions:   opts.Sessions,
		term:       opts.TermWeeks,
		limit:      opts.MessageLimit,
		staleAfter: opts.StaleAfter,
		loc:        opts.Location,
		now:        opts.Now,
	}
	if m.sessions == nil {
		m.sessions = state.NewMemoryStore[Session]()
	}
	if !lesson.ValidTerm(m.term) {
		m.term = lesson.TermWeeks17
	}
	if m.limit <= 0 {
		m.limit = render.DefaultLimit
	}
	if m.loc == nil {
		m.loc = time.UTC
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Session returns a copy of the user's current session.
func (m *Machine) Session(userID int64) Session {
	sess, _ := m.sessions.Get(userID)
	return sess
}

// Handle applies ev to the user's session, stores the result and returns
// what should be shown to the user.
func (m *Machine) Handle(ctx context.Context, userID int64, ev Event) Output {
	start := time.Now()
	sess, _ := m.sessions.Get(userID)
	from := sess.State

	next, out := m.step(ctx, sess, ev)
	if ev.fromButton() && len(out.Messages) > 0 {
		out.Messages[0].Edit = true
	}
	if next.State == AwaitingTeacherName && next.Teacher == "" {
		m.sessions.Clear(userID)
	} else {
		m.sessions.Set(userID, next)
	}

	logger.Debug(ctx, "dialog", "dialog.transition",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("trigger", ev.Kind.String()),
		slog.String("from_state", from.String()),
		slog.String("to_state", next.State.String()),
		slog.Int("messages", len(out.Messages)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out
}

func (m *Machine) step(ctx context.Context, sess Session, ev Event) (Session, Output) {
	switch ev.Kind {
	case EventStart:
		return Session{}, say(TextEnterTeacher, nil)
	case EventText:
		return m.lookup(ctx, ev.Text)
	case EventBack:
		return m.back(ctx, sess)
	case EventCandidate:
		if sess.State == AwaitingClarification {
			return m.choose(ctx, sess, ev.Value)
		}
	case EventWeek:
		if sess.State == AwaitingWeek {
			return m.pickWeek(sess, ev.Value)
		}
	case EventToday, EventTomorrow:
		if sess.State == AwaitingWeek {
			return m.shortcut(ctx, sess, ev.Kind == EventTomorrow)
		}
	case EventDay:
		if sess.State == AwaitingDay {
			return m.pickDay(ctx, sess, ev.Value)
		}
	}
	return sess, Output{Notice: TextInvalid}
}

func say(text string, kb [][]Button) Output {
	return Output{Messages: []Message{{Text: text, Keyboard: kb}}}
}

func (m *Machine) lookup(ctx context.Context, raw string) (Session, Output) {
	res, err := m.resolver.Resolve(ctx, raw)
	if err != nil {
		return Session{}, say(failureText(err), nil)
	}
	if res.Kind == resolver.KindAmbiguous {
		return Session{State: AwaitingClarification, Candidates: res.Candidates},
			say(TextChooseTeacher, candidateKeyboard(res.Candidates))
	}
	sess := Session{
		Teacher:     res.Teacher().Name,
		Lessons:     res.Lessons,
		FetchedAt:   m.now(),
		CurrentWeek: m.currentWeek(ctx),
	}
	return m.toWeek(sess)
}

func failureText(err error) string {
	switch {
	case errors.Is(err, resolver.ErrInputTooShort):
		return TextTooShort
	case errors.Is(err, resolver.ErrAmbiguousEmpty):
		return TextAmbiguousEmpty
	default:
		return TextNotFound
	}
}

// choose fetches the picked namesake's schedule and the current week together.
func (m *Machine) choose(ctx context.Context, sess Session, idx int) (Session, Output) {
	if idx < 0 || idx >= len(sess.Candidates) {
		return sess, Output{Notice: TextInvalid}
	}
	cand := sess.Candidates[idx]

	var lessons []lesson.Lesson
	var week int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lessons, err = m.resolver.Schedule(gctx, cand)
		return err
	})
	g.Go(func() error {
		week = m.currentWeek(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Session{}, say(TextNotFound, nil)
	}

	return m.toWeek(Session{
		Teacher:      cand.Name,
		Alternatives: sess.Candidates,
		Lessons:      lessons,
		FetchedAt:    m.now(),
		CurrentWeek:  week,
	})
}

func (m *Machine) toWeek(sess Session) (Session, Output) {
	sess.State = AwaitingWeek
	sess.Candidates = nil
	sess.Week = 0
	sess.Weekday = 0
	text := TextChooseWeek
	if sess.CurrentWeek > 0 {
		text += "\nТекущая неделя: " + strconv.Itoa(sess.CurrentWeek)
	}
	marker := Marker(m.now().In(m.loc))
	return sess, say(text, weekKeyboard(m.term, sess.CurrentWeek, marker))
}

func (m *Machine) pickWeek(sess Session, week int) (Session, Output) {
	if week < 1 || week > m.term {
		return sess, Output{Notice: TextInvalid}
	}
	sess.Week = week
	return m.toDay(sess, "")
}

func (m *Machine) toDay(sess Session, notice string) (Session, Output) {
	sess.State = AwaitingDay
	sess.Weekday = 0
	avail := normalize.AvailableWeekdays(sess.Lessons, sess.Week)
	out := say(TextChooseDay, dayKeyboard(avail))
	out.Notice = notice
	return sess, out
}

// shortcut resolves "today" or "tomorrow" into a week and weekday and shows
// that day with the day keyboard of its week underneath.
// Sunday has no lessons; the day after Saturday or Sunday is Monday of the
// next week.
func (m *Machine) shortcut(ctx context.Context, sess Session, tomorrow bool) (Session, Output) {
	current := m.currentWeek(ctx)
	if current == 0 {
		return sess, Output{Notice: TextWeekUnknown}
	}
	sess.CurrentWeek = current

	week := current
	day := int(m.now().In(m.loc).Weekday())
	switch {
	case !tomorrow && day == int(time.Sunday):
		return sess, Output{Notice: TextNoLessons}
	case tomorrow && (day == int(time.Saturday) || day == int(time.Sunday)):
		day = int(time.Monday)
		week++
	case tomorrow:
		day++
	}

	if week > m.term {
		return sess, Output{Notice: TextNoLessons}
	}

	sess.Week = week
	next, out, ok := m.render(ctx, sess, day)
	if !ok {
		return m.toDay(sess, TextNoLessons)
	}
	// The user stays on day selection for the resolved week.
	next.State = AwaitingDay
	out.Messages[len(out.Messages)-1].Keyboard = dayKeyboard(normalize.AvailableWeekdays(next.Lessons, next.Week))
	return next, out
}

func (m *Machine) pickDay(ctx context.Context, sess Session, day int) (Session, Output) {
	if day != lesson.AllWeekdays && !lesson.ValidWeekday(day) {
		return sess, Output{Notice: TextInvalid}
	}
	avail := normalize.AvailableWeekdays(sess.Lessons, sess.Week)
	if (day == lesson.AllWeekdays && avail.Len() == 0) || (day != lesson.AllWeekdays && !avail.Has(day)) {
		return sess, Output{Notice: TextNoLessons}
	}
	next, out, ok := m.render(ctx, sess, day)
	if !ok {
		return sess, Output{Notice: TextNoLessons}
	}
	return next, out
}

// render normalizes and paginates the selected day. It reports false when
// nothing is scheduled so the caller can keep the user on day selection.
// The first page replaces the triggering message; the last page carries
// the back button.
func (m *Machine) render(ctx context.Context, sess Session, day int) (Session, Output, bool) {
	records := normalize.Normalize(sess.Lessons, normalize.Options{
		Weekday:   day,
		Week:      sess.Week,
		TermWeeks: m.term,
	})
	if len(records) == 0 {
		return sess, Output{}, false
	}

	blocks := m.renderer.Render(ctx, sess.Teacher, sess.Week, records)
	pages := render.Paginate(blocks, m.limit)
	msgs := make([]Message, len(pages))
	for i, page := range pages {
		msgs[i] = Message{Text: page}
	}
	msgs[len(msgs)-1].Keyboard = backKeyboard()

	sess.State = Rendered
	sess.Weekday = day
	return sess, Output{Messages: msgs}, true
}

func (m *Machine) back(ctx context.Context, sess Session) (Session, Output) {
	switch sess.State {
	case AwaitingClarification:
		return Session{}, say(TextEnterTeacher, nil)
	case AwaitingWeek:
		if len(sess.Alternatives) > 0 {
			return Session{State: AwaitingClarification, Candidates: sess.Alternatives},
				say(TextChooseTeacher, candidateKeyboard(sess.Alternatives))
		}
		return Session{}, say(TextEnterTeacher, nil)
	case AwaitingDay:
		return m.toWeek(sess)
	case Rendered:
		return m.toWeek(m.refresh(ctx, sess))
	}
	return sess, Output{Notice: TextInvalid}
}

// refresh refetches the schedule when the cached copy is older than
// staleAfter. A failed refetch keeps the cached copy.
func (m *Machine) refresh(ctx context.Context, sess Session) Session {
	if week := m.currentWeek(ctx); week > 0 {
		sess.CurrentWeek = week
	}
	if m.staleAfter <= 0 || m.now().Sub(sess.FetchedAt) < m.staleAfter {
		return sess
	}
	lessons, err := m.resolver.Refresh(ctx, resolver.Candidate{Name: sess.Teacher})
	if err != nil {
		logger.Warn(ctx, "dialog", "schedule.refresh",
			slog.String("status", "fail"),
			slog.String("teacher", sess.Teacher),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return sess
	}
	sess.Lessons = lessons
	sess.FetchedAt = m.now()
	return sess
}

func (m *Machine) currentWeek(ctx context.Context) int {
	if m.weeks == nil {
		return 0
	}
	week, err := m.weeks.CurrentWeek(ctx)
	if err != nil {
		logger.Warn(ctx, "dialog", "week.lookup",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return 0
	}
	return week
}
