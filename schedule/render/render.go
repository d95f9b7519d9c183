// Package render turns normalized lessons into chat message text.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/schedulebot/core/logger"
	"github.com/m3rciful/schedulebot/schedule/lesson"
	"github.com/m3rciful/schedulebot/schedule/upstream"
)

// DefaultContact is the support channel named in the apology block.
const DefaultContact = "https://t.me/mirea_ninja_chat"

var (
	errMissingField = errors.New("render: missing field")
	errBadTime      = errors.New("render: malformed time")
)

var clockLayouts = []string{"15:04:05", "15:04"}

// Renderer formats lessons, expanding the selected teacher's name once per render.
type Renderer struct {
	decoder upstream.NameDecoder
	contact string
}

// NewRenderer builds a renderer. A nil decoder shows names unchanged.
func NewRenderer(decoder upstream.NameDecoder, contact string) *Renderer {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		contact = DefaultContact
	}
	return &Renderer{decoder: decoder, contact: contact}
}

// Apology is the block shown in place of a record that could not be rendered.
func (r *Renderer) Apology() string {
	return "Ошибка при получении расписания, сообщите об этом администрации в чате " + r.contact + "\n\n"
}

// Render returns one block per record, in order. Records that fail are
// replaced by the apology block; the remaining records are unaffected.
func (r *Renderer) Render(ctx context.Context, teacher string, week int, records []lesson.Lesson) []string {
	display := r.teacherName(ctx, teacher)
	logger.Info(ctx, "schedule.render", "schedule.request",
		slog.String("teacher", teacher),
		slog.Int("week", week),
		slog.Int("count", len(records)),
	)

	blocks := make([]string, 0, len(records))
	var failures []string
	repeats := make(map[string]int)
	for _, rec := range records {
		text, err := Block(rec, display)
		if err != nil {
			msg := err.Error()
			if repeats[msg] == 0 {
				failures = append(failures, msg)
			}
			repeats[msg]++
			blocks = append(blocks, r.Apology())
			continue
		}
		blocks = append(blocks, text)
	}

	for _, msg := range failures {
		attrs := []slog.Attr{
			slog.String("status", "fail"),
			slog.String("teacher", teacher),
			slog.Int("week", week),
			slog.String("err", logger.SanitizeLimit(msg, 256)),
		}
		if n := repeats[msg]; n > 1 {
			attrs = append(attrs, slog.Bool("collapsed", true), slog.Int("repeats", n))
		}
		logger.Warn(ctx, "schedule.render", "render.error", attrs...)
	}
	return blocks
}

func (r *Renderer) teacherName(ctx context.Context, teacher string) string {
	if r.decoder == nil || strings.TrimSpace(teacher) == "" {
		return teacher
	}
	names := r.decoder.Decode(ctx, []string{teacher})
	if len(names) == 0 || strings.TrimSpace(names[0]) == "" {
		return teacher
	}
	return names[0]
}

// Block formats a single normalized lesson. teacher is the display name of
// the selected teacher and replaces the per-lesson teacher list.
func Block(rec lesson.Lesson, teacher string) (string, error) {
	if strings.TrimSpace(rec.Discipline) == "" {
		return "", fmt.Errorf("%w: discipline", errMissingField)
	}
	if rec.Number <= 0 {
		return "", fmt.Errorf("%w: lesson number", errMissingField)
	}
	day, ok := lesson.WeekdayName(rec.Weekday)
	if !ok {
		return "", fmt.Errorf("%w: weekday %d", errMissingField, rec.Weekday)
	}
	if rec.Pattern.IsZero() {
		return "", fmt.Errorf("%w: week pattern", errMissingField)
	}
	start, err := clock(rec.Start)
	if err != nil {
		return "", err
	}
	end, err := clock(rec.End)
	if err != nil {
		return "", err
	}

	room := rec.Room
	if campus := strings.TrimSpace(rec.Campus); campus != "" {
		room += " (" + campus + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📝 Пара № %d в ⏰ %s – %s\n", rec.Number, start, end)
	fmt.Fprintf(&b, "📝 %s\n", rec.Discipline)
	fmt.Fprintf(&b, "👥 Группы: %s\n", rec.GroupLabel())
	fmt.Fprintf(&b, "📚 Тип: %s\n", rec.Type)
	fmt.Fprintf(&b, "👨🏻‍🏫 Преподаватели: %s\n", teacher)
	fmt.Fprintf(&b, "🏫 Аудитории: %s\n", room)
	fmt.Fprintf(&b, "📅 Недели: %s\n", rec.Pattern.String())
	fmt.Fprintf(&b, "📆 День недели: %s\n\n", day)
	return b.String(), nil
}

// clock parses an upstream time of day and returns it as HH:MM.
func clock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", errBadTime, raw)
}
