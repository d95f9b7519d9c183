package upstream

import (
	"strings"

	"github.com/m3rciful/schedulebot/core/format"
	"github.com/m3rciful/schedulebot/schedule/lesson"
)

type named struct {
	Name string `json:"name"`
}

type searchEntry struct {
	Name    string         `json:"name"`
	Lessons []searchLesson `json:"lessons"`
}

type searchLesson struct {
	Discipline named  `json:"discipline"`
	LessonType *named `json:"lesson_type"`
	Weekday    int    `json:"weekday"`
	Calls      struct {
		Num       int    `json:"num"`
		TimeStart string `json:"time_start"`
		TimeEnd   string `json:"time_end"`
	} `json:"calls"`
	Room *struct {
		Name   string `json:"name"`
		Campus *struct {
			ShortName *string `json:"short_name"`
		} `json:"campus"`
	} `json:"room"`
	Group    named   `json:"group"`
	Weeks    []int   `json:"weeks"`
	Teachers []named `json:"teachers"`
}

func (e searchEntry) entry() TeacherEntry {
	out := TeacherEntry{Name: strings.TrimSpace(e.Name), Lessons: make([]lesson.Lesson, 0, len(e.Lessons))}
	for _, l := range e.Lessons {
		out.Lessons = append(out.Lessons, l.lesson())
	}
	return out
}

func (l searchLesson) lesson() lesson.Lesson {
	rec := lesson.Lesson{
		Discipline: l.Discipline.Name,
		Weekday:    l.Weekday,
		Number:     l.Calls.Num,
		Start:      l.Calls.TimeStart,
		End:        l.Calls.TimeEnd,
		Weeks:      append([]int(nil), l.Weeks...),
	}
	if l.LessonType != nil {
		rec.Type = l.LessonType.Name
	}
	if l.Room != nil {
		rec.Room = l.Room.Name
		if l.Room.Campus != nil {
			rec.Campus = format.NonEmpty(l.Room.Campus.ShortName, "")
		}
	}
	if g := strings.TrimSpace(l.Group.Name); g != "" {
		rec.Groups = []string{g}
	}
	for _, t := range l.Teachers {
		if n := strings.TrimSpace(t.Name); n != "" {
			rec.Teachers = append(rec.Teachers, n)
		}
	}
	return rec
}

type legacyPayload struct {
	Schedules []legacySchedule `json:"schedules"`
}

type legacySchedule struct {
	Weekday      int    `json:"weekday"`
	Group        string `json:"group"`
	LessonNumber int    `json:"lesson_number"`
	Lesson       struct {
		Name      string   `json:"name"`
		Weeks     []int    `json:"weeks"`
		TimeStart string   `json:"time_start"`
		TimeEnd   string   `json:"time_end"`
		Types     string   `json:"types"`
		Teachers  []string `json:"teachers"`
		Rooms     []string `json:"rooms"`
	} `json:"lesson"`
}

// entries groups legacy records by the teachers listed on each lesson,
// preserving first-appearance order. Names differing only in whitespace
// collapse into one entry.
func (p legacyPayload) entries() []TeacherEntry {
	var out []TeacherEntry
	index := make(map[string]int)
	for _, s := range p.Schedules {
		rec := s.lesson()
		for _, t := range rec.Teachers {
			key := lesson.CompactName(t)
			if key == "" {
				continue
			}
			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				out = append(out, TeacherEntry{Name: t})
			}
			out[i].Lessons = append(out[i].Lessons, rec.Clone())
		}
	}
	return out
}

func (s legacySchedule) lesson() lesson.Lesson {
	rec := lesson.Lesson{
		Discipline: s.Lesson.Name,
		Type:       s.Lesson.Types,
		Weekday:    s.Weekday,
		// legacy ordinals are zero-based
		Number: s.LessonNumber + 1,
		Start:  s.Lesson.TimeStart,
		End:    s.Lesson.TimeEnd,
		Room:   strings.Join(s.Lesson.Rooms, ", "),
		Weeks:  append([]int(nil), s.Lesson.Weeks...),
	}
	if g := strings.TrimSpace(s.Group); g != "" {
		rec.Groups = []string{g}
	}
	for _, t := range s.Lesson.Teachers {
		if n := strings.TrimSpace(t); n != "" {
			rec.Teachers = append(rec.Teachers, n)
		}
	}
	return rec
}
