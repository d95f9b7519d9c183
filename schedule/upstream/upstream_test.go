package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/schedulebot/schedule/lesson"
)

const searchBody = `[
  {"name": "Иванов И. О.", "lessons": [
    {"discipline": {"name": "Физика"}, "lesson_type": {"name": "лек"}, "weekday": 2,
     "calls": {"num": 3, "time_start": "12:40:00", "time_end": "14:10:00"},
     "room": {"name": "А-101", "campus": {"short_name": "В-78"}},
     "group": {"name": "ИКБО-01-21"}, "weeks": [1, 3, 5],
     "teachers": [{"name": "Иванов И. О."}]},
    {"discipline": {"name": "Физика"}, "lesson_type": null, "weekday": 4,
     "calls": {"num": 1, "time_start": "09:00:00", "time_end": "10:30:00"},
     "room": null, "group": {"name": "ИКБО-02-21"}, "weeks": [2],
     "teachers": [{"name": "Иванов И. О."}]}
  ]}
]`

const legacyBody = `{"schedules": [
  {"weekday": 1, "group": "ИВБО-01-20", "lesson_number": 0,
   "lesson": {"name": "Матан", "weeks": [1, 2], "time_start": "9:00", "time_end": "10:30",
              "types": "пр", "teachers": ["Петров П. П.", "Сидоров С. С."], "rooms": ["Б-1", "Б-2"]}},
  {"weekday": 3, "group": "ИВБО-02-20", "lesson_number": 2,
   "lesson": {"name": "Алгебра", "weeks": [4], "time_start": "12:40", "time_end": "14:10",
              "types": "лек", "teachers": ["ПетровП.П."], "rooms": []}}
]}`

func TestDirectorySearchShape(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	dir, err := NewDirectoryClient(srv.URL+"/api", APISearch, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	entries, err := dir.Search(context.Background(), "Иванов ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/api/teacher/search/%D0%98%D0%B2%D0%B0%D0%BD%D0%BE%D0%B2%20" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if len(entries) != 1 || entries[0].Name != "Иванов И. О." {
		t.Fatalf("unexpected entries %+v", entries)
	}
	lessons := entries[0].Lessons
	if len(lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(lessons))
	}
	first := lessons[0]
	if first.Number != 3 || first.Weekday != 2 || first.Start != "12:40:00" || first.End != "14:10:00" {
		t.Fatalf("unexpected slot %+v", first)
	}
	if first.Type != "лек" || first.Room != "А-101" || first.Campus != "В-78" {
		t.Fatalf("unexpected details %+v", first)
	}
	if first.GroupLabel() != "ИКБО-01-21" || len(first.Weeks) != 3 {
		t.Fatalf("unexpected group/weeks %+v", first)
	}
	second := lessons[1]
	if second.Type != "" || second.Room != "" || second.Campus != "" {
		t.Fatalf("null fields should stay empty: %+v", second)
	}
}

func TestDirectoryLegacyShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule/teacher/Петров" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(legacyBody))
	}))
	defer srv.Close()

	dir, err := NewDirectoryClient(srv.URL, APILegacy, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	entries, err := dir.Search(context.Background(), "Петров")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two teacher entries, got %+v", entries)
	}
	if entries[0].Name != "Петров П. П." || len(entries[0].Lessons) != 2 {
		t.Fatalf("whitespace variants should share one entry: %+v", entries[0])
	}
	if entries[1].Name != "Сидоров С. С." || len(entries[1].Lessons) != 1 {
		t.Fatalf("co-teacher entry missing: %+v", entries[1])
	}
	l := entries[0].Lessons[0]
	if l.Number != 1 {
		t.Fatalf("legacy ordinal must be 1-based, got %d", l.Number)
	}
	if l.Room != "Б-1, Б-2" || l.Type != "пр" {
		t.Fatalf("unexpected legacy details %+v", l)
	}
	if entries[0].Lessons[1].Number != 3 {
		t.Fatalf("expected shifted ordinal 3, got %d", entries[0].Lessons[1].Number)
	}
}

func TestDirectoryStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, "", ErrNotFound},
		{"server error", http.StatusInternalServerError, "", ErrUnavailable},
		{"empty list", http.StatusOK, "[]", ErrNotFound},
		{"garbage", http.StatusOK, "{", ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			dir, err := NewDirectoryClient(srv.URL, APISearch, srv.Client())
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			_, err = dir.Search(context.Background(), "x")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDirectoryTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := srv.Client()
	client.Timeout = 50 * time.Millisecond
	dir, err := NewDirectoryClient(srv.URL, APISearch, client)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := dir.Search(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("timeout should map to unavailable, got %v", err)
	}
}

func TestNewDirectoryClientRejectsUnknownAPI(t *testing.T) {
	if _, err := NewDirectoryClient("http://x", "graphql", nil); err == nil {
		t.Fatalf("expected error for unknown api")
	}
	if _, err := NewDirectoryClient("", APISearch, nil); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestCurrentWeek(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule/current_week" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"week": 7}`))
	}))
	defer srv.Close()

	week, err := NewWeekClient(srv.URL+"/", srv.Client()).CurrentWeek(context.Background())
	if err != nil || week != 7 {
		t.Fatalf("expected week 7, got %d (%v)", week, err)
	}
}

func TestCurrentWeekSharesInflightCalls(t *testing.T) {
	var calls int32
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-gate
		_, _ = w.Write([]byte(`{"week": 3}`))
	}))
	defer srv.Close()

	client := NewWeekClient(srv.URL, srv.Client())
	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = client.CurrentWeek(context.Background())
		}(i)
	}
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
	for i, w := range results {
		if w != 3 {
			t.Fatalf("caller %d got week %d", i, w)
		}
	}
}

func TestCurrentWeekSurvivesFirstCallerDeadline(t *testing.T) {
	var calls int32
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-gate
		_, _ = w.Write([]byte(`{"week": 4}`))
	}))
	defer srv.Close()
	client := NewWeekClient(srv.URL, srv.Client())

	firstErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := client.CurrentWeek(ctx)
		firstErr <- err
	}()
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		week int
		err  error
	}
	second := make(chan result, 1)
	go func() {
		week, err := client.CurrentWeek(context.Background())
		second <- result{week, err}
	}()

	err := <-firstErr
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first caller should time out as unavailable, got %v", err)
	}
	close(gate)

	res := <-second
	if res.err != nil || res.week != 4 {
		t.Fatalf("second caller got week=%d err=%v", res.week, res.err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
}

func TestCurrentWeekRejectsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"week": 0}`))
	}))
	defer srv.Close()

	if _, err := NewWeekClient(srv.URL, srv.Client()).CurrentWeek(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestDecodeCollapsesUniqueCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.URL.Query().Get("rawNames"); got != "Иванов И. О.,Петров П. П.,Сидоров С." {
			t.Errorf("unexpected rawNames %q", got)
		}
		_, _ = w.Write([]byte(`[
		  {"rawName": "Иванов И. О.", "possibleFullNames": [{"lastName": "Иванов", "firstName": "Иван", "middleName": "Олегович"}]},
		  {"rawName": "Петров П. П.", "possibleFullNames": [
		    {"lastName": "Петров", "firstName": "Пётр", "middleName": "Павлович"},
		    {"lastName": "Петров", "firstName": "Павел", "middleName": "Петрович"}]},
		  {"rawName": "Сидоров С.", "possibleFullNames": [{"lastName": "Сидоров", "firstName": "Семён", "middleName": ""}]}
		]`))
	}))
	defer srv.Close()

	dec := NewDecodeClient(srv.URL, "secret", srv.Client())
	got := dec.Decode(context.Background(), []string{"Иванов И. О.", "Петров П. П.", "Сидоров С."})
	want := []string{"Иванов Иван Олегович", "Петров П. П.", "Сидоров Семён"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("name %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDecodeFallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	dec := NewDecodeClient(srv.URL, "bad", srv.Client())
	got := dec.Decode(context.Background(), []string{"Иванов И. О."})
	if len(got) != 1 || got[0] != "Иванов И. О." {
		t.Fatalf("expected raw fallback, got %v", got)
	}

	disabled := NewDecodeClient("", "", nil)
	if got := disabled.Decode(context.Background(), []string{"A"}); got[0] != "A" {
		t.Fatalf("disabled decoder should echo input, got %v", got)
	}
}

type memDirCache struct {
	data map[string][]TeacherEntry
	puts int
}

func (m *memDirCache) GetEntries(_ context.Context, key string) ([]TeacherEntry, bool, error) {
	e, ok := m.data[key]
	return e, ok, nil
}

func (m *memDirCache) PutEntries(_ context.Context, key string, entries []TeacherEntry) error {
	m.puts++
	m.data[key] = entries
	return nil
}

type countingDirectory struct {
	calls   int
	entries []TeacherEntry
	err     error
}

func (d *countingDirectory) Search(context.Context, string) ([]TeacherEntry, error) {
	d.calls++
	return d.entries, d.err
}

func TestCachedDirectoryServesHits(t *testing.T) {
	inner := &countingDirectory{entries: []TeacherEntry{{Name: "Иванов И. О."}}}
	cache := &memDirCache{data: map[string][]TeacherEntry{}}
	dir := &CachedDirectory{Inner: inner, Cache: cache, Prefix: "p:"}

	for i := 0; i < 3; i++ {
		entries, err := dir.Search(context.Background(), "Иванов ")
		if err != nil || len(entries) != 1 {
			t.Fatalf("search %d: %v %v", i, entries, err)
		}
	}
	if inner.calls != 1 || cache.puts != 1 {
		t.Fatalf("expected one miss, got calls=%d puts=%d", inner.calls, cache.puts)
	}
	if _, ok := cache.data["p:Иванов "]; !ok {
		t.Fatalf("expected prefixed key, got %v", cache.data)
	}
}

func TestCachedDirectorySkipsFailures(t *testing.T) {
	inner := &countingDirectory{err: ErrNotFound}
	cache := &memDirCache{data: map[string][]TeacherEntry{}}
	dir := &CachedDirectory{Inner: inner, Cache: cache}

	if _, err := dir.Search(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if cache.puts != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestCachedDirectoryBypassRefreshesEntry(t *testing.T) {
	stale := []TeacherEntry{{Name: "Иванов И. О."}}
	inner := &countingDirectory{entries: []TeacherEntry{{Name: "Иванов И. О.", Lessons: make([]lesson.Lesson, 2)}}}
	cache := &memDirCache{data: map[string][]TeacherEntry{"Иванов И. О.": stale}}
	dir := &CachedDirectory{Inner: inner, Cache: cache}

	if entries, _ := dir.Search(context.Background(), "Иванов И. О."); len(entries[0].Lessons) != 0 || inner.calls != 0 {
		t.Fatalf("plain search should be served from cache, calls=%d", inner.calls)
	}
	entries, err := dir.Search(BypassCache(context.Background()), "Иванов И. О.")
	if err != nil || len(entries[0].Lessons) != 2 || inner.calls != 1 {
		t.Fatalf("bypass must reach the service: %v %v calls=%d", entries, err, inner.calls)
	}
	if got := cache.data["Иванов И. О."]; len(got[0].Lessons) != 2 {
		t.Fatalf("fresh result must replace the cached one, got %+v", got)
	}
}

type memNameCache struct {
	data map[string]string
}

func (m *memNameCache) GetNames(_ context.Context, raw []string) (map[string]string, error) {
	out := map[string]string{}
	for _, r := range raw {
		if v, ok := m.data[r]; ok {
			out[r] = v
		}
	}
	return out, nil
}

func (m *memNameCache) PutNames(_ context.Context, names map[string]string) error {
	for k, v := range names {
		m.data[k] = v
	}
	return nil
}

func TestCachedDecoderAsksOnlyForMissing(t *testing.T) {
	var asked []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		asked = append(asked, r.URL.Query().Get("rawNames"))
		_, _ = w.Write([]byte(`[{"rawName": "Б", "possibleFullNames": [{"lastName": "Бета"}]}]`))
	}))
	defer srv.Close()

	cache := &memNameCache{data: map[string]string{"А": "Альфа"}}
	dec := &CachedDecoder{Client: NewDecodeClient(srv.URL, "", srv.Client()), Cache: cache}

	got := dec.Decode(context.Background(), []string{"А", "Б"})
	if got[0] != "Альфа" || got[1] != "Бета" {
		t.Fatalf("unexpected decode %v", got)
	}
	if len(asked) != 1 || asked[0] != "Б" {
		t.Fatalf("expected lookup of missing name only, got %v", asked)
	}
	if cache.data["Б"] != "Бета" {
		t.Fatalf("fresh decode should be cached")
	}

	_ = dec.Decode(context.Background(), []string{"А", "Б"})
	if len(asked) != 1 {
		t.Fatalf("second decode should be served from cache, asked %v", asked)
	}
}
