package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	tsLayout = "2006-01-02T15:04:05.000Z07:00"
)

// entry is one log line before encoding.
type entry map[string]any

func (e entry) str(key string) string {
	s, _ := e[key].(string)
	return s
}

// structuredHandler writes one line per record, either JSON or key=value,
// with keys in a fixed order.
type structuredHandler struct {
	level  slog.Leveler
	out    *asyncWriter
	format logFormat
	order  []string

	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(level slog.Leveler, out *asyncWriter, format logFormat, order []string) *structuredHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	if len(order) == 0 {
		order = defaultKeyOrder
	}
	return &structuredHandler{level: level, out: out, format: format, order: order}
}

func (h *structuredHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(slices.Clip(h.attrs), attrs...)
	return &c
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = join(h.prefix, name)
	return &c
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.out == nil {
		return errors.New("logger: writer not initialized")
	}
	e := make(entry, 16)
	ts := r.Time.UTC()
	e["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	e["level"] = levelName(r.Level)
	if h.format == formatJSON {
		e["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.attrs {
		e.add(h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		e.add(h.prefix, a)
		return true
	})
	h.fromContext(ctx, e)
	h.finish(e, r.Message)

	var line []byte
	var err error
	if h.format == formatJSON {
		line, err = encodeJSON(e, h.order)
	} else {
		line = encodeKV(e, h.order)
	}
	if err != nil {
		return err
	}
	return h.out.Write(append(line, '\n'))
}

func (h *structuredHandler) fromContext(ctx context.Context, e entry) {
	if ctx == nil {
		return
	}
	for _, f := range contextFields {
		if _, set := e[f.key]; set {
			continue
		}
		switch v := f.get(ctx).(type) {
		case string:
			if v != "" {
				e[f.key] = v
			}
		case int64:
			if v != 0 {
				e[f.key] = v
			}
		}
	}
}

// finish fills event and component, shortens the rid and drops empty values.
func (h *structuredHandler) finish(e entry, msg string) {
	if rid := e.str("rid"); rid != "" {
		if short := CompactRID(rid); short != rid {
			if h.format == formatJSON {
				e["rid_full"] = rid
			}
			e["rid"] = short
		}
	}
	if e.str("event") == "" {
		e["event"] = orDefault(msg, "unknown")
	}
	if e.str("component") == "" {
		e["component"] = "app"
	}
	normalizeEnums(e)
	for k, v := range e {
		if v == nil || v == "" {
			delete(e, k)
		}
	}
}

func (e entry) add(prefix string, a slog.Attr) {
	key := join(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			e.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := plain(key, v); ok {
		e[k] = val
	}
}

// plain converts a slog value into something both encoders understand.
// Durations are logged in milliseconds under a key ending in _ms.
func plain(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return millisKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return millisKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func millisKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	default:
		return key + "_ms"
	}
}

// keys returns the listed keys present in e, then the rest sorted.
func (e entry) keys(order []string) []string {
	out := make([]string, 0, len(e))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		listed[k] = true
		if _, ok := e[k]; ok {
			out = append(out, k)
		}
	}
	n := len(out)
	for k := range e {
		if !listed[k] {
			out = append(out, k)
		}
	}
	slices.Sort(out[n:])
	return out
}

func encodeJSON(e entry, order []string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range e.keys(order) {
		v, err := json.Marshal(e[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func encodeKV(e entry, order []string) []byte {
	var b bytes.Buffer
	for i, k := range e.keys(order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		s := fmt.Sprint(e[k])
		if strings.IndexFunc(s, needsQuote) >= 0 {
			s = strconv.Quote(s)
		}
		b.WriteString(s)
	}
	return b.Bytes()
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}

func join(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
