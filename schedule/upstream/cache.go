package upstream

import (
	"context"
	"log/slog"

	"github.com/m3rciful/schedulebot/core/logger"
)

// DirectoryCache stores successful directory search results.
type DirectoryCache interface {
	GetEntries(ctx context.Context, key string) ([]TeacherEntry, bool, error)
	PutEntries(ctx context.Context, key string, entries []TeacherEntry) error
}

// NameCache stores unambiguous decoded names.
type NameCache interface {
	GetNames(ctx context.Context, raw []string) (map[string]string, error)
	PutNames(ctx context.Context, names map[string]string) error
}

type bypassKey struct{}

// BypassCache marks ctx so cache decorators skip their read and go to the
// service. Fresh results are still written back.
func BypassCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// CachedDirectory consults a cache before searching. Cache failures are
// logged and the search proceeds against the service.
type CachedDirectory struct {
	Inner  Directory
	Cache  DirectoryCache
	Prefix string
}

// Search implements Directory.
func (d *CachedDirectory) Search(ctx context.Context, name string) ([]TeacherEntry, error) {
	if d.Cache == nil {
		return d.Inner.Search(ctx, name)
	}
	key := d.Prefix + name
	var entries []TeacherEntry
	var ok bool
	var err error
	if !bypassed(ctx) {
		entries, ok, err = d.Cache.GetEntries(ctx, key)
	}
	switch {
	case err != nil:
		logger.Warn(ctx, "store", "cache.get",
			slog.String("status", "fail"),
			slog.String("cache_kind", "directory"),
			slog.String("err", err.Error()),
		)
	case ok && len(entries) > 0:
		logger.Debug(ctx, "store", "cache.get", slog.String("cache", "hit"), slog.String("cache_kind", "directory"))
		return entries, nil
	}

	entries, err = d.Inner.Search(ctx, name)
	if err != nil {
		return nil, err
	}
	if putErr := d.Cache.PutEntries(ctx, key, entries); putErr != nil {
		logger.Warn(ctx, "store", "cache.put",
			slog.String("status", "fail"),
			slog.String("cache_kind", "directory"),
			slog.String("err", putErr.Error()),
		)
	}
	return entries, nil
}

// CachedDecoder serves decoded names from a cache and asks the decoding
// service only for names it has not seen.
type CachedDecoder struct {
	Client *DecodeClient
	Cache  NameCache
}

// Decode implements NameDecoder.
func (d *CachedDecoder) Decode(ctx context.Context, raw []string) []string {
	if d.Cache == nil {
		return d.Client.Decode(ctx, raw)
	}
	known, err := d.Cache.GetNames(ctx, raw)
	if err != nil {
		logger.Warn(ctx, "store", "cache.get",
			slog.String("status", "fail"),
			slog.String("cache_kind", "names"),
			slog.String("err", err.Error()),
		)
		known = map[string]string{}
	}

	var missing []string
	for _, r := range raw {
		if _, ok := known[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) == 0 {
		return collapse(raw, known, nil)
	}

	fresh, err := d.Client.Resolve(ctx, missing)
	if err != nil {
		return collapse(raw, known, nil)
	}
	if len(fresh) > 0 {
		if putErr := d.Cache.PutNames(ctx, fresh); putErr != nil {
			logger.Warn(ctx, "store", "cache.put",
				slog.String("status", "fail"),
				slog.String("cache_kind", "names"),
				slog.String("err", putErr.Error()),
			)
		}
	}
	for k, v := range fresh {
		known[k] = v
	}
	return collapse(raw, known, nil)
}
