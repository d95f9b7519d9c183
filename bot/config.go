package bot

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/schedulebot/core/config"
	coredatabase "github.com/m3rciful/schedulebot/core/database"
	"github.com/m3rciful/schedulebot/schedule/lesson"
	"github.com/m3rciful/schedulebot/schedule/render"
	"github.com/m3rciful/schedulebot/schedule/store"
	"github.com/m3rciful/schedulebot/schedule/upstream"
)

const (
	defaultTimeoutMS  = 5000
	defaultTimezone   = "Europe/Moscow"
	defaultStaleAfter = 600
)

// UpstreamConfig points at the schedule and name-decoding services.
type UpstreamConfig struct {
	ScheduleURL string `yaml:"schedule_url" envconfig:"SCHEDULE_URL"`
	// API selects the directory payload shape: "search" or "legacy".
	API         string `yaml:"api" envconfig:"SCHEDULE_API"`
	DecodeURL   string `yaml:"decode_url" envconfig:"DECODE_URL"`
	DecodeToken string `yaml:"decode_token" envconfig:"DECODE_TOKEN"`
	TimeoutMS   int    `yaml:"timeout_ms" envconfig:"UPSTREAM_TIMEOUT_MS"`
}

// Timeout returns the per-call upstream timeout.
func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ScheduleConfig tunes the dialog and rendering.
type ScheduleConfig struct {
	TermWeeks         int    `yaml:"term_weeks" envconfig:"TERM_WEEKS"`
	MessageLimit      int    `yaml:"message_limit" envconfig:"MESSAGE_LIMIT"`
	Timezone          string `yaml:"timezone" envconfig:"SCHEDULE_TIMEZONE"`
	StaleAfterSeconds int    `yaml:"stale_after_seconds" envconfig:"STALE_AFTER_SECONDS"`
	Contact           string `yaml:"contact" envconfig:"SUPPORT_CONTACT"`

	location *time.Location
}

// Location returns the timezone used for "today" and "tomorrow".
func (c ScheduleConfig) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// StaleAfter bounds how long a fetched schedule is reused.
func (c ScheduleConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Redis    store.RedisConfig   `yaml:"redis"`
	Upstream UpstreamConfig      `yaml:"upstream"`
	Schedule ScheduleConfig      `yaml:"schedule"`
}

// CoreConfig exposes the embedded transport and logging settings.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads the YAML file at path, overlays environment variables and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	up := &cfg.Upstream
	up.ScheduleURL = strings.TrimSpace(up.ScheduleURL)
	if up.ScheduleURL == "" {
		return fmt.Errorf("upstream.schedule_url is required")
	}
	up.API = strings.ToLower(strings.TrimSpace(up.API))
	if up.API == "" {
		up.API = upstream.APISearch
	}
	if up.API != upstream.APISearch && up.API != upstream.APILegacy {
		return fmt.Errorf("invalid upstream.api %q; allowed: search, legacy", up.API)
	}
	if up.TimeoutMS < 0 {
		return fmt.Errorf("upstream.timeout_ms must be >= 0")
	}
	if up.TimeoutMS == 0 {
		up.TimeoutMS = defaultTimeoutMS
	}
	up.DecodeURL = strings.TrimSpace(up.DecodeURL)

	sc := &cfg.Schedule
	if sc.TermWeeks == 0 {
		sc.TermWeeks = lesson.TermWeeks17
	}
	if !lesson.ValidTerm(sc.TermWeeks) {
		return fmt.Errorf("invalid schedule.term_weeks %d; allowed: 17, 18", sc.TermWeeks)
	}
	if sc.MessageLimit < 0 {
		return fmt.Errorf("schedule.message_limit must be >= 0")
	}
	if sc.MessageLimit == 0 {
		sc.MessageLimit = render.DefaultLimit
	}
	if sc.StaleAfterSeconds < 0 {
		return fmt.Errorf("schedule.stale_after_seconds must be >= 0")
	}
	if sc.StaleAfterSeconds == 0 {
		sc.StaleAfterSeconds = defaultStaleAfter
	}
	if strings.TrimSpace(sc.Contact) == "" {
		sc.Contact = render.DefaultContact
	}
	if strings.TrimSpace(sc.Timezone) == "" {
		sc.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(sc.Timezone)
	if err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", sc.Timezone, err)
	}
	sc.location = loc

	if cfg.Redis.TTLSeconds < 0 {
		return fmt.Errorf("redis.ttl_seconds must be >= 0")
	}
	return nil
}
