// Package bootstrap prepares process-wide infrastructure before the bot
// starts: logging first, then the optional database.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/schedulebot/core/config"
	coredatabase "github.com/m3rciful/schedulebot/core/database"
	"github.com/m3rciful/schedulebot/core/logger"
)

// Options carries the configuration plus replaceable steps; nil steps use
// the core implementations.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

func (o *Options) fill() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Result holds what Run initialized. DB is nil when the database is off.
type Result struct {
	DB *sqlx.DB
}

// Run initializes logging and, when a database host is configured, opens
// the pool and brings the schema up to date.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.fill()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	if !opts.Database.Enabled() {
		logger.LogEvent(logger.Background(), logger.DB, slog.LevelInfo, "db.connect", slog.String("status", "skip"))
		return &Result{}, nil
	}

	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if err := opts.Migrate(opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return &Result{DB: db}, nil
}
