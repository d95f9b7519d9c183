package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/schedulebot/core/logger"
)

const (
	readyTimeout  = 30 * time.Second
	pingInterval  = 2 * time.Second
	attemptBudget = 5 * time.Second
)

// Connect opens the pool and waits until Postgres answers a ping, which
// covers a database container that is still starting up.
func Connect(cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(cfg.pool())
	db.SetMaxIdleConns(cfg.pool())
	db.SetConnMaxIdleTime(5 * time.Minute)

	start := time.Now()
	attempts, err := waitReady(db)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("driver", "postgres"),
		slog.String("db", cfg.String()),
		slog.Int("attempts", attempts),
		slog.Int("pool_open", cfg.pool()),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		_ = db.Close()
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.LogEvent(logger.Background(), logger.DB, slog.LevelError, "db.connect", attrs...)
		return nil, fmt.Errorf("db connect: %w", err)
	}
	logger.LogEvent(logger.Background(), logger.DB, slog.LevelInfo, "db.connect", attrs...)
	return db, nil
}

func waitReady(db *sqlx.DB) (int, error) {
	deadline := time.Now().Add(readyTimeout)
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), attemptBudget)
		err := db.PingContext(ctx)
		cancel()
		if err == nil {
			return attempt, nil
		}
		if time.Now().Add(pingInterval).After(deadline) {
			return attempt, fmt.Errorf("database not ready after %s: %w", readyTimeout, err)
		}
		time.Sleep(pingInterval)
	}
}
