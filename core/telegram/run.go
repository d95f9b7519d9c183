package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/schedulebot/core/config"
	"github.com/m3rciful/schedulebot/core/logger"
	tghelpers "github.com/m3rciful/schedulebot/core/telegram/helpers"
	tgsender "github.com/m3rciful/schedulebot/core/telegram/sender"
	"github.com/m3rciful/schedulebot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const laneDrainTimeout = 10 * time.Second

// Middleware is a named global middleware installed with Bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint: a command string, a
// tele.OnText style constant or a callback unique.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher defaults to one built from DispatcherOptions.
	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// Lanes is drained after the poller stops.
	Lanes *state.Lanes

	// Synchronous makes telebot call handlers on the poller goroutine;
	// ordering is then left to the middleware chain.
	Synchronous bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see.
type Runtime struct {
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot described by opts and serves updates until ctx
// is cancelled. Cancellation is a clean exit and yields a nil error.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(ctx, opts)
	if err != nil {
		return err
	}

	disp := opts.Dispatcher
	if disp == nil {
		disp = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(disp)
	defer func() {
		disp.Close()
		tghelpers.SetDispatcher(nil)
	}()

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, opts.Registry)

	rt := Runtime{Dispatcher: disp, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)
	drainLanes(opts.Lanes)

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func newBot(ctx context.Context, opts RunOptions) (*tele.Bot, error) {
	cfg := opts.Config
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:       cfg.Telegram.Token,
		Poller:      BuildPoller(cfg),
		Client:      BuildHTTPClient(longPoll(cfg)),
		Synchronous: opts.Synchronous,
		OnError:     logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	attrs := []slog.Attr{
		slog.String("mode", cfg.Telegram.RunMode),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if wh, ok := bot.Poller.(*tele.Webhook); ok {
		attrs = append(attrs, slog.String("listen", wh.Listen), slog.String("public_url", wh.Endpoint.PublicURL))
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode", attrs...)
		return bot, nil
	}

	attrs = append(attrs, slog.Int("timeout_seconds", cfg.Telegram.LongPollSeconds()))
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode", attrs...)

	// A leftover webhook makes getUpdates fail with 409.
	if err := bot.RemoveWebhook(); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return bot, nil
}

func logHandlerError(err error, c tele.Context) {
	ctx := logger.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "handler.error",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}

// serve blocks until the poller exits by itself or ctx is done.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	}
}

func drainLanes(lanes *state.Lanes) {
	if lanes == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), laneDrainTimeout)
	defer cancel()
	if err := lanes.Close(ctx); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "lanes.close",
			slog.Int("lanes", lanes.Active()),
			slog.String("err", err.Error()),
		)
	}
}
