// Package bot wires the schedule dialog to Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	corebootstrap "github.com/m3rciful/schedulebot/core/bootstrap"
	corecmd "github.com/m3rciful/schedulebot/core/cmd"
	"github.com/m3rciful/schedulebot/core/logger"
	tg "github.com/m3rciful/schedulebot/core/telegram"
	"github.com/m3rciful/schedulebot/core/telegram/commands"
	"github.com/m3rciful/schedulebot/core/telegram/router"
	"github.com/m3rciful/schedulebot/core/telegram/state"
	"github.com/m3rciful/schedulebot/schedule/dialog"
	"github.com/m3rciful/schedulebot/schedule/render"
	"github.com/m3rciful/schedulebot/schedule/resolver"
	"github.com/m3rciful/schedulebot/schedule/store"
	"github.com/m3rciful/schedulebot/schedule/upstream"
)

// App holds the wired services of a running bot.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	redis    *goredis.Client
	resolver *resolver.Resolver
	machine  *dialog.Machine
	lanes    *state.Lanes
	registry *tg.Registry
}

// Bootstrap initializes logging and storage and builds the dialog services.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = store.ConnectRedis(context.Background(), cfg.Redis)
		if err != nil {
			if res.DB != nil {
				_ = res.DB.Close()
			}
			return nil, fmt.Errorf("bot: %w", err)
		}
		logger.Store.Info("redis connected",
			slog.String("event", "redis.connect"),
			slog.String("addr", cfg.Redis.Addr),
			slog.Duration("ttl", cfg.Redis.TTL()),
		)
	}

	app, err := newApp(cfg, res.DB, rdb)
	if err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

// newApp builds the services on top of already opened storage. db and rdb
// may be nil, which disables the matching cache.
func newApp(cfg *Config, db *sqlx.DB, rdb *goredis.Client) (*App, error) {
	app := &App{cfg: cfg, db: db, redis: rdb}
	client := upstream.NewHTTPClient(cfg.Upstream.Timeout())

	dirClient, err := upstream.NewDirectoryClient(cfg.Upstream.ScheduleURL, cfg.Upstream.API, client)
	if err != nil {
		return app, fmt.Errorf("bot: %w", err)
	}
	var dir upstream.Directory = dirClient
	if rdb != nil {
		dir = &upstream.CachedDirectory{
			Inner:  dirClient,
			Cache:  store.NewDirectoryCache(rdb, cfg.Redis.TTL()),
			Prefix: store.KeyPrefix(dirClient.API()),
		}
	}

	var decoder upstream.NameDecoder
	if cfg.Upstream.DecodeURL != "" {
		dc := upstream.NewDecodeClient(cfg.Upstream.DecodeURL, cfg.Upstream.DecodeToken, client)
		decoder = dc
		if db != nil {
			decoder = &upstream.CachedDecoder{Client: dc, Cache: store.NewNameCache(db)}
		}
	}

	app.resolver = resolver.New(dir)
	app.lanes = state.NewLanes()
	app.machine = dialog.New(dialog.Options{
		Resolver:     app.resolver,
		Weeks:        upstream.NewWeekClient(cfg.Upstream.ScheduleURL, client),
		Renderer:     render.NewRenderer(decoder, cfg.Schedule.Contact),
		Sessions:     state.NewMemoryStore[dialog.Session](),
		TermWeeks:    cfg.Schedule.TermWeeks,
		MessageLimit: cfg.Schedule.MessageLimit,
		StaleAfter:   cfg.Schedule.StaleAfter(),
		Location:     cfg.Schedule.Location(),
	})
	app.registry = app.buildRegistry()

	logger.TWire.Info("services wired",
		slog.String("event", "wire"),
		slog.String("api", dirClient.API()),
		slog.Bool("redis", rdb != nil),
		slog.Bool("db", db != nil),
		slog.Bool("decoder", decoder != nil),
		slog.Int("term_weeks", cfg.Schedule.TermWeeks),
	)
	return app, nil
}

func (a *App) buildRegistry() *tg.Registry {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.onStart,
		Description: "Начать поиск преподавателя",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.onHelp,
		Description: "Как пользоваться ботом",
	})
	for _, action := range dialog.Actions {
		_ = reg.RegisterCallback(action, a.onCallback(action))
	}
	reg.SetCallbackNotFound(a.UnknownCallback())
	reg.SetTextFallback(a.onText)
	return reg
}

// TelegramRunOptions assembles the runtime: per-user lanes in front of the
// shared middleware, then commands, callbacks, text and inline queries.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{
		UnknownCommand: a.UnknownCommand(),
	})...)
	routes = append(routes, router.QueryRoute(a.onQuery))

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.lanes, a.onLaneError),
		Routes:      routes,
		Lanes:       a.lanes,
		Synchronous: true,
		OnStop: func(context.Context, tg.Runtime) error {
			a.close()
			return nil
		},
	}, nil
}

func (a *App) close() {
	if a == nil {
		return
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Store.Warn("redis close failed", slog.String("event", "redis.close"), slog.String("err", err.Error()))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.DB.Warn("db close failed", slog.String("event", "db.close"), slog.String("err", err.Error()))
		}
	}
}

// Options returns the cmd runner options for this bot.
func Options() corecmd.Options {
	return corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			c, ok := cfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("bot: unexpected config type %T", cfg)
			}
			app, err := Bootstrap(c)
			if err != nil {
				return nil, err
			}
			return app, nil
		},
	}
}
