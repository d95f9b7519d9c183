package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/schedulebot/core/config"
	coretelegram "github.com/m3rciful/schedulebot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct{ stopped *bool }

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStop: func(context.Context, coretelegram.Runtime) error {
			*a.stopped = true
			return nil
		},
	}, nil
}

func TestRunWrapsLifecycleHooks(t *testing.T) {
	t.Setenv("SCHEDULEBOT_TEST_CONFIG", "/etc/schedulebot.yaml")
	var loaded string
	stopped, loggerClosed := false, false

	err := Run(Options{
		ConfigEnvVar: "SCHEDULEBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return app{stopped: &stopped}, nil
		},
		ShutdownLogger: func() error {
			loggerClosed = true
			return nil
		},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loaded != "/etc/schedulebot.yaml" || !stopped || !loggerClosed {
		t.Fatalf("loaded=%q stopped=%v loggerClosed=%v", loaded, stopped, loggerClosed)
	}
}

func TestRunReportsMissingConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if err == nil {
		t.Fatalf("expected error without a config path")
	}

	boom := errors.New("bad yaml")
	err = Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return nil, boom },
		Bootstrap:         func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}
