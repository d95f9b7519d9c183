package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeRunModes(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: " Polling "}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll || cfg.Telegram.LongPollSeconds() != DefaultLongPollSeconds {
		t.Fatalf("unexpected telegram config %+v", cfg.Telegram)
	}

	wh := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}, Webhook: WebhookConfig{Listen: "0.0.0.0"}}
	err := Normalize(wh)
	if err == nil || !strings.Contains(err.Error(), "webhook.url, webhook.port") {
		t.Fatalf("expected missing webhook fields, got %v", err)
	}

	for _, bad := range []*Config{
		{},
		{Telegram: TelegramConfig{Token: "t", RunMode: "push"}},
		{Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}},
	} {
		if err := Normalize(bad); err == nil {
			t.Fatalf("expected error for %+v", bad.Telegram)
		}
	}
}

func TestDecodeOverlaysEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "telegram:\n  token: from-file\n  longpoll_timeout_seconds: 25\nlogging:\n  level: info\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Telegram.Token != "from-env" || cfg.Telegram.LongPollSeconds() != 25 || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
