package telegram

import (
	"net"
	"strconv"
	"time"

	coreconfig "github.com/m3rciful/schedulebot/core/config"

	tele "gopkg.in/telebot.v4"
)

// BuildPoller picks the update source for the configured run mode. cfg is
// expected to be normalized.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: longPoll(cfg)}
}

func longPoll(cfg *coreconfig.Config) time.Duration {
	return time.Duration(cfg.Telegram.LongPollSeconds()) * time.Second
}
