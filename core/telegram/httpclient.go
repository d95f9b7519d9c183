package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/schedulebot/core/telegram/netutil"
)

// BuildHTTPClient returns the client used for Bot API calls. getUpdates
// holds the response for up to longPoll, so header and overall timeouts
// are measured from it. Transient transport failures are retried.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	return &http.Client{
		Timeout: longPoll + 20*time.Second,
		Transport: &netutil.RetryTransport{
			Base: netutil.NewTransport(netutil.TransportOptions{
				HeaderTimeout: longPoll + 10*time.Second,
			}),
			MaxRetries: 3,
			Backoff:    2 * time.Second,
		},
	}
}
