// Package netutil holds the HTTP plumbing shared by the Telegram client and
// the upstream schedule clients.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"
)

// ShouldRetry reports whether err is a transient transport failure: a
// timeout or a failed dial.
func ShouldRetry(err error) bool {
	switch Kind(err) {
	case "timeout", "dial", "dns_timeout":
		return true
	}
	return false
}

// Kind classifies a transport error for logs: timeout, dns_timeout, dns,
// dial, tls or unknown. A nil error has no kind.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "dns_timeout"
		}
		return "dns"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "dial"
	}
	var alert tls.AlertError
	if errors.As(err, &alert) {
		return "tls"
	}
	return "unknown"
}

// RetryTransport retries requests that failed with a transient error,
// waiting Backoff times the attempt number between tries. Requests whose
// body cannot be replayed are not retried.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	Backoff    time.Duration
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	for attempt := 0; ; attempt++ {
		resp, err := base.RoundTrip(req)
		if err == nil || attempt >= t.MaxRetries || !ShouldRetry(err) {
			return resp, err
		}
		next, ok := replay(req)
		if !ok {
			return nil, err
		}
		if wait := t.Backoff * time.Duration(attempt+1); wait > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(wait):
			}
		}
		req = next
	}
}

func replay(req *http.Request) (*http.Request, bool) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	next.Body = body
	return next, true
}
