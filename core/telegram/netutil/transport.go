package netutil

import (
	"net"
	"net/http"
	"time"
)

// TransportOptions tunes NewTransport; zero fields take defaults.
type TransportOptions struct {
	DialTimeout    time.Duration
	HeaderTimeout  time.Duration
	MaxIdleConns   int
	MaxIdlePerHost int
}

// NewTransport returns a pooled HTTP transport with bounded dial, TLS and
// header timeouts.
func NewTransport(o TransportOptions) *http.Transport {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.HeaderTimeout <= 0 {
		o.HeaderTimeout = 5 * time.Second
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 100
	}
	if o.MaxIdlePerHost <= 0 {
		o.MaxIdlePerHost = 10
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: o.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          o.MaxIdleConns,
		MaxIdleConnsPerHost:   o.MaxIdlePerHost,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   o.DialTimeout,
		ResponseHeaderTimeout: o.HeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}
}
