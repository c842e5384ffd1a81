package client

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Option configures the HTTP client.
type Option func(*HTTP)

// WithEnvelope unwraps responses nested under key (for example "detail").
// Responses lacking the key are used as-is.
func WithEnvelope(key string) Option {
	return func(h *HTTP) {
		h.envelope = strings.TrimSpace(key)
	}
}

// WithUpdateMode selects the update route.
func WithUpdateMode(mode UpdateMode) Option {
	return func(h *HTTP) {
		if mode != "" {
			h.updateMode = mode
		}
	}
}

// WithPageParam renames the page query parameter (default "pageNumber").
func WithPageParam(name string) Option {
	return func(h *HTTP) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			h.pageParam = trimmed
		}
	}
}

// WithPageSizeParam sends the controller's page size under name. By default
// the page size is not sent.
func WithPageSizeParam(name string) Option {
	return func(h *HTTP) {
		h.sizeParam = strings.TrimSpace(name)
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(h *HTTP) {
		if strings.TrimSpace(key) == "" {
			return
		}
		h.headers.Set(key, value)
	}
}

// WithRetry configures read retries. Writes are never retried.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(h *HTTP) {
		if max >= 0 {
			h.retryMax = max
		}
		if waitMin > 0 {
			h.retryWaitMin = waitMin
		}
		if waitMax > 0 {
			h.retryWaitMax = waitMax
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithHTTPClient supplies the underlying client (transport, cookies, auth).
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.base = c
		}
	}
}

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(h *HTTP) {
		if logger != nil {
			h.logger = logger
		}
	}
}
