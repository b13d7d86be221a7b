package bridge

import (
	"log/slog"
	"net/http"
	"time"
)

// Option is a function type used to configure Host instances.
type Option func(*Host)

// WithCheckOrigin sets a function to check the origin of channel upgrade
// requests. Hosts embedding untrusted content should restrict this to the
// WebView's own origin.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Host) {
		h.Upgrader.CheckOrigin = fn
	}
}

// WithCompression enables or disables WebSocket compression.
func WithCompression(enabled bool) Option {
	return func(h *Host) {
		h.Upgrader.EnableCompression = enabled
	}
}

// WithAddr sets the address for the host to bind to.
func WithAddr(addr string) Option {
	return func(h *Host) {
		h.Addr = addr
	}
}

// WithPort sets the port number for the host to listen on.
func WithPort(port int) Option {
	return func(h *Host) {
		h.Port = port
	}
}

// WithPath sets the channel endpoint path. Defaults to /bridge.
func WithPath(path string) Option {
	return func(h *Host) {
		h.Path = path
	}
}

// WithLogger sets a custom logger implementation for the host.
func WithLogger(l Logger) Option {
	return func(h *Host) { h.Log = l }
}

// WithSlog sets an slog.Logger instance as the host's logger.
func WithSlog(l *slog.Logger) Option {
	return func(h *Host) { h.Log = &slogLogger{l: l} }
}

// WithPing enables ping/pong keepalive with the specified interval and timeout.
func WithPing(interval, timeout time.Duration) Option {
	return func(h *Host) {
		h.pingInterval = interval
		h.pingTimeout = timeout
	}
}

// WithSendBuffer sets the per-document outbound message buffer size.
func WithSendBuffer(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithReadTimeout sets the read timeout for the HTTP server.
func WithReadTimeout(timeout time.Duration) Option {
	return func(h *Host) {
		h.readTimeout = timeout
	}
}

// WithWriteTimeout sets the write timeout for the HTTP server.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(h *Host) {
		h.writeTimeout = timeout
	}
}

// WithIdleTimeout sets the idle timeout for the HTTP server.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(h *Host) {
		h.idleTimeout = timeout
	}
}
