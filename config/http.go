package config

import (
	"os"
	"strings"
	"time"
)

const defaultHTTPAddr = ":5000"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to. When HTTP_ADDR is unset
	// and PORT is set, the server listens on ":" + PORT.
	Addr string `env:"HTTP_ADDR"`

	// CORSAllowedOrigins lists origins allowed to call the API; "*" allows any.
	CORSAllowedOrigins []string `env:"HTTP_CORS_ALLOWED_ORIGINS" envDefault:"*"`

	Timeouts HTTPTimeouts
}

// HTTPTimeouts bounds request handling and graceful shutdown.
type HTTPTimeouts struct {
	Read     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	Write    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	Shutdown time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			h.Addr = ":" + port
		} else {
			h.Addr = defaultHTTPAddr
		}
	}

	origins := h.CORSAllowedOrigins[:0]
	for _, o := range h.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	h.CORSAllowedOrigins = origins

	if h.Timeouts.Read <= 0 {
		h.Timeouts.Read = 30 * time.Second
	}
	if h.Timeouts.Write <= 0 {
		h.Timeouts.Write = 30 * time.Second
	}
	if h.Timeouts.Shutdown <= 0 {
		h.Timeouts.Shutdown = 10 * time.Second
	}
}
