package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

type Config struct {
	Port    int
	Timeout time.Duration
}

// New http server whose request contexts derive from ctx.
// streaming responses have no write deadline, every other response must be written within Timeout.
func New(ctx context.Context, handler http.Handler, config Config, streaming bool) *http.Server {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	if !streaming {
		srv.WriteTimeout = config.Timeout
	}
	return srv
}
