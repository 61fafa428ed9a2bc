package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/navsim/pkg/config"
	http_router "github.com/lintang-b-s/navsim/pkg/http/router"
	"github.com/lintang-b-s/navsim/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/navsim/pkg/http/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the API in the background. Wait returns once it stopped.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,
	cfg config.ServerConfig,
	simulationService controllers.SimulationService,
) (*Server, error) {
	serverConfig := http_server.Config{
		Port:    cfg.Port,
		Timeout: cfg.Timeout,
	}
	rateLimit := http_router.RateLimit{
		Enabled: cfg.UseRateLimit,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	}

	server := http_router.NewAPI(log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, serverConfig, rateLimit, simulationService, cfg.MaxStreamArrivals)
	})
	s.g = g

	return s, nil
}

func (s *Server) Wait() error {
	if s.g == nil {
		return nil
	}
	return s.g.Wait()
}

// GracefulShutdown blocks until SIGINT or SIGTERM.
func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}
