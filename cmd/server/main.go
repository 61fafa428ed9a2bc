package main

import (
	"context"
	"errors"

	"github.com/lintang-b-s/navsim/pkg/config"
	"github.com/lintang-b-s/navsim/pkg/http"
	"github.com/lintang-b-s/navsim/pkg/http/usecases"
	"github.com/lintang-b-s/navsim/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger.Info("loaded config", zap.String("config", cfg.String()))

	simulationService, err := usecases.NewSimulationService(logger, cfg.Server.TopologyCacheSize, nil)
	if err != nil {
		panic(err)
	}

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}

	api := http.NewServer(logger)
	if _, err := api.Use(ctx, logger, cfg.Server, simulationService); err != nil {
		panic(err)
	}

	signal := http.GracefulShutdown()

	logger.Info("navsim server stopped", zap.String("signal", signal.String()))
	cleanup()
	if err := api.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited with error", zap.Error(err))
	}
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
