package controllers

import (
	"context"

	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/experiment"
	"github.com/lintang-b-s/navsim/pkg/http/usecases"
)

type SimulationService interface {
	RunExperiment(ctx context.Context, cfg experiment.Config) (*experiment.Report, error)
	Route(seed uint64, n int, source, destination da.Index) ([]da.Index, float64, string, error)
	Stream(ctx context.Context, req usecases.StreamRequest, onTick func(usecases.TickFrame) error) error
}
