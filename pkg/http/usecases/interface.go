package usecases

import (
	"context"

	"github.com/lintang-b-s/navsim/pkg/experiment"
	"go.uber.org/zap"
)

// Evaluator runs a batch experiment.
type Evaluator func(ctx context.Context, cfg experiment.Config, log *zap.Logger) (*experiment.Report, error)
