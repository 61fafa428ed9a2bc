package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/navsim/pkg"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/experiment"
	"github.com/lintang-b-s/navsim/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"
)

func newService(t *testing.T) *SimulationService {
	t.Helper()
	ss, err := NewSimulationService(zap.NewNop(), 4, nil)
	require.NoError(t, err)
	return ss
}

func TestTopologyIsCached(t *testing.T) {
	ss := newService(t)
	a, err := ss.Topology(3, 12)
	require.NoError(t, err)
	b, err := ss.Topology(3, 12)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, ss.CachedTopologies())

	_, err = ss.Topology(3, 2)
	var uerr *util.Error
	require.True(t, errors.As(err, &uerr))
	assert.ErrorIs(t, uerr.Code(), util.ErrBadParamInput)
}

func TestRoute(t *testing.T) {
	ss := newService(t)
	g, err := ss.Topology(5, 12)
	require.NoError(t, err)

	// any out road gives a reachable pair
	road := g.GetRoad(0)
	path, dist, line, err := ss.Route(5, 12, road.GetFrom(), road.GetTo())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(path), 2)
	assert.Equal(t, road.GetFrom(), path[0])
	assert.Equal(t, road.GetTo(), path[len(path)-1])
	assert.LessOrEqual(t, dist, road.GetBaseDistance()+da.EPS)

	coords, _, err := polyline.DecodeCoords([]byte(line))
	require.NoError(t, err)
	require.Len(t, coords, len(path))
	first := g.GetJunction(path[0])
	assert.InDelta(t, first.GetY(), coords[0][0], 1e-5)
	assert.InDelta(t, first.GetX(), coords[0][1], 1e-5)

	_, _, _, err = ss.Route(5, 12, 0, 99)
	var uerr *util.Error
	require.True(t, errors.As(err, &uerr))
	assert.ErrorIs(t, uerr.Code(), util.ErrNotFound)
}

func TestStream(t *testing.T) {
	ss := newService(t)
	frames := make([]TickFrame, 0)
	err := ss.Stream(context.Background(), StreamRequest{
		Strategy:       pkg.DECENTRALIZED,
		Seed:           7,
		NumJunctions:   12,
		TargetArrivals: 5,
		Multiplier:     pkg.TRAFFIC_MULTIPLIER,
		Spawner:        experiment.SPAWNER_FIXED_PAIR,
	}, func(f TickFrame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, frames)

	for i, f := range frames {
		assert.Equal(t, i+1, f.Tick)
		assert.Equal(t, f.Spawned, f.Traveling+f.Arrived)
		assert.Equal(t, i == len(frames)-1, f.Done)
	}
	last := frames[len(frames)-1]
	assert.GreaterOrEqual(t, last.Arrived, 5)
	assert.Greater(t, last.AverageTime, 0.0)
}

func TestStreamStopsOnCallbackError(t *testing.T) {
	ss := newService(t)
	stop := errors.New("client went away")
	calls := 0
	err := ss.Stream(context.Background(), StreamRequest{
		Strategy:       pkg.CENTRALIZED,
		Seed:           7,
		NumJunctions:   12,
		TargetArrivals: 1000,
		Multiplier:     1,
		Spawner:        experiment.SPAWNER_RANDOM,
	}, func(f TickFrame) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)
}

func TestRunExperimentUsesEvaluator(t *testing.T) {
	var got experiment.Config
	ss, err := NewSimulationService(zap.NewNop(), 1,
		func(ctx context.Context, cfg experiment.Config, log *zap.Logger) (*experiment.Report, error) {
			got = cfg
			return &experiment.Report{Config: cfg}, nil
		})
	require.NoError(t, err)

	cfg := experiment.DefaultConfig()
	cfg.Trials = 2
	report, err := ss.RunExperiment(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, cfg, report.Config)
}
