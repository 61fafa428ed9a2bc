package controllers

import (
	"github.com/lintang-b-s/navsim/pkg"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/experiment"
	"github.com/lintang-b-s/navsim/pkg/http/usecases"
)

type experimentRequest struct {
	Strategies     []string `json:"strategies" validate:"required,min=1,dive,oneof=naive fixed fixed_route decentralized dynamic centralized"`
	Trials         int      `json:"trials" validate:"required,gte=1,lte=100"`
	TargetArrivals int      `json:"target_arrivals" validate:"required,gte=1,lte=1000"`
	NumJunctions   int      `json:"num_junctions" validate:"required,gte=7,lte=500"`
	Multiplier     *float64 `json:"multiplier" validate:"omitempty,gte=0"`
	Seed           uint64   `json:"seed"`
	Spawner        string   `json:"spawner" validate:"omitempty,oneof=fixed_pair random"`
	CarsPerTick    int      `json:"cars_per_tick" validate:"gte=0,lte=100"`
	Workers        int      `json:"workers" validate:"gte=0,lte=16"`
}

// toConfig request fields on top of the default experiment.
func (req experimentRequest) toConfig() (experiment.Config, error) {
	cfg := experiment.DefaultConfig()
	cfg.Strategies = make([]pkg.Strategy, 0, len(req.Strategies))
	for _, name := range req.Strategies {
		s, err := pkg.ParseStrategy(name)
		if err != nil {
			return cfg, err
		}
		cfg.Strategies = append(cfg.Strategies, s)
	}
	cfg.Trials = req.Trials
	cfg.TargetArrivals = req.TargetArrivals
	cfg.NumJunctions = req.NumJunctions
	if req.Multiplier != nil {
		cfg.Multiplier = *req.Multiplier
	}
	cfg.Seed = req.Seed
	if req.Spawner != "" {
		cfg.Spawner = req.Spawner
	}
	if req.CarsPerTick > 0 {
		cfg.CarsPerTick = req.CarsPerTick
	}
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}
	return cfg, nil
}

type experimentResponse struct {
	Results []experiment.StrategyResult `json:"results"`
}

func NewExperimentResponse(report *experiment.Report) experimentResponse {
	return experimentResponse{Results: report.Results}
}

type routeRequest struct {
	Seed         uint64 `json:"seed"`
	NumJunctions int    `json:"n" validate:"required,gte=7,lte=5000"`
	Source       int    `json:"source" validate:"gte=0"`
	Destination  int    `json:"destination" validate:"gte=0,nefield=Source"`
}

type routeResponse struct {
	Junctions []da.Index `json:"junctions"`
	Distance  float64    `json:"distance"`
	Path      string     `json:"path"`
}

func NewRouteResponse(junctions []da.Index, distance float64, path string) routeResponse {
	return routeResponse{
		Junctions: junctions,
		Distance:  distance,
		Path:      path,
	}
}

type streamRequest struct {
	Strategy       string  `validate:"required,oneof=naive fixed fixed_route decentralized dynamic centralized"`
	Seed           uint64
	NumJunctions   int     `validate:"required,gte=7,lte=500"`
	TargetArrivals int     `validate:"required,gte=1"`
	Multiplier     float64 `validate:"gte=0"`
	Spawner        string  `validate:"oneof=fixed_pair random"`
	CarsPerTick    int     `validate:"gte=0,lte=100"`
}

func (req streamRequest) toUsecase() (usecases.StreamRequest, error) {
	s, err := pkg.ParseStrategy(req.Strategy)
	if err != nil {
		return usecases.StreamRequest{}, err
	}
	return usecases.StreamRequest{
		Strategy:       s,
		Seed:           req.Seed,
		NumJunctions:   req.NumJunctions,
		TargetArrivals: req.TargetArrivals,
		Multiplier:     req.Multiplier,
		Spawner:        req.Spawner,
		CarsPerTick:    req.CarsPerTick,
	}, nil
}
