package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/navsim/pkg"
	da "github.com/lintang-b-s/navsim/pkg/datastructure"
	"github.com/lintang-b-s/navsim/pkg/experiment"
	helper "github.com/lintang-b-s/navsim/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/navsim/pkg/http/usecases"
	"go.uber.org/zap"
)

type simulationAPI struct {
	baseAPI
	simulationService SimulationService
	validator         *requestValidator
	maxStreamArrivals int
}

func New(simulationService SimulationService, maxStreamArrivals int, log *zap.Logger) *simulationAPI {
	return &simulationAPI{
		baseAPI:           baseAPI{log: log},
		simulationService: simulationService,
		validator:         newRequestValidator(),
		maxStreamArrivals: maxStreamArrivals,
	}
}

func (api *simulationAPI) Routes(group *helper.RouteGroup) {
	group.POST("/experiments", api.runExperiment)
	group.GET("/routes", api.route)
}

// WebsocketRoutes. registered outside of /api, the upgrade response is not json.
func (api *simulationAPI) WebsocketRoutes(group *helper.RouteGroup) {
	group.GET("/simulate", api.streamSimulation)
}

func (api *simulationAPI) runExperiment(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request experimentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, fmt.Errorf("invalid json body: %w", err))
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}

	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	cfg, err := request.toConfig()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	report, err := api.simulationService.RunExperiment(r.Context(), cfg)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := writeJSON(w, http.StatusOK, envelope{"data": NewExperimentResponse(report)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func parseUint(query url.Values, key string, def uint64) (uint64, error) {
	raw := query.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid unsigned int", key)
	}
	return v, nil
}

func parseInt(query url.Values, key string, def int, required bool) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%s is required", key)
		}
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid int", key)
	}
	return v, nil
}

func parseFloat(query url.Values, key string, def float64) (float64, error) {
	raw := query.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid float", key)
	}
	return v, nil
}

func (api *simulationAPI) route(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request routeRequest
		err     error
	)
	query := r.URL.Query()

	if request.Seed, err = parseUint(query, "seed", 1); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.NumJunctions, err = parseInt(query, "n", pkg.DEFAULT_NUM_JUNCTIONS, false); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.Source, err = parseInt(query, "source", 0, true); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.Destination, err = parseInt(query, "destination", 0, true); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	junctions, dist, path, err := api.simulationService.Route(request.Seed, request.NumJunctions,
		da.Index(request.Source), da.Index(request.Destination))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := writeJSON(w, http.StatusOK, envelope{"data": NewRouteResponse(junctions, dist, path)},
		headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *simulationAPI) parseStreamRequest(query url.Values) (streamRequest, error) {
	var (
		request streamRequest
		err     error
	)
	request.Strategy = query.Get("strategy")
	if request.Strategy == "" {
		request.Strategy = pkg.DECENTRALIZED.String()
	}
	request.Spawner = query.Get("spawner")
	if request.Spawner == "" {
		request.Spawner = experiment.SPAWNER_FIXED_PAIR
	}
	if request.Seed, err = parseUint(query, "seed", 1); err != nil {
		return request, err
	}
	if request.NumJunctions, err = parseInt(query, "n", pkg.DEFAULT_NUM_JUNCTIONS, false); err != nil {
		return request, err
	}
	if request.TargetArrivals, err = parseInt(query, "target", pkg.DEFAULT_TARGET_ARRIVALS, false); err != nil {
		return request, err
	}
	if request.CarsPerTick, err = parseInt(query, "cars_per_tick", pkg.CARS_PER_TICK_FIXED_PAIR, false); err != nil {
		return request, err
	}
	if request.Multiplier, err = parseFloat(query, "multiplier", pkg.TRAFFIC_MULTIPLIER); err != nil {
		return request, err
	}
	if err := api.validator.Struct(request); err != nil {
		return request, err
	}
	if request.TargetArrivals > api.maxStreamArrivals {
		return request, fmt.Errorf("target must be at most %d", api.maxStreamArrivals)
	}
	return request, nil
}

/*
streamSimulation. upgrades to a websocket and sends one {"data": frame} text message per tick until the target
number of cars arrived, then closes the connection. a failed run sends one {"error": ...} message before closing.
the client only has to read, anything it sends is discarded, a close frame stops the simulation.
*/
func (api *simulationAPI) streamSimulation(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	request, err := api.parseStreamRequest(r.URL.Query())
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	usecaseRequest, err := request.toUsecase()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()
	// the server write timeout would otherwise cut long simulations
	_ = conn.SetDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			h, err := ws.ReadHeader(conn)
			if err != nil || h.OpCode == ws.OpClose {
				return
			}
			if _, err := io.CopyN(io.Discard, conn, h.Length); err != nil {
				return
			}
		}
	}()

	api.log.Info("streaming simulation", zap.String("strategy", request.Strategy), zap.Uint64("seed", request.Seed),
		zap.Int("junctions", request.NumJunctions), zap.Int("target", request.TargetArrivals))

	err = api.simulationService.Stream(ctx, usecaseRequest, func(frame usecases.TickFrame) error {
		payload, err := json.Marshal(envelope{"data": frame})
		if err != nil {
			return err
		}
		return wsutil.WriteServerText(conn, payload)
	})

	closeCode, reason := ws.StatusNormalClosure, "done"
	if err != nil && !errors.Is(err, context.Canceled) {
		api.log.Error("simulation stream stopped", zap.Error(err))
		status := statusCode(err)
		payload, _ := json.Marshal(errorEnvelope(status, err.Error()))
		_ = wsutil.WriteServerText(conn, payload)
		closeCode, reason = ws.StatusInternalServerError, "simulation failed"
	}
	_ = wsutil.WriteServerMessage(conn, ws.OpClose, ws.NewCloseFrameBody(closeCode, reason))
}
