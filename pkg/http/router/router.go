package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/lintang-b-s/navsim/pkg/http/router/controllers"
	router_helper "github.com/lintang-b-s/navsim/pkg/http/router/routerhelper"
	http_server "github.com/lintang-b-s/navsim/pkg/http/server"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"
)

type RateLimit struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type API struct {
	log *zap.Logger
}

func NewAPI(log *zap.Logger) *API {
	return &API{log: log}
}

// Handler builds the router with its middleware chain.
func (api *API) Handler(rateLimit RateLimit, simulationService controllers.SimulationService,
	maxStreamArrivals int) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore
	})

	router.GET("/doc/*any", swaggerHandler)

	simulationRoutes := controllers.New(simulationService, maxStreamArrivals, api.log)
	simulationRoutes.Routes(router_helper.NewRouteGroup(router, "/api"))
	simulationRoutes.WebsocketRoutes(router_helper.NewRouteGroup(router, "/ws"))

	mwChain := []alice.Constructor{corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
		RealIP, Heartbeat("healthz"), Logger(api.log)}
	if rateLimit.Enabled {
		mwChain = append(mwChain, Limit(rate.NewLimiter(rate.Limit(rateLimit.RPS), rateLimit.Burst)))
	}
	return alice.New(mwChain...).Then(router)
}

//	@title			navsim API
//	@version		1.0
//	@description	Congestion aware routing simulator: batch experiments, zero traffic routes and live simulation streams.

//	@contact.name	Lintang Birda Saputra
//	@contact.url	_
//	@contact.email	lintang.birda.saputra@mail.ugm.ac.id

//	@license.name	BSD License
//	@license.url	https://opensource.org/license/bsd-2-clause

// @host		localhost
// @BasePath	/api
func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	rateLimit RateLimit,
	simulationService controllers.SimulationService,
	maxStreamArrivals int,
) error {
	api.log.Info("Run httprouter API")

	srv := http_server.New(ctx, api.Handler(rateLimit, simulationService, maxStreamArrivals), config, false)
	api.log.Info(fmt.Sprintf("API run on port %d", config.Port))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		api.log.Info("HTTP server stopped", zap.Error(err))
		return err
	case <-ctx.Done():
		api.log.Info("Context canceled, shutting down server")
		if err := srv.Shutdown(context.Background()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func swaggerHandler(res http.ResponseWriter, req *http.Request, p httprouter.Params) {
	httpSwagger.WrapHandler(res, req)
}
