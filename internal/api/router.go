// Package api wires the HTTP handlers onto a gin router.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"microgrid-dispatch/internal/api/handlers"
	"microgrid-dispatch/internal/api/middleware"
	"microgrid-dispatch/internal/config"
	"microgrid-dispatch/internal/logger"
	"microgrid-dispatch/internal/sim"
	"microgrid-dispatch/internal/store"
)

// Deps are the long-lived services the routes share.
type Deps struct {
	Engine  *sim.Engine
	Results *store.ResultStore
	Config  *config.Config
	Log     logger.Logger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the full route table.
func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = logger.NopLogger{}
	}

	router := gin.New()
	router.Use(middleware.CORS(d.Config.API.CORSOrigins))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	batteryHandler := handlers.NewBatteryHandler(d.Config.BatteryDir(), log)
	simulationHandler := handlers.NewSimulationHandler(d.Engine, d.Results, d.Config, batteryHandler, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/simulate", simulationHandler.Simulate)
		v1.GET("/simulations/:id", simulationHandler.GetSimulation)
		v1.GET("/simulations/:id/hourly", simulationHandler.GetTrace)
		v1.GET("/simulations/:id/live/:hour", simulationHandler.GetLive)
		v1.GET("/simulations/:id/stream", simulationHandler.Stream)

		v1.GET("/batteries", batteryHandler.ListBatteries)
		v1.GET("/policies", simulationHandler.ListPolicies)
		v1.GET("/profiles", handlers.ListProfiles)
		v1.GET("/rank", simulationHandler.RankPresets)
	}

	router.NoRoute(middleware.NotFound())
	return router
}
