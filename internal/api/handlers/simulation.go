package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"microgrid-dispatch/internal/analysis"
	"microgrid-dispatch/internal/api/models"
	"microgrid-dispatch/internal/config"
	"microgrid-dispatch/internal/logger"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/sim"
	"microgrid-dispatch/internal/store"
	"microgrid-dispatch/internal/strategy"
	"microgrid-dispatch/internal/tariff"
)

const defaultStreamInterval = 500 * time.Millisecond

// SimulationHandler runs baseline-vs-smart comparisons and serves stored results.
type SimulationHandler struct {
	engine    *sim.Engine
	results   *store.ResultStore
	base      *config.Config
	batteries *BatteryHandler
	log       logger.Logger

	streamInterval time.Duration
}

// NewSimulationHandler creates a new simulation handler. base supplies every
// value a request leaves out.
func NewSimulationHandler(engine *sim.Engine, results *store.ResultStore, base *config.Config,
	batteries *BatteryHandler, log logger.Logger) *SimulationHandler {
	if log == nil {
		log = logger.NopLogger{}
	}
	interval := base.API.StreamInterval
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	return &SimulationHandler{
		engine:         engine,
		results:        results,
		base:           base,
		batteries:      batteries,
		log:            log,
		streamInterval: interval,
	}
}

// requestKey is everything that determines a comparison's outcome.
type requestKey struct {
	Inputs     model.DayInputs     `json:"inputs"`
	BasePrice  float64             `json:"base_price"`
	PeakFactor float64             `json:"peak_factor"`
	Battery    model.BatteryConfig `json:"battery"`
	Grid       config.GridConfig   `json:"grid"`
	Smart      config.SmartConfig  `json:"smart"`
}

// Simulate handles POST /api/v1/simulate
func (h *SimulationHandler) Simulate(c *gin.Context) {
	req := models.NewSimulateRequest(h.base)
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	cfg, err := h.buildConfig(req)
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	simCfg, err := cfg.ToSim()
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	inputs, err := h.buildInputs(cfg, req, simCfg.Tariff)
	if err != nil {
		writeSimulationError(c, err)
		return
	}

	key, err := store.KeyFor(requestKey{
		Inputs:     inputs,
		BasePrice:  cfg.Tariff.BasePrice,
		PeakFactor: cfg.Tariff.PeakFactor,
		Battery:    simCfg.Battery,
		Grid:       cfg.Grid,
		Smart:      cfg.Smart,
	})
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	if e, ok := h.results.Lookup(key); ok {
		h.log.Debugf("simulation %s served from store", e.ID)
		c.JSON(http.StatusOK, h.response(e, req.Options.IncludeHourly))
		return
	}

	cmp, err := h.engine.Compare(inputs, simCfg)
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	e := h.results.Put(key, cmp)
	h.log.Infof("simulation %s stored (battery %s, savings %.2f)", e.ID, cfg.Battery.Name, cmp.Delta.Cost)
	c.JSON(http.StatusOK, h.response(e, req.Options.IncludeHourly))
}

// buildConfig applies the request on top of a copy of the server config.
func (h *SimulationHandler) buildConfig(req models.SimulateRequest) (*config.Config, error) {
	cfg := h.base.Clone()
	cfg.Tariff = req.Tariff
	cfg.Grid = req.Grid
	cfg.Smart = req.Smart
	samplesFile := cfg.Profile.SamplesFile
	cfg.Profile = req.Profile
	cfg.Profile.SamplesFile = samplesFile

	battery := cfg.Battery
	if req.BatteryPreset != "" {
		preset, err := h.batteries.Preset(req.BatteryPreset)
		if err != nil {
			return nil, err
		}
		battery = preset
	}
	cfg.Battery = config.MergeBattery(battery, req.Battery)
	return cfg, nil
}

// buildInputs prefers inline samples over whatever the config would produce.
func (h *SimulationHandler) buildInputs(cfg *config.Config, req models.SimulateRequest, sched tariff.Schedule) (model.DayInputs, error) {
	if req.Samples != nil {
		return req.Samples.Inputs(sched)
	}
	return cfg.Inputs(sched)
}

func (h *SimulationHandler) response(e *store.Entry, includeHourly bool) models.SimulationResponse {
	cmp := e.Comparison
	resp := models.SimulationResponse{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
		Summary:   analysis.SummarizeComparison(cmp, cmp.Battery.CapacityKwh),
		Baseline:  cmp.Baseline.Totals,
		Smart:     cmp.Smart.Totals,
		Delta:     cmp.Delta,
	}
	if includeHourly {
		resp.Hourly = &models.HourlyTraces{
			Baseline: cmp.Baseline.Hourly,
			Smart:    cmp.Smart.Hourly,
		}
	}
	return resp
}

// lookup resolves the :id path parameter or answers 404.
func (h *SimulationHandler) lookup(c *gin.Context) (*store.Entry, bool) {
	id := c.Param("id")
	e, ok := h.results.Get(id)
	if !ok {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", fmt.Errorf("simulation %s not found or expired", id))
		return nil, false
	}
	return e, true
}

// GetSimulation handles GET /api/v1/simulations/:id
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	e, ok := h.lookup(c)
	if !ok {
		return
	}
	include, _ := strconv.ParseBool(c.Query("include_hourly"))
	c.JSON(http.StatusOK, h.response(e, include))
}

// GetTrace handles GET /api/v1/simulations/:id/hourly
func (h *SimulationHandler) GetTrace(c *gin.Context) {
	e, ok := h.lookup(c)
	if !ok {
		return
	}
	var q models.TraceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	mode, err := parseMode(q.Mode)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_MODE", err)
		return
	}
	run, err := e.Comparison.Run(mode)
	if err != nil {
		writeSimulationError(c, err)
		return
	}

	switch q.Format {
	case "", "json":
		c.JSON(http.StatusOK, models.TraceResponse{
			ID:     e.ID,
			Mode:   mode.String(),
			Hours:  run.Hourly,
			Totals: run.Totals,
		})
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-%s.csv", e.ID, mode))
		c.Status(http.StatusOK)
		if err := sim.WriteHourly(c.Writer, run.Hourly); err != nil {
			h.log.Errorf("write csv for %s: %v", e.ID, err)
		}
	default:
		abortWithError(c, http.StatusBadRequest, "INVALID_FORMAT", fmt.Errorf("unknown format %q", q.Format))
	}
}

// GetLive handles GET /api/v1/simulations/:id/live/:hour
func (h *SimulationHandler) GetLive(c *gin.Context) {
	e, ok := h.lookup(c)
	if !ok {
		return
	}
	hour, err := strconv.Atoi(c.Param("hour"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_HOUR", errors.New("hour must be an integer"))
		return
	}
	mode, err := parseMode(c.Query("mode"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_MODE", err)
		return
	}
	f, err := e.Comparison.Live(mode, hour)
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LiveResponse{ID: e.ID, Mode: mode.String(), Hour: f})
}

// ListPolicies handles GET /api/v1/policies
func (h *SimulationHandler) ListPolicies(c *gin.Context) {
	sched, err := h.base.Schedule()
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	s := h.base.Smart
	policies := []models.PolicyInfo{
		{
			Name:        strategy.KindBaseline.String(),
			Description: "Greedy dispatch. Solar first, then the battery whenever load is uncovered, then grid, then diesel. Never charges from the grid.",
			Parameters:  []models.ParameterInfo{},
		},
		{
			Name:        strategy.KindSmart.String(),
			Description: "Tariff-aware dispatch over a day-ahead forecast. Holds the battery for peak hours and pre-charges from the grid off-peak when the day has a deficit.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "deficit_threshold_kwh",
					Type:        "float",
					Description: "Day-level deficit below which the policy never grid-charges",
					Default:     s.DeficitThresholdKwh,
				},
				{
					Name:        "price_gap_threshold",
					Type:        "float",
					Description: "Minimum peak-minus-current tariff gap worth arbitraging",
					Default:     s.PriceGapThreshold,
				},
				{
					Name:        "peak_deficit_weight",
					Type:        "float",
					Description: "Weight of the remaining peak-hour deficit in the SOC target",
					Default:     s.PeakDeficitWeight,
				},
				{
					Name:        "diesel_risk_weight",
					Type:        "float",
					Description: "Weight of the remaining above-grid-limit peak deficit in the SOC target",
					Default:     s.DieselRiskWeight,
				},
				{
					Name:        "max_target_soc_pct",
					Type:        "float",
					Description: "Cap on the SOC target, percent of capacity",
					Default:     s.MaxTargetSocPct,
				},
			},
		},
	}
	c.JSON(http.StatusOK, models.PolicyCatalog{
		Policies: policies,
		Tariff: models.TariffInfo{
			BasePrice:  sched.BasePrice(),
			PeakFactor: sched.PeakFactor(),
			PeakPrice:  sched.PeakPrice(),
			PeakHours:  sched.PeakHours(),
		},
	})
}
