package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"microgrid-dispatch/internal/analysis"
	"microgrid-dispatch/internal/api/models"
	"microgrid-dispatch/internal/profile"
)

// ListProfiles handles GET /api/v1/profiles
func ListProfiles(c *gin.Context) {
	weathers := profile.Weathers()
	catalog := models.ProfileCatalog{
		Weathers:     make([]models.WeatherInfo, 0, len(weathers)),
		LoadProfiles: profile.LoadProfiles(),
	}
	for _, w := range weathers {
		m, err := profile.WeatherMultiplier(w)
		if err != nil {
			continue
		}
		catalog.Weathers = append(catalog.Weathers, models.WeatherInfo{Name: w, Multiplier: m})
	}
	c.JSON(http.StatusOK, catalog)
}

// RankPresets handles GET /api/v1/rank. Every battery preset runs against the
// same day and the list comes back sorted by smart-over-baseline savings.
func (h *SimulationHandler) RankPresets(c *gin.Context) {
	var q models.RankQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	cfg := h.base.Clone()
	if q.Weather != "" {
		cfg.Profile.Weather = q.Weather
	}
	if q.LoadProfile != "" {
		cfg.Profile.LoadProfile = q.LoadProfile
		cfg.Profile.LoadKw = nil
	}
	if q.SolarCapacityKw > 0 {
		cfg.Profile.SolarCapacityKw = q.SolarCapacityKw
	}

	simCfg, err := cfg.ToSim()
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	inputs, err := cfg.Inputs(simCfg.Tariff)
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	presets, err := h.batteries.Presets()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "PRESETS_LOAD_ERROR", err)
		return
	}

	ranked, err := analysis.RankPresets(h.engine, inputs, simCfg, presets)
	if err != nil {
		writeSimulationError(c, err)
		return
	}
	if q.Limit > 0 && q.Limit < len(ranked) {
		ranked = ranked[:q.Limit]
	}
	c.JSON(http.StatusOK, models.RankResponse{Ranked: ranked})
}
