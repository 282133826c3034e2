package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"microgrid-dispatch/internal/api/models"
	"microgrid-dispatch/internal/dispatch"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/profile"
	"microgrid-dispatch/internal/sim"
	"microgrid-dispatch/internal/strategy"
	"microgrid-dispatch/internal/tariff"
)

// ErrPresetNotFound is returned when a request names an unknown battery preset.
var ErrPresetNotFound = errors.New("battery preset not found")

var configErrors = []error{
	model.ErrInvalidInput,
	model.ErrInvalidBattery,
	dispatch.ErrInvalidParams,
	strategy.ErrInvalidParams,
	tariff.ErrInvalidSchedule,
	profile.ErrInvalidProfile,
}

func abortWithError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

// writeSimulationError maps engine and config errors to a status and code.
func writeSimulationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPresetNotFound):
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", err)
	case errors.Is(err, sim.ErrHourOutOfRange):
		abortWithError(c, http.StatusBadRequest, "INVALID_HOUR", err)
	case isConfigError(err):
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
	default:
		abortWithError(c, http.StatusInternalServerError, "SIMULATION_ERROR", err)
	}
}

func isConfigError(err error) bool {
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// parseMode defaults to the smart trace.
func parseMode(raw string) (strategy.Kind, error) {
	if raw == "" {
		return strategy.KindSmart, nil
	}
	return strategy.ParseKind(raw)
}
