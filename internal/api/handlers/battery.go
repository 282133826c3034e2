package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"microgrid-dispatch/internal/analysis"
	"microgrid-dispatch/internal/api/models"
	"microgrid-dispatch/internal/config"
	"microgrid-dispatch/internal/logger"
)

// BatteryHandler serves the battery presets found in one directory.
type BatteryHandler struct {
	batteryDir string
	log        logger.Logger
}

// NewBatteryHandler creates a new battery handler
func NewBatteryHandler(dir string, log logger.Logger) *BatteryHandler {
	if log == nil {
		log = logger.NopLogger{}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	log.Infof("using battery directory %s", dir)
	return &BatteryHandler{batteryDir: dir, log: log}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}
	presets, err := config.LoadBatteryDir(h.batteryDir)
	if err != nil {
		// An unreadable directory is an empty catalog, not a failed request.
		h.log.Warnf("read battery directory %s: %v", h.batteryDir, err)
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}
	for _, b := range presets {
		batteries = append(batteries, models.BatteryInfo{ID: b.Name, Name: b.Name, Specs: b})
	}
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

// Preset returns the preset whose name is id.
func (h *BatteryHandler) Preset(id string) (config.BatteryConfig, error) {
	presets, err := config.LoadBatteryDir(h.batteryDir)
	if err != nil {
		return config.BatteryConfig{}, err
	}
	for _, b := range presets {
		if b.Name == id {
			return b, nil
		}
	}
	return config.BatteryConfig{}, fmt.Errorf("%w: %q", ErrPresetNotFound, id)
}

// Presets returns every preset in the directory in ranking form.
func (h *BatteryHandler) Presets() ([]analysis.Preset, error) {
	presets, err := config.LoadBatteryDir(h.batteryDir)
	if err != nil {
		return nil, err
	}
	out := make([]analysis.Preset, len(presets))
	for i, b := range presets {
		out[i] = analysis.Preset{Name: b.Name, Battery: b.ToModel()}
	}
	return out, nil
}
