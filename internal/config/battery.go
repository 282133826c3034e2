package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"microgrid-dispatch/internal/model"
)

type BatteryConfig struct {
	Name                string  `yaml:"name" json:"name"`
	CapacityKwh         float64 `yaml:"capacity_kwh" json:"capacity_kwh"`
	InitialSocPct       float64 `yaml:"initial_soc_pct" json:"initial_soc_pct"`
	MinSocPct           float64 `yaml:"min_soc_pct" json:"min_soc_pct"`
	RoundTripEfficiency float64 `yaml:"round_trip_efficiency" json:"round_trip_efficiency"`
	MaxChargeKw         float64 `yaml:"max_charge_kw" json:"max_charge_kw"`
	MaxDischargeKw      float64 `yaml:"max_discharge_kw" json:"max_discharge_kw"`
}

func (b BatteryConfig) ToModel() model.BatteryConfig {
	return model.BatteryConfig{
		CapacityKwh:         b.CapacityKwh,
		InitialSocPct:       b.InitialSocPct,
		MinSocPct:           b.MinSocPct,
		RoundTripEfficiency: b.RoundTripEfficiency,
		MaxChargeKw:         b.MaxChargeKw,
		MaxDischargeKw:      b.MaxDischargeKw,
	}
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

// LoadBatteryFile reads a preset file of the form `battery: {...}`.
// A missing name defaults to the file name without extension.
func LoadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	if w.Battery.Name == "" {
		w.Battery.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return w.Battery, nil
}

// LoadBatteryDir reads every *.yaml / *.yml preset in dir, sorted by name.
// Missing fields are filled from DefaultBattery.
func LoadBatteryDir(dir string) ([]BatteryConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []BatteryConfig
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		b, err := LoadBatteryFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, MergeBattery(DefaultBattery(), b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MergeBattery overlays non-zero fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityKwh != 0 {
		out.CapacityKwh = override.CapacityKwh
	}
	// Note: the SOC percentages may legitimately be 0, which cannot be told
	// apart from "unset" here; a 0% floor has to come from the base.
	if override.InitialSocPct != 0 {
		out.InitialSocPct = override.InitialSocPct
	}
	if override.MinSocPct != 0 {
		out.MinSocPct = override.MinSocPct
	}
	if override.RoundTripEfficiency != 0 {
		out.RoundTripEfficiency = override.RoundTripEfficiency
	}
	if override.MaxChargeKw != 0 {
		out.MaxChargeKw = override.MaxChargeKw
	}
	if override.MaxDischargeKw != 0 {
		out.MaxDischargeKw = override.MaxDischargeKw
	}
	return out
}
