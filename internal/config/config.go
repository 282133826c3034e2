// Package config loads the simulation configuration. Defaults come first, then
// an optional YAML or JSON file, then MG_ environment overrides
// (MG_GRID__LIMIT_KW=7 sets grid.limit_kw).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"microgrid-dispatch/internal/dispatch"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/profile"
	"microgrid-dispatch/internal/sim"
	"microgrid-dispatch/internal/strategy"
	"microgrid-dispatch/internal/tariff"
)

// EnvPrefix marks environment variables that override file values.
const EnvPrefix = "MG_"

// Config is the on-disk configuration shape.
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, non-zero Battery fields override BatteryFile.
	BatteryFile string        `yaml:"battery_file"`
	Battery     BatteryConfig `yaml:"battery"`
	Tariff      TariffConfig  `yaml:"tariff"`
	Grid        GridConfig    `yaml:"grid"`
	Smart       SmartConfig   `yaml:"smart"`
	Profile     ProfileConfig `yaml:"profile"`
	Logging     LoggingConfig `yaml:"logging"`
	API         APIConfig     `yaml:"api"`

	// dir resolves relative file references.
	dir string
}

type TariffConfig struct {
	BasePrice  float64 `yaml:"base_price" json:"base_price"`
	PeakFactor float64 `yaml:"peak_factor" json:"peak_factor"`
	// PeakHours and PeakWindows ("18:00-22:00") are unioned. Both empty means 18-21.
	PeakHours   []int    `yaml:"peak_hours" json:"peak_hours"`
	PeakWindows []string `yaml:"peak_windows" json:"peak_windows"`
}

type GridConfig struct {
	LimitKw         float64 `yaml:"limit_kw" json:"limit_kw"`
	MinPeakKw       float64 `yaml:"min_peak_kw" json:"min_peak_kw"`
	DieselPrice     float64 `yaml:"diesel_price" json:"diesel_price"`
	DieselLimitKw   float64 `yaml:"diesel_limit_kw" json:"diesel_limit_kw"`
	Co2PerGridKwh   float64 `yaml:"co2_per_grid_kwh" json:"co2_per_grid_kwh"`
	Co2PerDieselKwh float64 `yaml:"co2_per_diesel_kwh" json:"co2_per_diesel_kwh"`
}

type SmartConfig struct {
	DeficitThresholdKwh float64 `yaml:"deficit_threshold_kwh" json:"deficit_threshold_kwh"`
	PriceGapThreshold   float64 `yaml:"price_gap_threshold" json:"price_gap_threshold"`
	PeakDeficitWeight   float64 `yaml:"peak_deficit_weight" json:"peak_deficit_weight"`
	DieselRiskWeight    float64 `yaml:"diesel_risk_weight" json:"diesel_risk_weight"`
	MaxTargetSocPct     float64 `yaml:"max_target_soc_pct" json:"max_target_soc_pct"`
}

type ProfileConfig struct {
	SolarCapacityKw float64   `yaml:"solar_capacity_kw" json:"solar_capacity_kw"`
	Weather         string    `yaml:"weather" json:"weather"`
	LoadProfile     string    `yaml:"load_profile" json:"load_profile"`
	LoadKw          []float64 `yaml:"load_kw" json:"load_kw"`
	LoadScale       float64   `yaml:"load_scale" json:"load_scale"`
	// SamplesFile replaces the synthetic profile with recorded hourly samples.
	// It is never read from request bodies.
	SamplesFile string `yaml:"samples_file" json:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type APIConfig struct {
	Addr           string        `yaml:"addr"`
	ResultTTL      time.Duration `yaml:"result_ttl"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	BatteryDir     string        `yaml:"battery_dir"`
	StreamInterval time.Duration `yaml:"stream_interval"`
}

func defaults() map[string]any {
	d := dispatch.DefaultParams()
	s := strategy.DefaultSmartParams()
	p := profile.DefaultOptions()
	return map[string]any{
		"tariff.base_price":           8.0,
		"tariff.peak_factor":          1.5,
		"grid.limit_kw":               d.GridLimitKw,
		"grid.min_peak_kw":            d.GridMinPeakKw,
		"grid.diesel_price":           d.DieselPrice,
		"grid.diesel_limit_kw":        d.DieselLimitKw,
		"grid.co2_per_grid_kwh":       d.Co2PerGridKwh,
		"grid.co2_per_diesel_kwh":     d.Co2PerDieselKwh,
		"smart.deficit_threshold_kwh": s.DeficitThresholdKwh,
		"smart.price_gap_threshold":   s.PriceGapThreshold,
		"smart.peak_deficit_weight":   s.PeakDeficitWeight,
		"smart.diesel_risk_weight":    s.DieselRiskWeight,
		"smart.max_target_soc_pct":    s.MaxTargetSocPct,
		"profile.solar_capacity_kw":   p.SolarCapacityKw,
		"profile.weather":             p.Weather,
		"profile.load_profile":        p.LoadProfile,
		"profile.load_scale":          p.LoadScale,
		"logging.level":               "info",
		"api.addr":                    ":8080",
		"api.result_ttl":              "1h",
		"api.battery_dir":             "examples/batteries",
		"api.stream_interval":         "500ms",
	}
}

// DefaultBattery is used for any battery field neither the battery file nor
// the config sets.
func DefaultBattery() BatteryConfig {
	return BatteryConfig{
		Name:                "home-10kwh",
		CapacityKwh:         10,
		InitialSocPct:       50,
		MinSocPct:           20,
		RoundTripEfficiency: 0.9,
		MaxChargeKw:         3,
		MaxDischargeKw:      3,
	}
}

// Load reads path (empty means defaults only), applies env overrides and validates.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var c Config
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, err
	}
	if path != "" {
		c.dir = filepath.Dir(path)
	}

	base := DefaultBattery()
	// If battery_file is set, load it and merge in any explicit overrides from c.Battery.
	if c.BatteryFile != "" {
		loaded, err := LoadBatteryFile(c.resolve(c.BatteryFile))
		if err != nil {
			return nil, err
		}
		base = MergeBattery(base, loaded)
	}
	c.Battery = MergeBattery(base, c.Battery)
	return &c, nil
}

// resolve prefers paths relative to the config file directory, but falls back
// to the provided path (relative to cwd) if that doesn't exist.
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	cand := filepath.Join(c.dir, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	sc, err := c.ToSim()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	if c.Profile.SamplesFile == "" {
		if _, err := profile.LoadCurve(c.ProfileOptions()); err != nil {
			return err
		}
		if _, err := profile.WeatherMultiplier(c.Profile.Weather); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Tariff.PeakHours = append([]int(nil), c.Tariff.PeakHours...)
	out.Tariff.PeakWindows = append([]string(nil), c.Tariff.PeakWindows...)
	out.Profile.LoadKw = append([]float64(nil), c.Profile.LoadKw...)
	out.API.CORSOrigins = append([]string(nil), c.API.CORSOrigins...)
	return &out
}

// BatteryDir is the preset directory, resolved like battery_file.
func (c *Config) BatteryDir() string {
	return c.resolve(c.API.BatteryDir)
}

// Schedule builds the tariff schedule.
func (c *Config) Schedule() (tariff.Schedule, error) {
	hours := append([]int(nil), c.Tariff.PeakHours...)
	if len(c.Tariff.PeakWindows) > 0 {
		fromWindows, err := tariff.HoursFromWindows(c.Tariff.PeakWindows)
		if err != nil {
			return tariff.Schedule{}, err
		}
		hours = append(hours, fromWindows...)
	}
	if len(hours) == 0 {
		hours = tariff.DefaultPeakHours
	}
	return tariff.NewSchedule(c.Tariff.BasePrice, c.Tariff.PeakFactor, hours)
}

// ToSim converts the file shape into the simulation config.
func (c *Config) ToSim() (sim.Config, error) {
	sched, err := c.Schedule()
	if err != nil {
		return sim.Config{}, err
	}
	smart := strategy.DefaultSmartParams()
	smart.DeficitThresholdKwh = c.Smart.DeficitThresholdKwh
	smart.PriceGapThreshold = c.Smart.PriceGapThreshold
	smart.PeakDeficitWeight = c.Smart.PeakDeficitWeight
	smart.DieselRiskWeight = c.Smart.DieselRiskWeight
	smart.MaxTargetSocPct = c.Smart.MaxTargetSocPct
	return sim.Config{
		Tariff: sched,
		Grid: dispatch.Params{
			GridLimitKw:     c.Grid.LimitKw,
			GridMinPeakKw:   c.Grid.MinPeakKw,
			DieselPrice:     c.Grid.DieselPrice,
			DieselLimitKw:   c.Grid.DieselLimitKw,
			Co2PerGridKwh:   c.Grid.Co2PerGridKwh,
			Co2PerDieselKwh: c.Grid.Co2PerDieselKwh,
		},
		Battery: c.Battery.ToModel(),
		Smart:   smart,
	}, nil
}

func (c *Config) ProfileOptions() profile.Options {
	return profile.Options{
		SolarCapacityKw: c.Profile.SolarCapacityKw,
		Weather:         c.Profile.Weather,
		LoadProfile:     c.Profile.LoadProfile,
		LoadKw:          c.Profile.LoadKw,
		LoadScale:       c.Profile.LoadScale,
	}
}

// Inputs builds the day's trace from recorded samples if configured, or from
// the synthetic profile otherwise.
func (c *Config) Inputs(sched tariff.Schedule) (model.DayInputs, error) {
	if c.Profile.SamplesFile != "" {
		s, err := profile.LoadSamplesJSON(c.resolve(c.Profile.SamplesFile))
		if err != nil {
			return nil, err
		}
		return s.Inputs(sched)
	}
	return profile.Build(c.ProfileOptions(), sched)
}
