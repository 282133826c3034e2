// Package profile builds the 24-hour solar/load/tariff trace a simulated day
// runs on, either from synthetic shapes or from recorded samples.
package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/tariff"
)

// ErrInvalidProfile is returned when a profile cannot produce a valid day.
var ErrInvalidProfile = errors.New("invalid profile")

const (
	SunriseHour = 6
	SunsetHour  = 18
)

// Weather scales the clear-sky solar curve.
var weatherMultipliers = map[string]float64{
	"sunny":         1.0,
	"partly_cloudy": 0.7,
	"cloudy":        0.4,
	"rainy":         0.2,
}

// Hourly load shapes in kW.
var loadShapes = map[string][model.HoursPerDay]float64{
	"residential": {
		0.6, 0.5, 0.5, 0.5, 0.5, 0.7, 1.2, 1.8,
		1.6, 1.0, 0.9, 0.9, 1.0, 1.0, 0.9, 1.0,
		1.3, 1.9, 2.8, 3.2, 3.0, 2.4, 1.5, 0.9,
	},
	"evening_heavy": {
		1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5,
		1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5,
		1.5, 1.5, 7.0, 7.0, 7.0, 7.0, 1.5, 1.5,
	},
	"flat": {
		1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5,
		1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5,
		1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5,
	},
}

// Options describes a synthetic day.
type Options struct {
	SolarCapacityKw float64
	Weather         string
	// LoadProfile names a built-in shape. Ignored when LoadKw is set.
	LoadProfile string
	// LoadKw gives all 24 hourly loads explicitly.
	LoadKw []float64
	// LoadScale multiplies the load. 0 means 1.
	LoadScale float64
}

func DefaultOptions() Options {
	return Options{
		SolarCapacityKw: 5,
		Weather:         "sunny",
		LoadProfile:     "residential",
		LoadScale:       1,
	}
}

// Weathers lists the known weather presets, sorted.
func Weathers() []string { return sortedKeys(weatherMultipliers) }

// LoadProfiles lists the built-in load shapes, sorted.
func LoadProfiles() []string { return sortedKeys(loadShapes) }

// WeatherMultiplier returns the solar scale for a weather preset.
func WeatherMultiplier(weather string) (float64, error) {
	m, ok := weatherMultipliers[strings.ToLower(strings.TrimSpace(weather))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weather %q", ErrInvalidProfile, weather)
	}
	return m, nil
}

// SolarCurve is a half-sine between sunrise and sunset peaking at capacityKw.
func SolarCurve(capacityKw, multiplier float64) []float64 {
	out := make([]float64, model.HoursPerDay)
	for h := SunriseHour; h <= SunsetHour; h++ {
		x := float64(h-SunriseHour) / float64(SunsetHour-SunriseHour)
		out[h] = math.Max(0, capacityKw*multiplier*math.Sin(math.Pi*x))
	}
	return out
}

// LoadCurve resolves the hourly load for opts.
func LoadCurve(opts Options) ([]float64, error) {
	scale := opts.LoadScale
	if scale == 0 {
		scale = 1
	}
	if scale < 0 || math.IsNaN(scale) {
		return nil, fmt.Errorf("%w: load_scale must be > 0", ErrInvalidProfile)
	}

	var base []float64
	if len(opts.LoadKw) > 0 {
		if len(opts.LoadKw) != model.HoursPerDay {
			return nil, fmt.Errorf("%w: expected %d load values, got %d", ErrInvalidProfile, model.HoursPerDay, len(opts.LoadKw))
		}
		base = opts.LoadKw
	} else {
		shape, ok := loadShapes[strings.ToLower(strings.TrimSpace(opts.LoadProfile))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown load profile %q", ErrInvalidProfile, opts.LoadProfile)
		}
		base = shape[:]
	}

	out := make([]float64, model.HoursPerDay)
	for h, v := range base {
		out[h] = v * scale
	}
	return out, nil
}

// Build produces one day of inputs. Call it once per simulated day and hand
// the result to every policy.
func Build(opts Options, sched tariff.Schedule) (model.DayInputs, error) {
	if opts.SolarCapacityKw < 0 || math.IsNaN(opts.SolarCapacityKw) {
		return nil, fmt.Errorf("%w: solar_capacity_kw must be >= 0", ErrInvalidProfile)
	}
	mult, err := WeatherMultiplier(opts.Weather)
	if err != nil {
		return nil, err
	}
	load, err := LoadCurve(opts)
	if err != nil {
		return nil, err
	}
	return Attach(SolarCurve(opts.SolarCapacityKw, mult), load, sched)
}

// Attach zips hourly solar and load with the schedule's price and peak flag.
func Attach(solarKw, loadKw []float64, sched tariff.Schedule) (model.DayInputs, error) {
	if len(solarKw) != model.HoursPerDay || len(loadKw) != model.HoursPerDay {
		return nil, fmt.Errorf("%w: need %d solar and load values, got %d and %d",
			ErrInvalidProfile, model.HoursPerDay, len(solarKw), len(loadKw))
	}
	day := make(model.DayInputs, model.HoursPerDay)
	for h := range day {
		day[h] = model.HourInput{
			Hour:       h,
			SolarGenKw: solarKw[h],
			LoadKw:     loadKw[h],
			Tariff:     sched.Price(h),
			IsPeak:     sched.IsPeak(h),
		}
	}
	if err := day.Validate(); err != nil {
		return nil, err
	}
	return day, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
