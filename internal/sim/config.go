package sim

import (
	"fmt"
	"math"

	"microgrid-dispatch/internal/dispatch"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/strategy"
	"microgrid-dispatch/internal/tariff"
)

// Config is everything a day simulation needs besides the hourly trace.
type Config struct {
	Tariff  tariff.Schedule
	Grid    dispatch.Params
	Battery model.BatteryConfig
	Smart   strategy.SmartParams
}

// DefaultConfig is a 10 kWh / 3 kW home battery on the default tariff and grid.
func DefaultConfig() Config {
	sched, _ := tariff.NewSchedule(8, 1.5, tariff.DefaultPeakHours)
	return Config{
		Tariff: sched,
		Grid:   dispatch.DefaultParams(),
		Battery: model.BatteryConfig{
			CapacityKwh:         10,
			InitialSocPct:       50,
			MinSocPct:           20,
			RoundTripEfficiency: 0.9,
			MaxChargeKw:         3,
			MaxDischargeKw:      3,
		},
		Smart: strategy.DefaultSmartParams(),
	}
}

func (c Config) Validate() error {
	if err := c.Battery.Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid config invalid: %w", err)
	}
	if err := c.Smart.Validate(); err != nil {
		return fmt.Errorf("smart policy config invalid: %w", err)
	}
	return nil
}

// tariffTolerance absorbs float noise between an attached price and the schedule.
const tariffTolerance = 1e-9

// CheckInputs rejects a trace whose per-hour tariff or peak flag disagrees
// with c.Tariff. Policies read both, so they must describe the same day.
func (c Config) CheckInputs(inputs model.DayInputs) error {
	for _, in := range inputs {
		if want := c.Tariff.Price(in.Hour); math.Abs(in.Tariff-want) > tariffTolerance {
			return fmt.Errorf("%w: hour %d tariff %.4f does not match schedule price %.4f",
				model.ErrInvalidInput, in.Hour, in.Tariff, want)
		}
		if in.IsPeak != c.Tariff.IsPeak(in.Hour) {
			return fmt.Errorf("%w: hour %d is_peak %t does not match schedule", model.ErrInvalidInput, in.Hour, in.IsPeak)
		}
	}
	return nil
}
