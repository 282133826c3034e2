// Package dispatch allocates one hour of load across solar, battery, grid and
// diesel in a fixed priority order and prices the result.
package dispatch

import (
	"errors"
	"fmt"
	"math"

	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/strategy"
)

// ErrInvalidParams is returned when grid or diesel parameters are unusable.
var ErrInvalidParams = errors.New("invalid dispatch params")

// Params are the site-level constants shared by every policy.
type Params struct {
	// GridLimitKw caps grid import (load side) in any hour.
	GridLimitKw float64
	// GridMinPeakKw is the mandatory grid-to-load draw during peak hours. 0 disables it.
	GridMinPeakKw float64
	// DieselPrice is the cost per kWh of diesel generation.
	DieselPrice float64
	// DieselLimitKw caps diesel output. 0 means unlimited.
	DieselLimitKw float64

	Co2PerGridKwh   float64
	Co2PerDieselKwh float64
}

func DefaultParams() Params {
	return Params{
		GridLimitKw:     5,
		GridMinPeakKw:   0.5,
		DieselPrice:     25,
		Co2PerGridKwh:   0.82,
		Co2PerDieselKwh: 0.95,
	}
}

func (p Params) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"grid_limit_kw", p.GridLimitKw},
		{"grid_min_peak_kw", p.GridMinPeakKw},
		{"diesel_price", p.DieselPrice},
		{"diesel_limit_kw", p.DieselLimitKw},
		{"co2_per_grid_kwh", p.Co2PerGridKwh},
		{"co2_per_diesel_kwh", p.Co2PerDieselKwh},
	}
	for _, c := range checks {
		if c.v < 0 || math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return fmt.Errorf("%w: %s must be >= 0", ErrInvalidParams, c.name)
		}
	}
	if p.GridMinPeakKw > p.GridLimitKw {
		return fmt.Errorf("%w: grid_min_peak_kw exceeds grid_limit_kw", ErrInvalidParams)
	}
	return nil
}

// Hour dispatches a single hour and mutates b in place. Allocation order:
//
//  1. solar to load
//  2. surplus solar to battery, the rest curtailed
//  3. battery to load, if the policy allows discharge
//  4. grid to load, capped at GridLimitKw
//  5. peak-hour grid floor (GridMinPeakKw)
//  6. diesel for whatever load is still uncovered
//  7. grid to battery, if the policy allows it, bounded by GridLimitKw − gridToLoad
//     and by the charge rate solar did not already use
//
// b must not be nil. p is assumed to be validated.
func Hour(in model.HourInput, b *model.BatteryState, policy strategy.Policy, p Params) model.HourFlows {
	ctx := strategy.Context{Hour: in.Hour, Input: in, Battery: b}
	f := model.HourFlows{
		Hour:       in.Hour,
		SolarGenKw: in.SolarGenKw,
		LoadKw:     in.LoadKw,
		Tariff:     in.Tariff,
		IsPeak:     in.IsPeak,
	}

	solar := in.SolarGenKw
	load := in.LoadKw

	f.SolarToLoadKw = math.Min(solar, load)
	solar -= f.SolarToLoadKw
	load -= f.SolarToLoadKw

	if solar > 0 {
		f.SolarToBattKw = b.Charge(solar)
		f.CurtailedKw = solar - f.SolarToBattKw
	}

	if load > 0 && policy.AllowDischarge(ctx) {
		f.BattToLoadKw = b.DischargeToLoad(load)
		load -= f.BattToLoadKw
	}

	f.GridToLoadKw = math.Min(load, p.GridLimitKw)
	if in.IsPeak && f.GridToLoadKw < p.GridMinPeakKw {
		f.GridToLoadKw = math.Min(p.GridMinPeakKw, p.GridLimitKw)
	}

	remaining := math.Max(0, load-f.GridToLoadKw)
	f.DieselToLoadKw = remaining
	if p.DieselLimitKw > 0 && remaining > p.DieselLimitKw {
		f.DieselToLoadKw = p.DieselLimitKw
	}
	f.UnmetLoadKw = remaining - f.DieselToLoadKw

	if policy.AllowGridCharge(ctx) {
		headroom := math.Max(0, p.GridLimitKw-f.GridToLoadKw)
		// solar and grid charging together stay within MaxChargeKw for the hour
		rate := math.Max(0, b.MaxChargeKw-f.SolarToBattKw)
		want := math.Min(math.Max(0, policy.DesiredGridChargeKw(ctx)), math.Min(headroom, rate))
		if want > 0 {
			f.GridToBattKw = b.Charge(want)
		}
	}

	f.GridImportKw = f.GridToLoadKw + f.GridToBattKw
	f.Cost = f.GridImportKw*in.Tariff + f.DieselToLoadKw*p.DieselPrice
	f.Co2Kg = f.GridImportKw*p.Co2PerGridKwh + f.DieselToLoadKw*p.Co2PerDieselKwh

	f.SocKwh = b.SocKwh
	f.SocPct = b.SocPct()
	f.Action = model.ActionFromFlows(f.BatteryChargeKw(), f.BattToLoadKw)
	return f
}
