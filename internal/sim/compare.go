package sim

import (
	"errors"
	"fmt"

	"microgrid-dispatch/internal/metrics"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/strategy"
)

// ErrHourOutOfRange is returned when a live lookup asks for an hour outside the day.
var ErrHourOutOfRange = errors.New("hour out of range")

// Delta is baseline minus smart. Positive values mean smart did better.
type Delta struct {
	Cost      float64 `json:"cost"`
	Co2Kg     float64 `json:"co2_kg"`
	GridKwh   float64 `json:"grid_kwh"`
	DieselKwh float64 `json:"diesel_kwh"`
}

// Comparison holds both policies' runs over the same trace.
type Comparison struct {
	Inputs   model.DayInputs     `json:"inputs"`
	Battery  model.BatteryConfig `json:"battery"`
	Baseline *DaySimulation      `json:"baseline"`
	Smart    *DaySimulation      `json:"smart"`
	Delta    Delta               `json:"delta"`
}

// Compare builds one forecast from inputs and runs Baseline and a fresh Smart
// policy over that forecast's trace, each from the same battery config.
func (e *Engine) Compare(inputs model.DayInputs, cfg Config) (*Comparison, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	forecast, err := strategy.NewForecast(inputs, cfg.Grid.GridLimitKw)
	if err != nil {
		return nil, err
	}
	day := forecast.Inputs()
	if err := cfg.CheckInputs(day); err != nil {
		return nil, err
	}
	smart, err := strategy.NewSmart(forecast, cfg.Tariff, cfg.Smart)
	if err != nil {
		return nil, err
	}

	base, err := e.SimulateDay(day, cfg, strategy.NewBaseline())
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	sm, err := e.SimulateDay(day, cfg, smart)
	if err != nil {
		return nil, fmt.Errorf("smart: %w", err)
	}

	c := &Comparison{
		Inputs:   day,
		Battery:  cfg.Battery,
		Baseline: base,
		Smart:    sm,
		Delta: Delta{
			Cost:      base.Totals.Cost - sm.Totals.Cost,
			Co2Kg:     base.Totals.Co2Kg - sm.Totals.Co2Kg,
			GridKwh:   base.Totals.GridKwh - sm.Totals.GridKwh,
			DieselKwh: base.Totals.DieselKwh - sm.Totals.DieselKwh,
		},
	}
	e.log.Infof("compared day: baseline cost %.2f, smart cost %.2f, savings %.2f",
		base.Totals.Cost, sm.Totals.Cost, c.Delta.Cost)
	if err := e.sink.RecordComparison(metrics.ComparisonRecord{
		CostSavings:  c.Delta.Cost,
		Co2SavingsKg: c.Delta.Co2Kg,
	}); err != nil {
		e.log.Warnf("record comparison metrics: %v", err)
	}
	return c, nil
}

// Run returns the precomputed simulation for mode.
func (c *Comparison) Run(mode strategy.Kind) (*DaySimulation, error) {
	switch mode {
	case strategy.KindBaseline:
		return c.Baseline, nil
	case strategy.KindSmart:
		return c.Smart, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", strategy.ErrInvalidParams, mode)
	}
}

// Live returns the precomputed record for hour from the trace matching mode.
func (c *Comparison) Live(mode strategy.Kind, hour int) (model.HourFlows, error) {
	run, err := c.Run(mode)
	if err != nil {
		return model.HourFlows{}, err
	}
	if hour < 0 || hour >= len(run.Hourly) {
		return model.HourFlows{}, fmt.Errorf("%w: %d", ErrHourOutOfRange, hour)
	}
	return run.Hourly[hour], nil
}
