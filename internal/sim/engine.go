// Package sim runs full-day dispatch simulations and compares policies on a
// shared hourly trace.
package sim

import (
	"errors"
	"fmt"

	"microgrid-dispatch/internal/dispatch"
	"microgrid-dispatch/internal/logger"
	"microgrid-dispatch/internal/metrics"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/strategy"
)

// Engine runs day simulations. It holds no simulation state between calls.
type Engine struct {
	log  logger.Logger
	sink metrics.Sink
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records every simulated day and comparison on sink.
func WithMetrics(sink metrics.Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

func New(log logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.NopLogger{}
	}
	e := &Engine{log: log, sink: metrics.NopSink{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SimulateDay dispatches inputs hour by hour under policy, threading one
// freshly built battery through all 24 hours. Identical arguments always
// produce an identical result.
func (e *Engine) SimulateDay(inputs model.DayInputs, cfg Config, policy strategy.Policy) (*DaySimulation, error) {
	if policy == nil {
		return nil, errors.New("policy is nil")
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckInputs(inputs); err != nil {
		return nil, err
	}
	batt, err := model.NewBatteryState(cfg.Battery)
	if err != nil {
		return nil, fmt.Errorf("battery config invalid: %w", err)
	}

	out := &DaySimulation{
		Policy: policy.Kind(),
		Hourly: make([]model.HourFlows, 0, len(inputs)),
	}
	for _, in := range inputs {
		f := dispatch.Hour(in, batt, policy, cfg.Grid)
		if f.UnmetLoadKw > 0 {
			e.log.Warnf("[%s] hour %d: %.3f kWh of load unmet (grid limit %.2f kW, diesel limit %.2f kW)",
				policy.Name(), f.Hour, f.UnmetLoadKw, cfg.Grid.GridLimitKw, cfg.Grid.DieselLimitKw)
		}
		out.Hourly = append(out.Hourly, f)
		out.Totals.add(f)
	}

	e.log.Debugw("day simulated", map[string]any{
		"policy":     policy.Name(),
		"cost":       out.Totals.Cost,
		"grid_kwh":   out.Totals.GridKwh,
		"diesel_kwh": out.Totals.DieselKwh,
	})
	if err := e.sink.RecordDay(metrics.DayRecord{
		Policy:    policy.Name(),
		Cost:      out.Totals.Cost,
		Co2Kg:     out.Totals.Co2Kg,
		GridKwh:   out.Totals.GridKwh,
		DieselKwh: out.Totals.DieselKwh,
		UnmetKwh:  out.Totals.UnmetKwh,
	}); err != nil {
		e.log.Warnf("record day metrics: %v", err)
	}
	return out, nil
}
