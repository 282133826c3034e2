package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records simulation outcomes in Prometheus metrics.
type PromSink struct {
	simulations *prometheus.CounterVec
	dayCost     *prometheus.GaugeVec
	dayCo2      *prometheus.GaugeVec
	dieselKwh   *prometheus.GaugeVec
	unmetKwh    *prometheus.CounterVec
	savings     prometheus.Histogram
}

// NewPromSink registers simulation metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microgrid_day_simulations_total",
			Help: "Total number of simulated days per policy",
		}, []string{"policy"}),
		dayCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "microgrid_day_cost",
			Help: "Total cost of the most recent simulated day per policy",
		}, []string{"policy"}),
		dayCo2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "microgrid_day_co2_kg",
			Help: "Total CO2 of the most recent simulated day per policy",
		}, []string{"policy"}),
		dieselKwh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "microgrid_day_diesel_kwh",
			Help: "Diesel energy used in the most recent simulated day per policy",
		}, []string{"policy"}),
		unmetKwh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microgrid_unmet_load_kwh_total",
			Help: "Cumulative load that no source could serve",
		}, []string{"policy"}),
		savings: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "microgrid_comparison_cost_savings",
			Help:    "Baseline minus smart day cost per comparison",
			Buckets: []float64{-50, -10, 0, 10, 25, 50, 100, 200, 500},
		}),
	}

	var err error
	if s.simulations, err = register(reg, s.simulations); err != nil {
		return nil, err
	}
	if s.dayCost, err = register(reg, s.dayCost); err != nil {
		return nil, err
	}
	if s.dayCo2, err = register(reg, s.dayCo2); err != nil {
		return nil, err
	}
	if s.dieselKwh, err = register(reg, s.dieselKwh); err != nil {
		return nil, err
	}
	if s.unmetKwh, err = register(reg, s.unmetKwh); err != nil {
		return nil, err
	}
	if s.savings, err = register(reg, s.savings); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordDay(rec DayRecord) error {
	s.simulations.WithLabelValues(rec.Policy).Inc()
	s.dayCost.WithLabelValues(rec.Policy).Set(rec.Cost)
	s.dayCo2.WithLabelValues(rec.Policy).Set(rec.Co2Kg)
	s.dieselKwh.WithLabelValues(rec.Policy).Set(rec.DieselKwh)
	if rec.UnmetKwh > 0 {
		s.unmetKwh.WithLabelValues(rec.Policy).Add(rec.UnmetKwh)
	}
	return nil
}

func (s *PromSink) RecordComparison(rec ComparisonRecord) error {
	s.savings.Observe(rec.CostSavings)
	return nil
}
