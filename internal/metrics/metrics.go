// Package metrics records simulation outcomes for observability.
package metrics

// DayRecord is one policy's day totals.
type DayRecord struct {
	Policy    string
	Cost      float64
	Co2Kg     float64
	GridKwh   float64
	DieselKwh float64
	UnmetKwh  float64
}

// ComparisonRecord is the baseline-minus-smart outcome of one compared day.
type ComparisonRecord struct {
	CostSavings  float64
	Co2SavingsKg float64
}

// Sink records simulation results.
type Sink interface {
	RecordDay(rec DayRecord) error
	RecordComparison(rec ComparisonRecord) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordDay(DayRecord) error               { return nil }
func (NopSink) RecordComparison(ComparisonRecord) error { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDay forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordDay(rec DayRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDay(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) RecordComparison(rec ComparisonRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordComparison(rec); err != nil {
			return err
		}
	}
	return nil
}
