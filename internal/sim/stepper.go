package sim

import (
	"errors"

	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/strategy"
)

// LiveStepper walks a Comparison one hour at a time for display pacing.
// It reads precomputed records only; totals always come from the
// Comparison, never from what has been stepped so far.
type LiveStepper struct {
	cmp  *Comparison
	mode strategy.Kind
	next int
}

func NewLiveStepper(cmp *Comparison, mode strategy.Kind) (*LiveStepper, error) {
	if cmp == nil {
		return nil, errors.New("comparison is nil")
	}
	if _, err := cmp.Run(mode); err != nil {
		return nil, err
	}
	return &LiveStepper{cmp: cmp, mode: mode}, nil
}

// Next returns the record for the next hour, or false once the day is done.
func (s *LiveStepper) Next() (model.HourFlows, bool) {
	f, err := s.cmp.Live(s.mode, s.next)
	if err != nil {
		return model.HourFlows{}, false
	}
	s.next++
	return f, true
}

// SetMode switches the trace subsequent calls to Next read from. The hour
// position is kept.
func (s *LiveStepper) SetMode(mode strategy.Kind) error {
	if _, err := s.cmp.Run(mode); err != nil {
		return err
	}
	s.mode = mode
	return nil
}

func (s *LiveStepper) Mode() strategy.Kind { return s.mode }

// Hour is the hour the next call to Next will return.
func (s *LiveStepper) Hour() int { return s.next }

func (s *LiveStepper) Reset() { s.next = 0 }

// Totals are the full-day totals of the active mode.
func (s *LiveStepper) Totals() Totals {
	run, _ := s.cmp.Run(s.mode)
	return run.Totals
}
