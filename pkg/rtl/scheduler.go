package rtl

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// DefaultIterationLimit bounds every convergence loop of the scheduler.
const DefaultIterationLimit = 100

// ErrHalted is returned by every Eval after a convergence failure.
var ErrHalted = errors.New("rtl: simulation halted after convergence failure")

// Region names a scheduler loop.
type Region uint8

const (
	RegionInput  Region = iota // input combinational settle
	RegionActive               // trigger detection and staging
	RegionUpdate               // commit of staged values
)

func (r Region) String() string {
	switch r {
	case RegionInput:
		return "input"
	case RegionActive:
		return "active"
	case RegionUpdate:
		return "update"
	}
	return fmt.Sprintf("Region(%d)", uint8(r))
}

// ConvergenceError reports a loop that still had work pending after its
// permitted number of passes.
type ConvergenceError struct {
	Region     Region
	Triggers   Trigger
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("rtl: %s region did not converge after %d iterations (pending: %s)",
		e.Region, e.Iterations, e.Triggers)
}

// Design is the circuit evaluated by a Scheduler.
type Design interface {
	// Initialize runs once before the first evaluation. It samples the
	// edge-sensitive pins and settles the combinational outputs.
	Initialize()
	// Settle recomputes logic that depends only on inputs. first is set on
	// the forced first pass. It reports whether another pass is needed.
	Settle(first bool) bool
	// Detect returns the edges seen since the previous call.
	Detect() Trigger
	// Stage computes next register values for the fired edges, reading
	// only the committed values.
	Stage(t Trigger)
	// Commit publishes staged values and re-derives outputs.
	Commit(t Trigger)
}

// Scheduler runs the input, active and update regions of a Design until no
// edge is pending. It is not safe for concurrent use.
type Scheduler struct {
	limit       int
	log         *slog.Logger
	initialized bool
	halted      bool
}

// NewScheduler returns a scheduler allowing every loop at most limit
// passes that do work.
func NewScheduler(limit int, log *slog.Logger) *Scheduler {
	if limit < 1 {
		limit = DefaultIterationLimit
	}
	if log == nil {
		log = discardLogger()
	}
	return &Scheduler{limit: limit, log: log}
}

// Limit returns the per-loop iteration ceiling.
func (s *Scheduler) Limit() int { return s.limit }

// Halted reports whether a convergence failure stopped the scheduler.
func (s *Scheduler) Halted() bool { return s.halted }

// Reinitialize makes the next Eval repeat the power-on initialization.
func (s *Scheduler) Reinitialize() { s.initialized = false }

// Eval settles d for its current inputs. A *ConvergenceError is fatal: the
// scheduler refuses to run again and later calls return ErrHalted.
func (s *Scheduler) Eval(d Design) error {
	if s.halted {
		return errors.WithStack(ErrHalted)
	}
	if !s.initialized {
		d.Initialize()
		s.initialized = true
	}

	if err := s.settle(d); err != nil {
		return s.fail(err)
	}

	for pass := 1; ; pass++ {
		pending, err := s.active(d)
		if err != nil {
			return s.fail(err)
		}
		if pending == 0 {
			return nil
		}
		if pass > s.limit {
			return s.fail(&ConvergenceError{Region: RegionUpdate, Triggers: pending, Iterations: s.limit})
		}
		d.Commit(pending)
	}
}

func (s *Scheduler) settle(d Design) error {
	for pass := 1; ; pass++ {
		if !d.Settle(pass == 1) {
			return nil
		}
		if pass == s.limit {
			return &ConvergenceError{Region: RegionInput, Iterations: pass}
		}
	}
}

// active repeats trigger detection until no new edge fires and returns
// every edge seen.
func (s *Scheduler) active(d Design) (Trigger, error) {
	var pending Trigger
	for pass := 1; ; pass++ {
		t := d.Detect()
		if t == 0 {
			return pending, nil
		}
		pending |= t
		if pass > s.limit {
			return pending, &ConvergenceError{Region: RegionActive, Triggers: pending, Iterations: s.limit}
		}
		s.log.Debug("triggers fired", "triggers", t.String())
		d.Stage(t)
	}
}

func (s *Scheduler) fail(err error) error {
	s.halted = true
	s.log.Error("simulation halted", "err", err)
	return errors.WithStack(err)
}
