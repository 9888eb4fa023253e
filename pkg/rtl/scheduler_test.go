package rtl

import (
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDesign replays fixed answers so each scheduler loop can be driven
// past its ceiling.
type scriptedDesign struct {
	settlePending bool
	// detect returns the trigger for the n-th Detect call (1-based).
	detect func(n int) Trigger

	inits, settles, detects, stages, commits int
}

func (d *scriptedDesign) Initialize() { d.inits++ }

func (d *scriptedDesign) Settle(first bool) bool {
	d.settles++
	return d.settlePending
}

func (d *scriptedDesign) Detect() Trigger {
	d.detects++
	if d.detect == nil {
		return 0
	}
	return d.detect(d.detects)
}

func (d *scriptedDesign) Stage(Trigger)  { d.stages++ }
func (d *scriptedDesign) Commit(Trigger) { d.commits++ }

func requireConvergence(t *testing.T, err error, region Region, limit int) *ConvergenceError {
	t.Helper()
	var cerr *ConvergenceError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, region, cerr.Region)
	assert.Equal(t, limit, cerr.Iterations)
	assert.Same(t, cerr, pkgerrors.Cause(err))
	return cerr
}

func TestSchedulerSingleEdge(t *testing.T) {
	d := &scriptedDesign{detect: func(n int) Trigger {
		if n == 1 {
			return TriggerPosedgeTCK
		}
		return 0
	}}
	s := NewScheduler(DefaultIterationLimit, nil)

	require.NoError(t, s.Eval(d))
	assert.Equal(t, 1, d.inits)
	assert.Equal(t, 1, d.settles)
	assert.Equal(t, 1, d.stages)
	assert.Equal(t, 1, d.commits)

	require.NoError(t, s.Eval(d))
	assert.Equal(t, 1, d.inits, "initialization runs once")
}

func TestSchedulerInputRegionBound(t *testing.T) {
	const limit = 7
	d := &scriptedDesign{settlePending: true}
	s := NewScheduler(limit, nil)

	requireConvergence(t, s.Eval(d), RegionInput, limit)
	assert.Equal(t, limit, d.settles)
	assert.Zero(t, d.detects)
}

func TestSchedulerActiveRegionBound(t *testing.T) {
	const limit = 5
	d := &scriptedDesign{detect: func(int) Trigger { return TriggerPosedgeTCK | TriggerNegedgeTRST }}
	s := NewScheduler(limit, nil)

	cerr := requireConvergence(t, s.Eval(d), RegionActive, limit)
	assert.Equal(t, TriggerPosedgeTCK|TriggerNegedgeTRST, cerr.Triggers)
	assert.Equal(t, limit, d.stages)
	assert.Zero(t, d.commits)
}

func TestSchedulerUpdateRegionBound(t *testing.T) {
	const limit = 4
	// Every commit produces a fresh edge, so the update loop never drains.
	d := &scriptedDesign{detect: func(n int) Trigger {
		if n%2 == 1 {
			return TriggerNegedgeTCK
		}
		return 0
	}}
	s := NewScheduler(limit, nil)

	cerr := requireConvergence(t, s.Eval(d), RegionUpdate, limit)
	assert.Equal(t, TriggerNegedgeTCK, cerr.Triggers)
	assert.Equal(t, limit, d.commits)
}

func TestSchedulerHaltsAfterFailure(t *testing.T) {
	d := &scriptedDesign{settlePending: true}
	s := NewScheduler(2, nil)

	require.Error(t, s.Eval(d))
	require.True(t, s.Halted())

	settles := d.settles
	err := s.Eval(d)
	require.ErrorIs(t, err, ErrHalted)
	assert.Equal(t, settles, d.settles, "a halted scheduler does no work")
}

func TestSchedulerDefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultIterationLimit, NewScheduler(0, nil).Limit())
	assert.Equal(t, 100, DefaultIterationLimit)
}

func TestControllerHaltsOnConvergenceFailure(t *testing.T) {
	c := newController(t)
	c.sched = NewScheduler(3, nil)
	c.sched.initialized = true

	d := &scriptedDesign{settlePending: true}
	requireConvergence(t, c.sched.Eval(d), RegionInput, 3)

	require.ErrorIs(t, c.Eval(), ErrHalted)
	_, err := c.Clock(1, 0)
	require.ErrorIs(t, err, ErrHalted)
}

func TestControllerRunsWithMinimalLimit(t *testing.T) {
	c := newController(t, WithIterationLimit(1))
	resetToIdle(t, c)
	assert.Equal(t, uint64(0xFB010001), shiftDR(t, c, 32, 0))
}

func TestConvergenceErrorMessage(t *testing.T) {
	err := &ConvergenceError{Region: RegionActive, Triggers: TriggerPosedgeTCK | TriggerNegedgeTCK, Iterations: 100}
	assert.Equal(t, "rtl: active region did not converge after 100 iterations (pending: posedge tck|negedge tck)", err.Error())
}
