package rtl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

func newController(t testing.TB, opts ...Option) *Controller {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, c.Eval())
	return c
}

func clock(t testing.TB, c *Controller, tms, tdi Bit) Bit {
	t.Helper()
	tdo, err := c.Clock(tms, tdi)
	require.NoError(t, err)
	return tdo
}

func clockTMS(t testing.TB, c *Controller, bits ...Bit) {
	t.Helper()
	for _, b := range bits {
		clock(t, c, b, 0)
	}
}

// resetToIdle clocks Test-Logic-Reset and parks in Run-Test/Idle.
func resetToIdle(t testing.TB, c *Controller) {
	t.Helper()
	clockTMS(t, c, 1, 1, 1, 1, 1, 0)
	require.Equal(t, tap.StateRunTestIdle, c.State())
}

// goTo walks the controller to target along the shortest TMS path.
func goTo(t testing.TB, c *Controller, target tap.State) {
	t.Helper()
	seq, err := tap.Path(c.State(), target)
	require.NoError(t, err)
	for _, bit := range seq.TMS {
		clock(t, c, BitOf(bit), 0)
	}
	require.Equal(t, target, c.State())
}

// shiftIR loads instr from Run-Test/Idle and returns to Run-Test/Idle. It
// returns the bits presented on TDO during the shift, LSB first.
func shiftIR(t testing.TB, c *Controller, instr uint8) uint8 {
	t.Helper()
	clockTMS(t, c, 1, 1, 0, 0)
	require.Equal(t, tap.StateShiftIR, c.State())

	var out uint8
	for i := 0; i < IRWidth; i++ {
		last := BitOf(i == IRWidth-1)
		tdo := clock(t, c, last, Bit(instr>>i&1))
		out |= uint8(tdo) << i
	}
	clockTMS(t, c, 1, 0)
	require.Equal(t, tap.StateRunTestIdle, c.State())
	return out
}

// shiftDR captures and shifts n bits from Run-Test/Idle, returning what
// appeared on TDO.
func shiftDR(t testing.TB, c *Controller, n int, tdi uint64) uint64 {
	t.Helper()
	clockTMS(t, c, 1, 0, 0)
	require.Equal(t, tap.StateShiftDR, c.State())

	var out uint64
	for i := 0; i < n; i++ {
		last := BitOf(i == n-1)
		tdo := clock(t, c, last, Bit(tdi>>i&1))
		out |= uint64(tdo) << i
	}
	clockTMS(t, c, 1, 0)
	require.Equal(t, tap.StateRunTestIdle, c.State())
	return out
}
