package rtl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

func TestFirstEvalSeesNoEdge(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	c.SetInputs(Inputs{TCK: 1, TRSTn: 1})
	require.NoError(t, c.Eval())

	assert.Zero(t, c.Stats().RisingEdges)
	assert.Zero(t, c.Stats().Commits)
	assert.Equal(t, tap.StateTestLogicReset, c.State())
	assert.Zero(t, c.Registers().IRHold, "no clock edge, so IDCODE is not selected yet")
}

func TestResetDominance(t *testing.T) {
	for _, state := range tap.States() {
		for _, tms := range []Bit{0, 1} {
			t.Run(state.String(), func(t *testing.T) {
				c := newController(t)
				resetToIdle(t, c)
				goTo(t, c, state)

				// Asserting TRST_N resets immediately, without a clock.
				in := c.Inputs()
				in.TRSTn = 0
				in.TMS = tms
				c.SetInputs(in)
				require.NoError(t, c.Eval())

				regs := c.Registers()
				assert.Equal(t, tap.StateTestLogicReset, regs.State)
				assert.Equal(t, InstrIDCode, regs.IRHold)
				assert.Equal(t, InstrBypass, regs.IRShift)

				// Clocking while TRST_N stays low keeps the controller in reset.
				clock(t, c, tms, 1)
				assert.Equal(t, tap.StateTestLogicReset, c.State())
				assert.Equal(t, InstrIDCode, c.Outputs().IRValue)
			})
		}
	}
}

func TestResetCoincidentWithRisingEdge(t *testing.T) {
	c := newController(t)
	resetToIdle(t, c)
	goTo(t, c, tap.StateShiftIR)

	in := c.Inputs()
	in.TCK = 1
	in.TRSTn = 0
	in.TMS = 0
	c.SetInputs(in)
	require.NoError(t, c.Eval())

	assert.Equal(t, tap.StateTestLogicReset, c.State())
	assert.Equal(t, InstrIDCode, c.Outputs().IRValue)
	assert.Equal(t, uint64(1), c.Stats().Resets)
}

func TestTransitionConformance(t *testing.T) {
	for _, state := range tap.States() {
		for _, tms := range []Bit{0, 1} {
			c := newController(t)
			resetToIdle(t, c)
			goTo(t, c, state)

			clock(t, c, tms, 0)
			want := tap.NextState(state, tms.Bool())
			require.Equal(t, want, c.State(), "from %s with tms=%d", state, tms)

			out := c.Outputs()
			assert.Equal(t, want == tap.StateCaptureIR, out.IRCapture)
			assert.Equal(t, want == tap.StateShiftIR, out.IRShift)
			assert.Equal(t, want == tap.StateUpdateIR, out.IRUpdate)
			assert.Equal(t, want == tap.StateCaptureDR, out.DRCapture)
			assert.Equal(t, want == tap.StateShiftDR, out.DRShift)
			assert.Equal(t, want == tap.StateUpdateDR, out.DRUpdate)
		}
	}
}

func TestIDCodeRoundTrip(t *testing.T) {
	c := newController(t)
	resetToIdle(t, c)

	out := c.Outputs()
	require.Equal(t, InstrIDCode, out.IRValue)
	require.Equal(t, uint8(32), out.DRLength)

	got := shiftDR(t, c, 32, 0)
	assert.Equal(t, uint64(0xFB010001), got)
}

func TestIDCodeCaptureKeepsUpperBits(t *testing.T) {
	c := newController(t, WithRandomInit(7))
	resetToIdle(t, c)
	before := c.Registers().DRShift

	clockTMS(t, c, 1, 0, 0) // capture into Shift-DR

	dr := c.Registers().DRShift
	assert.Equal(t, uint64(DefaultIDCode), dr&0xFFFFFFFF)
	assert.Equal(t, before>>32, dr>>32)
}

func TestCustomIDCode(t *testing.T) {
	c := newController(t, WithIDCode(0x4BA00477))
	resetToIdle(t, c)
	assert.Equal(t, uint64(0x4BA00477), shiftDR(t, c, 32, 0))
}

func TestIRCapturePattern(t *testing.T) {
	c := newController(t)
	resetToIdle(t, c)

	captured := shiftIR(t, c, InstrIDCode)
	assert.Equal(t, IRCapturePattern, captured)
}

func TestBypass(t *testing.T) {
	c := newController(t)
	resetToIdle(t, c)

	shiftIR(t, c, InstrBypass)
	out := c.Outputs()
	require.Equal(t, InstrBypass, out.IRValue)
	require.Equal(t, uint8(1), out.DRLength)

	clockTMS(t, c, 1, 0, 0)
	require.Equal(t, tap.StateShiftDR, c.State())
	assert.Equal(t, Bit(0), c.Outputs().DRShiftOut, "capture clears the bypass bit")

	pattern := []Bit{1, 0, 1, 1, 0, 0, 1, 0}
	prev := Bit(0)
	drBefore := c.Registers().DRShift
	for _, bit := range pattern {
		tdo := clock(t, c, 0, bit)
		assert.Equal(t, prev, tdo, "bypass delays TDI by one clock")
		assert.Equal(t, bit, c.Outputs().DRShiftOut)
		prev = bit
	}
	assert.Equal(t, drBefore, c.Registers().DRShift, "generic DR untouched in bypass")
}

func TestLengthTableConsistency(t *testing.T) {
	c := newController(t)
	resetToIdle(t, c)
	table := c.Lengths()

	// Alternate between opcodes so a stale length would be visible.
	for instr := uint8(0); instr <= IRMask; instr++ {
		shiftIR(t, c, instr)
		out := c.Outputs()
		require.Equal(t, instr, out.IRValue)
		require.Equal(t, table[instr], out.DRLength, "instruction %#02x", instr)
	}
}

func TestDefaultLengths(t *testing.T) {
	table := DefaultLengths()
	cases := map[uint8]uint8{
		InstrBypass:   1,
		InstrIDCode:   32,
		InstrMemRead:  64,
		InstrMemWrite: 64,
		InstrSigTap:   32,
		InstrStatus:   32,
		InstrCaps:     32,
		InstrDTMCS:    32,
		InstrDMI:      41,
		0x00:          1,
		0x05:          1,
		0x1E:          1,
	}
	for instr, want := range cases {
		assert.Equal(t, want, table.Lookup(instr), "instruction %#02x", instr)
	}
}

func TestCaptureDataShift(t *testing.T) {
	c := newController(t)
	resetToIdle(t, c)
	shiftIR(t, c, InstrMemRead)

	in := c.Inputs()
	in.DRCaptureData = 0x0123456789ABCDEF
	c.SetInputs(in)

	const pattern = 0xA5A5_0000_FFFF_1234
	got := shiftDR(t, c, 64, pattern)
	assert.Equal(t, uint64(0x0123456789ABCDEF), got)
	assert.Equal(t, uint64(pattern), c.Registers().DRShift)
}

func TestTDOOutsideShiftIsZero(t *testing.T) {
	c := newController(t, WithRandomInit(3))
	resetToIdle(t, c)

	for _, state := range []tap.State{tap.StateSelectDRScan, tap.StateCaptureDR, tap.StateExit1DR, tap.StatePauseDR, tap.StateUpdateDR} {
		goTo(t, c, state)
		assert.Equal(t, Bit(0), c.Outputs().TDO, "state %s", state)
	}
}

func TestStableStateIsIdempotent(t *testing.T) {
	c := newController(t, WithRandomInit(11))
	resetToIdle(t, c)
	shiftIR(t, c, InstrDMI)
	goTo(t, c, tap.StatePauseDR)

	regs, out, stats := c.Registers(), c.Outputs(), c.Stats()
	for i := 0; i < 10; i++ {
		require.NoError(t, c.Eval())
	}
	assert.Equal(t, regs, c.Registers())
	assert.Equal(t, out, c.Outputs())
	assert.Equal(t, stats.Commits, c.Stats().Commits)
	assert.Equal(t, stats.Evaluations+10, c.Stats().Evaluations)
}

func TestWidthErrorRejectsAssignment(t *testing.T) {
	c := newController(t)
	resetToIdle(t, c)
	regs, good := c.Registers(), c.Inputs()

	bad := good
	bad.TDI = 2
	c.SetInputs(bad)
	err := c.Eval()

	var werr *WidthError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "tdi", werr.Field)
	assert.Equal(t, uint64(2), werr.Value)
	assert.Equal(t, uint(1), werr.Width)

	assert.Equal(t, good, c.Inputs())
	assert.Equal(t, regs, c.Registers())
	require.NoError(t, c.Eval(), "a width error is not fatal")
}

func TestWidthErrorNamesEveryPin(t *testing.T) {
	cases := []struct {
		field string
		set   func(*Inputs)
	}{
		{"tck", func(in *Inputs) { in.TCK = 3 }},
		{"tms", func(in *Inputs) { in.TMS = 3 }},
		{"tdi", func(in *Inputs) { in.TDI = 3 }},
		{"trst_n", func(in *Inputs) { in.TRSTn = 3 }},
		{"dr_shift_in", func(in *Inputs) { in.DRShiftIn = 3 }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			c := newController(t)
			in := c.Inputs()
			tc.set(&in)
			c.SetInputs(in)

			var werr *WidthError
			require.ErrorAs(t, c.Eval(), &werr)
			assert.Equal(t, tc.field, werr.Field)
		})
	}
}

func TestRandomInitIsDeterministic(t *testing.T) {
	a := newController(t, WithRandomInit(42))
	b := newController(t, WithRandomInit(42))
	assert.Equal(t, a.Registers(), b.Registers())

	regs := a.Registers()
	resetToIdle(t, a)
	a.ResetToPowerOnDefaults()
	assert.Equal(t, regs.DRShift, a.Registers().DRShift)
	assert.Equal(t, regs.IRHold, a.Registers().IRHold)

	zero := newController(t)
	assert.Zero(t, zero.Registers().DRShift)
	assert.Zero(t, zero.Registers().IRHold)
}

func TestStatsCountEdges(t *testing.T) {
	c := newController(t)
	resetToIdle(t, c)

	s := c.Stats()
	assert.Equal(t, uint64(6), s.RisingEdges)
	assert.Equal(t, uint64(6), s.FallingEdges)
	assert.Equal(t, uint64(12), s.Commits)
	assert.Zero(t, s.Resets)
}

func TestOptionsValidation(t *testing.T) {
	_, err := New(WithIterationLimit(0))
	assert.Error(t, err)

	var bad LengthTable
	bad[3] = 200
	_, err = New(WithLengthTable(bad))
	var werr *WidthError
	assert.ErrorAs(t, err, &werr)

	_, err = New(WithDevice(nil))
	assert.Error(t, err)
}

func TestDefaultDeviceDescription(t *testing.T) {
	file, err := DefaultDevice()
	require.NoError(t, err)
	require.Equal(t, "OTTAP", file.Entity.Name)

	id, err := file.Entity.IDCode()
	require.NoError(t, err)
	assert.Equal(t, DefaultIDCode, id)

	table, err := LengthTableFromBSDL(file.Entity)
	require.NoError(t, err)
	assert.Equal(t, DefaultLengths(), table)

	c := newController(t, WithDevice(file.Entity))
	assert.Equal(t, DefaultIDCode, c.IDCode())
	assert.Equal(t, DefaultLengths(), c.Lengths())
}

func BenchmarkClockCycle(b *testing.B) {
	c := newController(b)
	resetToIdle(b, c)
	clockTMS(b, c, 1, 0, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Clock(0, Bit(i&1)); err != nil {
			b.Fatal(err)
		}
	}
}

type sampleLog struct {
	states []tap.State
	tck    []Bit
}

func (l *sampleLog) Sample(in Inputs, _ Outputs, state tap.State) {
	l.states = append(l.states, state)
	l.tck = append(l.tck, in.TCK)
}

func TestProbeSeesEveryEvaluation(t *testing.T) {
	log := &sampleLog{}
	c := newController(t, WithProbe(log))
	clockTMS(t, c, 0, 1)

	assert.Equal(t, []Bit{0, 1, 0, 1, 0}, log.tck)
	assert.Equal(t, []tap.State{
		tap.StateTestLogicReset,
		tap.StateRunTestIdle, tap.StateRunTestIdle,
		tap.StateSelectDRScan, tap.StateSelectDRScan,
	}, log.states)

	// Rejected assignments are not sampled.
	in := c.Inputs()
	in.TMS = 2
	c.SetInputs(in)
	require.Error(t, c.Eval())
	assert.Len(t, log.tck, 5)
}
