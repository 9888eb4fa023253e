package vcd

import (
	"io"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/rtl"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

// Recorder traces an rtl.Controller. Attach it with rtl.WithProbe; every
// evaluation becomes one sample, Step time units after the previous one.
type Recorder struct {
	w    *Writer
	step uint64
	t    uint64
	err  error

	tck, tms, tdi, trst, tdo *Var
	state, ir, drLength      *Var
	drShiftOut               *Var
	irShift, drShift         *Var
}

// NewRecorder declares the TAP pins under scope "tap". Timestamps are in
// nanoseconds; step is the time between evaluations.
func NewRecorder(out io.Writer, step uint64) (*Recorder, error) {
	if step == 0 {
		step = 1
	}
	r := &Recorder{w: NewWriter(out, "1ns"), step: step}

	decls := []struct {
		v     **Var
		name  string
		width int
	}{
		{&r.tck, "tck", 1},
		{&r.tms, "tms", 1},
		{&r.tdi, "tdi", 1},
		{&r.trst, "trst_n", 1},
		{&r.tdo, "tdo", 1},
		{&r.state, "state", 4},
		{&r.ir, "ir_value", rtl.IRWidth},
		{&r.drLength, "dr_length", 7},
		{&r.drShiftOut, "dr_shift_out", 1},
		{&r.irShift, "ir_shift", 1},
		{&r.drShift, "dr_shift", 1},
	}
	for _, d := range decls {
		v, err := r.w.Declare("tap", d.name, d.width)
		if err != nil {
			return nil, err
		}
		*d.v = v
	}
	return r, nil
}

// Sample implements rtl.Probe. Write errors are kept and reported by Close.
func (r *Recorder) Sample(in rtl.Inputs, out rtl.Outputs, state tap.State) {
	if r.err != nil {
		return
	}
	r.w.Set(r.tck, uint64(in.TCK))
	r.w.Set(r.tms, uint64(in.TMS))
	r.w.Set(r.tdi, uint64(in.TDI))
	r.w.Set(r.trst, uint64(in.TRSTn))
	r.w.Set(r.tdo, uint64(out.TDO))
	r.w.Set(r.state, uint64(state))
	r.w.Set(r.ir, uint64(out.IRValue))
	r.w.Set(r.drLength, uint64(out.DRLength))
	r.w.Set(r.drShiftOut, uint64(out.DRShiftOut))
	r.w.Set(r.irShift, uint64(rtl.BitOf(out.IRShift)))
	r.w.Set(r.drShift, uint64(rtl.BitOf(out.DRShift)))

	r.err = r.w.Sample(r.t)
	r.t += r.step
}

// Samples returns how many evaluations were recorded.
func (r *Recorder) Samples() uint64 {
	return r.t / r.step
}

// Close flushes the trace and returns the first error seen.
func (r *Recorder) Close() error {
	if r.err != nil {
		return r.err
	}
	return r.w.Flush()
}
