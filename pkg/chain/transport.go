package chain

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/jtag"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

// transport keeps a driver-side copy of the TAP state in step with every TMS
// bit sent through the adapter.
type transport struct {
	adapter jtag.Adapter
	tap     *tap.StateMachine
}

func newTransport(adapter jtag.Adapter) *transport {
	return &transport{adapter: adapter, tap: tap.NewStateMachine()}
}

// reset pulses TRST_N where the adapter has one, then clocks the TMS-high
// sequence, which also resynchronises the state copy.
func (t *transport) reset() error {
	if err := t.adapter.ResetTAP(true); err != nil && !errors.Is(err, jtag.ErrUnsupported) {
		return fmt.Errorf("chain: reset: %w", err)
	}
	seq := t.tap.Reset()
	_, err := t.send(jtag.ShiftRegionDR, seq.TMS, nil)
	return err
}

// navigate walks the shortest TMS path to target.
func (t *transport) navigate(target tap.State) error {
	from := t.tap.State()
	seq, err := t.tap.GoTo(target)
	if err != nil {
		return err
	}
	_, err = t.send(regionOf(from), seq.TMS, nil)
	return err
}

// scan shifts tdi through the register of the current shift state, raising
// TMS on the last bit, and returns the bits seen on TDO.
func (t *transport) scan(tdi []bool) ([]bool, error) {
	state := t.tap.State()
	if state != tap.StateShiftIR && state != tap.StateShiftDR {
		return nil, fmt.Errorf("chain: scan requested in %s", state)
	}
	if len(tdi) == 0 {
		return nil, fmt.Errorf("chain: empty scan")
	}

	tms := make([]bool, len(tdi))
	tms[len(tms)-1] = true
	for _, bit := range tms {
		t.tap.Clock(bit)
	}
	tdo, err := t.send(regionOf(state), tms, tdi)
	if err != nil {
		return nil, err
	}
	return jtag.UnpackBits(tdo, len(tdi)), nil
}

func (t *transport) send(region jtag.ShiftRegion, tms, tdi []bool) ([]byte, error) {
	if len(tms) == 0 {
		return nil, nil
	}
	tmsBytes := jtag.PackBits(tms)
	tdiBytes := jtag.PackBits(tdi)
	if tdiBytes == nil {
		tdiBytes = make([]byte, len(tmsBytes))
	}
	if region == jtag.ShiftRegionIR {
		return t.adapter.ShiftIR(tmsBytes, tdiBytes, len(tms))
	}
	return t.adapter.ShiftDR(tmsBytes, tdiBytes, len(tms))
}

func regionOf(state tap.State) jtag.ShiftRegion {
	if state.IsIR() {
		return jtag.ShiftRegionIR
	}
	return jtag.ShiftRegionDR
}
