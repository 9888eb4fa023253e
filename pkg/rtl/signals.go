package rtl

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

// Bit is the value of a single-bit pin. Only 0 and 1 are legal; Eval rejects
// anything wider.
type Bit uint8

// BitOf converts a boolean level to a Bit.
func BitOf(v bool) Bit {
	if v {
		return 1
	}
	return 0
}

// Bool reports whether the bit is high.
func (b Bit) Bool() bool {
	return b != 0
}

// Inputs holds the level of every input pin of the controller.
type Inputs struct {
	TCK   Bit
	TMS   Bit
	TDI   Bit
	TRSTn Bit // active low
	// DRShiftIn is an auxiliary shift input. It is reserved and no logic
	// reads it; it is only width-checked.
	DRShiftIn     Bit
	DRCaptureData uint64
}

// Outputs holds the decoded output pins after the last evaluation.
type Outputs struct {
	TDO        Bit
	IRValue    uint8 // 5 bits
	IRCapture  bool
	IRShift    bool
	IRUpdate   bool
	DRCapture  bool
	DRShift    bool
	DRUpdate   bool
	DRLength   uint8 // 7 bits
	DRShiftOut Bit
}

// WidthError reports a pin assigned a value wider than its declared width.
type WidthError struct {
	Field string
	Value uint64
	Width uint
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("rtl: %s = %#x exceeds %d-bit width", e.Field, e.Value, e.Width)
}

// validate returns a WidthError for the first single-bit pin holding a value
// other than 0 or 1.
func (in Inputs) validate() error {
	pins := []struct {
		name string
		v    Bit
	}{
		{"tck", in.TCK},
		{"tms", in.TMS},
		{"tdi", in.TDI},
		{"trst_n", in.TRSTn},
		{"dr_shift_in", in.DRShiftIn},
	}
	for _, p := range pins {
		if p.v > 1 {
			return &WidthError{Field: p.name, Value: uint64(p.v), Width: 1}
		}
	}
	return nil
}

// decode derives the combinational outputs from a register bank.
func decode(r Registers, lengths *LengthTable) Outputs {
	return Outputs{
		TDO:        r.TDO,
		IRValue:    r.IRHold,
		IRCapture:  r.State == tap.StateCaptureIR,
		IRShift:    r.State == tap.StateShiftIR,
		IRUpdate:   r.State == tap.StateUpdateIR,
		DRCapture:  r.State == tap.StateCaptureDR,
		DRShift:    r.State == tap.StateShiftDR,
		DRUpdate:   r.State == tap.StateUpdateDR,
		DRLength:   lengths.Lookup(r.IRHold),
		DRShiftOut: r.shiftOut(),
	}
}
