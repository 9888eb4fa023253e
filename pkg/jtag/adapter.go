package jtag

import (
	"errors"
	"fmt"
)

// AdapterInfo describes the backend behind an Adapter.
type AdapterInfo struct {
	Name         string
	Vendor       string
	Model        string
	Backend      string // "rtl" for the simulator
	MinFrequency int    // Hertz
	MaxFrequency int    // Hertz
	SupportsTRST bool
	Notes        string
}

// Adapter clocks bit sequences through a Test Access Port.
//
// Bit i of tms and tdi is bit i%8 of byte i/8. An empty buffer reads as all
// zeros. The returned TDO buffer is packed the same way. TMS alone moves the
// TAP; the IR/DR split only tells the backend which register the caller
// expects to be shifting.
type Adapter interface {
	Info() (AdapterInfo, error)
	ShiftIR(tms, tdi []byte, bits int) (tdo []byte, err error)
	ShiftDR(tms, tdi []byte, bits int) (tdo []byte, err error)
	ResetTAP(hard bool) error
	SetSpeed(hz int) error
}

// ErrUnsupported is returned by backends that lack a requested capability,
// for example a hard reset without a TRST_N line.
var ErrUnsupported = errors.New("jtag: operation not supported by adapter")

// ShiftRegion identifies whether a shift operation targets the instruction or
// data register.
type ShiftRegion uint8

const (
	ShiftRegionIR ShiftRegion = iota
	ShiftRegionDR
)

func (r ShiftRegion) String() string {
	if r == ShiftRegionIR {
		return "IR"
	}
	return "DR"
}

// ShiftOp records one shift request and its result.
type ShiftOp struct {
	Region ShiftRegion
	TMS    []byte
	TDI    []byte
	TDO    []byte
	Bits   int
}

// CheckShiftBuffers validates the buffers of a bits-long shift and returns
// the byte length of the TDO buffer.
func CheckShiftBuffers(tms, tdi []byte, bits int) (int, error) {
	if bits <= 0 {
		return 0, fmt.Errorf("jtag: shift length must be positive, got %d", bits)
	}
	required := (bits + 7) / 8
	if len(tms) > 0 && len(tms) < required {
		return 0, fmt.Errorf("jtag: tms holds %d bits, shift needs %d", len(tms)*8, bits)
	}
	if len(tdi) > 0 && len(tdi) < required {
		return 0, fmt.Errorf("jtag: tdi holds %d bits, shift needs %d", len(tdi)*8, bits)
	}
	return required, nil
}

// PackBits packs bits LSB first, the layout every Adapter expects.
func PackBits(bits []bool) []byte {
	if len(bits) == 0 {
		return nil
	}
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return out
}

// UnpackBits returns the first n bits of buf. Bits past the end of buf are
// false.
func UnpackBits(buf []byte, n int) []bool {
	if n <= 0 {
		return nil
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = BitAt(buf, i)
	}
	return out
}

// BitAt reads bit i of a packed buffer.
func BitAt(buf []byte, i int) bool {
	if i/8 >= len(buf) {
		return false
	}
	return buf[i/8]>>(uint(i)%8)&1 == 1
}
