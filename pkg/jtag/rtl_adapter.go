package jtag

import (
	"fmt"
	"sync"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/rtl"
)

// RTLAdapter drives an rtl.Controller one TCK cycle per bit. Bit i of the TMS
// and TDI buffers (LSB first within each byte) is applied to the pins, TDO is
// sampled, then TCK rises and falls. The region passed by the caller is only
// recorded; the controller follows whatever TMS sequence it is given.
type RTLAdapter struct {
	mu sync.Mutex

	ctrl    *rtl.Controller
	info    AdapterInfo
	speedHz int

	lastShift ShiftOp
	cycles    uint64
	resets    int
	hardReset int
}

// DefaultSimSpeed is the nominal TCK frequency reported by the simulator.
const DefaultSimSpeed = 50_000_000

// NewRTLAdapter wraps ctrl. The controller is evaluated once so its edge
// detector is primed before the first shift.
func NewRTLAdapter(ctrl *rtl.Controller) (*RTLAdapter, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("jtag: nil controller")
	}
	if err := ctrl.Eval(); err != nil {
		return nil, fmt.Errorf("jtag: prime controller: %w", err)
	}
	return &RTLAdapter{
		ctrl:    ctrl,
		speedHz: DefaultSimSpeed,
		info: AdapterInfo{
			Name:         "RTL simulator",
			Vendor:       "OpenTraceLab",
			Model:        "OTTAP",
			Backend:      "rtl",
			MinFrequency: 1,
			MaxFrequency: DefaultSimSpeed,
			SupportsTRST: true,
			Notes:        fmt.Sprintf("IDCODE 0x%08X, iteration limit %d", ctrl.IDCode(), ctrl.IterationLimit()),
		},
	}, nil
}

// Controller returns the simulated TAP.
func (a *RTLAdapter) Controller() *rtl.Controller {
	return a.ctrl
}

func (a *RTLAdapter) Info() (AdapterInfo, error) {
	return a.info, nil
}

func (a *RTLAdapter) ShiftIR(tms, tdi []byte, bits int) ([]byte, error) {
	return a.shift(ShiftRegionIR, tms, tdi, bits)
}

func (a *RTLAdapter) ShiftDR(tms, tdi []byte, bits int) ([]byte, error) {
	return a.shift(ShiftRegionDR, tms, tdi, bits)
}

// ResetTAP returns the controller to Test-Logic-Reset. A hard reset pulses
// TRST_N low for one evaluation; a soft reset clocks five cycles with TMS
// high.
func (a *RTLAdapter) ResetTAP(hard bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.resets++
	if !hard {
		for i := 0; i < 5; i++ {
			if _, err := a.ctrl.Clock(1, 0); err != nil {
				return fmt.Errorf("jtag: soft reset: %w", err)
			}
			a.cycles++
		}
		return nil
	}

	a.hardReset++
	in := a.ctrl.Inputs()
	in.TRSTn = 0
	a.ctrl.SetInputs(in)
	if err := a.ctrl.Eval(); err != nil {
		return fmt.Errorf("jtag: assert trst: %w", err)
	}
	in.TRSTn = 1
	a.ctrl.SetInputs(in)
	if err := a.ctrl.Eval(); err != nil {
		return fmt.Errorf("jtag: release trst: %w", err)
	}
	return nil
}

// SetSpeed records the requested TCK frequency. The simulation itself is
// untimed.
func (a *RTLAdapter) SetSpeed(hz int) error {
	if hz <= 0 || hz > a.info.MaxFrequency {
		return fmt.Errorf("jtag: invalid speed %dHz", hz)
	}
	a.mu.Lock()
	a.speedHz = hz
	a.mu.Unlock()
	return nil
}

// Speed returns the last frequency accepted by SetSpeed.
func (a *RTLAdapter) Speed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speedHz
}

// LastShift returns a copy of the most recent shift request.
func (a *RTLAdapter) LastShift() ShiftOp {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ShiftOp{
		Region: a.lastShift.Region,
		TMS:    append([]byte(nil), a.lastShift.TMS...),
		TDI:    append([]byte(nil), a.lastShift.TDI...),
		TDO:    append([]byte(nil), a.lastShift.TDO...),
		Bits:   a.lastShift.Bits,
	}
}

// ResetCounts reports how many resets have been requested (soft as total,
// hardReset as subset).
func (a *RTLAdapter) ResetCounts() (soft, hard int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resets, a.hardReset
}

// Cycles returns the number of TCK cycles clocked so far.
func (a *RTLAdapter) Cycles() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cycles
}

func (a *RTLAdapter) shift(region ShiftRegion, tms, tdi []byte, bits int) ([]byte, error) {
	required, err := CheckShiftBuffers(tms, tdi, bits)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tdo := make([]byte, required)
	for i := 0; i < bits; i++ {
		bit, err := a.ctrl.Clock(rtl.BitOf(BitAt(tms, i)), rtl.BitOf(BitAt(tdi, i)))
		if err != nil {
			return nil, fmt.Errorf("jtag: %s shift bit %d: %w", region, i, err)
		}
		a.cycles++
		if bit != 0 {
			tdo[i/8] |= 1 << (uint(i) % 8)
		}
	}

	a.lastShift = ShiftOp{
		Region: region,
		TMS:    append([]byte(nil), tms...),
		TDI:    append([]byte(nil), tdi...),
		TDO:    append([]byte(nil), tdo...),
		Bits:   bits,
	}
	return tdo, nil
}
