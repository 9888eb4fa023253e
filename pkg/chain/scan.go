package chain

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

// ProgramInstructions loads the specified instruction into each device's IR.
// Devices not in the mapping are programmed with BYPASS. The TAP is left in
// Run-Test/Idle. The returned bits are the IR capture values, ordered like
// the devices.
func (c *Chain) ProgramInstructions(mapping map[*Device]string) ([]bool, error) {
	var stream []bool
	for _, dev := range c.devices {
		name := "BYPASS"
		if instr, ok := mapping[dev]; ok {
			name = instr
		}
		bits, err := dev.instructionBits(name)
		if err != nil {
			return nil, err
		}
		stream = append(stream, bits...)
	}
	if len(stream) == 0 {
		return nil, fmt.Errorf("chain: no devices to program")
	}
	return c.scanAt(tap.StateShiftIR, stream)
}

// ProgramInstruction loads the named instruction into dev and BYPASS into
// every other device.
func (c *Chain) ProgramInstruction(dev *Device, name string) ([]bool, error) {
	return c.ProgramInstructions(map[*Device]string{dev: name})
}

// ShiftDRBits shifts the provided bit pattern through the DR chain and returns
// the captured TDO bits. The chain must already hold the wanted instructions.
func (c *Chain) ShiftDRBits(bits []bool) ([]bool, error) {
	if len(bits) == 0 {
		return nil, fmt.Errorf("chain: empty DR pattern")
	}
	return c.scanAt(tap.StateShiftDR, bits)
}

// ShiftDR is ShiftDRBits for registers of up to 64 bits, LSB first.
func (c *Chain) ShiftDR(value uint64, length int) (uint64, error) {
	if length <= 0 || length > 64 {
		return 0, fmt.Errorf("chain: DR length %d out of range", length)
	}
	out, err := c.ShiftDRBits(uintToBits(value, length))
	if err != nil {
		return 0, err
	}
	return bitsToUint64(out), nil
}

// scanAt moves to the shift state, scans bits and parks the TAP in
// Run-Test/Idle.
func (c *Chain) scanAt(shift tap.State, bits []bool) ([]bool, error) {
	if err := c.xport.navigate(shift); err != nil {
		return nil, err
	}
	out, err := c.xport.scan(bits)
	if err != nil {
		return nil, err
	}
	if err := c.xport.navigate(tap.StateRunTestIdle); err != nil {
		return nil, err
	}
	return out, nil
}
