package rtl

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
)

// Instruction register geometry.
const (
	IRWidth = 5
	IRMask  = 1<<IRWidth - 1

	// MaxDRLength is the largest length the 7-bit dr_length output can carry.
	MaxDRLength = 127
)

// Instruction opcodes understood by the controller.
const (
	InstrIDCode   uint8 = 0x01
	InstrMemRead  uint8 = 0x02
	InstrMemWrite uint8 = 0x03
	InstrSigTap   uint8 = 0x04
	InstrStatus   uint8 = 0x07
	InstrCaps     uint8 = 0x08
	InstrDTMCS    uint8 = 0x10
	InstrDMI      uint8 = 0x11
	InstrBypass   uint8 = 0x1F
)

// IRCapturePattern is loaded into the IR shift register in Capture-IR.
const IRCapturePattern uint8 = 0b00001

// DefaultIDCode is the identification value returned by the IDCODE instruction.
const DefaultIDCode uint32 = 0xFB010001

// LengthTable maps each instruction value to the bit length of the data
// register it selects. It is fixed once a Controller is constructed.
type LengthTable [1 << IRWidth]uint8

// DefaultLengths returns the length table of the built-in device. Opcodes
// without a dedicated register select the 1-bit bypass path.
func DefaultLengths() LengthTable {
	var t LengthTable
	for i := range t {
		t[i] = 1
	}
	t[InstrIDCode] = 32
	t[InstrMemRead] = 64
	t[InstrMemWrite] = 64
	t[InstrSigTap] = 32
	t[InstrStatus] = 32
	t[InstrCaps] = 32
	t[InstrDTMCS] = 32
	t[InstrDMI] = 41
	t[InstrBypass] = 1
	return t
}

// Lookup returns the data register length selected by instr.
func (t *LengthTable) Lookup(instr uint8) uint8 {
	return t[instr&IRMask]
}

// Validate checks every entry fits the 7-bit dr_length output.
func (t *LengthTable) Validate() error {
	for instr, n := range t {
		if n > MaxDRLength {
			return &WidthError{Field: fmt.Sprintf("dr_length[%#02x]", instr), Value: uint64(n), Width: 7}
		}
	}
	return nil
}

// LengthTableFromBSDL builds a length table from a device description. Each
// opcode named in INSTRUCTION_OPCODE takes the length of the register that
// REGISTER_ACCESS assigns to it; BYPASS and unlisted opcodes keep 1 bit and
// IDCODE defaults to 32 bits.
func LengthTableFromBSDL(entity *bsdl.Entity) (LengthTable, error) {
	var t LengthTable
	for i := range t {
		t[i] = 1
	}

	if n := entity.GetDeviceInfo().InstructionLength; n != 0 && n != IRWidth {
		return t, fmt.Errorf("rtl: device %s has %d-bit instruction register, want %d", entity.Name, n, IRWidth)
	}

	access := entity.GetRegisterAccess()
	for _, op := range entity.GetInstructionOpcodes() {
		code, err := bsdl.OpcodeToUint(op.Opcode)
		if err != nil {
			return t, fmt.Errorf("rtl: instruction %s: %w", op.Name, err)
		}
		if code > IRMask {
			return t, fmt.Errorf("rtl: opcode %q for %s does not fit %d bits", op.Opcode, op.Name, IRWidth)
		}
		n, ok := access.LengthOf(op.Name)
		switch {
		case ok:
		case strings.EqualFold(op.Name, "IDCODE"):
			n = 32
		default:
			n = 1
		}
		if n > MaxDRLength {
			return t, &WidthError{Field: "dr_length[" + op.Name + "]", Value: uint64(n), Width: 7}
		}
		t[code] = uint8(n)
	}
	return t, nil
}
