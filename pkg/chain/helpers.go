package chain

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
)

// parseIDCode turns an IDCODE_REGISTER pattern into a value and a match
// mask. X digits clear the corresponding mask bit.
func parseIDCode(pattern string) (value, mask uint32, err error) {
	digits := 0
	for _, ch := range pattern {
		if strings.ContainsRune("01Xx", ch) {
			digits++
		}
	}
	if digits != 32 {
		return 0, 0, fmt.Errorf("chain: IDCODE pattern has %d bits, want 32", digits)
	}
	value, mask, _ = bsdl.ParseBinaryString(pattern)
	if mask == 0 {
		return 0, 0, fmt.Errorf("chain: IDCODE pattern %q is all wildcards", pattern)
	}
	return value, mask, nil
}

// opcodeBits converts a binary opcode to width bits, LSB first. A zero width
// takes the opcode's own length.
func opcodeBits(opcode string, width int) ([]bool, error) {
	opcode = strings.TrimSpace(opcode)
	if opcode == "" {
		return nil, fmt.Errorf("chain: empty opcode")
	}
	if width == 0 {
		width = len(opcode)
	}
	if len(opcode) > width {
		return nil, fmt.Errorf("chain: opcode %s is wider than the %d-bit IR", opcode, width)
	}
	val, err := bsdl.OpcodeToUint(opcode)
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}
	return uintToBits(uint64(val), width), nil
}

func uintToBits(val uint64, width int) []bool {
	bits := make([]bool, width)
	for i := range bits {
		bits[i] = i < 64 && val>>uint(i)&1 == 1
	}
	return bits
}

func bitsToUint64(bits []bool) uint64 {
	var val uint64
	for i, bit := range bits {
		if bit && i < 64 {
			val |= 1 << uint(i)
		}
	}
	return val
}
