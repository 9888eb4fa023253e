package bsdl

import (
	"fmt"
	"strconv"
	"strings"
)

// Instruction is one entry of INSTRUCTION_OPCODE.
type Instruction struct {
	Name   string // e.g. "BYPASS", "IDCODE"
	Opcode string // binary, MSB first, e.g. "11111"
}

// TAPConfig describes the TAP pins and clocking.
type TAPConfig struct {
	ScanIn    string
	ScanOut   string
	ScanMode  string
	ScanReset string
	ScanClock string
	MaxFreq   float64 // Hz
	Edge      string  // "BOTH", "RISING" or "FALLING"
}

// DeviceInfo collects the IEEE 1149.1 identification attributes.
type DeviceInfo struct {
	IDCode             string // 32 binary digits, may contain X wildcards
	UserCode           string
	InstructionLength  int
	InstructionCapture string
	BoundaryLength     int
}

// RegisterAccess is one entry of REGISTER_ACCESS: a data register and the
// instructions that select it.
type RegisterAccess struct {
	Register     string
	Length       int // 0 when neither declared nor implied
	Instructions []string
}

// RegisterAccessList is the parsed REGISTER_ACCESS attribute.
type RegisterAccessList []RegisterAccess

// LengthOf returns the length of the register selected by instr.
func (l RegisterAccessList) LengthOf(instr string) (int, bool) {
	for _, ra := range l {
		for _, name := range ra.Instructions {
			if strings.EqualFold(name, instr) && ra.Length > 0 {
				return ra.Length, true
			}
		}
	}
	return 0, false
}

// GetInstructions splits an INSTRUCTION_OPCODE value of the form
// "BYPASS (11111), IDCODE (00001)".
func GetInstructions(expr *Expression) []Instruction {
	str := expr.GetConcatenatedString()
	if str == "" {
		return nil
	}

	var instructions []Instruction
	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		open := strings.Index(part, "(")
		closing := strings.Index(part, ")")
		if open <= 0 || closing <= open {
			continue
		}
		instructions = append(instructions, Instruction{
			Name:   strings.TrimSpace(part[:open]),
			Opcode: strings.TrimSpace(part[open+1 : closing]),
		})
	}
	return instructions
}

// ParseBinaryString converts a bit pattern to a value and a care mask. X
// digits are wildcards and clear the corresponding mask bit; other
// characters are skipped.
func ParseBinaryString(s string) (value uint32, mask uint32, hasWildcards bool) {
	for _, ch := range s {
		switch ch {
		case '0', '1':
			value = value<<1 | uint32(ch-'0')
			mask = mask<<1 | 1
		case 'X', 'x':
			value <<= 1
			mask <<= 1
			hasWildcards = true
		}
	}
	return value, mask, hasWildcards
}

// GetDeviceInfo extracts the identification attributes.
func (e *Entity) GetDeviceInfo() *DeviceInfo {
	info := &DeviceInfo{}
	for _, attr := range e.GetAttributes() {
		if attr.Spec == nil {
			continue
		}
		switch attr.Spec.Name {
		case "INSTRUCTION_LENGTH":
			if val, ok := attr.Spec.Is.GetInteger(); ok {
				info.InstructionLength = val
			}
		case "INSTRUCTION_CAPTURE":
			info.InstructionCapture = attr.Spec.Is.GetConcatenatedString()
		case "BOUNDARY_LENGTH":
			if val, ok := attr.Spec.Is.GetInteger(); ok {
				info.BoundaryLength = val
			}
		case "IDCODE_REGISTER":
			info.IDCode = attr.Spec.Is.GetConcatenatedString()
		case "USERCODE_REGISTER":
			info.UserCode = attr.Spec.Is.GetConcatenatedString()
		}
	}
	return info
}

// IDCode returns the exact IDCODE_REGISTER value. Descriptions with wildcard
// bits have no single value and are rejected.
func (e *Entity) IDCode() (uint32, error) {
	raw := e.GetDeviceInfo().IDCode
	if raw == "" {
		return 0, fmt.Errorf("bsdl: %s has no IDCODE_REGISTER", e.Name)
	}
	value, mask, wild := ParseBinaryString(raw)
	if wild {
		return 0, fmt.Errorf("bsdl: %s IDCODE_REGISTER has wildcard bits", e.Name)
	}
	if mask != 0xFFFFFFFF {
		return 0, fmt.Errorf("bsdl: %s IDCODE_REGISTER is not 32 bits", e.Name)
	}
	return value, nil
}

// GetInstructionOpcodes returns the instruction set.
func (e *Entity) GetInstructionOpcodes() []Instruction {
	if spec := e.attributeSpec("INSTRUCTION_OPCODE"); spec != nil {
		return GetInstructions(spec.Is)
	}
	return nil
}

// InstructionByName looks up one instruction, ignoring case.
func (e *Entity) InstructionByName(name string) (Instruction, bool) {
	for _, instr := range e.GetInstructionOpcodes() {
		if strings.EqualFold(instr.Name, name) {
			return instr, true
		}
	}
	return Instruction{}, false
}

// GetRegisterAccess parses REGISTER_ACCESS. Entries have the form
// "NAME[len] (INSTR, INSTR)". The standard registers BYPASS, DEVICE_ID,
// USERCODE and BOUNDARY may omit the length.
func (e *Entity) GetRegisterAccess() RegisterAccessList {
	spec := e.attributeSpec("REGISTER_ACCESS")
	if spec == nil {
		return nil
	}
	boundary := e.GetDeviceInfo().BoundaryLength

	var list RegisterAccessList
	for _, entry := range splitTopLevel(spec.Is.GetConcatenatedString()) {
		ra, ok := parseRegisterAccess(entry)
		if !ok {
			continue
		}
		if ra.Length == 0 {
			ra.Length = impliedLength(ra.Register, boundary)
		}
		list = append(list, ra)
	}
	return list
}

func impliedLength(register string, boundary int) int {
	switch strings.ToUpper(register) {
	case "BYPASS":
		return 1
	case "DEVICE_ID", "USERCODE":
		return 32
	case "BOUNDARY":
		return boundary
	}
	return 0
}

// splitTopLevel splits s on commas that are not inside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

func parseRegisterAccess(entry string) (RegisterAccess, bool) {
	open := strings.Index(entry, "(")
	closing := strings.LastIndex(entry, ")")
	if open <= 0 || closing <= open {
		return RegisterAccess{}, false
	}

	ra := RegisterAccess{Register: strings.TrimSpace(entry[:open])}
	if lb := strings.Index(ra.Register, "["); lb > 0 {
		rb := strings.Index(ra.Register, "]")
		if rb <= lb {
			return RegisterAccess{}, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(ra.Register[lb+1 : rb]))
		if err != nil || n <= 0 {
			return RegisterAccess{}, false
		}
		ra.Length = n
		ra.Register = strings.TrimSpace(ra.Register[:lb])
	}

	for _, name := range strings.Split(entry[open+1:closing], ",") {
		if name = strings.TrimSpace(name); name != "" {
			ra.Instructions = append(ra.Instructions, name)
		}
	}
	return ra, len(ra.Instructions) > 0
}

// GetTAPConfig extracts the TAP_SCAN_* attributes.
func (e *Entity) GetTAPConfig() *TAPConfig {
	config := &TAPConfig{}
	for _, attr := range e.GetAttributes() {
		if attr.Spec == nil {
			continue
		}
		switch attr.Spec.Name {
		case "TAP_SCAN_IN":
			config.ScanIn = attr.Spec.Of
		case "TAP_SCAN_OUT":
			config.ScanOut = attr.Spec.Of
		case "TAP_SCAN_MODE":
			config.ScanMode = attr.Spec.Of
		case "TAP_SCAN_RESET":
			config.ScanReset = attr.Spec.Of
		case "TAP_SCAN_CLOCK":
			config.ScanClock = attr.Spec.Of
			config.MaxFreq, config.Edge = scanClock(attr.Spec.Is)
		}
	}
	return config
}

// scanClock reads the (frequency, edge) tuple of TAP_SCAN_CLOCK.
func scanClock(expr *Expression) (float64, string) {
	if expr == nil || len(expr.Terms) == 0 || expr.Terms[0].Tuple == nil {
		return 0, ""
	}
	values := expr.Terms[0].Tuple.Values
	var freq float64
	var edge string
	if len(values) >= 1 && len(values[0].Terms) > 0 {
		switch term := values[0].Terms[0]; {
		case term.Real != nil:
			freq = *term.Real
		case term.Integer != nil:
			freq = float64(*term.Integer)
		}
	}
	if len(values) >= 2 && len(values[1].Terms) > 0 && values[1].Terms[0].Ident != nil {
		edge = *values[1].Terms[0].Ident
	}
	return freq, edge
}

// OpcodeToUint converts a binary opcode string to its value.
func OpcodeToUint(opcode string) (uint, error) {
	val, err := strconv.ParseUint(strings.TrimSpace(opcode), 2, 32)
	if err != nil {
		return 0, fmt.Errorf("bsdl: opcode %q: %w", opcode, err)
	}
	return uint(val), nil
}
