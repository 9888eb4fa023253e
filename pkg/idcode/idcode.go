// Package idcode decodes IEEE 1149.1 IDCODE values.
package idcode

import "fmt"

// IDCode is a decoded 32-bit device identification register.
type IDCode struct {
	Raw              uint32
	Version          uint8  // [31:28]
	PartNumber       uint16 // [27:12]
	ManufacturerCode uint16 // [11:1], JEP106 bank and id
	HasIDCode        bool   // bit 0 is fixed at 1 for a valid IDCODE
}

// ParseIDCode splits raw into its fields.
func ParseIDCode(raw uint32) IDCode {
	return IDCode{
		Raw:              raw,
		Version:          uint8(raw >> 28 & 0xF),
		PartNumber:       uint16(raw >> 12 & 0xFFFF),
		ManufacturerCode: uint16(raw >> 1 & 0x7FF),
		HasIDCode:        raw&1 == 1,
	}
}

// Bank returns the JEP106 continuation count of the manufacturer.
func (id IDCode) Bank() uint8 {
	return uint8(id.ManufacturerCode >> 7)
}

func (id IDCode) String() string {
	return fmt.Sprintf("0x%08X (version %d, part 0x%04X, manufacturer 0x%03X)",
		id.Raw, id.Version, id.PartNumber, id.ManufacturerCode)
}

// Manufacturer is a JEP106 registry entry.
type Manufacturer struct {
	Code         uint16
	Name         string
	Abbreviation string
}
