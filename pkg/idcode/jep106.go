package idcode

import "fmt"

// jep106 lists manufacturers by continuation bank. The IDCODE field packs
// the bank count above the 7-bit id.
var jep106 = [][]struct {
	id   uint8
	name string
	abbr string // defaults to name
}{
	0: {
		{0x01, "AMD", ""},
		{0x02, "AMI", ""},
		{0x03, "Fairchild", ""},
		{0x04, "Fujitsu", ""},
		{0x05, "GTE", ""},
		{0x06, "Harris", ""},
		{0x07, "Hitachi", ""},
		{0x08, "Inmos", ""},
		{0x09, "Intel", ""},
		{0x0A, "I.T.T.", "ITT"},
		{0x0B, "Intersil", ""},
		{0x0C, "Monolithic Memories", "MMI"},
		{0x0D, "Mostek", ""},
		{0x0E, "Freescale (Motorola)", "Freescale"},
		{0x0F, "National", ""},
		{0x10, "NEC", ""},
		{0x11, "RCA", ""},
		{0x12, "Raytheon", ""},
		{0x13, "Conexant (Rockwell)", "Conexant"},
		{0x14, "Seeq", ""},
		{0x15, "Philips Semi. (Signetics)", "Philips"},
		{0x16, "Synertek", ""},
		{0x17, "Texas Instruments", "TI"},
		{0x18, "Toshiba", ""},
		{0x19, "Xicor", ""},
		{0x1A, "Zilog", ""},
		{0x1B, "Eurotechnique", ""},
		{0x1C, "Mitsubishi", ""},
		{0x1D, "Lucent (AT&T)", "Lucent"},
		{0x1E, "Exel", ""},
		{0x1F, "Atmel", ""},
		{0x20, "STMicroelectronics", "STM"},
		{0x25, "Analog Devices", "ADI"},
		{0x2E, "Cypress", ""},
		{0x31, "Xilinx", ""},
		{0x3D, "Altera", ""},
		{0x41, "Lattice", ""},
		{0x49, "Infineon", ""},
		{0x6E, "Microchip", ""},
	},
	1: {
		{0x37, "Espressif", ""},
	},
	2: {
		{0x3B, "Nordic Semiconductor", "Nordic"},
	},
	3: {
		{0x71, "Raspberry Pi", "RPi"},
	},
	4: {
		{0x3B, "ARM Ltd", "ARM"},
	},
	9: {
		{0x09, "SiFive", ""},
	},
}

var manufacturers = func() map[uint16]Manufacturer {
	m := make(map[uint16]Manufacturer)
	for bank, entries := range jep106 {
		for _, e := range entries {
			code := uint16(bank)<<7 | uint16(e.id)
			abbr := e.abbr
			if abbr == "" {
				abbr = e.name
			}
			m[code] = Manufacturer{Code: code, Name: e.name, Abbreviation: abbr}
		}
	}
	return m
}()

// LookupManufacturer returns the registry entry for code. Unknown codes get
// a placeholder entry and false.
func LookupManufacturer(code uint16) (Manufacturer, bool) {
	if m, ok := manufacturers[code]; ok {
		return m, true
	}
	return Manufacturer{
		Code:         code,
		Name:         fmt.Sprintf("Unknown (0x%03X)", code),
		Abbreviation: "Unknown",
	}, false
}
