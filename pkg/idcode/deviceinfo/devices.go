package deviceinfo

func init() {
	// The simulated controller carries no JEP106 manufacturer.
	register(key{ManufacturerCode: 0x000, PartNumber: 0xB010}, DeviceInfo{
		Name:        "OTTAP",
		Family:      "OpenTraceTAP",
		Description: "Simulated debug TAP controller",
		IsSimulated: true,
		IsDebugTAP:  true,
		IRLength:    5,
	})

	register(key{ManufacturerCode: 0x23B, PartNumber: 0xBA00}, DeviceInfo{
		Name:        "JTAG-DP",
		Family:      "CoreSight",
		Description: "ARM debug port",
		IsDebugTAP:  true,
		IRLength:    4,
	})

	register(key{ManufacturerCode: 0x489, PartNumber: 0x0000}, DeviceInfo{
		Name:        "RISC-V DTM",
		Family:      "RISC-V",
		Description: "RISC-V debug transport module",
		IsDebugTAP:  true,
		IRLength:    5,
	})
}
