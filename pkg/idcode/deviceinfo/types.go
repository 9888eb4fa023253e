package deviceinfo

import "github.com/OpenTraceLab/OpenTraceTAP/pkg/idcode"

// DeviceInfo describes a known TAP.
type DeviceInfo struct {
	IDCode       idcode.IDCode
	Manufacturer idcode.Manufacturer

	Name        string
	Family      string
	Description string

	IsSimulated bool
	IsDebugTAP  bool // exposes a debug module rather than boundary scan

	IRLength int
}
