// Package deviceinfo maps IDCODE values to known devices.
package deviceinfo

import "github.com/OpenTraceLab/OpenTraceTAP/pkg/idcode"

type key struct {
	ManufacturerCode uint16
	PartNumber       uint16
}

var db = make(map[key]DeviceInfo)

func register(k key, info DeviceInfo) {
	db[k] = info
}

// Lookup returns what is known about rawID. Devices outside the database
// get a generic entry with only the decoded fields filled in.
func Lookup(rawID uint32) DeviceInfo {
	id := idcode.ParseIDCode(rawID)
	m, _ := idcode.LookupManufacturer(id.ManufacturerCode)

	info, ok := db[key{ManufacturerCode: id.ManufacturerCode, PartNumber: id.PartNumber}]
	if !ok {
		info = DeviceInfo{
			Name:        "Unknown device",
			Description: "No entry in device database",
		}
	}
	info.IDCode = id
	info.Manufacturer = m
	return info
}
