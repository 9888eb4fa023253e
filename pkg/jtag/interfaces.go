package jtag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gousb"
)

// InterfaceKind categorizes adapter families.
type InterfaceKind string

const (
	InterfaceKindRTL      InterfaceKind = "rtl"
	InterfaceKindCMSISDAP InterfaceKind = "cmsis-dap"
	InterfaceKindPico     InterfaceKind = "picoprobe"
	InterfaceKindUnknown  InterfaceKind = "unknown"
)

// InterfaceInfo describes one place a TAP can be reached through.
type InterfaceInfo struct {
	Kind        InterfaceKind
	Description string
	VendorID    uint16
	ProductID   uint16
	Path        string
}

// Simulated reports whether the interface is the built-in RTL model.
func (i InterfaceInfo) Simulated() bool {
	return i.Kind == InterfaceKindRTL
}

// Label returns a user-friendly description for the interface.
func (i InterfaceInfo) Label() string {
	switch {
	case i.Description != "":
		return i.Description
	case i.Kind != "":
		return fmt.Sprintf("%s (%04X:%04X)", i.Kind, i.VendorID, i.ProductID)
	default:
		return fmt.Sprintf("Interface %04X:%04X", i.VendorID, i.ProductID)
	}
}

// SimulatorInterface describes the built-in RTL simulator.
func SimulatorInterface() InterfaceInfo {
	return InterfaceInfo{
		Kind:        InterfaceKindRTL,
		Description: "RTL TAP simulator (no hardware)",
		Path:        "rtl:0",
	}
}

// DiscoverInterfaces lists the simulator followed by any USB debug probe
// with a known VID/PID pair. A libusb permission error only hides the
// probes; the simulator is always present.
func DiscoverInterfaces(ctx context.Context) ([]InterfaceInfo, error) {
	results := []InterfaceInfo{SimulatorInterface()}

	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if ctx.Err() != nil {
			return false
		}
		if info, ok := classifyUSBDevice(desc); ok {
			info.Path = fmt.Sprintf("usb:%d:%d", desc.Bus, desc.Address)
			results = append(results, info)
		}
		return false
	})
	if err != nil && !errors.Is(err, gousb.ErrorAccess) {
		return results, fmt.Errorf("jtag: enumerate usb: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("jtag: enumerate usb: %w", err)
	}
	return results, nil
}

func classifyUSBDevice(desc *gousb.DeviceDesc) (InterfaceInfo, bool) {
	known, ok := knownProbes[usbID{uint16(desc.Vendor), uint16(desc.Product)}]
	if !ok {
		return InterfaceInfo{}, false
	}
	return InterfaceInfo{
		Kind:        known.kind,
		Description: known.description,
		VendorID:    uint16(desc.Vendor),
		ProductID:   uint16(desc.Product),
	}, true
}

type usbID struct {
	vendor, product uint16
}

type knownProbe struct {
	kind        InterfaceKind
	description string
}

var knownProbes = map[usbID]knownProbe{
	{0x2e8a, 0x000c}: {InterfaceKindCMSISDAP, "Raspberry Pi Debug Probe (CMSIS-DAP)"},
	{0x0d28, 0x0204}: {InterfaceKindCMSISDAP, "DAPLink CMSIS-DAP"},
	{0x1366, 0x0101}: {InterfaceKindCMSISDAP, "SEGGER J-Link CMSIS-DAP"},
	{0x2e8a, 0x0004}: {InterfaceKindPico, "PicoProbe"},
	{0x2e8a, 0x000a}: {InterfaceKindPico, "Raspberry Pi Pico (CDC/JTAG)"},
}
