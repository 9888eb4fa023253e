package chain

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/idcode"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/jtag"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

// Controller orchestrates JTAG chain discovery and high-level operations.
type Controller struct {
	adapter jtag.Adapter
	repo    Repository
}

// NewController wires a JTAG adapter with a BSDL repository.
func NewController(adapter jtag.Adapter, repo Repository) *Controller {
	return &Controller{
		adapter: adapter,
		repo:    repo,
	}
}

// Chain represents the discovered devices and provides helper queries.
type Chain struct {
	devices []*Device
	xport   *transport
}

// Devices returns a copy of the known devices.
func (c *Chain) Devices() []*Device {
	out := make([]*Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// DeviceByName returns the first device with the provided entity name.
func (c *Chain) DeviceByName(name string) (*Device, bool) {
	for _, dev := range c.devices {
		if strings.EqualFold(dev.Name(), name) {
			return dev, true
		}
	}
	return nil, false
}

// State returns the TAP state the chain is believed to be in.
func (c *Chain) State() tap.State {
	return c.xport.tap.State()
}

// Device aggregates useful BSDL-derived metadata.
type Device struct {
	Position int
	IDCode   uint32
	File     *bsdl.BSDLFile
	Info     *bsdl.DeviceInfo
}

// Name returns the entity name.
func (d *Device) Name() string {
	if d.File != nil && d.File.Entity != nil {
		return d.File.Entity.Name
	}
	return ""
}

// Decoded splits the IDCODE into its fields.
func (d *Device) Decoded() idcode.IDCode {
	return idcode.ParseIDCode(d.IDCode)
}

// Instructions exposes the decoded instruction table.
func (d *Device) Instructions() []bsdl.Instruction {
	if d.File == nil || d.File.Entity == nil {
		return nil
	}
	return d.File.Entity.GetInstructionOpcodes()
}

// BypassOpcode returns the BYPASS instruction bits for this device.
func (d *Device) BypassOpcode() ([]bool, error) {
	return d.instructionBits("BYPASS")
}

// RegisterLength returns the length of the data register selected by the
// named instruction, as declared by REGISTER_ACCESS.
func (d *Device) RegisterLength(instr string) (int, bool) {
	if d.File == nil || d.File.Entity == nil {
		return 0, false
	}
	return d.File.Entity.GetRegisterAccess().LengthOf(instr)
}

func (d *Device) instructionBits(name string) ([]bool, error) {
	if d.Info == nil {
		return nil, fmt.Errorf("chain: device %s missing device info", d.Name())
	}
	instr, ok := d.File.Entity.InstructionByName(name)
	if !ok {
		return nil, fmt.Errorf("chain: instruction %s not found on %s", name, d.Name())
	}
	return opcodeBits(instr.Opcode, d.Info.InstructionLength)
}

// Discover chains the adapter, TAP FSM, and repository together to produce a
// fully described chain. The caller passes the expected device count.
func (c *Controller) Discover(deviceCount int) (*Chain, error) {
	if deviceCount <= 0 {
		return nil, fmt.Errorf("chain: deviceCount must be positive")
	}
	if c.adapter == nil {
		return nil, fmt.Errorf("chain: adapter is nil")
	}
	if c.repo == nil {
		return nil, fmt.Errorf("chain: repository is nil")
	}

	xport := newTransport(c.adapter)
	if err := xport.reset(); err != nil {
		return nil, err
	}
	if err := xport.navigate(tap.StateShiftDR); err != nil {
		return nil, err
	}

	ids, err := readIDCodes(xport, deviceCount)
	if err != nil {
		return nil, err
	}

	devices := make([]*Device, 0, deviceCount)
	for idx, id := range ids {
		file, err := c.repo.Lookup(id)
		if err != nil {
			return nil, err
		}
		var info *bsdl.DeviceInfo
		if mr, ok := c.repo.(*MemoryRepository); ok {
			info = mr.DeviceInfo(id)
		}
		if info == nil && file != nil && file.Entity != nil {
			info = file.Entity.GetDeviceInfo()
		}

		devices = append(devices, &Device{
			Position: idx,
			IDCode:   id,
			File:     file,
			Info:     info,
		})
	}

	return &Chain{
		devices: devices,
		xport:   xport,
	}, nil
}

// readIDCodes shifts deviceCount IDCODEs out of Shift-DR and parks the TAP
// in Run-Test/Idle. The device nearest TDO comes first.
func readIDCodes(t *transport, deviceCount int) ([]uint32, error) {
	bits, err := t.scan(make([]bool, deviceCount*32))
	if err != nil {
		return nil, err
	}
	if err := t.navigate(tap.StateRunTestIdle); err != nil {
		return nil, err
	}

	ids := make([]uint32, deviceCount)
	for i := range ids {
		id := uint32(bitsToUint64(bits[i*32 : (i+1)*32]))
		if id&1 == 0 || id == 0xFFFFFFFF {
			return nil, fmt.Errorf("chain: no IDCODE at position %d (read 0x%08X)", i, id)
		}
		ids[i] = id
	}
	return ids, nil
}
