package rtl

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
)

// DeviceBSDL describes the simulated controller: pins, instruction opcodes,
// IDCODE and the register selected by each instruction.
//
//go:embed device.bsd
var DeviceBSDL string

var (
	deviceOnce sync.Once
	deviceFile *bsdl.BSDLFile
	deviceErr  error
)

// DefaultDevice returns the parsed description of the built-in device.
func DefaultDevice() (*bsdl.BSDLFile, error) {
	deviceOnce.Do(func() {
		parser, err := bsdl.NewParser()
		if err != nil {
			deviceErr = err
			return
		}
		deviceFile, deviceErr = parser.ParseString(DeviceBSDL)
		if deviceErr != nil {
			deviceErr = fmt.Errorf("rtl: built-in device: %w", deviceErr)
		}
	})
	return deviceFile, deviceErr
}
