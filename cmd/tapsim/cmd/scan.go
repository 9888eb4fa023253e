package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/chain"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/rtl"
)

var (
	scanData    string
	scanCapture string
	scanLength  int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run instruction and data register scans",
}

var scanIRCmd = &cobra.Command{
	Use:   "ir <instruction>",
	Short: "Load an instruction into the IR",
	Long: `Load an instruction by name (as listed in the device description) or by
opcode value, e.g. "BYPASS", "dmi" or "0x11". Prints the IR capture pattern
and the length of the selected data register.`,
	Args: cobra.ExactArgs(1),
	RunE: runScanIR,
}

var scanDRCmd = &cobra.Command{
	Use:   "dr <instruction>",
	Short: "Load an instruction, then capture and shift its data register",
	Long: `Load an instruction, drive the capture data input and shift the selected
data register. The captured value is printed; the shifted-in value is left in
the register.

Examples:
  tapsim scan dr IDCODE
  tapsim scan dr MEM_READ --capture 0x0123456789ABCDEF --data 0xFF
  tapsim scan dr BYPASS --data 0b1011 --length 4`,
	Args: cobra.ExactArgs(1),
	RunE: runScanDR,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.AddCommand(scanIRCmd, scanDRCmd)

	scanDRCmd.Flags().StringVarP(&scanData, "data", "d", "0", "value shifted in, LSB first")
	scanDRCmd.Flags().StringVar(&scanCapture, "capture", "0", "value on the capture data input")
	scanDRCmd.Flags().IntVarP(&scanLength, "length", "l", 0,
		"bits to shift (default: length from the device description)")
}

// resolveInstruction accepts an instruction name or a numeric opcode.
func resolveInstruction(dev *chain.Device, arg string) (bsdl.Instruction, error) {
	if instr, ok := dev.File.Entity.InstructionByName(arg); ok {
		return instr, nil
	}
	value, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return bsdl.Instruction{}, fmt.Errorf("unknown instruction %q", arg)
	}
	if value > rtl.IRMask {
		return bsdl.Instruction{}, fmt.Errorf("opcode %s exceeds %d bits", arg, rtl.IRWidth)
	}
	for _, instr := range dev.Instructions() {
		if v, err := bsdl.OpcodeToUint(instr.Opcode); err == nil && uint64(v) == value {
			return instr, nil
		}
	}
	return bsdl.Instruction{}, fmt.Errorf("opcode %s is not defined by %s", arg, dev.Name())
}

func loadInstruction(c *chain.Chain, arg string) (*chain.Device, bsdl.Instruction, []bool, error) {
	dev := c.Devices()[0]
	instr, err := resolveInstruction(dev, arg)
	if err != nil {
		return nil, bsdl.Instruction{}, nil, err
	}
	captured, err := c.ProgramInstruction(dev, instr.Name)
	if err != nil {
		return nil, bsdl.Instruction{}, nil, err
	}
	return dev, instr, captured, nil
}

func runScanIR(cmd *cobra.Command, args []string) error {
	c, adapter, err := openChain()
	if err != nil {
		return err
	}
	_, instr, captured, err := loadInstruction(c, args[0])
	if err != nil {
		return err
	}

	out := adapter.Controller().Outputs()
	fmt.Printf("Instruction: %s (%s, 0x%02X)\n", instr.Name, instr.Opcode, out.IRValue)
	fmt.Printf("IR capture:  %s\n", formatBits(captured))
	fmt.Printf("DR length:   %d bits\n", out.DRLength)
	fmt.Printf("TAP state:   %s\n", c.State())
	return nil
}

func runScanDR(cmd *cobra.Command, args []string) error {
	data, err := parseValue(scanData)
	if err != nil {
		return fmt.Errorf("--data: %w", err)
	}
	capture, err := parseValue(scanCapture)
	if err != nil {
		return fmt.Errorf("--capture: %w", err)
	}

	c, adapter, err := openChain()
	if err != nil {
		return err
	}
	dev, instr, _, err := loadInstruction(c, args[0])
	if err != nil {
		return err
	}

	length := scanLength
	if length == 0 {
		n, ok := dev.RegisterLength(instr.Name)
		if !ok {
			n = int(adapter.Controller().Outputs().DRLength)
		}
		length = n
	}

	ctrl := adapter.Controller()
	in := ctrl.Inputs()
	in.DRCaptureData = capture
	ctrl.SetInputs(in)

	got, err := c.ShiftDR(data, length)
	if err != nil {
		return err
	}

	digits := (length + 3) / 4
	fmt.Printf("Instruction: %s\n", instr.Name)
	fmt.Printf("Length:      %d bits\n", length)
	fmt.Printf("Shifted in:  0x%0*X\n", digits, data&mask(length))
	fmt.Printf("Captured:    0x%0*X\n", digits, got)
	if verbose {
		fmt.Printf("DR register: 0x%016X\n", ctrl.Registers().DRShift)
	}
	return nil
}

func parseValue(s string) (uint64, error) {
	return strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 64)
}

func mask(length int) uint64 {
	if length >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(length) - 1
}

// formatBits prints bits in shift order, first bit on the left.
func formatBits(bits []bool) string {
	var b strings.Builder
	for _, bit := range bits {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
