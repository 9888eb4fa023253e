package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover the simulated device through the JTAG chain layer",
	Long: `Identify the simulated TAP the way a probe would identify real hardware:

  1. Pulse TRST_N and clock Test-Logic-Reset
  2. Shift the IDCODE out of Shift-DR
  3. Match the IDCODE against the device description
  4. Display device information

Examples:
  tapsim discover
  tapsim discover -v --bsdl mydevice.bsd`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	c, adapter, err := openChain()
	if err != nil {
		return err
	}

	if verbose {
		info, _ := adapter.Info()
		fmt.Printf("\nAdapter Information:\n")
		fmt.Printf("  Name: %s\n", info.Name)
		fmt.Printf("  Vendor: %s\n", info.Vendor)
		fmt.Printf("  Model: %s\n", info.Model)
		fmt.Printf("  Backend: %s\n", info.Backend)
		fmt.Printf("  Max Speed: %d Hz\n", info.MaxFrequency)
		fmt.Printf("  Notes: %s\n\n", info.Notes)
	}

	devices := c.Devices()
	fmt.Printf("JTAG Chain Discovery Results\n")
	fmt.Printf("Found %d device(s)\n\n", len(devices))

	for _, dev := range devices {
		fmt.Printf("Device %d: %s\n", dev.Position, dev.Name())
		fmt.Printf("  IDCODE:          0x%08X\n", dev.IDCode)
		if dev.Info != nil {
			fmt.Printf("  IR Length:       %d bits\n", dev.Info.InstructionLength)
			fmt.Printf("  IR Capture:      %s\n", dev.Info.InstructionCapture)
		}

		instructions := dev.Instructions()
		fmt.Printf("  Instructions (%d total):\n", len(instructions))
		for _, instr := range instructions {
			opcode, _ := bsdl.OpcodeToUint(instr.Opcode)
			line := fmt.Sprintf("    %-10s %s (0x%02X)", instr.Name, instr.Opcode, opcode)
			if n, ok := dev.RegisterLength(instr.Name); ok {
				line += fmt.Sprintf("  %d-bit DR", n)
			}
			fmt.Println(line)
		}

		if verbose && dev.File != nil {
			cfg := dev.File.Entity.GetTAPConfig()
			fmt.Printf("  TAP Configuration:\n")
			fmt.Printf("    TDI: %s  TDO: %s  TMS: %s  TCK: %s  TRST: %s\n",
				cfg.ScanIn, cfg.ScanOut, cfg.ScanMode, cfg.ScanClock, cfg.ScanReset)
			if cfg.MaxFreq > 0 {
				fmt.Printf("    Max Frequency: %.0f Hz (%s)\n", cfg.MaxFreq, cfg.Edge)
			}
		}
	}

	fmt.Printf("\nTAP state: %s\n", c.State())
	return nil
}
