package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/idcode/deviceinfo"
)

var idcodeCmd = &cobra.Command{
	Use:   "idcode",
	Short: "Read and decode the IDCODE of the simulated TAP",
	Long: `Reset the TAP, select Shift-DR and shift out the 32-bit identification
register, then decode it into version, part number and JEP106 manufacturer.`,
	Args: cobra.NoArgs,
	RunE: runIDCode,
}

func init() {
	rootCmd.AddCommand(idcodeCmd)
}

func runIDCode(cmd *cobra.Command, args []string) error {
	c, adapter, err := openChain()
	if err != nil {
		return err
	}
	dev := c.Devices()[0]
	info := deviceinfo.Lookup(dev.IDCode)

	fmt.Printf("IDCODE:       0x%08X\n", dev.IDCode)
	fmt.Printf("Version:      %d\n", info.IDCode.Version)
	fmt.Printf("Part number:  0x%04X\n", info.IDCode.PartNumber)
	fmt.Printf("Manufacturer: %s (bank %d, id 0x%03X)\n",
		info.Manufacturer.Name, info.IDCode.Bank()+1, info.IDCode.ManufacturerCode)
	fmt.Printf("Device:       %s", info.Name)
	if info.Description != "" {
		fmt.Printf(" - %s", info.Description)
	}
	fmt.Println()
	if info.IsSimulated {
		fmt.Println("Simulated:    yes")
	}

	if verbose {
		stats := adapter.Controller().Stats()
		fmt.Printf("\n%d TCK cycles, %d evaluations, %d commits\n",
			adapter.Cycles(), stats.Evaluations, stats.Commits)
	}
	return nil
}
