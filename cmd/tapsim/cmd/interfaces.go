package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/jtag"
)

var interfacesTimeout time.Duration

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available JTAG interfaces",
	Long: `Scan the host for USB JTAG probes (CMSIS-DAP, PicoProbe) and list them
together with the built-in RTL simulator, which is always available.`,
	Args: cobra.NoArgs,
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
	interfacesCmd.Flags().DurationVar(&interfacesTimeout, "timeout", 5*time.Second, "USB scan timeout")
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), interfacesTimeout)
	defer cancel()

	infos, err := jtag.DiscoverInterfaces(ctx)
	if err != nil {
		return fmt.Errorf("discover interfaces: %w", err)
	}

	fmt.Println("Detected JTAG interfaces:")
	for _, iface := range infos {
		if iface.Simulated() {
			fmt.Printf("  - %s [%s] (%s)\n", iface.Label(), iface.Kind, iface.Path)
			continue
		}
		fmt.Printf("  - %s [%s] (VID:PID %04X:%04X at %s)\n", iface.Label(), iface.Kind, iface.VendorID, iface.ProductID, iface.Path)
	}

	return nil
}
