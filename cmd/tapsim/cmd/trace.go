package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/rtl"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/vcd"
)

var (
	traceOutput string
	traceStep   uint64
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Write a VCD waveform of an IDCODE read",
	Long: `Run the discover sequence (TRST_N pulse, Test-Logic-Reset, IDCODE shift)
and record every evaluation of the controller as a Value Change Dump. The
file can be opened with GTKWave or any other waveform viewer.

Examples:
  tapsim trace -o idcode.vcd
  tapsim trace -o slow.vcd --step 50`,
	Args: cobra.NoArgs,
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().StringVarP(&traceOutput, "output", "o", "trace.vcd", "VCD file to write")
	traceCmd.Flags().Uint64Var(&traceStep, "step", 10, "nanoseconds between evaluations (half a TCK period)")
}

func runTrace(cmd *cobra.Command, args []string) error {
	f, err := os.Create(traceOutput)
	if err != nil {
		return fmt.Errorf("create trace: %w", err)
	}
	defer f.Close()

	rec, err := vcd.NewRecorder(f, traceStep)
	if err != nil {
		return err
	}
	c, adapter, err := openChain(rtl.WithProbe(rec))
	if err != nil {
		return err
	}
	if err := rec.Close(); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close trace: %w", err)
	}

	fmt.Printf("IDCODE 0x%08X read in %d TCK cycles\n", c.Devices()[0].IDCode, adapter.Cycles())
	fmt.Printf("Wrote %d samples to %s\n", rec.Samples(), traceOutput)
	return nil
}
