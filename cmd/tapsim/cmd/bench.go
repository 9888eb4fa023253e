package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/rtl"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

var benchCycles int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure simulation throughput",
	Long: `Park the TAP in Shift-DR with IDCODE selected and clock it with an
alternating TDI pattern. Each cycle is a full TCK period, i.e. two
evaluations of the controller.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVarP(&benchCycles, "cycles", "n", 1_000_000, "TCK cycles to simulate")
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchCycles <= 0 {
		return fmt.Errorf("--cycles must be positive, got %d", benchCycles)
	}
	ctrl, _, err := newController()
	if err != nil {
		return err
	}
	if err := ctrl.Eval(); err != nil {
		return err
	}

	m := tap.NewStateMachine()
	seq := m.Reset()
	path, err := m.GoTo(tap.StateShiftDR)
	if err != nil {
		return err
	}
	for _, bit := range append(seq.TMS, path.TMS...) {
		if _, err := ctrl.Clock(rtl.BitOf(bit), 0); err != nil {
			return err
		}
	}

	before := ctrl.Stats()
	start := time.Now()
	for i := 0; i < benchCycles; i++ {
		if _, err := ctrl.Clock(0, rtl.Bit(i&1)); err != nil {
			return fmt.Errorf("cycle %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)
	after := ctrl.Stats()

	rate := float64(benchCycles) / elapsed.Seconds()
	fmt.Printf("Cycles:       %d\n", benchCycles)
	fmt.Printf("Elapsed:      %s\n", elapsed.Round(time.Microsecond))
	fmt.Printf("Throughput:   %.0f cycles/s (%.2f MHz)\n", rate, rate/1e6)
	fmt.Printf("Evaluations:  %d\n", after.Evaluations-before.Evaluations)
	fmt.Printf("Commits:      %d\n", after.Commits-before.Commits)
	fmt.Printf("Final state:  %s\n", ctrl.State())
	return nil
}
