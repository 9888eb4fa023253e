package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/chain"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/jtag"
	"github.com/OpenTraceLab/OpenTraceTAP/pkg/rtl"
)

var (
	// Global flags
	verbose    bool
	bsdlFile   string
	seed       uint64
	iterations int
)

var rootCmd = &cobra.Command{
	Use:   "tapsim",
	Short: "Cycle-accurate JTAG TAP controller simulator",
	Long: `tapsim drives a pin-level model of an IEEE 1149.1 TAP controller.
The simulated device has a 5-bit instruction register, a 64-bit data
register and a bypass bit. Its IDCODE and register lengths come from a
built-in BSDL description, or from --bsdl.

Examples:
  tapsim idcode                              # Read the IDCODE
  tapsim scan ir BYPASS                      # Load an instruction
  tapsim scan dr MEM_READ --capture 0x1234   # Capture and shift a register
  tapsim trace -o idcode.vcd                 # Write a waveform of an IDCODE read
  tapsim bench --cycles 1000000              # Measure simulation speed`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&bsdlFile, "bsdl", "b", "",
		"BSDL description of the simulated device (default: built-in OTTAP)")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0,
		"fill registers with pseudo-random power-on contents from this seed (0: zeroed)")
	rootCmd.PersistentFlags().IntVar(&iterations, "iterations", rtl.DefaultIterationLimit,
		"convergence ceiling per scheduler loop")
}

// deviceFile returns the description selected by --bsdl.
func deviceFile() (*bsdl.BSDLFile, error) {
	if bsdlFile == "" {
		return rtl.DefaultDevice()
	}
	parser, err := bsdl.NewParser()
	if err != nil {
		return nil, err
	}
	return parser.ParseFile(bsdlFile)
}

// newController builds the simulated TAP from the global flags.
func newController(extra ...rtl.Option) (*rtl.Controller, *bsdl.BSDLFile, error) {
	file, err := deviceFile()
	if err != nil {
		return nil, nil, fmt.Errorf("load device: %w", err)
	}

	opts := []rtl.Option{
		rtl.WithDevice(file.Entity),
		rtl.WithIterationLimit(iterations),
	}
	if seed != 0 {
		opts = append(opts, rtl.WithRandomInit(seed))
	}
	if verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, rtl.WithLogger(slog.New(handler)))
	}
	opts = append(opts, extra...)

	ctrl, err := rtl.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("build controller: %w", err)
	}
	if verbose {
		fmt.Printf("Device %s: IDCODE 0x%08X, %d-bit IR, iteration limit %d\n",
			file.Entity.Name, ctrl.IDCode(), rtl.IRWidth, ctrl.IterationLimit())
	}
	return ctrl, file, nil
}

// openChain discovers the simulated device through the RTL adapter.
func openChain(extra ...rtl.Option) (*chain.Chain, *jtag.RTLAdapter, error) {
	ctrl, file, err := newController(extra...)
	if err != nil {
		return nil, nil, err
	}
	adapter, err := jtag.NewRTLAdapter(ctrl)
	if err != nil {
		return nil, nil, err
	}

	repo := chain.NewMemoryRepository()
	if _, _, err := repo.AddFile(file); err != nil {
		return nil, nil, fmt.Errorf("register device: %w", err)
	}
	c, err := chain.NewController(adapter, repo).Discover(1)
	if err != nil {
		return nil, nil, fmt.Errorf("discover: %w", err)
	}
	return c, adapter, nil
}
