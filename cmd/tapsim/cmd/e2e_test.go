package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/rtl"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background to prevent pipe buffer from blocking
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	// Reset flags to prevent accumulation between tests
	verbose = false
	bsdlFile = ""
	seed = 0
	iterations = rtl.DefaultIterationLimit
	scanData, scanCapture, scanLength = "0", "0", 0
	benchCycles = 1_000_000
	traceOutput, traceStep = "trace.vcd", 10

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	<-done
	return buf.String(), err
}

func TestCommandsE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name: "idcode",
			args: []string{"idcode"},
			wantContain: []string{
				"IDCODE:       0xFB010001",
				"Version:      15",
				"Part number:  0xB010",
				"Device:       OTTAP",
				"Simulated:    yes",
			},
		},
		{
			name:        "idcode with random power-on state",
			args:        []string{"idcode", "--seed", "5"},
			wantContain: []string{"IDCODE:       0xFB010001"},
		},
		{
			name: "scan ir by name",
			args: []string{"scan", "ir", "bypass"},
			wantContain: []string{
				"Instruction: BYPASS (11111, 0x1F)",
				"IR capture:  10000",
				"DR length:   1 bits",
				"TAP state:   RunTestIdle",
			},
		},
		{
			name:        "scan ir by opcode",
			args:        []string{"scan", "ir", "0x11"},
			wantContain: []string{"Instruction: DMI", "DR length:   41 bits"},
		},
		{
			name:        "scan dr idcode",
			args:        []string{"scan", "dr", "IDCODE"},
			wantContain: []string{"Length:      32 bits", "Captured:    0xFB010001"},
		},
		{
			name: "scan dr capture data",
			args: []string{"scan", "dr", "MEM_READ", "--capture", "0x0123_4567_89AB_CDEF", "--data", "0xFF"},
			wantContain: []string{
				"Length:      64 bits",
				"Shifted in:  0x00000000000000FF",
				"Captured:    0x0123456789ABCDEF",
			},
		},
		{
			name:        "scan dr bypass",
			args:        []string{"scan", "dr", "BYPASS", "--data", "0b1011", "--length", "4"},
			wantContain: []string{"Captured:    0x6"},
		},
		{
			name:    "scan unknown instruction",
			args:    []string{"scan", "ir", "EXTEST"},
			wantErr: true,
		},
		{
			name:    "scan undefined opcode",
			args:    []string{"scan", "ir", "0x05"},
			wantErr: true,
		},
		{
			name:        "states table",
			args:        []string{"states"},
			wantContain: []string{"0xB   ShiftIR", "UpdateIR"},
		},
		{
			name:        "states path",
			args:        []string{"states", "idle", "shift-ir"},
			wantContain: []string{"TMS: 1 1 0 0 (4 cycles)", "   4  ShiftIR"},
		},
		{
			name:    "states bad name",
			args:    []string{"states", "idle", "nowhere"},
			wantErr: true,
		},
		{
			name: "discover",
			args: []string{"discover"},
			wantContain: []string{
				"JTAG Chain Discovery Results",
				"Found 1 device(s)",
				"Device 0: OTTAP",
				"IR Length:       5 bits",
				"MEM_READ",
				"64-bit DR",
				"TAP state: RunTestIdle",
			},
		},
		{
			name:        "discover verbose",
			args:        []string{"discover", "-v"},
			wantContain: []string{"Adapter Information:", "RTL simulator", "Max Frequency: 50000000 Hz (BOTH)"},
		},
		{
			name:    "description with wildcard IDCODE cannot be simulated",
			args:    []string{"discover", "--bsdl", "../../../pkg/bsdl/testdata/riscv_dtm.bsd"},
			wantErr: true,
		},
		{
			name:    "invalid iteration limit",
			args:    []string{"idcode", "--iterations", "0"},
			wantErr: true,
		},
		{
			name: "bench",
			args: []string{"bench", "--cycles", "1000"},
			wantContain: []string{
				"Cycles:       1000",
				"Evaluations:  2000",
				"Final state:  ShiftDR",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v\nOutput: %s", err, output)
				return
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestTraceE2E(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idcode.vcd")
	output, err := run(t, "trace", "-o", path)
	if err != nil {
		t.Fatalf("trace failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "IDCODE 0xFB010001 read in") {
		t.Fatalf("unexpected output:\n%s", output)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	for _, want := range []string{"$timescale 1ns $end", "$var wire 1 ! tck $end", "$enddefinitions $end", "$dumpvars"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("trace missing %q", want)
		}
	}
}
