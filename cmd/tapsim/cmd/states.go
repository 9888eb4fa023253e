package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

var statesCmd = &cobra.Command{
	Use:   "states [from to]",
	Short: "Print the TAP state diagram or the TMS path between two states",
	Long: `Without arguments, list the 16 TAP states with their 4-bit encoding and the
state reached on the next TCK for TMS=0 and TMS=1. With two state names,
print the shortest TMS sequence leading from the first to the second.

Examples:
  tapsim states
  tapsim states RunTestIdle ShiftIR
  tapsim states tlr shift-dr`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or <from> <to>")
		}
		return nil
	},
	RunE: runStates,
}

func init() {
	rootCmd.AddCommand(statesCmd)
}

func runStates(cmd *cobra.Command, args []string) error {
	if len(args) == 2 {
		return printPath(args[0], args[1])
	}

	fmt.Printf("%-4s  %-16s  %-16s  %-16s\n", "Code", "State", "TMS=0", "TMS=1")
	for _, s := range tap.States() {
		fmt.Printf("0x%X   %-16s  %-16s  %-16s\n",
			uint8(s), s, tap.NextState(s, false), tap.NextState(s, true))
	}
	return nil
}

func printPath(fromName, toName string) error {
	from, err := parseState(fromName)
	if err != nil {
		return err
	}
	to, err := parseState(toName)
	if err != nil {
		return err
	}
	seq, err := tap.Path(from, to)
	if err != nil {
		return err
	}

	tms := make([]string, len(seq.TMS))
	for i, bit := range seq.TMS {
		tms[i] = "0"
		if bit {
			tms[i] = "1"
		}
	}
	fmt.Printf("TMS: %s (%d cycles)\n", strings.Join(tms, " "), len(seq.TMS))
	for i, s := range seq.States {
		fmt.Printf("  %2d  %s\n", i, s)
	}
	return nil
}

// parseState matches a state name ignoring case and punctuation, so
// "shift-ir", "ShiftIR" and "SHIFT_IR" are all accepted.
func parseState(name string) (tap.State, error) {
	want := normalizeState(name)
	for _, s := range tap.States() {
		if normalizeState(s.String()) == want {
			return s, nil
		}
	}
	if want == "tlr" {
		return tap.StateTestLogicReset, nil
	}
	if want == "rti" || want == "idle" {
		return tap.StateRunTestIdle, nil
	}
	return 0, fmt.Errorf("unknown TAP state %q", name)
}

func normalizeState(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
