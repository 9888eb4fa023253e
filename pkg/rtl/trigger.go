package rtl

import "strings"

// Trigger is the set of edges observed in one evaluation step.
type Trigger uint8

const (
	TriggerPosedgeTCK  Trigger = 1 << iota // rising TCK
	TriggerNegedgeTRST                     // TRST_N asserted (falling)
	TriggerNegedgeTCK                      // falling TCK
)

// Has reports whether every edge in other is present in t.
func (t Trigger) Has(other Trigger) bool {
	return t&other == other && other != 0
}

// Any reports whether at least one edge of other is present in t.
func (t Trigger) Any(other Trigger) bool {
	return t&other != 0
}

func (t Trigger) String() string {
	if t == 0 {
		return "none"
	}
	var parts []string
	if t.Has(TriggerPosedgeTCK) {
		parts = append(parts, "posedge tck")
	}
	if t.Has(TriggerNegedgeTRST) {
		parts = append(parts, "negedge trst_n")
	}
	if t.Has(TriggerNegedgeTCK) {
		parts = append(parts, "negedge tck")
	}
	return strings.Join(parts, "|")
}

// edgeDetector keeps the previous sample of every edge-sensitive pin.
type edgeDetector struct {
	prevTCK   Bit
	prevTRSTn Bit
}

// prime makes the current pin levels the previous sample so that the first
// evaluation after power-on sees no edge.
func (d *edgeDetector) prime(in Inputs) {
	d.prevTCK = in.TCK
	d.prevTRSTn = in.TRSTn
}

// detect compares the pins against the previous sample, returns the edges
// that fired and records the new sample.
func (d *edgeDetector) detect(in Inputs) Trigger {
	var t Trigger
	if in.TCK == 1 && d.prevTCK == 0 {
		t |= TriggerPosedgeTCK
	}
	if in.TRSTn == 0 && d.prevTRSTn == 1 {
		t |= TriggerNegedgeTRST
	}
	if in.TCK == 0 && d.prevTCK == 1 {
		t |= TriggerNegedgeTCK
	}
	d.prevTCK = in.TCK
	d.prevTRSTn = in.TRSTn
	return t
}
