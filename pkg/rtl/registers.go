package rtl

import (
	"math/rand/v2"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

// Registers is a snapshot of every storage element of the controller.
type Registers struct {
	State     tap.State
	NextState tap.State // combinational lookahead, tap.NextState(State, tms)
	IRShift   uint8     // 5 bits
	IRHold    uint8     // 5 bits, the latched instruction
	DRShift   uint64
	Bypass    Bit
	TDO       Bit // registered on the falling TCK edge
}

// shiftOut is the data register output: the bypass bit under BYPASS,
// otherwise DR bit 0.
func (r Registers) shiftOut() Bit {
	if r.IRHold == InstrBypass {
		return r.Bypass
	}
	return Bit(r.DRShift & 1)
}

// randomRegisters draws power-on contents from rng, masked to each
// register's width.
func randomRegisters(rng *rand.Rand) Registers {
	return Registers{
		State:     tap.State(rng.Uint32() & 0xF),
		NextState: tap.State(rng.Uint32() & 0xF),
		IRShift:   uint8(rng.Uint32() & IRMask),
		IRHold:    uint8(rng.Uint32() & IRMask),
		DRShift:   rng.Uint64(),
		Bypass:    Bit(rng.Uint32() & 1),
		TDO:       Bit(rng.Uint32() & 1),
	}
}

// bank double-buffers the registers. Rules read cur and write next; commit
// publishes next in one step.
type bank struct {
	cur    Registers
	next   Registers
	staged bool
}

// stage returns the write buffer, seeding it from cur on the first write of
// a step so untouched registers keep their value.
func (b *bank) stage() *Registers {
	if !b.staged {
		b.next = b.cur
		b.staged = true
	}
	return &b.next
}

// commit publishes the staged values and reports whether any register
// changed.
func (b *bank) commit() bool {
	if !b.staged {
		return false
	}
	changed := b.next != b.cur
	b.cur = b.next
	b.staged = false
	return changed
}

func (b *bank) load(r Registers) {
	b.cur = r
	b.next = r
	b.staged = false
}
