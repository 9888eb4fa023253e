package tap

import (
	"fmt"
)

// State represents one of the 16 defined IEEE 1149.1 TAP controller states. The
// numeric values are the 4-bit encoding held in the controller's state register.
type State uint8

const (
	StateTestLogicReset State = iota
	StateRunTestIdle
	StateSelectDRScan
	StateCaptureDR
	StateShiftDR
	StateExit1DR
	StatePauseDR
	StateExit2DR
	StateUpdateDR
	StateSelectIRScan
	StateCaptureIR
	StateShiftIR
	StateExit1IR
	StatePauseIR
	StateExit2IR
	StateUpdateIR
)

// NumStates is the number of states in the controller diagram.
const NumStates = 16

var stateNames = [NumStates]string{
	"TestLogicReset",
	"RunTestIdle",
	"SelectDRScan",
	"CaptureDR",
	"ShiftDR",
	"Exit1DR",
	"PauseDR",
	"Exit2DR",
	"UpdateDR",
	"SelectIRScan",
	"CaptureIR",
	"ShiftIR",
	"Exit1IR",
	"PauseIR",
	"Exit2IR",
	"UpdateIR",
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Valid reports whether s is one of the 16 encoded states.
func (s State) Valid() bool {
	return s < NumStates
}

// IsIR reports whether s belongs to the instruction register column of the
// diagram (Select-IR through Update-IR).
func (s State) IsIR() bool {
	return s >= StateSelectIRScan && s <= StateUpdateIR
}

// States returns all states in encoding order.
func States() []State {
	out := make([]State, NumStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// transitions is indexed by [state][tms].
var transitions = [NumStates][2]State{
	StateTestLogicReset: {StateRunTestIdle, StateTestLogicReset},
	StateRunTestIdle:    {StateRunTestIdle, StateSelectDRScan},
	StateSelectDRScan:   {StateCaptureDR, StateSelectIRScan},
	StateCaptureDR:      {StateShiftDR, StateExit1DR},
	StateShiftDR:        {StateShiftDR, StateExit1DR},
	StateExit1DR:        {StatePauseDR, StateUpdateDR},
	StatePauseDR:        {StatePauseDR, StateExit2DR},
	StateExit2DR:        {StateShiftDR, StateUpdateDR},
	StateUpdateDR:       {StateRunTestIdle, StateSelectDRScan},
	StateSelectIRScan:   {StateCaptureIR, StateTestLogicReset},
	StateCaptureIR:      {StateShiftIR, StateExit1IR},
	StateShiftIR:        {StateShiftIR, StateExit1IR},
	StateExit1IR:        {StatePauseIR, StateUpdateIR},
	StatePauseIR:        {StatePauseIR, StateExit2IR},
	StateExit2IR:        {StateShiftIR, StateUpdateIR},
	StateUpdateIR:       {StateRunTestIdle, StateSelectDRScan},
}

// NextState returns the state reached after one rising TCK edge with the given
// TMS level. It panics on a state outside the 4-bit encoding; every State
// produced by this package is valid.
func NextState(current State, tms bool) State {
	if !current.Valid() {
		panic(fmt.Sprintf("tap: unhandled state %d", current))
	}
	if tms {
		return transitions[current][1]
	}
	return transitions[current][0]
}

// Sequence captures the TMS drive pattern and the sequence of states that result
// from applying that pattern to the TAP controller. States has one more entry
// than TMS: the starting state comes first.
type Sequence struct {
	TMS    []bool
	States []State
}

// Final returns the state the sequence ends in.
func (s Sequence) Final() State {
	return s.States[len(s.States)-1]
}

// StateMachine mirrors the TAP controller state on the driving side. It performs
// no I/O; it produces the TMS sequences a driver has to clock so the device
// follows along.
type StateMachine struct {
	state State
}

// NewStateMachine creates a TAP state machine initialized to Test-Logic-Reset.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateTestLogicReset}
}

// State reports the current TAP state tracked by the machine.
func (m *StateMachine) State() State {
	return m.state
}

// Clock advances the machine one TCK cycle with the provided TMS bit and
// returns the new state.
func (m *StateMachine) Clock(tms bool) State {
	m.state = NextState(m.state, tms)
	return m.state
}

// Reset clocks five consecutive TMS=1 cycles, which reaches Test-Logic-Reset
// from any state.
func (m *StateMachine) Reset() Sequence {
	seq := Sequence{
		TMS:    make([]bool, 5),
		States: make([]State, 0, 6),
	}
	seq.States = append(seq.States, m.state)
	for i := range seq.TMS {
		seq.TMS[i] = true
		seq.States = append(seq.States, m.Clock(true))
	}
	return seq
}

// GoTo computes the shortest TMS sequence from the current state to target,
// applies it to the machine and returns it.
func (m *StateMachine) GoTo(target State) (Sequence, error) {
	path, err := Path(m.state, target)
	if err != nil {
		return Sequence{}, err
	}
	for _, bit := range path.TMS {
		m.Clock(bit)
	}
	return path, nil
}

// Path runs a breadth-first search over the state diagram and returns the
// shortest sequence leading from one state to another.
func Path(from, to State) (Sequence, error) {
	if !from.Valid() {
		return Sequence{}, fmt.Errorf("tap: invalid start state %d", from)
	}
	if !to.Valid() {
		return Sequence{}, fmt.Errorf("tap: invalid target state %d", to)
	}
	if from == to {
		return Sequence{States: []State{from}}, nil
	}

	var parent [NumStates]pathEdge
	parent[from].seen = true

	queue := []State{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, bit := range []bool{false, true} {
			next := NextState(cur, bit)
			if parent[next].seen {
				continue
			}
			parent[next] = pathEdge{prev: cur, tms: bit, seen: true}
			if next == to {
				return unwind(&parent, from, to), nil
			}
			queue = append(queue, next)
		}
	}

	return Sequence{}, fmt.Errorf("tap: no path from %s to %s", from, to)
}

// pathEdge records how a state was first reached during the search.
type pathEdge struct {
	prev State
	tms  bool
	seen bool
}

func unwind(parent *[NumStates]pathEdge, from, to State) Sequence {
	var tms []bool
	states := []State{to}
	for s := to; s != from; s = parent[s].prev {
		tms = append(tms, parent[s].tms)
		states = append(states, parent[s].prev)
	}
	for i, j := 0, len(tms)-1; i < j; i, j = i+1, j-1 {
		tms[i], tms[j] = tms[j], tms[i]
	}
	for i, j := 0, len(states)-1; i < j; i, j = i+1, j-1 {
		states[i], states[j] = states[j], states[i]
	}
	return Sequence{TMS: tms, States: states}
}
