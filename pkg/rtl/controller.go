package rtl

import (
	"log/slog"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/tap"
)

// Stats counts scheduler activity since construction.
type Stats struct {
	Evaluations  uint64
	Commits      uint64
	RisingEdges  uint64 // TCK
	FallingEdges uint64 // TCK
	Resets       uint64 // TRST_N assertions
}

// Probe observes a Controller. Sample is called after every successful
// Eval with the pins that were evaluated, the decoded outputs and the
// committed state.
type Probe interface {
	Sample(in Inputs, out Outputs, state tap.State)
}

// Controller is a pin-level model of an IEEE 1149.1 TAP controller with a
// 5-bit instruction register, a 64-bit data register and a bypass bit.
//
// Callers assign input pins with SetInputs, call Eval and read Outputs.
// A Controller is not safe for concurrent use.
type Controller struct {
	cfg     Config
	design  tapDesign
	sched   *Scheduler
	pending Inputs
}

// New builds a controller in its power-on state. TRST_N starts high and
// every other pin low.
func New(opts ...Option) (*Controller, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:   *cfg,
		sched: NewScheduler(cfg.IterationLimit, cfg.Logger),
	}
	c.design = tapDesign{
		lengths: &c.cfg.Lengths,
		idcode:  cfg.IDCode,
		log:     cfg.Logger,
	}
	c.pending = Inputs{TRSTn: 1}
	c.design.pins = c.pending
	c.ResetToPowerOnDefaults()
	return c, nil
}

// ResetToPowerOnDefaults seeds every register with its simulation default:
// zero, or the pseudo-random contents chosen by WithRandomInit. The same
// seed always yields the same contents. The next Eval samples the pins
// afresh, so no edge is seen on it.
func (c *Controller) ResetToPowerOnDefaults() {
	var regs Registers
	if c.cfg.RandomInit {
		regs = randomRegisters(rand.New(rand.NewPCG(c.cfg.Seed, c.cfg.Seed^0x9E3779B97F4A7C15)))
	}
	c.design.regs.load(regs)
	c.design.out = decode(regs, c.design.lengths)
	c.sched.Reinitialize()
}

// SetInputs assigns every input pin. The values take effect at the next Eval.
func (c *Controller) SetInputs(in Inputs) {
	c.pending = in
}

// Inputs returns the pin values that the next Eval will use.
func (c *Controller) Inputs() Inputs {
	return c.pending
}

// Eval settles the controller for the assigned pins. An out-of-range pin is
// reported as a *WidthError before anything is evaluated; the assignment
// is discarded and the previous pins stay in force. A *ConvergenceError is
// fatal and every later call returns ErrHalted.
func (c *Controller) Eval() error {
	if c.sched.Halted() {
		return errors.WithStack(ErrHalted)
	}
	if err := c.pending.validate(); err != nil {
		c.pending = c.design.pins
		return errors.WithStack(err)
	}
	c.design.pins = c.pending
	c.design.stats.Evaluations++
	if err := c.sched.Eval(&c.design); err != nil {
		return err
	}
	if c.cfg.Probe != nil {
		c.cfg.Probe.Sample(c.design.pins, c.design.out, c.design.regs.cur.State)
	}
	return nil
}

// Clock drives one TCK period: TMS and TDI are applied, TDO is sampled,
// then TCK rises and falls with an Eval after each edge. TCK is left low.
// The returned TDO is the value presented before the rising edge.
func (c *Controller) Clock(tms, tdi Bit) (Bit, error) {
	in := c.pending
	in.TMS, in.TDI = tms, tdi

	// The rising edge is only seen against a low sample.
	if !c.sched.initialized || c.design.pins.TCK != 0 {
		in.TCK = 0
		c.SetInputs(in)
		if err := c.Eval(); err != nil {
			return 0, err
		}
	}

	in.TCK = 1
	tdo := c.design.out.TDO
	c.SetInputs(in)
	if err := c.Eval(); err != nil {
		return tdo, err
	}

	in.TCK = 0
	c.SetInputs(in)
	return tdo, c.Eval()
}

// Outputs returns the decoded output pins.
func (c *Controller) Outputs() Outputs {
	return c.design.out
}

// State returns the committed TAP state.
func (c *Controller) State() tap.State {
	return c.design.regs.cur.State
}

// Registers returns a copy of the committed register bank.
func (c *Controller) Registers() Registers {
	return c.design.regs.cur
}

// Stats returns activity counters.
func (c *Controller) Stats() Stats {
	return c.design.stats
}

// IDCode returns the value captured by the IDCODE instruction.
func (c *Controller) IDCode() uint32 {
	return c.cfg.IDCode
}

// Lengths returns the DR length table.
func (c *Controller) Lengths() LengthTable {
	return c.cfg.Lengths
}

// IterationLimit returns the per-loop convergence ceiling.
func (c *Controller) IterationLimit() int {
	return c.sched.Limit()
}

// tapDesign is the TAP controller logic evaluated by the scheduler.
type tapDesign struct {
	lengths *LengthTable
	idcode  uint32
	log     *slog.Logger

	pins  Inputs
	regs  bank
	edges edgeDetector
	out   Outputs
	stats Stats
}

func (d *tapDesign) Initialize() {
	d.edges.prime(d.pins)
	d.regs.cur.NextState = tap.NextState(d.regs.cur.State, d.pins.TMS.Bool())
	d.out = decode(d.regs.cur, d.lengths)
}

// Settle recomputes the lookahead state. Nothing combinational depends on
// it, so one pass always suffices.
func (d *tapDesign) Settle(first bool) bool {
	d.regs.cur.NextState = tap.NextState(d.regs.cur.State, d.pins.TMS.Bool())
	return false
}

func (d *tapDesign) Detect() Trigger {
	return d.edges.detect(d.pins)
}

func (d *tapDesign) Stage(t Trigger) {
	cur := d.regs.cur
	next := d.regs.stage()
	in := d.pins

	if t.Any(TriggerPosedgeTCK | TriggerNegedgeTRST) {
		if in.TRSTn == 1 {
			switch cur.State {
			case tap.StateTestLogicReset:
				next.IRHold = InstrIDCode
			case tap.StateCaptureIR:
				next.IRShift = IRCapturePattern
			case tap.StateShiftIR:
				next.IRShift = uint8(in.TDI)<<(IRWidth-1) | cur.IRShift>>1
			case tap.StateUpdateIR:
				next.IRHold = cur.IRShift
			}
			next.State = cur.NextState
		} else {
			// Asynchronous reset wins over every normal update.
			next.IRShift = InstrBypass
			next.IRHold = InstrIDCode
			next.State = tap.StateTestLogicReset
		}
	}

	if t.Has(TriggerPosedgeTCK) {
		switch cur.State {
		case tap.StateCaptureDR:
			switch cur.IRHold {
			case InstrBypass:
				next.Bypass = 0
			case InstrIDCode:
				next.DRShift = cur.DRShift&^0xFFFFFFFF | uint64(d.idcode)
			default:
				next.DRShift = in.DRCaptureData
			}
		case tap.StateShiftDR:
			if cur.IRHold == InstrBypass {
				next.Bypass = in.TDI
			} else {
				next.DRShift = uint64(in.TDI)<<63 | cur.DRShift>>1
			}
		}
	}

	if t.Has(TriggerNegedgeTCK) {
		switch cur.State {
		case tap.StateShiftIR:
			next.TDO = Bit(cur.IRShift & 1)
		case tap.StateShiftDR:
			next.TDO = cur.shiftOut()
		default:
			next.TDO = 0
		}
	}
}

func (d *tapDesign) Commit(t Trigger) {
	prev := d.regs.cur.State
	d.regs.commit()

	cur := &d.regs.cur
	cur.NextState = tap.NextState(cur.State, d.pins.TMS.Bool())
	d.out = decode(*cur, d.lengths)

	d.stats.Commits++
	if t.Has(TriggerPosedgeTCK) {
		d.stats.RisingEdges++
	}
	if t.Has(TriggerNegedgeTCK) {
		d.stats.FallingEdges++
	}
	if t.Has(TriggerNegedgeTRST) {
		d.stats.Resets++
	}
	if cur.State != prev {
		d.log.Debug("tap state", "from", prev.String(), "to", cur.State.String(), "ir", cur.IRHold)
	}
}
