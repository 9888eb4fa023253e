package rtl

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/OpenTraceLab/OpenTraceTAP/pkg/bsdl"
)

// Config controls how a Controller is built.
type Config struct {
	IterationLimit int         // passes per scheduler loop (default: 100)
	Lengths        LengthTable // DR length per instruction
	IDCode         uint32      // value captured by IDCODE

	// RandomInit seeds power-on register contents from Seed instead of
	// zeroing them.
	RandomInit bool
	Seed       uint64

	Logger *slog.Logger
	Probe  Probe // sampled after every successful Eval
}

// DefaultConfig returns the configuration of the built-in device.
func DefaultConfig() *Config {
	return &Config{
		IterationLimit: DefaultIterationLimit,
		Lengths:        DefaultLengths(),
		IDCode:         DefaultIDCode,
	}
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.IterationLimit < 1 {
		return fmt.Errorf("rtl: iteration limit must be positive, got %d", c.IterationLimit)
	}
	if err := c.Lengths.Validate(); err != nil {
		return err
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	return nil
}

// Option adjusts a Config.
type Option func(*Config) error

// WithIterationLimit overrides the per-loop convergence ceiling.
func WithIterationLimit(n int) Option {
	return func(c *Config) error {
		c.IterationLimit = n
		return nil
	}
}

// WithLengthTable replaces the DR length table.
func WithLengthTable(t LengthTable) Option {
	return func(c *Config) error {
		c.Lengths = t
		return nil
	}
}

// WithIDCode sets the value captured by the IDCODE instruction.
func WithIDCode(id uint32) Option {
	return func(c *Config) error {
		c.IDCode = id
		return nil
	}
}

// WithRandomInit fills registers with deterministic pseudo-random contents
// at power-on.
func WithRandomInit(seed uint64) Option {
	return func(c *Config) error {
		c.RandomInit = true
		c.Seed = seed
		return nil
	}
}

// WithLogger attaches a logger. Trigger sets and state changes are logged at
// debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithProbe attaches a probe that observes the pins after every Eval.
func WithProbe(p Probe) Option {
	return func(c *Config) error {
		c.Probe = p
		return nil
	}
}

// WithDevice takes the IDCODE and DR length table from a device
// description.
func WithDevice(entity *bsdl.Entity) Option {
	return func(c *Config) error {
		if entity == nil {
			return fmt.Errorf("rtl: nil device description")
		}
		id, err := entity.IDCode()
		if err != nil {
			return err
		}
		lengths, err := LengthTableFromBSDL(entity)
		if err != nil {
			return err
		}
		c.IDCode = id
		c.Lengths = lengths
		return nil
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
