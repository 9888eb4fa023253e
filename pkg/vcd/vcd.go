// Package vcd writes IEEE 1364 Value Change Dump files.
//
// Variables are declared up front, then values are sampled at increasing
// timestamps. Only values that changed since the previous sample are
// written.
package vcd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Var is a declared signal.
type Var struct {
	Scope string
	Name  string
	Width int

	id    string
	value uint64
	dirty bool
}

// Writer emits a VCD stream. It is not safe for concurrent use.
type Writer struct {
	out       *bufio.Writer
	timescale string
	version   string

	vars    []*Var
	started bool
	now     uint64
	err     error
}

// NewWriter returns a writer using the given timescale, e.g. "1ns".
func NewWriter(w io.Writer, timescale string) *Writer {
	return &Writer{
		out:       bufio.NewWriter(w),
		timescale: timescale,
		version:   "OpenTraceTAP",
	}
}

// Declare adds a variable. All variables must be declared before the first
// Sample.
func (w *Writer) Declare(scope, name string, width int) (*Var, error) {
	if w.started {
		return nil, fmt.Errorf("vcd: declare %s after first sample", name)
	}
	if width < 1 || width > 64 {
		return nil, fmt.Errorf("vcd: %s width %d out of range", name, width)
	}
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return nil, fmt.Errorf("vcd: invalid variable name %q", name)
	}
	v := &Var{Scope: scope, Name: name, Width: width, id: identifier(len(w.vars))}
	w.vars = append(w.vars, v)
	return v, nil
}

// Set stages a new value for v. It is written at the next Sample.
func (w *Writer) Set(v *Var, value uint64) {
	if v.Width < 64 {
		value &= 1<<uint(v.Width) - 1
	}
	if value != v.value || !w.started {
		v.value = value
		v.dirty = true
	}
}

// Sample writes every staged change at time t. The first call writes the
// header and dumps all values. Timestamps must not decrease.
func (w *Writer) Sample(t uint64) error {
	if w.err != nil {
		return w.err
	}
	if !w.started {
		if len(w.vars) == 0 {
			return fmt.Errorf("vcd: no variables declared")
		}
		w.writeHeader()
		w.printf("#%d\n$dumpvars\n", t)
		for _, v := range w.vars {
			w.writeValue(v)
		}
		w.printf("$end\n")
		w.started = true
		w.now = t
		return w.err
	}
	if t < w.now {
		return fmt.Errorf("vcd: time %d before %d", t, w.now)
	}

	stamped := false
	for _, v := range w.vars {
		if !v.dirty {
			continue
		}
		if !stamped {
			w.printf("#%d\n", t)
			stamped = true
		}
		w.writeValue(v)
	}
	w.now = t
	return w.err
}

// Now returns the timestamp of the last sample.
func (w *Writer) Now() uint64 {
	return w.now
}

// Flush writes buffered output.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.out.Flush()
}

func (w *Writer) writeHeader() {
	w.printf("$version %s $end\n", w.version)
	w.printf("$timescale %s $end\n", w.timescale)

	scope := ""
	for _, v := range w.vars {
		if v.Scope != scope {
			if scope != "" {
				w.printf("$upscope $end\n")
			}
			if v.Scope != "" {
				w.printf("$scope module %s $end\n", v.Scope)
			}
			scope = v.Scope
		}
		ref := v.Name
		if v.Width > 1 {
			ref += fmt.Sprintf(" [%d:0]", v.Width-1)
		}
		w.printf("$var wire %d %s %s $end\n", v.Width, v.id, ref)
	}
	if scope != "" {
		w.printf("$upscope $end\n")
	}
	w.printf("$enddefinitions $end\n")
}

func (w *Writer) writeValue(v *Var) {
	v.dirty = false
	if v.Width == 1 {
		w.printf("%d%s\n", v.value&1, v.id)
		return
	}
	w.printf("b%s %s\n", strconv.FormatUint(v.value, 2), v.id)
}

func (w *Writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.out, format, args...)
}

// identifier returns the short code for the n-th variable, using the
// printable characters '!' through '~'.
func identifier(n int) string {
	const first, count = '!', '~' - '!' + 1
	var b []byte
	for {
		b = append(b, byte(first+n%count))
		n /= count
		if n == 0 {
			break
		}
		n--
	}
	return string(b)
}
