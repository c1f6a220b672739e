package vm

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/chazu/rpeg/pkg/buf"
	"github.com/chazu/rpeg/pkg/bytecode"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("rpeg.vm")

// Config holds the VM's storage limits. Zero fields take the defaults of
// DefaultConfig.
type Config struct {
	InitialBacktrack int // backtrack frames before growing
	MaxBacktrack     int
	InitialCaptures  int // capture records before growing
	MaxCaptures      int
	InitialCapDepth  int // capture nesting depth before the walker's stack grows
	MaxCapDepth      int
	OutputSize       int // initial output buffer size in bytes
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		InitialBacktrack: 21,
		MaxBacktrack:     65535,
		InitialCaptures:  1000,
		MaxCaptures:      math.MaxInt32,
		InitialCapDepth:  13,
		MaxCapDepth:      65535,
		OutputSize:       buf.InitialSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&c.InitialBacktrack, d.InitialBacktrack)
	fill(&c.MaxBacktrack, d.MaxBacktrack)
	fill(&c.InitialCaptures, d.InitialCaptures)
	fill(&c.MaxCaptures, d.MaxCaptures)
	fill(&c.InitialCapDepth, d.InitialCapDepth)
	fill(&c.MaxCapDepth, d.MaxCapDepth)
	fill(&c.OutputSize, d.OutputSize)
	return c
}

// Validate reports limits that cannot work together.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.InitialBacktrack > c.MaxBacktrack {
		return fmt.Errorf("initial backtrack frames %d exceed maximum %d", c.InitialBacktrack, c.MaxBacktrack)
	}
	if c.InitialCaptures > c.MaxCaptures {
		return fmt.Errorf("initial captures %d exceed maximum %d", c.InitialCaptures, c.MaxCaptures)
	}
	if c.InitialCapDepth > c.MaxCapDepth {
		return fmt.Errorf("initial capture depth %d exceeds maximum %d", c.InitialCapDepth, c.MaxCapDepth)
	}
	return nil
}

// Outcome is the result of running a program.
type Outcome int

const (
	Failed    Outcome = iota // no match
	Completed                // End reached
	Halted                   // Halt reached; the capture list ends with a final sentinel
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case Completed:
		return "completed"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Stats describes the resources used by the most recent match.
type Stats struct {
	Instructions int // instructions executed
	Backtrack    int // maximum backtrack stack height
	CapList      int // maximum capture list length
	CapDepth     int // maximum capture nesting depth seen by the walker
}

// VM executes chunks. A VM owns its backtrack stack, capture list, and
// output buffer and reuses them across matches, so it must not be used by
// more than one goroutine at a time. Chunks may be shared freely.
type VM struct {
	cfg   Config
	stack btStack
	caps  []Capture
	walk  []walkFrame
	out   *buf.Buffer
	stats Stats

	// CollectTimes adds match timings to each Match result.
	CollectTimes bool

	// Debug/trace mode
	Trace    bool
	TraceOut io.Writer
}

// NewVM creates a VM with the given limits.
func NewVM(cfg Config) *VM {
	cfg = cfg.withDefaults()
	return &VM{
		cfg: cfg,
		out: buf.New(cfg.OutputSize),
	}
}

// Config returns the VM's effective limits.
func (vm *VM) Config() Config {
	return vm.cfg
}

// Stats returns statistics for the most recent match.
func (vm *VM) Stats() Stats {
	return vm.stats
}

// Captures returns the capture list left by the most recent Execute. The
// slice is only valid until the next call on the VM.
func (vm *VM) Captures() []Capture {
	return vm.caps
}

func (vm *VM) resetCaptures() {
	if cap(vm.caps) != vm.cfg.InitialCaptures {
		vm.caps = make([]Capture, 0, vm.cfg.InitialCaptures)
	}
	vm.caps = vm.caps[:0]
}

// releaseCaptures drops a capture list that grew past its initial size.
func (vm *VM) releaseCaptures() {
	if cap(vm.caps) > vm.cfg.InitialCaptures {
		vm.caps = nil
	}
}

func (vm *VM) growCaptures() error {
	n := cap(vm.caps)
	if n >= vm.cfg.MaxCaptures {
		log.Debugf("capture list limit reached (%d captures)", vm.cfg.MaxCaptures)
		return ErrCap
	}
	newcap := max(1, min(2*n, vm.cfg.MaxCaptures))
	caps := make([]Capture, len(vm.caps), newcap)
	copy(caps, vm.caps)
	vm.caps = caps
	log.Debugf("capture list grown to %d captures", newcap)
	return nil
}

func (vm *VM) pushCapture(c Capture) error {
	if len(vm.caps) == cap(vm.caps) {
		if err := vm.growCaptures(); err != nil {
			return err
		}
	}
	vm.caps = append(vm.caps, c)
	if len(vm.caps) > vm.stats.CapList {
		vm.stats.CapList = len(vm.caps)
	}
	return nil
}

// Execute runs the chunk over input[start:end] (0-based, end exclusive).
// Lookbehind may inspect bytes before start. It returns the outcome and,
// unless the outcome is Failed, the 0-based position where matching
// stopped. The capture list is available from Captures.
func (vm *VM) Execute(c *bytecode.Chunk, input []byte, start, end int) (Outcome, int, error) {
	if start < 0 || start > len(input) {
		return Failed, 0, ErrStartPos
	}
	if end < start || end > len(input) {
		return Failed, 0, ErrEndPos
	}
	if err := c.Verify(); err != nil {
		return Failed, 0, fmt.Errorf("%w: %v", ErrBadInst, err)
	}

	vm.stats = Stats{}
	vm.resetCaptures()
	vm.stack.reset(vm.cfg.InitialBacktrack, vm.cfg.MaxBacktrack)
	defer func() {
		vm.stats.Backtrack = vm.stack.maxTop
		vm.stack.release()
	}()

	return vm.run(c, input, start, end)
}

// run is the main execution loop.
func (vm *VM) run(c *bytecode.Chunk, input []byte, start, end int) (Outcome, int, error) {
	code := c.Code
	st := &vm.stack
	s := start
	pc := 0

	if err := st.push(btEntry{Pos: s, PC: giveupPC, CapLevel: 0}); err != nil {
		return Failed, 0, err
	}

	for {
		inst := code[pc]
		op := inst.Op()
		vm.stats.Instructions++

		if vm.Trace {
			vm.trace(pc, op, s)
		}

		fail := false
		switch op {
		// ============ Termination ============
		case bytecode.OpEnd:
			return Completed, s, nil

		case bytecode.OpHalt:
			if err := vm.pushCapture(Capture{Pos: s, Kind: bytecode.CapFinal}); err != nil {
				return Failed, 0, err
			}
			return Halted, s, nil

		case bytecode.OpGiveup:
			return Failed, 0, nil

		// ============ Matching ============
		case bytecode.OpAny:
			if s < end {
				s++
				pc++
			} else {
				fail = true
			}

		case bytecode.OpTestAny:
			if s < end {
				pc += 2
			} else {
				pc += code[pc+1].Offset()
			}

		case bytecode.OpChar:
			if s < end && input[s] == byte(inst.Aux()) {
				s++
				pc++
			} else {
				fail = true
			}

		case bytecode.OpTestChar:
			if s < end && input[s] == byte(inst.Aux()) {
				pc += 2
			} else {
				pc += code[pc+1].Offset()
			}

		case bytecode.OpSet:
			if s < end && bytecode.InCharset(code, pc+1, input[s]) {
				s++
				pc += 1 + bytecode.CharsetWords
			} else {
				fail = true
			}

		case bytecode.OpTestSet:
			if s < end && bytecode.InCharset(code, pc+2, input[s]) {
				pc += 2 + bytecode.CharsetWords
			} else {
				pc += code[pc+1].Offset()
			}

		case bytecode.OpSpan:
			for s < end && bytecode.InCharset(code, pc+1, input[s]) {
				s++
			}
			pc += 1 + bytecode.CharsetWords

		case bytecode.OpBehind:
			n := int(inst.Aux())
			if n > s {
				fail = true
			} else {
				s -= n
				pc++
			}

		case bytecode.OpBackref:
			from, to, ok := findPriorCapture(vm.caps, inst.Aux())
			if ok && to < from {
				log.Debugf("backreference at %04X closes before it opens (%d < %d)", pc, to, from)
				return Failed, 0, fmt.Errorf("%w: backreference at %04X closes at %d before its open at %d", ErrImpl, pc, to, from)
			}
			n := to - from
			if ok && end-s >= n && string(input[s:s+n]) == string(input[from:to]) {
				s += n
				pc++
			} else {
				fail = true
			}

		// ============ Control flow ============
		case bytecode.OpJmp:
			pc += code[pc+1].Offset()

		case bytecode.OpChoice:
			if err := st.push(btEntry{Pos: s, PC: pc + code[pc+1].Offset(), CapLevel: len(vm.caps)}); err != nil {
				return Failed, 0, err
			}
			pc += 2

		case bytecode.OpCall:
			if err := st.push(btEntry{Pos: callFrame, PC: pc + 2, CapLevel: len(vm.caps)}); err != nil {
				return Failed, 0, err
			}
			pc += code[pc+1].Offset()

		case bytecode.OpRet:
			if st.size() < 2 {
				return Failed, 0, vm.underflow(pc, op)
			}
			pc = st.pop().PC

		case bytecode.OpCommit:
			if st.size() < 2 {
				return Failed, 0, vm.underflow(pc, op)
			}
			st.pop()
			pc += code[pc+1].Offset()

		case bytecode.OpPartialCommit:
			if st.size() < 2 {
				return Failed, 0, vm.underflow(pc, op)
			}
			top := st.peek()
			top.Pos = s
			top.CapLevel = len(vm.caps)
			pc += code[pc+1].Offset()

		case bytecode.OpBackCommit:
			if st.size() < 2 {
				return Failed, 0, vm.underflow(pc, op)
			}
			f := st.pop()
			s = f.Pos
			vm.caps = vm.caps[:f.CapLevel]
			pc += code[pc+1].Offset()

		case bytecode.OpFailTwice:
			if st.size() < 2 {
				return Failed, 0, vm.underflow(pc, op)
			}
			st.pop()
			fail = true

		case bytecode.OpFail:
			fail = true

		// ============ Captures ============
		case bytecode.OpOpenCapture:
			kind := bytecode.CapKind(code[pc+1])
			if err := vm.pushCapture(Capture{Pos: s, Kind: kind, Key: inst.Aux()}); err != nil {
				return Failed, 0, err
			}
			pc += 2

		case bytecode.OpCloseCapture:
			if err := vm.pushCapture(Capture{Pos: s, Kind: bytecode.CapClose}); err != nil {
				return Failed, 0, err
			}
			pc++

		case bytecode.OpCloseConstCapture:
			if err := vm.pushCapture(Capture{Pos: s, Kind: bytecode.CapCloseConst, Key: inst.Aux()}); err != nil {
				return Failed, 0, err
			}
			pc++

		default:
			return Failed, 0, fmt.Errorf("%w: %s at %04X", ErrBadInst, op, pc)
		}

		if fail {
			// Unwind to the nearest choice frame, discarding call frames.
			var f btEntry
			for {
				if st.size() == 0 {
					return Failed, 0, vm.underflow(pc, op)
				}
				f = st.pop()
				if f.Pos != callFrame {
					break
				}
			}
			if f.PC == giveupPC {
				return Failed, 0, nil
			}
			s = f.Pos
			pc = f.PC
			vm.caps = vm.caps[:f.CapLevel]
		}
	}
}

func (vm *VM) underflow(pc int, op bytecode.Opcode) error {
	log.Debugf("backtrack stack underflow at %04X (%s)", pc, op)
	return fmt.Errorf("%w: backtrack stack underflow at %04X (%s)", ErrImpl, pc, op)
}

func (vm *VM) trace(pc int, op bytecode.Opcode, s int) {
	w := vm.TraceOut
	if w == nil {
		w = os.Stderr
	}
	st := &vm.stack
	fmt.Fprintf(w, "[%04X] %-20s s=%d stack=%d caps=%d", pc, op, s, st.size(), len(vm.caps))
	if st.size() > 0 {
		top := st.peek()
		fmt.Fprintf(w, " top={s=%d pc=%d}", top.Pos, top.PC)
	}
	if st.size() > 1 {
		next := st.below()
		fmt.Fprintf(w, " below={s=%d pc=%d}", next.Pos, next.PC)
	}
	fmt.Fprintln(w)
}
