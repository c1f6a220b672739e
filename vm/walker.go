package vm

import (
	"github.com/chazu/rpeg/pkg/buf"
	"github.com/chazu/rpeg/pkg/bytecode"
	"github.com/chazu/rpeg/pkg/ktable"
)

// WalkStatus reports how a capture walk ended.
type WalkStatus int

const (
	WalkOK     WalkStatus = iota
	WalkHalted            // the walk met the final sentinel left by Halt
)

// CapState is the walker state visible to an encoder.
type CapState struct {
	Caps   []Capture
	Ktable *ktable.Table
	Input  []byte
	Out    *buf.Buffer
	Idx    int // index of the current capture

	// Start and End bound the subject the match ran over, 0-based with End
	// exclusive. Input may extend beyond them.
	Start, End int

	afterOpen bool
	synthetic bool
	synth     Capture
}

// Cap returns the current capture. While unwinding after a final
// sentinel this is a synthetic close at the sentinel's position.
func (cs *CapState) Cap() Capture {
	if cs.synthetic {
		return cs.synth
	}
	return cs.Caps[cs.Idx]
}

// NextIsOpen reports whether the capture after the current one opens a
// capture, i.e. whether the current open has children.
func (cs *CapState) NextIsOpen() bool {
	return cs.Idx+1 < len(cs.Caps) && cs.Caps[cs.Idx+1].IsOpen()
}

// AfterOpen reports whether the previous walker event was an open.
func (cs *CapState) AfterOpen() bool {
	return cs.afterOpen
}

// Name returns the ktable entry for key, or nil.
func (cs *CapState) Name(key uint32) []byte {
	name, _ := cs.Ktable.Name(int(key))
	return name
}

// Encoder receives walker events. Open is called with the number of
// earlier siblings; Close with the same count and the start position saved
// at the open (-1 for constant captures).
type Encoder interface {
	Open(cs *CapState, count int) error
	Close(cs *CapState, count, start int) error
}

// Finisher is implemented by encoders that emit output after the walk.
type Finisher interface {
	Finish(cs *CapState) error
}

type walkFrame struct {
	start int
	count int
}

func capStart(c Capture) int {
	if c.Kind == bytecode.CapConst {
		return -1
	}
	return c.Pos
}

func (vm *VM) pushWalk(f walkFrame) error {
	if len(vm.walk) >= vm.cfg.MaxCapDepth {
		log.Debugf("capture nesting limit reached (%d)", vm.cfg.MaxCapDepth)
		return ErrCapStack
	}
	if vm.walk == nil {
		vm.walk = make([]walkFrame, 0, vm.cfg.InitialCapDepth)
	}
	vm.walk = append(vm.walk, f)
	if len(vm.walk) > vm.stats.CapDepth {
		vm.stats.CapDepth = len(vm.walk)
	}
	return nil
}

func (vm *VM) popWalk() walkFrame {
	f := vm.walk[len(vm.walk)-1]
	vm.walk = vm.walk[:len(vm.walk)-1]
	return f
}

// walkCaptures replays the first top-level capture of cs.Caps as a
// sequence of nested Open/Close events. Any encoder error ends the walk.
func (vm *VM) walkCaptures(cs *CapState, enc Encoder) (WalkStatus, error) {
	caps := cs.Caps
	cs.Idx = 0
	cs.afterOpen = false
	cs.synthetic = false
	if len(caps) == 0 {
		return WalkOK, nil
	}
	if caps[0].IsFinal() {
		return WalkHalted, nil
	}
	if !caps[0].IsOpen() {
		return WalkOK, ErrOpen
	}

	vm.walk = vm.walk[:0]
	defer func() {
		if cap(vm.walk) > vm.cfg.InitialCapDepth {
			vm.walk = nil
		}
	}()

	count := 0
	if err := vm.pushWalk(walkFrame{start: capStart(caps[0]), count: 0}); err != nil {
		return WalkOK, err
	}
	if err := enc.Open(cs, 0); err != nil {
		return WalkOK, err
	}
	cs.afterOpen = true
	cs.Idx++

	for len(vm.walk) > 0 {
		for cs.Idx < len(caps) && caps[cs.Idx].IsOpen() {
			if err := vm.pushWalk(walkFrame{start: capStart(caps[cs.Idx]), count: count}); err != nil {
				return WalkOK, err
			}
			if err := enc.Open(cs, count); err != nil {
				return WalkOK, err
			}
			cs.afterOpen = true
			count = 0
			cs.Idx++
		}
		if cs.Idx >= len(caps) {
			return WalkOK, ErrClose
		}

		f := vm.popWalk()
		count = f.count

		if caps[cs.Idx].IsFinal() {
			// Close everything still open at the sentinel's position.
			cs.synth = Capture{Pos: caps[cs.Idx].Pos, Kind: bytecode.CapClose}
			cs.synthetic = true
			if err := enc.Close(cs, f.count, f.start); err != nil {
				return WalkOK, err
			}
			cs.afterOpen = false
			for len(vm.walk) > 0 {
				f = vm.popWalk()
				if err := enc.Close(cs, f.count, f.start); err != nil {
					return WalkOK, err
				}
			}
			return WalkHalted, nil
		}

		if err := enc.Close(cs, f.count, f.start); err != nil {
			return WalkOK, err
		}
		cs.afterOpen = false
		cs.Idx++
		count++
	}
	return WalkOK, nil
}
