package vm

import (
	"time"

	"github.com/chazu/rpeg/pkg/bytecode"
)

// Match is the result of VM.Match.
type Match struct {
	Matched  bool
	Abend    bool // the match ended at a Halt instruction
	Leftover int  // bytes between the match end (or the start, on failure) and the end position

	// Data holds the encoded captures. It is nil when there was no match
	// and for the status encoding, and non-nil (possibly empty) otherwise.
	// It aliases the VM's output buffer and is valid until the next match.
	Data []byte

	// Timings are added to, not replaced, when the VM collects times.
	TotalTime time.Duration
	MatchTime time.Duration

	Stats Stats
}

// Match runs the chunk over input and encodes the captures of a successful
// match. start and end are 1-based; 0 selects the start or the end of the
// input respectively. m is updated in place.
//
// A nil error with m.Matched false means the pattern did not match.
func (vm *VM) Match(c *bytecode.Chunk, input []byte, start, end int, enc Encoding, m *Match) error {
	if start != 0 {
		start--
	}
	if end == 0 {
		end = len(input)
	} else {
		end--
	}
	if start < 0 || start > len(input) {
		return ErrStartPos
	}
	if end < start || end > len(input) {
		return ErrEndPos
	}
	encoder, err := newEncoder(enc)
	if err != nil {
		return err
	}

	var t0 time.Time
	if vm.CollectTimes {
		t0 = time.Now()
	}

	outcome, pos, err := vm.Execute(c, input, start, end)
	defer vm.releaseCaptures()
	m.Stats = vm.stats
	if err != nil {
		return err
	}

	var matchDone time.Time
	if vm.CollectTimes {
		matchDone = time.Now()
		m.MatchTime += matchDone.Sub(t0)
	}

	if outcome == Failed {
		m.Matched = false
		m.Abend = false
		m.Data = nil
		m.Leftover = end - start
		if vm.CollectTimes {
			m.TotalTime += matchDone.Sub(t0)
		}
		return nil
	}

	m.Matched = true
	m.Abend = outcome == Halted
	m.Leftover = end - pos
	m.Data = nil
	if encoder != nil {
		vm.out.Reset()
		cs := &CapState{Caps: vm.caps, Ktable: c.Ktable, Input: input, Out: vm.out, Start: start, End: end}
		status, err := vm.walkCaptures(cs, encoder)
		m.Stats = vm.stats
		if err != nil {
			return err
		}
		if f, ok := encoder.(Finisher); ok {
			if err := f.Finish(cs); err != nil {
				return err
			}
		}
		m.Abend = m.Abend || status == WalkHalted
		m.Data = vm.out.Bytes()
	}

	if vm.CollectTimes {
		m.TotalTime += time.Since(t0)
	}
	return nil
}
