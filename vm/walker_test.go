package vm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chazu/rpeg/pkg/buf"
	"github.com/chazu/rpeg/pkg/bytecode"
	"github.com/chazu/rpeg/pkg/ktable"
)

// eventRecorder records walker events and checks that they nest.
type eventRecorder struct {
	events []string
	depth  int
	err    error
}

func (r *eventRecorder) Open(cs *CapState, count int) error {
	r.depth++
	r.events = append(r.events, fmt.Sprintf("open %s %d", cs.Name(cs.Cap().Key), count))
	return nil
}

func (r *eventRecorder) Close(cs *CapState, count, start int) error {
	r.depth--
	if r.depth < 0 && r.err == nil {
		r.err = errors.New("close without open")
	}
	r.events = append(r.events, fmt.Sprintf("close %d %d..%d", count, start, cs.Cap().Pos))
	return nil
}

func open(pos int, key uint32) Capture {
	return Capture{Pos: pos, Kind: bytecode.CapRosie, Key: key}
}

func closeAt(pos int) Capture {
	return Capture{Pos: pos, Kind: bytecode.CapClose}
}

func walkState(caps []Capture) *CapState {
	kt := ktable.New(0, 0)
	for _, name := range []string{"a", "b", "c"} {
		if _, err := kt.AddString(name); err != nil {
			panic(err)
		}
	}
	return &CapState{Caps: caps, Ktable: kt, Input: []byte("abcdef"), Out: buf.New(0)}
}

func TestWalkEvents(t *testing.T) {
	caps := []Capture{
		open(0, 1),
		open(0, 2), closeAt(1),
		open(1, 2), open(1, 3), closeAt(2), closeAt(2),
		closeAt(3),
		open(4, 1), closeAt(5), // second top-level capture is not walked
	}
	r := &eventRecorder{}
	status, err := NewVM(DefaultConfig()).walkCaptures(walkState(caps), r)
	if err != nil {
		t.Fatalf("walkCaptures error: %v", err)
	}
	if status != WalkOK {
		t.Errorf("status = %v, want WalkOK", status)
	}
	want := []string{
		"open a 0",
		"open b 0", "close 0 0..1",
		"open b 1", "open c 0", "close 0 1..2", "close 1 1..2",
		"close 0 0..3",
	}
	if fmt.Sprint(r.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", r.events, want)
	}
	if r.err != nil || r.depth != 0 {
		t.Errorf("unbalanced events: depth %d, err %v", r.depth, r.err)
	}
}

func TestWalkBalanced(t *testing.T) {
	// Every capture list produced by a successful match walks to a
	// balanced sequence.
	programs := []struct {
		c     *bytecode.Chunk
		input string
	}{
		{wordProgram(), "abc"},
		{pairProgram(), "ab"},
		{constProgram(), "a"},
		{nestedHaltProgram(), "a"},
	}
	for _, p := range programs {
		v := NewVM(DefaultConfig())
		if _, _, err := v.Execute(p.c, []byte(p.input), 0, len(p.input)); err != nil {
			t.Fatalf("Execute error: %v", err)
		}
		r := &eventRecorder{}
		cs := &CapState{Caps: v.Captures(), Ktable: p.c.Ktable, Input: []byte(p.input), Out: buf.New(0)}
		if _, err := v.walkCaptures(cs, r); err != nil {
			t.Fatalf("walkCaptures error: %v", err)
		}
		if r.err != nil || r.depth != 0 {
			t.Errorf("%q: unbalanced events %v", p.input, r.events)
		}
	}
}

func TestWalkConstStart(t *testing.T) {
	caps := []Capture{
		{Pos: 0, Kind: bytecode.CapConst, Key: 1},
		{Pos: 0, Kind: bytecode.CapCloseConst, Key: 2},
	}
	r := &eventRecorder{}
	if _, err := NewVM(DefaultConfig()).walkCaptures(walkState(caps), r); err != nil {
		t.Fatalf("walkCaptures error: %v", err)
	}
	if got := r.events[1]; got != "close 0 -1..0" {
		t.Errorf("close event = %q, want start -1", got)
	}
}

func TestWalkFinal(t *testing.T) {
	caps := []Capture{
		open(0, 1), open(1, 2), closeAt(2), open(2, 3),
		{Pos: 3, Kind: bytecode.CapFinal},
	}
	r := &eventRecorder{}
	status, err := NewVM(DefaultConfig()).walkCaptures(walkState(caps), r)
	if err != nil {
		t.Fatalf("walkCaptures error: %v", err)
	}
	if status != WalkHalted {
		t.Errorf("status = %v, want WalkHalted", status)
	}
	want := []string{
		"open a 0", "open b 0", "close 0 1..2", "open c 1",
		"close 1 2..3", "close 0 0..3",
	}
	if fmt.Sprint(r.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", r.events, want)
	}
}

func TestWalkErrors(t *testing.T) {
	tests := []struct {
		name   string
		caps   []Capture
		status WalkStatus
		err    error
	}{
		{"empty", nil, WalkOK, nil},
		{"final only", []Capture{{Pos: 0, Kind: bytecode.CapFinal}}, WalkHalted, nil},
		{"starts with close", []Capture{closeAt(0)}, WalkOK, ErrOpen},
		{"unclosed", []Capture{open(0, 1), open(0, 2), closeAt(1)}, WalkOK, ErrClose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := NewVM(DefaultConfig()).walkCaptures(walkState(tt.caps), &eventRecorder{})
			if !errors.Is(err, tt.err) && err != tt.err {
				t.Errorf("error = %v, want %v", err, tt.err)
			}
			if status != tt.status {
				t.Errorf("status = %v, want %v", status, tt.status)
			}
		})
	}
}

func TestWalkDepthLimit(t *testing.T) {
	caps := []Capture{open(0, 1), open(0, 2), open(0, 3), closeAt(0), closeAt(0), closeAt(0)}
	v := NewVM(Config{InitialCapDepth: 1, MaxCapDepth: 2})
	_, err := v.walkCaptures(walkState(caps), &eventRecorder{})
	if !errors.Is(err, ErrCapStack) {
		t.Errorf("error = %v, want %v", err, ErrCapStack)
	}

	v = NewVM(Config{InitialCapDepth: 1, MaxCapDepth: 3})
	if _, err := v.walkCaptures(walkState(caps), &eventRecorder{}); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
	if v.Stats().CapDepth != 3 {
		t.Errorf("Stats().CapDepth = %d, want 3", v.Stats().CapDepth)
	}
}

type failingEncoder struct {
	opens int
}

func (f *failingEncoder) Open(*CapState, int) error {
	f.opens++
	if f.opens == 2 {
		return ErrOutputMem
	}
	return nil
}

func (f *failingEncoder) Close(*CapState, int, int) error { return nil }

func TestWalkStopsOnEncoderError(t *testing.T) {
	caps := []Capture{open(0, 1), open(0, 2), closeAt(1), open(1, 3), closeAt(2), closeAt(2)}
	enc := &failingEncoder{}
	_, err := NewVM(DefaultConfig()).walkCaptures(walkState(caps), enc)
	if !errors.Is(err, ErrOutputMem) {
		t.Errorf("error = %v, want %v", err, ErrOutputMem)
	}
	if enc.opens != 2 {
		t.Errorf("opens = %d, want 2", enc.opens)
	}
}
