package vm

import (
	"errors"
	"testing"
)

func TestStackPushPop(t *testing.T) {
	var st btStack
	st.reset(2, 100)

	for i := 0; i < 50; i++ {
		if err := st.push(btEntry{Pos: i, PC: i * 2, CapLevel: i * 3}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if st.size() != 50 {
		t.Errorf("size() = %d, want 50", st.size())
	}
	if top := st.peek(); top.Pos != 49 {
		t.Errorf("peek().Pos = %d, want 49", top.Pos)
	}
	if next := st.below(); next.Pos != 48 {
		t.Errorf("below().Pos = %d, want 48", next.Pos)
	}
	for i := 49; i >= 0; i-- {
		e := st.pop()
		if e.Pos != i || e.PC != i*2 || e.CapLevel != i*3 {
			t.Fatalf("pop() = %+v, want entry %d", e, i)
		}
	}
	if st.maxTop != 50 {
		t.Errorf("maxTop = %d, want 50", st.maxTop)
	}
}

func TestStackPeekIsMutable(t *testing.T) {
	var st btStack
	st.reset(4, 4)
	_ = st.push(btEntry{Pos: 1})
	st.peek().Pos = 7
	if e := st.pop(); e.Pos != 7 {
		t.Errorf("pop().Pos = %d, want 7", e.Pos)
	}
}

func TestStackLimit(t *testing.T) {
	var st btStack
	st.reset(1, 3)
	for i := 0; i < 3; i++ {
		if err := st.push(btEntry{}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := st.push(btEntry{}); !errors.Is(err, ErrStack) {
		t.Errorf("push past limit = %v, want %v", err, ErrStack)
	}
}

func TestStackInlineStorage(t *testing.T) {
	var st btStack
	st.reset(inlineFrames, 1000)
	if &st.frames[0] != &st.init[0] {
		t.Error("initial frames are not inline")
	}
	for i := 0; i <= inlineFrames; i++ {
		_ = st.push(btEntry{Pos: i})
	}
	if &st.frames[0] == &st.init[0] {
		t.Error("frames still inline after overflow")
	}
	st.release()
	if st.size() != 0 || cap(st.frames) != inlineFrames {
		t.Errorf("after release: size %d cap %d, want 0, %d", st.size(), cap(st.frames), inlineFrames)
	}
}
