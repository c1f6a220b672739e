package buf

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func filled(s string) *Buffer {
	b := New(0)
	if err := b.AppendString(s); err != nil {
		panic(err)
	}
	return b
}

func TestNewBufferUsesInlineStorage(t *testing.T) {
	b := New(0)
	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
	if b.Cap() != InitialSize {
		t.Errorf("Cap() = %d, want %d", b.Cap(), InitialSize)
	}
	if b.Info() != 0 {
		t.Errorf("Info() = %d, want 0", b.Info())
	}
}

func TestNewBufferLargeMinimum(t *testing.T) {
	b := New(3 * InitialSize)
	if b.Cap() != 3*InitialSize {
		t.Errorf("Cap() = %d, want %d", b.Cap(), 3*InitialSize)
	}
	if b.Info()&IsDynamic == 0 {
		t.Error("expected dynamic storage")
	}
}

func TestZeroValueBuffer(t *testing.T) {
	var b Buffer
	if err := b.AppendString("abc"); err != nil {
		t.Fatalf("AppendString: %v", err)
	}
	if b.String() != "abc" {
		t.Errorf("String() = %q, want %q", b.String(), "abc")
	}
}

func TestGrowthDoubles(t *testing.T) {
	b := New(0)
	chunk := bytes.Repeat([]byte{'x'}, InitialSize)
	if err := b.Append(chunk); err != nil {
		t.Fatal(err)
	}
	if b.Info()&IsDynamic != 0 {
		t.Error("exact fill should stay inline")
	}
	if err := b.AppendByte('y'); err != nil {
		t.Fatal(err)
	}
	if b.Cap() != 2*InitialSize {
		t.Errorf("Cap() = %d, want %d", b.Cap(), 2*InitialSize)
	}
	if b.Len() != InitialSize+1 {
		t.Errorf("Len() = %d, want %d", b.Len(), InitialSize+1)
	}
}

func TestGrowthExactFitForLargeAppend(t *testing.T) {
	b := filled("ab")
	big := bytes.Repeat([]byte{'z'}, 5*InitialSize)
	if err := b.Append(big); err != nil {
		t.Fatal(err)
	}
	if want := 2 + 5*InitialSize; b.Cap() != want {
		t.Errorf("Cap() = %d, want %d", b.Cap(), want)
	}
	if !bytes.HasPrefix(b.Bytes(), []byte("abzz")) {
		t.Errorf("content lost on growth")
	}
}

func TestPrepareAdvance(t *testing.T) {
	b := New(0)
	space, err := b.Prepare(3)
	if err != nil {
		t.Fatal(err)
	}
	copy(space, "xyz")
	b.Advance(3)
	if b.String() != "xyz" {
		t.Errorf("String() = %q, want %q", b.String(), "xyz")
	}
}

func TestViewIsImmutable(t *testing.T) {
	data := []byte("hello")
	v := FromBytes(data)
	if v.Info()&IsView == 0 {
		t.Error("expected view flag")
	}
	if err := v.AppendString("!"); !errors.Is(err, ErrView) {
		t.Errorf("AppendString on view: err = %v, want %v", err, ErrView)
	}
	if _, err := v.Prepare(1); !errors.Is(err, ErrView) {
		t.Errorf("Prepare on view: err = %v, want %v", err, ErrView)
	}
	v.Reset()
	v.Free()
	if v.String() != "hello" {
		t.Errorf("view content changed to %q", v.String())
	}
	if string(data) != "hello" {
		t.Errorf("caller data changed to %q", data)
	}
}

func TestResetReuseMatchesFreshBuffer(t *testing.T) {
	appends := func(b *Buffer) {
		b.AppendString("{\"type\":")
		b.AppendInt32(-42)
		b.AppendInt16(7)
		b.Append(bytes.Repeat([]byte("q"), InitialSize+10))
		b.AppendByte('}')
	}

	reused := New(0)
	reused.AppendString(strings.Repeat("garbage", 3000))
	capBefore := reused.Cap()
	reused.Reset()
	if reused.Cap() != capBefore {
		t.Errorf("Reset released capacity: %d -> %d", capBefore, reused.Cap())
	}
	appends(reused)

	fresh := New(0)
	appends(fresh)

	if !bytes.Equal(reused.Bytes(), fresh.Bytes()) {
		t.Error("reused buffer output differs from fresh buffer output")
	}
}

func TestSubstring(t *testing.T) {
	b := filled("abcdefgh")
	L := b.Len()

	tests := []struct {
		j, k int
		want string
	}{
		{0, 0, "abcdefgh"},
		{-1, -1, "h"},
		{L + 5, L + 5, ""},
		{5, 2, ""},
		{1, 1, "a"},
		{2, 4, "bcd"},
		{-3, 0, "fgh"},
		{-100, 2, "ab"},
		{3, 100, "cdefgh"},
		{1, -2, "abcdefg"},
	}
	for _, tt := range tests {
		if got := string(b.Substring(tt.j, tt.k)); got != tt.want {
			t.Errorf("Substring(%d, %d) = %q, want %q", tt.j, tt.k, got, tt.want)
		}
	}
}

func TestSubstringEmptyBuffer(t *testing.T) {
	b := New(0)
	if got := b.Substring(0, 0); len(got) != 0 {
		t.Errorf("Substring(0,0) on empty = %q", got)
	}
}

func TestIntCodecs(t *testing.T) {
	b := New(0)
	b.AppendInt32(-1)
	b.AppendInt32(0x01020304)
	b.AppendInt16(-2)
	b.AppendInt16(0x0102)

	p := b.Bytes()
	if want := []byte{0xff, 0xff, 0xff, 0xff, 4, 3, 2, 1, 0xfe, 0xff, 2, 1}; !bytes.Equal(p, want) {
		t.Fatalf("encoding = %v, want %v", p, want)
	}

	var i32 int32
	var i16 int16
	i32, p = ReadInt32(p)
	if i32 != -1 {
		t.Errorf("ReadInt32 = %d, want -1", i32)
	}
	if got := PeekInt32(p); got != 0x01020304 {
		t.Errorf("PeekInt32 = %#x, want 0x01020304", got)
	}
	_, p = ReadInt32(p)
	i16, p = ReadInt16(p)
	if i16 != -2 {
		t.Errorf("ReadInt16 = %d, want -2", i16)
	}
	if got := PeekInt16(p); got != 0x0102 {
		t.Errorf("PeekInt16 = %#x, want 0x0102", got)
	}
}

func TestWriteLenAndRead(t *testing.T) {
	src := filled("payload")
	var out bytes.Buffer
	if err := src.WriteLen(&out); err != nil {
		t.Fatal(err)
	}
	if _, err := src.WriteTo(&out); err != nil {
		t.Fatal(err)
	}

	n, err := ReadLen(&out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("ReadLen = %d, want 7", n)
	}
	got, err := Read(&out, n)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "payload" {
		t.Errorf("Read = %q, want %q", got.String(), "payload")
	}
}

func TestReadShort(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("abc")), 10); !errors.Is(err, ErrRead) {
		t.Errorf("err = %v, want %v", err, ErrRead)
	}
	if _, err := ReadLen(bytes.NewReader([]byte{1})); !errors.Is(err, ErrRead) {
		t.Errorf("err = %v, want %v", err, ErrRead)
	}
}

func TestFreeReturnsToInline(t *testing.T) {
	b := New(0)
	b.Append(bytes.Repeat([]byte{'a'}, 2*InitialSize))
	b.Free()
	if b.Info()&IsDynamic != 0 || b.Len() != 0 || b.Cap() != InitialSize {
		t.Errorf("after Free: info=%d len=%d cap=%d", b.Info(), b.Len(), b.Cap())
	}
}

func TestErrorMessages(t *testing.T) {
	for e := OK; e <= ErrView; e++ {
		if e.Error() == "" {
			t.Errorf("Error(%d) has no message", e)
		}
	}
}
