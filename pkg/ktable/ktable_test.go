package ktable

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func build(t *testing.T, names ...string) *Table {
	t.Helper()
	kt := New(0, 0)
	for _, n := range names {
		if _, err := kt.AddString(n); err != nil {
			t.Fatalf("AddString(%q): %v", n, err)
		}
	}
	return kt
}

func nameOf(t *testing.T, kt *Table, i int) string {
	t.Helper()
	name, ok := kt.Name(i)
	if !ok {
		t.Fatalf("Name(%d) not found", i)
	}
	return string(name)
}

func TestAddAndName(t *testing.T) {
	kt := New(0, 0)
	for i, s := range []string{"alpha", "", "beta"} {
		idx, err := kt.AddString(s)
		if err != nil {
			t.Fatal(err)
		}
		if idx != i+1 {
			t.Errorf("AddString(%q) = %d, want %d", s, idx, i+1)
		}
	}
	if kt.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", kt.Len())
	}
	if got := nameOf(t, kt, 1); got != "alpha" {
		t.Errorf("Name(1) = %q", got)
	}
	if got := nameOf(t, kt, 2); got != "" {
		t.Errorf("Name(2) = %q, want empty", got)
	}
	if got := nameOf(t, kt, 3); got != "beta" {
		t.Errorf("Name(3) = %q", got)
	}
}

func TestNameOutOfRange(t *testing.T) {
	kt := build(t, "a")
	for _, i := range []int{-1, 0, 2} {
		if _, ok := kt.Name(i); ok {
			t.Errorf("Name(%d) found, want not found", i)
		}
	}
	var nilTable *Table
	if _, ok := nilTable.Name(1); ok {
		t.Error("Name on nil table found")
	}
	if nilTable.Len() != 0 {
		t.Error("Len on nil table nonzero")
	}
}

func TestAddTruncatesLongStrings(t *testing.T) {
	kt := New(0, 0)
	long := strings.Repeat("n", MaxElementLen+100)
	idx, err := kt.AddString(long)
	if err != nil {
		t.Fatal(err)
	}
	if got := nameOf(t, kt, idx); len(got) != MaxElementLen {
		t.Errorf("stored length = %d, want %d", len(got), MaxElementLen)
	}
}

func TestGrowth(t *testing.T) {
	kt := New(2, 4)
	var want []string
	for i := 0; i < 200; i++ {
		s := strings.Repeat(string(rune('a'+i%26)), i%7+1)
		want = append(want, s)
		if _, err := kt.AddString(s); err != nil {
			t.Fatal(err)
		}
	}
	for i, s := range want {
		if got := nameOf(t, kt, i+1); got != s {
			t.Errorf("Name(%d) = %q, want %q", i+1, got, s)
		}
	}
}

func TestNilTableAdd(t *testing.T) {
	var kt *Table
	if _, err := kt.AddString("x"); !errors.Is(err, ErrNull) {
		t.Errorf("err = %v, want %v", err, ErrNull)
	}
}

func TestConcat(t *testing.T) {
	dst := build(t, "a", "b")
	src := build(t, "c", "d", "e")
	n, err := Concat(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Concat = %d, want 2", n)
	}
	if dst.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", dst.Len())
	}
	for i := 1; i <= src.Len(); i++ {
		if nameOf(t, dst, i+n) != nameOf(t, src, i) {
			t.Errorf("dst[%d] != src[%d]", i+n, i)
		}
	}
}

func TestConcatEmptySource(t *testing.T) {
	dst := build(t, "a", "b")
	n, err := Concat(New(0, 0), dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Concat of empty source = %d, want 0", n)
	}
	if dst.Len() != 2 {
		t.Errorf("Len() = %d, want 2", dst.Len())
	}
}

func TestConcatNil(t *testing.T) {
	if _, err := Concat(nil, New(0, 0)); !errors.Is(err, ErrNull) {
		t.Errorf("err = %v, want %v", err, ErrNull)
	}
}

func compact(t *testing.T, kt *Table) *Table {
	t.Helper()
	c, err := kt.Compact()
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	return c
}

func TestCompact(t *testing.T) {
	kt := build(t, "pear", "apple", "pear", "fig", "apple", "ap")
	c := compact(t, kt)

	want := []string{"ap", "apple", "fig", "pear"}
	if c.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", c.Len(), len(want))
	}
	for i, s := range want {
		if got := nameOf(t, c, i+1); got != s {
			t.Errorf("compacted[%d] = %q, want %q", i+1, got, s)
		}
	}
	if kt.Len() != 6 {
		t.Error("Compact modified the source table")
	}
}

func TestCompactIdempotent(t *testing.T) {
	c := compact(t, build(t, "z", "y", "x", "y"))
	if !compact(t, c).Equal(c) {
		t.Error("compact(compact(kt)) != compact(kt)")
	}
}

func TestCompactEmpty(t *testing.T) {
	if compact(t, New(0, 0)).Len() != 0 {
		t.Error("compacting an empty table produced elements")
	}
}

func TestCompactNil(t *testing.T) {
	var kt *Table
	if _, err := kt.Compact(); !errors.Is(err, ErrNull) {
		t.Errorf("err = %v, want %v", err, ErrNull)
	}
}

func TestCompactSearch(t *testing.T) {
	c := compact(t, build(t, "b", "a", "d", "c", "a"))
	for _, s := range []string{"a", "b", "c", "d"} {
		i := c.CompactSearch([]byte(s))
		if i == 0 {
			t.Errorf("CompactSearch(%q) not found", s)
			continue
		}
		if got := nameOf(t, c, i); got != s {
			t.Errorf("CompactSearch(%q) = %d (%q)", s, i, got)
		}
	}
	for _, s := range []string{"", "0", "bb", "e"} {
		if i := c.CompactSearch([]byte(s)); i != 0 {
			t.Errorf("CompactSearch(%q) = %d, want 0", s, i)
		}
	}
	if New(0, 0).CompactSearch([]byte("a")) != 0 {
		t.Error("search in empty table found something")
	}
}

func TestNameCompare(t *testing.T) {
	tests := []struct {
		a, b string
		sign int
	}{
		{"a", "b", -1},
		{"ab", "a", 1},
		{"a", "ab", -1},
		{"abc", "abc", 0},
		{"", "a", -1},
	}
	for _, tt := range tests {
		got := NameCompare([]byte(tt.a), []byte(tt.b))
		if (got < 0 && tt.sign >= 0) || (got > 0 && tt.sign <= 0) || (got == 0 && tt.sign != 0) {
			t.Errorf("NameCompare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.sign)
		}
	}
}

func TestFromRaw(t *testing.T) {
	src := build(t, "one", "two")
	kt, err := FromRaw(src.Elements(), src.Block())
	if err != nil {
		t.Fatal(err)
	}
	if !kt.Equal(src) {
		t.Error("FromRaw table differs from source")
	}

	bad := []Element{{}, {Start: 2, Len: 10}}
	if _, err := FromRaw(bad, []byte("abc")); !errors.Is(err, ErrRange) {
		t.Errorf("err = %v, want %v", err, ErrRange)
	}
	if _, err := FromRaw(nil, nil); !errors.Is(err, ErrNull) {
		t.Errorf("err = %v, want %v", err, ErrNull)
	}
}

func TestDups(t *testing.T) {
	kt := build(t, "a", "b", "a", "a", "c", "b")
	dups, distinct, unique := kt.Dups()
	if dups != 3 || distinct != 2 || unique != 3 {
		t.Errorf("Dups() = %d, %d, %d, want 3, 2, 3", dups, distinct, unique)
	}
}

func TestDump(t *testing.T) {
	var out bytes.Buffer
	build(t, "x", "yy").Dump(&out)
	s := out.String()
	if !strings.Contains(s, "1: x") || !strings.Contains(s, "2: yy") {
		t.Errorf("Dump output missing entries: %q", s)
	}
}
