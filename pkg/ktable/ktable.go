// Package ktable implements the capture table: an append-only table of
// byte strings (capture names and constant values) addressed by 1-based
// index. Index 0 is reserved.
//
// Strings live back to back in a single byte block; each element records
// its start offset and length in that block. Both the element array and the
// block grow by doubling.
package ktable

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"slices"
)

const (
	// InitSize is the default element capacity.
	InitSize = 64
	// MaxSize is the largest index that fits in an instruction's 24-bit aux field.
	MaxSize = 16777215
	// AvgElementLen is used to size a default block.
	AvgElementLen = 34
	// MaxElementLen is the length at which added strings are truncated.
	MaxElementLen = 1024
)

// Element locates one string in the block.
type Element struct {
	Start      int32
	Len        int32
	Entrypoint int32
}

// Table is a capture table. Use New to create one.
type Table struct {
	block    []byte    // len(block) is the block capacity
	next     int       // block[next] is the first free byte
	elements []Element // len(elements)-1 entries in use; elements[0] reserved
}

// New allocates an empty table. Non-positive arguments select defaults.
func New(initialSize, initialBlockSize int) *Table {
	size := 1 + InitSize
	if initialSize > 0 {
		size = 1 + initialSize
	}
	blocksize := size * AvgElementLen
	if initialBlockSize > 0 {
		blocksize = initialBlockSize
	}
	elements := make([]Element, 1, size)
	return &Table{
		block:    make([]byte, blocksize),
		elements: elements,
	}
}

// FromRaw builds a table from an element array (including the reserved
// element 0) and a block, as read from a file. Every element must lie
// inside the block.
func FromRaw(elements []Element, block []byte) (*Table, error) {
	if len(elements) == 0 {
		return nil, ErrNull
	}
	if len(elements)-1 > MaxSize {
		return nil, ErrSize
	}
	for i := 1; i < len(elements); i++ {
		e := elements[i]
		if e.Start < 0 || e.Len < 0 || int(e.Start)+int(e.Len) > len(block) {
			return nil, fmt.Errorf("element %d (start %d, len %d) outside block of %d bytes: %w",
				i, e.Start, e.Len, len(block), ErrRange)
		}
	}
	return &Table{block: block, next: len(block), elements: elements}, nil
}

// Len returns the number of elements.
func (kt *Table) Len() int {
	if kt == nil {
		return 0
	}
	return len(kt.elements) - 1
}

// Element returns element i, or false if i is not a valid index.
func (kt *Table) Element(i int) (Element, bool) {
	if kt == nil || i < 1 || i >= len(kt.elements) {
		return Element{}, false
	}
	return kt.elements[i], true
}

// Name returns the bytes of element i, or false if i is not a valid index.
// The returned slice aliases the table and must not be modified.
func (kt *Table) Name(i int) ([]byte, bool) {
	e, ok := kt.Element(i)
	if !ok {
		return nil, false
	}
	return kt.block[e.Start : e.Start+e.Len : e.Start+e.Len], true
}

// Elements returns the element array including the reserved element 0.
func (kt *Table) Elements() []Element {
	return kt.elements
}

// Block returns the used portion of the byte block.
func (kt *Table) Block() []byte {
	return kt.block[:kt.next]
}

func (kt *Table) blockspace() int {
	return len(kt.block) - kt.next
}

func (kt *Table) extendElements() error {
	newsize := 2 * cap(kt.elements)
	if newsize-1 > MaxSize {
		newsize = MaxSize + 1
	}
	temp := make([]Element, len(kt.elements), newsize)
	copy(temp, kt.elements)
	kt.elements = temp
	return nil
}

func (kt *Table) extendBlock(addAtLeast int) error {
	newsize := 2 * len(kt.block)
	if addAtLeast > len(kt.block) {
		newsize += addAtLeast
	}
	if newsize > math.MaxInt32 {
		return ErrMem
	}
	temp := make([]byte, newsize)
	copy(temp, kt.block[:kt.next])
	kt.block = temp
	return nil
}

// Add appends a copy of element and returns its index. Strings longer than
// MaxElementLen are truncated to that length.
func (kt *Table) Add(element []byte) (int, error) {
	if kt == nil {
		return 0, ErrNull
	}
	if len(element) > MaxElementLen {
		element = element[:MaxElementLen]
	}
	if kt.Len() >= MaxSize {
		return 0, ErrSize
	}
	if len(kt.elements) == cap(kt.elements) {
		if err := kt.extendElements(); err != nil {
			return 0, err
		}
	}
	if kt.blockspace() < len(element) {
		if err := kt.extendBlock(len(element)); err != nil {
			return 0, err
		}
	}
	copy(kt.block[kt.next:], element)
	kt.elements = append(kt.elements, Element{
		Start: int32(kt.next),
		Len:   int32(len(element)),
	})
	kt.next += len(element)
	return len(kt.elements) - 1, nil
}

// AddString is Add for a string.
func (kt *Table) AddString(s string) (int, error) {
	return kt.Add([]byte(s))
}

// Concat appends every element of src to dst, in order, and returns the
// length dst had before the merge. An index i that referred to src refers
// to i+n in dst afterwards. When src is empty, 0 is returned since no index
// needs rebasing.
func Concat(src, dst *Table) (int, error) {
	if src == nil || dst == nil {
		return 0, ErrNull
	}
	n1 := src.Len()
	n2 := dst.Len()
	if n1+n2 > MaxSize {
		return 0, ErrSize
	}
	if n1 == 0 {
		return 0, nil
	}
	for i := 1; i <= n1; i++ {
		name, _ := src.Name(i)
		if _, err := dst.Add(name); err != nil {
			return 0, err
		}
	}
	return n2, nil
}

// NameCompare orders byte strings lexicographically, with a proper prefix
// ordered before the longer string.
func NameCompare(a, b []byte) int {
	return bytes.Compare(a, b)
}

func (kt *Table) entryName(e Element) []byte {
	return kt.block[e.Start : e.Start+e.Len]
}

// SortedIndex returns a copy of the element array (element 0 included)
// whose entries 1..Len are sorted by name.
func (kt *Table) SortedIndex() []Element {
	index := slices.Clone(kt.elements)
	slices.SortStableFunc(index[1:], func(a, b Element) int {
		return NameCompare(kt.entryName(a), kt.entryName(b))
	})
	return index
}

// Compact returns a new table holding the distinct names of kt in sorted
// order. kt is not modified.
func (kt *Table) Compact() (*Table, error) {
	if kt == nil {
		return nil, ErrNull
	}
	compacted := New(0, 0)
	n := kt.Len()
	if n == 0 {
		return compacted, nil
	}
	index := kt.SortedIndex()
	prev := kt.entryName(index[1])
	if _, err := compacted.Add(prev); err != nil {
		return nil, err
	}
	for i := 2; i <= n; i++ {
		name := kt.entryName(index[i])
		if NameCompare(prev, name) != 0 {
			if _, err := compacted.Add(name); err != nil {
				return nil, err
			}
			prev = name
		}
	}
	return compacted, nil
}

// CompactSearch finds target in a compacted (sorted, duplicate-free) table
// and returns its index, or 0 if it is not present.
func (kt *Table) CompactSearch(target []byte) int {
	n := kt.Len()
	if n == 0 {
		return 0
	}
	i, found := slices.BinarySearchFunc(kt.elements[1:], target, func(e Element, t []byte) int {
		return NameCompare(kt.entryName(e), t)
	})
	if !found {
		return 0
	}
	return i + 1
}

// Equal reports whether two tables hold the same strings at the same
// indices.
func (kt *Table) Equal(other *Table) bool {
	if kt.Len() != other.Len() {
		return false
	}
	for i := 1; i <= kt.Len(); i++ {
		a, _ := kt.Name(i)
		b, _ := other.Name(i)
		if !bytes.Equal(a, b) {
			return false
		}
	}
	return true
}

// Dump writes a human-readable listing of the table.
func (kt *Table) Dump(w io.Writer) {
	if kt == nil {
		fmt.Fprintln(w, "Ktable pointer is nil")
		return
	}
	fmt.Fprintf(w, "Ktable: size = %d (%d used), blocksize = %d (%d used)\n",
		cap(kt.elements)-1, kt.Len(), len(kt.block), kt.next)
	fmt.Fprint(w, "contents: ")
	for i := 1; i <= kt.Len(); i++ {
		name, _ := kt.Name(i)
		fmt.Fprintf(w, "%d: %s ", i, name)
	}
	fmt.Fprintln(w)
}

// Dups counts duplicate names: the total number of redundant entries, the
// number of distinct names that are duplicated, and the number of distinct
// names overall.
func (kt *Table) Dups() (dups, distinctDups, unique int) {
	n := kt.Len()
	if n == 0 {
		return 0, 0, 0
	}
	index := kt.SortedIndex()
	unique = 1
	counted := false
	for i := 2; i <= n; i++ {
		if NameCompare(kt.entryName(index[i-1]), kt.entryName(index[i])) == 0 {
			if !counted {
				distinctDups++
				counted = true
			}
			dups++
		} else {
			unique++
			counted = false
		}
	}
	return dups, distinctDups, unique
}
