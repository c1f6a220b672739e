// Package buf provides the growable byte buffer used for capture output,
// string building, and the little-endian integer codecs shared by the
// compact byte encoder and the file codec.
//
// A fresh Buffer stores its data in a fixed inline block. When that block
// overflows, a larger block is allocated on the heap and the data copied
// there; later overflows double the heap block (or grow it exactly when a
// single append is larger than the doubled size).
//
// A view Buffer wraps memory owned by someone else. It is never resized,
// written to, or released.
//
// A Buffer must not be copied after first use.
package buf

import (
	"encoding/binary"
	"io"
)

// InitialSize is the size of the inline block of a fresh Buffer.
const InitialSize = 8192

// Info flags returned by Buffer.Info.
const (
	IsView    = 1
	IsDynamic = 2
)

// Buffer is a growable byte array. The zero value is ready to use.
type Buffer struct {
	data    []byte // len(data) is the capacity; data[:n] is in use
	n       int
	view    bool
	dynamic bool
	init    [InitialSize]byte
}

// New returns an empty buffer with room for at least minimumSize bytes.
func New(minimumSize int) *Buffer {
	b := &Buffer{}
	b.data = b.init[:]
	if minimumSize > InitialSize {
		b.resize(minimumSize)
	}
	return b
}

// FromBytes wraps data in a read-only view buffer. The caller keeps
// ownership of data and must not modify it while the view is in use.
func FromBytes(data []byte) *Buffer {
	return &Buffer{data: data, n: len(data), view: true}
}

func (b *Buffer) lazyInit() {
	if b.data == nil && !b.view {
		b.data = b.init[:]
	}
}

// Info reports whether the buffer is a view and whether its storage has
// moved to the heap.
func (b *Buffer) Info() int {
	flags := 0
	if b.view {
		flags |= IsView
	}
	if b.dynamic {
		flags |= IsDynamic
	}
	return flags
}

func (b *Buffer) resize(newsize int) {
	temp := make([]byte, newsize)
	copy(temp, b.data[:min(b.n, newsize)])
	b.data = temp
	b.dynamic = true
}

// Prepare returns a slice of at least n free bytes following the current
// content, growing the storage if needed. The bytes become part of the
// content only after Advance.
func (b *Buffer) Prepare(n int) ([]byte, error) {
	if b.view {
		return nil, ErrView
	}
	b.lazyInit()
	if len(b.data)-b.n < n {
		newsize := len(b.data) * 2
		if newsize-b.n < n {
			newsize = b.n + n
		}
		b.resize(newsize)
	}
	return b.data[b.n : b.n+n], nil
}

// Advance extends the content by n bytes previously obtained from Prepare.
func (b *Buffer) Advance(n int) {
	if b.n+n > len(b.data) {
		panic("buf: advance past prepared space")
	}
	b.n += n
}

// Append adds p to the end of the buffer.
func (b *Buffer) Append(p []byte) error {
	if b.view {
		return ErrView
	}
	if len(p) == 0 {
		return nil
	}
	space, err := b.Prepare(len(p))
	if err != nil {
		return err
	}
	copy(space, p)
	b.n += len(p)
	return nil
}

// AppendString adds s to the end of the buffer.
func (b *Buffer) AppendString(s string) error {
	if b.view {
		return ErrView
	}
	if len(s) == 0 {
		return nil
	}
	space, err := b.Prepare(len(s))
	if err != nil {
		return err
	}
	copy(space, s)
	b.n += len(s)
	return nil
}

// AppendByte adds a single byte.
func (b *Buffer) AppendByte(c byte) error {
	space, err := b.Prepare(1)
	if err != nil {
		return err
	}
	space[0] = c
	b.n++
	return nil
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.Append(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString implements io.StringWriter.
func (b *Buffer) WriteString(s string) (int, error) {
	if err := b.AppendString(s); err != nil {
		return 0, err
	}
	return len(s), nil
}

// AppendInt32 adds i as 4 little-endian bytes.
func (b *Buffer) AppendInt32(i int32) error {
	space, err := b.Prepare(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(space, uint32(i))
	b.n += 4
	return nil
}

// AppendInt16 adds i as 2 little-endian bytes.
func (b *Buffer) AppendInt16(i int16) error {
	space, err := b.Prepare(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(space, uint16(i))
	b.n += 2
	return nil
}

// PeekInt32 decodes a little-endian int32 from the start of p.
func PeekInt32(p []byte) int32 {
	return int32(binary.LittleEndian.Uint32(p))
}

// ReadInt32 decodes a little-endian int32 from the start of p and returns
// the remaining bytes.
func ReadInt32(p []byte) (int32, []byte) {
	return PeekInt32(p), p[4:]
}

// PeekInt16 decodes a little-endian int16 from the start of p.
func PeekInt16(p []byte) int16 {
	return int16(binary.LittleEndian.Uint16(p))
}

// ReadInt16 decodes a little-endian int16 from the start of p and returns
// the remaining bytes.
func ReadInt16(p []byte) (int16, []byte) {
	return PeekInt16(p), p[2:]
}

// Bytes returns the content. The slice aliases the buffer's storage and is
// valid only until the next modification or Reset.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// String returns a copy of the content as a string.
func (b *Buffer) String() string {
	return string(b.data[:b.n])
}

// Len returns the number of bytes in use.
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the current storage capacity.
func (b *Buffer) Cap() int {
	b.lazyInit()
	return len(b.data)
}

// Reset rewinds the length to zero without releasing capacity.
func (b *Buffer) Reset() {
	if b.view {
		return
	}
	b.n = 0
}

// Free releases heap storage and returns the buffer to its inline block.
// Views are left untouched.
func (b *Buffer) Free() {
	if b.view {
		return
	}
	b.data = b.init[:]
	b.dynamic = false
	b.n = 0
}

// Substring returns a slice of the content using 1-based indices where
// negative values count from the end and 0 selects the default (j=1,
// k=length). Out-of-range indices are clamped; j > k yields an empty slice.
func (b *Buffer) Substring(j, k int) []byte {
	n := b.n
	if j == 0 {
		j = 1
	}
	if k == 0 {
		k = n
	}
	if j < 0 {
		j = n + j + 1
	}
	if j < 1 {
		j = 1
	}
	if k < 0 {
		k = n + k + 1
	}
	if k > n {
		k = n
	}
	if j > k || j > n {
		return b.data[:0:0]
	}
	return b.data[j-1 : k]
}

// WriteLen writes the content length as a 4-byte little-endian integer.
func (b *Buffer) WriteLen(w io.Writer) error {
	var str [4]byte
	binary.LittleEndian.PutUint32(str[:], uint32(b.n))
	if _, err := w.Write(str[:]); err != nil {
		return ErrWrite
	}
	return nil
}

// WriteTo writes the content to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	if b.n == 0 {
		return 0, nil
	}
	n, err := w.Write(b.data[:b.n])
	if err != nil {
		return int64(n), ErrWrite
	}
	return int64(n), nil
}

// ReadLen reads a 4-byte little-endian length written by WriteLen.
func ReadLen(r io.Reader) (int, error) {
	var str [4]byte
	if _, err := io.ReadFull(r, str[:]); err != nil {
		return 0, ErrRead
	}
	return int(binary.LittleEndian.Uint32(str[:])), nil
}

// Read reads exactly n bytes from r into a new buffer.
func Read(r io.Reader, n int) (*Buffer, error) {
	b := New(n)
	if n == 0 {
		return b, nil
	}
	if _, err := io.ReadFull(r, b.data[:n]); err != nil {
		return nil, ErrRead
	}
	b.n = n
	return b, nil
}
