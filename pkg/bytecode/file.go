package bytecode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chazu/rpeg/pkg/buf"
	"github.com/chazu/rpeg/pkg/ktable"
)

// File layout, all integers little-endian:
//
//	[magic:4 "RPLX"]
//	[ktable_len:4] [block_size:4] '\n'
//	[elements:(ktable_len+1)*12] '\n'
//	[block:block_size] '\n'
//	[inst_count:4] [instructions:inst_count*4] '\n'
//
// Each element record is [start:4][len:4][entrypoint:4]; element 0 is the
// reserved entry.

// Magic identifies a compiled pattern file.
var Magic = [4]byte{'R', 'P', 'L', 'X'}

const (
	fileSeparator = '\n'
	elementSize   = 12
	wordSize      = 4
)

// Limits bounds the sizes accepted by the file codec.
type Limits struct {
	MaxKtableLen   int // ktable entries
	MaxKtableBlock int // ktable block bytes
	MaxInstBytes   int // instruction vector bytes
}

// DefaultLimits returns the standard file codec limits.
func DefaultLimits() Limits {
	return Limits{
		MaxKtableLen:   ktable.MaxSize,
		MaxKtableBlock: 10_000_000,
		MaxInstBytes:   10_000_000,
	}
}

func (l Limits) check(ktlen, blocksize, ninst int) error {
	if ktlen < 0 || ktlen > l.MaxKtableLen {
		return fmt.Errorf("%w: %d (max %d)", ErrKtableLen, ktlen, l.MaxKtableLen)
	}
	if blocksize < 0 || blocksize > l.MaxKtableBlock {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrKtableSize, blocksize, l.MaxKtableBlock)
	}
	if ninst < 0 || ninst > l.MaxInstBytes/wordSize {
		return fmt.Errorf("%w: %d instructions (max %d bytes)", ErrInstLen, ninst, l.MaxInstBytes)
	}
	return nil
}

// Encode renders the chunk in file format.
func Encode(c *Chunk, limits Limits) (*buf.Buffer, error) {
	kt := c.Ktable
	elements := kt.Elements()
	block := kt.Block()
	if err := limits.check(kt.Len(), len(block), len(c.Code)); err != nil {
		return nil, err
	}

	size := len(Magic) + 8 + 1 + len(elements)*elementSize + 1 + len(block) + 1 + 4 + len(c.Code)*wordSize + 1
	out := buf.New(size)
	out.Append(Magic[:])
	out.AppendInt32(int32(kt.Len()))
	out.AppendInt32(int32(len(block)))
	out.AppendByte(fileSeparator)
	for _, e := range elements {
		out.AppendInt32(e.Start)
		out.AppendInt32(e.Len)
		out.AppendInt32(e.Entrypoint)
	}
	out.AppendByte(fileSeparator)
	out.Append(block)
	out.AppendByte(fileSeparator)
	out.AppendInt32(int32(len(c.Code)))
	for _, inst := range c.Code {
		out.AppendInt32(int32(inst))
	}
	out.AppendByte(fileSeparator)
	return out, nil
}

// Write writes the chunk to w in file format.
func Write(w io.Writer, c *Chunk, limits Limits) error {
	encoded, err := Encode(c, limits)
	if err != nil {
		return err
	}
	if _, err := encoded.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Save writes the chunk to path. The file is written under a temporary name
// in the same directory and renamed into place, so a failed save leaves any
// existing file at path untouched.
func Save(path string, c *Chunk, limits Limits) (err error) {
	encoded, err := Encode(c, limits)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoFile, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = encoded.WriteTo(tmp); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	log.Infof("saved %s (%d instructions, %d ktable entries)", path, len(c.Code), c.Ktable.Len())
	return nil
}

// fileReader walks an in-memory file image.
type fileReader struct {
	data   []byte
	offset int
}

func (fr *fileReader) readBytes(n int) ([]byte, error) {
	if n < 0 || fr.offset+n > len(fr.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrRead, n, fr.offset, len(fr.data)-fr.offset)
	}
	p := fr.data[fr.offset : fr.offset+n]
	fr.offset += n
	return p, nil
}

func (fr *fileReader) readInt32() (int, error) {
	p, err := fr.readBytes(4)
	if err != nil {
		return 0, err
	}
	return int(buf.PeekInt32(p)), nil
}

func (fr *fileReader) separator(section string) error {
	p, err := fr.readBytes(1)
	if err != nil {
		return err
	}
	if p[0] != fileSeparator {
		return fmt.Errorf("%w: after %s at offset %d", ErrSeparator, section, fr.offset-1)
	}
	return nil
}

// Decode parses a chunk from a complete file image. On error the returned
// chunk is nil.
func Decode(data []byte, limits Limits) (*Chunk, error) {
	fr := &fileReader{data: data}

	magic, err := fr.readBytes(len(Magic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, fmt.Errorf("%w: got %q", ErrMagic, magic)
	}

	ktlen, err := fr.readInt32()
	if err != nil {
		return nil, err
	}
	blocksize, err := fr.readInt32()
	if err != nil {
		return nil, err
	}
	if err := limits.check(ktlen, blocksize, 0); err != nil {
		return nil, err
	}
	if err := fr.separator("header"); err != nil {
		return nil, err
	}

	raw, err := fr.readBytes((ktlen + 1) * elementSize)
	if err != nil {
		return nil, err
	}
	elements := make([]ktable.Element, ktlen+1)
	for i := range elements {
		var v int32
		v, raw = buf.ReadInt32(raw)
		elements[i].Start = v
		v, raw = buf.ReadInt32(raw)
		elements[i].Len = v
		v, raw = buf.ReadInt32(raw)
		elements[i].Entrypoint = v
	}
	if err := fr.separator("ktable elements"); err != nil {
		return nil, err
	}

	rawBlock, err := fr.readBytes(blocksize)
	if err != nil {
		return nil, err
	}
	block := bytes.Clone(rawBlock)
	if block == nil {
		block = []byte{}
	}
	if err := fr.separator("ktable block"); err != nil {
		return nil, err
	}

	ninst, err := fr.readInt32()
	if err != nil {
		return nil, err
	}
	if err := limits.check(0, 0, ninst); err != nil {
		return nil, err
	}
	rawCode, err := fr.readBytes(ninst * wordSize)
	if err != nil {
		return nil, err
	}
	code := make([]Instruction, ninst)
	for i := range code {
		var v int32
		v, rawCode = buf.ReadInt32(rawCode)
		code[i] = Instruction(uint32(v))
	}
	if err := fr.separator("instructions"); err != nil {
		return nil, err
	}

	kt, err := ktable.FromRaw(elements, block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return NewChunk(code, kt), nil
}

// maxFileSize is the size of the largest file the limits admit.
func (l Limits) maxFileSize() int64 {
	n := int64(len(Magic)) + 2*wordSize + 1
	n += int64(l.MaxKtableLen+1)*elementSize + 1
	n += int64(l.MaxKtableBlock) + 1
	n += wordSize + int64(l.MaxInstBytes) + 1
	return n
}

// Read reads a chunk in file format from r. At most one byte more than the
// limits admit is consumed from r.
func Read(r io.Reader, limits Limits) (*Chunk, error) {
	limit := limits.maxFileSize()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: input exceeds %d bytes", ErrRead, limit)
	}
	return Decode(data, limits)
}

// Load reads a chunk from the file at path.
func Load(path string, limits Limits) (*Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoFile, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrNoFile, err)
	}
	defer f.Close()

	c, err := Read(f, limits)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	c.Filename = path
	log.Debugf("loaded %s (%d instructions, %d ktable entries)", path, len(c.Code), c.Ktable.Len())
	return c, nil
}
