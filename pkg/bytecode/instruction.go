package bytecode

import (
	"fmt"
	"strings"
)

// Instruction is one 32-bit word of the instruction vector. An opcode word
// keeps the opcode in its low 8 bits and the aux field in the high 24 bits.
// Offset words hold a signed jump relative to the address of the opcode word,
// and charset words hold 32 bits of a 256-bit byte set.
type Instruction uint32

// MaxAux is the largest value that fits in the aux field.
const MaxAux = 1<<24 - 1

// MakeInstruction packs an opcode word.
func MakeInstruction(op Opcode, aux uint32) Instruction {
	return Instruction(aux&MaxAux)<<8 | Instruction(op)
}

// Op returns the opcode of an opcode word.
func (i Instruction) Op() Opcode {
	return Opcode(i & 0xFF)
}

// Aux returns the 24-bit aux field of an opcode word.
func (i Instruction) Aux() uint32 {
	return uint32(i) >> 8
}

// Offset interprets the word as a signed offset.
func (i Instruction) Offset() int {
	return int(int32(i))
}

// CapKind tags a capture record. Open kinds have the high bit clear.
type CapKind uint8

const (
	CapRosie   CapKind = 0x00 // named capture of the matched text
	CapConst   CapKind = 0x01 // named capture whose data is a ktable constant
	CapBackref CapKind = 0x02 // capture referenced by a later Backref

	CapClose      CapKind = 0x80
	CapFinal      CapKind = 0x81 // sentinel left by Halt
	CapCloseConst CapKind = 0x82
)

// IsOpen reports whether k is one of the open kinds.
func (k CapKind) IsOpen() bool {
	return k&0x80 == 0
}

// Acceptable reports whether k may appear in an OpenCapture instruction.
func (k CapKind) Acceptable() bool {
	return k == CapRosie || k == CapConst || k == CapBackref
}

func (k CapKind) String() string {
	switch k {
	case CapRosie:
		return "RosieCap"
	case CapConst:
		return "RosieConst"
	case CapBackref:
		return "Backref"
	case CapClose:
		return "Close"
	case CapFinal:
		return "Final"
	case CapCloseConst:
		return "CloseConst"
	default:
		return fmt.Sprintf("CapKind(0x%02X)", uint8(k))
	}
}

// CharsetWords is the number of words in a charset.
const CharsetWords = 8

// Charset is a 256-bit byte set. Bit c&31 of word c>>5 is set when byte c
// is a member.
type Charset [CharsetWords]uint32

// Add inserts bytes into the set.
func (cs *Charset) Add(bytes ...byte) *Charset {
	for _, c := range bytes {
		cs[c>>5] |= 1 << (c & 31)
	}
	return cs
}

// AddRange inserts every byte from lo to hi inclusive.
func (cs *Charset) AddRange(lo, hi byte) *Charset {
	for c := int(lo); c <= int(hi); c++ {
		cs[c>>5] |= 1 << (c & 31)
	}
	return cs
}

// Has reports whether c is a member.
func (cs *Charset) Has(c byte) bool {
	return cs[c>>5]&(1<<(c&31)) != 0
}

// CharsetAt reads the charset stored in code starting at word i.
func CharsetAt(code []Instruction, i int) Charset {
	var cs Charset
	for w := range cs {
		cs[w] = uint32(code[i+w])
	}
	return cs
}

// InCharset tests membership of c in the charset stored at code[i:].
func InCharset(code []Instruction, i int, c byte) bool {
	return uint32(code[i+int(c>>5)])&(1<<(c&31)) != 0
}

// String lists the set as byte ranges, e.g. [0-9a-f].
func (cs *Charset) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for c := 0; c < 256; c++ {
		if !cs.Has(byte(c)) {
			continue
		}
		first := c
		for c+1 < 256 && cs.Has(byte(c+1)) {
			c++
		}
		writeCharsetByte(&sb, byte(first))
		if c > first {
			sb.WriteByte('-')
			writeCharsetByte(&sb, byte(c))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func writeCharsetByte(sb *strings.Builder, c byte) {
	if c > 32 && c < 127 && c != '-' && c != '[' && c != ']' && c != '\\' {
		sb.WriteByte(c)
		return
	}
	fmt.Fprintf(sb, "\\x%02x", c)
}
