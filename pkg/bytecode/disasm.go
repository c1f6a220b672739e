package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the chunk.
func (c *Chunk) Disassemble() string {
	return c.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable listing with a name header.
func (c *Chunk) DisassembleWithName(name string) string {
	var sb strings.Builder

	// Header
	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; rpeg bytecode v%d\n", c.Version))
	sb.WriteString(fmt.Sprintf("; Code: %d words\n", len(c.Code)))

	// Ktable
	n := c.Ktable.Len()
	sb.WriteString(fmt.Sprintf("; Ktable: %d entries", n))
	if n > 0 {
		dups, distinct, unique := c.Ktable.Dups()
		sb.WriteString(fmt.Sprintf(", %d unique, %d duplicates of %d names", unique, dups, distinct))
	}
	sb.WriteString("\n")
	for i := 1; i <= n; i++ {
		entry, _ := c.Ktable.Name(i)
		display := string(entry)
		if len(display) > 40 {
			display = display[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf(";   [%3d] %q\n", i, display))
	}
	sb.WriteString("\n")

	// Code section
	sb.WriteString("; Code:\n")
	for pc := 0; pc < len(c.Code); {
		line, size := c.disassembleInstruction(pc)
		sb.WriteString(fmt.Sprintf("%04X  %s\n", pc, line))
		pc += size
	}

	return sb.String()
}

// disassembleInstruction disassembles a single instruction at pc.
// Returns the formatted string and the instruction length in words.
func (c *Chunk) disassembleInstruction(pc int) (string, int) {
	inst := c.Code[pc]
	op := inst.Op()
	if !op.Valid() {
		return fmt.Sprintf("UNKNOWN(0x%02X) aux=%d", byte(op), inst.Aux()), 1
	}
	size := op.Size()
	if pc+size > len(c.Code) {
		return fmt.Sprintf("%s <truncated>", op), len(c.Code) - pc
	}

	var sb strings.Builder
	sb.WriteString(op.String())

	switch GetOpcodeInfo(op).Aux {
	case AuxChar:
		sb.WriteString(fmt.Sprintf(" %s", quoteByte(inst.Aux())))
	case AuxCount:
		sb.WriteString(fmt.Sprintf(" %d", inst.Aux()))
	case AuxKey:
		key := inst.Aux()
		if name, ok := c.Ktable.Name(int(key)); ok {
			sb.WriteString(fmt.Sprintf(" #%d ; %q", key, name))
		} else {
			sb.WriteString(fmt.Sprintf(" #%d ; <invalid key>", key))
		}
	}

	if op == OpOpenCapture {
		sb.WriteString(fmt.Sprintf(" (%s)", CapKind(c.Code[pc+1])))
	} else if op.IsJump() {
		sb.WriteString(fmt.Sprintf(" -> %04X", c.JumpTarget(pc)))
	}

	if op.HasCharset() {
		cs := CharsetAt(c.Code, pc+op.CharsetOffset())
		sb.WriteString(" ")
		sb.WriteString(cs.String())
	}

	return sb.String(), size
}

func quoteByte(c uint32) string {
	if c > 0xFF {
		return fmt.Sprintf("<%d>", c)
	}
	if c >= 32 && c < 127 {
		return fmt.Sprintf("'%c'", rune(c))
	}
	return fmt.Sprintf("'\\x%02x'", c)
}
