package bytecode

import (
	"github.com/chazu/rpeg/pkg/ktable"
)

// Builder assembles an instruction vector. Jumps may be emitted before
// their target is known and patched later.
type Builder struct {
	code []Instruction
	kt   *ktable.Table
}

// NewBuilder creates a builder with an empty ktable.
func NewBuilder() *Builder {
	return &Builder{
		code: make([]Instruction, 0, 64),
		kt:   ktable.New(0, 0),
	}
}

// Ktable returns the builder's ktable.
func (b *Builder) Ktable() *ktable.Table {
	return b.kt
}

// Key adds name to the ktable and returns its index.
func (b *Builder) Key(name string) uint32 {
	idx, err := b.kt.AddString(name)
	if err != nil {
		panic(err)
	}
	return uint32(idx)
}

// Label returns the address of the next instruction.
func (b *Builder) Label() int {
	return len(b.code)
}

// Emit appends a bare instruction and returns its address.
func (b *Builder) Emit(op Opcode) int {
	return b.EmitAux(op, 0)
}

// EmitAux appends an instruction with an aux value and returns its address.
func (b *Builder) EmitAux(op Opcode, aux uint32) int {
	pc := len(b.code)
	b.code = append(b.code, MakeInstruction(op, aux))
	return pc
}

// EmitChar emits Char or TestChar for byte c. TestChar's target must be
// patched.
func (b *Builder) EmitChar(op Opcode, c byte) int {
	pc := b.EmitAux(op, uint32(c))
	if op.HasOffset() {
		b.code = append(b.code, 0)
	}
	return pc
}

// EmitJump emits an offset instruction with a placeholder target.
// Returns the address of the instruction for later patching.
func (b *Builder) EmitJump(op Opcode) int {
	pc := b.Emit(op)
	b.code = append(b.code, 0) // Placeholder
	if op.HasCharset() {
		b.code = append(b.code, make([]Instruction, CharsetWords)...)
	}
	return pc
}

// EmitJumpTo emits an offset instruction whose target is already known.
func (b *Builder) EmitJumpTo(op Opcode, target int) int {
	pc := b.EmitJump(op)
	b.PatchJumpTo(pc, target)
	return pc
}

// PatchJump points the jump instruction at pc to the current position.
func (b *Builder) PatchJump(pc int) {
	b.PatchJumpTo(pc, len(b.code))
}

// PatchJumpTo points the jump instruction at pc to target.
func (b *Builder) PatchJumpTo(pc int, target int) {
	b.code[pc+1] = Instruction(uint32(int32(target - pc)))
}

// EmitSet emits Set or Span with the given charset.
func (b *Builder) EmitSet(op Opcode, cs Charset) int {
	pc := b.Emit(op)
	b.appendCharset(cs)
	return pc
}

// EmitTestSet emits TestSet with a placeholder target.
func (b *Builder) EmitTestSet(cs Charset) int {
	pc := b.Emit(OpTestSet)
	b.code = append(b.code, 0)
	b.appendCharset(cs)
	return pc
}

func (b *Builder) appendCharset(cs Charset) {
	for _, w := range cs {
		b.code = append(b.code, Instruction(w))
	}
}

// EmitOpenCapture emits OpenCapture of the given kind for ktable key.
func (b *Builder) EmitOpenCapture(kind CapKind, key uint32) int {
	pc := b.EmitAux(OpOpenCapture, key)
	b.code = append(b.code, Instruction(kind))
	return pc
}

// Chunk returns the assembled program. The builder must not be used
// afterwards.
func (b *Builder) Chunk() *Chunk {
	return NewChunk(b.code, b.kt)
}
