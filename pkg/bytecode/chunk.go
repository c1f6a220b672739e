package bytecode

import (
	"fmt"
	"slices"
	"sync"

	"github.com/chazu/rpeg/pkg/ktable"
	"github.com/tliron/commonlog"
	"github.com/zeebo/xxh3"
)

// InstructionSetVersion identifies the opcode numbering and instruction
// layout produced and accepted by this package.
const InstructionSetVersion uint16 = 1

var log = commonlog.GetLogger("rpeg.bytecode")

// Chunk is a compiled matching program: an instruction vector and the
// ktable its capture instructions refer to. A Chunk is read-only once
// built and may be shared by any number of concurrent matchers.
type Chunk struct {
	Version  uint16
	Filename string // set by Load; empty for chunks built in memory

	Code   []Instruction
	Ktable *ktable.Table

	verifyOnce sync.Once
	verifyErr  error
}

// NewChunk wraps an instruction vector and ktable. A nil ktable is
// replaced by an empty one.
func NewChunk(code []Instruction, kt *ktable.Table) *Chunk {
	if kt == nil {
		kt = ktable.New(0, 0)
	}
	return &Chunk{
		Version: InstructionSetVersion,
		Code:    code,
		Ktable:  kt,
	}
}

// CodeLen returns the length of the instruction vector in words.
func (c *Chunk) CodeLen() int {
	return len(c.Code)
}

// VerifyError describes the first problem Verify found in a program.
type VerifyError struct {
	PC     int
	Op     Opcode
	Reason string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("invalid instruction at %04X (%s): %s", e.PC, e.Op, e.Reason)
}

// noFallthrough holds the opcodes after which execution never continues
// at the next instruction.
var noFallthrough = map[Opcode]bool{
	OpGiveup:        true,
	OpEnd:           true,
	OpHalt:          true,
	OpFail:          true,
	OpFailTwice:     true,
	OpRet:           true,
	OpJmp:           true,
	OpCommit:        true,
	OpBackCommit:    true,
	OpPartialCommit: true,
}

// Verify checks that the program can be executed without leaving the
// instruction vector: every opcode is known, every instruction fits,
// every jump lands on an instruction boundary, every capture kind and
// ktable key is valid, and the last instruction does not fall through.
// The result is computed once and cached.
func (c *Chunk) Verify() error {
	c.verifyOnce.Do(func() {
		c.verifyErr = c.verify()
		if c.verifyErr != nil {
			log.Debugf("verify %s: %s", c.name(), c.verifyErr)
		}
	})
	return c.verifyErr
}

func (c *Chunk) name() string {
	if c.Filename != "" {
		return c.Filename
	}
	return "<chunk>"
}

func (c *Chunk) verify() error {
	code := c.Code
	n := len(code)
	if n == 0 {
		return &VerifyError{PC: 0, Op: OpGiveup, Reason: "empty program"}
	}

	boundary := make([]bool, n)
	last := 0
	for pc := 0; pc < n; pc += code[pc].Op().Size() {
		op := code[pc].Op()
		fail := func(format string, args ...any) error {
			return &VerifyError{PC: pc, Op: op, Reason: fmt.Sprintf(format, args...)}
		}
		if !op.Valid() {
			return fail("unknown opcode")
		}
		if op == OpOpenCall {
			return fail("unresolved call")
		}
		if pc+op.Size() > n {
			return fail("truncated instruction")
		}
		boundary[pc] = true
		last = pc

		aux := code[pc].Aux()
		switch GetOpcodeInfo(op).Aux {
		case AuxChar:
			if aux > 0xFF {
				return fail("character %d out of range", aux)
			}
		case AuxKey:
			if aux == 0 || int(aux) > c.Ktable.Len() {
				return fail("ktable key %d out of range (ktable has %d entries)", aux, c.Ktable.Len())
			}
		}
		if op == OpOpenCapture {
			kind := uint32(code[pc+1])
			if kind > 0xFF || !CapKind(kind).Acceptable() {
				return fail("capture kind 0x%X is not an open kind", kind)
			}
		}
	}

	for pc := 0; pc < n; pc += code[pc].Op().Size() {
		op := code[pc].Op()
		if !op.IsJump() {
			continue
		}
		target := pc + code[pc+1].Offset()
		if target < 0 || target >= n || !boundary[target] {
			return &VerifyError{PC: pc, Op: op, Reason: fmt.Sprintf("jump target %04X is not an instruction", target)}
		}
	}

	if op := code[last].Op(); !noFallthrough[op] {
		return &VerifyError{PC: last, Op: op, Reason: "program falls off the end"}
	}
	return nil
}

// JumpTarget returns the absolute target of the jump instruction at pc.
func (c *Chunk) JumpTarget(pc int) int {
	return pc + c.Code[pc+1].Offset()
}

// Fingerprint returns a 64-bit hash of the chunk's file encoding. Two
// chunks with equal code and ktable contents have equal fingerprints.
func (c *Chunk) Fingerprint() (uint64, error) {
	encoded, err := Encode(c, DefaultLimits())
	if err != nil {
		return 0, err
	}
	return xxh3.Hash(encoded.Bytes()), nil
}

// CompactKtable returns a copy of the chunk whose ktable has been
// compacted, with every ktable key in the code rebased onto the compacted
// table. The receiver is not modified.
func (c *Chunk) CompactKtable() (*Chunk, error) {
	if err := c.Verify(); err != nil {
		return nil, err
	}
	compacted, err := c.Ktable.Compact()
	if err != nil {
		return nil, fmt.Errorf("compact ktable: %w", err)
	}
	code := slices.Clone(c.Code)
	for pc := 0; pc < len(code); pc += code[pc].Op().Size() {
		op := code[pc].Op()
		if GetOpcodeInfo(op).Aux != AuxKey {
			continue
		}
		name, _ := c.Ktable.Name(int(code[pc].Aux()))
		idx := compacted.CompactSearch(name)
		if idx == 0 {
			return nil, fmt.Errorf("compact ktable: %q missing from compacted table", name)
		}
		code[pc] = MakeInstruction(op, uint32(idx))
	}
	log.Debugf("compacted ktable of %s from %d to %d entries", c.name(), c.Ktable.Len(), compacted.Len())
	out := NewChunk(code, compacted)
	out.Filename = c.Filename
	return out, nil
}
