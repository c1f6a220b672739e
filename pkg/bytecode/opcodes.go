package bytecode

import "fmt"

// Opcode identifies a matching-VM instruction.
// The numbering is part of the file format and must not change.
type Opcode byte

const (
	// ========================================================================
	// Bare instructions (one word, aux unused)
	// ========================================================================

	OpGiveup       Opcode = 0x00 // Internal: resume address of the bottom frame
	OpAny          Opcode = 0x01 // Consume any byte, fail at end of input
	OpRet          Opcode = 0x02 // Pop a call frame and resume at its address
	OpEnd          Opcode = 0x03 // Successful end of the program
	OpHalt         Opcode = 0x04 // Abnormal end: record a final capture and succeed
	OpFailTwice    Opcode = 0x05 // Discard the top frame, then Fail
	OpFail         Opcode = 0x06 // Backtrack to the nearest choice frame
	OpCloseCapture Opcode = 0x07 // Record a close capture

	// ========================================================================
	// Aux instructions (one word, aux used)
	// ========================================================================

	OpBehind            Opcode = 0x08 // Move back aux bytes
	OpBackref           Opcode = 0x09 // Match the text of a prior capture named by aux
	OpChar              Opcode = 0x0A // Consume the byte aux or fail
	OpCloseConstCapture Opcode = 0x0B // Record a close capture carrying constant aux

	// ========================================================================
	// Charset instructions (one word plus an 8-word charset)
	// ========================================================================

	OpSet  Opcode = 0x0C // Consume a byte in the set or fail
	OpSpan Opcode = 0x0D // Consume a maximal run of bytes in the set

	// ========================================================================
	// Offset instructions (one word plus a relative offset word)
	// ========================================================================

	OpPartialCommit Opcode = 0x0E // Update the top choice frame in place and jump
	OpTestAny       Opcode = 0x0F // Jump if at end of input
	OpJmp           Opcode = 0x10 // Unconditional jump
	OpCall          Opcode = 0x11 // Push a call frame and jump
	OpOpenCall      Opcode = 0x12 // Unresolved call left by the compiler; never executed
	OpChoice        Opcode = 0x13 // Push a choice frame whose alternative is the target
	OpCommit        Opcode = 0x14 // Pop the top frame and jump
	OpBackCommit    Opcode = 0x15 // Restore from and pop the top frame, then jump
	OpOpenCapture   Opcode = 0x16 // Record an open capture; the offset word holds the kind
	OpTestChar      Opcode = 0x17 // Jump if the current byte is not aux

	// ========================================================================
	// Offset + charset instructions
	// ========================================================================

	OpTestSet Opcode = 0x18 // Jump if the current byte is not in the set
)

// Format classifies the layout of an instruction.
type Format uint8

const (
	FormatBare          Format = iota // opcode word only
	FormatAux                         // opcode word, aux significant
	FormatCharset                     // opcode word + charset
	FormatOffset                      // opcode word + offset word
	FormatOffsetCharset               // opcode word + offset word + charset
)

// AuxUse describes what the 24-bit aux field of an instruction holds.
type AuxUse uint8

const (
	AuxNone  AuxUse = iota
	AuxChar         // a byte value
	AuxCount        // a byte count
	AuxKey          // a ktable index
)

// OpcodeInfo contains metadata about an opcode.
type OpcodeInfo struct {
	Name   string
	Format Format
	Aux    AuxUse
}

// Size returns the instruction length in words.
func (f Format) Size() int {
	switch f {
	case FormatOffset:
		return 2
	case FormatCharset:
		return 1 + CharsetWords
	case FormatOffsetCharset:
		return 2 + CharsetWords
	default:
		return 1
	}
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Bare
	OpGiveup:       {"GIVEUP", FormatBare, AuxNone},
	OpAny:          {"ANY", FormatBare, AuxNone},
	OpRet:          {"RET", FormatBare, AuxNone},
	OpEnd:          {"END", FormatBare, AuxNone},
	OpHalt:         {"HALT", FormatBare, AuxNone},
	OpFailTwice:    {"FAIL_TWICE", FormatBare, AuxNone},
	OpFail:         {"FAIL", FormatBare, AuxNone},
	OpCloseCapture: {"CLOSE_CAPTURE", FormatBare, AuxNone},

	// Aux
	OpBehind:            {"BEHIND", FormatAux, AuxCount},
	OpBackref:           {"BACKREF", FormatAux, AuxKey},
	OpChar:              {"CHAR", FormatAux, AuxChar},
	OpCloseConstCapture: {"CLOSE_CONST_CAPTURE", FormatAux, AuxKey},

	// Charset
	OpSet:  {"SET", FormatCharset, AuxNone},
	OpSpan: {"SPAN", FormatCharset, AuxNone},

	// Offset
	OpPartialCommit: {"PARTIAL_COMMIT", FormatOffset, AuxNone},
	OpTestAny:       {"TEST_ANY", FormatOffset, AuxNone},
	OpJmp:           {"JMP", FormatOffset, AuxNone},
	OpCall:          {"CALL", FormatOffset, AuxNone},
	OpOpenCall:      {"OPEN_CALL", FormatOffset, AuxKey},
	OpChoice:        {"CHOICE", FormatOffset, AuxNone},
	OpCommit:        {"COMMIT", FormatOffset, AuxNone},
	OpBackCommit:    {"BACK_COMMIT", FormatOffset, AuxNone},
	OpOpenCapture:   {"OPEN_CAPTURE", FormatOffset, AuxKey},
	OpTestChar:      {"TEST_CHAR", FormatOffset, AuxChar},

	// Offset + charset
	OpTestSet: {"TEST_SET", FormatOffsetCharset, AuxNone},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op)), Format: FormatBare}
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Size returns the total length of an instruction in words.
func (op Opcode) Size() int {
	return GetOpcodeInfo(op).Format.Size()
}

// HasOffset reports whether the instruction carries an offset word.
func (op Opcode) HasOffset() bool {
	f := GetOpcodeInfo(op).Format
	return f == FormatOffset || f == FormatOffsetCharset
}

// HasCharset reports whether the instruction carries a charset.
func (op Opcode) HasCharset() bool {
	f := GetOpcodeInfo(op).Format
	return f == FormatCharset || f == FormatOffsetCharset
}

// IsJump returns true if the offset word of this opcode is a jump target.
// OpenCapture reuses the offset word for the capture kind.
func (op Opcode) IsJump() bool {
	return op.HasOffset() && op != OpOpenCapture
}

// CharsetOffset returns the word offset of the charset within the
// instruction, or 0 if there is none.
func (op Opcode) CharsetOffset() int {
	switch GetOpcodeInfo(op).Format {
	case FormatCharset:
		return 1
	case FormatOffsetCharset:
		return 2
	default:
		return 0
	}
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
