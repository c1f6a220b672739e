// Package bytecode defines the compiled form of a pattern: the instruction
// set of the matching VM, the Chunk that pairs an instruction vector with
// its ktable, and the binary file format used to persist chunks.
//
// # Instruction Layout
//
// A program is a vector of 32-bit words. Every instruction starts with an
// opcode word (opcode in the low 8 bits, a 24-bit aux field above it) and
// is followed by zero or more operand words:
//
//   - bare and aux instructions: the opcode word only
//   - offset instructions: one signed word, relative to the opcode word
//   - Set and Span: an 8-word charset
//   - TestSet: an offset word followed by an 8-word charset
//
// OpenCapture reuses its offset word to hold the capture kind; its aux
// field is the ktable index of the capture name.
//
// # Chunks
//
// Chunks are produced by an external pattern compiler, by the Builder, or
// by Load. Verify checks that a chunk is safe to execute; the VM calls it
// before the first match and caches the result.
//
// # File Format
//
// See file.go for the exact layout. Every integer is little-endian, so files
// are portable between hosts.
package bytecode
