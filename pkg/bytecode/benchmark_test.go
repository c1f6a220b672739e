// Package bytecode benchmarks
//
// These benchmarks measure the performance of:
// - Program verification
// - File encoding and decoding
// - Fingerprinting
//
// Run: go test -bench=. ./pkg/bytecode/...
// Run with memory stats: go test -bench=. -benchmem ./pkg/bytecode/...
package bytecode

import (
	"testing"
)

// largeProgram builds a program with n capture rules in sequence.
func largeProgram(n int) *Chunk {
	b := NewBuilder()
	var cs Charset
	cs.AddRange('a', 'z')
	for i := 0; i < n; i++ {
		key := b.Key("rule")
		b.EmitOpenCapture(CapRosie, key)
		choice := b.EmitJump(OpChoice)
		b.EmitSet(OpSpan, cs)
		commit := b.EmitJump(OpCommit)
		b.PatchJump(choice)
		b.EmitChar(OpChar, '-')
		b.PatchJump(commit)
		b.Emit(OpCloseCapture)
	}
	b.Emit(OpEnd)
	return b.Chunk()
}

// ============================================================
// Verification Benchmarks
// ============================================================

func BenchmarkVerify(b *testing.B) {
	code := largeProgram(1000).Code
	kt := largeProgram(1000).Ktable

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := NewChunk(code, kt).Verify(); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================
// File Codec Benchmarks
// ============================================================

func BenchmarkEncode(b *testing.B) {
	c := largeProgram(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(c, DefaultLimits()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	encoded, err := Encode(largeProgram(1000), DefaultLimits())
	if err != nil {
		b.Fatal(err)
	}
	data := encoded.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(data, DefaultLimits()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFingerprint(b *testing.B) {
	c := largeProgram(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Fingerprint(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompactKtable(b *testing.B) {
	c := largeProgram(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.CompactKtable(); err != nil {
			b.Fatal(err)
		}
	}
}
