// Package vm executes matching programs.
//
// A VM runs a bytecode.Chunk over a byte range of its input with an
// explicit backtrack stack. A successful run leaves a flat list of capture
// records (opens and closes in input order) which the capture walker
// replays as nested Open/Close events into an Encoder. The encoders render
// the capture tree as JSON, as a compact byte stream, as a debug listing,
// as CBOR, or as the matched line.
//
// Match is the entry point used by embedders:
//
//	m := NewVM(DefaultConfig())
//	var result Match
//	err := m.Match(chunk, input, 0, 0, EncodeJSON, &result)
//
// Positions at the Match boundary are 1-based with 0 selecting the default.
// Execute and the capture list use 0-based positions.
package vm
