package vm

import "github.com/chazu/rpeg/pkg/bytecode"

// byteEncoder renders a capture tree in a compact binary form, all
// integers little-endian:
//
//	open:  int32 -start  int16 len  name    (len negated for constant captures)
//	close: [int16 len  const]  int32 end   (const only for constant closes)
//
// Positions are 1-based.
type byteEncoder struct{}

func (byteEncoder) Open(cs *CapState, count int) error {
	w := outWriter{b: cs.Out}
	c := cs.Cap()
	name := cs.Name(c.Key)
	w.int32(-int32(c.Pos + 1))
	n := int16(len(name))
	if c.Kind == bytecode.CapConst {
		n = -n
	}
	w.int16(n)
	w.bytes(name)
	return w.done()
}

func (byteEncoder) Close(cs *CapState, count, start int) error {
	w := outWriter{b: cs.Out}
	c := cs.Cap()
	if c.Kind == bytecode.CapCloseConst {
		value := cs.Name(c.Key)
		w.int16(int16(len(value)))
		w.bytes(value)
	}
	w.int32(int32(c.Pos + 1))
	return w.done()
}
