package vm

import "github.com/chazu/rpeg/pkg/bytecode"

// jsonEncoder renders a capture tree as nested JSON objects:
//
//	{"type":"name","s":1,"subs":[...],"e":4,"data":"abc"}
//
// Positions are 1-based and e is exclusive. subs is present only when the
// capture has children.
type jsonEncoder struct{}

func (jsonEncoder) Open(cs *CapState, count int) error {
	w := outWriter{b: cs.Out}
	c := cs.Cap()
	if count > 0 {
		w.byte(',')
	}
	w.str(`{"type":"`)
	appendJSONString(&w, cs.Name(c.Key))
	w.str(`","s":`)
	w.int(c.Pos + 1)
	if cs.NextIsOpen() {
		w.str(`,"subs":[`)
	}
	return w.done()
}

func (jsonEncoder) Close(cs *CapState, count, start int) error {
	w := outWriter{b: cs.Out}
	c := cs.Cap()
	if !cs.AfterOpen() {
		w.byte(']')
	}
	w.str(`,"e":`)
	w.int(c.Pos + 1)
	w.str(`,"data":"`)
	switch {
	case c.Kind == bytecode.CapCloseConst:
		appendJSONString(&w, cs.Name(c.Key))
	case start >= 0 && start <= c.Pos:
		appendJSONString(&w, cs.Input[start:c.Pos])
	}
	w.str(`"}`)
	return w.done()
}

const hexDigits = "0123456789abcdef"

// appendJSONString writes p as the body of a JSON string. Bytes >= 0x80
// are copied unchanged.
func appendJSONString(w *outWriter, p []byte) {
	mark := 0
	for i, c := range p {
		var esc string
		switch c {
		case '"':
			esc = `\"`
		case '\\':
			esc = `\\`
		case '\b':
			esc = `\b`
		case '\t':
			esc = `\t`
		case '\n':
			esc = `\n`
		case '\f':
			esc = `\f`
		case '\r':
			esc = `\r`
		default:
			if c >= 0x20 && c != 0x7f {
				continue
			}
		}
		w.bytes(p[mark:i])
		if esc != "" {
			w.str(esc)
		} else {
			w.str(`\u00`)
			w.byte(hexDigits[c>>4])
			w.byte(hexDigits[c&0xf])
		}
		mark = i + 1
	}
	w.bytes(p[mark:])
}
