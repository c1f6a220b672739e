package vm

import "fmt"

// debugEncoder writes one line per walker event.
type debugEncoder struct{}

func (debugEncoder) Open(cs *CapState, count int) error {
	c := cs.Cap()
	return debugLine(cs, fmt.Sprintf("open  %-10s pos=%d idx=%d count=%d name=%q\n",
		c.Kind, c.Pos+1, cs.Idx, count, cs.Name(c.Key)))
}

func (debugEncoder) Close(cs *CapState, count, start int) error {
	c := cs.Cap()
	line := fmt.Sprintf("close %-10s pos=%d idx=%d count=%d start=%d", c.Kind, c.Pos+1, cs.Idx, count, start+1)
	if cs.synthetic {
		line += " (final)"
	}
	return debugLine(cs, line+"\n")
}

func debugLine(cs *CapState, s string) error {
	w := outWriter{b: cs.Out}
	w.str(s)
	return w.done()
}
