package vm

// lineEncoder ignores the capture tree and outputs the subject of a
// successful match (the whole input unless a start or end was given), the
// way grep prints a matching line.
type lineEncoder struct{}

func (lineEncoder) Open(*CapState, int) error       { return nil }
func (lineEncoder) Close(*CapState, int, int) error { return nil }

func (lineEncoder) Finish(cs *CapState) error {
	w := outWriter{b: cs.Out}
	w.bytes(cs.Input[cs.Start:cs.End])
	return w.done()
}
