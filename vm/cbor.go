package vm

import (
	"fmt"

	"github.com/chazu/rpeg/pkg/bytecode"
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode is canonical so identical trees encode identically.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// CaptureNode is one capture in the tree emitted by the cbor encoding.
// Positions are 1-based and End is exclusive.
type CaptureNode struct {
	Type  string         `cbor:"type"`
	Start int            `cbor:"s"`
	End   int            `cbor:"e"`
	Data  []byte         `cbor:"data"`
	Subs  []*CaptureNode `cbor:"subs,omitempty"`
}

// UnmarshalCaptureTree decodes the output of the cbor encoding.
func UnmarshalCaptureTree(data []byte) (*CaptureNode, error) {
	var n CaptureNode
	if err := cbor.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("vm: unmarshal capture tree: %w", err)
	}
	return &n, nil
}

// cborEncoder builds the capture tree during the walk and marshals it when
// the walk is done.
type cborEncoder struct {
	root  *CaptureNode
	stack []*CaptureNode
}

func (e *cborEncoder) Open(cs *CapState, count int) error {
	c := cs.Cap()
	n := &CaptureNode{Type: string(cs.Name(c.Key)), Start: c.Pos + 1}
	if len(e.stack) == 0 {
		e.root = n
	} else {
		parent := e.stack[len(e.stack)-1]
		parent.Subs = append(parent.Subs, n)
	}
	e.stack = append(e.stack, n)
	return nil
}

func (e *cborEncoder) Close(cs *CapState, count, start int) error {
	if len(e.stack) == 0 {
		return ErrClose
	}
	n := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	c := cs.Cap()
	n.End = c.Pos + 1
	switch {
	case c.Kind == bytecode.CapCloseConst:
		n.Data = append([]byte(nil), cs.Name(c.Key)...)
	case start >= 0 && start <= c.Pos:
		n.Data = append([]byte(nil), cs.Input[start:c.Pos]...)
	default:
		n.Data = []byte{}
	}
	return nil
}

func (e *cborEncoder) Finish(cs *CapState) error {
	if e.root == nil {
		return nil
	}
	data, err := cborEncMode.Marshal(e.root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputMem, err)
	}
	w := outWriter{b: cs.Out}
	w.bytes(data)
	return w.done()
}
