package vm

import (
	"fmt"
	"strings"

	"github.com/chazu/rpeg/pkg/bytecode"
	"github.com/chazu/rpeg/pkg/ktable"
)

// Capture is one record of the flat capture list produced by the VM.
// Pos is a 0-based offset into the input.
type Capture struct {
	Pos  int
	Kind bytecode.CapKind
	Key  uint32
}

// IsOpen reports whether c opens a capture.
func (c Capture) IsOpen() bool {
	return c.Kind.IsOpen()
}

// IsClose reports whether c closes a capture (ordinary or constant).
func (c Capture) IsClose() bool {
	return c.Kind == bytecode.CapClose || c.Kind == bytecode.CapCloseConst
}

// IsFinal reports whether c is the sentinel left by Halt.
func (c Capture) IsFinal() bool {
	return c.Kind == bytecode.CapFinal
}

// FormatCaptures renders a capture list, one record per line, for
// debugging.
func FormatCaptures(caps []Capture, kt *ktable.Table) string {
	var sb strings.Builder
	for i, c := range caps {
		name, _ := kt.Name(int(c.Key))
		fmt.Fprintf(&sb, "%4d  %-10s pos=%d key=%d %q\n", i, c.Kind, c.Pos+1, c.Key, name)
	}
	return sb.String()
}
