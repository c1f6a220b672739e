package vm

import "fmt"

// MatchError is the closed set of match error codes. Halt is listed for
// completeness of the code space; a halted match is reported through
// Match.Abend, never as an error.
type MatchError int

const (
	OK MatchError = iota
	Halt
	ErrStack
	ErrBadInst
	ErrCap
	ErrInputLen
	ErrOutputMem
	ErrOpen
	ErrClose
	ErrFullCap
	ErrCapStack
	ErrInvalidEncoder
	ErrImpl
	ErrOutOfMem
	ErrStartPos
	ErrEndPos
)

var matchMessages = [...]string{
	OK:                "ok",
	Halt:              "halt/abend",
	ErrStack:          "backtracking stack limit exceeded",
	ErrBadInst:        "invalid instruction for matching vm",
	ErrCap:            "capture limit exceeded (or insufficient memory for captures)",
	ErrInputLen:       "input too large",
	ErrOutputMem:      "insufficient memory for match data",
	ErrOpen:           "open capture error in match",
	ErrClose:          "close capture error in match",
	ErrFullCap:        "full capture error in match",
	ErrCapStack:       "capture stack overflow in match",
	ErrInvalidEncoder: "invalid encoder in match",
	ErrImpl:           "implementation error",
	ErrOutOfMem:       "out of memory",
	ErrStartPos:       "start position beyond end of input",
	ErrEndPos:         "end position before start position or beyond end of input",
}

func (e MatchError) Error() string {
	if e >= 0 && int(e) < len(matchMessages) {
		return matchMessages[e]
	}
	return fmt.Sprintf("vm: unknown match error %d", int(e))
}

// Code returns the numeric discriminant.
func (e MatchError) Code() int { return int(e) }
