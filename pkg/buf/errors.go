package buf

import "fmt"

// Error is the closed set of buffer error codes.
type Error int

const (
	OK Error = iota
	ErrWrite
	ErrRead
	ErrView
)

var messages = [...]string{
	OK:       "ok",
	ErrWrite: "write error",
	ErrRead:  "read error",
	ErrView:  "buffer is a read-only view",
}

func (e Error) Error() string {
	if e >= 0 && int(e) < len(messages) {
		return messages[e]
	}
	return fmt.Sprintf("buf: unknown error %d", int(e))
}

// Code returns the numeric discriminant.
func (e Error) Code() int { return int(e) }
