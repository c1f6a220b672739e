package ktable

// Error is a capture table error code.
type Error int

const (
	OK Error = iota
	ErrMem
	ErrSize
	ErrNull
	ErrRange
)

var messages = [...]string{
	OK:       "OK",
	ErrMem:   "out of memory",
	ErrSize:  "too many captures",
	ErrNull:  "null ktable",
	ErrRange: "element outside block",
}

func (e Error) Error() string {
	if e >= 0 && int(e) < len(messages) {
		return messages[e]
	}
	return "unknown ktable error"
}

// Code returns the numeric error code.
func (e Error) Code() int {
	return int(e)
}
