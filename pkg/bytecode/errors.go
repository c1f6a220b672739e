package bytecode

import "fmt"

// FileError is the closed set of file codec error codes.
type FileError int

const (
	FileOK FileError = iota
	ErrNoFile
	ErrWrite
	ErrRead
	ErrMagic
	ErrKtableLen
	ErrInstLen
	ErrMem
	ErrKtableSize
	ErrSeparator
	ErrCorrupt
)

var fileMessages = [...]string{
	FileOK:        "ok",
	ErrNoFile:     "cannot open file",
	ErrWrite:      "write error",
	ErrRead:       "read error",
	ErrMagic:      "wrong magic number",
	ErrKtableLen:  "too many ktable entries",
	ErrInstLen:    "instruction vector too long",
	ErrMem:        "out of memory",
	ErrKtableSize: "ktable total size too long",
	ErrSeparator:  "missing section separator",
	ErrCorrupt:    "ktable element outside its block",
}

func (e FileError) Error() string {
	if e >= 0 && int(e) < len(fileMessages) {
		return fileMessages[e]
	}
	return fmt.Sprintf("bytecode: unknown file error %d", int(e))
}

// Code returns the numeric discriminant.
func (e FileError) Code() int { return int(e) }
