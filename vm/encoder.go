package vm

import (
	"fmt"
	"strconv"

	"github.com/chazu/rpeg/pkg/buf"
)

// Encoding selects how a successful match is rendered.
type Encoding string

const (
	EncodeJSON   Encoding = "json"
	EncodeByte   Encoding = "byte"
	EncodeDebug  Encoding = "debug"
	EncodeLine   Encoding = "line"
	EncodeCBOR   Encoding = "cbor"
	EncodeStatus Encoding = "status" // match status only, no data
)

// Encodings lists the supported encodings.
func Encodings() []Encoding {
	return []Encoding{EncodeJSON, EncodeByte, EncodeDebug, EncodeLine, EncodeCBOR, EncodeStatus}
}

// ParseEncoding maps a name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	for _, e := range Encodings() {
		if string(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEncoder, name)
}

// newEncoder returns a fresh encoder. EncodeStatus has none.
func newEncoder(e Encoding) (Encoder, error) {
	switch e {
	case EncodeJSON:
		return jsonEncoder{}, nil
	case EncodeByte:
		return byteEncoder{}, nil
	case EncodeDebug:
		return debugEncoder{}, nil
	case EncodeLine:
		return lineEncoder{}, nil
	case EncodeCBOR:
		return &cborEncoder{}, nil
	case EncodeStatus:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEncoder, string(e))
	}
}

// outWriter appends to a buffer and keeps the first error.
type outWriter struct {
	b   *buf.Buffer
	err error
}

func (w *outWriter) str(s string) {
	if w.err == nil {
		w.err = w.b.AppendString(s)
	}
}

func (w *outWriter) bytes(p []byte) {
	if w.err == nil {
		w.err = w.b.Append(p)
	}
}

func (w *outWriter) byte(c byte) {
	if w.err == nil {
		w.err = w.b.AppendByte(c)
	}
}

func (w *outWriter) int(n int) {
	var tmp [20]byte
	w.bytes(strconv.AppendInt(tmp[:0], int64(n), 10))
}

func (w *outWriter) int32(n int32) {
	if w.err == nil {
		w.err = w.b.AppendInt32(n)
	}
}

func (w *outWriter) int16(n int16) {
	if w.err == nil {
		w.err = w.b.AppendInt16(n)
	}
}

func (w *outWriter) done() error {
	if w.err != nil {
		return fmt.Errorf("%w: %v", ErrOutputMem, w.err)
	}
	return nil
}
