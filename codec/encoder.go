package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Encoder appends wire-encoded items to a byte slice. The zero value is ready
// to use.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder that appends to dst.
func NewEncoder(dst []byte) *Encoder {
	return &Encoder{buf: dst}
}

// Bytes returns the encoded bytes so far.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Tag writes an enum discriminant. variants is the number of variants the
// type declares; tags outside that range are rejected.
func (e *Encoder) Tag(typeName string, tag uint32, variants int) error {
	if int64(tag) >= int64(variants) {
		return fmt.Errorf("encode %s: %w %d", typeName, ErrInvalidDiscriminant, tag)
	}
	e.buf = binary.AppendUvarint(e.buf, uint64(tag))
	return nil
}

// Varint writes an unsigned varint.
func (e *Encoder) Varint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *Encoder) Uint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) Uint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) Float32(v float32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

// String writes a length-prefixed UTF-8 string. Invalid UTF-8 is an error
// because the decoder would refuse the bytes.
func (e *Encoder) String(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("encode string: %w", ErrInvalidUTF8)
	}
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}
