package codec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

const (
	maxVarintLen32 = 5
	maxVarintLen64 = 10
)

// Decoder reads wire-encoded items from a byte slice. Every read either
// succeeds and advances, or fails with a *DecodeError and leaves the
// position unchanged.
type Decoder struct {
	data []byte
	off  int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Offset returns the number of bytes consumed.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

// Finish fails with TrailingBytes if unread input is left.
func (d *Decoder) Finish() error {
	if n := d.Remaining(); n > 0 {
		return &DecodeError{Kind: TrailingBytes, Offset: d.off, Value: uint64(n)}
	}
	return nil
}

func (d *Decoder) fail(kind ErrorKind, typeName string) error {
	return &DecodeError{Kind: kind, Offset: d.off, Type: typeName}
}

// varint reads an unsigned LEB128 value of at most maxLen bytes whose value
// fits in bits. Non-minimal encodings such as 0x80 0x00 are accepted.
func (d *Decoder) varint(maxLen int, bits uint, typeName string) (uint64, error) {
	var v uint64
	for i := 0; i < maxLen; i++ {
		if d.off+i >= len(d.data) {
			return 0, d.fail(TruncatedInput, typeName)
		}
		b := d.data[d.off+i]
		shift := uint(7 * i)
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			// The last byte may only carry bits that fit the target width.
			if i == maxLen-1 && bits-shift < 7 && b>>(bits-shift) != 0 {
				return 0, d.fail(BadVarint, typeName)
			}
			d.off += i + 1
			return v, nil
		}
	}
	return 0, d.fail(BadVarint, typeName)
}

// Varint reads an unsigned 64-bit varint.
func (d *Decoder) Varint() (uint64, error) {
	return d.varint(maxVarintLen64, 64, "")
}

// Tag reads an enum discriminant and checks it against the number of
// variants declared by typeName.
func (d *Decoder) Tag(typeName string, variants int) (uint32, error) {
	start := d.off
	v, err := d.varint(maxVarintLen32, 32, typeName)
	if err != nil {
		return 0, err
	}
	if v >= uint64(variants) {
		d.off = start
		return 0, &DecodeError{Kind: InvalidDiscriminant, Offset: start, Type: typeName, Value: v}
	}
	return uint32(v), nil
}

// Len reads a collection or string length. A length that cannot be satisfied
// by the remaining input, even at one byte per element, is TruncatedInput.
func (d *Decoder) Len(typeName string) (int, error) {
	start := d.off
	v, err := d.varint(maxVarintLen64, 64, typeName)
	if err != nil {
		return 0, err
	}
	if v > uint64(d.Remaining()) {
		d.off = start
		return 0, &DecodeError{Kind: TruncatedInput, Offset: start, Type: typeName}
	}
	return int(v), nil
}

func (d *Decoder) take(n int, typeName string) ([]byte, error) {
	if d.Remaining() < n {
		return nil, d.fail(TruncatedInput, typeName)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.take(2, "")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4, "")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) Float32() (float32, error) {
	b, err := d.take(4, "")
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() (string, error) {
	start := d.off
	n, err := d.Len("string")
	if err != nil {
		return "", err
	}
	b, err := d.take(n, "string")
	if err != nil {
		d.off = start
		return "", err
	}
	if !utf8.Valid(b) {
		d.off = start
		return "", &DecodeError{Kind: InvalidUTF8, Offset: start, Type: "string"}
	}
	return string(b), nil
}
