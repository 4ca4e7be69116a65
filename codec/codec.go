// Package codec implements the compact binary wire format shared by the game,
// the server session and the controllers.
//
// The format carries no type information. The caller always names the type it
// expects, and the bytes are read field by field in declaration order:
//
//	enum tag     varint (7 bits per byte, continuation bit), zero-based variant index
//	u16 / u32    fixed-width little-endian
//	f32          IEEE-754 single precision, little-endian
//	string       varint byte length + UTF-8 bytes
//	set / map    varint element count + elements in ascending key order
//
// There is no message-level header, checksum or version byte. Framing belongs
// to the transport.
package codec

import "fmt"

type CodecType byte

const (
	CodecTypeJSON   CodecType = 0
	CodecTypeBinary CodecType = 1
)

func (t CodecType) String() string {
	switch t {
	case CodecTypeJSON:
		return "json"
	case CodecTypeBinary:
		return "binary"
	}
	return fmt.Sprintf("CodecType(%d)", byte(t))
}

// Codec translates schema values to and from a byte representation.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() CodecType // 0=JSON, 1=Binary
}

// Marshaler is implemented by every schema type. MarshalWire appends the
// value's wire form to e.
type Marshaler interface {
	MarshalWire(e *Encoder) error
}

// Unmarshaler is implemented by pointers to schema types. UnmarshalWire reads
// exactly one value from d and leaves the receiver untouched on failure.
type Unmarshaler interface {
	UnmarshalWire(d *Decoder) error
}

// Marshal returns the wire form of v.
func Marshal(v Marshaler) ([]byte, error) {
	return AppendMarshal(nil, v)
}

// AppendMarshal appends the wire form of v to dst. On error dst is returned
// unchanged.
func AppendMarshal(dst []byte, v Marshaler) ([]byte, error) {
	e := NewEncoder(dst)
	if err := v.MarshalWire(e); err != nil {
		return dst, err
	}
	return e.Bytes(), nil
}

// Unmarshal decodes data as a T and requires that every byte is consumed.
// The zero T is returned together with any error.
func Unmarshal[T any, PT interface {
	*T
	Unmarshaler
}](data []byte) (T, error) {
	var out T
	if err := UnmarshalInto(data, PT(&out)); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// UnmarshalInto decodes data into v and requires that every byte is consumed.
func UnmarshalInto(data []byte, v Unmarshaler) error {
	d := NewDecoder(data)
	if err := v.UnmarshalWire(d); err != nil {
		return err
	}
	return d.Finish()
}

// DecodeInto reads one nested value into v, which must implement
// Unmarshaler. Generic envelopes use it for their payload field.
func DecodeInto(d *Decoder, v any) error {
	u, ok := v.(Unmarshaler)
	if !ok {
		return fmt.Errorf("codec: %T does not implement Unmarshaler", v)
	}
	return u.UnmarshalWire(d)
}
