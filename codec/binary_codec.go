package codec

import "fmt"

// BinaryCodec adapts the wire format to the Codec interface.
type BinaryCodec struct{}

func (c *BinaryCodec) Encode(v any) ([]byte, error) {
	// v must implement Marshaler
	m, ok := v.(Marshaler)
	if !ok {
		return nil, fmt.Errorf("BinaryCodec: %T does not implement Marshaler", v)
	}
	return Marshal(m)
}

func (c *BinaryCodec) Decode(data []byte, v any) error {
	// v must be a pointer implementing Unmarshaler
	u, ok := v.(Unmarshaler)
	if !ok {
		return fmt.Errorf("BinaryCodec: %T does not implement Unmarshaler", v)
	}
	return UnmarshalInto(data, u)
}

func (c *BinaryCodec) Type() CodecType {
	return CodecTypeBinary
}
