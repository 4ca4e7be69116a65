package boundary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"partywire/codec"
)

// JSONCodec renders schema values as JSON using the dynamic representation.
// Handy for debugging and for hosts that speak JSON rather than the binary
// wire format.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	dyn, err := ToValue(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(dyn)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	// Numbers stay json.Number so integers keep full precision until they
	// are checked against the field width.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var dyn any
	if err := dec.Decode(&dyn); err != nil {
		return fmt.Errorf("JSONCodec: %w", err)
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return fmt.Errorf("JSONCodec: unexpected data after value")
	}
	return FromValue(dyn, v)
}

func (c *JSONCodec) Type() codec.CodecType {
	return codec.CodecTypeJSON
}

// GetCodec returns the codec for the given type.
func GetCodec(codecType codec.CodecType) codec.Codec {
	if codecType == codec.CodecTypeJSON {
		return &JSONCodec{}
	}

	return &codec.BinaryCodec{}
}
