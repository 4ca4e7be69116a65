package codec

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

// pair is a tiny struct-shaped value used to exercise Marshal/Unmarshal
// without depending on the protocol package.
type pair struct {
	A uint16
	S string
}

func (p pair) MarshalWire(e *Encoder) error {
	e.Uint16(p.A)
	return e.String(p.S)
}

func (p *pair) UnmarshalWire(d *Decoder) error {
	a, err := d.Uint16()
	if err != nil {
		return err
	}
	s, err := d.String()
	if err != nil {
		return err
	}
	*p = pair{A: a, S: s}
	return nil
}

func TestEncoderPrimitives(t *testing.T) {
	e := NewEncoder(nil)
	e.Uint16(0x0102)
	e.Uint32(0x01020304)
	e.Float32(3.0)
	if err := e.String("hi"); err != nil {
		t.Fatalf("String failed: %v", err)
	}
	want := []byte{0x02, 0x01, 0x04, 0x03, 0x02, 0x01, 0, 0, 64, 64, 2, 'h', 'i'}
	if !bytes.Equal(e.Bytes(), want) {
		t.Fatalf("bytes mismatch: got %v, want %v", e.Bytes(), want)
	}
}

func TestVarint(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0}},
		{1, []byte{1}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{math.MaxUint32, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, tc := range cases {
		e := NewEncoder(nil)
		e.Varint(tc.v)
		if !bytes.Equal(e.Bytes(), tc.want) {
			t.Errorf("Varint(%d): got %v, want %v", tc.v, e.Bytes(), tc.want)
		}
		got, err := NewDecoder(tc.want).Varint()
		if err != nil {
			t.Fatalf("decode %v: %v", tc.want, err)
		}
		if got != tc.v {
			t.Errorf("decode %v: got %d, want %d", tc.want, got, tc.v)
		}
	}
}

func TestTagOverflowIsBadVarint(t *testing.T) {
	// 2^32 does not fit a 32-bit discriminant.
	d := NewDecoder([]byte{0x80, 0x80, 0x80, 0x80, 0x10})
	_, err := d.Tag("T", 2)
	if KindOf(err) != BadVarint {
		t.Fatalf("expect BadVarint, got %v", err)
	}
	if d.Offset() != 0 {
		t.Fatalf("failed read advanced the decoder to %d", d.Offset())
	}
}

func TestVarintTooLong(t *testing.T) {
	data := bytes.Repeat([]byte{0x80}, 11)
	if _, err := NewDecoder(data).Varint(); !errors.Is(err, ErrBadVarint) {
		t.Fatalf("expect ErrBadVarint, got %v", err)
	}
}

func TestOverlongVarintAccepted(t *testing.T) {
	d := NewDecoder([]byte{0x80, 0x00})
	tag, err := d.Tag("T", 2)
	if err != nil {
		t.Fatalf("expect nil error, got %v", err)
	}
	if tag != 0 || d.Remaining() != 0 {
		t.Fatalf("expect tag 0 with nothing left, got %d with %d bytes left", tag, d.Remaining())
	}

	n, err := NewDecoder([]byte{0x83, 0x80, 0x00}).Varint()
	if err != nil || n != 3 {
		t.Fatalf("expect 3, got %d (%v)", n, err)
	}
}

func TestTagRange(t *testing.T) {
	e := NewEncoder(nil)
	if err := e.Tag("T", 2, 2); !errors.Is(err, ErrInvalidDiscriminant) {
		t.Fatalf("encode tag 2 of 2: expect ErrInvalidDiscriminant, got %v", err)
	}
	if e.Len() != 0 {
		t.Fatalf("rejected tag wrote %d bytes", e.Len())
	}

	_, err := NewDecoder([]byte{5}).Tag("T", 2)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expect *DecodeError, got %T", err)
	}
	if de.Kind != InvalidDiscriminant || de.Value != 5 || de.Type != "T" {
		t.Fatalf("unexpected error: %+v", de)
	}
}

func TestDecodeTruncated(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		read func(d *Decoder) error
	}{
		{"uint16", []byte{1}, func(d *Decoder) error { _, err := d.Uint16(); return err }},
		{"uint32", []byte{1, 2, 3}, func(d *Decoder) error { _, err := d.Uint32(); return err }},
		{"float32", nil, func(d *Decoder) error { _, err := d.Float32(); return err }},
		{"varint", []byte{0x80}, func(d *Decoder) error { _, err := d.Varint(); return err }},
		{"tag", nil, func(d *Decoder) error { _, err := d.Tag("T", 2); return err }},
		{"string length", nil, func(d *Decoder) error { _, err := d.String(); return err }},
		{"string body", []byte{1}, func(d *Decoder) error { _, err := d.String(); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read(NewDecoder(tc.in))
			if !errors.Is(err, ErrTruncatedInput) {
				t.Fatalf("expect ErrTruncatedInput, got %v", err)
			}
		})
	}
}

func TestStringLengthBeyondInput(t *testing.T) {
	// Claims 1000 bytes, carries 2.
	d := NewDecoder([]byte{0xe8, 0x07, 'h', 'i'})
	if _, err := d.String(); KindOf(err) != TruncatedInput {
		t.Fatalf("expect TruncatedInput, got %v", err)
	}
	if d.Offset() != 0 {
		t.Fatalf("failed read advanced the decoder to %d", d.Offset())
	}
}

func TestInvalidUTF8(t *testing.T) {
	if _, err := NewDecoder([]byte{2, 0xc3, 0x28}).String(); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("decode: expect ErrInvalidUTF8, got %v", err)
	}
	if err := NewEncoder(nil).String("\xff"); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("encode: expect ErrInvalidUTF8, got %v", err)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	in := pair{A: 89, S: "Party Island"}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out, err := Unmarshal[pair](data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out != in {
		t.Errorf("value mismatch: got %+v, want %+v", out, in)
	}
}

func TestAppendMarshal(t *testing.T) {
	prefix := []byte{0xaa}
	data, err := AppendMarshal(prefix, pair{A: 1, S: ""})
	if err != nil {
		t.Fatalf("AppendMarshal failed: %v", err)
	}
	want := []byte{0xaa, 1, 0, 0}
	if !bytes.Equal(data, want) {
		t.Fatalf("got %v, want %v", data, want)
	}

	kept, err := AppendMarshal(prefix, pair{S: "\xff"})
	if err == nil {
		t.Fatal("expect error for invalid string")
	}
	if !bytes.Equal(kept, prefix) {
		t.Fatalf("failed marshal changed dst: %v", kept)
	}
}

func TestUnmarshalTrailingBytes(t *testing.T) {
	_, err := Unmarshal[pair]([]byte{1, 0, 0, 9, 9})
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != TrailingBytes {
		t.Fatalf("expect TrailingBytes, got %v", err)
	}
	if de.Value != 2 || de.Offset != 3 {
		t.Fatalf("unexpected error detail: %+v", de)
	}
}

func TestUnmarshalReturnsZeroOnError(t *testing.T) {
	out, err := Unmarshal[pair]([]byte{7, 0, 5, 'a'})
	if err == nil {
		t.Fatal("expect error for truncated string")
	}
	if out != (pair{}) {
		t.Fatalf("expect zero value, got %+v", out)
	}
}

func TestBinaryCodec(t *testing.T) {
	binaryCodec := &BinaryCodec{}
	if binaryCodec.Type() != CodecTypeBinary {
		t.Fatalf("Type mismatch: got %v", binaryCodec.Type())
	}

	data, err := binaryCodec.Encode(pair{A: 2, S: "x"})
	if err != nil {
		t.Fatalf("BinaryCodec Encode failed: %v", err)
	}
	var decoded pair
	if err := binaryCodec.Decode(data, &decoded); err != nil {
		t.Fatalf("BinaryCodec Decode failed: %v", err)
	}
	if decoded != (pair{A: 2, S: "x"}) {
		t.Errorf("value mismatch: got %+v", decoded)
	}

	if _, err := binaryCodec.Encode(42); err == nil {
		t.Error("expect error encoding a non-Marshaler")
	}
	if err := binaryCodec.Decode(data, decoded); err == nil {
		t.Error("expect error decoding into a non-pointer")
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	err := &DecodeError{Kind: InvalidDiscriminant, Offset: 0, Type: "Team", Value: 7}
	if got, want := err.Error(), "decode Team: invalid discriminant 7 at offset 0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if KindOf(errors.New("other")) != 0 {
		t.Error("KindOf on a foreign error should be 0")
	}
}
