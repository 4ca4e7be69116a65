package codec

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure.
type ErrorKind uint8

const (
	// TruncatedInput: fewer bytes than the schema requires.
	TruncatedInput ErrorKind = iota + 1
	// InvalidDiscriminant: an enum tag past the last known variant.
	InvalidDiscriminant
	// InvalidUTF8: string bytes that are not valid UTF-8.
	InvalidUTF8
	// TrailingBytes: input left over after a complete top-level value.
	TrailingBytes
	// BadVarint: a varint longer than its target width allows.
	BadVarint
)

var (
	ErrTruncatedInput      = errors.New("truncated input")
	ErrInvalidDiscriminant = errors.New("invalid discriminant")
	ErrInvalidUTF8         = errors.New("invalid utf-8")
	ErrTrailingBytes       = errors.New("trailing bytes")
	ErrBadVarint           = errors.New("bad varint")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case TruncatedInput:
		return ErrTruncatedInput
	case InvalidDiscriminant:
		return ErrInvalidDiscriminant
	case InvalidUTF8:
		return ErrInvalidUTF8
	case TrailingBytes:
		return ErrTrailingBytes
	case BadVarint:
		return ErrBadVarint
	}
	return nil
}

func (k ErrorKind) String() string {
	switch k {
	case TruncatedInput:
		return "TruncatedInput"
	case InvalidDiscriminant:
		return "InvalidDiscriminant"
	case InvalidUTF8:
		return "InvalidUtf8"
	case TrailingBytes:
		return "TrailingBytes"
	case BadVarint:
		return "BadVarint"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// DecodeError reports where and why decoding stopped.
//
// errors.Is matches the sentinel of the kind, e.g.
// errors.Is(err, codec.ErrTruncatedInput).
type DecodeError struct {
	Kind   ErrorKind
	Offset int    // byte offset at which the failing item starts
	Type   string // schema type being read, empty for primitives
	Value  uint64 // offending tag for InvalidDiscriminant, byte count for TrailingBytes
}

func (e *DecodeError) Error() string {
	msg := e.Kind.sentinel().Error()
	switch e.Kind {
	case InvalidDiscriminant:
		msg = fmt.Sprintf("%s %d", msg, e.Value)
	case TrailingBytes:
		msg = fmt.Sprintf("%d %s", e.Value, msg)
	}
	if e.Type != "" {
		return fmt.Sprintf("decode %s: %s at offset %d", e.Type, msg, e.Offset)
	}
	return fmt.Sprintf("decode: %s at offset %d", msg, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind.sentinel()
}

// KindOf returns the decode error kind carried by err, or 0 if err is not a
// decode error.
func KindOf(err error) ErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
