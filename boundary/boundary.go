// Package boundary converts between the typed protocol messages and the
// dynamic values used by controller hosts outside the Go type system.
//
// Dynamic values are built from nil, bool, string, numbers, []any and
// map[string]any. Enum variants are externally tagged:
//
//	Action1                     "Action1"
//	IncreaseScore(Red)          {"IncreaseScore": "Red"}
//	Move{x: 3, y: 1}            {"Move": {"x": 3, "y": 1}}
//	GameToSessionMessage{...}   {"id": 89, "event": "Event1"}
//
// Numbers leave with their wire width (uint16, uint32, float32). On the way
// in any Go number or json.Number is accepted when it fits the field.
// Everything else that does not match a known shape exactly is a schema
// mismatch; nothing is defaulted.
package boundary

import (
	"errors"
	"fmt"

	"partywire/codec"
	"partywire/protocol"
)

var ErrSchemaMismatch = errors.New("schema mismatch")

type ErrorKind uint8

const (
	KindDecode ErrorKind = iota + 1
	KindSchemaMismatch
	KindEncode
)

func (k ErrorKind) String() string {
	switch k {
	case KindDecode:
		return "Decode"
	case KindSchemaMismatch:
		return "SchemaMismatch"
	case KindEncode:
		return "Encode"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// AdapterError is returned by every conversion in this package.
type AdapterError struct {
	Kind ErrorKind
	Type string // schema type being converted
	Path string // location in the dynamic value, e.g. $.Move.x
	Msg  string
	Err  error
}

func (e *AdapterError) Error() string {
	switch e.Kind {
	case KindSchemaMismatch:
		return fmt.Sprintf("%s: %s at %s: %s", e.Type, ErrSchemaMismatch, e.Path, e.Msg)
	case KindDecode:
		return fmt.Sprintf("%s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

func mismatch(typeName, path, format string, args ...any) error {
	return &AdapterError{
		Kind: KindSchemaMismatch,
		Type: typeName,
		Path: path,
		Msg:  fmt.Sprintf(format, args...),
		Err:  ErrSchemaMismatch,
	}
}

func encodeError(typeName string, err error) error {
	return &AdapterError{Kind: KindEncode, Type: typeName, Err: err}
}

// ControllerEventFromBytes decodes an event the session sent to a
// controller and exposes it as a dynamic value.
func ControllerEventFromBytes(data []byte) (any, error) {
	ev, err := codec.Unmarshal[protocol.ControllerEvent](data)
	if err != nil {
		return nil, &AdapterError{Kind: KindDecode, Type: protocol.TypeControllerEvent, Err: err}
	}
	return ControllerEvent.ToValue(ev)
}

// ControllerCommandToBytes matches a dynamic value against the controller
// command variants and encodes the result for the session.
func ControllerCommandToBytes(v any) ([]byte, error) {
	cmd, err := Command.FromValue(v)
	if err != nil {
		return nil, err
	}
	data, err := codec.Marshal(cmd)
	if err != nil {
		return nil, encodeError(protocol.TypeControllerToSessionCommand, err)
	}
	return data, nil
}
