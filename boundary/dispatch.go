package boundary

import (
	"fmt"

	"partywire/codec"
	"partywire/protocol"
)

// ToValue exposes any schema value, or a pointer to one, as a dynamic value.
func ToValue(v any) (any, error) {
	switch x := v.(type) {
	case protocol.Team:
		return Team.ToValue(x)
	case *protocol.Team:
		return Team.ToValue(*x)
	case protocol.ControllerToSessionCommand:
		return Command.ToValue(x)
	case *protocol.ControllerToSessionCommand:
		return Command.ToValue(*x)
	case protocol.GameToControllerEvent:
		return GameEvent.ToValue(x)
	case *protocol.GameToControllerEvent:
		return GameEvent.ToValue(*x)
	case protocol.SessionEvent:
		return SessionEvent.ToValue(x)
	case *protocol.SessionEvent:
		return SessionEvent.ToValue(*x)
	case protocol.ControllerEvent:
		return ControllerEvent.ToValue(x)
	case *protocol.ControllerEvent:
		return ControllerEvent.ToValue(*x)
	case protocol.GameMessage:
		return GameMessage.ToValue(x)
	case *protocol.GameMessage:
		return GameMessage.ToValue(*x)
	case protocol.Statistics:
		return Statistics.ToValue(x)
	case *protocol.Statistics:
		return Statistics.ToValue(*x)
	case protocol.Incoming:
		return Incoming.ToValue(x)
	case *protocol.Incoming:
		return Incoming.ToValue(*x)
	case protocol.Outgoing:
		return Outgoing.ToValue(x)
	case *protocol.Outgoing:
		return Outgoing.ToValue(*x)
	}
	return nil, fmt.Errorf("boundary: %T is not a schema type", v)
}

// FromValue matches dyn against the type target points to and stores the
// result. target is left untouched on error.
func FromValue(dyn any, target any) error {
	switch t := target.(type) {
	case *protocol.Team:
		return store(t, Team, dyn)
	case *protocol.ControllerToSessionCommand:
		return store(t, Command, dyn)
	case *protocol.GameToControllerEvent:
		return store(t, GameEvent, dyn)
	case *protocol.SessionEvent:
		return store(t, SessionEvent, dyn)
	case *protocol.ControllerEvent:
		return store(t, ControllerEvent, dyn)
	case *protocol.GameMessage:
		return store(t, GameMessage, dyn)
	case *protocol.Statistics:
		return store(t, Statistics, dyn)
	case *protocol.Incoming:
		return store(t, Incoming, dyn)
	case *protocol.Outgoing:
		return store(t, Outgoing, dyn)
	}
	return fmt.Errorf("boundary: cannot decode into %T", target)
}

func store[T any](dst *T, c Converter[T], dyn any) error {
	v, err := c.FromValue(dyn)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// DecodeNamed decodes data as the named schema type and exposes it.
func DecodeNamed(typeName string, data []byte) (any, error) {
	v, err := newValue(typeName)
	if err != nil {
		return nil, err
	}
	if err := codec.UnmarshalInto(data, v.(codec.Unmarshaler)); err != nil {
		return nil, &AdapterError{Kind: KindDecode, Type: typeName, Err: err}
	}
	return ToValue(v)
}

// EncodeNamed matches dyn against the named schema type and encodes it.
func EncodeNamed(typeName string, dyn any) ([]byte, error) {
	v, err := newValue(typeName)
	if err != nil {
		return nil, err
	}
	if err := FromValue(dyn, v); err != nil {
		return nil, err
	}
	data, err := codec.Marshal(v.(codec.Marshaler))
	if err != nil {
		return nil, encodeError(typeName, err)
	}
	return data, nil
}

func newValue(typeName string) (any, error) {
	v, ok := protocol.NewValue(typeName)
	if !ok {
		return nil, fmt.Errorf("boundary: unknown type %q", typeName)
	}
	return v, nil
}
