// Package protocol defines the messages exchanged between a game, the server
// session relaying for it, and the controllers attached to that session.
//
//	controller ──ControllerToSessionCommand──▶ session ──SessionToGameEvent──▶ game
//	controller ◀──SessionToControllerEvent─── session ◀──GameToSessionMessage── game
//
// Every enum is a struct carrying a Kind whose value is the wire tag, plus
// the fields of all its variants. Values are built with the constructors
// (Move, IncreaseScore, SetID, ...); encoding a value that sets a field its
// Kind does not carry fails with ErrInactiveField rather than dropping it. Tags
// are append-only: a variant never changes its index or payload once
// released, and new variants go at the end. Anything else is a breaking
// protocol version.
package protocol

import (
	"errors"
	"fmt"
	"reflect"

	"partywire/codec"
)

// ErrInactiveField is returned when encoding a value whose Kind does not
// carry one of the fields that is set.
var ErrInactiveField = errors.New("field set outside the active variant")

func inactive(typeName string, kind fmt.Stringer, field string) error {
	return fmt.Errorf("%s: %s carries no %s: %w", typeName, kind, field, ErrInactiveField)
}

func isZero[T any](v T) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}

// Payload is the constraint for the type parameter of the envelopes.
type Payload interface {
	codec.Marshaler
}

// SessionEventKind is the variant of a SessionToGameEvent.
type SessionEventKind uint8

const (
	SessionEventSetID SessionEventKind = iota
	SessionEventNewPlayer
	SessionEventPlayerLeft
	SessionEventControllerCommand
)

var sessionEventNames = [...]string{"SetId", "NewPlayer", "PlayerLeft", "ControllerCommand"}

func (k SessionEventKind) String() string {
	if int(k) < len(sessionEventNames) {
		return sessionEventNames[k]
	}
	return fmt.Sprintf("SessionEventKind(%d)", uint8(k))
}

// SessionToGameEvent is sent by the session towards the game.
//
//   - SetId: SessionID holds the randomly chosen session identifier.
//   - NewPlayer, PlayerLeft: ControllerID is the controller concerned.
//   - ControllerCommand: Command was issued by controller ControllerID.
type SessionToGameEvent[C Payload] struct {
	Kind         SessionEventKind
	SessionID    string
	ControllerID uint16
	Command      C
}

// SessionEvent is the instantiation used on the wire.
type SessionEvent = SessionToGameEvent[ControllerToSessionCommand]

func SetID[C Payload](id string) SessionToGameEvent[C] {
	return SessionToGameEvent[C]{Kind: SessionEventSetID, SessionID: id}
}

func NewPlayer[C Payload](id uint16) SessionToGameEvent[C] {
	return SessionToGameEvent[C]{Kind: SessionEventNewPlayer, ControllerID: id}
}

func PlayerLeft[C Payload](id uint16) SessionToGameEvent[C] {
	return SessionToGameEvent[C]{Kind: SessionEventPlayerLeft, ControllerID: id}
}

func ControllerCommand[C Payload](id uint16, command C) SessionToGameEvent[C] {
	return SessionToGameEvent[C]{Kind: SessionEventControllerCommand, ControllerID: id, Command: command}
}

func (ev SessionToGameEvent[C]) MarshalWire(e *codec.Encoder) error {
	if err := e.Tag("SessionToGameEvent", uint32(ev.Kind), len(sessionEventNames)); err != nil {
		return err
	}
	if ev.Kind != SessionEventSetID && ev.SessionID != "" {
		return inactive("SessionToGameEvent", ev.Kind, "session id")
	}
	if ev.Kind == SessionEventSetID && ev.ControllerID != 0 {
		return inactive("SessionToGameEvent", ev.Kind, "controller id")
	}
	if ev.Kind != SessionEventControllerCommand && !isZero(ev.Command) {
		return inactive("SessionToGameEvent", ev.Kind, "command")
	}
	switch ev.Kind {
	case SessionEventSetID:
		return e.String(ev.SessionID)
	case SessionEventNewPlayer, SessionEventPlayerLeft:
		e.Uint16(ev.ControllerID)
	case SessionEventControllerCommand:
		e.Uint16(ev.ControllerID)
		return ev.Command.MarshalWire(e)
	}
	return nil
}

func (ev *SessionToGameEvent[C]) UnmarshalWire(d *codec.Decoder) error {
	tag, err := d.Tag("SessionToGameEvent", len(sessionEventNames))
	if err != nil {
		return err
	}
	out := SessionToGameEvent[C]{Kind: SessionEventKind(tag)}
	switch out.Kind {
	case SessionEventSetID:
		if out.SessionID, err = d.String(); err != nil {
			return err
		}
	case SessionEventNewPlayer, SessionEventPlayerLeft:
		if out.ControllerID, err = d.Uint16(); err != nil {
			return err
		}
	case SessionEventControllerCommand:
		if out.ControllerID, err = d.Uint16(); err != nil {
			return err
		}
		if err = codec.DecodeInto(d, &out.Command); err != nil {
			return err
		}
	}
	*ev = out
	return nil
}

// ControllerEventKind is the variant of a SessionToControllerEvent.
type ControllerEventKind uint8

const (
	ControllerEventSetPushInterval ControllerEventKind = iota
	ControllerEventGameToControllerEvent
)

var controllerEventNames = [...]string{"SetPushInterval", "GameToControllerEvent"}

func (k ControllerEventKind) String() string {
	if int(k) < len(controllerEventNames) {
		return controllerEventNames[k]
	}
	return fmt.Sprintf("ControllerEventKind(%d)", uint8(k))
}

// SessionToControllerEvent is sent by the session to one connected
// controller.
//
//   - SetPushInterval: PushInterval is how often the controller should push,
//     in milliseconds.
//   - GameToControllerEvent: Event was forwarded from the game.
type SessionToControllerEvent[E Payload] struct {
	Kind         ControllerEventKind
	PushInterval uint32
	Event        E
}

// ControllerEvent is the instantiation used on the wire.
type ControllerEvent = SessionToControllerEvent[GameToControllerEvent]

func SetPushInterval[E Payload](ms uint32) SessionToControllerEvent[E] {
	return SessionToControllerEvent[E]{Kind: ControllerEventSetPushInterval, PushInterval: ms}
}

func Forward[E Payload](event E) SessionToControllerEvent[E] {
	return SessionToControllerEvent[E]{Kind: ControllerEventGameToControllerEvent, Event: event}
}

func (ev SessionToControllerEvent[E]) MarshalWire(e *codec.Encoder) error {
	if err := e.Tag("SessionToControllerEvent", uint32(ev.Kind), len(controllerEventNames)); err != nil {
		return err
	}
	if ev.Kind != ControllerEventSetPushInterval && ev.PushInterval != 0 {
		return inactive("SessionToControllerEvent", ev.Kind, "push interval")
	}
	if ev.Kind != ControllerEventGameToControllerEvent && !isZero(ev.Event) {
		return inactive("SessionToControllerEvent", ev.Kind, "event")
	}
	switch ev.Kind {
	case ControllerEventSetPushInterval:
		e.Uint32(ev.PushInterval)
	case ControllerEventGameToControllerEvent:
		return ev.Event.MarshalWire(e)
	}
	return nil
}

func (ev *SessionToControllerEvent[E]) UnmarshalWire(d *codec.Decoder) error {
	tag, err := d.Tag("SessionToControllerEvent", len(controllerEventNames))
	if err != nil {
		return err
	}
	out := SessionToControllerEvent[E]{Kind: ControllerEventKind(tag)}
	switch out.Kind {
	case ControllerEventSetPushInterval:
		if out.PushInterval, err = d.Uint32(); err != nil {
			return err
		}
	case ControllerEventGameToControllerEvent:
		if err = codec.DecodeInto(d, &out.Event); err != nil {
			return err
		}
	}
	*ev = out
	return nil
}

// GameToSessionMessage is a game event addressed to controller ID, to be
// forwarded by the session.
type GameToSessionMessage[E Payload] struct {
	ID    uint16
	Event E
}

// GameMessage is the instantiation used on the wire.
type GameMessage = GameToSessionMessage[GameToControllerEvent]

func (m GameToSessionMessage[E]) MarshalWire(e *codec.Encoder) error {
	e.Uint16(m.ID)
	return m.Event.MarshalWire(e)
}

func (m *GameToSessionMessage[E]) UnmarshalWire(d *codec.Decoder) error {
	var out GameToSessionMessage[E]
	var err error
	if out.ID, err = d.Uint16(); err != nil {
		return err
	}
	if err = codec.DecodeInto(d, &out.Event); err != nil {
		return err
	}
	*m = out
	return nil
}
