package protocol

import (
	"fmt"

	"partywire/codec"
)

// IncomingKind is the variant of an Incoming message.
type IncomingKind uint8

const (
	IncomingControllerToSessionCommand IncomingKind = iota
	IncomingGameToSessionMessage
)

var incomingNames = [...]string{"ControllerToSessionCommand", "GameToSessionMessage"}

func (k IncomingKind) String() string {
	if int(k) < len(incomingNames) {
		return incomingNames[k]
	}
	return fmt.Sprintf("IncomingKind(%d)", uint8(k))
}

// Incoming is any message a server session receives, for links that carry
// both directions of traffic on one stream.
type Incoming struct {
	Kind    IncomingKind
	Command ControllerToSessionCommand
	Message GameMessage
}

func IncomingCommand(c ControllerToSessionCommand) Incoming {
	return Incoming{Kind: IncomingControllerToSessionCommand, Command: c}
}

func IncomingMessage(m GameMessage) Incoming {
	return Incoming{Kind: IncomingGameToSessionMessage, Message: m}
}

func (in Incoming) MarshalWire(e *codec.Encoder) error {
	if err := e.Tag("IncomingProtocol", uint32(in.Kind), len(incomingNames)); err != nil {
		return err
	}
	if in.Kind != IncomingControllerToSessionCommand && in.Command != (ControllerToSessionCommand{}) {
		return inactive("IncomingProtocol", in.Kind, "command")
	}
	if in.Kind != IncomingGameToSessionMessage && in.Message != (GameMessage{}) {
		return inactive("IncomingProtocol", in.Kind, "message")
	}
	switch in.Kind {
	case IncomingControllerToSessionCommand:
		return in.Command.MarshalWire(e)
	case IncomingGameToSessionMessage:
		return in.Message.MarshalWire(e)
	}
	return nil
}

func (in *Incoming) UnmarshalWire(d *codec.Decoder) error {
	tag, err := d.Tag("IncomingProtocol", len(incomingNames))
	if err != nil {
		return err
	}
	out := Incoming{Kind: IncomingKind(tag)}
	switch out.Kind {
	case IncomingControllerToSessionCommand:
		err = out.Command.UnmarshalWire(d)
	case IncomingGameToSessionMessage:
		err = out.Message.UnmarshalWire(d)
	}
	if err != nil {
		return err
	}
	*in = out
	return nil
}

// OutgoingKind is the variant of an Outgoing message.
type OutgoingKind uint8

const (
	OutgoingSessionToGameEvent OutgoingKind = iota
	OutgoingSessionToControllerEvent
)

var outgoingNames = [...]string{"SessionToGameEvent", "SessionToControllerEvent"}

func (k OutgoingKind) String() string {
	if int(k) < len(outgoingNames) {
		return outgoingNames[k]
	}
	return fmt.Sprintf("OutgoingKind(%d)", uint8(k))
}

// Outgoing is any message a server session sends.
type Outgoing struct {
	Kind            OutgoingKind
	GameEvent       SessionEvent
	ControllerEvent ControllerEvent
}

func OutgoingGameEvent(ev SessionEvent) Outgoing {
	return Outgoing{Kind: OutgoingSessionToGameEvent, GameEvent: ev}
}

func OutgoingControllerEvent(ev ControllerEvent) Outgoing {
	return Outgoing{Kind: OutgoingSessionToControllerEvent, ControllerEvent: ev}
}

func (out Outgoing) MarshalWire(e *codec.Encoder) error {
	if err := e.Tag("OutgoingProtocol", uint32(out.Kind), len(outgoingNames)); err != nil {
		return err
	}
	if out.Kind != OutgoingSessionToGameEvent && out.GameEvent != (SessionEvent{}) {
		return inactive("OutgoingProtocol", out.Kind, "game event")
	}
	if out.Kind != OutgoingSessionToControllerEvent && out.ControllerEvent != (ControllerEvent{}) {
		return inactive("OutgoingProtocol", out.Kind, "controller event")
	}
	switch out.Kind {
	case OutgoingSessionToGameEvent:
		return out.GameEvent.MarshalWire(e)
	case OutgoingSessionToControllerEvent:
		return out.ControllerEvent.MarshalWire(e)
	}
	return nil
}

func (out *Outgoing) UnmarshalWire(d *codec.Decoder) error {
	tag, err := d.Tag("OutgoingProtocol", len(outgoingNames))
	if err != nil {
		return err
	}
	res := Outgoing{Kind: OutgoingKind(tag)}
	switch res.Kind {
	case OutgoingSessionToGameEvent:
		err = res.GameEvent.UnmarshalWire(d)
	case OutgoingSessionToControllerEvent:
		err = res.ControllerEvent.UnmarshalWire(d)
	}
	if err != nil {
		return err
	}
	*out = res
	return nil
}
