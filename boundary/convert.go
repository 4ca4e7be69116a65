package boundary

import (
	"fmt"
	"math"
	"strconv"

	"partywire/protocol"
)

// Converter is the typed/dynamic visitor pair for one schema type.
type Converter[T any] struct {
	name string
	to   func(T) (any, error)
	from func(v any, path string) (T, error)
}

// Name returns the schema type name.
func (c Converter[T]) Name() string {
	return c.name
}

// ToValue exposes a typed value as a dynamic value.
func (c Converter[T]) ToValue(v T) (any, error) {
	return c.to(v)
}

// FromValue matches a dynamic value against the type's shape.
func (c Converter[T]) FromValue(v any) (T, error) {
	return c.from(v, "$")
}

// FromValueAt is FromValue for a value nested at path.
func (c Converter[T]) FromValueAt(v any, path string) (T, error) {
	return c.from(v, path)
}

var (
	Team      = Converter[protocol.Team]{protocol.TypeTeam, teamToValue, teamFromValue}
	Command   = Converter[protocol.ControllerToSessionCommand]{protocol.TypeControllerToSessionCommand, commandToValue, commandFromValue}
	GameEvent = Converter[protocol.GameToControllerEvent]{protocol.TypeGameToControllerEvent, gameEventToValue, gameEventFromValue}

	SessionEvent    = SessionEventOf(Command)
	ControllerEvent = ControllerEventOf(GameEvent)
	GameMessage     = GameMessageOf(GameEvent)

	Statistics = Converter[protocol.Statistics]{protocol.TypeStatistics, statisticsToValue, statisticsFromValue}
	Incoming   = Converter[protocol.Incoming]{protocol.TypeIncoming, incomingToValue, incomingFromValue}
	Outgoing   = Converter[protocol.Outgoing]{protocol.TypeOutgoing, outgoingToValue, outgoingFromValue}
)

// splitVariant takes an externally tagged enum value apart. A bare string is
// a unit variant; a single-key object is a variant with payload.
func splitVariant(typeName string, v any, path string) (name string, payload any, isUnit bool, err error) {
	switch x := v.(type) {
	case string:
		return x, nil, true, nil
	case map[string]any:
		if len(x) != 1 {
			return "", nil, false, mismatch(typeName, path, "expected one variant key, got %d keys", len(x))
		}
		for k, p := range x {
			return k, p, false, nil
		}
	}
	return "", nil, false, mismatch(typeName, path, "expected variant name or object, got %s", describe(v))
}

func unitOnly(typeName, name string, isUnit bool, path string) error {
	if !isUnit {
		return mismatch(typeName, path+"."+name, "variant %s takes no payload", name)
	}
	return nil
}

func payloadOnly(typeName, name string, isUnit bool, path string) error {
	if isUnit {
		return mismatch(typeName, path, "variant %s requires a payload", name)
	}
	return nil
}

// object requires v to be an object with exactly the given keys.
func object(typeName string, v any, path string, keys ...string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, mismatch(typeName, path, "expected object, got %s", describe(v))
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return nil, mismatch(typeName, path, "missing field %q", k)
		}
	}
	if len(m) != len(keys) {
		for k := range m {
			if !contains(keys, k) {
				return nil, mismatch(typeName, path, "unknown field %q", k)
			}
		}
	}
	return m, nil
}

func contains(keys []string, k string) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

func u16From(typeName string, v any, path string) (uint16, error) {
	n, ok := asUint(v, math.MaxUint16)
	if !ok {
		return 0, mismatch(typeName, path, "expected u16, got %s %v", describe(v), v)
	}
	return uint16(n), nil
}

func u32From(typeName string, v any, path string) (uint32, error) {
	n, ok := asUint(v, math.MaxUint32)
	if !ok {
		return 0, mismatch(typeName, path, "expected u32, got %s %v", describe(v), v)
	}
	return uint32(n), nil
}

func f32From(typeName string, v any, path string) (float32, error) {
	f, ok := asFloat32(v)
	if !ok {
		return 0, mismatch(typeName, path, "expected f32, got %s %v", describe(v), v)
	}
	return f, nil
}

func stringFrom(typeName string, v any, path string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch(typeName, path, "expected string, got %s", describe(v))
	}
	return s, nil
}

func unknownVariant(typeName, name, path string) error {
	return mismatch(typeName, path, "unknown variant %q", name)
}

func invalidKind(typeName string, kind any) error {
	return &AdapterError{Kind: KindEncode, Type: typeName, Err: fmt.Errorf("no variant for %v", kind)}
}

func teamToValue(t protocol.Team) (any, error) {
	switch t {
	case protocol.Blue, protocol.Red:
		return t.String(), nil
	}
	return nil, invalidKind(protocol.TypeTeam, t)
}

func teamFromValue(v any, path string) (protocol.Team, error) {
	name, _, isUnit, err := splitVariant(protocol.TypeTeam, v, path)
	if err != nil {
		return 0, err
	}
	team, ok := protocol.ParseTeam(name)
	if !ok {
		return 0, unknownVariant(protocol.TypeTeam, name, path)
	}
	if err := unitOnly(protocol.TypeTeam, name, isUnit, path); err != nil {
		return 0, err
	}
	return team, nil
}

func commandToValue(c protocol.ControllerToSessionCommand) (any, error) {
	switch c.Kind {
	case protocol.CommandAction1:
		return c.Kind.String(), nil
	case protocol.CommandMove:
		return map[string]any{c.Kind.String(): map[string]any{"x": c.X, "y": c.Y}}, nil
	}
	return nil, invalidKind(protocol.TypeControllerToSessionCommand, c.Kind)
}

func commandFromValue(v any, path string) (protocol.ControllerToSessionCommand, error) {
	const typ = protocol.TypeControllerToSessionCommand
	var zero protocol.ControllerToSessionCommand
	name, payload, isUnit, err := splitVariant(typ, v, path)
	if err != nil {
		return zero, err
	}
	switch name {
	case protocol.CommandAction1.String():
		if err := unitOnly(typ, name, isUnit, path); err != nil {
			return zero, err
		}
		return protocol.Action1(), nil
	case protocol.CommandMove.String():
		if err := payloadOnly(typ, name, isUnit, path); err != nil {
			return zero, err
		}
		at := path + "." + name
		fields, err := object(typ, payload, at, "x", "y")
		if err != nil {
			return zero, err
		}
		x, err := f32From(typ, fields["x"], at+".x")
		if err != nil {
			return zero, err
		}
		y, err := f32From(typ, fields["y"], at+".y")
		if err != nil {
			return zero, err
		}
		return protocol.Move(x, y), nil
	}
	return zero, unknownVariant(typ, name, path)
}

func gameEventToValue(ev protocol.GameToControllerEvent) (any, error) {
	switch ev.Kind {
	case protocol.GameEventAction2, protocol.GameEventEvent1:
		return ev.Kind.String(), nil
	case protocol.GameEventIncreaseScore:
		team, err := teamToValue(ev.Team)
		if err != nil {
			return nil, err
		}
		return map[string]any{ev.Kind.String(): team}, nil
	}
	return nil, invalidKind(protocol.TypeGameToControllerEvent, ev.Kind)
}

func gameEventFromValue(v any, path string) (protocol.GameToControllerEvent, error) {
	const typ = protocol.TypeGameToControllerEvent
	var zero protocol.GameToControllerEvent
	name, payload, isUnit, err := splitVariant(typ, v, path)
	if err != nil {
		return zero, err
	}
	switch name {
	case protocol.GameEventAction2.String():
		if err := unitOnly(typ, name, isUnit, path); err != nil {
			return zero, err
		}
		return protocol.Action2(), nil
	case protocol.GameEventEvent1.String():
		if err := unitOnly(typ, name, isUnit, path); err != nil {
			return zero, err
		}
		return protocol.Event1(), nil
	case protocol.GameEventIncreaseScore.String():
		if err := payloadOnly(typ, name, isUnit, path); err != nil {
			return zero, err
		}
		team, err := teamFromValue(payload, path+"."+name)
		if err != nil {
			return zero, err
		}
		return protocol.IncreaseScore(team), nil
	}
	return zero, unknownVariant(typ, name, path)
}

// SessionEventOf builds the converter for a SessionToGameEvent carrying
// commands handled by command.
func SessionEventOf[C protocol.Payload](command Converter[C]) Converter[protocol.SessionToGameEvent[C]] {
	typ := "SessionToGameEvent<" + command.name + ">"
	to := func(ev protocol.SessionToGameEvent[C]) (any, error) {
		name := ev.Kind.String()
		switch ev.Kind {
		case protocol.SessionEventSetID:
			return map[string]any{name: ev.SessionID}, nil
		case protocol.SessionEventNewPlayer, protocol.SessionEventPlayerLeft:
			return map[string]any{name: ev.ControllerID}, nil
		case protocol.SessionEventControllerCommand:
			cmd, err := command.to(ev.Command)
			if err != nil {
				return nil, err
			}
			return map[string]any{name: map[string]any{"id": ev.ControllerID, "command": cmd}}, nil
		}
		return nil, invalidKind(typ, ev.Kind)
	}
	from := func(v any, path string) (protocol.SessionToGameEvent[C], error) {
		var zero protocol.SessionToGameEvent[C]
		name, payload, isUnit, err := splitVariant(typ, v, path)
		if err != nil {
			return zero, err
		}
		at := path + "." + name
		switch name {
		case protocol.SessionEventSetID.String():
			if err := payloadOnly(typ, name, isUnit, path); err != nil {
				return zero, err
			}
			id, err := stringFrom(typ, payload, at)
			if err != nil {
				return zero, err
			}
			return protocol.SetID[C](id), nil
		case protocol.SessionEventNewPlayer.String(), protocol.SessionEventPlayerLeft.String():
			if err := payloadOnly(typ, name, isUnit, path); err != nil {
				return zero, err
			}
			id, err := u16From(typ, payload, at)
			if err != nil {
				return zero, err
			}
			if name == protocol.SessionEventNewPlayer.String() {
				return protocol.NewPlayer[C](id), nil
			}
			return protocol.PlayerLeft[C](id), nil
		case protocol.SessionEventControllerCommand.String():
			if err := payloadOnly(typ, name, isUnit, path); err != nil {
				return zero, err
			}
			fields, err := object(typ, payload, at, "id", "command")
			if err != nil {
				return zero, err
			}
			id, err := u16From(typ, fields["id"], at+".id")
			if err != nil {
				return zero, err
			}
			cmd, err := command.from(fields["command"], at+".command")
			if err != nil {
				return zero, err
			}
			return protocol.ControllerCommand(id, cmd), nil
		}
		return zero, unknownVariant(typ, name, path)
	}
	return Converter[protocol.SessionToGameEvent[C]]{typ, to, from}
}

// ControllerEventOf builds the converter for a SessionToControllerEvent
// carrying events handled by event.
func ControllerEventOf[E protocol.Payload](event Converter[E]) Converter[protocol.SessionToControllerEvent[E]] {
	typ := "SessionToControllerEvent<" + event.name + ">"
	to := func(ev protocol.SessionToControllerEvent[E]) (any, error) {
		name := ev.Kind.String()
		switch ev.Kind {
		case protocol.ControllerEventSetPushInterval:
			return map[string]any{name: ev.PushInterval}, nil
		case protocol.ControllerEventGameToControllerEvent:
			payload, err := event.to(ev.Event)
			if err != nil {
				return nil, err
			}
			return map[string]any{name: payload}, nil
		}
		return nil, invalidKind(typ, ev.Kind)
	}
	from := func(v any, path string) (protocol.SessionToControllerEvent[E], error) {
		var zero protocol.SessionToControllerEvent[E]
		name, payload, isUnit, err := splitVariant(typ, v, path)
		if err != nil {
			return zero, err
		}
		at := path + "." + name
		switch name {
		case protocol.ControllerEventSetPushInterval.String():
			if err := payloadOnly(typ, name, isUnit, path); err != nil {
				return zero, err
			}
			ms, err := u32From(typ, payload, at)
			if err != nil {
				return zero, err
			}
			return protocol.SetPushInterval[E](ms), nil
		case protocol.ControllerEventGameToControllerEvent.String():
			if err := payloadOnly(typ, name, isUnit, path); err != nil {
				return zero, err
			}
			inner, err := event.from(payload, at)
			if err != nil {
				return zero, err
			}
			return protocol.Forward(inner), nil
		}
		return zero, unknownVariant(typ, name, path)
	}
	return Converter[protocol.SessionToControllerEvent[E]]{typ, to, from}
}

// GameMessageOf builds the converter for a GameToSessionMessage carrying
// events handled by event.
func GameMessageOf[E protocol.Payload](event Converter[E]) Converter[protocol.GameToSessionMessage[E]] {
	typ := "GameToSessionMessage<" + event.name + ">"
	to := func(m protocol.GameToSessionMessage[E]) (any, error) {
		payload, err := event.to(m.Event)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": m.ID, "event": payload}, nil
	}
	from := func(v any, path string) (protocol.GameToSessionMessage[E], error) {
		var zero protocol.GameToSessionMessage[E]
		fields, err := object(typ, v, path, "id", "event")
		if err != nil {
			return zero, err
		}
		id, err := u16From(typ, fields["id"], path+".id")
		if err != nil {
			return zero, err
		}
		ev, err := event.from(fields["event"], path+".event")
		if err != nil {
			return zero, err
		}
		return protocol.GameToSessionMessage[E]{ID: id, Event: ev}, nil
	}
	return Converter[protocol.GameToSessionMessage[E]]{typ, to, from}
}

func statisticsToValue(st protocol.Statistics) (any, error) {
	tree := make(map[string]any, len(st.Tree))
	for id, set := range st.Tree {
		members := make([]any, 0, len(set))
		for _, c := range set.Sorted() {
			members = append(members, c)
		}
		tree[id] = members
	}
	return map[string]any{"tree": tree}, nil
}

func statisticsFromValue(v any, path string) (protocol.Statistics, error) {
	const typ = protocol.TypeStatistics
	fields, err := object(typ, v, path, "tree")
	if err != nil {
		return protocol.Statistics{}, err
	}
	at := path + ".tree"
	raw, ok := fields["tree"].(map[string]any)
	if list, isList := fields["tree"].([]any); isList && len(list) == 0 {
		// Hosts whose empty tables carry no object/array distinction.
		raw, ok = nil, true
	}
	if !ok {
		return protocol.Statistics{}, mismatch(typ, at, "expected object, got %s", describe(fields["tree"]))
	}
	tree := make(map[string]protocol.ControllerSet, len(raw))
	for id, members := range raw {
		list, ok := members.([]any)
		if !ok {
			return protocol.Statistics{}, mismatch(typ, at+"."+id, "expected array, got %s", describe(members))
		}
		set := make(protocol.ControllerSet, len(list))
		for i, m := range list {
			c, err := u16From(typ, m, at+"."+id+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return protocol.Statistics{}, err
			}
			set.Add(c)
		}
		tree[id] = set
	}
	return protocol.Statistics{Tree: tree}, nil
}

func incomingToValue(in protocol.Incoming) (any, error) {
	var payload any
	var err error
	switch in.Kind {
	case protocol.IncomingControllerToSessionCommand:
		payload, err = Command.to(in.Command)
	case protocol.IncomingGameToSessionMessage:
		payload, err = GameMessage.to(in.Message)
	default:
		return nil, invalidKind(protocol.TypeIncoming, in.Kind)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{in.Kind.String(): payload}, nil
}

func incomingFromValue(v any, path string) (protocol.Incoming, error) {
	const typ = protocol.TypeIncoming
	name, payload, isUnit, err := splitVariant(typ, v, path)
	if err != nil {
		return protocol.Incoming{}, err
	}
	at := path + "." + name
	switch name {
	case protocol.IncomingControllerToSessionCommand.String():
		if err := payloadOnly(typ, name, isUnit, path); err != nil {
			return protocol.Incoming{}, err
		}
		cmd, err := Command.from(payload, at)
		if err != nil {
			return protocol.Incoming{}, err
		}
		return protocol.IncomingCommand(cmd), nil
	case protocol.IncomingGameToSessionMessage.String():
		if err := payloadOnly(typ, name, isUnit, path); err != nil {
			return protocol.Incoming{}, err
		}
		m, err := GameMessage.from(payload, at)
		if err != nil {
			return protocol.Incoming{}, err
		}
		return protocol.IncomingMessage(m), nil
	}
	return protocol.Incoming{}, unknownVariant(typ, name, path)
}

func outgoingToValue(out protocol.Outgoing) (any, error) {
	var payload any
	var err error
	switch out.Kind {
	case protocol.OutgoingSessionToGameEvent:
		payload, err = SessionEvent.to(out.GameEvent)
	case protocol.OutgoingSessionToControllerEvent:
		payload, err = ControllerEvent.to(out.ControllerEvent)
	default:
		return nil, invalidKind(protocol.TypeOutgoing, out.Kind)
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{out.Kind.String(): payload}, nil
}

func outgoingFromValue(v any, path string) (protocol.Outgoing, error) {
	const typ = protocol.TypeOutgoing
	name, payload, isUnit, err := splitVariant(typ, v, path)
	if err != nil {
		return protocol.Outgoing{}, err
	}
	at := path + "." + name
	switch name {
	case protocol.OutgoingSessionToGameEvent.String():
		if err := payloadOnly(typ, name, isUnit, path); err != nil {
			return protocol.Outgoing{}, err
		}
		ev, err := SessionEvent.from(payload, at)
		if err != nil {
			return protocol.Outgoing{}, err
		}
		return protocol.OutgoingGameEvent(ev), nil
	case protocol.OutgoingSessionToControllerEvent.String():
		if err := payloadOnly(typ, name, isUnit, path); err != nil {
			return protocol.Outgoing{}, err
		}
		ev, err := ControllerEvent.from(payload, at)
		if err != nil {
			return protocol.Outgoing{}, err
		}
		return protocol.OutgoingControllerEvent(ev), nil
	}
	return protocol.Outgoing{}, unknownVariant(typ, name, path)
}
