package protocol

import (
	"maps"
	"slices"
)

// Schema description of every message type, for tooling on either side of
// the boundary that generates or checks bindings. Variant names and tags
// come from the same tables the wire methods use.

type TypeKind string

const (
	KindEnum   TypeKind = "enum"
	KindStruct TypeKind = "struct"
)

// VariantShape says how a variant carries its payload.
type VariantShape string

const (
	ShapeUnit    VariantShape = "unit"    // no payload
	ShapeNewtype VariantShape = "newtype" // one unnamed field
	ShapeStruct  VariantShape = "struct"  // named fields
)

type Field struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

type Variant struct {
	Name   string       `json:"name"`
	Tag    uint32       `json:"tag"`
	Shape  VariantShape `json:"shape"`
	Fields []Field      `json:"fields,omitempty"`
}

type TypeSchema struct {
	Name     string    `json:"name"`
	Kind     TypeKind  `json:"kind"`
	Variants []Variant `json:"variants,omitempty"`
	Fields   []Field   `json:"fields,omitempty"`
}

// Type names of the instantiations and convenience unions.
const (
	TypeTeam                       = "Team"
	TypeControllerToSessionCommand = "ControllerToSessionCommand"
	TypeGameToControllerEvent      = "GameToControllerEvent"
	TypeSessionEvent               = "SessionToGameEvent<ControllerToSessionCommand>"
	TypeControllerEvent            = "SessionToControllerEvent<GameToControllerEvent>"
	TypeGameMessage                = "GameToSessionMessage<GameToControllerEvent>"
	TypeStatistics                 = "Statistics"
	TypeIncoming                   = "IncomingProtocol"
	TypeOutgoing                   = "OutgoingProtocol"
)

func unit(name string, tag int) Variant {
	return Variant{Name: name, Tag: uint32(tag), Shape: ShapeUnit}
}

func newtype(name string, tag int, typ string) Variant {
	return Variant{Name: name, Tag: uint32(tag), Shape: ShapeNewtype, Fields: []Field{{Type: typ}}}
}

func structVariant(name string, tag int, fields ...Field) Variant {
	return Variant{Name: name, Tag: uint32(tag), Shape: ShapeStruct, Fields: fields}
}

func enum(name string, variants ...Variant) TypeSchema {
	return TypeSchema{Name: name, Kind: KindEnum, Variants: variants}
}

var schema = []TypeSchema{
	enum(TypeTeam,
		unit(teamNames[Blue], int(Blue)),
		unit(teamNames[Red], int(Red)),
	),
	enum(TypeControllerToSessionCommand,
		unit(commandNames[CommandAction1], int(CommandAction1)),
		structVariant(commandNames[CommandMove], int(CommandMove), Field{"x", "f32"}, Field{"y", "f32"}),
	),
	enum(TypeGameToControllerEvent,
		unit(gameEventNames[GameEventAction2], int(GameEventAction2)),
		unit(gameEventNames[GameEventEvent1], int(GameEventEvent1)),
		newtype(gameEventNames[GameEventIncreaseScore], int(GameEventIncreaseScore), TypeTeam),
	),
	enum(TypeSessionEvent,
		newtype(sessionEventNames[SessionEventSetID], int(SessionEventSetID), "string"),
		newtype(sessionEventNames[SessionEventNewPlayer], int(SessionEventNewPlayer), "u16"),
		newtype(sessionEventNames[SessionEventPlayerLeft], int(SessionEventPlayerLeft), "u16"),
		structVariant(sessionEventNames[SessionEventControllerCommand], int(SessionEventControllerCommand),
			Field{"id", "u16"}, Field{"command", TypeControllerToSessionCommand}),
	),
	enum(TypeControllerEvent,
		newtype(controllerEventNames[ControllerEventSetPushInterval], int(ControllerEventSetPushInterval), "u32"),
		newtype(controllerEventNames[ControllerEventGameToControllerEvent], int(ControllerEventGameToControllerEvent), TypeGameToControllerEvent),
	),
	{
		Name:   TypeGameMessage,
		Kind:   KindStruct,
		Fields: []Field{{"id", "u16"}, {"event", TypeGameToControllerEvent}},
	},
	{
		Name:   TypeStatistics,
		Kind:   KindStruct,
		Fields: []Field{{"tree", "map<string, set<u16>>"}},
	},
	enum(TypeIncoming,
		newtype(incomingNames[IncomingControllerToSessionCommand], int(IncomingControllerToSessionCommand), TypeControllerToSessionCommand),
		newtype(incomingNames[IncomingGameToSessionMessage], int(IncomingGameToSessionMessage), TypeGameMessage),
	),
	enum(TypeOutgoing,
		newtype(outgoingNames[OutgoingSessionToGameEvent], int(OutgoingSessionToGameEvent), TypeSessionEvent),
		newtype(outgoingNames[OutgoingSessionToControllerEvent], int(OutgoingSessionToControllerEvent), TypeControllerEvent),
	),
}

// Schema returns the description of every message type, dependencies first.
func Schema() []TypeSchema {
	out := make([]TypeSchema, len(schema))
	for i, ts := range schema {
		out[i] = ts.clone()
	}
	return out
}

// Lookup returns the description of the named type.
func Lookup(name string) (TypeSchema, bool) {
	for _, ts := range schema {
		if ts.Name == name {
			return ts.clone(), true
		}
	}
	return TypeSchema{}, false
}

// VariantByName returns the variant with the given name.
func (ts TypeSchema) VariantByName(name string) (Variant, bool) {
	for _, v := range ts.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

func (ts TypeSchema) clone() TypeSchema {
	out := ts
	out.Fields = append([]Field(nil), ts.Fields...)
	out.Variants = make([]Variant, len(ts.Variants))
	for i, v := range ts.Variants {
		v.Fields = append([]Field(nil), v.Fields...)
		out.Variants[i] = v
	}
	if ts.Variants == nil {
		out.Variants = nil
	}
	return out
}

// aliases are the short names tooling accepts in place of type names.
var aliases = map[string]string{
	"team":             TypeTeam,
	"command":          TypeControllerToSessionCommand,
	"game-event":       TypeGameToControllerEvent,
	"session-event":    TypeSessionEvent,
	"controller-event": TypeControllerEvent,
	"game-message":     TypeGameMessage,
	"statistics":       TypeStatistics,
	"incoming":         TypeIncoming,
	"outgoing":         TypeOutgoing,
}

// ResolveType maps a type name or one of its short aliases (command,
// controller-event, ...) to the type name.
func ResolveType(name string) (string, bool) {
	if full, ok := aliases[name]; ok {
		return full, true
	}
	if _, ok := Lookup(name); ok {
		return name, true
	}
	return "", false
}

// Aliases returns the short type names in ascending order.
func Aliases() []string {
	return slices.Sorted(maps.Keys(aliases))
}

// NewValue returns a pointer to the zero value of the named type.
func NewValue(name string) (any, bool) {
	switch name {
	case TypeTeam:
		return new(Team), true
	case TypeControllerToSessionCommand:
		return new(ControllerToSessionCommand), true
	case TypeGameToControllerEvent:
		return new(GameToControllerEvent), true
	case TypeSessionEvent:
		return new(SessionEvent), true
	case TypeControllerEvent:
		return new(ControllerEvent), true
	case TypeGameMessage:
		return new(GameMessage), true
	case TypeStatistics:
		return new(Statistics), true
	case TypeIncoming:
		return new(Incoming), true
	case TypeOutgoing:
		return new(Outgoing), true
	}
	return nil, false
}
