package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"partywire/codec"
)

type wireCase struct {
	name   string
	value  codec.Marshaler
	bytes  []byte
	decode func([]byte) (any, error)
}

func decoderFor[T any, PT interface {
	*T
	codec.Unmarshaler
}]() func([]byte) (any, error) {
	return func(b []byte) (any, error) {
		return codec.Unmarshal[T, PT](b)
	}
}

func wireCases() []wireCase {
	return []wireCase{
		{"Move slow", Move(3.0, 1.0), []byte{1, 0, 0, 64, 64, 0, 0, 128, 63}, decoderFor[ControllerToSessionCommand]()},
		{"Action1", Action1(), []byte{0}, decoderFor[ControllerToSessionCommand]()},
		{"Team Blue", Blue, []byte{0}, decoderFor[Team]()},
		{"Team Red", Red, []byte{1}, decoderFor[Team]()},
		{"Action2", Action2(), []byte{0}, decoderFor[GameToControllerEvent]()},
		{"Increase Red score", IncreaseScore(Red), []byte{2, 1}, decoderFor[GameToControllerEvent]()},
		{"Forward Event1", Forward(Event1()), []byte{1, 1}, decoderFor[ControllerEvent]()},
		{"Forward IncreaseScore", Forward(IncreaseScore(Blue)), []byte{1, 2, 0}, decoderFor[ControllerEvent]()},
		{"SetPushInterval", SetPushInterval[GameToControllerEvent](100), []byte{0, 100, 0, 0, 0}, decoderFor[ControllerEvent]()},
		{"SetId", SetID[ControllerToSessionCommand]("Party Island"),
			append([]byte{0, 12}, "Party Island"...), decoderFor[SessionEvent]()},
		{"NewPlayer", NewPlayer[ControllerToSessionCommand](89), []byte{1, 89, 0}, decoderFor[SessionEvent]()},
		{"PlayerLeft", PlayerLeft[ControllerToSessionCommand](0x0102), []byte{2, 2, 1}, decoderFor[SessionEvent]()},
		{"ControllerCommand", ControllerCommand(300, Move(1, 2)),
			[]byte{3, 0x2c, 0x01, 1, 0, 0, 128, 63, 0, 0, 0, 64}, decoderFor[SessionEvent]()},
		{"GameMessage", GameMessage{ID: 89, Event: Event1()}, []byte{89, 0, 1}, decoderFor[GameMessage]()},
		{"Statistics", Statistics{Tree: map[string]ControllerSet{
			"b": NewControllerSet(7),
			"a": NewControllerSet(2, 1),
		}}, []byte{2, 1, 'a', 2, 1, 0, 2, 0, 1, 'b', 1, 7, 0}, decoderFor[Statistics]()},
		{"Empty statistics", Statistics{Tree: map[string]ControllerSet{}}, []byte{0}, decoderFor[Statistics]()},
		{"Incoming command", IncomingCommand(Action1()), []byte{0, 0}, decoderFor[Incoming]()},
		{"Incoming message", IncomingMessage(GameMessage{ID: 1, Event: IncreaseScore(Red)}),
			[]byte{1, 1, 0, 2, 1}, decoderFor[Incoming]()},
		{"Outgoing game event", OutgoingGameEvent(NewPlayer[ControllerToSessionCommand](3)),
			[]byte{0, 1, 3, 0}, decoderFor[Outgoing]()},
		{"Outgoing controller event", OutgoingControllerEvent(Forward(Action2())),
			[]byte{1, 1, 0}, decoderFor[Outgoing]()},
	}
}

func TestEncodeKnownBytes(t *testing.T) {
	for _, tc := range wireCases() {
		t.Run(tc.name, func(t *testing.T) {
			got, err := codec.Marshal(tc.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if !bytes.Equal(got, tc.bytes) {
				t.Fatalf("bytes mismatch: got %v, want %v", got, tc.bytes)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range wireCases() {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.decode(tc.bytes)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.value) {
				t.Fatalf("value mismatch: got %#v, want %#v", got, tc.value)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	// Statistics goes through map iteration; repeat to shake out ordering.
	for _, tc := range wireCases() {
		first, err := codec.Marshal(tc.value)
		if err != nil {
			t.Fatalf("%s: Marshal failed: %v", tc.name, err)
		}
		for i := 0; i < 20; i++ {
			again, _ := codec.Marshal(tc.value)
			if !bytes.Equal(first, again) {
				t.Fatalf("%s: encoding %d differs: %v vs %v", tc.name, i, again, first)
			}
		}
	}
}

func TestTruncatedPrefixes(t *testing.T) {
	for _, tc := range wireCases() {
		for n := 0; n < len(tc.bytes); n++ {
			got, err := tc.decode(tc.bytes[:n])
			if !errors.Is(err, codec.ErrTruncatedInput) {
				t.Fatalf("%s: prefix %v: expect ErrTruncatedInput, got %v", tc.name, tc.bytes[:n], err)
			}
			if !reflect.ValueOf(got).IsZero() {
				t.Fatalf("%s: prefix %v returned a populated value %#v", tc.name, tc.bytes[:n], got)
			}
		}
	}
}

func TestEmptyInput(t *testing.T) {
	if _, err := codec.Unmarshal[ControllerToSessionCommand](nil); codec.KindOf(err) != codec.TruncatedInput {
		t.Fatalf("expect TruncatedInput, got %v", err)
	}
	if _, err := codec.Unmarshal[ControllerEvent]([]byte{}); codec.KindOf(err) != codec.TruncatedInput {
		t.Fatalf("expect TruncatedInput, got %v", err)
	}
}

func TestInvalidDiscriminant(t *testing.T) {
	cases := []struct {
		name   string
		in     []byte
		decode func([]byte) (any, error)
		typ    string
		offset int
	}{
		{"command", []byte{2}, decoderFor[ControllerToSessionCommand](), "ControllerToSessionCommand", 0},
		{"team", []byte{2}, decoderFor[Team](), "Team", 0},
		{"game event", []byte{3}, decoderFor[GameToControllerEvent](), "GameToControllerEvent", 0},
		{"session event", []byte{4}, decoderFor[SessionEvent](), "SessionToGameEvent", 0},
		{"controller event", []byte{2, 0, 0, 0, 0}, decoderFor[ControllerEvent](), "SessionToControllerEvent", 0},
		{"nested game event", []byte{1, 3}, decoderFor[ControllerEvent](), "GameToControllerEvent", 1},
		{"nested team", []byte{1, 2, 9}, decoderFor[ControllerEvent](), "Team", 2},
		{"multi-byte tag", []byte{0x80, 0x01}, decoderFor[ControllerToSessionCommand](), "ControllerToSessionCommand", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.decode(tc.in)
			var de *codec.DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expect *codec.DecodeError, got %v", err)
			}
			if de.Kind != codec.InvalidDiscriminant {
				t.Fatalf("Kind mismatch: got %v, want InvalidDiscriminant", de.Kind)
			}
			if de.Type != tc.typ || de.Offset != tc.offset {
				t.Fatalf("got %s at %d, want %s at %d", de.Type, de.Offset, tc.typ, tc.offset)
			}
		})
	}
}

func TestTrailingBytes(t *testing.T) {
	_, err := codec.Unmarshal[ControllerToSessionCommand]([]byte{0, 0})
	if codec.KindOf(err) != codec.TrailingBytes {
		t.Fatalf("expect TrailingBytes, got %v", err)
	}
}

func TestInvalidUTF8SessionID(t *testing.T) {
	_, err := codec.Unmarshal[SessionEvent]([]byte{0, 2, 0xc3, 0x28})
	if codec.KindOf(err) != codec.InvalidUTF8 {
		t.Fatalf("decode: expect InvalidUTF8, got %v", err)
	}
	if _, err := codec.Marshal(SetID[ControllerToSessionCommand]("\xc3\x28")); !errors.Is(err, codec.ErrInvalidUTF8) {
		t.Fatalf("encode: expect ErrInvalidUTF8, got %v", err)
	}
}

func TestEncodeRejectsUnknownKind(t *testing.T) {
	values := []codec.Marshaler{
		ControllerToSessionCommand{Kind: 2},
		GameToControllerEvent{Kind: 3},
		Team(2),
		IncreaseScore(Team(5)),
		SessionEvent{Kind: 4},
		ControllerEvent{Kind: 2},
		Incoming{Kind: 2},
		Outgoing{Kind: 2},
	}
	for _, v := range values {
		if _, err := codec.Marshal(v); !errors.Is(err, codec.ErrInvalidDiscriminant) {
			t.Errorf("%#v: expect ErrInvalidDiscriminant, got %v", v, err)
		}
	}
}

func TestEncodeRejectsInactiveFields(t *testing.T) {
	values := []codec.Marshaler{
		ControllerToSessionCommand{Kind: CommandAction1, X: 5},
		ControllerToSessionCommand{Kind: CommandAction1, Y: -1},
		GameToControllerEvent{Kind: GameEventAction2, Team: Red},
		GameToControllerEvent{Kind: GameEventEvent1, Team: Red},
		SessionEvent{Kind: SessionEventNewPlayer, ControllerID: 1, SessionID: "x"},
		SessionEvent{Kind: SessionEventSetID, SessionID: "x", ControllerID: 1},
		SessionEvent{Kind: SessionEventPlayerLeft, ControllerID: 1, Command: Move(1, 2)},
		ControllerEvent{Kind: ControllerEventGameToControllerEvent, PushInterval: 50, Event: Action2()},
		ControllerEvent{Kind: ControllerEventSetPushInterval, PushInterval: 50, Event: Event1()},
		Incoming{Kind: IncomingControllerToSessionCommand, Message: GameMessage{ID: 1}},
		Incoming{Kind: IncomingGameToSessionMessage, Command: Move(1, 1)},
		Outgoing{Kind: OutgoingSessionToGameEvent, ControllerEvent: SetPushInterval[GameToControllerEvent](1)},
		Outgoing{Kind: OutgoingSessionToControllerEvent, GameEvent: NewPlayer[ControllerToSessionCommand](2)},
	}
	for _, v := range values {
		if _, err := codec.Marshal(v); !errors.Is(err, ErrInactiveField) {
			t.Errorf("%#v: expect ErrInactiveField, got %v", v, err)
		}
	}

	// The zero values of inactive fields are what the constructors produce.
	values = []codec.Marshaler{
		ControllerToSessionCommand{Kind: CommandAction1},
		GameToControllerEvent{Kind: GameEventEvent1, Team: Blue},
		ControllerCommand(0, Action1()),
		Forward(Action2()),
		IncomingCommand(Action1()),
		OutgoingGameEvent(SetID[ControllerToSessionCommand]("")),
	}
	for _, v := range values {
		if _, err := codec.Marshal(v); err != nil {
			t.Errorf("%#v: expect nil error, got %v", v, err)
		}
	}
}

// Released tags must never move.
func TestTagStability(t *testing.T) {
	checks := []struct {
		name string
		got  uint8
		want uint8
	}{
		{"Action1", uint8(CommandAction1), 0},
		{"Move", uint8(CommandMove), 1},
		{"Blue", uint8(Blue), 0},
		{"Red", uint8(Red), 1},
		{"Action2", uint8(GameEventAction2), 0},
		{"Event1", uint8(GameEventEvent1), 1},
		{"IncreaseScore", uint8(GameEventIncreaseScore), 2},
		{"SetId", uint8(SessionEventSetID), 0},
		{"NewPlayer", uint8(SessionEventNewPlayer), 1},
		{"PlayerLeft", uint8(SessionEventPlayerLeft), 2},
		{"ControllerCommand", uint8(SessionEventControllerCommand), 3},
		{"SetPushInterval", uint8(ControllerEventSetPushInterval), 0},
		{"GameToControllerEvent", uint8(ControllerEventGameToControllerEvent), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s tag = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestStatisticsDecodeAnyOrder(t *testing.T) {
	// Keys and members out of order, with a duplicate member.
	in := []byte{2, 1, 'b', 1, 7, 0, 1, 'a', 3, 2, 0, 1, 0, 2, 0}
	st, err := codec.Unmarshal[Statistics](in)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := Statistics{Tree: map[string]ControllerSet{"a": NewControllerSet(1, 2), "b": NewControllerSet(7)}}
	if !st.Equal(want) {
		t.Fatalf("got %v, want %v", st.Tree, want.Tree)
	}
	if st.Controllers() != 3 {
		t.Errorf("Controllers = %d, want 3", st.Controllers())
	}
}

func TestStringers(t *testing.T) {
	cases := map[string]string{
		Move(3, 1).String():          "Move{x: 3, y: 1}",
		Action1().String():           "Action1",
		IncreaseScore(Red).String():  "IncreaseScore(Red)",
		Event1().String():            "Event1",
		Team(9).String():             "Team(9)",
		SessionEventKind(1).String(): "NewPlayer",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if team, ok := ParseTeam("Red"); !ok || team != Red {
		t.Errorf("ParseTeam(Red) = %v, %v", team, ok)
	}
	if _, ok := ParseTeam("red"); ok {
		t.Error("ParseTeam is case sensitive")
	}
}
