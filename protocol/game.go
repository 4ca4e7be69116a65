package protocol

import (
	"fmt"

	"partywire/codec"
)

// Team is one of the two teams. Blue orders before Red.
type Team uint8

const (
	Blue Team = iota
	Red
)

var teamNames = [...]string{"Blue", "Red"}

func (t Team) String() string {
	if int(t) < len(teamNames) {
		return teamNames[t]
	}
	return fmt.Sprintf("Team(%d)", uint8(t))
}

// ParseTeam returns the team with the given variant name.
func ParseTeam(name string) (Team, bool) {
	for i, n := range teamNames {
		if n == name {
			return Team(i), true
		}
	}
	return 0, false
}

func (t Team) MarshalWire(e *codec.Encoder) error {
	return e.Tag("Team", uint32(t), len(teamNames))
}

func (t *Team) UnmarshalWire(d *codec.Decoder) error {
	tag, err := d.Tag("Team", len(teamNames))
	if err != nil {
		return err
	}
	*t = Team(tag)
	return nil
}

// CommandKind is the variant of a ControllerToSessionCommand. Its value is
// the wire tag.
type CommandKind uint8

const (
	CommandAction1 CommandKind = iota
	CommandMove
)

var commandNames = [...]string{"Action1", "Move"}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) {
		return commandNames[k]
	}
	return fmt.Sprintf("CommandKind(%d)", uint8(k))
}

// ControllerToSessionCommand is sent by a controller towards the game, via
// the session. X and Y belong to Move and must be zero for Action1.
type ControllerToSessionCommand struct {
	Kind CommandKind
	X, Y float32
}

func Action1() ControllerToSessionCommand {
	return ControllerToSessionCommand{Kind: CommandAction1}
}

func Move(x, y float32) ControllerToSessionCommand {
	return ControllerToSessionCommand{Kind: CommandMove, X: x, Y: y}
}

func (c ControllerToSessionCommand) String() string {
	if c.Kind == CommandMove {
		return fmt.Sprintf("Move{x: %v, y: %v}", c.X, c.Y)
	}
	return c.Kind.String()
}

func (c ControllerToSessionCommand) MarshalWire(e *codec.Encoder) error {
	if err := e.Tag("ControllerToSessionCommand", uint32(c.Kind), len(commandNames)); err != nil {
		return err
	}
	if c.Kind != CommandMove && (c.X != 0 || c.Y != 0) {
		return inactive("ControllerToSessionCommand", c.Kind, "coordinates")
	}
	if c.Kind == CommandMove {
		e.Float32(c.X)
		e.Float32(c.Y)
	}
	return nil
}

func (c *ControllerToSessionCommand) UnmarshalWire(d *codec.Decoder) error {
	tag, err := d.Tag("ControllerToSessionCommand", len(commandNames))
	if err != nil {
		return err
	}
	out := ControllerToSessionCommand{Kind: CommandKind(tag)}
	if out.Kind == CommandMove {
		if out.X, err = d.Float32(); err != nil {
			return err
		}
		if out.Y, err = d.Float32(); err != nil {
			return err
		}
	}
	*c = out
	return nil
}

// GameEventKind is the variant of a GameToControllerEvent.
type GameEventKind uint8

const (
	GameEventAction2 GameEventKind = iota
	GameEventEvent1
	GameEventIncreaseScore
)

var gameEventNames = [...]string{"Action2", "Event1", "IncreaseScore"}

func (k GameEventKind) String() string {
	if int(k) < len(gameEventNames) {
		return gameEventNames[k]
	}
	return fmt.Sprintf("GameEventKind(%d)", uint8(k))
}

// GameToControllerEvent is sent by the game towards a controller, via the
// session. Team belongs to IncreaseScore and must be Blue, the zero value,
// for the other kinds.
type GameToControllerEvent struct {
	Kind GameEventKind
	Team Team
}

func Action2() GameToControllerEvent {
	return GameToControllerEvent{Kind: GameEventAction2}
}

func Event1() GameToControllerEvent {
	return GameToControllerEvent{Kind: GameEventEvent1}
}

func IncreaseScore(team Team) GameToControllerEvent {
	return GameToControllerEvent{Kind: GameEventIncreaseScore, Team: team}
}

func (ev GameToControllerEvent) String() string {
	if ev.Kind == GameEventIncreaseScore {
		return fmt.Sprintf("IncreaseScore(%s)", ev.Team)
	}
	return ev.Kind.String()
}

func (ev GameToControllerEvent) MarshalWire(e *codec.Encoder) error {
	if err := e.Tag("GameToControllerEvent", uint32(ev.Kind), len(gameEventNames)); err != nil {
		return err
	}
	if ev.Kind != GameEventIncreaseScore && ev.Team != 0 {
		return inactive("GameToControllerEvent", ev.Kind, "team")
	}
	if ev.Kind == GameEventIncreaseScore {
		return ev.Team.MarshalWire(e)
	}
	return nil
}

func (ev *GameToControllerEvent) UnmarshalWire(d *codec.Decoder) error {
	tag, err := d.Tag("GameToControllerEvent", len(gameEventNames))
	if err != nil {
		return err
	}
	out := GameToControllerEvent{Kind: GameEventKind(tag)}
	if out.Kind == GameEventIncreaseScore {
		if err := out.Team.UnmarshalWire(d); err != nil {
			return err
		}
	}
	*ev = out
	return nil
}
