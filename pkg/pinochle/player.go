package pinochle

import (
	"encoding/json"
	"fmt"
)

// Player is one of the four fixed seats arranged clockwise.
type Player int8

const (
	PlayerA Player = iota
	PlayerB
	PlayerC
	PlayerD
)

// NumPlayers is the number of seats at a table.
const NumPlayers = 4

var playerNames = []string{"a", "b", "c", "d"}

func (p Player) String() string {
	if p >= 0 && int(p) < len(playerNames) {
		return playerNames[p]
	}
	return "?"
}

func (p Player) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Player) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range playerNames {
		if n == name {
			*p = Player(i)
			return nil
		}
	}
	return fmt.Errorf("unknown player %q", name)
}

// Next returns the seat to the left: A→B→C→D→A.
func (p Player) Next() Player {
	return (p + 1) % NumPlayers
}

// Teammate returns the seat across the table.
func (p Player) Teammate() Player {
	return (p + 2) % NumPlayers
}

// Team returns the player's team; A and C sit together, as do B and D.
func (p Player) Team() Team {
	return Team(p % NumTeams)
}

// Players lists all four seats in order.
func Players() []Player {
	return []Player{PlayerA, PlayerB, PlayerC, PlayerD}
}

// Team is one of the two partnerships.
type Team int8

const (
	TeamAC Team = iota
	TeamBD
)

// NumTeams is the number of partnerships.
const NumTeams = 2

func (t Team) String() string {
	switch t {
	case TeamAC:
		return "ac"
	case TeamBD:
		return "bd"
	}
	return "?"
}

// Other flips the team.
func (t Team) Other() Team {
	return (t + 1) % NumTeams
}

// PlayerMap holds one value per seat; all four keys are always present.
type PlayerMap[T any] struct {
	A T `json:"a"`
	B T `json:"b"`
	C T `json:"c"`
	D T `json:"d"`
}

// NewPlayerMap builds a map from the four per-seat values.
func NewPlayerMap[T any](a, b, c, d T) PlayerMap[T] {
	return PlayerMap[T]{A: a, B: b, C: c, D: d}
}

// Get returns the value for a seat.
func (m PlayerMap[T]) Get(p Player) T {
	switch p {
	case PlayerA:
		return m.A
	case PlayerB:
		return m.B
	case PlayerC:
		return m.C
	default:
		return m.D
	}
}

// Set replaces the value for a seat.
func (m *PlayerMap[T]) Set(p Player, v T) {
	switch p {
	case PlayerA:
		m.A = v
	case PlayerB:
		m.B = v
	case PlayerC:
		m.C = v
	default:
		m.D = v
	}
}

// MapPlayers builds a new map by transforming every entry.
func MapPlayers[T, U any](m PlayerMap[T], f func(Player, T) U) PlayerMap[U] {
	return PlayerMap[U]{
		A: f(PlayerA, m.A),
		B: f(PlayerB, m.B),
		C: f(PlayerC, m.C),
		D: f(PlayerD, m.D),
	}
}
