package analytics

import (
	"fmt"
	"time"

	"pinochle-platform/pkg/pinochle"
)

// EventType classifies game analytics events.
type EventType string

const (
	EventSessionStart  EventType = "session_start"
	EventSessionEnd    EventType = "session_end"
	EventGameStarted   EventType = "game_started"
	EventRoundFinished EventType = "round_finished"
	EventGameFinished  EventType = "game_finished"
	EventPlayerResign  EventType = "player_resigned"
)

// GameEvent is the record emitted by table coordinators and fanned out to
// the analytics sinks.
type GameEvent struct {
	EventID   string    `json:"event_id" ch:"event_id"`
	EventType EventType `json:"event_type" ch:"event_type"`
	TableName string    `json:"table_name" ch:"table_name"`
	ConnID    string    `json:"conn_id,omitempty" ch:"conn_id"`
	Seat      string    `json:"seat,omitempty" ch:"seat"`
	Trump     string    `json:"trump,omitempty" ch:"trump"`
	ScoreAC   int       `json:"score_ac" ch:"score_ac"`
	ScoreBD   int       `json:"score_bd" ch:"score_bd"`
	TricksAC  int       `json:"tricks_ac" ch:"tricks_ac"`
	TricksBD  int       `json:"tricks_bd" ch:"tricks_bd"`
	Timestamp time.Time `json:"timestamp" ch:"timestamp"`
}

// NewGameEvent stamps a new event with an id and the current time.
func NewGameEvent(eventType EventType, table string) GameEvent {
	now := time.Now().UTC()
	return GameEvent{
		EventID:   fmt.Sprintf("event_%d", now.UnixNano()),
		EventType: eventType,
		TableName: table,
		Timestamp: now,
	}
}

// RoundEvent builds a round or game completion event from the game state.
func RoundEvent(eventType EventType, table string, g *pinochle.Game) GameEvent {
	ev := NewGameEvent(eventType, table)
	ev.Trump = g.Trump.String()
	ev.ScoreAC = g.Scores[pinochle.TeamAC]
	ev.ScoreBD = g.Scores[pinochle.TeamBD]
	ev.TricksAC = len(g.Taken[pinochle.TeamAC]) / pinochle.NumPlayers
	ev.TricksBD = len(g.Taken[pinochle.TeamBD]) / pinochle.NumPlayers
	return ev
}

// PlayerSession is one connection's stay at a table, persisted to Postgres.
type PlayerSession struct {
	SessionID      string
	ConnID         string
	TableName      string
	Seat           string
	ConnectedAt    time.Time
	DisconnectedAt *time.Time
}
