package game

import (
	"encoding/json"
	"log"

	"pinochle-platform/pkg/pinochle"
)

// Wire message discriminators. The outer "type" tag is self-describing;
// receivers drop frames whose tag they do not recognise.
const (
	// client -> server
	MsgJoinTable = "join_table"
	MsgSetPlayer = "set_player"
	MsgSetReady  = "set_ready"
	MsgPlay      = "play"
	MsgResign    = "resign"

	// server -> client
	MsgTableState  = "table_state"
	MsgState       = "state"
	MsgPlayed      = "played"
	MsgResigned    = "resigned"
	MsgLeaving     = "leaving"
	MsgBackToReady = "back_to_ready"
	MsgError       = "error"
)

// clientMessage is the union of inbound frames; Type selects which fields
// are meaningful.
type clientMessage struct {
	Type   string           `json:"type"`
	Name   string           `json:"name,omitempty"`
	Player *pinochle.Player `json:"player,omitempty"`
	Ready  *bool            `json:"ready,omitempty"`
	Input  *pinochle.Input  `json:"input,omitempty"`
}

// decodeClientMessage parses an inbound frame. A nil result means the
// frame could not be decoded and should be dropped.
func decodeClientMessage(raw []byte) *clientMessage {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("dropping undecodable frame: %v", err)
		return nil
	}
	if msg.Type == "" {
		return nil
	}
	return &msg
}

// serverMessage is the union of outbound frames.
type serverMessage struct {
	Type    string                    `json:"type"`
	Ready   *pinochle.PlayerMap[bool] `json:"ready,omitempty"`
	Player  *pinochle.Player          `json:"player,omitempty"`
	Game    *pinochle.Game            `json:"game,omitempty"`
	Input   *pinochle.Input           `json:"input,omitempty"`
	Conn    string                    `json:"conn,omitempty"`
	Message string                    `json:"message,omitempty"`
}

func encode(msg serverMessage) []byte {
	raw, err := json.Marshal(msg)
	if err != nil {
		// All outbound payloads are plain data types; failure here is an
		// invariant violation.
		log.Printf("failed to encode %s frame: %v", msg.Type, err)
		return nil
	}
	return raw
}

// encodeTableState builds the per-recipient lobby snapshot. seat is the
// recipient's own seat, or nil when they are unseated.
func encodeTableState(ready pinochle.PlayerMap[bool], seat *pinochle.Player) []byte {
	return encode(serverMessage{Type: MsgTableState, Ready: &ready, Player: seat})
}

// encodeState builds the projected full-game snapshot.
func encodeState(g *pinochle.Game) []byte {
	return encode(serverMessage{Type: MsgState, Game: g})
}

// encodePlayed builds the incremental play broadcast; in is already masked
// for the recipient.
func encodePlayed(seat pinochle.Player, in pinochle.Input) []byte {
	return encode(serverMessage{Type: MsgPlayed, Player: &seat, Input: &in})
}

func encodeResigned(seat pinochle.Player) []byte {
	return encode(serverMessage{Type: MsgResigned, Player: &seat})
}

func encodeLeaving(id ConnID) []byte {
	return encode(serverMessage{Type: MsgLeaving, Conn: string(id)})
}

func encodeBackToReady() []byte {
	return encode(serverMessage{Type: MsgBackToReady})
}

func encodeError(message string) []byte {
	return encode(serverMessage{Type: MsgError, Message: message})
}
