package game

import (
	"encoding/json"
	"testing"
	"time"

	"pinochle-platform/pkg/pinochle"
)

// fixedShuffler deals the deck in its natural order, so each seat's hand
// is known in advance.
type fixedShuffler struct{}

func (fixedShuffler) Shuffle(n int, swap func(i, j int)) {}

// fakeConn is an in-memory transport for table tests.
type fakeConn struct {
	in  chan []byte
	out chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:  make(chan []byte, 16),
		out: make(chan []byte, 256),
	}
}

func (c *fakeConn) Inbound() <-chan []byte { return c.in }

func (c *fakeConn) Send(b []byte) error {
	c.out <- b
	return nil
}

// next waits for the next outbound frame of the wanted type, skipping
// everything else.
func (c *fakeConn) next(t *testing.T, wantType string) serverMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-c.out:
			var msg serverMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("undecodable frame %s: %v", raw, err)
			}
			if msg.Type == wantType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q frame", wantType)
		}
	}
}

func (c *fakeConn) send(t *testing.T, msg clientMessage) {
	t.Helper()
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	c.in <- raw
}

func rawSetPlayer(p pinochle.Player) clientMessage {
	return clientMessage{Type: MsgSetPlayer, Player: &p}
}

func rawSetReady(v bool) clientMessage {
	return clientMessage{Type: MsgSetReady, Ready: &v}
}

func rawPlay(in pinochle.Input) clientMessage {
	return clientMessage{Type: MsgPlay, Input: &in}
}

// joinFour connects four clients; seats are assigned in join order A..D.
func joinFour(t *testing.T, table *Table) [4]*fakeConn {
	t.Helper()
	var conns [4]*fakeConn
	ids := [4]ConnID{"conn-a", "conn-b", "conn-c", "conn-d"}
	for i := range conns {
		conns[i] = newFakeConn()
		go table.Join(ids[i], conns[i])
		// The welcome snapshot confirms registration and the auto seat.
		welcome := conns[i].next(t, MsgTableState)
		if welcome.Player == nil || *welcome.Player != pinochle.Player(i) {
			t.Fatalf("client %d: expected seat %v in welcome, got %v",
				i, pinochle.Player(i), welcome.Player)
		}
	}
	return conns
}

// startGame brings a four-seat table into the playing phase.
func startGame(t *testing.T, table *Table) [4]*fakeConn {
	t.Helper()
	conns := joinFour(t, table)
	for _, c := range conns {
		c.send(t, rawSetReady(true))
	}
	for i, c := range conns {
		state := c.next(t, MsgState)
		if state.Game == nil {
			t.Fatalf("client %d: state frame without game", i)
		}
		if state.Game.Phase != pinochle.PhaseBidding {
			t.Fatalf("client %d: expected bidding, got %v", i, state.Game.Phase)
		}
	}
	return conns
}

func closeAll(conns [4]*fakeConn) {
	for _, c := range conns {
		if c != nil {
			close(c.in)
		}
	}
}

func TestLobbyReadyFlow(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conns := startGame(t, table)

	if info := table.Info(); info.Phase != "bidding" || info.Seated != 4 {
		t.Errorf("expected a bidding table with 4 seats, got %+v", info)
	}
	closeAll(conns)
}

func TestProjectionPerRecipient(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conns := joinFour(t, table)
	for _, c := range conns {
		c.send(t, rawSetReady(true))
	}

	state := conns[0].next(t, MsgState)
	own := state.Game.Hands.Get(pinochle.PlayerA)
	if len(own) != 12 || own[0] == nil {
		t.Errorf("client a: expected a visible 12-card hand")
	}
	other := state.Game.Hands.Get(pinochle.PlayerB)
	if len(other) != 12 {
		t.Errorf("client a: expected 12 slots for seat b, got %d", len(other))
	}
	for i, slot := range other {
		if slot != nil {
			t.Errorf("client a: seat b slot %d must be hidden", i)
		}
	}
	closeAll(conns)
}

func TestSetPlayerEvictsOccupant(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conn1, conn2 := newFakeConn(), newFakeConn()
	go table.Join("conn-1", conn1)
	conn1.next(t, MsgTableState)
	go table.Join("conn-2", conn2)
	conn2.next(t, MsgTableState)

	// conn-2 takes seat A from conn-1; taking a seat implies readiness.
	conn2.send(t, rawSetPlayer(pinochle.PlayerA))

	snap := conn2.next(t, MsgTableState)
	if snap.Player == nil || *snap.Player != pinochle.PlayerA {
		t.Fatalf("expected conn-2 in seat a, got %v", snap.Player)
	}
	if !snap.Ready.Get(pinochle.PlayerA) {
		t.Error("taking a seat must set the ready flag")
	}
	if snap.Ready.Get(pinochle.PlayerB) {
		t.Error("seat b was vacated and must not read ready")
	}

	// conn-1 first sees conn-2's join, then its own eviction.
	conn1.next(t, MsgTableState)
	snap1 := conn1.next(t, MsgTableState)
	if snap1.Player != nil {
		t.Errorf("evicted client must be seatless, got %v", snap1.Player)
	}

	close(conn1.in)
	close(conn2.in)
}

func TestSetPlayerIsIdempotent(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conn := newFakeConn()
	go table.Join("conn-1", conn)
	conn.next(t, MsgTableState)

	conn.send(t, rawSetPlayer(pinochle.PlayerC))
	first := conn.next(t, MsgTableState)
	conn.send(t, rawSetPlayer(pinochle.PlayerC))
	second := conn.next(t, MsgTableState)

	if *first.Player != pinochle.PlayerC || *second.Player != pinochle.PlayerC {
		t.Error("repeating set_player must keep the same seat")
	}
	if *first.Ready != *second.Ready {
		t.Error("repeating set_player must not change the ready map")
	}
	close(conn.in)
}

func TestPassCardsMaskedFromOpponents(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conns := startGame(t, table)

	// A opens, everyone else passes; A picks trump; C (A's teammate)
	// passes four diamonds from the known fixed deal. Each connection runs
	// on its own goroutine, so every input waits for its broadcast before
	// the next seat acts.
	conns[0].send(t, rawPlay(pinochle.Bid(250)))
	conns[0].next(t, MsgPlayed)
	conns[1].send(t, rawPlay(pinochle.Pass()))
	conns[0].next(t, MsgPlayed)
	conns[2].send(t, rawPlay(pinochle.Pass()))
	conns[0].next(t, MsgPlayed)
	conns[3].send(t, rawPlay(pinochle.Pass()))
	conns[0].next(t, MsgPlayed)
	conns[0].send(t, rawPlay(pinochle.SelectSuit(pinochle.SuitDiamond)))
	conns[0].next(t, MsgPlayed)

	pass := [4]pinochle.Card{
		{Suit: pinochle.SuitDiamond, Rank: pinochle.RankNine},
		{Suit: pinochle.SuitDiamond, Rank: pinochle.RankJack},
		{Suit: pinochle.SuitDiamond, Rank: pinochle.RankQueen},
		{Suit: pinochle.SuitDiamond, Rank: pinochle.RankKing},
	}
	conns[2].send(t, rawPlay(pinochle.PassCards(pass)))

	// Teammate sees the cards, opponents see only that a pass happened.
	for {
		msg := conns[0].next(t, MsgPlayed)
		if msg.Input.Kind != pinochle.InputPassCards {
			continue
		}
		if msg.Input.Cards == nil {
			t.Error("teammate must see the passed cards")
		}
		break
	}
	for {
		msg := conns[1].next(t, MsgPlayed)
		if msg.Input.Kind != pinochle.InputPassCards {
			continue
		}
		if msg.Input.Cards != nil {
			t.Error("opponent must not see the passed cards")
		}
		break
	}
	closeAll(conns)
}

func TestErrorGoesToSenderOnly(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conns := startGame(t, table)

	// B plays out of turn.
	conns[1].send(t, rawPlay(pinochle.Bid(250)))
	errMsg := conns[1].next(t, MsgError)
	if errMsg.Message != "Not your turn" {
		t.Errorf("expected turn error, got %q", errMsg.Message)
	}
	closeAll(conns)
}

func TestLobbyCommandsRejectedWhilePlaying(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conns := startGame(t, table)

	// Unknown tags are dropped; a lobby command mid-game errors back.
	conns[1].in <- []byte(`{"type":"time_travel"}`)
	conns[1].send(t, rawSetReady(false))
	errMsg := conns[1].next(t, MsgError)
	if errMsg.Message != "Not in lobby" {
		t.Errorf("expected phase error, got %q", errMsg.Message)
	}
	closeAll(conns)
}

func TestResignCascadesToLobby(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conns := startGame(t, table)

	conns[0].send(t, clientMessage{Type: MsgResign})

	for i, c := range conns {
		resigned := c.next(t, MsgResigned)
		if resigned.Player == nil || *resigned.Player != pinochle.PlayerA {
			t.Fatalf("client %d: expected resigned(a), got %v", i, resigned.Player)
		}
		snap := c.next(t, MsgTableState)
		if snap.Player != nil {
			t.Errorf("client %d: all seats must be empty after resign", i)
		}
		for _, p := range pinochle.Players() {
			if snap.Ready.Get(p) {
				t.Errorf("client %d: seat %v must not be ready after resign", i, p)
			}
		}
	}
	closeAll(conns)
}

func TestLeaveMidGameReturnsToLobby(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conns := startGame(t, table)

	close(conns[3].in)
	conns[3] = nil

	for i := 0; i < 3; i++ {
		conns[i].next(t, MsgLeaving)
		conns[i].next(t, MsgBackToReady)
		snap := conns[i].next(t, MsgTableState)
		if snap.Player == nil || *snap.Player != pinochle.Player(i) {
			t.Fatalf("client %d: expected to keep seat %v", i, pinochle.Player(i))
		}
		for _, p := range []pinochle.Player{pinochle.PlayerA, pinochle.PlayerB, pinochle.PlayerC} {
			if !snap.Ready.Get(p) {
				t.Errorf("client %d: remaining seat %v must be pre-marked ready", i, p)
			}
		}
		if snap.Ready.Get(pinochle.PlayerD) {
			t.Errorf("client %d: the departed seat must not be ready", i)
		}
	}
	closeAll(conns)
}

func TestUnknownFramesAreDropped(t *testing.T) {
	table := NewTable("test-table", fixedShuffler{}, nil)
	conn := newFakeConn()
	go table.Join("conn-1", conn)
	conn.next(t, MsgTableState)

	conn.in <- []byte(`{"type":"time_travel"}`)
	conn.in <- []byte(`not even json`)
	conn.send(t, rawSetReady(true))

	snap := conn.next(t, MsgTableState)
	if !snap.Ready.Get(pinochle.PlayerA) {
		t.Error("the connection must survive unknown and undecodable frames")
	}
	close(conn.in)
}
