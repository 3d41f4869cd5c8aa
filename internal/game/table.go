package game

import (
	"sync"

	"pinochle-platform/internal/analytics"
	"pinochle-platform/internal/room"
	"pinochle-platform/pkg/pinochle"
)

// ConnID identifies one client connection within the server.
type ConnID string

// Table owns one named game: a Room of subscribers plus either a lobby or
// a running game. Connection goroutines call into it concurrently; the
// outer lock guards which variant holds and each variant carries its own
// inner lock. Variant swaps re-check their precondition under the outer
// write lock.
type Table struct {
	name     string
	room     *room.Room[ConnID, []byte]
	shuffler pinochle.Shuffler
	events   analytics.Recorder

	mu    sync.RWMutex
	state tableState
}

type tableState interface{ isTableState() }

// lobbyState holds seat selection and readiness. game is the pristine
// instance the table will play once everyone is ready; after a mid-game
// leave it carries the interrupted game forward.
type lobbyState struct {
	mu    sync.Mutex
	seats pinochle.PlayerMap[*ConnID]
	ready map[ConnID]bool
	game  *pinochle.Game
}

func (*lobbyState) isTableState() {}

// playingState holds the fixed seat assignment and the live game.
type playingState struct {
	mu    sync.RWMutex
	seats pinochle.PlayerMap[ConnID]
	game  *pinochle.Game
}

func (*playingState) isTableState() {}

// NewTable creates a table in the lobby state with a freshly dealt game.
func NewTable(name string, shuffler pinochle.Shuffler, events analytics.Recorder) *Table {
	return &Table{
		name:     name,
		room:     room.New[ConnID, []byte](),
		shuffler: shuffler,
		events:   events,
		state: &lobbyState{
			ready: make(map[ConnID]bool),
			game:  pinochle.NewGame(pinochle.PlayerA, shuffler),
		},
	}
}

// Name returns the table's registry name.
func (t *Table) Name() string { return t.name }

// TableInfo is the REST view of a table.
type TableInfo struct {
	Name    string `json:"name"`
	Phase   string `json:"phase"`
	Members int    `json:"members"`
	Seated  int    `json:"seated"`
}

// Info summarises the table for the REST API.
func (t *Table) Info() TableInfo {
	info := TableInfo{Name: t.name, Members: t.room.Len()}
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch st := t.state.(type) {
	case *lobbyState:
		st.mu.Lock()
		info.Phase = "lobby"
		for _, p := range pinochle.Players() {
			if st.seats.Get(p) != nil {
				info.Seated++
			}
		}
		st.mu.Unlock()
	case *playingState:
		st.mu.RLock()
		info.Phase = st.game.Phase.String()
		info.Seated = pinochle.NumPlayers
		st.mu.RUnlock()
	}
	return info
}

// Join admits the connection and serves it until it disconnects or asks
// for another table. The returned name is non-empty when the client sent
// join_table mid-session and should be moved to that table.
func (t *Table) Join(id ConnID, transport room.Transport[[]byte]) (next string) {
	t.admit(id)
	t.room.Enter(id, transport,
		func() { t.sendWelcome(id) },
		func(raw []byte) room.Completion {
			msg := decodeClientMessage(raw)
			if msg == nil {
				return room.Continue
			}
			if msg.Type == MsgJoinTable {
				next = msg.Name
				return room.Finished
			}
			t.handleMessage(id, msg)
			return room.Continue
		})
	t.leave(id)
	return next
}

// admit assigns the newcomer the first empty seat when the table is in
// the lobby. Mid-game joiners stay unseated subscribers.
func (t *Table) admit(id ConnID) {
	t.mu.RLock()
	lobby, ok := t.state.(*lobbyState)
	t.mu.RUnlock()
	if !ok {
		return
	}

	lobby.mu.Lock()
	for _, p := range pinochle.Players() {
		if lobby.seats.Get(p) == nil {
			c := id
			lobby.seats.Set(p, &c)
			lobby.ready[id] = false
			break
		}
	}
	ready, byConn := lobby.snapshotLocked()
	lobby.mu.Unlock()

	t.broadcastTableState(ready, byConn)
}

// sendWelcome delivers the initial snapshot once the subscriber is
// registered. In the playing phase new subscribers get nothing.
func (t *Table) sendWelcome(id ConnID) {
	t.mu.RLock()
	lobby, ok := t.state.(*lobbyState)
	t.mu.RUnlock()
	if !ok {
		return
	}
	lobby.mu.Lock()
	ready, byConn := lobby.snapshotLocked()
	lobby.mu.Unlock()

	var seat *pinochle.Player
	if s, ok := byConn[id]; ok {
		seat = &s
	}
	t.room.SendTo(id, encodeTableState(ready, seat))
}

func (t *Table) handleMessage(id ConnID, msg *clientMessage) {
	t.mu.RLock()
	state := t.state
	t.mu.RUnlock()

	switch st := state.(type) {
	case *lobbyState:
		t.handleLobby(st, id, msg)
	case *playingState:
		t.handlePlaying(st, id, msg)
	}
}

// handleLobby applies a lobby command, rebroadcasts the per-recipient
// snapshot, and starts the game when all four seats are occupied and
// ready. Commands that make no sense in the lobby are ignored.
func (t *Table) handleLobby(lobby *lobbyState, id ConnID, msg *clientMessage) {
	lobby.mu.Lock()
	switch {
	case msg.Type == MsgSetPlayer && msg.Player != nil:
		setPlayerLocked(lobby, id, *msg.Player)
	case msg.Type == MsgSetReady && msg.Ready != nil:
		if seatOf(lobby.seats, id) != nil {
			lobby.ready[id] = *msg.Ready
		}
	default:
		lobby.mu.Unlock()
		return
	}
	ready, byConn := lobby.snapshotLocked()
	start := allReadyLocked(lobby)
	lobby.mu.Unlock()

	t.broadcastTableState(ready, byConn)
	if start {
		t.startPlaying(lobby)
	}
}

// setPlayerLocked moves the caller into the requested seat. The caller's
// previous seat is vacated, a prior occupant is evicted with their ready
// flag cleared, and taking a seat marks the caller ready.
func setPlayerLocked(lobby *lobbyState, id ConnID, p pinochle.Player) {
	if prev := seatOf(lobby.seats, id); prev != nil {
		lobby.seats.Set(*prev, nil)
	}
	if occupant := lobby.seats.Get(p); occupant != nil && *occupant != id {
		delete(lobby.ready, *occupant)
	}
	c := id
	lobby.seats.Set(p, &c)
	lobby.ready[id] = true
}

// snapshotLocked captures the ready flags by seat and the seat of every
// connected occupant. Callers hold lobby.mu.
func (lobby *lobbyState) snapshotLocked() (pinochle.PlayerMap[bool], map[ConnID]pinochle.Player) {
	var ready pinochle.PlayerMap[bool]
	byConn := make(map[ConnID]pinochle.Player, pinochle.NumPlayers)
	for _, p := range pinochle.Players() {
		if c := lobby.seats.Get(p); c != nil {
			ready.Set(p, lobby.ready[*c])
			byConn[*c] = p
		}
	}
	return ready, byConn
}

func allReadyLocked(lobby *lobbyState) bool {
	for _, p := range pinochle.Players() {
		c := lobby.seats.Get(p)
		if c == nil || !lobby.ready[*c] {
			return false
		}
	}
	return true
}

// broadcastTableState fans the lobby snapshot out with each recipient's
// own seat filled in.
func (t *Table) broadcastTableState(ready pinochle.PlayerMap[bool], byConn map[ConnID]pinochle.Player) {
	t.room.Send(func(k ConnID) ([]byte, bool) {
		var seat *pinochle.Player
		if s, ok := byConn[k]; ok {
			seat = &s
		}
		return encodeTableState(ready, seat), true
	})
}

// startPlaying swaps the lobby for a running game. The all-ready check is
// repeated under the outer write lock: a concurrent unready or leave wins.
func (t *Table) startPlaying(lobby *lobbyState) {
	t.mu.Lock()
	if t.state != tableState(lobby) {
		t.mu.Unlock()
		return
	}
	lobby.mu.Lock()
	if !allReadyLocked(lobby) {
		lobby.mu.Unlock()
		t.mu.Unlock()
		return
	}
	var seats pinochle.PlayerMap[ConnID]
	for _, p := range pinochle.Players() {
		seats.Set(p, *lobby.seats.Get(p))
	}
	playing := &playingState{seats: seats, game: lobby.game}
	lobby.mu.Unlock()
	t.state = playing
	t.mu.Unlock()

	GamesStarted.Inc()
	t.record(analytics.NewGameEvent(analytics.EventGameStarted, t.name))
	t.broadcastGameState(playing)
}

// broadcastGameState sends every seated recipient their projection of the
// game. Unseated subscribers receive nothing.
func (t *Table) broadcastGameState(playing *playingState) {
	playing.mu.RLock()
	defer playing.mu.RUnlock()
	t.room.Send(func(k ConnID) ([]byte, bool) {
		seat, ok := seatIn(playing.seats, k)
		if !ok {
			return nil, false
		}
		return encodeState(playing.game.Project(seat)), true
	})
}

// handlePlaying routes one playing-phase command. Errors go back to the
// sender only; successful inputs fan out masked per recipient team.
func (t *Table) handlePlaying(playing *playingState, id ConnID, msg *clientMessage) {
	seat, seated := seatIn(playing.seats, id)

	switch msg.Type {
	case MsgResign:
		if !seated {
			t.room.SendTo(id, encodeError("Not playing"))
			return
		}
		t.room.Broadcast(encodeResigned(seat))
		ev := analytics.NewGameEvent(analytics.EventPlayerResign, t.name)
		ev.ConnID = string(id)
		ev.Seat = seat.String()
		t.record(ev)
		t.resignToLobby(playing)

	case MsgPlay:
		if msg.Input == nil {
			return
		}
		if !seated {
			t.room.SendTo(id, encodeError("Not playing"))
			return
		}
		t.applyInput(playing, id, seat, *msg.Input)

	case MsgSetPlayer, MsgSetReady:
		// Known command, wrong phase.
		t.room.SendTo(id, encodeError("Not in lobby"))

	default:
		// Unknown tags are dropped for forward compatibility.
	}
}

// applyInput forwards one game input and fans out the result.
func (t *Table) applyInput(playing *playingState, id ConnID, seat pinochle.Player, in pinochle.Input) {
	playing.mu.Lock()
	err := playing.game.Play(seat, in)
	var roundEv *analytics.GameEvent
	if err == nil {
		switch playing.game.Phase {
		case pinochle.PhaseFinishedRound:
			ev := analytics.RoundEvent(analytics.EventRoundFinished, t.name, playing.game)
			roundEv = &ev
		case pinochle.PhaseFinished:
			ev := analytics.RoundEvent(analytics.EventGameFinished, t.name, playing.game)
			roundEv = &ev
		}
	}
	playing.mu.Unlock()

	if err != nil {
		InputsTotal.WithLabelValues("rejected").Inc()
		t.room.SendTo(id, encodeError(err.Error()))
		return
	}
	InputsTotal.WithLabelValues("accepted").Inc()
	if roundEv != nil {
		if roundEv.EventType == analytics.EventRoundFinished {
			RoundsCompleted.Inc()
		}
		t.record(*roundEv)
	}

	if in.Kind == pinochle.InputNext {
		// The board was reshuffled; everyone needs a fresh projection.
		t.broadcastGameState(playing)
		return
	}

	actorTeam := seat.Team()
	t.room.Send(func(k ConnID) ([]byte, bool) {
		if rseat, ok := seatIn(playing.seats, k); ok && rseat.Team() == actorTeam {
			return encodePlayed(seat, in), true
		}
		return encodePlayed(seat, in.Mask()), true
	})
}

// resignToLobby resets the table to an empty lobby with a fresh game.
func (t *Table) resignToLobby(playing *playingState) {
	t.mu.Lock()
	if t.state != tableState(playing) {
		t.mu.Unlock()
		return
	}
	lobby := &lobbyState{
		ready: make(map[ConnID]bool),
		game:  pinochle.NewGame(pinochle.PlayerA, t.shuffler),
	}
	t.state = lobby
	t.mu.Unlock()

	lobby.mu.Lock()
	ready, byConn := lobby.snapshotLocked()
	lobby.mu.Unlock()
	t.broadcastTableState(ready, byConn)
}

// leave runs the membership-churn cleanup after a connection exits the
// room, on every exit path.
func (t *Table) leave(id ConnID) {
	t.mu.RLock()
	state := t.state
	t.mu.RUnlock()

	switch st := state.(type) {
	case *lobbyState:
		st.mu.Lock()
		if seat := seatOf(st.seats, id); seat != nil {
			st.seats.Set(*seat, nil)
		}
		delete(st.ready, id)
		ready, byConn := st.snapshotLocked()
		st.mu.Unlock()
		t.broadcastTableState(ready, byConn)

	case *playingState:
		if _, ok := seatIn(st.seats, id); !ok {
			return
		}
		t.room.Broadcast(encodeLeaving(id))
		t.room.Broadcast(encodeBackToReady())
		t.leaveToLobby(st, id)
	}
}

// leaveToLobby rebuilds the lobby after a seated player drops mid-game:
// the departed seat empties, everyone still connected is pre-marked
// ready, and the interrupted game is carried forward for the next start.
func (t *Table) leaveToLobby(playing *playingState, departed ConnID) {
	t.mu.Lock()
	if t.state != tableState(playing) {
		t.mu.Unlock()
		return
	}
	lobby := &lobbyState{ready: make(map[ConnID]bool)}
	playing.mu.RLock()
	lobby.game = playing.game
	for _, p := range pinochle.Players() {
		c := playing.seats.Get(p)
		if c == departed {
			continue
		}
		conn := c
		lobby.seats.Set(p, &conn)
		lobby.ready[conn] = true
	}
	playing.mu.RUnlock()
	t.state = lobby
	t.mu.Unlock()

	lobby.mu.Lock()
	ready, byConn := lobby.snapshotLocked()
	lobby.mu.Unlock()
	t.broadcastTableState(ready, byConn)
}

func (t *Table) record(ev analytics.GameEvent) {
	if t.events != nil {
		t.events.Record(ev)
	}
}

// seatOf finds the seat a connection holds in a lobby assignment.
func seatOf(seats pinochle.PlayerMap[*ConnID], id ConnID) *pinochle.Player {
	for _, p := range pinochle.Players() {
		if c := seats.Get(p); c != nil && *c == id {
			seat := p
			return &seat
		}
	}
	return nil
}

// seatIn finds the seat a connection holds in a playing assignment.
func seatIn(seats pinochle.PlayerMap[ConnID], id ConnID) (pinochle.Player, bool) {
	for _, p := range pinochle.Players() {
		if seats.Get(p) == id {
			return p, true
		}
	}
	return pinochle.PlayerA, false
}
