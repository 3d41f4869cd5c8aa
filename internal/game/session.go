package game

import (
	"log"

	"pinochle-platform/internal/analytics"
	"pinochle-platform/internal/room"
)

// ServeConn drives one client connection: it waits for join_table
// commands and hands the transport to the named table. When the table's
// loop returns the connection either moves straight to the next table the
// client asked for or comes back here to await another join_table. The
// function returns when the inbound stream ends.
func ServeConn(reg *Registry, id ConnID, transport room.Transport[[]byte]) {
	ConnectionsActive.Inc()
	defer ConnectionsActive.Dec()

	ev := analytics.NewGameEvent(analytics.EventSessionStart, "")
	ev.ConnID = string(id)
	if reg.events != nil {
		reg.events.Record(ev)
	}
	defer func() {
		ev := analytics.NewGameEvent(analytics.EventSessionEnd, "")
		ev.ConnID = string(id)
		if reg.events != nil {
			reg.events.Record(ev)
		}
	}()

	log.Printf("%s connected", id)
	defer log.Printf("%s disconnected", id)

	for raw := range transport.Inbound() {
		msg := decodeClientMessage(raw)
		if msg == nil || msg.Type != MsgJoinTable {
			continue
		}
		name := msg.Name
		for name != "" {
			table := reg.GetOrCreate(name)
			log.Printf("%s joined table %q", id, name)
			name = table.Join(id, transport)
		}
	}
}
