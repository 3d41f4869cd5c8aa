package pinochle

// Project returns the viewer's partial-information copy of the game: the
// viewer's own hand is preserved and every other seat's cards become
// placeholders of equal length. All other fields are copied. Projecting a
// projection for the same viewer is a no-op.
func (g *Game) Project(viewer Player) *Game {
	out := &Game{
		Phase:         g.Phase,
		Scores:        g.Scores,
		InitialBidder: g.InitialBidder,
		Turn:          g.Turn,
		Trump:         g.Trump,
	}
	out.Hands = MapPlayers(g.Hands, func(p Player, h Hand) Hand {
		if p == viewer {
			return h.Clone()
		}
		return h.Conceal()
	})
	out.Bids = make([]*int, len(g.Bids))
	for i, b := range g.Bids {
		if b != nil {
			v := *b
			out.Bids[i] = &v
		}
	}
	out.PlayArea = append([]Card(nil), g.PlayArea...)
	for t := 0; t < NumTeams; t++ {
		out.Taken[t] = append([]Card(nil), g.Taken[t]...)
	}
	return out
}
