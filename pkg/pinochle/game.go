package pinochle

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Game rule errors. The messages are the user-facing strings delivered to
// clients verbatim.
var (
	ErrNotYourTurn     = errors.New("Not your turn")
	ErrFirstBidderPass = errors.New("First bidder must not pass")
	ErrBidTooLow       = errors.New("Must bid at least 250")
	ErrBidIncrement    = errors.New("Must bid in increments of 25")
	ErrBidNotHigher    = errors.New("Bid must be higher than any bid")
	ErrCardNotToPass   = errors.New("Card not in hand to pass")
	ErrMustFollowSuit  = errors.New("Must follow suit")
	ErrMustTrump       = errors.New("Must trump")
	ErrCardNotInHand   = errors.New("Card not in hand")
	ErrGameFinished    = errors.New("Game is finished")
	ErrUnexpectedInput = errors.New("Unexpected input for this phase")
)

const (
	// MinBid is the lowest legal opening bid.
	MinBid = 250
	// BidIncrement is the step bids must move in.
	BidIncrement = 25
	// WinningScore ends the game once a team exceeds it.
	WinningScore = 2000
	// trickValue is the placeholder per-trick score awarded at round end.
	trickValue = 25
)

// Phase identifies which variant of the game state currently holds.
type Phase int8

const (
	PhaseBidding Phase = iota
	PhaseSelectingTrump
	PhasePassingCards
	PhaseReturningCards
	PhasePlaying
	PhaseFinishedRound
	PhaseFinished
)

var phaseNames = []string{
	"bidding", "selecting_trump", "passing_cards", "returning_cards",
	"playing", "finished_round", "finished",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range phaseNames {
		if n == name {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

// Shuffler supplies the permutation used when dealing. Production code
// injects the crypto-backed implementation from pkg/rng; tests inject a
// fixed-order stub.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Game is the phase machine for one table's pinochle game. Exactly one
// phase holds at a time; the fields past Phase are the union of per-phase
// data, and which of them are meaningful depends on Phase. Game does no
// I/O and is not safe for concurrent use; callers serialize access.
type Game struct {
	Phase         Phase            `json:"phase"`
	Hands         PlayerMap[Hand]  `json:"hands"`
	Scores        [NumTeams]int    `json:"scores"`
	Bids          []*int           `json:"bids"`
	InitialBidder Player           `json:"initial_bidder"`
	Turn          Player           `json:"turn"`
	Trump         Suit             `json:"trump"`
	PlayArea      []Card           `json:"play_area"`
	Taken         [NumTeams][]Card `json:"taken"`

	shuffler Shuffler
}

// NewGame deals a fresh double deck and opens bidding with the given seat.
func NewGame(firstBidder Player, shuffler Shuffler) *Game {
	g := &Game{
		Phase:         PhaseBidding,
		InitialBidder: firstBidder,
		Turn:          firstBidder,
		shuffler:      shuffler,
	}
	g.Hands = deal(shuffler)
	return g
}

// NewGameWithHands opens bidding over explicit hands; used by tests and by
// projection round-trips.
func NewGameWithHands(firstBidder Player, hands PlayerMap[Hand], shuffler Shuffler) *Game {
	return &Game{
		Phase:         PhaseBidding,
		InitialBidder: firstBidder,
		Turn:          firstBidder,
		Hands:         hands,
		shuffler:      shuffler,
	}
}

func deal(shuffler Shuffler) PlayerMap[Hand] {
	deck := NewDeck()
	if shuffler != nil {
		shuffler.Shuffle(len(deck), func(i, j int) {
			deck[i], deck[j] = deck[j], deck[i]
		})
	}
	per := len(deck) / NumPlayers
	var hands PlayerMap[Hand]
	for i, p := range Players() {
		hands.Set(p, KnownHand(deck[i*per:(i+1)*per]))
	}
	return hands
}

// CanPlay reports whether the seat may submit an input right now. In
// FinishedRound every seat may advance the game.
func (g *Game) CanPlay(p Player) bool {
	switch g.Phase {
	case PhaseFinishedRound:
		return true
	case PhaseFinished:
		return false
	default:
		return g.Turn == p
	}
}

// Play validates and applies one input for the given seat. On error the
// game is left unchanged.
func (g *Game) Play(player Player, input Input) error {
	if g.Phase == PhaseFinished {
		return ErrGameFinished
	}
	if !g.CanPlay(player) {
		return ErrNotYourTurn
	}

	switch g.Phase {
	case PhaseBidding:
		switch input.Kind {
		case InputBid:
			return g.bid(input.Amount)
		case InputPass:
			return g.pass()
		}
	case PhaseSelectingTrump:
		if input.Kind == InputSelectSuit && input.Suit != nil {
			g.selectTrump(*input.Suit)
			return nil
		}
	case PhasePassingCards:
		if input.Kind == InputPassCards {
			return g.passCards(input.Cards, PhaseReturningCards)
		}
	case PhaseReturningCards:
		if input.Kind == InputPassCards {
			return g.passCards(input.Cards, PhasePlaying)
		}
	case PhasePlaying:
		if input.Kind == InputPlayCard && input.Card != nil {
			return g.playCard(*input.Card)
		}
	case PhaseFinishedRound:
		if input.Kind == InputNext {
			g.nextRound()
			return nil
		}
	}
	return ErrUnexpectedInput
}

func (g *Game) bid(amount int) error {
	if amount < MinBid {
		return ErrBidTooLow
	}
	if (amount-MinBid)%BidIncrement != 0 {
		return ErrBidIncrement
	}
	for _, prior := range g.Bids {
		if prior != nil && *prior >= amount {
			return ErrBidNotHigher
		}
	}
	a := amount
	g.Bids = append(g.Bids, &a)
	g.Turn = g.Turn.Next()
	g.maybeFinishBidding()
	return nil
}

func (g *Game) pass() error {
	if len(g.Bids) == 0 {
		return ErrFirstBidderPass
	}
	g.Bids = append(g.Bids, nil)
	g.Turn = g.Turn.Next()
	g.maybeFinishBidding()
	return nil
}

// maybeFinishBidding closes the auction after the fourth bid. The winner
// is the earliest highest bid; the first bidder may not pass, so at least
// one concrete bid exists.
func (g *Game) maybeFinishBidding() {
	if len(g.Bids) < NumPlayers {
		return
	}
	winner := g.InitialBidder
	best := -1
	seat := g.InitialBidder
	for _, bid := range g.Bids {
		if bid != nil && *bid > best {
			best = *bid
			winner = seat
		}
		seat = seat.Next()
	}
	g.Phase = PhaseSelectingTrump
	g.Turn = winner
}

// selectTrump fixes trump and hands the turn to the bidder's teammate,
// who passes four cards first.
func (g *Game) selectTrump(s Suit) {
	g.Trump = s
	g.Phase = PhasePassingCards
	g.Turn = g.Turn.Teammate()
}

// passCards moves four cards from the turn-holder to their teammate. A nil
// payload is the projected form: four placeholders move instead. The hands
// are staged on copies so a failed pass leaves the game untouched.
func (g *Game) passCards(cards *[4]Card, nextPhase Phase) error {
	src := g.Turn
	dst := src.Teammate()
	srcHand := g.Hands.Get(src).Clone()
	dstHand := g.Hands.Get(dst).Clone()

	if cards != nil {
		for _, c := range cards {
			if !srcHand.remove(c) {
				return ErrCardNotToPass
			}
		}
		for i := range cards {
			c := cards[i]
			dstHand = append(dstHand, &c)
		}
	} else {
		for i := 0; i < 4; i++ {
			if !srcHand.removePlaceholder() {
				return ErrCardNotToPass
			}
			dstHand = append(dstHand, nil)
		}
	}

	g.Hands.Set(src, srcHand)
	g.Hands.Set(dst, dstHand)
	g.Phase = nextPhase
	g.Turn = dst
	if nextPhase == PhasePlaying {
		// The bidder returned cards and now leads the first trick.
		g.Turn = src
		g.PlayArea = nil
		g.Taken = [NumTeams][]Card{}
	}
	return nil
}

func (g *Game) playCard(card Card) error {
	hand := g.Hands.Get(g.Turn)
	if err := isLegal(g.PlayArea, hand, card, g.Trump); err != nil {
		return err
	}
	if !hand.remove(card) {
		return ErrCardNotInHand
	}
	g.Hands.Set(g.Turn, hand)
	g.PlayArea = append(g.PlayArea, card)
	g.Turn = g.Turn.Next()

	if len(g.PlayArea) == NumPlayers {
		g.resolveTrick()
	}
	return nil
}

// resolveTrick finds the winning card, moves the trick to the winning
// team's pile, and gives the winner the lead. After four turn advances the
// turn-holder has wrapped back to the seat that led.
func (g *Game) resolveTrick() {
	leader := g.Turn
	led := g.PlayArea[0].Suit

	winner := leader
	winning := g.PlayArea[0]
	seat := leader
	for _, c := range g.PlayArea {
		// Strict comparison: on equal cards the earlier play keeps the
		// trick.
		if seat != leader && compareCards(c, winning, led, g.Trump) > 0 {
			winning = c
			winner = seat
		}
		seat = seat.Next()
	}

	team := winner.Team()
	g.Taken[team] = append(g.Taken[team], g.PlayArea...)
	g.PlayArea = nil
	g.Turn = winner

	if len(g.Hands.Get(PlayerA)) == 0 {
		g.finishRound()
	}
}

// finishRound applies the round score and parks the game until a player
// submits Next. Scoring is a documented placeholder: each team earns 25
// points per trick taken.
func (g *Game) finishRound() {
	for t := Team(0); t < NumTeams; t++ {
		g.Scores[t] += len(g.Taken[t]) / NumPlayers * trickValue
	}
	g.Phase = PhaseFinishedRound
}

// nextRound reshuffles and opens the next auction, or ends the game once a
// team has passed the winning score.
func (g *Game) nextRound() {
	g.Bids = nil
	for _, s := range g.Scores {
		if s > WinningScore {
			g.Phase = PhaseFinished
			return
		}
	}
	g.InitialBidder = g.InitialBidder.Next()
	g.Turn = g.InitialBidder
	g.Hands = deal(g.shuffler)
	g.PlayArea = nil
	g.Taken = [NumTeams][]Card{}
	g.Phase = PhaseBidding
}

// isLegal enforces follow-suit and must-trump. Leading is always legal;
// otherwise the player must follow the led suit if they hold it, must play
// trump if they hold trump but not the led suit, and may slough anything
// when they hold neither.
func isLegal(playArea []Card, hand Hand, card Card, trump Suit) error {
	if len(playArea) == 0 {
		return nil
	}
	led := playArea[0].Suit
	if hand.HasSuit(led) {
		if card.Suit != led {
			return ErrMustFollowSuit
		}
		return nil
	}
	if hand.HasSuit(trump) {
		if card.Suit != trump {
			return ErrMustTrump
		}
	}
	return nil
}

// compareCards orders two trick cards under the led and trump suits:
// same suit by rank, trump over non-trump, led suit over off-suit. Two
// off-suit non-trump cards compare equal; neither can win the trick.
func compareCards(a, b Card, led, trump Suit) int {
	if a.Suit == b.Suit {
		switch {
		case a.Rank > b.Rank:
			return 1
		case a.Rank < b.Rank:
			return -1
		default:
			return 0
		}
	}
	switch {
	case a.Suit == trump:
		return 1
	case b.Suit == trump:
		return -1
	case a.Suit == led:
		return 1
	case b.Suit == led:
		return -1
	}
	return 0
}

// CardCount returns how many card slots exist across hands, the play area,
// and the taken piles. Reachable states always total the deck size.
func (g *Game) CardCount() int {
	n := len(g.PlayArea)
	for _, p := range Players() {
		n += len(g.Hands.Get(p))
	}
	for t := 0; t < NumTeams; t++ {
		n += len(g.Taken[t])
	}
	return n
}
