package pinochle

import (
	"encoding/json"
	"testing"
)

func TestRankOrdering(t *testing.T) {
	if !(RankNine < RankTen) {
		t.Error("expected nine below ten")
	}
	if !(RankKing < RankTen) {
		t.Error("expected king below ten")
	}
	if !(RankTen < RankAce) {
		t.Error("expected ten below ace")
	}
}

func TestDeckComposition(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, len(deck))
	}
	counts := make(map[Card]int)
	for _, c := range deck {
		counts[c]++
	}
	if len(counts) != 24 {
		t.Fatalf("expected 24 distinct cards, got %d", len(counts))
	}
	for c, n := range counts {
		if n != 2 {
			t.Errorf("card %v: expected 2 copies, got %d", c, n)
		}
	}
}

func TestCardJSON(t *testing.T) {
	raw, err := json.Marshal(Card{Suit: SuitHeart, Rank: RankTen})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"suit":"heart","rank":"ten"}` {
		t.Errorf("unexpected encoding %s", raw)
	}

	var c Card
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatal(err)
	}
	if c.Suit != SuitHeart || c.Rank != RankTen {
		t.Errorf("round trip changed the card: %v", c)
	}

	if err := json.Unmarshal([]byte(`{"suit":"cups","rank":"ten"}`), &c); err == nil {
		t.Error("expected an error for an unknown suit")
	}
}

func TestPlayerGeometry(t *testing.T) {
	if PlayerA.Next() != PlayerB || PlayerD.Next() != PlayerA {
		t.Error("seats must advance clockwise and wrap")
	}
	if PlayerA.Teammate() != PlayerC || PlayerB.Teammate() != PlayerD {
		t.Error("teammates sit across")
	}
	if PlayerA.Team() != TeamAC || PlayerC.Team() != TeamAC {
		t.Error("A and C share a team")
	}
	if PlayerB.Team() != TeamBD || PlayerD.Team() != TeamBD {
		t.Error("B and D share a team")
	}
	if TeamAC.Other() != TeamBD || TeamBD.Other() != TeamAC {
		t.Error("Other must flip the team")
	}
}

func TestHandPlaceholders(t *testing.T) {
	h := KnownHand([]Card{
		{Suit: SuitHeart, Rank: RankTen},
		{Suit: SuitSpade, Rank: RankNine},
	})
	if !h.HasSuit(SuitHeart) || h.HasSuit(SuitClub) {
		t.Error("HasSuit must reflect visible cards")
	}

	hidden := h.Conceal()
	if len(hidden) != 2 || hidden[0] != nil || hidden[1] != nil {
		t.Error("Conceal must keep length and hide identities")
	}
	if hidden.HasSuit(SuitHeart) {
		t.Error("placeholders have no suit")
	}

	// Removing an unknown card consumes a placeholder.
	if !hidden.remove(Card{Suit: SuitClub, Rank: RankAce}) {
		t.Error("expected placeholder consumption")
	}
	if len(hidden) != 1 {
		t.Errorf("expected 1 slot left, got %d", len(hidden))
	}
}
