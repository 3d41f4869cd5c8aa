package pinochle

// Hand is an ordered sequence of card slots. A nil entry is a placeholder
// for a card whose identity is hidden from the viewer; hand sizes stay
// public even when identities are not.
type Hand []*Card

// KnownHand builds a hand where every card is visible.
func KnownHand(cards []Card) Hand {
	h := make(Hand, len(cards))
	for i := range cards {
		c := cards[i]
		h[i] = &c
	}
	return h
}

// Clone copies the hand; card values are copied, not shared.
func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	for i, slot := range h {
		if slot != nil {
			c := *slot
			out[i] = &c
		}
	}
	return out
}

// Conceal replaces every slot with a placeholder of equal length.
func (h Hand) Conceal() Hand {
	return make(Hand, len(h))
}

// HasSuit reports whether any visible card in the hand has the given suit.
func (h Hand) HasSuit(s Suit) bool {
	for _, slot := range h {
		if slot != nil && slot.Suit == s {
			return true
		}
	}
	return false
}

// remove takes one instance of card out of the hand. It prefers an exact
// match; failing that it consumes a placeholder, so that operations on
// projected hands keep working. Returns false if neither is present.
func (h *Hand) remove(card Card) bool {
	hand := *h
	for i, slot := range hand {
		if slot != nil && *slot == card {
			*h = append(hand[:i], hand[i+1:]...)
			return true
		}
	}
	return h.removePlaceholder()
}

// removePlaceholder consumes the first hidden slot, if any.
func (h *Hand) removePlaceholder() bool {
	hand := *h
	for i, slot := range hand {
		if slot == nil {
			*h = append(hand[:i], hand[i+1:]...)
			return true
		}
	}
	return false
}
