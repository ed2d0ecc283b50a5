package deck

import "errors"

// ErrTooFewCards means the deck cannot cover the requested deal.
// This is a setup problem, not a gameplay one; callers should surface
// it before the game starts.
var ErrTooFewCards = errors.New("not enough cards in the deck")

// Draw removes n cards from the front of the deck and returns them,
// along with the deck with those same cards moved to the back. The
// deck is a circular buffer: it never shrinks, it rotates.
func Draw(cards []int, n int) (drawn []int, rotated []int) {
	drawn = make([]int, n)
	copy(drawn, cards[:n])

	rotated = make([]int, 0, len(cards))
	rotated = append(rotated, cards[n:]...)
	rotated = append(rotated, drawn...)
	return drawn, rotated
}

// Deal assigns handSize cards to each of numPlayers hands, in player
// order, each hand drawn from the front of the deck and rotated to the
// back. Returns the hands and the rotated deck.
func Deal(cards []int, numPlayers, handSize int) ([][]int, []int, error) {
	if numPlayers < 0 || handSize < 0 {
		return nil, nil, ErrTooFewCards
	}
	if numPlayers*handSize > len(cards) {
		return nil, nil, ErrTooFewCards
	}

	hands := make([][]int, numPlayers)
	for i := range hands {
		hands[i], cards = Draw(cards, handSize)
	}
	return hands, cards, nil
}

// Replace draws one replacement card per hand, a single front-pop /
// back-push at a time, and returns the drawn cards in draw order along
// with the rotated deck.
func Replace(cards []int, numHands int) ([]int, []int, error) {
	if numHands < 0 || numHands > len(cards) {
		return nil, nil, ErrTooFewCards
	}

	drawn := make([]int, 0, numHands)
	for i := 0; i < numHands; i++ {
		var next []int
		next, cards = Draw(cards, 1)
		drawn = append(drawn, next[0])
	}
	return drawn, cards, nil
}
