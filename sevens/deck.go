package sevens

import (
	"math/rand"
	"time"

	"sevens-lite/card"
)

// Deck is the draw pile of one table. Cards leave from the front.
type Deck struct {
	cards card.CardList
}

// NewShuffledDeck returns a full permuted deck. seed 0 picks a time-based seed.
func NewShuffledDeck(seed int64) *Deck {
	return NewDeck(newRand(seed))
}

func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{}
	d.Reshuffle(rng)
	return d
}

// Draw pops the front card. Callers must Reshuffle once it reports ErrEmptyDeck.
func (d *Deck) Draw() (card.Card, error) {
	if d.cards.Count() == 0 {
		return card.CardInvalid, capacityErr(ErrEmptyDeck, "no cards left to draw")
	}
	return d.cards.PopFront(), nil
}

// Reshuffle resets the deck to all 52 cards and permutes it.
func (d *Deck) Reshuffle(rng *rand.Rand) {
	d.cards.Init(card.Standard())
	d.cards.Shuffle(rng)
}

func (d *Deck) Remaining() int {
	return d.cards.Count()
}

// Cards returns a copy of the remaining cards in draw order.
func (d *Deck) Cards() []card.Card {
	return d.cards.Clone()
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
