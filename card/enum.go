package card

const (
	CardInvalid Card = 0
	// CardRear is the back of a card: a hidden card in a viewer's projection.
	CardRear Card = 0xFF
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// Standard returns the 52 cards in suit-major order.
func Standard() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := byte(1); r <= 13; r++ {
			cards = append(cards, New(s, r))
		}
	}
	return cards
}
