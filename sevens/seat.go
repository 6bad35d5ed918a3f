package sevens

import "sevens-lite/card"

// Hand holds up cards (public) and down cards (owner only).
type Hand struct {
	Up   card.CardList
	Down card.CardList
}

func (h Hand) Count() int {
	return h.Up.Count() + h.Down.Count()
}

// Cards returns every card, up cards first.
func (h Hand) Cards() []card.Card {
	out := make([]card.Card, 0, h.Count())
	out = append(out, h.Up...)
	return append(out, h.Down...)
}

func (h Hand) Value() HandValue {
	return Evaluate(h.Cards())
}

type Seat struct {
	Index    int
	PlayerID string
	Name     string
	NPC      bool

	Status    SeatStatus
	Chips     int64
	Committed int64

	Hand Hand
	// Dealt marks participation in the running round.
	Dealt bool
}

func (s *Seat) Occupied() bool {
	return s.Status != SeatEmpty
}

// contending seats still hold a hand that can win the pot.
func (s *Seat) contending() bool {
	if !s.Dealt {
		return false
	}
	switch s.Status {
	case SeatSeated, SeatActiveTurn, SeatStood:
		return true
	}
	return false
}

func (s *Seat) canAct() bool {
	return s.Dealt && (s.Status == SeatSeated || s.Status == SeatActiveTurn)
}

func (s *Seat) commit(amount int64) {
	s.Chips -= amount
	s.Committed += amount
}

func (s *Seat) vacate() {
	*s = Seat{Index: s.Index, Status: SeatEmpty}
}
