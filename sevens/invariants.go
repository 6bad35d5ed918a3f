package sevens

import (
	"fmt"

	"sevens-lite/card"
)

// CheckInvariants verifies the table-wide invariants and reports the first
// violation.
func (g *Game) CheckInvariants() error {
	seen := make(map[card.Card]bool, card.DeckSize)
	total := 0
	note := func(cs []card.Card, where string) error {
		for _, c := range cs {
			if !c.Valid() {
				return ErrInvalidState(fmt.Sprintf("invalid card %#x in %s", byte(c), where))
			}
			if seen[c] {
				return ErrInvalidState(fmt.Sprintf("duplicate card %s in %s", c, where))
			}
			seen[c] = true
			total++
		}
		return nil
	}
	if err := note(g.deck.Cards(), "deck"); err != nil {
		return err
	}
	if err := note(g.discards, "discards"); err != nil {
		return err
	}

	var committed int64
	active, seated := 0, 0
	for _, s := range g.seats {
		if err := note(s.Hand.Cards(), fmt.Sprintf("seat %d", s.Index)); err != nil {
			return err
		}
		if s.Occupied() {
			seated++
		}
		if s.Status == SeatActiveTurn {
			active++
		}
		if s.Chips < 0 {
			return ErrInvalidState(fmt.Sprintf("seat %d has %d chips", s.Index, s.Chips))
		}
		committed += s.Committed
		if g.round != nil && s.Committed > g.round.CurrentBet {
			return ErrInvalidState(fmt.Sprintf("seat %d committed %d over the current bet %d", s.Index, s.Committed, g.round.CurrentBet))
		}
	}
	if total != card.DeckSize {
		return ErrInvalidState(fmt.Sprintf("%d cards accounted, want %d", total, card.DeckSize))
	}
	if seated > g.cfg.MaxSeats {
		return ErrInvalidState(fmt.Sprintf("%d seated over capacity %d", seated, g.cfg.MaxSeats))
	}

	var pot int64
	if g.round != nil {
		pot = g.round.Pot
	}
	if pot != committed {
		return ErrInvalidState(fmt.Sprintf("pot %d != committed %d", pot, committed))
	}

	turnLoop := g.round != nil && (g.round.Status == RoundBetting || g.round.Status == RoundInProgress)
	switch {
	case turnLoop && active != 1:
		return ErrInvalidState(fmt.Sprintf("%d seats hold the turn", active))
	case turnLoop && (g.round.Turn < 0 || g.seats[g.round.Turn].Status != SeatActiveTurn):
		return ErrInvalidState(fmt.Sprintf("turn pointer %d is not the active seat", g.round.Turn))
	case !turnLoop && active != 0:
		return ErrInvalidState("active seat outside the turn loop")
	}
	return nil
}
