package sevens

import "sevens-lite/card"

type SeatSnapshot struct {
	Index     int
	PlayerID  string
	Name      string
	NPC       bool
	Status    SeatStatus
	Chips     int64
	Committed int64
	Dealt     bool
	Up        []card.Card
	Down      []card.Card // card.CardRear when hidden from the viewer
	Value     *HandValue  // nil when any card is hidden
}

type RoundSnapshot struct {
	Number uint32
	Status RoundStatus
	Dealer int
	Turn   int
	Pot    int64

	// CurrentBet is the commitment to match during betting.
	CurrentBet int64
	Raises     int
}

type Snapshot struct {
	Variant   Variant
	MaxSeats  int
	Ante      int64
	MaxBet    int64
	MaxRaises int
	MaxCards  int

	State         TableState
	Round         *RoundSnapshot
	Seats         []SeatSnapshot
	DeckRemaining int
	Discards      int

	// Result of the previous round, with every hand shown.
	LastHands  []Reveal
	LastResult *Settlement
}

// Snapshot returns a deep copy of the table as seen by viewer (a seat index
// or Omniscient).
func (g *Game) Snapshot(viewer int) Snapshot {
	snap := Snapshot{
		Variant:       g.cfg.Variant,
		MaxSeats:      g.cfg.MaxSeats,
		Ante:          g.cfg.Ante,
		MaxBet:        g.cfg.MaxBet,
		MaxRaises:     g.cfg.MaxRaises,
		MaxCards:      g.cfg.MaxCards,
		State:         g.State(),
		Seats:         make([]SeatSnapshot, len(g.seats)),
		DeckRemaining: g.deck.Remaining(),
		Discards:      g.discards.Count(),
	}
	if r := g.round; r != nil {
		snap.Round = &RoundSnapshot{
			Number:     r.Number,
			Status:     r.Status,
			Dealer:     r.Dealer,
			Turn:       r.Turn,
			Pot:        r.Pot,
			CurrentBet: r.CurrentBet,
			Raises:     r.raises,
		}
	}
	for i, s := range g.seats {
		ss := SeatSnapshot{
			Index:     s.Index,
			PlayerID:  s.PlayerID,
			Name:      s.Name,
			NPC:       s.NPC,
			Status:    s.Status,
			Chips:     s.Chips,
			Committed: s.Committed,
			Dealt:     s.Dealt,
			Up:        s.Hand.Up.Clone(),
		}
		if viewer == Omniscient || viewer == i {
			ss.Down = s.Hand.Down.Clone()
			if s.Dealt {
				v := s.Hand.Value()
				ss.Value = &v
			}
		} else if n := s.Hand.Down.Count(); n > 0 {
			ss.Down = make([]card.Card, n)
			for k := range ss.Down {
				ss.Down[k] = card.CardRear
			}
		}
		snap.Seats[i] = ss
	}
	for _, rv := range g.lastHand {
		snap.LastHands = append(snap.LastHands, Reveal{
			Seat:  rv.Seat,
			Cards: append([]card.Card(nil), rv.Cards...),
			Value: rv.Value,
		})
	}
	if g.lastWin != nil {
		res := *g.lastWin
		res.Winners7 = append([]int(nil), res.Winners7...)
		res.Winners27 = append([]int(nil), res.Winners27...)
		res.Payouts = append([]Payout(nil), res.Payouts...)
		snap.LastResult = &res
	}
	return snap
}

// SeatView returns the viewer's own seat from a snapshot, if any.
func (s Snapshot) SeatView(seat int) (SeatSnapshot, bool) {
	if seat < 0 || seat >= len(s.Seats) {
		return SeatSnapshot{}, false
	}
	return s.Seats[seat], true
}
