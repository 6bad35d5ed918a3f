package sevens

import (
	"math/rand"

	"sevens-lite/card"
)

// Round is the state of one play from deal to resolution.
type Round struct {
	Number uint32
	Status RoundStatus
	Dealer int
	Turn   int
	Pot    int64

	// CurrentBet is the commitment every seat still betting has to match.
	CurrentBet int64

	// betActed marks seats that already bet or folded since the last raise.
	betActed []bool
	raises   int
}

// Game is the authoritative state of one 7/27 table. It is not safe for
// concurrent use; a single owner serializes every call.
//
// Every mutating method validates first and only then commits, so a returned
// error means nothing changed.
type Game struct {
	cfg Config
	rng *rand.Rand

	seats    []*Seat
	deck     *Deck
	discards card.CardList

	round    *Round
	roundNo  uint32
	dealer   int
	lastHand []Reveal
	lastWin  *Settlement
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := newRand(cfg.Seed)
	g := &Game{
		cfg:    cfg,
		rng:    rng,
		seats:  make([]*Seat, cfg.MaxSeats),
		deck:   NewDeck(rng),
		dealer: InvalidSeat,
	}
	for i := range g.seats {
		g.seats[i] = &Seat{Index: i}
	}
	return g, nil
}

func (g *Game) Config() Config { return g.cfg }

func (g *Game) State() TableState {
	if g.round == nil {
		return StateWaiting
	}
	return stateOf(g.round.Status)
}

// RoundStatus is RoundNone between rounds.
func (g *Game) RoundStatus() RoundStatus {
	if g.round == nil {
		return RoundNone
	}
	return g.round.Status
}

func (g *Game) InRound() bool { return g.round != nil }

// Turn returns the seat holding the turn, or InvalidSeat.
func (g *Game) Turn() int {
	if g.round == nil {
		return InvalidSeat
	}
	return g.round.Turn
}

// SeatOf returns the seat index of playerID, or InvalidSeat.
func (g *Game) SeatOf(playerID string) int {
	for _, s := range g.seats {
		if s.Occupied() && s.PlayerID == playerID {
			return s.Index
		}
	}
	return InvalidSeat
}

// SeatedCount counts occupied seats, disconnected ones included.
func (g *Game) SeatedCount() int {
	n := 0
	for _, s := range g.seats {
		if s.Occupied() {
			n++
		}
	}
	return n
}

// ReadyCount counts seats that could be dealt into a new round.
func (g *Game) ReadyCount() int {
	return len(g.eligibleForRound())
}

// SeatPlayer seats p. A negative seat picks the first empty one.
func (g *Game) SeatPlayer(seat int, p Player) ([]Event, error) {
	if p.ID == "" {
		return nil, actionErr(ErrIllegalAction, "empty player id")
	}
	if g.SeatOf(p.ID) != InvalidSeat {
		return nil, actionErr(ErrAlreadySeated, "player %s", p.ID)
	}
	if g.SeatedCount() >= g.cfg.MaxSeats {
		return nil, capacityErr(ErrTableFull, "%d seats taken", g.cfg.MaxSeats)
	}
	if seat < 0 {
		seat = g.firstEmpty()
	} else if seat >= len(g.seats) {
		return nil, actionErr(ErrInvalidSeat, "seat %d", seat)
	} else if g.seats[seat].Occupied() {
		return nil, actionErr(ErrSeatOccupied, "seat %d", seat)
	}

	s := g.seats[seat]
	s.PlayerID = p.ID
	s.Name = p.Name
	s.NPC = p.NPC
	s.Status = SeatSeated
	s.Chips = g.cfg.StartingChips
	return []Event{{
		Type:     EventSeatTaken,
		Round:    g.roundNo,
		Seat:     seat,
		PlayerID: p.ID,
		Name:     p.Name,
		NPC:      p.NPC,
		Amount:   s.Chips,
	}}, nil
}

// StartRound begins a round. starter is the requesting seat, or InvalidSeat
// for system-initiated starts.
func (g *Game) StartRound(starter int) ([]Event, error) {
	if g.round != nil {
		return nil, actionErr(ErrRoundInProgress, "round %d is %s", g.round.Number, g.round.Status)
	}
	if starter != InvalidSeat {
		if starter < 0 || starter >= len(g.seats) || !g.seats[starter].Occupied() {
			return nil, actionErr(ErrInvalidSeat, "seat %d cannot start a round", starter)
		}
	}
	eligible := g.eligibleForRound()
	if len(eligible) < g.cfg.MinSeats {
		return nil, actionErr(ErrNotEnoughPlayers, "%d ready, %d required", len(eligible), g.cfg.MinSeats)
	}

	g.roundNo++
	dealer := g.nextOf(g.dealer, eligible)
	g.dealer = dealer
	r := &Round{
		Number:     g.roundNo,
		Status:     RoundDealing,
		Dealer:     dealer,
		Turn:       InvalidSeat,
		CurrentBet: g.cfg.Ante,
		betActed:   make([]bool, len(g.seats)),
	}
	g.round = r
	g.lastHand = nil
	g.lastWin = nil

	g.deck.Reshuffle(g.rng)
	g.discards = nil

	events := []Event{{Type: EventRoundStarted, Round: r.Number, Seat: dealer}}

	order := g.orderAfter(dealer)
	for _, i := range order {
		s := g.seats[i]
		if !containsInt(eligible, i) {
			continue
		}
		s.Dealt = true
		s.Hand = Hand{}
		s.Committed = 0
		if g.cfg.Ante > 0 {
			s.commit(g.cfg.Ante)
			r.Pot += g.cfg.Ante
			events = append(events, Event{Type: EventAnteCollected, Round: r.Number, Seat: i, Amount: g.cfg.Ante, Pot: r.Pot})
		}
	}

	// One card up to everybody, then one card down. At most 16 cards for 8
	// seats, so the fresh deck cannot run dry here.
	for _, faceUp := range []bool{true, false} {
		for _, i := range order {
			s := g.seats[i]
			if !s.Dealt {
				continue
			}
			c, _ := g.deck.Draw()
			if faceUp {
				s.Hand.Up.Add(c)
			} else {
				s.Hand.Down.Add(c)
			}
			events = append(events, Event{Type: EventCardDealt, Round: r.Number, Seat: i, Card: c, FaceUp: faceUp})
		}
	}

	if g.cfg.MaxBet > 0 {
		r.Status = RoundBetting
	} else {
		r.Status = RoundInProgress
	}
	events = append(events, Event{Type: EventPhaseChanged, Round: r.Number, Seat: InvalidSeat, Status: r.Status})
	events = append(events, g.setTurn(g.nextEligible(dealer))...)
	return events, nil
}

// ApplyAction validates and applies a for seat.
func (g *Game) ApplyAction(seat int, a Action) ([]Event, error) {
	r := g.round
	if r == nil || (r.Status != RoundBetting && r.Status != RoundInProgress) {
		return nil, actionErr(ErrTableNotInProgress, "no round is accepting actions")
	}
	if seat < 0 || seat >= len(g.seats) {
		return nil, actionErr(ErrInvalidSeat, "seat %d", seat)
	}
	if seat != r.Turn {
		return nil, actionErr(ErrNotYourTurn, "seat %d acted, turn is seat %d", seat, r.Turn)
	}
	s := g.seats[seat]

	var events []Event
	switch r.Status {
	case RoundBetting:
		switch a.Kind {
		case ActionBet:
			toCall := r.CurrentBet - s.Committed
			limit := g.cfg.Ante + g.cfg.MaxBet - s.Committed
			switch {
			case a.Amount < 0 || a.Amount > limit:
				return nil, actionErr(ErrIllegalAction, "bet %d outside 0..%d", a.Amount, limit)
			case a.Amount < toCall:
				return nil, actionErr(ErrIllegalAction, "bet %d does not call %d", a.Amount, toCall)
			case a.Amount > s.Chips:
				return nil, actionErr(ErrInsufficientStake, "bet %d with %d chips", a.Amount, s.Chips)
			case a.Amount > toCall && g.cfg.MaxRaises > 0 && r.raises >= g.cfg.MaxRaises:
				return nil, actionErr(ErrIllegalAction, "raise cap of %d reached", g.cfg.MaxRaises)
			}
			s.commit(a.Amount)
			r.Pot += a.Amount
			if a.Amount > toCall {
				// A raise reopens the action to everybody else.
				r.CurrentBet = s.Committed
				r.raises++
				for i := range r.betActed {
					r.betActed[i] = false
				}
			}
			r.betActed[seat] = true
			events = append(events, Event{Type: EventBetPlaced, Round: r.Number, Seat: seat, Amount: a.Amount, Pot: r.Pot})
		case ActionFold:
			r.betActed[seat] = true
			events = append(events, g.fold(s)...)
		default:
			return nil, actionErr(ErrIllegalAction, "%s during betting", a.Kind)
		}
	case RoundInProgress:
		switch a.Kind {
		case ActionHit:
			if s.Hand.Count() >= g.cfg.MaxCards {
				return nil, actionErr(ErrHandFull, "%d cards", s.Hand.Count())
			}
			if g.deck.Remaining() == 0 {
				return nil, capacityErr(ErrEmptyDeck, "round %d", r.Number)
			}
			c, _ := g.deck.Draw()
			s.Hand.Down.Add(c)
			events = append(events, Event{Type: EventCardDealt, Round: r.Number, Seat: seat, Card: c})
			if s.Hand.Value().Bust() {
				s.Status = SeatBusted
				events = append(events, Event{Type: EventPlayerBusted, Round: r.Number, Seat: seat})
			}
		case ActionStand:
			s.Status = SeatStood
			events = append(events, Event{Type: EventPlayerStood, Round: r.Number, Seat: seat})
		case ActionFold:
			events = append(events, g.fold(s)...)
		default:
			return nil, actionErr(ErrIllegalAction, "%s during play", a.Kind)
		}
	}

	return append(events, g.advance(seat)...), nil
}

// RemoveSeat takes a player away from the table. A seat dealt into the
// running round turns disconnected and keeps its stake in the pot until the
// round ends.
func (g *Game) RemoveSeat(seat int) []Event {
	if seat < 0 || seat >= len(g.seats) || !g.seats[seat].Occupied() {
		return nil
	}
	s := g.seats[seat]
	r := g.round
	if r == nil || !s.Dealt {
		id := s.PlayerID
		s.vacate()
		return []Event{{Type: EventSeatVacated, Round: g.roundNo, Seat: seat, PlayerID: id}}
	}
	if s.Status == SeatDisconnected {
		return nil
	}

	s.Status = SeatDisconnected
	events := []Event{{Type: EventSeatDisconnected, Round: r.Number, Seat: seat, PlayerID: s.PlayerID}}
	if r.Turn == seat {
		return append(events, g.advance(seat)...)
	}
	if g.contenderCount() < 2 {
		return append(events, g.resolve()...)
	}
	return events
}

// TimeoutAction is the default action for the seat holding the turn: a
// check when nothing is owed, a fold facing a bet, a stand during play.
func (g *Game) TimeoutAction() (int, Action, bool) {
	r := g.round
	if r == nil || r.Turn == InvalidSeat {
		return InvalidSeat, Action{}, false
	}
	switch r.Status {
	case RoundBetting:
		if g.seats[r.Turn].Committed < r.CurrentBet {
			return r.Turn, Fold(), true
		}
		return r.Turn, Bet(0), true
	case RoundInProgress:
		return r.Turn, Stand(), true
	}
	return InvalidSeat, Action{}, false
}

// LastResult is the settlement of the most recent completed round.
func (g *Game) LastResult() *Settlement {
	return g.lastWin
}

func (g *Game) fold(s *Seat) []Event {
	s.Status = SeatFolded
	return []Event{{Type: EventPlayerFolded, Round: g.round.Number, Seat: s.Index}}
}

// advance moves the turn on from seat, ending the phase when nobody is left.
func (g *Game) advance(from int) []Event {
	if g.contenderCount() < 2 {
		return g.resolve()
	}
	if next := g.nextEligible(from); next != InvalidSeat {
		return g.setTurn(next)
	}
	return g.endPhase()
}

func (g *Game) endPhase() []Event {
	r := g.round
	if r.Status != RoundBetting {
		return g.resolve()
	}
	r.Status = RoundInProgress
	events := []Event{{Type: EventPhaseChanged, Round: r.Number, Seat: InvalidSeat, Status: r.Status}}
	next := g.nextEligible(r.Dealer)
	if next == InvalidSeat {
		return append(events, g.resolve()...)
	}
	return append(events, g.setTurn(next)...)
}

func (g *Game) setTurn(seat int) []Event {
	r := g.round
	if r.Turn != InvalidSeat {
		if prev := g.seats[r.Turn]; prev.Status == SeatActiveTurn {
			prev.Status = SeatSeated
		}
	}
	r.Turn = seat
	if seat == InvalidSeat {
		return nil
	}
	g.seats[seat].Status = SeatActiveTurn
	return []Event{{Type: EventTurnAdvanced, Round: r.Number, Seat: seat}}
}

// resolve reveals, settles and closes the round.
func (g *Game) resolve() []Event {
	r := g.round
	g.setTurn(InvalidSeat)
	r.Status = RoundResolving
	events := []Event{{Type: EventPhaseChanged, Round: r.Number, Seat: InvalidSeat, Status: r.Status}}

	var reveals []Reveal
	var contenders, dealt []Contender
	for _, s := range g.seats {
		if !s.Dealt {
			continue
		}
		v := s.Hand.Value()
		reveals = append(reveals, Reveal{Seat: s.Index, Cards: s.Hand.Cards(), Value: v})
		dealt = append(dealt, Contender{Seat: s.Index, Value: v})
		if s.contending() {
			contenders = append(contenders, Contender{Seat: s.Index, Value: v})
		}
	}
	if len(contenders) == 0 {
		contenders = dealt
	}
	events = append(events, Event{Type: EventHandsRevealed, Round: r.Number, Seat: InvalidSeat, Reveals: reveals})

	res := Settle(r.Pot, contenders)
	for _, p := range res.Payouts {
		g.seats[p.Seat].Chips += p.Amount
	}
	r.Pot = 0
	events = append(events, Event{Type: EventRoundResolved, Round: r.Number, Seat: InvalidSeat, Pot: res.Pot, Result: &res})

	for _, s := range g.seats {
		if !s.Dealt {
			continue
		}
		g.discards.Add(s.Hand.Cards()...)
		s.Hand = Hand{}
		s.Committed = 0
		s.Dealt = false
		switch s.Status {
		case SeatDisconnected:
			id := s.PlayerID
			s.vacate()
			events = append(events, Event{Type: EventSeatVacated, Round: r.Number, Seat: s.Index, PlayerID: id})
		default:
			s.Status = SeatSeated
		}
	}

	r.Status = RoundComplete
	events = append(events, Event{Type: EventPhaseChanged, Round: r.Number, Seat: InvalidSeat, Status: r.Status})
	g.lastHand = reveals
	g.lastWin = &res
	g.round = nil
	return events
}

func (g *Game) contenderCount() int {
	n := 0
	for _, s := range g.seats {
		if s.contending() {
			n++
		}
	}
	return n
}

// nextEligible scans seats after from in seating order, wrapping around to
// from itself last.
func (g *Game) nextEligible(from int) int {
	r := g.round
	for _, i := range g.orderAfter(from) {
		s := g.seats[i]
		if !s.canAct() {
			continue
		}
		if r.Status == RoundBetting && r.betActed[i] {
			continue
		}
		return i
	}
	return InvalidSeat
}

func (g *Game) eligibleForRound() []int {
	var out []int
	for _, s := range g.seats {
		if s.Status == SeatSeated && s.Chips >= g.cfg.Ante {
			out = append(out, s.Index)
		}
	}
	return out
}

func (g *Game) firstEmpty() int {
	for _, s := range g.seats {
		if !s.Occupied() {
			return s.Index
		}
	}
	return InvalidSeat
}

// orderAfter lists every seat index starting after from, ending with from.
// from may be InvalidSeat, in which case the order starts at seat 0.
func (g *Game) orderAfter(from int) []int {
	n := len(g.seats)
	out := make([]int, 0, n)
	for k := 1; k <= n; k++ {
		out = append(out, ((from+k)%n+n)%n)
	}
	return out
}

// nextOf picks the first member of set after from in seating order.
func (g *Game) nextOf(from int, set []int) int {
	for _, i := range g.orderAfter(from) {
		if containsInt(set, i) {
			return i
		}
	}
	return InvalidSeat
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
