package sevens

import (
	"fmt"

	"sevens-lite/card"
)

type EventType byte

const (
	EventSeatTaken EventType = iota + 1
	EventSeatVacated
	EventSeatDisconnected
	EventRoundStarted
	EventAnteCollected
	EventCardDealt
	EventBetPlaced
	EventPhaseChanged
	EventTurnAdvanced
	EventPlayerStood
	EventPlayerFolded
	EventPlayerBusted
	EventHandsRevealed
	EventRoundResolved
)

var EventTypeDictionary = map[EventType]string{
	EventSeatTaken:        "SeatTaken",
	EventSeatVacated:      "SeatVacated",
	EventSeatDisconnected: "SeatDisconnected",
	EventRoundStarted:     "RoundStarted",
	EventAnteCollected:    "AnteCollected",
	EventCardDealt:        "CardDealt",
	EventBetPlaced:        "BetPlaced",
	EventPhaseChanged:     "PhaseChanged",
	EventTurnAdvanced:     "TurnAdvanced",
	EventPlayerStood:      "PlayerStood",
	EventPlayerFolded:     "PlayerFolded",
	EventPlayerBusted:     "PlayerBusted",
	EventHandsRevealed:    "HandsRevealed",
	EventRoundResolved:    "RoundResolved",
}

func (t EventType) String() string {
	if v, ok := EventTypeDictionary[t]; ok {
		return v
	}
	return fmt.Sprintf("EventType(%d)", t)
}

// Reveal is one seat's hand shown at resolution.
type Reveal struct {
	Seat  int
	Cards []card.Card
	Value HandValue
}

// Event is one state change produced by a Game operation. Fields not used by
// Type are zero.
type Event struct {
	Type  EventType
	Round uint32
	Seat  int

	// SeatTaken
	PlayerID string
	Name     string
	NPC      bool

	// CardDealt
	Card   card.Card
	FaceUp bool

	// AnteCollected, BetPlaced, SeatTaken (chips)
	Amount int64
	Pot    int64

	// PhaseChanged
	Status RoundStatus

	Reveals []Reveal
	Result  *Settlement
}

// Private reports whether the event carries a card only its seat may see.
func (e Event) Private() bool {
	return e.Type == EventCardDealt && !e.FaceUp
}

// Redacted is the view of e for anyone but the subject seat.
func (e Event) Redacted() Event {
	if e.Private() {
		e.Card = card.CardRear
	}
	return e
}

// ViewFor returns e as seen from viewer.
func (e Event) ViewFor(viewer int) Event {
	if viewer == Omniscient || viewer == e.Seat {
		return e
	}
	return e.Redacted()
}

func (e Event) String() string {
	switch e.Type {
	case EventCardDealt:
		return fmt.Sprintf("%s seat=%d card=%s up=%v", e.Type, e.Seat, e.Card, e.FaceUp)
	case EventAnteCollected, EventBetPlaced:
		return fmt.Sprintf("%s seat=%d amount=%d pot=%d", e.Type, e.Seat, e.Amount, e.Pot)
	case EventPhaseChanged:
		return fmt.Sprintf("%s %s", e.Type, e.Status)
	}
	return fmt.Sprintf("%s seat=%d", e.Type, e.Seat)
}
