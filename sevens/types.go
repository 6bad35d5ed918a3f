package sevens

import "fmt"

// InvalidSeat marks "no seat" for turn pointers and system-originated requests.
const InvalidSeat = -1

// Omniscient is a Snapshot viewer that sees every hidden card.
const Omniscient = -2

// SeatStatus is the lifecycle state of one seat.
type SeatStatus byte

const (
	SeatEmpty SeatStatus = iota
	SeatSeated
	SeatActiveTurn
	SeatStood
	SeatBusted
	SeatFolded
	SeatDisconnected
)

var SeatStatusDictionary = map[SeatStatus]string{
	SeatEmpty:        "empty",
	SeatSeated:       "seated",
	SeatActiveTurn:   "active-turn",
	SeatStood:        "stood",
	SeatBusted:       "busted",
	SeatFolded:       "folded",
	SeatDisconnected: "disconnected",
}

func (s SeatStatus) String() string {
	if v, ok := SeatStatusDictionary[s]; ok {
		return v
	}
	return fmt.Sprintf("SeatStatus(%d)", s)
}

// RoundStatus is the phase of the running round. RoundNone means no round.
type RoundStatus byte

const (
	RoundNone RoundStatus = iota
	RoundDealing
	RoundBetting
	RoundInProgress
	RoundResolving
	RoundComplete
)

var RoundStatusDictionary = map[RoundStatus]string{
	RoundNone:       "none",
	RoundDealing:    "dealing",
	RoundBetting:    "betting",
	RoundInProgress: "in-progress",
	RoundResolving:  "resolving",
	RoundComplete:   "complete",
}

func (s RoundStatus) String() string {
	if v, ok := RoundStatusDictionary[s]; ok {
		return v
	}
	return fmt.Sprintf("RoundStatus(%d)", s)
}

// TableState is the coarse table lifecycle derived from the round status.
type TableState byte

const (
	StateWaiting TableState = iota
	StateDealing
	StateTurnLoop
	StateResolving
)

var TableStateDictionary = map[TableState]string{
	StateWaiting:   "waiting",
	StateDealing:   "dealing",
	StateTurnLoop:  "turn-loop",
	StateResolving: "resolving",
}

func (s TableState) String() string {
	if v, ok := TableStateDictionary[s]; ok {
		return v
	}
	return fmt.Sprintf("TableState(%d)", s)
}

func stateOf(status RoundStatus) TableState {
	switch status {
	case RoundDealing, RoundBetting:
		return StateDealing
	case RoundInProgress:
		return StateTurnLoop
	case RoundResolving:
		return StateResolving
	default:
		return StateWaiting
	}
}

// ActionKind: 0-NONE 1-HIT 2-STAND 3-FOLD 4-BET
type ActionKind byte

const (
	ActionNone  ActionKind = 0
	ActionHit   ActionKind = 1
	ActionStand ActionKind = 2
	ActionFold  ActionKind = 3
	ActionBet   ActionKind = 4
)

var ActionKindDictionary = map[ActionKind]string{
	ActionNone:  "NONE",
	ActionHit:   "HIT",
	ActionStand: "STAND",
	ActionFold:  "FOLD",
	ActionBet:   "BET",
}

func (k ActionKind) String() string {
	if v, ok := ActionKindDictionary[k]; ok {
		return v
	}
	return fmt.Sprintf("ActionKind(%d)", k)
}

// Action is one player intent. Amount is only read for ActionBet.
type Action struct {
	Kind   ActionKind
	Amount int64
}

func Hit() Action             { return Action{Kind: ActionHit} }
func Stand() Action           { return Action{Kind: ActionStand} }
func Fold() Action            { return Action{Kind: ActionFold} }
func Bet(amount int64) Action { return Action{Kind: ActionBet, Amount: amount} }

// Player identifies whoever takes a seat.
type Player struct {
	ID   string
	Name string
	NPC  bool
}
