package npc

import (
	"sevens-lite/card"
	"sevens-lite/sevens"
)

// GameView is a read-only projection of the table visible to the NPC.
type GameView struct {
	Status     sevens.RoundStatus
	Up         []card.Card
	Down       []card.Card
	Value      sevens.HandValue
	Pot        int64
	MyStack    int64
	MaxBet     int64
	MaxCards   int
	CardsLeft  int
	Contenders int

	// Betting only. ToCall is owed to stay in; RaiseRoom is the most this
	// seat may put in now.
	ToCall    int64
	RaiseRoom int64
	CanRaise  bool
}

// Decision is what a BrainDecider returns.
type Decision struct {
	Action sevens.ActionKind
	Amount int64
}

func (d Decision) ToAction() sevens.Action {
	return sevens.Action{Kind: d.Action, Amount: d.Amount}
}

// BrainDecider is the core interface all NPC types implement.
type BrainDecider interface {
	// Decide is called when it's the NPC's turn.
	Decide(view GameView) Decision
	// Name returns a human-readable identifier for debugging.
	Name() string
}
