package protocol

import (
	"sevens-lite/card"
	"sevens-lite/sevens"
)

// Card is a card byte that reads as "As" in JSON. Hidden cards are "??".
type Card = card.Card

// Cards marshals to a JSON array of card strings.
type Cards []card.Card

func (cs Cards) MarshalJSON() ([]byte, error) {
	out := make([]string, len(cs))
	for i, c := range cs {
		text, _ := c.MarshalText()
		out[i] = string(text)
	}
	return json.Marshal(out)
}

func (cs *Cards) UnmarshalJSON(data []byte) error {
	var in []string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in == nil {
		*cs = nil
		return nil
	}
	out := make(Cards, len(in))
	for i, s := range in {
		if err := out[i].UnmarshalText([]byte(s)); err != nil {
			return err
		}
	}
	*cs = out
	return nil
}

// HandValue totals are in half points.
type HandValue struct {
	Total7  int32 `json:"total7"`
	Bust7   bool  `json:"bust7,omitempty"`
	Total27 int32 `json:"total27"`
	Bust27  bool  `json:"bust27,omitempty"`
}

type SeatState struct {
	Index     int32             `json:"index"`
	PlayerID  string            `json:"player_id,omitempty"`
	Name      string            `json:"name,omitempty"`
	NPC       bool              `json:"npc,omitempty"`
	Status    sevens.SeatStatus `json:"status"`
	Chips     int64             `json:"chips"`
	Committed int64             `json:"committed,omitempty"`
	Dealt     bool              `json:"dealt,omitempty"`
	Up        Cards             `json:"up,omitempty"`
	Down      Cards             `json:"down,omitempty"`
	Value     *HandValue        `json:"value,omitempty"`
}

type RoundState struct {
	Number     uint32             `json:"number"`
	Status     sevens.RoundStatus `json:"status"`
	Dealer     int32              `json:"dealer"`
	Turn       int32              `json:"turn"`
	Pot        int64              `json:"pot"`
	CurrentBet int64              `json:"current_bet,omitempty"`
}

type Reveal struct {
	Seat  int32     `json:"seat"`
	Cards Cards     `json:"cards"`
	Value HandValue `json:"value"`
}

type Payout struct {
	Seat   int32 `json:"seat"`
	Amount int64 `json:"amount"`
}

type Result struct {
	Pot       int64    `json:"pot"`
	Forfeit   bool     `json:"forfeit,omitempty"`
	Winners7  []int32  `json:"winners7,omitempty"`
	Winners27 []int32  `json:"winners27,omitempty"`
	Payouts   []Payout `json:"payouts,omitempty"`
}

// TableSnapshot is the full table as seen by one recipient.
type TableSnapshot struct {
	Variant       uint32            `json:"variant"`
	MaxSeats      int32             `json:"max_seats"`
	Ante          int64             `json:"ante"`
	MaxBet        int64             `json:"max_bet"`
	MaxCards      int32             `json:"max_cards"`
	State         sevens.TableState `json:"state"`
	Round         *RoundState       `json:"round,omitempty"`
	Seats         []SeatState       `json:"seats"`
	DeckRemaining int32             `json:"deck_remaining"`
	LastHands     []Reveal          `json:"last_hands,omitempty"`
	LastResult    *Result           `json:"last_result,omitempty"`
}

type TableInfo struct {
	ID       string            `json:"id"`
	Seated   int32             `json:"seated"`
	MaxSeats int32             `json:"max_seats"`
	State    sevens.TableState `json:"state"`
	Round    uint32            `json:"round,omitempty"`
}
