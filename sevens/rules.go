package sevens

import (
	"fmt"

	"sevens-lite/card"
)

// Points counts in half-point units so face cards (worth one half) stay integral.
type Points int

const (
	HalfPoint Points = 1
	OnePoint  Points = 2

	Target7  Points = 7 * OnePoint
	Target27 Points = 27 * OnePoint

	// aceBonus lifts an ace from 1 to 11.
	aceBonus Points = 10 * OnePoint
)

func (p Points) String() string {
	if p%2 == 0 {
		return fmt.Sprintf("%d", p/2)
	}
	if p < 0 {
		return fmt.Sprintf("-%d.5", -p/2)
	}
	return fmt.Sprintf("%d.5", p/2)
}

func (p Points) Float64() float64 {
	return float64(p) / 2
}

// CardPoints is the low value of a card: aces count 1, J/Q/K one half.
func CardPoints(c card.Card) Points {
	switch {
	case !c.Valid():
		return 0
	case c.IsAce():
		return OnePoint
	case c.IsFace():
		return HalfPoint
	default:
		return Points(c.Rank()) * OnePoint
	}
}

// HandValue is a hand evaluated against both targets. A bust total is the
// all-aces-low sum.
type HandValue struct {
	Total7  Points
	Bust7   bool
	Total27 Points
	Bust27  bool
}

// Bust reports a hand over both targets.
func (v HandValue) Bust() bool {
	return v.Bust7 && v.Bust27
}

// Distance is the gap to the nearer target the hand does not exceed.
func (v HandValue) Distance() (Points, bool) {
	d, ok := Points(0), false
	if !v.Bust7 {
		d, ok = Target7-v.Total7, true
	}
	if !v.Bust27 {
		if d27 := Target27 - v.Total27; !ok || d27 < d {
			d, ok = d27, true
		}
	}
	return d, ok
}

func (v HandValue) String() string {
	s7, s27 := v.Total7.String(), v.Total27.String()
	if v.Bust7 {
		s7 += "!"
	}
	if v.Bust27 {
		s27 += "!"
	}
	return s7 + "/" + s27
}

// Evaluate values cards for both targets. For each target every ace starts at
// 1 and aces are promoted to 11 while the total stays within the target.
func Evaluate(cards []card.Card) HandValue {
	var base Points
	aces := 0
	for _, c := range cards {
		if c.IsAce() && c.Valid() {
			aces++
		}
		base += CardPoints(c)
	}
	var v HandValue
	v.Total7, v.Bust7 = bestWithin(base, aces, Target7)
	v.Total27, v.Bust27 = bestWithin(base, aces, Target27)
	return v
}

func bestWithin(base Points, aces int, target Points) (Points, bool) {
	if base > target {
		return base, true
	}
	total := base
	for i := 0; i < aces && total+aceBonus <= target; i++ {
		total += aceBonus
	}
	return total, false
}

type Ordering int

const (
	Loss Ordering = -1
	Tie  Ordering = 0
	Win  Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Loss:
		return "loss"
	case Win:
		return "win"
	}
	return "tie"
}

// CompareValues ranks a against b: a hand that beats neither target loses to
// any hand that does, otherwise the nearer distance wins.
func CompareValues(a, b HandValue) Ordering {
	da, okA := a.Distance()
	db, okB := b.Distance()
	switch {
	case !okA && !okB:
		return Tie
	case !okA:
		return Loss
	case !okB:
		return Win
	case da < db:
		return Win
	case da > db:
		return Loss
	}
	return Tie
}

func CompareHands(a, b []card.Card) Ordering {
	return CompareValues(Evaluate(a), Evaluate(b))
}
