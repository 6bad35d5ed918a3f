package sevens

import "sort"

// Contender is a seat still holding a live hand at showdown.
type Contender struct {
	Seat  int
	Value HandValue
}

type Payout struct {
	Seat   int
	Amount int64
}

// Settlement is the outcome of one round.
type Settlement struct {
	Pot       int64
	Forfeit   bool
	Winners7  []int
	Winners27 []int
	Payouts   []Payout
}

// Won returns what seat collected.
func (s *Settlement) Won(seat int) int64 {
	if s == nil {
		return 0
	}
	var total int64
	for _, p := range s.Payouts {
		if p.Seat == seat {
			total += p.Amount
		}
	}
	return total
}

// Settle splits pot between the hands closest to 7 and closest to 27. A half
// nobody can claim joins the other half; if every hand is over both targets
// the pot is shared. Odd chips go to the lowest seat. Payouts always sum to pot.
func Settle(pot int64, contenders []Contender) Settlement {
	cs := append([]Contender(nil), contenders...)
	sort.Slice(cs, func(i, j int) bool { return cs[i].Seat < cs[j].Seat })

	res := Settlement{Pot: pot}
	switch len(cs) {
	case 0:
		return res
	case 1:
		res.Forfeit = true
		if pot > 0 {
			res.Payouts = []Payout{{Seat: cs[0].Seat, Amount: pot}}
		}
		return res
	}

	res.Winners7 = nearest(cs, func(v HandValue) (Points, bool) { return Target7 - v.Total7, !v.Bust7 })
	res.Winners27 = nearest(cs, func(v HandValue) (Points, bool) { return Target27 - v.Total27, !v.Bust27 })

	pot7 := pot / 2
	pot27 := pot - pot7
	if len(res.Winners7) == 0 {
		pot27 += pot7
		pot7 = 0
	}
	if len(res.Winners27) == 0 {
		pot7 += pot27
		pot27 = 0
	}

	won := make(map[int]int64)
	if len(res.Winners7) == 0 && len(res.Winners27) == 0 {
		all := make([]int, 0, len(cs))
		for _, c := range cs {
			all = append(all, c.Seat)
		}
		split(won, pot, all)
	} else {
		split(won, pot7, res.Winners7)
		split(won, pot27, res.Winners27)
	}

	for _, c := range cs {
		if amount := won[c.Seat]; amount > 0 {
			res.Payouts = append(res.Payouts, Payout{Seat: c.Seat, Amount: amount})
		}
	}
	return res
}

func nearest(cs []Contender, gap func(HandValue) (Points, bool)) []int {
	var best Points
	var seats []int
	for _, c := range cs {
		d, ok := gap(c.Value)
		if !ok {
			continue
		}
		switch {
		case len(seats) == 0 || d < best:
			best = d
			seats = []int{c.Seat}
		case d == best:
			seats = append(seats, c.Seat)
		}
	}
	return seats
}

// split assumes seats is sorted ascending.
func split(won map[int]int64, amount int64, seats []int) {
	if amount <= 0 || len(seats) == 0 {
		return
	}
	n := int64(len(seats))
	share, rem := amount/n, amount%n
	for i, seat := range seats {
		won[seat] += share
		if int64(i) < rem {
			won[seat]++
		}
	}
}
