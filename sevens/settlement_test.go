package sevens

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"sevens-lite/card"
)

func contender(seat int, hand string) Contender {
	return Contender{Seat: seat, Value: Evaluate(card.MustParseList(hand))}
}

func TestSettle_SplitsBetweenTargets(t *testing.T) {
	res := Settle(100, []Contender{
		contender(0, "3h 4c"),    // 7
		contender(1, "Th 9c 8d"), // 27
		contender(2, "5h 5c"),    // 10
	})
	assert.Equal(t, []int{0}, res.Winners7)
	assert.Equal(t, []int{1}, res.Winners27)
	assert.Equal(t, []Payout{{Seat: 0, Amount: 50}, {Seat: 1, Amount: 50}}, res.Payouts)
	assert.False(t, res.Forfeit)
}

func TestSettle_OddPotFavoursTwentySevenHalf(t *testing.T) {
	res := Settle(101, []Contender{contender(0, "3h 4c"), contender(1, "Th 9c 8d")})
	assert.Equal(t, int64(50), res.Won(0))
	assert.Equal(t, int64(51), res.Won(1))
}

func TestSettle_SameHandTakesBothHalves(t *testing.T) {
	// 6.5 is nearest to 7 and, with nothing else under 27, also nearest to 27.
	res := Settle(40, []Contender{contender(2, "6h Kc"), contender(5, "Th 9c 9d")})
	assert.Equal(t, []Payout{{Seat: 2, Amount: 40}}, res.Payouts)
}

func TestSettle_UnclaimedSevenRollsOver(t *testing.T) {
	res := Settle(90, []Contender{contender(0, "Th 8c"), contender(1, "Th 9c 5d")})
	assert.Empty(t, res.Winners7)
	assert.Equal(t, []int{1}, res.Winners27)
	assert.Equal(t, []Payout{{Seat: 1, Amount: 90}}, res.Payouts)
}

func TestSettle_TieSplitsOddChipToEarliestSeat(t *testing.T) {
	res := Settle(51, []Contender{
		contender(4, "3h 4c"),
		contender(1, "2h 5c"),
	})
	assert.Equal(t, []int{1, 4}, res.Winners7)
	// pot7 25 -> 13/12, pot27 26 -> 13/13
	assert.Equal(t, []Payout{{Seat: 1, Amount: 26}, {Seat: 4, Amount: 25}}, res.Payouts)
}

func TestSettle_EverybodyBustShares(t *testing.T) {
	res := Settle(101, []Contender{contender(3, "Th 9c 9d"), contender(0, "Tc Ts Td")})
	assert.Empty(t, res.Winners7)
	assert.Empty(t, res.Winners27)
	assert.Equal(t, []Payout{{Seat: 0, Amount: 51}, {Seat: 3, Amount: 50}}, res.Payouts)
}

func TestSettle_SingleContenderForfeit(t *testing.T) {
	res := Settle(30, []Contender{contender(6, "Th 9c 9d")})
	assert.True(t, res.Forfeit)
	assert.Equal(t, []Payout{{Seat: 6, Amount: 30}}, res.Payouts)
}

func TestSettle_PayoutsSumToPot(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 300; i++ {
		d := NewDeck(rng)
		n := 2 + rng.Intn(6)
		cs := make([]Contender, 0, n)
		for seat := 0; seat < n; seat++ {
			var hand []card.Card
			for k := 0; k < 2+rng.Intn(4); k++ {
				c, _ := d.Draw()
				hand = append(hand, c)
			}
			cs = append(cs, Contender{Seat: seat, Value: Evaluate(hand)})
		}
		pot := rng.Int63n(1000)
		res := Settle(pot, cs)
		var sum int64
		for _, p := range res.Payouts {
			sum += p.Amount
		}
		assert.Equal(t, pot, sum)
	}
}
