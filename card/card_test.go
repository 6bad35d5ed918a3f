package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, c := range Standard() {
		parsed, err := Parse(c.String())
		require.NoError(t, err, c.String())
		assert.Equal(t, c, parsed)
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, s := range []string{"", "A", "Ax", "1s", "Zs", "11h"} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestStandard_Unique(t *testing.T) {
	seen := make(map[Card]bool)
	for _, c := range Standard() {
		assert.True(t, c.Valid(), c.String())
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, DeckSize)
}

func TestCard_Face(t *testing.T) {
	assert.True(t, New(Heart, 11).IsFace())
	assert.True(t, New(Club, 13).IsFace())
	assert.False(t, New(Club, 10).IsFace())
	assert.True(t, New(Spade, 1).IsAce())
	assert.False(t, CardRear.Valid())
	assert.Equal(t, byte(0), CardRear.Rank())
}

func TestCardList_PopFront(t *testing.T) {
	var l CardList
	l.Init(MustParseList("As 2h 3c"))
	assert.Equal(t, "As", l.PopFront().String())
	assert.Equal(t, 2, l.Count())
	cards, ok := l.PopCards(3)
	assert.False(t, ok)
	assert.Nil(t, cards)
	cards, ok = l.PopCards(2)
	assert.True(t, ok)
	assert.Equal(t, MustParseList("2h 3c"), cards)
	assert.Equal(t, CardInvalid, l.PopFront())
}

func TestCard_TextRoundTrip(t *testing.T) {
	for _, c := range append(Standard(), CardRear, CardInvalid) {
		text, err := c.MarshalText()
		require.NoError(t, err)
		var back Card
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}
	var c Card
	assert.Error(t, c.UnmarshalText([]byte("Zz")))
}
