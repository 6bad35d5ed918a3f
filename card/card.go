package card

import (
	"fmt"
	"strings"
)

// Card is a single playing card packed into one byte.
//
// Encoding:
//   - high nibble: suit (0 Spade, 1 Heart, 2 Club, 3 Diamond)
//   - low nibble:  rank (1 A, 2..9, 10 T, 11 J, 12 Q, 13 K)
type Card byte

func New(s Suit, rank byte) Card {
	return Card(byte(s)<<4 | rank&0x0F)
}

func (c Card) String() string {
	if c == CardInvalid {
		return "Invalid"
	}
	if c == CardRear {
		return "Rear"
	}

	rankStr := ""
	switch rank := c.Rank(); rank {
	case 1:
		rankStr = "A"
	case 10:
		rankStr = "T"
	case 11:
		rankStr = "J"
	case 12:
		rankStr = "Q"
	case 13:
		rankStr = "K"
	default:
		rankStr = fmt.Sprintf("%d", rank)
	}
	return rankStr + c.Suit().Letter()
}

// Rank returns 1-13 (A=1, K=13), 0 for Invalid/Rear.
func (c Card) Rank() byte {
	if c == CardInvalid || c == CardRear {
		return 0
	}
	return byte(c & 0x0F)
}

func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == 1
}

// IsFace reports J, Q or K.
func (c Card) IsFace() bool {
	r := c.Rank()
	return r >= 11 && r <= 13
}

// Valid reports whether c is one of the 52 real cards.
func (c Card) Valid() bool {
	r := c.Rank()
	return r >= 1 && r <= 13 && c.Suit() <= Diamond
}

// Parse converts strings like "As", "Td", "10h" to a Card.
func Parse(cardStr string) (Card, error) {
	if len(cardStr) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %s", cardStr)
	}

	var suit Suit
	switch suitChar := cardStr[len(cardStr)-1]; suitChar {
	case 's', 'S':
		suit = Spade
	case 'h', 'H':
		suit = Heart
	case 'c', 'C':
		suit = Club
	case 'd', 'D':
		suit = Diamond
	default:
		return CardInvalid, fmt.Errorf("invalid suit: %c", suitChar)
	}

	var rank byte
	switch rankStr := strings.ToUpper(cardStr[:len(cardStr)-1]); rankStr {
	case "A":
		rank = 1
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = rankStr[0] - '0'
	case "T", "10":
		rank = 10
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	default:
		return CardInvalid, fmt.Errorf("invalid rank: %s", rankStr)
	}
	return New(suit, rank), nil
}

// MustParseList parses space separated cards and panics on error. Test helper.
func MustParseList(s string) []Card {
	fields := strings.Fields(s)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := Parse(f)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// MarshalText writes the short form ("As"), "??" for CardRear and "" for CardInvalid.
func (c Card) MarshalText() ([]byte, error) {
	switch c {
	case CardInvalid:
		return []byte{}, nil
	case CardRear:
		return []byte("??"), nil
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case "":
		*c = CardInvalid
	case "??":
		*c = CardRear
	default:
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*c = parsed
	}
	return nil
}
