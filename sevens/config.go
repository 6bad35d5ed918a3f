package sevens

import "fmt"

// Variant selects the rule set. Only 7/27 is implemented.
type Variant byte

const (
	VariantSevenTwentySeven Variant = 1
)

func (v Variant) String() string {
	if v == VariantSevenTwentySeven {
		return "7/27"
	}
	return fmt.Sprintf("Variant(%d)", v)
}

type Config struct {
	Variant Variant

	// Table
	MaxSeats int
	MinSeats int

	// Stakes
	Ante          int64
	MaxBet        int64 // per seat per round, ante excluded; 0 skips the betting phase
	StartingChips int64
	// Raises allowed per betting phase. 0 leaves only the MaxBet ceiling.
	MaxRaises     int

	// Cards a hand may hold, initial deal included.
	MaxCards int

	// RNG seed (0 => time-based)
	Seed int64
}

// DefaultConfig mirrors the classic home-game setup: seven seats, 1000 chips.
func DefaultConfig() Config {
	return Config{
		Variant:       VariantSevenTwentySeven,
		MaxSeats:      7,
		MinSeats:      2,
		Ante:          10,
		MaxBet:        100,
		StartingChips: 1000,
		MaxRaises:     3,
		MaxCards:      7,
	}
}

func (c Config) Validate() error {
	if c.Variant != VariantSevenTwentySeven {
		return fmt.Errorf("unsupported variant %s", c.Variant)
	}
	if c.MaxSeats < 2 || c.MaxSeats > 8 {
		return fmt.Errorf("MaxSeats must be within 2..8, got %d", c.MaxSeats)
	}
	if c.MinSeats < 2 {
		return fmt.Errorf("MinSeats must be >= 2")
	}
	if c.MinSeats > c.MaxSeats {
		return fmt.Errorf("MinSeats must be <= MaxSeats")
	}
	if c.Ante < 0 || c.MaxBet < 0 || c.StartingChips < 0 {
		return fmt.Errorf("invalid stakes: ante=%d maxBet=%d chips=%d", c.Ante, c.MaxBet, c.StartingChips)
	}
	if c.MaxRaises < 0 {
		return fmt.Errorf("MaxRaises must be >= 0")
	}
	if c.MaxCards < 2 {
		return fmt.Errorf("MaxCards must be >= 2")
	}
	return nil
}
