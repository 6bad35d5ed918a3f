package npc

// PersonalityProfile defines the tunable parameters for a RuleBrain.
type PersonalityProfile struct {
	Aggression float64 `json:"aggression"` // 0.0–1.0: bet size and frequency
	Caution    float64 `json:"caution"`    // 0.0–1.0: how early the NPC stands
	Bluffing   float64 `json:"bluffing"`   // 0.0–1.0: betting on weak hands
	Randomness float64 `json:"randomness"` // 0.0–1.0: decision noise
}

// NPCPersona defines a named NPC character.
type NPCPersona struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Tagline string             `json:"tagline"`
	Tier    int                `json:"tier"` // 1=tough, 2=regular, 3=filler
	Brain   PersonalityProfile `json:"brain"`
}
