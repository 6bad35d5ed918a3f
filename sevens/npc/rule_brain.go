package npc

import (
	"math/rand"

	"sevens-lite/sevens"
)

// maxHit is the most a single card can add to a hand (a ten, or an ace at 1).
const maxHit = 10 * sevens.OnePoint

// RuleBrain makes decisions based on a PersonalityProfile with tunable parameters.
type RuleBrain struct {
	Persona *NPCPersona
	rng     *rand.Rand
}

// NewRuleBrain creates a RuleBrain from a persona definition.
func NewRuleBrain(persona *NPCPersona, seed int64) *RuleBrain {
	return &RuleBrain{
		Persona: persona,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (b *RuleBrain) Name() string { return b.Persona.Name }

// Decide implements BrainDecider.
func (b *RuleBrain) Decide(view GameView) Decision {
	p := b.Persona.Brain

	aggression := clamp01(p.Aggression + (b.rng.Float64()-0.5)*p.Randomness*0.4)
	caution := clamp01(p.Caution + (b.rng.Float64()-0.5)*p.Randomness*0.3)

	switch view.Status {
	case sevens.RoundBetting:
		return b.decideBet(view, aggression, caution)
	case sevens.RoundInProgress:
		return b.decidePlay(view, caution)
	}
	return Decision{Action: sevens.ActionStand}
}

func (b *RuleBrain) decideBet(view GameView, aggression, caution float64) Decision {
	if view.ToCall > view.MyStack {
		return Decision{Action: sevens.ActionFold}
	}
	strength := estimateHandStrength(view.Value)
	if strength < 0.1 && b.rng.Float64() < caution*0.3 {
		return Decision{Action: sevens.ActionFold}
	}
	if view.ToCall > 0 && strength < caution*0.5 && b.rng.Float64() < caution {
		return Decision{Action: sevens.ActionFold}
	}
	if view.CanRaise && (strength > (1.0-aggression)*0.6 || b.rng.Float64() < b.Persona.Brain.Bluffing*0.3) {
		if amount := calcBetAmount(view, aggression); amount > view.ToCall {
			return Decision{Action: sevens.ActionBet, Amount: amount}
		}
	}
	return Decision{Action: sevens.ActionBet, Amount: view.ToCall}
}

func (b *RuleBrain) decidePlay(view GameView, caution float64) Decision {
	v := view.Value
	if len(view.Up)+len(view.Down) >= view.MaxCards || view.CardsLeft == 0 {
		return Decision{Action: sevens.ActionStand}
	}

	margin7 := sevens.Points(1 + caution*3)
	margin27 := sevens.Points(2 + caution*6)
	if !v.Bust7 && sevens.Target7-v.Total7 <= margin7 {
		return Decision{Action: sevens.ActionStand}
	}
	if !v.Bust27 && sevens.Target27-v.Total27 <= margin27 {
		return Decision{Action: sevens.ActionStand}
	}
	if !v.Bust27 && sevens.Target27-v.Total27 >= maxHit {
		return Decision{Action: sevens.ActionHit}
	}
	if b.rng.Float64() < (1.0-caution)*0.5 {
		return Decision{Action: sevens.ActionHit}
	}
	return Decision{Action: sevens.ActionStand}
}

// estimateHandStrength returns 0.0–1.0: how close the hand sits to its better target.
func estimateHandStrength(v sevens.HandValue) float64 {
	best := 0.0
	if !v.Bust7 {
		best = v.Total7.Float64() / sevens.Target7.Float64()
	}
	if !v.Bust27 {
		if s := v.Total27.Float64() / sevens.Target27.Float64(); s > best {
			best = s
		}
	}
	return clamp01(best)
}

// calcBetAmount sizes a raise: the call plus a quarter to all of the room
// left under the limit.
func calcBetAmount(view GameView, aggression float64) int64 {
	bet := view.ToCall + int64(float64(view.RaiseRoom-view.ToCall)*(0.25+aggression*0.75))
	if bet > view.RaiseRoom {
		bet = view.RaiseRoom
	}
	if bet < 0 {
		bet = 0
	}
	return bet
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
