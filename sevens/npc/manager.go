package npc

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sevens-lite/card"
	"sevens-lite/sevens"
)

// NPCInstance represents an active NPC seated at a table.
type NPCInstance struct {
	PlayerID   string
	Persona    *NPCPersona
	Brain      BrainDecider
	ThinkDelay time.Duration
}

// Options tune NPC pacing.
type Options struct {
	MinThink time.Duration
	Jitter   time.Duration
	Seed     int64
	// Logger defaults to the global logger as it stands when NewManager runs.
	Logger   *zerolog.Logger
}

func DefaultOptions() Options {
	return Options{MinThink: 2 * time.Second, Jitter: 2 * time.Second}
}

// Manager manages NPC lifecycle and decision-making at tables.
type Manager struct {
	registry  *PersonaRegistry
	opts      Options
	instances map[string]*NPCInstance // keyed by PlayerID
	mu        sync.RWMutex
	rng       *rand.Rand
	log       zerolog.Logger
}

// NewManager creates an NPC manager with the given persona registry.
func NewManager(registry *PersonaRegistry, opts Options) *Manager {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := log.With().Str("logger_name", "npc::manager").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Manager{
		registry:  registry,
		opts:      opts,
		instances: make(map[string]*NPCInstance),
		rng:       rand.New(rand.NewSource(seed)),
		log:       logger,
	}
}

// Registry returns the underlying PersonaRegistry.
func (m *Manager) Registry() *PersonaRegistry {
	return m.registry
}

// Spawn creates an NPC for persona, or a random persona when nil. The caller
// seats it.
func (m *Manager) Spawn(persona *NPCPersona) (*NPCInstance, error) {
	m.mu.Lock()
	if persona == nil {
		persona = m.registry.Pick(m.rng)
	}
	if persona == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("no NPC personas registered")
	}
	seed := m.rng.Int63()
	think := m.opts.MinThink + time.Duration(persona.Brain.Randomness*float64(m.opts.Jitter))
	if m.opts.Jitter > 0 {
		think += time.Duration(m.rng.Int63n(int64(m.opts.Jitter)))
	}
	inst := &NPCInstance{
		PlayerID:   "npc-" + uuid.NewString(),
		Persona:    persona,
		Brain:      NewRuleBrain(persona, seed),
		ThinkDelay: think,
	}
	m.instances[inst.PlayerID] = inst
	m.mu.Unlock()

	m.log.Debug().Str("persona", persona.ID).Str("playerID", inst.PlayerID).Msg("spawned")
	return inst, nil
}

// OnTurn builds a GameView from snap (taken from the NPC's own seat) and
// asks the brain for a decision.
func (m *Manager) OnTurn(playerID string, snap sevens.Snapshot) Decision {
	m.mu.RLock()
	inst := m.instances[playerID]
	m.mu.RUnlock()

	if inst == nil {
		m.log.Warn().Str("playerID", playerID).Msg("OnTurn for unknown NPC")
		return Decision{Action: sevens.ActionFold}
	}

	view := buildGameView(playerID, snap)
	decision := inst.Brain.Decide(view)
	m.log.Debug().
		Str("persona", inst.Persona.ID).
		Str("action", decision.Action.String()).
		Int64("amount", decision.Amount).
		Msg("decided")
	return decision
}

// GetInstance returns the NPC instance for a given playerID, or nil.
func (m *Manager) GetInstance(playerID string) *NPCInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[playerID]
}

// IsNPC checks if a playerID belongs to an NPC.
func (m *Manager) IsNPC(playerID string) bool {
	return m.GetInstance(playerID) != nil
}

// Despawn removes an NPC from tracking.
func (m *Manager) Despawn(playerID string) {
	m.mu.Lock()
	inst := m.instances[playerID]
	delete(m.instances, playerID)
	m.mu.Unlock()

	if inst != nil {
		m.log.Debug().Str("persona", inst.Persona.ID).Str("playerID", playerID).Msg("despawned")
	}
}

// GetThinkDelay returns the simulated thinking delay for an NPC.
func (m *Manager) GetThinkDelay(playerID string) time.Duration {
	if inst := m.GetInstance(playerID); inst != nil {
		return inst.ThinkDelay
	}
	return time.Second
}

func buildGameView(playerID string, snap sevens.Snapshot) GameView {
	view := GameView{
		MaxBet:    snap.MaxBet,
		MaxCards:  snap.MaxCards,
		CardsLeft: snap.DeckRemaining,
	}
	var currentBet int64
	if r := snap.Round; r != nil {
		view.Status = r.Status
		view.Pot = r.Pot
		currentBet = r.CurrentBet
		view.CanRaise = snap.MaxRaises == 0 || r.Raises < snap.MaxRaises
	}
	for _, s := range snap.Seats {
		if s.Dealt && (s.Status == sevens.SeatSeated || s.Status == sevens.SeatActiveTurn || s.Status == sevens.SeatStood) {
			view.Contenders++
		}
		if s.PlayerID != playerID {
			continue
		}
		view.Up = s.Up
		view.Down = s.Down
		view.MyStack = s.Chips
		if currentBet > s.Committed {
			view.ToCall = currentBet - s.Committed
		}
		view.RaiseRoom = snap.Ante + snap.MaxBet - s.Committed
		if view.RaiseRoom > s.Chips {
			view.RaiseRoom = s.Chips
		}
	}
	hand := make([]card.Card, 0, len(view.Up)+len(view.Down))
	hand = append(hand, view.Up...)
	hand = append(hand, view.Down...)
	view.Value = sevens.Evaluate(hand)
	return view
}
