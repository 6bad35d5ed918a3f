package npc

import (
	"math/rand"
	"os"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultPersonas = `[
  {"id":"ace_low","name":"Ace Low","tagline":"Seven or nothing.","tier":1,
   "brain":{"aggression":0.35,"caution":0.85,"bluffing":0.10,"randomness":0.10}},
  {"id":"high_roller","name":"High Roller","tagline":"Twenty-seven is a state of mind.","tier":1,
   "brain":{"aggression":0.80,"caution":0.30,"bluffing":0.40,"randomness":0.20}},
  {"id":"half_point","name":"Half Point","tagline":"Counts every face card twice.","tier":2,
   "brain":{"aggression":0.50,"caution":0.60,"bluffing":0.20,"randomness":0.30}},
  {"id":"dealer_dan","name":"Dealer Dan","tagline":"Just here for the snacks.","tier":3,
   "brain":{"aggression":0.25,"caution":0.50,"bluffing":0.05,"randomness":0.50}}
]`

// PersonaRegistry holds all NPC persona definitions.
type PersonaRegistry struct {
	mu       sync.RWMutex
	personas map[string]*NPCPersona
}

// NewRegistry creates an empty registry.
func NewRegistry() *PersonaRegistry {
	return &PersonaRegistry{
		personas: make(map[string]*NPCPersona),
	}
}

// NewDefaultRegistry returns a registry holding the built-in personas.
func NewDefaultRegistry() *PersonaRegistry {
	r := NewRegistry()
	if err := r.LoadFromJSON([]byte(defaultPersonas)); err != nil {
		panic(err)
	}
	return r
}

// LoadFromFile loads NPC personas from a JSON file.
func (r *PersonaRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read personas file")
	}
	return r.LoadFromJSON(data)
}

// LoadFromJSON loads NPC personas from raw JSON bytes.
func (r *PersonaRegistry) LoadFromJSON(data []byte) error {
	var list []*NPCPersona
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.Wrap(err, "parse personas JSON")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range list {
		if p.ID == "" {
			continue
		}
		r.personas[p.ID] = p
	}
	return nil
}

// Get returns a persona by ID.
func (r *PersonaRegistry) Get(id string) *NPCPersona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.personas[id]
}

// All returns every persona ordered by ID.
func (r *PersonaRegistry) All() []*NPCPersona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*NPCPersona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByTier returns all personas of the given tier.
func (r *PersonaRegistry) ByTier(tier int) []*NPCPersona {
	var out []*NPCPersona
	for _, p := range r.All() {
		if p.Tier == tier {
			out = append(out, p)
		}
	}
	return out
}

// Pick returns a random persona, or nil when the registry is empty.
func (r *PersonaRegistry) Pick(rng *rand.Rand) *NPCPersona {
	all := r.All()
	if len(all) == 0 {
		return nil
	}
	return all[rng.Intn(len(all))]
}

// Count returns the total number of registered personas.
func (r *PersonaRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}
