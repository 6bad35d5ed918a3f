package npc

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sevens-lite/card"
	"sevens-lite/sevens"
)

func steadyPersona(caution float64) *NPCPersona {
	return &NPCPersona{
		ID:   "steady_test",
		Name: "STEADY_TEST",
		Brain: PersonalityProfile{
			Aggression: 0.5,
			Caution:    caution,
			Bluffing:   0.1,
			Randomness: 0,
		},
	}
}

func playView(hand string) GameView {
	cs := card.MustParseList(hand)
	return GameView{
		Status:    sevens.RoundInProgress,
		Up:        cs[:1],
		Down:      cs[1:],
		Value:     sevens.Evaluate(cs),
		MaxBet:    100,
		MaxCards:  7,
		CardsLeft: 40,
		MyStack:   500,
	}
}

func TestRuleBrain_PlayDecisions(t *testing.T) {
	brain := NewRuleBrain(steadyPersona(0.5), 1)

	assert.Equal(t, sevens.ActionStand, brain.Decide(playView("3h 4c")).Action, "exactly seven")
	assert.Equal(t, sevens.ActionStand, brain.Decide(playView("Th 9c 8d")).Action, "exactly twenty-seven")
	assert.Equal(t, sevens.ActionHit, brain.Decide(playView("5h 6c")).Action, "a hit cannot bust")

	full := playView("2h 2c 2d 2s 3h 3c Kd")
	assert.Equal(t, sevens.ActionStand, brain.Decide(full).Action, "hand is full")

	empty := playView("5h 6c")
	empty.CardsLeft = 0
	assert.Equal(t, sevens.ActionStand, brain.Decide(empty).Action)
}

func TestRuleBrain_BetsWithinLimits(t *testing.T) {
	persona := steadyPersona(0.3)
	persona.Brain.Aggression = 0.9
	persona.Brain.Randomness = 0.5
	brain := NewRuleBrain(persona, 42)

	view := playView("Ah 5c")
	view.Status = sevens.RoundBetting
	view.MyStack = 60
	view.RaiseRoom = 60
	view.CanRaise = true

	bets := 0
	for i := 0; i < 2000; i++ {
		d := brain.Decide(view)
		require.Contains(t, []sevens.ActionKind{sevens.ActionBet, sevens.ActionFold}, d.Action)
		assert.GreaterOrEqual(t, d.Amount, int64(0))
		assert.LessOrEqual(t, d.Amount, int64(60))
		if d.Amount > 0 {
			bets++
		}
	}
	assert.Greater(t, bets, 1000, "aggressive profile should usually bet")
}

func TestRuleBrain_FacingABet(t *testing.T) {
	persona := steadyPersona(0.4)
	persona.Brain.Aggression = 0.8
	persona.Brain.Randomness = 0.5
	brain := NewRuleBrain(persona, 5)

	view := playView("3h 3c")
	view.Status = sevens.RoundBetting
	view.ToCall = 30
	view.RaiseRoom = 90
	view.CanRaise = true
	for i := 0; i < 500; i++ {
		d := brain.Decide(view)
		if d.Action == sevens.ActionFold {
			continue
		}
		require.Equal(t, sevens.ActionBet, d.Action)
		assert.GreaterOrEqual(t, d.Amount, int64(30), "never under-calls")
		assert.LessOrEqual(t, d.Amount, int64(90))
	}

	view.CanRaise = false
	for i := 0; i < 200; i++ {
		d := brain.Decide(view)
		if d.Action == sevens.ActionBet {
			assert.Equal(t, int64(30), d.Amount, "calls once raising is closed")
		}
	}

	view.MyStack = 20
	assert.Equal(t, sevens.ActionFold, brain.Decide(view).Action, "cannot afford the call")
}

func TestManager_AnswersARaiseLegally(t *testing.T) {
	m := NewManager(NewDefaultRegistry(), Options{Seed: 9})
	for seed := int64(1); seed <= 20; seed++ {
		inst, err := m.Spawn(nil)
		require.NoError(t, err)

		cfg := sevens.DefaultConfig()
		cfg.Seed = seed
		g, err := sevens.NewGame(cfg)
		require.NoError(t, err)
		_, err = g.SeatPlayer(0, sevens.Player{ID: inst.PlayerID, Name: inst.Persona.Name, NPC: true})
		require.NoError(t, err)
		_, err = g.SeatPlayer(1, sevens.Player{ID: "human"})
		require.NoError(t, err)
		_, err = g.StartRound(0)
		require.NoError(t, err)

		_, err = g.ApplyAction(1, sevens.Bet(40))
		require.NoError(t, err)
		for g.RoundStatus() == sevens.RoundBetting {
			seat := g.Turn()
			var a sevens.Action
			if seat == 0 {
				a = m.OnTurn(inst.PlayerID, g.Snapshot(0)).ToAction()
			} else {
				snap := g.Snapshot(1)
				a = sevens.Bet(snap.Round.CurrentBet - snap.Seats[1].Committed)
			}
			_, err = g.ApplyAction(seat, a)
			require.NoError(t, err, "seed %d seat %d %s", seed, seat, a.Kind)
		}
		m.Despawn(inst.PlayerID)
	}
}

func TestRuleBrain_PlayNeverBets(t *testing.T) {
	brain := NewRuleBrain(steadyPersona(0.2), 7)
	for _, hand := range []string{"Ah Kc", "Th 9c", "2h 3d 4s", "Th 9c 7d"} {
		for i := 0; i < 50; i++ {
			d := brain.Decide(playView(hand))
			assert.Contains(t, []sevens.ActionKind{sevens.ActionHit, sevens.ActionStand}, d.Action, hand)
		}
	}
}

func TestRegistry_Defaults(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, 4, r.Count())
	require.NotNil(t, r.Get("ace_low"))
	assert.Len(t, r.ByTier(1), 2)

	require.Error(t, r.LoadFromJSON([]byte("{not json")))
	require.NoError(t, r.LoadFromJSON([]byte(`[{"id":"extra","name":"Extra"},{"name":"no id"}]`)))
	assert.Equal(t, 5, r.Count())
}

func TestManager_SpawnAndTurn(t *testing.T) {
	m := NewManager(NewDefaultRegistry(), Options{MinThink: 10 * time.Millisecond, Seed: 3})
	inst, err := m.Spawn(nil)
	require.NoError(t, err)
	assert.True(t, m.IsNPC(inst.PlayerID))
	assert.Equal(t, 10*time.Millisecond, m.GetThinkDelay(inst.PlayerID))

	cfg := sevens.DefaultConfig()
	cfg.Seed = 11
	cfg.MaxBet = 0
	g, err := sevens.NewGame(cfg)
	require.NoError(t, err)
	_, err = g.SeatPlayer(0, sevens.Player{ID: "human"})
	require.NoError(t, err)
	_, err = g.SeatPlayer(1, sevens.Player{ID: inst.PlayerID, Name: inst.Persona.Name, NPC: true})
	require.NoError(t, err)
	_, err = g.StartRound(0)
	require.NoError(t, err)
	require.Equal(t, 1, g.Turn())

	d := m.OnTurn(inst.PlayerID, g.Snapshot(1))
	_, err = g.ApplyAction(1, d.ToAction())
	require.NoError(t, err)

	m.Despawn(inst.PlayerID)
	assert.False(t, m.IsNPC(inst.PlayerID))
	assert.Equal(t, sevens.ActionFold, m.OnTurn(inst.PlayerID, g.Snapshot(1)).Action)
}

func TestManager_LogsThroughGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	m := NewManager(NewDefaultRegistry(), Options{Seed: 5, Logger: &logger})

	inst, err := m.Spawn(nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"spawned"`)
	assert.Contains(t, buf.String(), inst.PlayerID)

	buf.Reset()
	m.Despawn(inst.PlayerID)
	assert.Contains(t, buf.String(), `"message":"despawned"`)
}
