package table

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sevens-lite/card"
	"sevens-lite/protocol"
	"sevens-lite/sevens"
	"sevens-lite/sevens/npc"
)

type recordingSink struct {
	mu     sync.Mutex
	msgs   map[string][]protocol.Message
	refuse map[string]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{msgs: make(map[string][]protocol.Message), refuse: make(map[string]bool)}
}

func (s *recordingSink) Deliver(connID string, m protocol.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuse[connID] {
		return false
	}
	s.msgs[connID] = append(s.msgs[connID], m)
	return true
}

func (s *recordingSink) messages(connID string) []protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Message(nil), s.msgs[connID]...)
}

func (s *recordingSink) events(connID string) []*protocol.Event {
	var out []*protocol.Event
	for _, m := range s.messages(connID) {
		if ev, ok := m.(*protocol.Event); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordingSink) eventsOfType(connID string, typ sevens.EventType) []*protocol.Event {
	var out []*protocol.Event
	for _, ev := range s.events(connID) {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func testConfig() Config {
	g := sevens.DefaultConfig()
	g.MaxSeats = 4
	g.MaxBet = 0
	g.Seed = 7
	return Config{Game: g}
}

func newTestTable(t *testing.T, cfg Config, mgr *npc.Manager) (*Table, *recordingSink) {
	t.Helper()
	sink := newRecordingSink()
	tbl, err := New("table-test", cfg, sink, mgr)
	require.NoError(t, err)
	t.Cleanup(tbl.Stop)
	return tbl, sink
}

func join(t *testing.T, tbl *Table, playerID string) {
	t.Helper()
	require.NoError(t, tbl.SubmitEvent(Event{
		Type:     EventJoin,
		PlayerID: playerID,
		ConnID:   "conn-" + playerID,
		Name:     playerID,
	}))
}

func turnHolder(t *testing.T, tbl *Table, players ...string) string {
	t.Helper()
	snap := tbl.Snapshot(sevens.Omniscient)
	require.NotNil(t, snap.Round)
	for _, p := range players {
		if tbl.SeatOf(p) == snap.Round.Turn {
			return p
		}
	}
	t.Fatalf("no player holds turn %d", snap.Round.Turn)
	return ""
}

func TestJoin_SnapshotToJoinerEventToOthers(t *testing.T) {
	tbl, sink := newTestTable(t, testConfig(), nil)

	join(t, tbl, "alice")
	join(t, tbl, "bob")

	aliceMsgs := sink.messages("conn-alice")
	require.Len(t, aliceMsgs, 2)
	joined, ok := aliceMsgs[0].(*protocol.Joined)
	require.True(t, ok)
	assert.Equal(t, "alice", joined.PlayerID)
	assert.Equal(t, int32(0), joined.SeatID)

	taken, ok := aliceMsgs[1].(*protocol.Event)
	require.True(t, ok)
	assert.Equal(t, sevens.EventSeatTaken, taken.Type)
	assert.Equal(t, "bob", taken.PlayerID)
	assert.Equal(t, int32(1), taken.Seat)

	bobMsgs := sink.messages("conn-bob")
	require.Len(t, bobMsgs, 1)
	bobJoined := bobMsgs[0].(*protocol.Joined)
	assert.Equal(t, int32(1), bobJoined.SeatID)
	require.Len(t, bobJoined.Snapshot.Seats, 4)
	assert.Equal(t, "alice", bobJoined.Snapshot.Seats[0].PlayerID)
}

func TestJoin_TwiceIsRejected(t *testing.T) {
	tbl, _ := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")

	err := tbl.SubmitEvent(Event{Type: EventJoin, PlayerID: "alice", ConnID: "conn-2"})
	assert.ErrorIs(t, err, sevens.ErrAlreadySeated)
}

func TestStartRound_HidesOtherPlayersDownCards(t *testing.T) {
	tbl, sink := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")
	join(t, tbl, "bob")

	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))

	aliceSeat, bobSeat := int32(tbl.SeatOf("alice")), int32(tbl.SeatOf("bob"))
	dealt := sink.eventsOfType("conn-alice", sevens.EventCardDealt)
	require.Len(t, dealt, 4)
	for _, ev := range dealt {
		switch {
		case ev.FaceUp:
			assert.NotEqual(t, card.CardRear, ev.Card)
		case ev.Seat == aliceSeat:
			assert.NotEqual(t, card.CardRear, ev.Card, "own down card is visible")
		case ev.Seat == bobSeat:
			assert.Equal(t, card.CardRear, ev.Card, "opponent down card is hidden")
		}
	}
}

func TestEvents_SameSeqForEveryRecipient(t *testing.T) {
	tbl, sink := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")
	join(t, tbl, "bob")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "bob"}))

	aliceEvents := sink.events("conn-alice")
	bobEvents := sink.events("conn-bob")
	// alice also saw bob's SeatTaken.
	require.Equal(t, len(bobEvents)+1, len(aliceEvents))
	aliceEvents = aliceEvents[1:]
	for i := range bobEvents {
		assert.Equal(t, aliceEvents[i].Seq, bobEvents[i].Seq)
		assert.Equal(t, aliceEvents[i].Type, bobEvents[i].Type)
		if i > 0 {
			assert.Equal(t, bobEvents[i-1].Seq+1, bobEvents[i].Seq)
		}
	}
}

func TestAction_OutOfTurnChangesNothing(t *testing.T) {
	tbl, sink := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")
	join(t, tbl, "bob")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))

	holder := turnHolder(t, tbl, "alice", "bob")
	waiter := "alice"
	if holder == "alice" {
		waiter = "bob"
	}
	before := tbl.Snapshot(sevens.Omniscient)
	aliceCount, bobCount := len(sink.messages("conn-alice")), len(sink.messages("conn-bob"))

	err := tbl.SubmitEvent(Event{Type: EventAction, PlayerID: waiter, Action: sevens.Stand()})
	assert.ErrorIs(t, err, sevens.ErrNotYourTurn)
	assert.Equal(t, before, tbl.Snapshot(sevens.Omniscient))
	assert.Len(t, sink.messages("conn-alice"), aliceCount)
	assert.Len(t, sink.messages("conn-bob"), bobCount)
}

func TestAction_UnknownPlayer(t *testing.T) {
	tbl, _ := newTestTable(t, testConfig(), nil)
	err := tbl.SubmitEvent(Event{Type: EventAction, PlayerID: "ghost", Action: sevens.Hit()})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestStandStand_ResolvesRound(t *testing.T) {
	tbl, sink := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")
	join(t, tbl, "bob")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))

	for i := 0; i < 2; i++ {
		holder := turnHolder(t, tbl, "alice", "bob")
		require.NoError(t, tbl.SubmitEvent(Event{Type: EventAction, PlayerID: holder, Action: sevens.Stand()}))
	}

	resolved := sink.eventsOfType("conn-alice", sevens.EventRoundResolved)
	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].Result)
	assert.Equal(t, int64(20), resolved[0].Result.Pot)
	assert.Len(t, sink.eventsOfType("conn-bob", sevens.EventHandsRevealed), 1)
	assert.Equal(t, sevens.StateWaiting, tbl.Info().State)

	msgs := sink.messages("conn-bob")
	snap, ok := msgs[len(msgs)-1].(*protocol.Snapshot)
	require.True(t, ok, "round closes with a resync snapshot")
	events := sink.events("conn-bob")
	assert.Equal(t, events[len(events)-1].Seq, snap.Seq)
	require.NotNil(t, snap.Table.LastResult)
	assert.Nil(t, snap.Table.Round)
	assert.Len(t, snap.Table.LastHands, 2)
}

func TestConnLost_TwoPlayersMidTurnForfeits(t *testing.T) {
	tbl, sink := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")
	join(t, tbl, "bob")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))

	holder := turnHolder(t, tbl, "alice", "bob")
	other := "alice"
	if holder == "alice" {
		other = "bob"
	}
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventConnLost, PlayerID: holder}))

	resolved := sink.eventsOfType("conn-"+other, sevens.EventRoundResolved)
	require.Len(t, resolved, 1)
	res := resolved[0].Result
	require.NotNil(t, res)
	assert.True(t, res.Forfeit)
	require.Len(t, res.Payouts, 1)
	assert.Equal(t, int32(tbl.SeatOf(other)), res.Payouts[0].Seat)
	assert.Equal(t, int64(20), res.Payouts[0].Amount)

	vacated := sink.eventsOfType("conn-"+other, sevens.EventSeatVacated)
	require.Len(t, vacated, 1)
	assert.Equal(t, holder, vacated[0].PlayerID)
	assert.Equal(t, sevens.InvalidSeat, tbl.SeatOf(holder))
}

func TestLeave_BetweenRoundsFreesSeat(t *testing.T) {
	tbl, sink := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")
	join(t, tbl, "bob")

	require.NoError(t, tbl.SubmitEvent(Event{Type: EventLeave, PlayerID: "bob"}))
	vacated := sink.eventsOfType("conn-alice", sevens.EventSeatVacated)
	require.Len(t, vacated, 1)
	assert.Equal(t, int32(1), vacated[0].Seat)
	assert.Equal(t, int32(1), tbl.Info().Seated)

	assert.ErrorIs(t, tbl.SubmitEvent(Event{Type: EventLeave, PlayerID: "bob"}), ErrNotMember)
	assert.NoError(t, tbl.SubmitEvent(Event{Type: EventConnLost, PlayerID: "bob"}))
}

func TestStartRound_NeedsTwoPlayers(t *testing.T) {
	tbl, _ := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")
	err := tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"})
	assert.ErrorIs(t, err, sevens.ErrNotEnoughPlayers)
}

func TestTurnTimeout_StandsForIdleSeat(t *testing.T) {
	old := tickInterval
	tickInterval = 10 * time.Millisecond
	defer func() { tickInterval = old }()

	cfg := testConfig()
	cfg.TurnTimeout = 30 * time.Millisecond
	tbl, sink := newTestTable(t, cfg, nil)
	join(t, tbl, "alice")
	join(t, tbl, "bob")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))

	require.Eventually(t, func() bool {
		return len(sink.eventsOfType("conn-alice", sevens.EventRoundResolved)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, sink.eventsOfType("conn-bob", sevens.EventPlayerStood), 2)
}

func TestNextRoundDelay_StartsAnotherRound(t *testing.T) {
	old := tickInterval
	tickInterval = 10 * time.Millisecond
	defer func() { tickInterval = old }()

	cfg := testConfig()
	cfg.NextRoundDelay = 20 * time.Millisecond
	tbl, sink := newTestTable(t, cfg, nil)
	join(t, tbl, "alice")
	join(t, tbl, "bob")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))
	for i := 0; i < 2; i++ {
		holder := turnHolder(t, tbl, "alice", "bob")
		require.NoError(t, tbl.SubmitEvent(Event{Type: EventAction, PlayerID: holder, Action: sevens.Stand()}))
	}

	require.Eventually(t, func() bool {
		return len(sink.eventsOfType("conn-alice", sevens.EventRoundStarted)) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAddBot_PlaysItsTurns(t *testing.T) {
	mgr := npc.NewManager(npc.NewDefaultRegistry(), npc.Options{MinThink: time.Millisecond, Seed: 3})
	tbl, sink := newTestTable(t, testConfig(), mgr)
	join(t, tbl, "alice")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventAddBot, Persona: "dealer_dan"}))

	taken := sink.eventsOfType("conn-alice", sevens.EventSeatTaken)
	require.Len(t, taken, 1)
	assert.True(t, taken[0].NPC)
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))

	require.Eventually(t, func() bool {
		if len(sink.eventsOfType("conn-alice", sevens.EventRoundResolved)) == 1 {
			return true
		}
		snap := tbl.Snapshot(sevens.Omniscient)
		if snap.Round != nil && snap.Round.Turn == tbl.SeatOf("alice") {
			_ = tbl.SubmitEvent(Event{Type: EventAction, PlayerID: "alice", Action: sevens.Stand()})
		}
		return false
	}, 3*time.Second, 5*time.Millisecond)
}

func TestBotsAlone_StopDealingAndGoIdle(t *testing.T) {
	old := tickInterval
	tickInterval = 5 * time.Millisecond
	defer func() { tickInterval = old }()

	cfg := testConfig()
	cfg.NextRoundDelay = 30 * time.Millisecond
	mgr := npc.NewManager(npc.NewDefaultRegistry(), npc.Options{MinThink: time.Millisecond, Seed: 3})
	tbl, _ := newTestTable(t, cfg, mgr)
	var resolved atomic.Int32
	tbl.AddRoundEndHook(func(RoundEndInfo) { resolved.Add(1) })
	join(t, tbl, "alice")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventAddBot, Persona: "dealer_dan"}))
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventAddBot, Persona: "ace_low"}))
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))
	require.Equal(t, uint32(1), tbl.Info().Round)
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventConnLost, PlayerID: "alice"}))

	require.Eventually(t, func() bool {
		return tbl.IsIdleFor(100 * time.Millisecond)
	}, 3*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool { return resolved.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(3 * cfg.NextRoundDelay)
	assert.Equal(t, sevens.StateWaiting, tbl.Info().State)
	assert.Equal(t, int32(1), resolved.Load(), "no further rounds without a connected player")
	assert.True(t, tbl.IsIdleFor(100*time.Millisecond))
}

func TestAddBot_UnknownPersonaAndNoManager(t *testing.T) {
	tbl, _ := newTestTable(t, testConfig(), nil)
	assert.ErrorIs(t, tbl.SubmitEvent(Event{Type: EventAddBot}), ErrNoNPCs)

	mgr := npc.NewManager(npc.NewDefaultRegistry(), npc.Options{MinThink: time.Millisecond})
	tbl2, _ := newTestTable(t, testConfig(), mgr)
	assert.ErrorIs(t, tbl2.SubmitEvent(Event{Type: EventAddBot, Persona: "nobody"}), sevens.ErrIllegalAction)
}

func TestRoundEndHook_ReceivesResult(t *testing.T) {
	tbl, _ := newTestTable(t, testConfig(), nil)
	got := make(chan RoundEndInfo, 1)
	tbl.AddRoundEndHook(func(info RoundEndInfo) { got <- info })
	tbl.AddRoundEndHook(func(RoundEndInfo) { panic("hook failure stays contained") })

	join(t, tbl, "alice")
	join(t, tbl, "bob")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventStartRound, PlayerID: "alice"}))
	holder := turnHolder(t, tbl, "alice", "bob")
	require.NoError(t, tbl.SubmitEvent(Event{Type: EventAction, PlayerID: holder, Action: sevens.Fold()}))

	select {
	case info := <-got:
		assert.Equal(t, "table-test", info.TableID)
		assert.Equal(t, uint32(1), info.Round)
		require.NotNil(t, info.Result)
		assert.True(t, info.Result.Forfeit)
		assert.Len(t, info.Hands, 2)
	case <-time.After(time.Second):
		t.Fatal("round end hook not called")
	}
}

func TestReservations_CountAgainstCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.Game.MaxSeats = 2
	tbl, _ := newTestTable(t, cfg, nil)

	assert.True(t, tbl.TryReserve())
	assert.True(t, tbl.TryReserve())
	assert.False(t, tbl.TryReserve())

	require.NoError(t, tbl.SubmitEvent(Event{Type: EventJoin, PlayerID: "alice", ConnID: "c1", Reserved: true}))
	assert.False(t, tbl.TryReserve())
	tbl.Release()
	assert.True(t, tbl.TryReserve())
}

func TestIsIdleFor(t *testing.T) {
	tbl, _ := newTestTable(t, testConfig(), nil)
	assert.True(t, tbl.IsIdleFor(0))

	join(t, tbl, "alice")
	assert.False(t, tbl.IsIdleFor(0))

	require.NoError(t, tbl.SubmitEvent(Event{Type: EventLeave, PlayerID: "alice"}))
	assert.True(t, tbl.IsIdleFor(0))
	assert.False(t, tbl.IsIdleFor(time.Hour))
}

func TestRefusedDelivery_DetachesConnection(t *testing.T) {
	tbl, sink := newTestTable(t, testConfig(), nil)
	join(t, tbl, "alice")
	sink.mu.Lock()
	sink.refuse["conn-alice"] = true
	sink.mu.Unlock()

	join(t, tbl, "bob")
	join(t, tbl, "carol")
	sink.mu.Lock()
	delete(sink.refuse, "conn-alice")
	sink.mu.Unlock()
	join(t, tbl, "dave")

	// Nothing reaches alice after the first refused message.
	assert.Len(t, sink.messages("conn-alice"), 1)
}

func TestStop_RejectsFurtherEvents(t *testing.T) {
	tbl, _ := newTestTable(t, testConfig(), nil)
	tbl.Stop()
	assert.True(t, tbl.IsClosed())
	assert.ErrorIs(t, tbl.SubmitEvent(Event{Type: EventJoin, PlayerID: "alice"}), ErrTableClosed)
	assert.False(t, tbl.TryReserve())
}
