package table

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sevens-lite/apps/server/internal/codec"
	"sevens-lite/apps/server/internal/logging"
	"sevens-lite/apps/server/internal/metrics"
	"sevens-lite/protocol"
	"sevens-lite/sevens"
	"sevens-lite/sevens/npc"

	"github.com/rs/zerolog"
)

// Table is one game table run as an actor: a single goroutine owns the
// sevens.Game and applies events from its queue in arrival order.
type Table struct {
	ID     string
	Config Config

	mu       sync.RWMutex
	game     *sevens.Game
	members  map[string]*member // playerID -> member
	reserved int
	closed   bool
	stopOnce sync.Once

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	// Server sequence for event ordering
	serverSeq uint64

	// Turn bookkeeping. turnToken changes whenever the turn moves so a late
	// NPC decision or timeout cannot act on a newer turn.
	turnSeat       int
	turnToken      uint64
	actionDeadline time.Time
	nextRoundAt    time.Time
	emptySince     time.Time

	sink          Sink
	npcManager    *npc.Manager
	roundEndHooks []RoundEndHook

	log zerolog.Logger
}

// Config contains table settings.
type Config struct {
	Game sevens.Config
	// TurnTimeout is how long a seat may hold the turn before the table acts
	// for it. Zero disables the timer.
	TurnTimeout time.Duration
	// NextRoundDelay starts the next round automatically after a round
	// resolves. Zero leaves it to an explicit start.
	NextRoundDelay time.Duration
}

// Sink delivers server messages to connections. Deliver is called from the
// actor goroutine and must not block; false means the connection could not
// take the message and is being dropped.
type Sink interface {
	Deliver(connID string, m protocol.Message) bool
}

type member struct {
	playerID string
	connID   string // empty for NPCs and once the connection is gone
	name     string
	seat     int
	npc      bool
}

// Event types for the actor message queue
type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventAction
	EventStartRound
	EventAddBot
	EventNPCAction
	EventConnLost
	EventClose
)

var eventTypeNames = map[EventType]string{
	EventJoin:       "join",
	EventLeave:      "leave",
	EventAction:     "action",
	EventStartRound: "start_round",
	EventAddBot:     "add_bot",
	EventNPCAction:  "npc_action",
	EventConnLost:   "conn_lost",
	EventClose:      "close",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event represents a message to the table actor
type Event struct {
	Type     EventType
	PlayerID string
	ConnID   string
	Name     string
	// Reserved marks a join holding a seat reservation from TryReserve.
	Reserved bool
	Action   sevens.Action
	Persona  string
	// Token is the turn an NPC decision was made for.
	Token uint64

	Timestamp time.Time
	Response  chan error
}

// RoundEndInfo is emitted when a round settles.
type RoundEndInfo struct {
	TableID  string
	Round    uint32
	Hands    []sevens.Reveal
	Result   *sevens.Settlement
	Snapshot sevens.Snapshot
}

// RoundEndHook is a post-settlement callback.
type RoundEndHook func(info RoundEndInfo)

var (
	ErrTableClosed = errors.New("table closed")
	ErrNotMember   = errors.New("not a member of this table")
	ErrNoNPCs      = errors.New("NPC seats are not available")
)

// tickInterval drives turn timeouts and delayed round starts.
var tickInterval = 500 * time.Millisecond

// New creates a table and starts its actor.
func New(id string, cfg Config, sink Sink, npcMgr *npc.Manager) (*Table, error) {
	game, err := sevens.NewGame(cfg.Game)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", id, err)
	}
	t := &Table{
		ID:         id,
		Config:     cfg,
		game:       game,
		members:    make(map[string]*member),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		turnSeat:   sevens.InvalidSeat,
		emptySince: time.Now(),
		sink:       sink,
		npcManager: npcMgr,
		log:        logging.Component("table::actor").With().Str(logging.TableIDKey, id).Logger(),
	}

	go t.run()

	t.log.Info().
		Int("maxSeats", cfg.Game.MaxSeats).
		Int64("ante", cfg.Game.Ante).
		Int64("maxBet", cfg.Game.MaxBet).
		Msg("Created")
	return t, nil
}

// run is the main actor loop
func (t *Table) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			t.log.Info().Msg("Actor stopped")
			return
		}
	}
}

// handleEvent processes a single event
func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	var err error
	switch e.Type {
	case EventJoin:
		err = t.handleJoin(e)
	case EventLeave, EventConnLost:
		err = t.handleLeave(e)
	case EventAction:
		err = t.handleAction(e)
	case EventStartRound:
		err = t.handleStartRound(e)
	case EventAddBot:
		err = t.handleAddBot(e)
	case EventNPCAction:
		err = t.handleNPCAction(e)
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
	t.updateEmptySinceLocked(e.Timestamp)
	if err != nil {
		t.log.Debug().
			Str(logging.EventKey, e.Type.String()).
			Str(logging.PlayerIDKey, e.PlayerID).
			Err(err).
			Msg("Event rejected")
	}
	return err
}

func (t *Table) handleJoin(e Event) error {
	if e.Reserved && t.reserved > 0 {
		t.reserved--
	}
	name := normalizeName(e.Name, e.PlayerID)
	events, err := t.game.SeatPlayer(sevens.InvalidSeat, sevens.Player{ID: e.PlayerID, Name: name})
	if err != nil {
		return err
	}
	seat := events[0].Seat
	m := &member{playerID: e.PlayerID, connID: e.ConnID, name: name, seat: seat}
	t.members[e.PlayerID] = m

	t.apply(events, e.PlayerID, e.Timestamp)
	t.send(m, &protocol.Joined{
		TableID:  t.ID,
		SeatID:   int32(seat),
		PlayerID: e.PlayerID,
		Snapshot: codec.SnapshotToProto(t.game.Snapshot(seat)),
	})

	t.log.Info().
		Str(logging.PlayerIDKey, e.PlayerID).
		Int(logging.SeatNumKey, seat).
		Str("name", name).
		Msg("Player joined")
	return nil
}

// handleLeave detaches a player. A seat dealt into the running round stays
// until the round resolves; the player stops receiving messages at once.
func (t *Table) handleLeave(e Event) error {
	m := t.members[e.PlayerID]
	if m == nil {
		if e.Type == EventConnLost {
			return nil
		}
		return ErrNotMember
	}
	m.connID = ""
	events := t.game.RemoveSeat(m.seat)
	t.apply(events, "", e.Timestamp)

	t.log.Info().
		Str(logging.PlayerIDKey, e.PlayerID).
		Int(logging.SeatNumKey, m.seat).
		Str(logging.EventKey, e.Type.String()).
		Msg("Player left")
	return nil
}

func (t *Table) handleAction(e Event) error {
	m := t.members[e.PlayerID]
	if m == nil {
		return ErrNotMember
	}
	events, err := t.game.ApplyAction(m.seat, e.Action)
	if err != nil {
		metrics.Metrics.ActionHandled("rejected")
		return err
	}
	metrics.Metrics.ActionHandled("ok")
	t.apply(events, "", e.Timestamp)
	return nil
}

func (t *Table) handleNPCAction(e Event) error {
	m := t.members[e.PlayerID]
	if m == nil || e.Token != t.turnToken || t.game.Turn() != m.seat {
		// The turn moved on while the NPC was thinking.
		return nil
	}
	events, err := t.game.ApplyAction(m.seat, e.Action)
	if err != nil {
		t.log.Warn().
			Str(logging.PlayerIDKey, e.PlayerID).
			Str("action", e.Action.Kind.String()).
			Err(err).
			Msg("NPC decision rejected, acting by default")
		return t.actByDefault(e.Timestamp)
	}
	t.apply(events, "", e.Timestamp)
	return nil
}

func (t *Table) handleStartRound(e Event) error {
	starter := sevens.InvalidSeat
	if e.PlayerID != "" {
		m := t.members[e.PlayerID]
		if m == nil {
			return ErrNotMember
		}
		starter = m.seat
	}
	events, err := t.game.StartRound(starter)
	if err != nil {
		return err
	}
	t.apply(events, "", e.Timestamp)
	return nil
}

func (t *Table) handleAddBot(e Event) error {
	if t.npcManager == nil {
		return ErrNoNPCs
	}
	if t.game.SeatedCount()+t.reserved >= t.Config.Game.MaxSeats {
		return fmt.Errorf("add bot: %w", sevens.ErrTableFull)
	}
	var persona *npc.NPCPersona
	if e.Persona != "" {
		persona = t.npcManager.Registry().Get(e.Persona)
		if persona == nil {
			return fmt.Errorf("unknown persona %q: %w", e.Persona, sevens.ErrIllegalAction)
		}
	}
	inst, err := t.npcManager.Spawn(persona)
	if err != nil {
		return err
	}
	events, err := t.game.SeatPlayer(sevens.InvalidSeat, sevens.Player{
		ID:   inst.PlayerID,
		Name: inst.Persona.Name,
		NPC:  true,
	})
	if err != nil {
		t.npcManager.Despawn(inst.PlayerID)
		return err
	}
	seat := events[0].Seat
	t.members[inst.PlayerID] = &member{playerID: inst.PlayerID, name: inst.Persona.Name, seat: seat, npc: true}
	t.apply(events, "", e.Timestamp)

	t.log.Info().
		Str(logging.PlayerIDKey, inst.PlayerID).
		Int(logging.SeatNumKey, seat).
		Str("persona", inst.Persona.ID).
		Msg("NPC seated")
	return nil
}

// apply publishes events to every member except the one named and updates
// the actor's timers from the resulting state.
func (t *Table) apply(events []sevens.Event, except string, now time.Time) {
	if len(events) == 0 {
		return
	}
	t.broadcast(events, except)

	turnMoved := false
	var resolved *sevens.Event
	for i := range events {
		ev := &events[i]
		switch ev.Type {
		case sevens.EventRoundStarted:
			t.nextRoundAt = time.Time{}
			metrics.Metrics.RoundStarted()
			t.log.Info().Uint32(logging.RoundNumKey, ev.Round).Int("dealer", ev.Seat).Msg("Round started")
		case sevens.EventTurnAdvanced:
			turnMoved = true
		case sevens.EventSeatVacated:
			t.dropMember(ev.PlayerID)
		case sevens.EventRoundResolved:
			resolved = ev
		}
	}

	if resolved != nil {
		t.handleRoundEnd(resolved, now)
		t.resync()
	}
	if t.game.Turn() == sevens.InvalidSeat {
		t.clearActionTimeoutLocked()
	} else if turnMoved {
		t.onTurn(t.game.Turn(), now)
	}
}

func (t *Table) handleRoundEnd(ev *sevens.Event, now time.Time) {
	res := ev.Result
	forfeit := res != nil && res.Forfeit
	metrics.Metrics.RoundResolved(forfeit)
	t.log.Info().
		Uint32(logging.RoundNumKey, ev.Round).
		Int64("pot", ev.Pot).
		Bool("forfeit", forfeit).
		Msg("Round resolved")

	t.clearActionTimeoutLocked()
	t.dispatchRoundEndHooks(ev)

	// Schedule next round from actor tick (no goroutine self-submit). NPCs
	// alone never keep a table dealing.
	if t.Config.NextRoundDelay > 0 && t.connectedLocked() > 0 && t.game.ReadyCount() >= t.Config.Game.MinSeats {
		t.nextRoundAt = now.Add(t.Config.NextRoundDelay)
	} else {
		t.nextRoundAt = time.Time{}
	}
}

func (t *Table) dispatchRoundEndHooks(ev *sevens.Event) {
	if len(t.roundEndHooks) == 0 || ev.Result == nil {
		return
	}
	snap := t.game.Snapshot(sevens.Omniscient)
	info := RoundEndInfo{
		TableID:  t.ID,
		Round:    ev.Round,
		Hands:    snap.LastHands,
		Result:   snap.LastResult,
		Snapshot: snap,
	}
	hooks := append([]RoundEndHook(nil), t.roundEndHooks...)
	for _, hook := range hooks {
		go func(cb RoundEndHook) {
			defer func() {
				if r := recover(); r != nil {
					t.log.Error().Interface("panic", r).Msg("round end hook panic")
				}
			}()
			cb(info)
		}(hook)
	}
}

func (t *Table) onTurn(seat int, now time.Time) {
	t.turnToken++
	t.turnSeat = seat
	if t.Config.TurnTimeout > 0 {
		t.actionDeadline = now.Add(t.Config.TurnTimeout)
	}
	m := t.memberAt(seat)
	if m != nil && m.npc {
		t.scheduleNPCAction(m, t.turnToken)
	}
}

func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	now := time.Now()
	if !t.actionDeadline.IsZero() && !now.Before(t.actionDeadline) {
		if err := t.handleTimeout(now); err != nil {
			t.log.Error().Err(err).Msg("timeout handler failed")
		}
	}
	if !t.nextRoundAt.IsZero() && !now.Before(t.nextRoundAt) {
		t.nextRoundAt = time.Time{}
		t.startDelayedRoundLocked(now)
	}
	t.updateEmptySinceLocked(now)
}

func (t *Table) startDelayedRoundLocked(now time.Time) {
	if t.connectedLocked() == 0 {
		t.log.Debug().Msg("delayed round start skipped, nobody connected")
		return
	}
	events, err := t.game.StartRound(sevens.InvalidSeat)
	if err != nil {
		t.log.Debug().Err(err).Msg("delayed round start skipped")
		return
	}
	t.apply(events, "", now)
}

func (t *Table) handleTimeout(now time.Time) error {
	seat := t.game.Turn()
	if seat == sevens.InvalidSeat || seat != t.turnSeat {
		t.clearActionTimeoutLocked()
		return nil
	}
	t.log.Info().Int(logging.SeatNumKey, seat).Msg("Turn timed out")
	metrics.Metrics.TimeoutAction()
	return t.actByDefault(now)
}

// actByDefault plays the default action for the seat holding the turn.
func (t *Table) actByDefault(now time.Time) error {
	seat, action, ok := t.game.TimeoutAction()
	if !ok {
		t.clearActionTimeoutLocked()
		return nil
	}
	events, err := t.game.ApplyAction(seat, action)
	if err != nil {
		// The default can only fail on a broken state.
		return fmt.Errorf("default %s for seat %d: %w", action.Kind, seat, err)
	}
	t.apply(events, "", now)
	return nil
}

// SubmitEvent sends an event to the actor and waits for the result.
func (t *Table) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Stop shuts down the table actor
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) stopLocked() {
	t.closed = true
	t.nextRoundAt = time.Time{}
	t.clearActionTimeoutLocked()
	t.stopOnce.Do(func() {
		if t.npcManager != nil {
			for id, m := range t.members {
				if m.npc {
					t.npcManager.Despawn(id)
				}
			}
		}
		close(t.done)
	})
}

func (t *Table) clearActionTimeoutLocked() {
	t.turnSeat = sevens.InvalidSeat
	t.actionDeadline = time.Time{}
}

func (t *Table) updateEmptySinceLocked(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	if t.connectedLocked() == 0 && t.reserved == 0 && !t.game.InRound() {
		if t.emptySince.IsZero() {
			t.emptySince = now
		}
		return
	}
	t.emptySince = time.Time{}
}

func (t *Table) connectedLocked() int {
	n := 0
	for _, m := range t.members {
		if m.connID != "" {
			n++
		}
	}
	return n
}

func (t *Table) dropMember(playerID string) {
	m := t.members[playerID]
	if m == nil {
		return
	}
	delete(t.members, playerID)
	if m.npc && t.npcManager != nil {
		t.npcManager.Despawn(playerID)
	}
}

func (t *Table) memberAt(seat int) *member {
	for _, m := range t.members {
		if m.seat == seat {
			return m
		}
	}
	return nil
}

func normalizeName(raw, playerID string) string {
	name := strings.TrimSpace(raw)
	if name != "" {
		return name
	}
	id := playerID
	if len(id) > 6 {
		id = id[:6]
	}
	return "player-" + id
}

// TryReserve holds a seat for a join that has not reached the actor yet.
// Every successful TryReserve is followed by a Join with Reserved set, or by
// Release.
func (t *Table) TryReserve() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.game.SeatedCount()+t.reserved >= t.Config.Game.MaxSeats {
		return false
	}
	t.reserved++
	t.emptySince = time.Time{}
	return true
}

// Release returns a reservation whose join was never submitted.
func (t *Table) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reserved > 0 {
		t.reserved--
	}
	t.updateEmptySinceLocked(time.Now())
}

// IsIdleFor reports whether the table has had no connected players, no
// pending joins and no round in progress for at least ttl.
func (t *Table) IsIdleFor(ttl time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return true
	}
	if t.emptySince.IsZero() {
		return false
	}
	return time.Since(t.emptySince) >= ttl
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Snapshot returns the table as seen by viewer.
func (t *Table) Snapshot(viewer int) sevens.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.game.Snapshot(viewer)
}

// Info summarizes the table for listings.
func (t *Table) Info() protocol.TableInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info := protocol.TableInfo{
		ID:       t.ID,
		Seated:   int32(t.game.SeatedCount()),
		MaxSeats: int32(t.Config.Game.MaxSeats),
		State:    t.game.State(),
	}
	if snap := t.game.Snapshot(sevens.Omniscient); snap.Round != nil {
		info.Round = snap.Round.Number
	}
	return info
}

// SeatOf returns the seat held by playerID, or sevens.InvalidSeat.
func (t *Table) SeatOf(playerID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m := t.members[playerID]; m != nil {
		return m.seat
	}
	return sevens.InvalidSeat
}

// AddRoundEndHook registers a post-settlement callback.
func (t *Table) AddRoundEndHook(hook RoundEndHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	t.roundEndHooks = append(t.roundEndHooks, hook)
	t.mu.Unlock()
}

// --- NPC support ---

// scheduleNPCAction asks the brain now and hands the decision back to the
// actor after the persona's think delay.
func (t *Table) scheduleNPCAction(m *member, token uint64) {
	if t.npcManager == nil {
		return
	}
	decision := t.npcManager.OnTurn(m.playerID, t.game.Snapshot(m.seat))
	delay := t.npcManager.GetThinkDelay(m.playerID)
	playerID := m.playerID

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-t.done:
			return
		}
		err := t.SubmitEvent(Event{
			Type:     EventNPCAction,
			PlayerID: playerID,
			Action:   decision.ToAction(),
			Token:    token,
		})
		if err != nil && !errors.Is(err, ErrTableClosed) {
			t.log.Warn().Str(logging.PlayerIDKey, playerID).Err(err).Msg("NPC action failed")
		}
	}()
}

// --- Delivery ---

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}

// broadcast numbers each event once and sends every member its own view.
func (t *Table) broadcast(events []sevens.Event, except string) {
	sent := 0
	for _, ev := range events {
		seq := t.nextSeq()
		for id, m := range t.members {
			if id == except || m.connID == "" {
				continue
			}
			if t.send(m, codec.EventToProto(t.ID, seq, ev.ViewFor(m.seat))) {
				sent++
			}
		}
	}
	metrics.Metrics.EventsSent(sent)
}

// resync sends every connected member its full view. Seq is the last event
// the view includes.
func (t *Table) resync() {
	for _, m := range t.members {
		if m.connID == "" {
			continue
		}
		t.send(m, &protocol.Snapshot{
			TableID: t.ID,
			Seq:     t.serverSeq,
			Table:   codec.SnapshotToProto(t.game.Snapshot(m.seat)),
		})
	}
}

func (t *Table) send(m *member, msg protocol.Message) bool {
	if m.connID == "" || t.sink == nil {
		return false
	}
	if t.sink.Deliver(m.connID, msg) {
		return true
	}
	// The sink drops the connection; its ConnLost arrives as a later event.
	t.log.Warn().
		Str(logging.PlayerIDKey, m.playerID).
		Str(logging.ConnIDKey, m.connID).
		Msg("Delivery failed, detaching connection")
	m.connID = ""
	return false
}
