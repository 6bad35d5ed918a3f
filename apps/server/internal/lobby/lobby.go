package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sevens-lite/apps/server/internal/logging"
	"sevens-lite/apps/server/internal/metrics"
	"sevens-lite/apps/server/internal/table"
	"sevens-lite/protocol"
	"sevens-lite/sevens"
	"sevens-lite/sevens/npc"

	"github.com/rs/zerolog"
)

var ErrTableNotFound = errors.New("table not found")

// Criteria selects the table a join lands on. TableID wins over NewTable;
// neither means any table with an open seat.
type Criteria struct {
	TableID  string
	NewTable bool
}

// Lobby manages all tables and seat reservations
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
	order  []string // creation order
	nextID uint64
	closed bool

	// Default table config
	defaultConfig table.Config
	npcManager    *npc.Manager
	hooks         []table.RoundEndHook

	log zerolog.Logger
}

// New creates a new lobby. Every table it creates gets hooks.
func New(cfg table.Config, npcMgr *npc.Manager, hooks ...table.RoundEndHook) *Lobby {
	return &Lobby{
		tables:        make(map[string]*table.Table),
		defaultConfig: cfg,
		npcManager:    npcMgr,
		hooks:         hooks,
		log:           logging.Component("lobby"),
	}
}

// FindOrCreate returns a table holding a seat reservation for the caller.
// The caller must follow up with a reserved Join or with Release.
func (l *Lobby) FindOrCreate(c Criteria, sink table.Sink) (*table.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, table.ErrTableClosed
	}

	if c.TableID != "" {
		t := l.tables[c.TableID]
		if t == nil {
			return nil, fmt.Errorf("%s: %w", c.TableID, ErrTableNotFound)
		}
		if !t.TryReserve() {
			return nil, fmt.Errorf("%s: %w", c.TableID, sevens.ErrTableFull)
		}
		return t, nil
	}

	if !c.NewTable {
		for _, id := range l.order {
			if t := l.tables[id]; t.TryReserve() {
				l.log.Debug().Str(logging.TableIDKey, id).Msg("QuickStart: joining existing table")
				return t, nil
			}
		}
	}

	t, err := l.createLocked(sink)
	if err != nil {
		return nil, err
	}
	if !t.TryReserve() {
		return nil, fmt.Errorf("%s: %w", t.ID, sevens.ErrTableFull)
	}
	return t, nil
}

func (l *Lobby) createLocked(sink table.Sink) (*table.Table, error) {
	l.nextID++
	tableID := fmt.Sprintf("table-%d", l.nextID)
	t, err := table.New(tableID, l.defaultConfig, sink, l.npcManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	for _, hook := range l.hooks {
		t.AddRoundEndHook(hook)
	}
	l.tables[tableID] = t
	l.order = append(l.order, tableID)
	metrics.Metrics.SetActiveTables(len(l.tables))

	l.log.Info().Str(logging.TableIDKey, tableID).Msg("Created table")
	return t, nil
}

// GetTable returns a table by ID
func (l *Lobby) GetTable(tableID string) (*table.Table, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t := l.tables[tableID]
	if t == nil {
		return nil, fmt.Errorf("%s: %w", tableID, ErrTableNotFound)
	}
	return t, nil
}

// List summarizes every table in creation order.
func (l *Lobby) List() []protocol.TableInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]protocol.TableInfo, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.tables[id].Info())
	}
	return out
}

// RemoveIfEmpty stops and forgets the table when nobody is connected to it,
// no join is pending and no round is running.
func (l *Lobby) RemoveIfEmpty(tableID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.tables[tableID]
	if t == nil || !t.IsIdleFor(0) {
		return false
	}
	l.removeLocked(tableID)
	return true
}

// Sweep removes tables idle for at least ttl and returns how many went.
func (l *Lobby) Sweep(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var idle []string
	for _, id := range l.order {
		if l.tables[id].IsIdleFor(ttl) {
			idle = append(idle, id)
		}
	}
	for _, id := range idle {
		l.removeLocked(id)
	}
	return len(idle)
}

// Run sweeps idle tables every interval until ctx is done.
func (l *Lobby) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(ttl); n > 0 {
				l.log.Debug().Int("removed", n).Msg("Swept idle tables")
			}
		}
	}
}

func (l *Lobby) removeLocked(tableID string) {
	t := l.tables[tableID]
	delete(l.tables, tableID)
	for i, id := range l.order {
		if id == tableID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	t.Stop()
	metrics.Metrics.SetActiveTables(len(l.tables))
	l.log.Info().Str(logging.TableIDKey, tableID).Msg("Removed table")
}

// Close stops every table. FindOrCreate fails afterwards.
func (l *Lobby) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for _, id := range append([]string(nil), l.order...) {
		l.removeLocked(id)
	}
}
