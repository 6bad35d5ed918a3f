package lobby

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sevens-lite/apps/server/internal/table"
	"sevens-lite/protocol"
	"sevens-lite/sevens"
)

type discardSink struct{}

func (discardSink) Deliver(string, protocol.Message) bool { return true }

func newTestLobby(t *testing.T, maxSeats int) *Lobby {
	t.Helper()
	g := sevens.DefaultConfig()
	g.MaxSeats = maxSeats
	l := New(table.Config{Game: g}, nil)
	t.Cleanup(l.Close)
	return l
}

func TestFindOrCreate_QuickStartFillsBeforeCreating(t *testing.T) {
	l := newTestLobby(t, 2)

	t1, err := l.FindOrCreate(Criteria{}, discardSink{})
	require.NoError(t, err)
	assert.Equal(t, "table-1", t1.ID)

	t2, err := l.FindOrCreate(Criteria{}, discardSink{})
	require.NoError(t, err)
	assert.Same(t, t1, t2)

	t3, err := l.FindOrCreate(Criteria{}, discardSink{})
	require.NoError(t, err)
	assert.Equal(t, "table-2", t3.ID)
}

func TestFindOrCreate_ByIDAndNewTable(t *testing.T) {
	l := newTestLobby(t, 2)

	_, err := l.FindOrCreate(Criteria{TableID: "table-9"}, discardSink{})
	assert.ErrorIs(t, err, ErrTableNotFound)

	t1, err := l.FindOrCreate(Criteria{NewTable: true}, discardSink{})
	require.NoError(t, err)
	t2, err := l.FindOrCreate(Criteria{NewTable: true}, discardSink{})
	require.NoError(t, err)
	assert.NotEqual(t, t1.ID, t2.ID)

	same, err := l.FindOrCreate(Criteria{TableID: t1.ID}, discardSink{})
	require.NoError(t, err)
	assert.Same(t, t1, same)

	_, err = l.FindOrCreate(Criteria{TableID: t1.ID}, discardSink{})
	assert.ErrorIs(t, err, sevens.ErrTableFull)
}

func TestFindOrCreate_ConcurrentQuickStartsShareTables(t *testing.T) {
	const players = 28
	l := newTestLobby(t, 7)

	var wg sync.WaitGroup
	errs := make(chan error, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := l.FindOrCreate(Criteria{}, discardSink{})
			if err != nil {
				errs <- err
				return
			}
			errs <- tbl.SubmitEvent(table.Event{
				Type:     table.EventJoin,
				PlayerID: fmt.Sprintf("p%d", i),
				ConnID:   fmt.Sprintf("c%d", i),
				Reserved: true,
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	infos := l.List()
	require.Len(t, infos, 4)
	for _, info := range infos {
		assert.Equal(t, int32(7), info.Seated)
	}
}

func TestRemoveIfEmpty(t *testing.T) {
	l := newTestLobby(t, 4)
	tbl, err := l.FindOrCreate(Criteria{}, discardSink{})
	require.NoError(t, err)

	// A pending reservation keeps the table alive.
	assert.False(t, l.RemoveIfEmpty(tbl.ID))

	require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventJoin, PlayerID: "alice", ConnID: "c1", Reserved: true}))
	assert.False(t, l.RemoveIfEmpty(tbl.ID))

	require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventConnLost, PlayerID: "alice"}))
	assert.True(t, l.RemoveIfEmpty(tbl.ID))
	assert.True(t, tbl.IsClosed())

	_, err = l.GetTable(tbl.ID)
	assert.ErrorIs(t, err, ErrTableNotFound)

	next, err := l.FindOrCreate(Criteria{}, discardSink{})
	require.NoError(t, err)
	assert.Equal(t, "table-2", next.ID, "ids are never reused")
}

func TestSweep_RemovesOnlyIdleTables(t *testing.T) {
	l := newTestLobby(t, 4)
	busy, err := l.FindOrCreate(Criteria{NewTable: true}, discardSink{})
	require.NoError(t, err)
	require.NoError(t, busy.SubmitEvent(table.Event{Type: table.EventJoin, PlayerID: "alice", ConnID: "c1", Reserved: true}))

	idle, err := l.FindOrCreate(Criteria{NewTable: true}, discardSink{})
	require.NoError(t, err)
	idle.Release()

	assert.Equal(t, 0, l.Sweep(time.Hour))
	assert.Equal(t, 1, l.Sweep(0))
	require.Len(t, l.List(), 1)
	assert.Equal(t, busy.ID, l.List()[0].ID)
}

func TestClose_StopsTables(t *testing.T) {
	l := newTestLobby(t, 4)
	tbl, err := l.FindOrCreate(Criteria{}, discardSink{})
	require.NoError(t, err)

	l.Close()
	assert.True(t, tbl.IsClosed())
	assert.Empty(t, l.List())
	_, err = l.FindOrCreate(Criteria{}, discardSink{})
	assert.ErrorIs(t, err, table.ErrTableClosed)
}
