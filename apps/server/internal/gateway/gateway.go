package gateway

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"sevens-lite/apps/server/internal/codec"
	"sevens-lite/apps/server/internal/lobby"
	"sevens-lite/apps/server/internal/logging"
	"sevens-lite/apps/server/internal/metrics"
	"sevens-lite/apps/server/internal/table"
	"sevens-lite/protocol"
	"sevens-lite/sevens"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	errNotMember      = errors.New("not a member of this table")
	errWrongDirection = errors.New("server message sent by client")
	errRateLimited    = errors.New("too many messages")
)

// Options tune per-connection limits.
type Options struct {
	SendQueue    int
	ReadLimit    int64
	PongWait     time.Duration
	PingPeriod   time.Duration
	WriteWait    time.Duration
	MaxBadFrames int
	// RateLimit is inbound messages per second; RateBurst the bucket size.
	RateLimit rate.Limit
	RateBurst int
}

func DefaultOptions() Options {
	return Options{
		SendQueue:    256,
		ReadLimit:    65536,
		PongWait:     60 * time.Second,
		PingPeriod:   30 * time.Second,
		WriteWait:    10 * time.Second,
		MaxBadFrames: 5,
		RateLimit:    20,
		RateBurst:    40,
	}
}

type outbound struct {
	frameType int
	data      []byte
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID       string
	PlayerID string
	Name     string
	Conn     *websocket.Conn
	Send     chan outbound
	Gateway  *Gateway

	// frameType is the WebSocket message type of the last good inbound
	// frame; replies use the matching codec.
	frameType atomic.Int32
	limiter   *rate.Limiter
	badFrames int

	// Tables this connection has joined. Only the read pump touches it.
	tables map[string]*table.Table

	closeOnce sync.Once
	closed    chan struct{}
	log       zerolog.Logger
}

// Gateway manages WebSocket connections and routes their messages to tables.
type Gateway struct {
	connections cmap.ConcurrentMap // connID -> *Connection
	lobby       *lobby.Lobby
	opts        Options
	upgrader    websocket.Upgrader
	log         zerolog.Logger
}

// New creates a new Gateway instance
func New(lby *lobby.Lobby, opts Options) *Gateway {
	return &Gateway{
		connections: cmap.New(),
		lobby:       lby,
		opts:        opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: logging.Component("gateway"),
	}
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("Upgrade error")
		return
	}

	playerID := uuid.NewString()
	c := &Connection{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Name:     "player-" + playerID[:6],
		Conn:     conn,
		Send:     make(chan outbound, g.opts.SendQueue),
		Gateway:  g,
		limiter:  rate.NewLimiter(g.opts.RateLimit, g.opts.RateBurst),
		tables:   make(map[string]*table.Table),
		closed:   make(chan struct{}),
	}
	c.frameType.Store(websocket.BinaryMessage)
	c.log = g.log.With().Str(logging.ConnIDKey, c.ID).Str(logging.PlayerIDKey, playerID).Logger()
	g.connections.Set(c.ID, c)
	metrics.Metrics.ConnectionOpened()

	c.log.Info().Int("total", g.connections.Count()).Msg("Client connected")

	go c.readPump()
	go c.writePump()
}

// Deliver implements table.Sink. A connection whose queue is full is closed
// rather than skipped so it never sees a gap in a table's event sequence.
func (g *Gateway) Deliver(connID string, m protocol.Message) bool {
	v, ok := g.connections.Get(connID)
	if !ok {
		return false
	}
	c := v.(*Connection)
	if c.isClosed() {
		return false
	}
	if !c.enqueue(m) {
		metrics.Metrics.SlowConsumer()
		c.log.Warn().Str(logging.MsgTypeKey, m.Kind().String()).Msg("Send queue full, disconnecting")
		c.close()
		return false
	}
	return true
}

// ConnectionCount is the number of open connections.
func (g *Gateway) ConnectionCount() int {
	return g.connections.Count()
}

// CloseAll drops every connection.
func (g *Gateway) CloseAll() {
	for _, v := range g.connections.Items() {
		v.(*Connection).close()
	}
}

func (c *Connection) codec() protocol.Codec {
	if int(c.frameType.Load()) == websocket.TextMessage {
		return protocol.JSON{}
	}
	return protocol.Binary{}
}

func (c *Connection) enqueue(m protocol.Message) bool {
	frameType := int(c.frameType.Load())
	cd := c.codec()
	data, err := cd.Encode(m)
	if err != nil {
		c.log.Error().Err(err).Str(logging.MsgTypeKey, m.Kind().String()).Msg("Encode failed")
		return true
	}
	if c.isClosed() {
		return false
	}
	select {
	case c.Send <- outbound{frameType: frameType, data: data}:
		return true
	default:
		return false
	}
}

// close stops the connection. The write pump flushes what is already
// queued, sends a close frame and closes the socket.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

func (c *Connection) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.close()
		c.Gateway.removeConnection(c)
	}()

	opts := c.Gateway.opts
	c.Conn.SetReadLimit(opts.ReadLimit)
	c.Conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(opts.PongWait))
		return nil
	})

	for {
		messageType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("Read error")
			}
			return
		}
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		c.frameType.Store(int32(messageType))

		if !c.limiter.Allow() {
			metrics.Metrics.Frame("rejected")
			c.sendError("", errRateLimited)
			continue
		}

		msg, err := c.codec().Decode(data)
		if err != nil {
			metrics.Metrics.Frame("malformed")
			c.badFrames++
			c.log.Debug().Err(err).Int("badFrames", c.badFrames).Msg("Bad frame")
			c.sendError("", err)
			if c.badFrames > opts.MaxBadFrames {
				c.log.Warn().Msg("Too many bad frames, closing")
				return
			}
			continue
		}
		if !msg.Kind().FromClient() {
			metrics.Metrics.Frame("rejected")
			c.sendError(protocol.TableOf(msg), errWrongDirection)
			continue
		}
		metrics.Metrics.Frame("ok")
		c.handleMessage(msg)
	}
}

func (c *Connection) handleMessage(msg protocol.Message) {
	c.log.Debug().Str(logging.MsgTypeKey, msg.Kind().String()).Str(logging.TableIDKey, protocol.TableOf(msg)).Msg("Received")

	switch m := msg.(type) {
	case *protocol.Join:
		c.handleJoin(m)
	case *protocol.Leave:
		c.handleLeave(m)
	case *protocol.Action:
		c.submit(m.TableID, m.SeatID, table.Event{
			Type:   table.EventAction,
			Action: codec.ProtoToAction(m),
		})
	case *protocol.Start:
		c.submit(m.TableID, m.SeatID, table.Event{Type: table.EventStartRound})
	case *protocol.AddBot:
		c.submit(m.TableID, sevens.InvalidSeat, table.Event{Type: table.EventAddBot, Persona: m.Persona})
	case *protocol.ListTables:
		c.reply(&protocol.TableList{Tables: c.Gateway.lobby.List()})
	default:
		c.log.Warn().Str(logging.MsgTypeKey, msg.Kind().String()).Msg("Unhandled message")
	}
}

func (c *Connection) handleJoin(m *protocol.Join) {
	if _, ok := c.tables[m.TableID]; ok && m.TableID != "" {
		c.sendError(m.TableID, sevens.ErrAlreadySeated)
		return
	}
	lby := c.Gateway.lobby
	t, err := lby.FindOrCreate(lobby.Criteria{TableID: m.TableID, NewTable: m.NewTable}, c.Gateway)
	if err != nil {
		c.sendError(m.TableID, err)
		return
	}

	name := m.DisplayName
	if name == "" {
		name = c.Name
	}
	err = t.SubmitEvent(table.Event{
		Type:     table.EventJoin,
		PlayerID: c.PlayerID,
		ConnID:   c.ID,
		Name:     name,
		Reserved: true,
	})
	if err != nil {
		c.sendError(t.ID, err)
		lby.RemoveIfEmpty(t.ID)
		return
	}
	c.tables[t.ID] = t
	c.log.Info().Str(logging.TableIDKey, t.ID).Msg("Joined table")
}

func (c *Connection) handleLeave(m *protocol.Leave) {
	t, err := c.member(m.TableID, m.SeatID)
	if err != nil {
		c.sendError(m.TableID, err)
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventLeave, PlayerID: c.PlayerID}); err != nil {
		c.sendError(m.TableID, err)
	}
	delete(c.tables, m.TableID)
	c.Gateway.lobby.RemoveIfEmpty(m.TableID)
}

// submit forwards a seat-scoped request to a table the connection belongs
// to. A negative seat skips the seat check.
func (c *Connection) submit(tableID string, seat int32, e table.Event) {
	t, err := c.member(tableID, seat)
	if err != nil {
		c.sendError(tableID, err)
		return
	}
	e.PlayerID = c.PlayerID
	if err := t.SubmitEvent(e); err != nil {
		c.sendError(tableID, err)
	}
}

func (c *Connection) member(tableID string, seat int32) (*table.Table, error) {
	t, ok := c.tables[tableID]
	if !ok {
		return nil, pkgerrors.Wrapf(errNotMember, "table %q", tableID)
	}
	if seat >= 0 && int(seat) != t.SeatOf(c.PlayerID) {
		return nil, pkgerrors.Wrapf(sevens.ErrInvalidSeat, "seat %d is not yours", seat)
	}
	return t, nil
}

func (c *Connection) reply(m protocol.Message) {
	if !c.enqueue(m) {
		c.log.Warn().Str(logging.MsgTypeKey, m.Kind().String()).Msg("Send queue full, disconnecting")
		c.close()
	}
}

func (c *Connection) sendError(tableID string, err error) {
	c.reply(&protocol.Error{TableID: tableID, Code: errorCode(err), Reason: err.Error()})
}

// errorCode extends codec.ErrorCode with the errors only the gateway and
// registry raise.
func errorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, errNotMember), errors.Is(err, table.ErrNotMember):
		return protocol.CodeNotMember
	case errors.Is(err, errWrongDirection):
		return protocol.CodeWrongDirection
	case errors.Is(err, errRateLimited):
		return protocol.CodeRateLimited
	case errors.Is(err, lobby.ErrTableNotFound), errors.Is(err, table.ErrTableClosed):
		return protocol.CodeTableNotFound
	}
	return codec.ErrorCode(err)
}

func (c *Connection) writePump() {
	opts := c.Gateway.opts
	ticker := time.NewTicker(opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		c.Conn.Close()
	}()

	for {
		select {
		case out := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.Conn.WriteMessage(out.frameType, out.data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			for {
				select {
				case out := <-c.Send:
					if err := c.Conn.WriteMessage(out.frameType, out.data); err != nil {
						return
					}
					continue
				default:
				}
				break
			}
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// removeConnection detaches c from every table it joined. Each table sees a
// ConnLost after everything c sent before it.
func (g *Gateway) removeConnection(c *Connection) {
	for id, t := range c.tables {
		if err := t.SubmitEvent(table.Event{Type: table.EventConnLost, PlayerID: c.PlayerID}); err != nil &&
			!errors.Is(err, table.ErrTableClosed) {
			c.log.Warn().Str(logging.TableIDKey, id).Err(err).Msg("ConnLost failed")
		}
		g.lobby.RemoveIfEmpty(id)
	}
	c.tables = nil
	g.connections.Remove(c.ID)
	metrics.Metrics.ConnectionClosed()
	c.log.Info().Int("total", g.connections.Count()).Msg("Client disconnected")
}
