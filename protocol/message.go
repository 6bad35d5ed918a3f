// Package protocol is the wire schema shared by the table server and its
// clients. Messages are plain data; Binary and JSON turn them into frames.
package protocol

import (
	"fmt"

	"sevens-lite/sevens"
)

// Version is bumped on any incompatible schema change.
const Version = 1

// Kind tags a message variant on the wire. Client kinds sit below 16.
type Kind uint32

const (
	KindJoin       Kind = 1
	KindLeave      Kind = 2
	KindAction     Kind = 3
	KindStart      Kind = 4
	KindAddBot     Kind = 5
	KindListTables Kind = 6

	KindJoined    Kind = 16
	KindSnapshot  Kind = 17
	KindEvent     Kind = 18
	KindError     Kind = 19
	KindTableList Kind = 20
)

var kindNames = map[Kind]string{
	KindJoin:       "join",
	KindLeave:      "leave",
	KindAction:     "action",
	KindStart:      "start",
	KindAddBot:     "add_bot",
	KindListTables: "list_tables",
	KindJoined:     "joined",
	KindSnapshot:   "snapshot",
	KindEvent:      "event",
	KindError:      "error",
	KindTableList:  "table_list",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// FromClient reports whether k travels client to server.
func (k Kind) FromClient() bool {
	return k < KindJoined
}

// Message is the closed set of protocol variants.
type Message interface {
	Kind() Kind
	isMessage()
}

// Join asks for a seat. An empty TableID means any open table unless
// NewTable is set.
type Join struct {
	TableID     string `json:"-"`
	DisplayName string `json:"display_name,omitempty"`
	NewTable    bool   `json:"new_table,omitempty"`
}

type Leave struct {
	TableID string `json:"-"`
	SeatID  int32  `json:"seat"`
}

type Action struct {
	TableID string            `json:"-"`
	SeatID  int32             `json:"seat"`
	Type    sevens.ActionKind `json:"action"`
	Amount  int64             `json:"amount,omitempty"`
}

// Start asks the table to deal the next round.
type Start struct {
	TableID string `json:"-"`
	SeatID  int32  `json:"seat"`
}

// AddBot fills an empty seat with an NPC. Persona may be empty.
type AddBot struct {
	TableID string `json:"-"`
	Persona string `json:"persona,omitempty"`
}

type ListTables struct{}

type Joined struct {
	TableID  string        `json:"-"`
	SeatID   int32         `json:"seat"`
	PlayerID string        `json:"player_id"`
	Snapshot TableSnapshot `json:"snapshot"`
}

type Snapshot struct {
	TableID string        `json:"-"`
	Seq     uint64        `json:"-"`
	Table   TableSnapshot `json:"table"`
}

// Event is one state change. Seq increases by one per event on a table.
type Event struct {
	TableID string `json:"-"`
	Seq     uint64 `json:"-"`

	Type     sevens.EventType   `json:"type"`
	Round    uint32             `json:"round,omitempty"`
	Seat     int32              `json:"seat"`
	PlayerID string             `json:"player_id,omitempty"`
	Name     string             `json:"name,omitempty"`
	NPC      bool               `json:"npc,omitempty"`
	Card     Card               `json:"card,omitempty"`
	FaceUp   bool               `json:"face_up,omitempty"`
	Amount   int64              `json:"amount,omitempty"`
	Pot      int64              `json:"pot,omitempty"`
	Status   sevens.RoundStatus `json:"status,omitempty"`
	Reveals  []Reveal           `json:"reveals,omitempty"`
	Result   *Result            `json:"result,omitempty"`
}

type Error struct {
	TableID string    `json:"-"`
	Code    ErrorCode `json:"code"`
	Reason  string    `json:"reason"`
}

type TableList struct {
	Tables []TableInfo `json:"tables"`
}

func (*Join) Kind() Kind       { return KindJoin }
func (*Leave) Kind() Kind      { return KindLeave }
func (*Action) Kind() Kind     { return KindAction }
func (*Start) Kind() Kind      { return KindStart }
func (*AddBot) Kind() Kind     { return KindAddBot }
func (*ListTables) Kind() Kind { return KindListTables }
func (*Joined) Kind() Kind     { return KindJoined }
func (*Snapshot) Kind() Kind   { return KindSnapshot }
func (*Event) Kind() Kind      { return KindEvent }
func (*Error) Kind() Kind      { return KindError }
func (*TableList) Kind() Kind  { return KindTableList }

func (*Join) isMessage()       {}
func (*Leave) isMessage()      {}
func (*Action) isMessage()     {}
func (*Start) isMessage()      {}
func (*AddBot) isMessage()     {}
func (*ListTables) isMessage() {}
func (*Joined) isMessage()     {}
func (*Snapshot) isMessage()   {}
func (*Event) isMessage()      {}
func (*Error) isMessage()      {}
func (*TableList) isMessage()  {}

func newMessage(k Kind) Message {
	switch k {
	case KindJoin:
		return &Join{}
	case KindLeave:
		return &Leave{}
	case KindAction:
		return &Action{}
	case KindStart:
		return &Start{}
	case KindAddBot:
		return &AddBot{}
	case KindListTables:
		return &ListTables{}
	case KindJoined:
		return &Joined{}
	case KindSnapshot:
		return &Snapshot{}
	case KindEvent:
		return &Event{}
	case KindError:
		return &Error{}
	case KindTableList:
		return &TableList{}
	}
	return nil
}

// TableOf returns the table id a message is addressed to or sent from.
func TableOf(m Message) string {
	switch v := m.(type) {
	case *Join:
		return v.TableID
	case *Leave:
		return v.TableID
	case *Action:
		return v.TableID
	case *Start:
		return v.TableID
	case *AddBot:
		return v.TableID
	case *Joined:
		return v.TableID
	case *Snapshot:
		return v.TableID
	case *Event:
		return v.TableID
	case *Error:
		return v.TableID
	}
	return ""
}

func seqOf(m Message) uint64 {
	switch v := m.(type) {
	case *Snapshot:
		return v.Seq
	case *Event:
		return v.Seq
	}
	return 0
}

func setEnvelope(m Message, tableID string, seq uint64) {
	switch v := m.(type) {
	case *Join:
		v.TableID = tableID
	case *Leave:
		v.TableID = tableID
	case *Action:
		v.TableID = tableID
	case *Start:
		v.TableID = tableID
	case *AddBot:
		v.TableID = tableID
	case *Joined:
		v.TableID = tableID
	case *Snapshot:
		v.TableID, v.Seq = tableID, seq
	case *Event:
		v.TableID, v.Seq = tableID, seq
	case *Error:
		v.TableID = tableID
	}
}
