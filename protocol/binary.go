package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"sevens-lite/card"
	"sevens-lite/sevens"
)

// Binary is the binary-frame codec in protobuf wire format.
//
//	Envelope { 1 version; 2 kind; 3 table_id; 4 seq; 5 body }
//
// Field numbers of each body are listed next to its encoder. Unknown fields
// are skipped, so fields may be added without bumping Version.
type Binary struct{}

const (
	envVersion protowire.Number = 1
	envKind    protowire.Number = 2
	envTableID protowire.Number = 3
	envSeq     protowire.Number = 4
	envBody    protowire.Number = 5
)

func (Binary) Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode nil message")
	}
	var body encoder
	if err := encodeBody(&body, m); err != nil {
		return nil, err
	}
	var e encoder
	e.uint(envVersion, Version)
	e.uint(envKind, uint64(m.Kind()))
	e.string(envTableID, TableOf(m))
	e.uint(envSeq, seqOf(m))
	e.bytes(envBody, body.b)
	return e.b, nil
}

func (Binary) Decode(data []byte) (m Message, err error) {
	defer guard(&m, &err)
	if len(data) == 0 {
		return nil, malformed("empty frame", nil)
	}

	var version, kind, seq uint64
	var tableID string
	var body []byte
	err = walk(data, func(f field) error {
		switch f.num {
		case envVersion:
			return f.varint(&version)
		case envKind:
			return f.varint(&kind)
		case envTableID:
			return f.string(&tableID)
		case envSeq:
			return f.varint(&seq)
		case envBody:
			return f.raw(&body)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, &DecodeError{Kind: VersionMismatch, Detail: fmt.Sprintf("got v%d, want v%d", version, Version)}
	}
	m = newMessage(Kind(kind))
	if m == nil {
		return nil, &DecodeError{Kind: UnknownVariant, Detail: fmt.Sprintf("kind %d", kind)}
	}
	if err := decodeBody(body, m); err != nil {
		return nil, err
	}
	setEnvelope(m, tableID, seq)
	return m, nil
}

func encodeBody(e *encoder, m Message) error {
	switch v := m.(type) {
	case *Join:
		// 1 display_name; 2 new_table
		e.string(1, v.DisplayName)
		e.bool(2, v.NewTable)
	case *Leave:
		// 1 seat
		e.sint(1, int64(v.SeatID))
	case *Action:
		// 1 seat; 2 action; 3 amount
		e.sint(1, int64(v.SeatID))
		e.uint(2, uint64(v.Type))
		e.sint(3, v.Amount)
	case *Start:
		// 1 seat
		e.sint(1, int64(v.SeatID))
	case *AddBot:
		// 1 persona
		e.string(1, v.Persona)
	case *ListTables:
	case *Joined:
		// 1 seat; 2 player_id; 3 snapshot
		e.sint(1, int64(v.SeatID))
		e.string(2, v.PlayerID)
		e.message(3, func(s *encoder) { encodeTable(s, &v.Snapshot) })
	case *Snapshot:
		// 1 table
		e.message(1, func(s *encoder) { encodeTable(s, &v.Table) })
	case *Event:
		encodeEvent(e, v)
	case *Error:
		// 1 code; 2 reason
		e.uint(1, uint64(v.Code))
		e.string(2, v.Reason)
	case *TableList:
		// 1 tables
		for i := range v.Tables {
			t := &v.Tables[i]
			e.message(1, func(s *encoder) { encodeTableInfo(s, t) })
		}
	default:
		return fmt.Errorf("encode: unsupported message %T", m)
	}
	return nil
}

func decodeBody(b []byte, m Message) error {
	switch v := m.(type) {
	case *Join:
		return walk(b, func(f field) error {
			switch f.num {
			case 1:
				return f.string(&v.DisplayName)
			case 2:
				return f.bool(&v.NewTable)
			}
			return nil
		})
	case *Leave:
		return walk(b, func(f field) error {
			if f.num == 1 {
				return f.sint32(&v.SeatID)
			}
			return nil
		})
	case *Action:
		return walk(b, func(f field) error {
			switch f.num {
			case 1:
				return f.sint32(&v.SeatID)
			case 2:
				var k uint64
				err := f.varint(&k)
				v.Type = sevens.ActionKind(k)
				return err
			case 3:
				return f.sint(&v.Amount)
			}
			return nil
		})
	case *Start:
		return walk(b, func(f field) error {
			if f.num == 1 {
				return f.sint32(&v.SeatID)
			}
			return nil
		})
	case *AddBot:
		return walk(b, func(f field) error {
			if f.num == 1 {
				return f.string(&v.Persona)
			}
			return nil
		})
	case *ListTables:
		return walk(b, func(field) error { return nil })
	case *Joined:
		return walk(b, func(f field) error {
			switch f.num {
			case 1:
				return f.sint32(&v.SeatID)
			case 2:
				return f.string(&v.PlayerID)
			case 3:
				return f.message(func(b []byte) error { return decodeTable(b, &v.Snapshot) })
			}
			return nil
		})
	case *Snapshot:
		return walk(b, func(f field) error {
			if f.num == 1 {
				return f.message(func(b []byte) error { return decodeTable(b, &v.Table) })
			}
			return nil
		})
	case *Event:
		return decodeEvent(b, v)
	case *Error:
		return walk(b, func(f field) error {
			switch f.num {
			case 1:
				var c uint64
				err := f.varint(&c)
				v.Code = ErrorCode(c)
				return err
			case 2:
				return f.string(&v.Reason)
			}
			return nil
		})
	case *TableList:
		return walk(b, func(f field) error {
			if f.num != 1 {
				return nil
			}
			var t TableInfo
			if err := f.message(func(b []byte) error { return decodeTableInfo(b, &t) }); err != nil {
				return err
			}
			v.Tables = append(v.Tables, t)
			return nil
		})
	}
	return &DecodeError{Kind: UnknownVariant, Detail: fmt.Sprintf("%T", m)}
}

// Event { 1 type; 2 round; 3 seat; 4 player_id; 5 name; 6 npc; 7 card;
// 8 face_up; 9 amount; 10 pot; 11 status; 12 reveals; 13 result }
func encodeEvent(e *encoder, v *Event) {
	e.uint(1, uint64(v.Type))
	e.uint(2, uint64(v.Round))
	e.sint(3, int64(v.Seat))
	e.string(4, v.PlayerID)
	e.string(5, v.Name)
	e.bool(6, v.NPC)
	e.uint(7, uint64(v.Card))
	e.bool(8, v.FaceUp)
	e.sint(9, v.Amount)
	e.sint(10, v.Pot)
	e.uint(11, uint64(v.Status))
	for i := range v.Reveals {
		r := &v.Reveals[i]
		e.message(12, func(s *encoder) { encodeReveal(s, r) })
	}
	if v.Result != nil {
		e.message(13, func(s *encoder) { encodeResult(s, v.Result) })
	}
}

func decodeEvent(b []byte, v *Event) error {
	return walk(b, func(f field) error {
		var u uint64
		switch f.num {
		case 1:
			err := f.varint(&u)
			v.Type = sevens.EventType(u)
			return err
		case 2:
			err := f.varint(&u)
			v.Round = uint32(u)
			return err
		case 3:
			return f.sint32(&v.Seat)
		case 4:
			return f.string(&v.PlayerID)
		case 5:
			return f.string(&v.Name)
		case 6:
			return f.bool(&v.NPC)
		case 7:
			err := f.varint(&u)
			v.Card = card.Card(u)
			return err
		case 8:
			return f.bool(&v.FaceUp)
		case 9:
			return f.sint(&v.Amount)
		case 10:
			return f.sint(&v.Pot)
		case 11:
			err := f.varint(&u)
			v.Status = sevens.RoundStatus(u)
			return err
		case 12:
			var r Reveal
			if err := f.message(func(b []byte) error { return decodeReveal(b, &r) }); err != nil {
				return err
			}
			v.Reveals = append(v.Reveals, r)
		case 13:
			v.Result = &Result{}
			return f.message(func(b []byte) error { return decodeResult(b, v.Result) })
		}
		return nil
	})
}

// TableSnapshot { 1 max_seats; 2 ante; 3 max_bet; 4 max_cards; 5 state;
// 6 round; 7 seats; 8 deck_remaining; 9 last_hands; 10 last_result; 11 variant }
func encodeTable(e *encoder, t *TableSnapshot) {
	e.sint(1, int64(t.MaxSeats))
	e.sint(2, t.Ante)
	e.sint(3, t.MaxBet)
	e.sint(4, int64(t.MaxCards))
	e.uint(5, uint64(t.State))
	if r := t.Round; r != nil {
		// RoundState { 1 number; 2 status; 3 dealer; 4 turn; 5 pot; 6 current bet }
		e.message(6, func(s *encoder) {
			s.uint(1, uint64(r.Number))
			s.uint(2, uint64(r.Status))
			s.sint(3, int64(r.Dealer))
			s.sint(4, int64(r.Turn))
			s.sint(5, r.Pot)
			s.sint(6, r.CurrentBet)
		})
	}
	for i := range t.Seats {
		st := &t.Seats[i]
		e.message(7, func(s *encoder) { encodeSeat(s, st) })
	}
	e.sint(8, int64(t.DeckRemaining))
	for i := range t.LastHands {
		r := &t.LastHands[i]
		e.message(9, func(s *encoder) { encodeReveal(s, r) })
	}
	if t.LastResult != nil {
		e.message(10, func(s *encoder) { encodeResult(s, t.LastResult) })
	}
	e.uint(11, uint64(t.Variant))
}

func decodeTable(b []byte, t *TableSnapshot) error {
	return walk(b, func(f field) error {
		var u uint64
		switch f.num {
		case 1:
			return f.sint32(&t.MaxSeats)
		case 2:
			return f.sint(&t.Ante)
		case 3:
			return f.sint(&t.MaxBet)
		case 4:
			return f.sint32(&t.MaxCards)
		case 5:
			err := f.varint(&u)
			t.State = sevens.TableState(u)
			return err
		case 6:
			r := &RoundState{}
			t.Round = r
			return f.message(func(b []byte) error {
				return walk(b, func(f field) error {
					var u uint64
					switch f.num {
					case 1:
						err := f.varint(&u)
						r.Number = uint32(u)
						return err
					case 2:
						err := f.varint(&u)
						r.Status = sevens.RoundStatus(u)
						return err
					case 3:
						return f.sint32(&r.Dealer)
					case 4:
						return f.sint32(&r.Turn)
					case 5:
						return f.sint(&r.Pot)
					case 6:
						return f.sint(&r.CurrentBet)
					}
					return nil
				})
			})
		case 7:
			var st SeatState
			if err := f.message(func(b []byte) error { return decodeSeat(b, &st) }); err != nil {
				return err
			}
			t.Seats = append(t.Seats, st)
		case 8:
			return f.sint32(&t.DeckRemaining)
		case 9:
			var r Reveal
			if err := f.message(func(b []byte) error { return decodeReveal(b, &r) }); err != nil {
				return err
			}
			t.LastHands = append(t.LastHands, r)
		case 10:
			t.LastResult = &Result{}
			return f.message(func(b []byte) error { return decodeResult(b, t.LastResult) })
		case 11:
			err := f.varint(&u)
			t.Variant = uint32(u)
			return err
		}
		return nil
	})
}

// SeatState { 1 index; 2 player_id; 3 name; 4 npc; 5 status; 6 chips;
// 7 committed; 8 dealt; 9 up; 10 down; 11 value }
func encodeSeat(e *encoder, s *SeatState) {
	e.sint(1, int64(s.Index))
	e.string(2, s.PlayerID)
	e.string(3, s.Name)
	e.bool(4, s.NPC)
	e.uint(5, uint64(s.Status))
	e.sint(6, s.Chips)
	e.sint(7, s.Committed)
	e.bool(8, s.Dealt)
	e.bytes(9, card.Cards2bytes(s.Up))
	e.bytes(10, card.Cards2bytes(s.Down))
	if s.Value != nil {
		e.message(11, func(sub *encoder) { encodeValue(sub, s.Value) })
	}
}

func decodeSeat(b []byte, s *SeatState) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			return f.sint32(&s.Index)
		case 2:
			return f.string(&s.PlayerID)
		case 3:
			return f.string(&s.Name)
		case 4:
			return f.bool(&s.NPC)
		case 5:
			var u uint64
			err := f.varint(&u)
			s.Status = sevens.SeatStatus(u)
			return err
		case 6:
			return f.sint(&s.Chips)
		case 7:
			return f.sint(&s.Committed)
		case 8:
			return f.bool(&s.Dealt)
		case 9:
			return f.cards(&s.Up)
		case 10:
			return f.cards(&s.Down)
		case 11:
			s.Value = &HandValue{}
			return f.message(func(b []byte) error { return decodeValue(b, s.Value) })
		}
		return nil
	})
}

// HandValue { 1 total7; 2 bust7; 3 total27; 4 bust27 }
func encodeValue(e *encoder, v *HandValue) {
	e.sint(1, int64(v.Total7))
	e.bool(2, v.Bust7)
	e.sint(3, int64(v.Total27))
	e.bool(4, v.Bust27)
}

func decodeValue(b []byte, v *HandValue) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			return f.sint32(&v.Total7)
		case 2:
			return f.bool(&v.Bust7)
		case 3:
			return f.sint32(&v.Total27)
		case 4:
			return f.bool(&v.Bust27)
		}
		return nil
	})
}

// Reveal { 1 seat; 2 cards; 3 value }
func encodeReveal(e *encoder, r *Reveal) {
	e.sint(1, int64(r.Seat))
	e.bytes(2, card.Cards2bytes(r.Cards))
	e.message(3, func(s *encoder) { encodeValue(s, &r.Value) })
}

func decodeReveal(b []byte, r *Reveal) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			return f.sint32(&r.Seat)
		case 2:
			return f.cards(&r.Cards)
		case 3:
			return f.message(func(b []byte) error { return decodeValue(b, &r.Value) })
		}
		return nil
	})
}

// Result { 1 pot; 2 forfeit; 3 winners7; 4 winners27; 5 payouts }
// Payout { 1 seat; 2 amount }
func encodeResult(e *encoder, r *Result) {
	e.sint(1, r.Pot)
	e.bool(2, r.Forfeit)
	for _, w := range r.Winners7 {
		e.sintAlways(3, int64(w))
	}
	for _, w := range r.Winners27 {
		e.sintAlways(4, int64(w))
	}
	for _, p := range r.Payouts {
		p := p
		e.message(5, func(s *encoder) {
			s.sint(1, int64(p.Seat))
			s.sint(2, p.Amount)
		})
	}
}

func decodeResult(b []byte, r *Result) error {
	return walk(b, func(f field) error {
		var w int32
		switch f.num {
		case 1:
			return f.sint(&r.Pot)
		case 2:
			return f.bool(&r.Forfeit)
		case 3:
			err := f.sint32(&w)
			r.Winners7 = append(r.Winners7, w)
			return err
		case 4:
			err := f.sint32(&w)
			r.Winners27 = append(r.Winners27, w)
			return err
		case 5:
			var p Payout
			err := f.message(func(b []byte) error {
				return walk(b, func(f field) error {
					switch f.num {
					case 1:
						return f.sint32(&p.Seat)
					case 2:
						return f.sint(&p.Amount)
					}
					return nil
				})
			})
			r.Payouts = append(r.Payouts, p)
			return err
		}
		return nil
	})
}

// TableInfo { 1 id; 2 seated; 3 max_seats; 4 state; 5 round }
func encodeTableInfo(e *encoder, t *TableInfo) {
	e.string(1, t.ID)
	e.sint(2, int64(t.Seated))
	e.sint(3, int64(t.MaxSeats))
	e.uint(4, uint64(t.State))
	e.uint(5, uint64(t.Round))
}

func decodeTableInfo(b []byte, t *TableInfo) error {
	return walk(b, func(f field) error {
		var u uint64
		switch f.num {
		case 1:
			return f.string(&t.ID)
		case 2:
			return f.sint32(&t.Seated)
		case 3:
			return f.sint32(&t.MaxSeats)
		case 4:
			err := f.varint(&u)
			t.State = sevens.TableState(u)
			return err
		case 5:
			err := f.varint(&u)
			t.Round = uint32(u)
			return err
		}
		return nil
	})
}
