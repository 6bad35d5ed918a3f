// Package codec converts game state into wire messages.
package codec

import (
	"errors"

	"sevens-lite/protocol"
	"sevens-lite/sevens"
)

// SnapshotToProto converts a viewer's sevens.Snapshot to its wire form.
func SnapshotToProto(snap sevens.Snapshot) protocol.TableSnapshot {
	ts := protocol.TableSnapshot{
		Variant:       uint32(snap.Variant),
		MaxSeats:      int32(snap.MaxSeats),
		Ante:          snap.Ante,
		MaxBet:        snap.MaxBet,
		MaxCards:      int32(snap.MaxCards),
		State:         snap.State,
		DeckRemaining: int32(snap.DeckRemaining),
		LastHands:     revealsToProto(snap.LastHands),
		LastResult:    resultToProto(snap.LastResult),
	}
	if r := snap.Round; r != nil {
		ts.Round = &protocol.RoundState{
			Number:     r.Number,
			Status:     r.Status,
			Dealer:     int32(r.Dealer),
			Turn:       int32(r.Turn),
			Pot:        r.Pot,
			CurrentBet: r.CurrentBet,
		}
	}
	for _, s := range snap.Seats {
		ss := protocol.SeatState{
			Index:     int32(s.Index),
			PlayerID:  s.PlayerID,
			Name:      s.Name,
			NPC:       s.NPC,
			Status:    s.Status,
			Chips:     s.Chips,
			Committed: s.Committed,
			Dealt:     s.Dealt,
		}
		if len(s.Up) > 0 {
			ss.Up = protocol.Cards(s.Up)
		}
		if len(s.Down) > 0 {
			ss.Down = protocol.Cards(s.Down)
		}
		if s.Value != nil {
			v := valueToProto(*s.Value)
			ss.Value = &v
		}
		ts.Seats = append(ts.Seats, ss)
	}
	return ts
}

// EventToProto converts an event already projected for its recipient.
func EventToProto(tableID string, seq uint64, e sevens.Event) *protocol.Event {
	return &protocol.Event{
		TableID:  tableID,
		Seq:      seq,
		Type:     e.Type,
		Round:    e.Round,
		Seat:     int32(e.Seat),
		PlayerID: e.PlayerID,
		Name:     e.Name,
		NPC:      e.NPC,
		Card:     e.Card,
		FaceUp:   e.FaceUp,
		Amount:   e.Amount,
		Pot:      e.Pot,
		Status:   e.Status,
		Reveals:  revealsToProto(e.Reveals),
		Result:   resultToProto(e.Result),
	}
}

// ProtoToAction converts a client Action to the engine's form.
func ProtoToAction(a *protocol.Action) sevens.Action {
	return sevens.Action{Kind: a.Type, Amount: a.Amount}
}

var errorCodes = []struct {
	err  error
	code protocol.ErrorCode
}{
	{sevens.ErrNotYourTurn, protocol.CodeNotYourTurn},
	{sevens.ErrIllegalAction, protocol.CodeIllegalAction},
	{sevens.ErrTableNotInProgress, protocol.CodeTableNotInProgress},
	{sevens.ErrInsufficientStake, protocol.CodeInsufficientStake},
	{sevens.ErrHandFull, protocol.CodeHandFull},
	{sevens.ErrAlreadySeated, protocol.CodeAlreadySeated},
	{sevens.ErrSeatOccupied, protocol.CodeSeatOccupied},
	{sevens.ErrInvalidSeat, protocol.CodeInvalidSeat},
	{sevens.ErrRoundInProgress, protocol.CodeRoundInProgress},
	{sevens.ErrNotEnoughPlayers, protocol.CodeNotEnoughPlayers},
	{sevens.ErrTableFull, protocol.CodeTableFull},
	{sevens.ErrEmptyDeck, protocol.CodeEmptyDeck},
}

// ErrorCode maps a game or decode error to its wire code.
func ErrorCode(err error) protocol.ErrorCode {
	if code := protocol.CodeForDecode(err); code != protocol.CodeUnknown {
		return code
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	if sevens.Classify(err) == sevens.ClassInternal {
		return protocol.CodeInternal
	}
	return protocol.CodeUnknown
}

// ErrorToProto builds the Error reply for err.
func ErrorToProto(tableID string, err error) *protocol.Error {
	return &protocol.Error{TableID: tableID, Code: ErrorCode(err), Reason: err.Error()}
}

func valueToProto(v sevens.HandValue) protocol.HandValue {
	return protocol.HandValue{
		Total7:  int32(v.Total7),
		Bust7:   v.Bust7,
		Total27: int32(v.Total27),
		Bust27:  v.Bust27,
	}
}

func revealsToProto(rs []sevens.Reveal) []protocol.Reveal {
	if len(rs) == 0 {
		return nil
	}
	out := make([]protocol.Reveal, 0, len(rs))
	for _, r := range rs {
		out = append(out, protocol.Reveal{
			Seat:  int32(r.Seat),
			Cards: append(protocol.Cards(nil), r.Cards...),
			Value: valueToProto(r.Value),
		})
	}
	return out
}

func resultToProto(res *sevens.Settlement) *protocol.Result {
	if res == nil {
		return nil
	}
	out := &protocol.Result{Pot: res.Pot, Forfeit: res.Forfeit}
	for _, w := range res.Winners7 {
		out.Winners7 = append(out.Winners7, int32(w))
	}
	for _, w := range res.Winners27 {
		out.Winners27 = append(out.Winners27, int32(w))
	}
	for _, p := range res.Payouts {
		out.Payouts = append(out.Payouts, protocol.Payout{Seat: int32(p.Seat), Amount: p.Amount})
	}
	return out
}
