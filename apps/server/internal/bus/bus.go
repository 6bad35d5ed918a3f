// Package bus publishes settled rounds to NATS for downstream consumers.
package bus

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"sevens-lite/apps/server/internal/logging"
	"sevens-lite/apps/server/internal/metrics"
	"sevens-lite/apps/server/internal/table"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher is the part of *nats.Conn the bus needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Connect dials NATS with reconnects enabled.
func Connect(url, name string) (*natsgo.Conn, error) {
	nc, err := natsgo.Connect(url,
		natsgo.Name(name),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to NATS at %s", url)
	}
	return nc, nil
}

func RoundSubject(prefix, tableID string) string {
	return fmt.Sprintf("%s.%s.round", prefix, tableID)
}

type HandRecord struct {
	Seat     int      `json:"seat"`
	PlayerID string   `json:"playerId"`
	Name     string   `json:"name"`
	NPC      bool     `json:"npc,omitempty"`
	Cards    []string `json:"cards"`
	Total7   string   `json:"total7"`
	Total27  string   `json:"total27"`
	Bust     bool     `json:"bust,omitempty"`
}

type PayoutRecord struct {
	Seat   int   `json:"seat"`
	Amount int64 `json:"amount"`
}

// RoundRecord is the published form of a settled round.
type RoundRecord struct {
	TableID    string         `json:"tableId"`
	Round      uint32         `json:"round"`
	Pot        int64          `json:"pot"`
	Forfeit    bool           `json:"forfeit,omitempty"`
	Winners7   []int          `json:"winners7"`
	Winners27  []int          `json:"winners27"`
	Payouts    []PayoutRecord `json:"payouts"`
	Hands      []HandRecord   `json:"hands"`
	ResolvedAt time.Time      `json:"resolvedAt"`
}

// RoundPublisher turns round-end notifications into NATS messages.
type RoundPublisher struct {
	pub    Publisher
	prefix string
	now    func() time.Time
	log    zerolog.Logger
}

func NewRoundPublisher(pub Publisher, prefix string) *RoundPublisher {
	return &RoundPublisher{
		pub:    pub,
		prefix: prefix,
		now:    time.Now,
		log:    logging.Component("bus::rounds"),
	}
}

// OnRoundEnd is a table.RoundEndHook.
func (p *RoundPublisher) OnRoundEnd(info table.RoundEndInfo) {
	rec := NewRoundRecord(info, p.now())
	data, err := json.Marshal(rec)
	if err != nil {
		p.log.Error().Err(err).Str(logging.TableIDKey, info.TableID).Msg("marshal round")
		return
	}
	subject := RoundSubject(p.prefix, info.TableID)
	if err := p.pub.Publish(subject, data); err != nil {
		metrics.Metrics.PublishFailed()
		p.log.Warn().Err(err).Str("subject", subject).Msg("publish round")
		return
	}
	p.log.Debug().
		Str(logging.TableIDKey, info.TableID).
		Uint32(logging.RoundNumKey, info.Round).
		Str("subject", subject).
		Msg("Published round")
}

func NewRoundRecord(info table.RoundEndInfo, at time.Time) RoundRecord {
	rec := RoundRecord{
		TableID:    info.TableID,
		Round:      info.Round,
		ResolvedAt: at.UTC(),
		Winners7:   []int{},
		Winners27:  []int{},
		Payouts:    []PayoutRecord{},
		Hands:      []HandRecord{},
	}
	if res := info.Result; res != nil {
		rec.Pot = res.Pot
		rec.Forfeit = res.Forfeit
		rec.Winners7 = append(rec.Winners7, res.Winners7...)
		rec.Winners27 = append(rec.Winners27, res.Winners27...)
		for _, po := range res.Payouts {
			rec.Payouts = append(rec.Payouts, PayoutRecord{Seat: po.Seat, Amount: po.Amount})
		}
	}
	for _, h := range info.Hands {
		hr := HandRecord{
			Seat:    h.Seat,
			Cards:   make([]string, 0, len(h.Cards)),
			Total7:  h.Value.Total7.String(),
			Total27: h.Value.Total27.String(),
			Bust:    h.Value.Bust(),
		}
		if seat, ok := info.Snapshot.SeatView(h.Seat); ok {
			hr.PlayerID, hr.Name, hr.NPC = seat.PlayerID, seat.Name, seat.NPC
		}
		for _, c := range h.Cards {
			hr.Cards = append(hr.Cards, c.String())
		}
		rec.Hands = append(rec.Hands, hr)
	}
	return rec
}
