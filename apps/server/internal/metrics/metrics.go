// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	activeTablesGauge      prometheus.Gauge
	connectionsGauge       prometheus.Gauge
	roundsStartedCounter   prometheus.Counter
	roundsResolvedCounter  *prometheus.CounterVec
	actionsCounter         *prometheus.CounterVec
	eventsSentCounter      prometheus.Counter
	framesCounter          *prometheus.CounterVec
	slowConsumerCounter    prometheus.Counter
	timeoutActionsCounter  prometheus.Counter
	publishFailuresCounter prometheus.Counter
}

func (m *metrics) SetActiveTables(count int) {
	m.activeTablesGauge.Set(float64(count))
}

func (m *metrics) ConnectionOpened() {
	m.connectionsGauge.Inc()
}

func (m *metrics) ConnectionClosed() {
	m.connectionsGauge.Dec()
}

func (m *metrics) RoundStarted() {
	m.roundsStartedCounter.Inc()
}

// RoundResolved counts a finished round; forfeit rounds are labelled apart.
func (m *metrics) RoundResolved(forfeit bool) {
	label := "showdown"
	if forfeit {
		label = "forfeit"
	}
	m.roundsResolvedCounter.WithLabelValues(label).Inc()
}

// ActionHandled counts a player action by outcome ("ok" or an error code
// name).
func (m *metrics) ActionHandled(result string) {
	m.actionsCounter.WithLabelValues(result).Inc()
}

func (m *metrics) EventsSent(n int) {
	m.eventsSentCounter.Add(float64(n))
}

// Frame counts an inbound frame; result is "ok", "malformed" or "rejected".
func (m *metrics) Frame(result string) {
	m.framesCounter.WithLabelValues(result).Inc()
}

func (m *metrics) SlowConsumer() {
	m.slowConsumerCounter.Inc()
}

func (m *metrics) TimeoutAction() {
	m.timeoutActionsCounter.Inc()
}

func (m *metrics) PublishFailed() {
	m.publishFailuresCounter.Inc()
}

var Metrics = &metrics{
	activeTablesGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sevens_active_tables",
		Help: "Number of tables held by the registry",
	}),
	connectionsGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sevens_connections",
		Help: "Open WebSocket connections",
	}),
	roundsStartedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "sevens_rounds_started_total",
		Help: "Total number of rounds dealt",
	}),
	roundsResolvedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sevens_rounds_resolved_total",
		Help: "Total number of rounds settled, by outcome",
	}, []string{"outcome"}),
	actionsCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sevens_actions_total",
		Help: "Player actions handled by table actors, by result",
	}, []string{"result"}),
	eventsSentCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "sevens_events_sent_total",
		Help: "Per-recipient event messages handed to connections",
	}),
	framesCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sevens_inbound_frames_total",
		Help: "Inbound WebSocket frames, by decode result",
	}, []string{"result"}),
	slowConsumerCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "sevens_slow_consumer_disconnects_total",
		Help: "Connections dropped because their outbound queue was full",
	}),
	timeoutActionsCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "sevens_timeout_actions_total",
		Help: "Actions taken on behalf of a seat whose turn timed out",
	}),
	publishFailuresCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "sevens_publish_failures_total",
		Help: "Round results the bus failed to publish",
	}),
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
