package speeddaemon

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "speeddaemon"

// Metrics holds the Prometheus collectors updated by a Server.
type Metrics struct {
	Connections      *prometheus.GaugeVec
	MessagesReceived *prometheus.CounterVec
	Observations     prometheus.Counter
	TicketsIssued    prometheus.Counter
	TicketsDelivered prometheus.Counter
	TicketsQueued    prometheus.Counter
	TicketsDiscarded prometheus.Counter
	Errors           *prometheus.CounterVec
	Heartbeats       prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections",
			Help:      "Currently open client connections, by role.",
		}, []string{"role"}),
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_received_total",
			Help:      "Messages decoded from clients, by type.",
		}, []string{"type"}),
		Observations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "observations_total",
			Help:      "Plate observations recorded.",
		}),
		TicketsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "tickets",
			Name:      "issued_total",
			Help:      "Tickets accepted after per-day deduplication.",
		}),
		TicketsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "tickets",
			Name:      "delivered_total",
			Help:      "Tickets written to a dispatcher.",
		}),
		TicketsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "tickets",
			Name:      "queued_total",
			Help:      "Tickets queued because no dispatcher was connected for the road.",
		}),
		TicketsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "tickets",
			Name:      "discarded_total",
			Help:      "Candidate tickets dropped because the car was already ticketed that day.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connection_errors_total",
			Help:      "Connections terminated by an error, by kind.",
		}, []string{"kind"}),
		Heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "heartbeats_total",
			Help:      "Heartbeat messages sent.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Connections,
			m.MessagesReceived,
			m.Observations,
			m.TicketsIssued,
			m.TicketsDelivered,
			m.TicketsQueued,
			m.TicketsDiscarded,
			m.Errors,
			m.Heartbeats,
		)
	}
	return m
}
