package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectedClients tracks open WebSocket connections
	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storechat_connected_clients",
			Help: "Number of open WebSocket connections",
		},
	)

	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storechat_messages_sent_total",
			Help: "Chat messages accepted from clients",
		},
	)

	// DeliveriesDropped counts frames that could not be queued to a connection
	DeliveriesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storechat_deliveries_dropped_total",
			Help: "Outbound frames dropped because the connection was closed or too slow",
		},
	)

	PersistenceFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storechat_persistence_failures_total",
			Help: "Message writes that failed and fell back to an unsaved message",
		},
	)

	AutoReplies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storechat_auto_replies_total",
			Help: "Auto responses sent to customers",
		},
	)

	TicketsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storechat_tickets_created_total",
			Help: "Support tickets created",
		},
	)

	TicketTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storechat_ticket_transitions_total",
			Help: "Support ticket status changes by target status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		ConnectedClients,
		MessagesSent,
		DeliveriesDropped,
		PersistenceFailures,
		AutoReplies,
		TicketsCreated,
		TicketTransitions,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
