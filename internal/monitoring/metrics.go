package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Total tickets sold",
		},
	)

	ticketsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_cancelled_total",
			Help: "Total tickets cancelled",
		},
	)

	transfers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transfers_total",
			Help: "Total ledger transfers between payment methods",
		},
		[]string{"status"},
	)
)

func RecordTicketsSold(n int) {
	ticketsSold.Add(float64(n))
}

func RecordTicketsCancelled(n int) {
	ticketsCancelled.Add(float64(n))
}

func RecordTransfer(status string) {
	transfers.WithLabelValues(status).Inc()
}
