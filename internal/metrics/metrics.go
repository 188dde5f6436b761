package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepthGauge tracks the current backlog of scheduled transfers
	QueueDepthGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pushrelay",
		Name:      "transfer_queue_depth",
		Help:      "Current number of transfers waiting to be executed",
	})

	// TransfersSucceededCounter tracks transfers that resolved with a response body
	TransfersSucceededCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pushrelay",
		Name:      "transfers_succeeded_total",
		Help:      "Total number of transfers that completed with HTTP 200",
	})

	// TransfersFailedCounter tracks transfers that resolved with a typed failure
	TransfersFailedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pushrelay",
		Name:      "transfers_failed_total",
		Help:      "Total number of transfers that failed (transport errors, bad status, faults)",
	})

	// ActiveWorkersGauge tracks workers currently performing a blocking transfer
	ActiveWorkersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pushrelay",
		Name:      "active_transfer_workers",
		Help:      "Current number of workers executing a transfer",
	})
)
