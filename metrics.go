package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	narrationsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxstory_client",
			Name:      "narrations_enqueued_total",
			Help:      "Narration prefetch jobs accepted into the shard executor.",
		},
		[]string{"shard"},
	)

	narrationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxstory_client",
			Name:      "narration_enqueue_failures_total",
			Help:      "Narration jobs whose async execution returned error or panic.",
		},
		[]string{"shard"},
	)
)
