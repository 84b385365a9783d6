package audiocache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voxstory",
			Subsystem: "audiocache",
			Name:      "downloads_total",
			Help:      "Narration downloads by outcome.",
		},
		[]string{"result"},
	)

	downloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "voxstory",
			Subsystem: "audiocache",
			Name:      "download_bytes_total",
			Help:      "Bytes written to the local audio cache.",
		},
	)

	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "voxstory",
			Subsystem: "audiocache",
			Name:      "hits_total",
			Help:      "Requests served from a verified local copy.",
		},
	)

	prunedEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "voxstory",
			Subsystem: "audiocache",
			Name:      "pruned_entries_total",
			Help:      "Registry entries removed because the backing file vanished.",
		},
	)
)
