package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "erc20_indexer"

var (
	// Progress
	CheckpointBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "checkpoint_block",
		Help:      "Last block number whose transfers are durably written to the sink",
	})

	ChainHeadBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chain_head_block",
		Help:      "Latest block number observed on the node",
	})

	// Batches
	Batches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total number of batch attempts by status",
		},
		[]string{"status"},
	)

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of successful batches in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	BatchBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_processed_total",
		Help:      "Total number of blocks covered by committed batches",
	})

	// Transfers
	Transfers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Total number of classified transfers by symbol and category",
		},
		[]string{"symbol", "category"},
	)

	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Total number of sink writes by sink and status",
		},
		[]string{"sink", "status"},
	)

	// Node
	NodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_requests_total",
			Help:      "Total number of node RPC calls by method and status",
		},
		[]string{"method", "status"},
	)

	NodeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_request_duration_seconds",
			Help:      "Node RPC call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// API
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)
