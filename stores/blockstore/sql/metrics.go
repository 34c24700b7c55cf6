package sql

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBlockStorePut        prometheus.Counter
	prometheusBlockStoreGet        prometheus.Counter
	prometheusBlockStoreUndoGet    prometheus.Counter
	prometheusBlockStoreUtxoAdd    prometheus.Counter
	prometheusBlockStoreUtxoRemove prometheus.Counter
	prometheusBlockStoreUtxoGet    prometheus.Counter
	prometheusBlockStorePrune      prometheus.Counter
	prometheusBlockStoreBatch      *prometheus.CounterVec
	prometheusBlockStoreDuration   *prometheus.HistogramVec
	prometheusBlockStoreErrors     *prometheus.CounterVec

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlockStorePut = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blockstore_sql_put",
			Help: "Number of header put calls done to sql",
		},
	)
	prometheusBlockStoreGet = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blockstore_sql_get",
			Help: "Number of header get calls done to sql",
		},
	)
	prometheusBlockStoreUndoGet = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blockstore_sql_undo_get",
			Help: "Number of undo block get calls done to sql",
		},
	)
	prometheusBlockStoreUtxoAdd = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blockstore_sql_utxo_add",
			Help: "Number of unspent output add calls done to sql",
		},
	)
	prometheusBlockStoreUtxoRemove = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blockstore_sql_utxo_remove",
			Help: "Number of unspent output remove calls done to sql",
		},
	)
	prometheusBlockStoreUtxoGet = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blockstore_sql_utxo_get",
			Help: "Number of unspent output get calls done to sql",
		},
	)
	prometheusBlockStorePrune = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blockstore_sql_prune",
			Help: "Number of undo data pruning passes",
		},
	)
	prometheusBlockStoreBatch = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockstore_sql_batch",
			Help: "Number of batch writes by outcome",
		},
		[]string{
			"outcome", // begin, commit or abort
		},
	)
	prometheusBlockStoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blockstore_sql_duration_seconds",
			Help:    "Duration of block store operations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{
			"operation",
		},
	)
	prometheusBlockStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockstore_sql_errors",
			Help: "Number of block store errors",
		},
		[]string{
			"function", // function raising the error
			"error",    // error returned
		},
	)
}
