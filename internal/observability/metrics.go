package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	settlementCounter     *prometheus.CounterVec
	walletCacheCounter    *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
	staleFailedGauge      prometheus.Gauge
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		settlementCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transfer_settlements_total",
			Help: "Transfer settlement outcomes",
		}, []string{"outcome"})

		walletCacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_cache_events_total",
			Help: "Wallet read cache hits and misses",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		staleFailedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stale_failed_transactions",
			Help: "FAILED transactions older than the staleness threshold",
		})

		prometheus.MustRegister(
			httpDurationHistogram,
			settlementCounter,
			walletCacheCounter,
			workerRunCounter,
			staleFailedGauge,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementSettlement(outcome string) {
	if settlementCounter == nil {
		return
	}
	settlementCounter.WithLabelValues(outcome).Inc()
}

func IncrementWalletCache(outcome string) {
	if walletCacheCounter == nil {
		return
	}
	walletCacheCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}

func SetStaleFailedCount(n int) {
	if staleFailedGauge == nil {
		return
	}
	staleFailedGauge.Set(float64(n))
}
