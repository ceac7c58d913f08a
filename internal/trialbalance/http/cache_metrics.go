package http

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter      *prometheus.CounterVec
	cacheMissCounter     *prometheus.CounterVec
	reportBuildHistogram *prometheus.HistogramVec
	cacheMetricsError    error
)

// SetupCacheMetrics registers Prometheus metrics used to observe the report
// response cache. The registration is performed once and subsequent calls
// are ignored.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerview_trialbalance_cache_hits_total",
		Help: "Number of cache hits for trial balance reports.",
	}, []string{"company"})
	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerview_trialbalance_cache_miss_total",
		Help: "Number of cache misses for trial balance reports.",
	}, []string{"company"})
	reportBuildHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerview_trialbalance_build_duration_seconds",
		Help:    "Duration required to build trial balance reports.",
		Buckets: prometheus.DefBuckets,
	}, []string{"company"})

	for _, collector := range []prometheus.Collector{cacheHitCounter, cacheMissCounter, reportBuildHistogram} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == cacheHitCounter {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					reportBuildHistogram = c
				default:
					cacheMetricsError = fmt.Errorf("trialbalance cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			reportBuildHistogram = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(companyID int64) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(strconv.FormatInt(companyID, 10)).Inc()
}

func recordCacheMiss(companyID int64) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(strconv.FormatInt(companyID, 10)).Inc()
}

func observeBuildDuration(companyID int64, duration time.Duration) {
	if reportBuildHistogram == nil {
		return
	}
	reportBuildHistogram.WithLabelValues(strconv.FormatInt(companyID, 10)).Observe(duration.Seconds())
}
