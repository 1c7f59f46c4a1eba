// Registers:
//
//	#bybitdash_exchange_requests_total
//	#bybitdash_exchange_request_duration_seconds
//	#bybitdash_exchange_used_weight
//	#bybitdash_exchange_limit_events_total
//	#bybitdash_overview_requests_total
//	#go_* and process_* system metrics
//
// on a private registry exposed through Handler.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bybitdash/config"
)

var (
	once             sync.Once
	registry         *prometheus.Registry
	exchangeRequests *prometheus.CounterVec
	exchangeLatency  *prometheus.HistogramVec
	usedWeight       *prometheus.GaugeVec
	limitEvents      *prometheus.CounterVec
	overviewRequests *prometheus.CounterVec
)

func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		exchangeRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bybitdash_exchange_requests_total",
				Help: "Number of signed Bybit requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		)

		exchangeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bybitdash_exchange_request_duration_seconds",
				Help:    "Latency of Bybit requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		)

		usedWeight = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bybitdash_exchange_used_weight",
				Help: "Rate limit quota consumed as reported by X-Bapi-Limit headers",
			},
			[]string{"endpoint"},
		)

		limitEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bybitdash_exchange_limit_events_total",
				Help: "Rate limit and IP ban responses returned by Bybit",
			},
			[]string{"kind"},
		)

		overviewRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bybitdash_overview_requests_total",
				Help: "Overview requests by outcome",
			},
			[]string{"outcome"},
		)

		registry.MustRegister(
			exchangeRequests,
			exchangeLatency,
			usedWeight,
			limitEvents,
			overviewRequests,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Configure applies the metrics section of the configuration. CloudWatch
// publishing is only initialised when enabled.
func Configure(cfg config.MetricsConfig) {
	Init()
	if cfg.CloudWatch.Enabled {
		InitCloudWatch(cfg.CloudWatch)
	}
}

// Handler serves the Prometheus exposition format for the private registry.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveExchangeRequest records one Bybit call. outcome is "ok" or the
// error kind.
func ObserveExchangeRequest(endpoint, outcome string, duration time.Duration) {
	Init()
	exchangeRequests.WithLabelValues(endpoint, outcome).Inc()
	exchangeLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// SetUsedWeight stores the last reported quota consumption for endpoint.
func SetUsedWeight(endpoint string, used float64) {
	Init()
	usedWeight.WithLabelValues(endpoint).Set(used)
}

// IncLimitEvent counts a rate limit ("rate_limit") or IP ban ("ip_ban") response.
func IncLimitEvent(kind string) {
	Init()
	limitEvents.WithLabelValues(kind).Inc()
}

// IncOverview counts an overview response by outcome.
func IncOverview(outcome string) {
	Init()
	overviewRequests.WithLabelValues(outcome).Inc()
}
