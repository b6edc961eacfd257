package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolve outcomes.
const (
	ResolveOK          = "ok"
	ResolveUnknownTag  = "unknown_tag"
	ResolveEncodeError = "encode_error"
	ResolveEmpty       = "empty"
)

var (
	registerOnce sync.Once

	resolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tagwire",
			Subsystem: "dispatch",
			Name:      "resolves_total",
			Help:      "Dispatcher resolves by tag and outcome.",
		},
		[]string{"tag", "outcome"},
	)
	handlerReplacements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tagwire",
			Subsystem: "dispatch",
			Name:      "handler_replacements_total",
			Help:      "Handler swaps by tag.",
		},
		[]string{"tag"},
	)
	clientCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tagwire",
			Subsystem: "client",
			Name:      "calls_total",
			Help:      "Client calls by tag and result kind.",
		},
		[]string{"tag", "result"},
	)
	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tagwire",
			Subsystem: "client",
			Name:      "call_duration_seconds",
			Help:      "Client call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tag", "result"},
	)
	connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tagwire",
			Subsystem: "transport",
			Name:      "open_connections",
			Help:      "Open stream connections served.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tagwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tagwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			resolves,
			handlerReplacements,
			clientCalls,
			clientDuration,
			connections,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordResolve(tag, outcome string) {
	RegisterMetrics()
	resolves.WithLabelValues(tag, outcome).Inc()
}

func RecordHandlerReplace(tag string) {
	RegisterMetrics()
	handlerReplacements.WithLabelValues(tag).Inc()
}

func RecordClientCall(tag uint8, result string, duration time.Duration) {
	RegisterMetrics()
	tagLabel := strconv.Itoa(int(tag))
	clientCalls.WithLabelValues(tagLabel, result).Inc()
	clientDuration.WithLabelValues(tagLabel, result).Observe(duration.Seconds())
}

// ConnectionOpened returns a func that marks the connection closed.
func ConnectionOpened() func() {
	RegisterMetrics()
	connections.Inc()
	var once sync.Once
	return func() {
		once.Do(connections.Dec)
	}
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
