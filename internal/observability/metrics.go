package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gc2bridge",
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Messages received, by classified kind.",
		},
		[]string{"kind"},
	)
	framesRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gc2bridge",
			Subsystem: "relay",
			Name:      "frames_recovered_total",
			Help:      "Malformed frames skipped via next-brace recovery.",
		},
	)
	bytesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gc2bridge",
			Subsystem: "relay",
			Name:      "bytes_read_total",
			Help:      "Raw bytes read from accepted connections.",
		},
	)
	responseDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gc2bridge",
			Subsystem: "relay",
			Name:      "response_duration_seconds",
			Help:      "Time from shot classification to response write.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gc2bridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests on the stats surface.",
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(messagesTotal, framesRecovered, bytesRead, responseDuration, httpRequests)
	})
}

func RecordMessage(kind string) {
	RegisterMetrics()
	messagesTotal.WithLabelValues(kind).Inc()
}

func RecordFrameRecovery() {
	RegisterMetrics()
	framesRecovered.Inc()
}

func RecordBytesRead(n int) {
	RegisterMetrics()
	bytesRead.Add(float64(n))
}

func RecordResponse(duration time.Duration) {
	RegisterMetrics()
	responseDuration.Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path string, status int) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
