// Package metrics exposes Prometheus collectors for the feed service.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "postfeed",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postfeed",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "postfeed",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	postEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postfeed",
			Subsystem: "push",
			Name:      "post_events_total",
			Help:      "Post events broadcast to subscribers, by action.",
		},
		[]string{"action"},
	)

	droppedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "postfeed",
			Subsystem: "push",
			Name:      "dropped_events_total",
			Help:      "Events not delivered because a subscriber buffer was full.",
		},
	)

	subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "postfeed",
			Subsystem: "push",
			Name:      "subscribers",
			Help:      "Currently connected push subscribers.",
		},
	)

	imageRemovals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postfeed",
			Subsystem: "images",
			Name:      "removals_total",
			Help:      "Image file removals, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		postEvents,
		droppedEvents,
		subscribers,
		imageRemovals,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count, latency and in-flight gauge. The route
// label is the mux path template so ids do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := NewRecorder(w)
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := RouteTemplate(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RouteTemplate returns the matched mux route template, or "unmatched".
func RouteTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// PostEvent counts a broadcast post event.
func PostEvent(action string) {
	postEvents.WithLabelValues(action).Inc()
}

// DroppedEvent counts an event skipped for a slow subscriber.
func DroppedEvent() {
	droppedEvents.Inc()
}

// SubscriberConnected and SubscriberDisconnected track live subscribers.
func SubscriberConnected()    { subscribers.Inc() }
func SubscriberDisconnected() { subscribers.Dec() }

// ImageRemoval counts an image removal attempt by result ("ok", "missing", "error").
func ImageRemoval(result string) {
	imageRemovals.WithLabelValues(result).Inc()
}

// Recorder captures the status code written through it. It forwards Flush
// and Hijack so streaming and WebSocket handlers work behind it.
type Recorder struct {
	http.ResponseWriter
	status int
}

// NewRecorder wraps w with a status of 200 until WriteHeader is called.
func NewRecorder(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w, status: http.StatusOK}
}

// Status returns the recorded status code.
func (r *Recorder) Status() int { return r.status }

func (r *Recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *Recorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *Recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *Recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
