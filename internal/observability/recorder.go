// Package observability implements the append-only request log, the
// persisted process stats file, and the Prometheus metrics surface
// spec.md §4.8/§4.9 describe as the proxy's operational record.
package observability

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
)

// RequestLogEntry is one append-only line in the request log
// (spec.md §4.8: "request_id, method, path, model, provider, region
// attempts, outcome, duration, status").
type RequestLogEntry struct {
	Time       time.Time `json:"time"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Model      string    `json:"model,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Regions    []string  `json:"regions,omitempty"`
	Outcome    string    `json:"outcome"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
}

// stats is the shape persisted to stats.json (spec.md §6).
type stats struct {
	StartTime       time.Time `json:"startTime"`
	RequestCount    int64     `json:"requestCount"`
	LastRequestTime time.Time `json:"lastRequestTime"`
	Port            int       `json:"port"`
}

// Recorder owns the request log file, the stats file, and the
// Prometheus registry. One Recorder is shared by every request; its
// exported methods are safe for concurrent use.
type Recorder struct {
	logPath   string
	statsPath string
	maxBytes  int64
	port      int
	startedAt time.Time

	logMu  sync.Mutex
	logF   *os.File
	logSz  int64
	statMu sync.Mutex

	requestCount    atomic.Int64
	lastRequestTime atomic.Value // time.Time

	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	regionRetries   prometheus.Counter
	upstreamLatency prometheus.Histogram
}

// New opens (creating if needed) the request log at logPath and
// prepares the stats file at statsPath. maxBytes is the rotation
// threshold (spec.md §4.8/§8 P9: 10 MiB, single ".1" generation).
func New(logPath, statsPath string, maxBytes int64, port int) (*Recorder, error) {
	for _, p := range []string{logPath, statsPath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("observability: creating %s: %w", dir, err)
			}
		}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("observability: opening request log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("observability: statting request log: %w", err)
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	r := &Recorder{
		logPath:   logPath,
		statsPath: statsPath,
		maxBytes:  maxBytes,
		port:      port,
		startedAt: time.Now(),
		logF:      f,
		logSz:     info.Size(),
		registry:  registry,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vertexproxy_requests_total",
			Help: "Total requests handled, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		regionRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "vertexproxy_region_retries_total",
			Help: "Total region-failover retries across all requests.",
		}),
		upstreamLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vertexproxy_upstream_latency_seconds",
			Help:    "Latency of the winning upstream attempt.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	r.lastRequestTime.Store(r.startedAt)
	return r, nil
}

// Handler returns the /metrics HTTP handler, serving only this
// Recorder's own registry (not process-wide defaults), so multiple
// Recorders can coexist in one process without collector collisions.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// StartedAt reports process start time, for the root status document.
func (r *Recorder) StartedAt() time.Time { return r.startedAt }

// RequestCount reports the running request count.
func (r *Recorder) RequestCount() int64 { return r.requestCount.Load() }

// Record logs entry, increments the metrics/counters it implies, and
// rewrites stats.json. Failures to persist are silently dropped, not
// returned or logged, since observability must never fail the request
// it's describing. Only successful entries feed the latency histogram.
func (r *Recorder) Record(entry RequestLogEntry, retries int) {
	r.requestsTotal.WithLabelValues(entry.Provider, entry.Outcome).Inc()
	if retries > 0 {
		r.regionRetries.Add(float64(retries))
	}
	if entry.Outcome == "success" {
		r.upstreamLatency.Observe(float64(entry.DurationMS) / 1000)
	}

	r.requestCount.Inc()
	r.lastRequestTime.Store(entry.Time)

	r.appendLog(entry)
	r.writeStats()
}

func (r *Recorder) appendLog(entry RequestLogEntry) {
	r.logMu.Lock()
	defer r.logMu.Unlock()

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line = append(line, '\n')

	if r.logSz+int64(len(line)) > r.maxBytes {
		r.rotateLocked()
	}

	n, err := r.logF.Write(line)
	if err == nil {
		r.logSz += int64(n)
	}
}

// rotateLocked renames the current log to ".1" (overwriting any prior
// generation) and opens a fresh file, per spec.md's single-generation
// rotation policy. Caller holds logMu.
func (r *Recorder) rotateLocked() {
	r.logF.Close()
	os.Rename(r.logPath, r.logPath+".1")
	f, err := os.OpenFile(r.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	r.logF = f
	r.logSz = 0
}

func (r *Recorder) writeStats() {
	r.statMu.Lock()
	defer r.statMu.Unlock()

	s := stats{
		StartTime:       r.startedAt,
		RequestCount:    r.requestCount.Load(),
		LastRequestTime: r.lastRequestTime.Load().(time.Time),
		Port:            r.port,
	}
	encoded, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return
	}
	os.WriteFile(r.statsPath, encoded, 0o644)
}
