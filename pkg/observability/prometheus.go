package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/stackresolve/pkg/transfer"
)

// PrometheusHooks implements ResolutionHooks, CacheHooks and HTTPHooks on
// top of Prometheus collectors. Its TransferListener method exposes
// transfer metrics as a transfer.Listener.
type PrometheusHooks struct {
	collects        *prometheus.CounterVec
	collectDuration prometheus.Histogram
	graphNodes      prometheus.Histogram
	collectFailures prometheus.Counter
	flattenKept     *prometheus.GaugeVec
	resolves        *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
	cacheBytes      prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpErrors      *prometheus.CounterVec
	transfers       *prometheus.CounterVec
	transferBytes   *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

// NewPrometheusHooks creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		collects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackresolve_collect_total",
				Help: "Number of dependency graph collections by outcome.",
			},
			[]string{"outcome"},
		),
		collectDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stackresolve_collect_duration_seconds",
				Help:    "Time taken to collect a dependency graph.",
				Buckets: prometheus.DefBuckets,
			},
		),
		graphNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stackresolve_graph_nodes",
				Help:    "Number of nodes in collected dependency graphs.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		collectFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stackresolve_collect_node_failures_total",
				Help: "Number of graph nodes whose collection failed.",
			},
		),
		flattenKept: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stackresolve_flatten_kept_nodes",
				Help: "Number of nodes kept by the last flatten per path scope.",
			},
			[]string{"scope"},
		),
		resolves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackresolve_resolve_total",
				Help: "Number of dependency resolutions by path scope and outcome.",
			},
			[]string{"scope", "outcome"},
		),
		resolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackresolve_resolve_duration_seconds",
				Help:    "Time taken to resolve dependency paths.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackresolve_cache_events_total",
				Help: "Cache hits, misses and writes by key type.",
			},
			[]string{"key_type", "event"},
		),
		cacheBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stackresolve_cache_written_bytes_total",
				Help: "Bytes written to the cache.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackresolve_http_requests_total",
				Help: "Repository HTTP requests by host and status code.",
			},
			[]string{"host", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stackresolve_http_request_duration_seconds",
				Help:    "Repository HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackresolve_http_errors_total",
				Help: "Repository HTTP requests that failed without a response.",
			},
			[]string{"host"},
		),
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackresolve_transfer_events_total",
				Help: "Transfer events by repository and type.",
			},
			[]string{"repository", "type"},
		),
		transferBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stackresolve_transfer_bytes_total",
				Help: "Bytes downloaded by repository.",
			},
			[]string{"repository"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stackresolve_transfers_in_flight",
				Help: "Number of transfers currently in progress.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(h.Collectors()...)
	}
	return h
}

// Collectors returns every collector owned by h.
func (h *PrometheusHooks) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		h.collects, h.collectDuration, h.graphNodes, h.collectFailures, h.flattenKept,
		h.resolves, h.resolveDuration, h.cacheEvents, h.cacheBytes,
		h.httpRequests, h.httpDuration, h.httpErrors,
		h.transfers, h.transferBytes, h.inFlight,
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (h *PrometheusHooks) OnCollectStart(context.Context, string) {}

func (h *PrometheusHooks) OnCollectComplete(_ context.Context, _ string, nodeCount, failures int, duration time.Duration, err error) {
	h.collects.WithLabelValues(outcome(err)).Inc()
	h.collectDuration.Observe(duration.Seconds())
	h.graphNodes.Observe(float64(nodeCount))
	h.collectFailures.Add(float64(failures))
}

func (h *PrometheusHooks) OnFlattenComplete(_ context.Context, scope string, _, kept int) {
	h.flattenKept.WithLabelValues(scope).Set(float64(kept))
}

func (h *PrometheusHooks) OnResolveStart(context.Context, string, string) {}

func (h *PrometheusHooks) OnResolveComplete(_ context.Context, _, scope string, _ int, duration time.Duration, err error) {
	h.resolves.WithLabelValues(scope, outcome(err)).Inc()
	h.resolveDuration.WithLabelValues(scope).Observe(duration.Seconds())
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, _, host, _ string, statusCode int, duration time.Duration) {
	h.httpRequests.WithLabelValues(host, statusText(statusCode)).Inc()
	h.httpDuration.WithLabelValues(host).Observe(duration.Seconds())
}

func (h *PrometheusHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.httpErrors.WithLabelValues(host).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// TransferListener returns a listener that counts transfer events.
func (h *PrometheusHooks) TransferListener() transfer.Listener {
	return transfer.ListenerFunc(func(e transfer.Event) error {
		repo := e.Resource.RepositoryID
		h.transfers.WithLabelValues(repo, e.Type.String()).Inc()
		switch e.Type {
		case transfer.Started:
			h.inFlight.Inc()
		case transfer.Progressed:
			h.transferBytes.WithLabelValues(repo).Add(float64(e.DataLength))
		case transfer.Succeeded, transfer.Failed:
			h.inFlight.Dec()
		}
		return nil
	})
}
