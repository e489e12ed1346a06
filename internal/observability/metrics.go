package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "catalogsync"

// Product results used as the "result" label.
const (
	ResultCreated = "created"
	ResultUpdated = "updated"
	ResultFailed  = "failed"
)

// Metrics tracks crawl and reconciliation counters.
type Metrics struct {
	PagesFetched    prometheus.Counter
	ProductsTotal   *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	BytesDownloaded prometheus.Counter

	registry *prometheus.Registry
	logger   *slog.Logger
}

// NewMetrics creates and registers all metrics on reg. A nil reg gets a
// private registry so that tests and repeated runs do not collide.
func NewMetrics(reg *prometheus.Registry, logger *slog.Logger) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "pages_fetched_total",
			Help:      "Total listing pages fetched",
		}),
		ProductsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "products_total",
			Help:      "Products processed, by result",
		}, []string{"result"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "fetch_duration_seconds",
			Help:      "Document fetch latency, by document kind",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		BytesDownloaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "bytes_downloaded_total",
			Help:      "Total response bytes downloaded",
		}),
		registry: reg,
		logger:   logger.With("component", "metrics"),
	}
}

// ObserveFetch records one fetched document of the given kind.
func (m *Metrics) ObserveFetch(kind string, size int, d time.Duration) {
	m.FetchDuration.WithLabelValues(kind).Observe(d.Seconds())
	m.BytesDownloaded.Add(float64(size))
}

// Product counts one product outcome.
func (m *Metrics) Product(result string) {
	m.ProductsTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server. It stops when ctx is done.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv
}
