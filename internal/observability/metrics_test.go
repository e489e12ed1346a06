package observability

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(nil, testLogger)

	m.PagesFetched.Inc()
	m.PagesFetched.Inc()
	m.Product(ResultCreated)
	m.Product(ResultCreated)
	m.Product(ResultFailed)
	m.ObserveFetch("listing", 2048, 150*time.Millisecond)

	if got := testutil.ToFloat64(m.PagesFetched); got != 2 {
		t.Errorf("pages fetched = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ProductsTotal.WithLabelValues(ResultCreated)); got != 2 {
		t.Errorf("created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ProductsTotal.WithLabelValues(ResultFailed)); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BytesDownloaded); got != 2048 {
		t.Errorf("bytes = %v, want 2048", got)
	}
}

func TestMetricsHandlerExposition(t *testing.T) {
	m := NewMetrics(nil, testLogger)
	m.PagesFetched.Inc()
	m.Product(ResultUpdated)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"catalogsync_pages_fetched_total 1",
		`catalogsync_products_total{result="updated"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNewMetricsPrivateRegistries(t *testing.T) {
	// Registering twice must not panic with duplicate collectors.
	NewMetrics(nil, testLogger)
	NewMetrics(nil, testLogger)
}
