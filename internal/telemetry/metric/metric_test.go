package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/castle-go/internal/core/domain"
)

func TestPipeline_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPipeline(reg)

	p.Pushed()
	p.Pushed()
	p.Rejected()
	p.Dropped()
	p.DeliveryFailed()
	p.Delivered(domain.Completion{Status: domain.StatusOK, Length: 100}, time.Millisecond)
	p.Delivered(domain.Completion{Status: domain.StatusNotFound, Length: 7}, time.Millisecond)

	if got := testutil.ToFloat64(p.pushed); got != 2 {
		t.Errorf("pushed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.rejected); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.dropped); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.failures); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.delivered.WithLabelValues("ok")); got != 1 {
		t.Errorf("delivered{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.delivered.WithLabelValues("not_found")); got != 1 {
		t.Errorf("delivered{not_found} = %v, want 1", got)
	}
	// only successful completions count bytes
	if got := testutil.ToFloat64(p.deliveredBytes); got != 100 {
		t.Errorf("delivered bytes = %v, want 100", got)
	}
}

func TestNewPipeline_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPipeline(reg)

	defer func() {
		if recover() == nil {
			t.Error("second NewPipeline on the same registry should panic")
		}
	}()
	NewPipeline(reg)
}

func TestCollector(t *testing.T) {
	snap := Snapshot{
		QueueDepth:    3,
		QueueCapacity: 16,
		Outstanding:   4,
		LiveHandles:   5,
		AllocFailures: 2,
		LSMSize:       1024,
	}
	c := NewCollector(func() Snapshot { return snap })

	if n := testutil.CollectAndCount(c); n != 7 {
		t.Fatalf("CollectAndCount = %d, want 7", n)
	}

	expected := `
# HELP castle_queue_depth Completions waiting for delivery.
# TYPE castle_queue_depth gauge
castle_queue_depth 3
# HELP castle_queue_capacity Configured queue capacity.
# TYPE castle_queue_capacity gauge
castle_queue_capacity 16
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"castle_queue_depth", "castle_queue_capacity"); err != nil {
		t.Error(err)
	}
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	p := NewPipeline(reg)
	p.Pushed()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, name := range []string{"castle_completion_pushed_total 1", "go_goroutines"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}
