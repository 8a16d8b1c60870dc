package command

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/castle-go/internal/connection"
	"github.com/yndnr/castle-go/internal/core/completion"
	"github.com/yndnr/castle-go/internal/server/httpserver"
)

func statusServer(t *testing.T, healthErr error) *httptest.Server {
	t.Helper()
	cfg := httpserver.DefaultRouterConfig()
	cfg.Health = func() error { return healthErr }
	cfg.Stats = func() any {
		return connection.Stats{
			Queue:          completion.Stats{Len: 2, Capacity: 1024, State: completion.StateOpen},
			Outstanding:    5,
			Delivered:      1200,
			DeliveredBytes: 4096,
		}
	}
	srv := httptest.NewServer(httpserver.NewRouter(cfg))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus(t *testing.T) {
	srv := statusServer(t, nil)

	out := mustRun(t, "status", "--addr", srv.URL)
	for _, want := range []string{"STATUS", "ok", "QUEUE STATE", "open", "1200"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "DELIVERED BYTES") {
		t.Errorf("wide column shown without --wide:\n%s", out)
	}

	out = mustRun(t, "--wide", "status", "--addr", srv.URL)
	if !strings.Contains(out, "DELIVERED BYTES") {
		t.Errorf("--wide output missing DELIVERED BYTES:\n%s", out)
	}

	out = mustRun(t, "-o", "json", "status", "--addr", srv.URL)
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("json output: %v\n%s", err, out)
	}
	if report.QueueCapacity != 1024 || report.Outstanding != 5 || report.QueueState != "open" {
		t.Errorf("report = %+v", report)
	}
}

func TestStatus_Unhealthy(t *testing.T) {
	srv := statusServer(t, errors.New("completion queue draining"))

	out, _, err := run(t, "", "status", "--addr", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "unavailable") {
		t.Fatalf("status error = %v, want unavailable", err)
	}
	if !strings.Contains(out, "completion queue draining") {
		t.Errorf("status output missing reason:\n%s", out)
	}
}

func TestStatus_Unreachable(t *testing.T) {
	_, _, err := run(t, "", "status", "--addr", "unix:///nonexistent/castle.sock", "--timeout", "1s")
	if err == nil || !strings.Contains(err.Error(), "health") {
		t.Errorf("status error = %v, want health failure", err)
	}
}
