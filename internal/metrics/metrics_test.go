package metrics_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/cct/internal/metrics"
	"github.com/JaimeStill/cct/pkg/events"
)

func counters(t *testing.T, c *metrics.Collector, name string) map[string]float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	out := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			out[strings.Join(labels, ",")] = m.GetCounter().GetValue()
		}
	}
	return out
}

func TestSubscriberCountsEvents(t *testing.T) {
	c := metrics.New()
	bus := events.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	bus.Subscribe(c.Subscriber())

	ctx := context.Background()
	bus.Publish(ctx, events.Event{Type: "CLAIM_RECORDED", Outcome: "RECORDED"})
	bus.Publish(ctx, events.Event{Type: "CLAIM_RECORDED", Outcome: "RECORDED"})
	bus.Publish(ctx, events.Event{Type: "DUPLICATE_DETECTED", Outcome: "AUTO_REJECT"})

	got := counters(t, c, "cct_domain_events_total")
	if got["outcome=RECORDED,type=CLAIM_RECORDED"] != 2 || got["outcome=AUTO_REJECT,type=DUPLICATE_DETECTED"] != 1 {
		t.Errorf("counters = %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	c := metrics.New()
	h := c.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/cases", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/cases", nil))

	if got := counters(t, c, "cct_http_requests_total"); got["code=418,method=GET"] != 2 {
		t.Errorf("counters = %v", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "cct_http_request_duration_seconds") {
		t.Errorf("exposition missing latency histogram:\n%s", body)
	}
}
