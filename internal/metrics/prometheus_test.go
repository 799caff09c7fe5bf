package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveBuildDuration(250 * time.Millisecond)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.IncBuildOutcome(OutcomeFailed)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.SetPosts(12)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			}
		}
	}
	if got := values["blogula_build_outcomes_total/success"]; got != 2 {
		t.Errorf("success outcomes = %v, want 2", got)
	}
	if got := values["blogula_build_outcomes_total/failed"]; got != 1 {
		t.Errorf("failed outcomes = %v, want 1", got)
	}
	if got := values["blogula_posts"]; got != 12 {
		t.Errorf("posts = %v, want 12", got)
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.SetPosts(3)

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "blogula_posts 3") {
		t.Errorf("metrics body missing blogula_posts:\n%s", body)
	}
}

func TestNilRecorder(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveBuildDuration(time.Second)
	pr.IncBuildOutcome(OutcomeFailed)
	pr.SetPosts(1)

	var r Recorder = NoopRecorder{}
	r.SetPosts(1)
}
