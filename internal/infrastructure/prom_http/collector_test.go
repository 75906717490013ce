package prom_http

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/davarch/gitlab-exporter/internal/application"
	"github.com/prometheus/client_golang/prometheus"
)

type stubSource struct {
	snap *application.Snapshot
}

func (s *stubSource) Current() *application.Snapshot { return s.snap }

func testSnapshot() *application.Snapshot {
	return &application.Snapshot{
		Totals:     []application.Sample{{Project: "org/app", Branch: "master", Value: 2}},
		Errors:     []application.Sample{{Project: "org/app", Branch: "master", Value: 1}},
		InProgress: []application.Sample{{Project: "org/app", Branch: "master", Value: 0}},
		Durations: []application.HistogramSample{{
			Project: "org/app",
			Branch:  "master",
			Buckets: map[float64]uint64{180: 0, 300: 1, 600: 1, 900: 1, 1200: 1, 1500: 1, 1800: 1, 2100: 1, 2400: 1, 2700: 1},
			Count:   1,
			Sum:     200,
		}},
	}
}

func TestCollector_EmitsAllFamilies(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollector(&stubSource{snap: testSnapshot()})); err != nil {
		t.Fatalf("register: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]bool{}
	var names []string
	for _, mf := range mfs {
		byName[mf.GetName()] = true
		names = append(names, mf.GetName())
	}

	for _, want := range []string{
		"gitlab_in_progress_pipelines",
		"gitlab_pipeline_duration_seconds",
		"gitlab_pipeline_errors_total",
		"gitlab_pipelines_total",
	} {
		if !byName[want] {
			t.Errorf("family %q missing from %v", want, names)
		}
	}

	// Gather returns families sorted by name, the order the exposition
	// format renders them in.
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("families not sorted: %v", names)
		}
	}
}

func TestCollector_HistogramValues(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollector(&stubSource{snap: testSnapshot()})); err != nil {
		t.Fatalf("register: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != "gitlab_pipeline_duration_seconds" {
			continue
		}
		h := mf.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 1 {
			t.Errorf("sample count = %d, want 1", h.GetSampleCount())
		}
		if h.GetSampleSum() != 200 {
			t.Errorf("sample sum = %v, want 200", h.GetSampleSum())
		}
		for _, b := range h.GetBucket() {
			switch b.GetUpperBound() {
			case 180:
				if b.GetCumulativeCount() != 0 {
					t.Errorf("bucket 180 = %d, want 0", b.GetCumulativeCount())
				}
			case 300:
				if b.GetCumulativeCount() != 1 {
					t.Errorf("bucket 300 = %d, want 1", b.GetCumulativeCount())
				}
			}
		}
		return
	}
	t.Fatal("duration histogram family not gathered")
}

func TestCollector_NoSnapshotEmitsNothing(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollector(&stubSource{})); err != nil {
		t.Fatalf("register: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 0 {
		t.Errorf("expected no families before first cycle, got %d", len(mfs))
	}
}

func TestHandler_ServesExpositionFormat(t *testing.T) {
	h, err := NewHandler(&stubSource{snap: testSnapshot()})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`gitlab_pipelines_total{branch="master",project="org/app"} 2`,
		`gitlab_pipeline_errors_total{branch="master",project="org/app"} 1`,
		`gitlab_in_progress_pipelines{branch="master",project="org/app"} 0`,
		`gitlab_pipeline_duration_seconds_bucket{branch="master",project="org/app",le="300"} 1`,
		`gitlab_pipeline_duration_seconds_sum{branch="master",project="org/app"} 200`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\n%s", want, body)
		}
	}
}
