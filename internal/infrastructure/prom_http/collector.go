package prom_http

import (
	"github.com/davarch/gitlab-exporter/internal/application"
	"github.com/prometheus/client_golang/prometheus"
)

// SnapshotSource is what the collector reads on every scrape request.
type SnapshotSource interface {
	Current() *application.Snapshot
}

var (
	totalsDesc = prometheus.NewDesc(
		"gitlab_pipelines_total",
		"Count of all gitlab pipelines",
		[]string{"project", "branch"}, nil,
	)
	errorsDesc = prometheus.NewDesc(
		"gitlab_pipeline_errors_total",
		"Count of all gitlab pipeline errors",
		[]string{"project", "branch"}, nil,
	)
	inProgressDesc = prometheus.NewDesc(
		"gitlab_in_progress_pipelines",
		"Count of all in-progress gitlab pipelines",
		[]string{"project", "branch"}, nil,
	)
	durationDesc = prometheus.NewDesc(
		"gitlab_pipeline_duration_seconds",
		"Histogram of gitlab pipeline durations",
		[]string{"project", "branch"}, nil,
	)
	byStatusDesc = prometheus.NewDesc(
		"gitlab_pipelines_by_status",
		"Count of gitlab pipelines by status",
		[]string{"organization", "project", "branch", "status"}, nil,
	)
)

// Collector renders the latest snapshot as const metrics. The families
// are rebuilt wholesale each scrape cycle, so there is nothing to
// increment in place; each exposition reads whatever snapshot is
// current at that moment.
type Collector struct {
	src SnapshotSource
}

func NewCollector(src SnapshotSource) *Collector {
	return &Collector{src: src}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- totalsDesc
	ch <- errorsDesc
	ch <- inProgressDesc
	ch <- durationDesc
	ch <- byStatusDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.Current()
	if snap == nil {
		// No cycle has completed yet.
		return
	}

	for _, s := range snap.Totals {
		ch <- prometheus.MustNewConstMetric(totalsDesc, prometheus.CounterValue, s.Value, s.Project, s.Branch)
	}
	for _, s := range snap.Errors {
		ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, s.Value, s.Project, s.Branch)
	}
	for _, s := range snap.InProgress {
		ch <- prometheus.MustNewConstMetric(inProgressDesc, prometheus.GaugeValue, s.Value, s.Project, s.Branch)
	}
	for _, h := range snap.Durations {
		ch <- prometheus.MustNewConstHistogram(durationDesc, h.Count, h.Sum, h.Buckets, h.Project, h.Branch)
	}
	for _, s := range snap.ByStatus {
		ch <- prometheus.MustNewConstMetric(byStatusDesc, prometheus.GaugeValue, s.Value, s.Organization, s.Project, s.Branch, s.Status)
	}
}
