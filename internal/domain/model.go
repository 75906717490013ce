package domain

import (
	"strings"
	"time"
)

type PipelineStatus string

const (
	StatusSuccess PipelineStatus = "success"
	StatusFailed  PipelineStatus = "failed"
	StatusRunning PipelineStatus = "running"
	StatusOther   PipelineStatus = "other"
)

// Pipeline is one CI run as reported by the GitLab pipelines API.
// ID is stable across retries of the same run.
type Pipeline struct {
	ID        int64
	Ref       string
	Status    PipelineStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	WebURL    string
}

// Duration reports how long the pipeline took, in wall-clock time from
// creation to last update. It is defined only for successful pipelines:
// failed ones can be restarted an arbitrary number of times, so a run
// isn't done until it succeeds.
func (p Pipeline) Duration() (time.Duration, bool) {
	if p.Status != StatusSuccess {
		return 0, false
	}
	return p.UpdatedAt.Sub(p.CreatedAt), true
}

// Project identifies a GitLab project by its "organization/name" slug.
type Project struct {
	Slug string
}

func (p Project) Organization() string {
	if i := strings.Index(p.Slug, "/"); i >= 0 {
		return p.Slug[:i]
	}
	return p.Slug
}

// PipelineQuery bounds one fetch: records updated after UpdatedAfter on
// the given ref, optionally restricted to a single status.
type PipelineQuery struct {
	Ref          string
	UpdatedAfter time.Time
	Status       PipelineStatus
}

// CycleSummary describes one completed scrape cycle.
type CycleSummary struct {
	Finished  int64
	Pipelines map[string]int
}
