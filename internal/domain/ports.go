package domain

import "context"

// PipelineFetcher returns every pipeline matching the query for one
// project, fully paginated. The returned slice is finite; a fetched
// page coming back empty terminates pagination. Unrecoverable transport
// failures surface as errors and abort the caller's scrape cycle.
type PipelineFetcher interface {
	Pipelines(ctx context.Context, project Project, q PipelineQuery) ([]Pipeline, error)
}

// StateSink receives a summary after each successful scrape cycle.
type StateSink interface {
	Write(ctx context.Context, s CycleSummary) error
}
