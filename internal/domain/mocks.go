package domain

import (
	"context"
)

type MockFetcher struct {
	// Batches maps "slug|ref" to the pipelines returned for that pair.
	// Running maps the same key to the status=running batch.
	Batches map[string][]Pipeline
	Running map[string][]Pipeline
	Err     error
	Called  int
}

func (m *MockFetcher) Pipelines(ctx context.Context, p Project, q PipelineQuery) ([]Pipeline, error) {
	m.Called++
	if m.Err != nil {
		return nil, m.Err
	}
	key := p.Slug + "|" + q.Ref
	if q.Status == StatusRunning {
		return m.Running[key], nil
	}
	return m.Batches[key], nil
}

type MockSink struct {
	Summaries []CycleSummary
	Err       error
}

func (s *MockSink) Write(ctx context.Context, c CycleSummary) error {
	if s.Err != nil {
		return s.Err
	}
	s.Summaries = append(s.Summaries, c)
	return nil
}
