package application

import (
	"context"
	"fmt"
	"time"

	"github.com/davarch/gitlab-exporter/internal/domain"
)

// ScrapeUseCase runs one scrape cycle: fetch every configured
// project/branch pair, aggregate, swap the result into the store as one
// atomic replace. A fetch failure for any pair aborts the cycle without
// publishing anything; the prior snapshot stays visible until the next
// successful cycle.
type ScrapeUseCase struct {
	fetch domain.PipelineFetcher
	agg   *Aggregator
	store *SnapshotStore
	sink  domain.StateSink

	branches []string
	lookback time.Duration

	start time.Time
	now   func() time.Time
}

func NewScrapeUseCase(
	fetch domain.PipelineFetcher,
	agg *Aggregator,
	store *SnapshotStore,
	sink domain.StateSink,
	branches []string,
	lookback time.Duration,
) *ScrapeUseCase {
	return &ScrapeUseCase{
		fetch:    fetch,
		agg:      agg,
		store:    store,
		sink:     sink,
		branches: branches,
		lookback: lookback,
		start:    time.Now().UTC(),
		now:      time.Now,
	}
}

// watermark bounds the fetch: process start time by default, or a
// rolling now-minus-lookback when a lookback is configured.
func (uc *ScrapeUseCase) watermark() time.Time {
	if uc.lookback > 0 {
		return uc.now().UTC().Add(-uc.lookback)
	}
	return uc.start
}

func (uc *ScrapeUseCase) ScrapeOnce(ctx context.Context, projects []domain.Project) error {
	wm := uc.watermark()

	updated := make(Batch, len(projects))
	running := make(Batch, len(projects))

	for _, p := range projects {
		for _, branch := range uc.branches {
			batch, err := uc.fetch.Pipelines(ctx, p, domain.PipelineQuery{
				Ref:          branch,
				UpdatedAfter: wm,
			})
			if err != nil {
				return fmt.Errorf("fetch %s@%s: %w", p.Slug, branch, err)
			}
			updated[p.Slug] = append(updated[p.Slug], batch...)

			// The in-progress gauge reflects everything currently
			// running, not just runs inside the watermark window.
			active, err := uc.fetch.Pipelines(ctx, p, domain.PipelineQuery{
				Ref:    branch,
				Status: domain.StatusRunning,
			})
			if err != nil {
				return fmt.Errorf("fetch running %s@%s: %w", p.Slug, branch, err)
			}
			running[p.Slug] = append(running[p.Slug], active...)
		}
	}

	snap := uc.agg.Aggregate(projects, updated, running)
	uc.store.Swap(&snap)

	if uc.sink != nil {
		counts := make(map[string]int, len(updated))
		for slug, pipelines := range updated {
			counts[slug] = len(pipelines)
		}
		_ = uc.sink.Write(ctx, domain.CycleSummary{
			Finished:  uc.now().Unix(),
			Pipelines: counts,
		})
	}

	return nil
}
