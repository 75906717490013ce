package application

import (
	"github.com/davarch/gitlab-exporter/internal/domain"
)

// Batch holds one cycle's fetched pipelines, keyed by project slug.
type Batch map[string][]domain.Pipeline

// Aggregator turns raw pipeline batches into metric snapshots. It owns
// the FailureMemory used for sticky error classification and is only
// ever driven by one scrape cycle at a time.
type Aggregator struct {
	branches []string
	memory   *FailureMemory
	byStatus bool
}

func NewAggregator(branches []string, memory *FailureMemory, byStatus bool) *Aggregator {
	return &Aggregator{branches: branches, memory: memory, byStatus: byStatus}
}

// Aggregate builds the full snapshot for one cycle. updated is the
// watermark-bounded batch, running the status=running batch.
func (a *Aggregator) Aggregate(projects []domain.Project, updated, running Batch) Snapshot {
	snap := Snapshot{
		Totals:     a.count(projects, updated),
		Errors:     a.count(projects, a.classifyErrors(updated)),
		InProgress: a.count(projects, running),
		Durations:  a.durations(projects, updated),
	}
	if a.byStatus {
		snap.ByStatus = a.statusBreakdown(projects, updated)
	}
	return snap
}

// count tallies pipelines per configured (project, branch) pair. Every
// configured pair gets an entry, zero-valued when nothing matched: the
// families report presence, not just positive counts.
func (a *Aggregator) count(projects []domain.Project, batch Batch) []Sample {
	out := make([]Sample, 0, len(projects)*len(a.branches))
	for _, p := range projects {
		for _, branch := range a.branches {
			n := 0
			for _, pl := range batch[p.Slug] {
				if pl.Ref == branch {
					n++
				}
			}
			out = append(out, Sample{Project: p.Slug, Branch: branch, Value: float64(n)})
		}
	}
	return out
}

// classifyErrors selects the pipelines counting as errors: currently
// failed, or remembered as failed from an earlier cycle. Newly failed
// IDs are added to the memory, so a pipeline retried into success keeps
// counting as an error for the life of the process.
func (a *Aggregator) classifyErrors(batch Batch) Batch {
	out := make(Batch, len(batch))
	for slug, pipelines := range batch {
		var errs []domain.Pipeline
		for _, pl := range pipelines {
			if pl.Status == domain.StatusFailed || a.memory.Failed(slug, pl.ID) {
				a.memory.Add(slug, pl.ID)
				errs = append(errs, pl)
			}
		}
		out[slug] = errs
	}
	return out
}

// durations builds the per-pair duration histogram over successful
// pipelines. A bucket's count is cumulative: every bound strictly
// greater than the observation is incremented. Pairs with no successes
// still emit the full zero-valued ladder, never an empty histogram.
func (a *Aggregator) durations(projects []domain.Project, batch Batch) []HistogramSample {
	out := make([]HistogramSample, 0, len(projects)*len(a.branches))
	for _, p := range projects {
		for _, branch := range a.branches {
			h := HistogramSample{
				Project: p.Slug,
				Branch:  branch,
				Buckets: make(map[float64]uint64, len(DurationBuckets)),
			}
			for _, bound := range DurationBuckets {
				h.Buckets[bound] = 0
			}
			for _, pl := range batch[p.Slug] {
				if pl.Ref != branch {
					continue
				}
				d, ok := pl.Duration()
				if !ok {
					// Incomplete pipeline: skipped for this family only.
					continue
				}
				secs := d.Seconds()
				for _, bound := range DurationBuckets {
					if secs < bound {
						h.Buckets[bound]++
					}
				}
				h.Count++
				h.Sum += secs
			}
			out = append(out, h)
		}
	}
	return out
}

var breakdownStatuses = []domain.PipelineStatus{
	domain.StatusSuccess,
	domain.StatusFailed,
	domain.StatusRunning,
	domain.StatusOther,
}

// statusBreakdown tallies pipelines per (organization, project, branch,
// status). This is the coarser optional output mode; it never replaces
// the per-pair families.
func (a *Aggregator) statusBreakdown(projects []domain.Project, batch Batch) []StatusSample {
	out := make([]StatusSample, 0, len(projects)*len(a.branches)*len(breakdownStatuses))
	for _, p := range projects {
		for _, branch := range a.branches {
			counts := make(map[domain.PipelineStatus]int, len(breakdownStatuses))
			for _, pl := range batch[p.Slug] {
				if pl.Ref != branch {
					continue
				}
				st := pl.Status
				switch st {
				case domain.StatusSuccess, domain.StatusFailed, domain.StatusRunning:
				default:
					st = domain.StatusOther
				}
				counts[st]++
			}
			for _, st := range breakdownStatuses {
				out = append(out, StatusSample{
					Organization: p.Organization(),
					Project:      p.Slug,
					Branch:       branch,
					Status:       string(st),
					Value:        float64(counts[st]),
				})
			}
		}
	}
	return out
}
