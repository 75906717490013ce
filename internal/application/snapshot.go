package application

// DurationBuckets are the histogram upper bounds for pipeline
// durations, in seconds. A +Inf bucket is implied on top.
var DurationBuckets = []float64{180, 300, 600, 900, 1200, 1500, 1800, 2100, 2400, 2700}

// Sample is one labelled value of a counter or gauge family.
type Sample struct {
	Project string
	Branch  string
	Value   float64
}

// HistogramSample is one labelled series of the duration histogram.
// Buckets holds cumulative counts keyed by upper bound: the count for
// bound b is the number of observations strictly less than b. Count is
// the implicit +Inf bucket.
type HistogramSample struct {
	Project string
	Branch  string
	Buckets map[float64]uint64
	Count   uint64
	Sum     float64
}

// StatusSample is one labelled value of the optional by-status family.
type StatusSample struct {
	Organization string
	Project      string
	Branch       string
	Status       string
	Value        float64
}

// Snapshot is one cycle's fully-built metric families. It is immutable
// once built and swapped into the SnapshotStore as a whole, so a
// concurrent reader never sees families from two different cycles.
type Snapshot struct {
	Totals     []Sample
	Errors     []Sample
	InProgress []Sample
	Durations  []HistogramSample

	// ByStatus is populated only when the status-breakdown output mode
	// is enabled.
	ByStatus []StatusSample
}
