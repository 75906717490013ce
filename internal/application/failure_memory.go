package application

// FailureMemory remembers, per project, every pipeline ID that has ever
// been observed failed during this process's lifetime. IDs are only
// added, never removed: a batch is windowed by the fetch watermark, so
// replacing the set wholesale would forget an old permanent failure
// once it ages out of the window. GitLab may later report a remembered
// pipeline as successful after a retry; its current status is not
// authoritative for "ever failed".
type FailureMemory struct {
	failed map[string]map[int64]struct{}
}

func NewFailureMemory() *FailureMemory {
	return &FailureMemory{failed: make(map[string]map[int64]struct{})}
}

func (m *FailureMemory) Failed(project string, id int64) bool {
	_, ok := m.failed[project][id]
	return ok
}

func (m *FailureMemory) Add(project string, id int64) {
	ids, ok := m.failed[project]
	if !ok {
		ids = make(map[int64]struct{})
		m.failed[project] = ids
	}
	ids[id] = struct{}{}
}

// Count returns how many failed pipeline IDs are remembered for a project.
func (m *FailureMemory) Count(project string) int {
	return len(m.failed[project])
}
