package state_fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/davarch/gitlab-exporter/internal/domain"
)

// FSSink writes the latest cycle summary to a JSON file for external
// tooling. Only the most recent cycle is kept.
type FSSink struct {
	path string
}

func New(path string) *FSSink { return &FSSink{path: path} }

func (c *FSSink) Write(_ context.Context, s domain.CycleSummary) error {
	if c.path == "" {
		return errors.New("state path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	type out struct {
		Finished  int64          `json:"finished"`
		Pipelines map[string]int `json:"pipelines"`
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(out{
		Finished:  s.Finished,
		Pipelines: s.Pipelines,
	})
}
