package application

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/davarch/gitlab-exporter/internal/domain"
	"go.uber.org/zap"
)

type Scheduler struct {
	log       *zap.Logger
	use       *ScrapeUseCase
	every     time.Duration
	pauseFile string

	mu       sync.RWMutex
	projects []domain.Project
}

func NewScheduler(l *zap.Logger, u *ScrapeUseCase, projects []domain.Project, every time.Duration, pauseFile string) *Scheduler {
	return &Scheduler{
		log: l, use: u, projects: projects, every: every, pauseFile: pauseFile,
	}
}

func (s *Scheduler) UpdateProjects(projects []domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
	s.log.Info("config reloaded", zap.Int("projects", len(projects)))
}

func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.every)
	defer t.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.isPaused() {
		s.log.Debug("paused: skipping scrape")
		return
	}

	s.mu.RLock()
	projects := make([]domain.Project, len(s.projects))
	copy(projects, s.projects)
	s.mu.RUnlock()

	if err := s.use.ScrapeOnce(ctx, projects); err != nil {
		// Prior snapshot stays published; next tick tries again.
		s.log.Warn("scrape cycle failed", zap.Error(err))
	}
}

func (s *Scheduler) isPaused() bool {
	if s.pauseFile == "" {
		return false
	}
	_, err := os.Stat(s.pauseFile)
	return err == nil
}
