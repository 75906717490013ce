package cli

import (
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/davarch/gitlab-exporter/internal/application"
	"github.com/davarch/gitlab-exporter/internal/domain"
	"github.com/davarch/gitlab-exporter/internal/infrastructure/config"
	"github.com/davarch/gitlab-exporter/internal/infrastructure/gitlab_http"
	"github.com/davarch/gitlab-exporter/internal/infrastructure/logging"
	"github.com/davarch/gitlab-exporter/internal/infrastructure/prom_http"
	"github.com/davarch/gitlab-exporter/internal/infrastructure/state_fs"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scrape loop and exposition server",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New()
		defer func() { _ = log.Sync() }()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatal("config", zap.Error(err))
		}

		gl := gitlab_http.New(cfg.GitLab.BaseURL, cfg.GitLab.Token, cfg.GitLab.Timeout)

		var sink domain.StateSink
		if cfg.State.Path != "" {
			sink = state_fs.New(cfg.State.Path)
		}

		memory := application.NewFailureMemory()
		agg := application.NewAggregator(cfg.Poll.Branches, memory, cfg.Exporter.StatusBreakdown)
		store := application.NewSnapshotStore()
		uc := application.NewScrapeUseCase(gl, agg, store, sink, cfg.Poll.Branches, cfg.Lookback())

		projects := enabledProjects(cfg)
		if len(projects) == 0 {
			log.Fatal("no enabled projects")
		}

		sched := application.NewScheduler(log, uc, projects, cfg.Poll.Interval, cfg.Poll.PauseFile)
		watchAndReload(cfgPath, log, sched)

		srv, err := prom_http.NewServer(cfg.Exporter.Listen, store, log)
		if err != nil {
			log.Fatal("exposition", zap.Error(err))
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Error("exposition server", zap.Error(err))
				cancel()
			}
		}()

		log.Info("start",
			zap.String("version", version),
			zap.Int("projects", len(projects)),
			zap.Strings("branches", cfg.Poll.Branches),
			zap.Duration("every", cfg.Poll.Interval),
			zap.Int("lookback_days", cfg.Poll.LookbackDays),
			zap.String("gitlab", cfg.GitLab.BaseURL),
			zap.String("listen", cfg.Exporter.Listen),
		)
		sched.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func enabledProjects(cfg config.Config) []domain.Project {
	var out []domain.Project
	for _, p := range cfg.Poll.Projects {
		if p.Enabled {
			out = append(out, domain.Project{Slug: p.Slug})
		}
	}
	return out
}

func watchAndReload(cfgPath string, log *zap.Logger, sched *application.Scheduler) {
	if cfgPath == "" {
		return
	}

	dir := filepath.Dir(cfgPath)
	base := filepath.Base(cfgPath)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify init failed", zap.Error(err))
		return
	}

	go func() {
		defer func() { _ = w.Close() }()

		var timer *time.Timer
		fire := func() {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				log.Warn("config reload failed", zap.Error(err))
				return
			}
			projects := enabledProjects(cfg)
			if len(projects) == 0 {
				log.Warn("config reload: no enabled projects")
			}
			sched.UpdateProjects(projects)
		}

		startTimer := func() {
			if timer == nil {
				timer = time.AfterFunc(300*time.Millisecond, fire)
				return
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(300 * time.Millisecond)
		}

		if err := w.Add(dir); err != nil {
			log.Warn("fsnotify add dir failed", zap.String("dir", dir), zap.Error(err))
			return
		}

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}

				if filepath.Base(ev.Name) != base {
					continue
				}

				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					startTimer()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("fsnotify error", zap.Error(err))
			}
		}
	}()
}
