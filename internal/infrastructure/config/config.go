package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

type Project struct {
	Slug    string `yaml:"slug"`
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name,omitempty"`
}

type Config struct {
	GitLab struct {
		BaseURL string        `yaml:"base_url"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"gitlab"`

	Poll struct {
		Interval     time.Duration `yaml:"interval"`
		LookbackDays int           `yaml:"lookback_days"`
		Branches     []string      `yaml:"branches"`
		Projects     []Project     `yaml:"projects"`
		PauseFile    string        `yaml:"pause_file"`
	} `yaml:"poll"`

	Exporter struct {
		Listen          string `yaml:"listen"`
		StatusBreakdown bool   `yaml:"status_breakdown"`
	} `yaml:"exporter"`

	State struct {
		Path string `yaml:"path"`
	} `yaml:"state"`
}

// Lookback returns the rolling watermark window, zero when the fixed
// process-start watermark is in effect.
func (c Config) Lookback() time.Duration {
	return time.Duration(c.Poll.LookbackDays) * 24 * time.Hour
}

func Load(path string) (Config, error) {
	var c Config

	c.GitLab.BaseURL = "https://gitlab.com"
	c.GitLab.Timeout = 10 * time.Second
	c.Poll.Interval = 30 * time.Second
	c.Exporter.Listen = ":8000"

	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}

	if v := os.Getenv("GITLAB_URL"); v != "" {
		c.GitLab.BaseURL = v
	}

	if v := os.Getenv("GITLAB_TOKEN"); v != "" {
		c.GitLab.Token = v
	}

	if v := os.Getenv("GITLAB_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.GitLab.Timeout = d
		}
	}

	if v := os.Getenv("GITLAB_POLL_INTERVAL"); v != "" {
		if d, err := parseInterval(v); err == nil {
			c.Poll.Interval = d
		}
	}

	if v := os.Getenv("GITLAB_LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Poll.LookbackDays = n
		}
	}

	if v := os.Getenv("GITLAB_BRANCHES"); v != "" {
		c.Poll.Branches = splitList(v)
	}

	if s := os.Getenv("GITLAB_PROJECTS"); s != "" {
		var ps []Project
		for _, slug := range splitList(s) {
			ps = append(ps, Project{Slug: slug, Enabled: true})
		}
		if len(ps) > 0 {
			c.Poll.Projects = ps
		}
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Exporter.Listen = v
	}

	if v := os.Getenv("STATUS_BREAKDOWN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Exporter.StatusBreakdown = b
		}
	}

	if v := os.Getenv("STATE_PATH"); v != "" {
		c.State.Path = expandHome(v)
	}

	c.State.Path = expandHome(c.State.Path)
	c.Poll.PauseFile = expandHome(c.Poll.PauseFile)

	if c.GitLab.BaseURL == "" {
		c.GitLab.BaseURL = "https://gitlab.com"
	}

	if c.Poll.Interval <= 0 {
		c.Poll.Interval = 30 * time.Second
	}

	if c.GitLab.Timeout <= 0 {
		c.GitLab.Timeout = 10 * time.Second
	}

	if len(c.Poll.Branches) == 0 {
		c.Poll.Branches = []string{"master", "main"}
	}

	if c.GitLab.Token == "" {
		return c, errors.New("GITLAB_TOKEN is required")
	}

	if len(c.Poll.Projects) == 0 {
		return c, errors.New("no projects configured (YAML or ENV)")
	}

	return c, nil
}

func Save(path string, c Config) error {
	if path == "" {
		return errors.New("empty config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lockFile := path + ".lock"
	lf, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = lf.Close() }()

	if runtime.GOOS != "windows" {
		if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
			return err
		}
		defer func() { _ = syscall.Flock(int(lf.Fd()), syscall.LOCK_UN) }()
	}

	b, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	if _, err := f.Write(b); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// parseInterval accepts either a Go duration ("30s") or a bare number
// of seconds ("3"), the latter matching the exporter's historical env
// convention.
func parseInterval(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if h, _ := os.UserHomeDir(); h != "" {
			return h + p[1:]
		}
	}
	return p
}
