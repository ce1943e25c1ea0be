package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
repo:
  path: /var/lib/padwatch
crawl:
  servers: [pad.example]
  seeds: ["https://pad.example/index"]
notify:
  username: "@bot:example.org"
  password: secret
  room: "!abc:example.org"
`

// validConfig returns a configuration that passes Validate.
// Tests modify single fields to exercise one rule at a time.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Parse(minimalYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cfg
}

func TestNewDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()

	t.Run("default interval is 5 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.Crawl.Interval != 5*time.Minute {
			t.Errorf("expected interval 5m, got %v", cfg.Crawl.Interval)
		}
	})

	t.Run("default cool-down is 15 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.Notify.CoolDown != 15*time.Minute {
			t.Errorf("expected cool-down 15m, got %v", cfg.Notify.CoolDown)
		}
	})

	t.Run("default drivers are fs and matrix", func(t *testing.T) {
		t.Parallel()
		if cfg.Repo.Driver != RepoDriverFS {
			t.Errorf("expected repo driver fs, got %q", cfg.Repo.Driver)
		}
		if cfg.Notify.Driver != NotifyDriverMatrix {
			t.Errorf("expected notify driver matrix, got %q", cfg.Notify.Driver)
		}
	})

	t.Run("metrics are disabled", func(t *testing.T) {
		t.Parallel()
		if cfg.Metrics.Enabled() {
			t.Error("expected metrics to be disabled by default")
		}
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("durations and kebab-case keys are decoded", func(t *testing.T) {
		t.Parallel()

		cfg, err := Parse(`
crawl:
  servers: [pad.example, md.example]
  seeds: ["https://pad.example/a"]
  interval: 90s
  max-body-size: 1024
  user-agent: test-agent
notify:
  cool-down: 1h
  device-name: Test Bot
metrics:
  listen: ":9108"
`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Crawl.Interval != 90*time.Second {
			t.Errorf("expected interval 90s, got %v", cfg.Crawl.Interval)
		}
		if cfg.Crawl.MaxBodySize != 1024 {
			t.Errorf("expected max body size 1024, got %d", cfg.Crawl.MaxBodySize)
		}
		if cfg.Crawl.UserAgent != "test-agent" {
			t.Errorf("expected user agent test-agent, got %q", cfg.Crawl.UserAgent)
		}
		if cfg.Notify.CoolDown != time.Hour {
			t.Errorf("expected cool-down 1h, got %v", cfg.Notify.CoolDown)
		}
		if cfg.Notify.DeviceName != "Test Bot" {
			t.Errorf("expected device name, got %q", cfg.Notify.DeviceName)
		}
		if len(cfg.Crawl.Servers) != 2 {
			t.Errorf("expected 2 servers, got %d", len(cfg.Crawl.Servers))
		}
		if !cfg.Metrics.Enabled() {
			t.Error("expected metrics to be enabled")
		}
		// Unset values keep their defaults.
		if cfg.Crawl.Timeout != DefaultTimeout {
			t.Errorf("expected default timeout, got %v", cfg.Crawl.Timeout)
		}
	})

	t.Run("empty repo path falls back to XDG data dir", func(t *testing.T) {
		t.Parallel()

		cfg, err := Parse("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Repo.Path != XDGDataDir() {
			t.Errorf("expected %q, got %q", XDGDataDir(), cfg.Repo.Path)
		}
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("crawl:\n  intervall: 5m\n")
		if err == nil {
			t.Fatal("expected error for unknown key")
		}
	})

	t.Run("malformed duration is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("crawl:\n  interval: soon\n")
		if err == nil {
			t.Fatal("expected error for malformed duration")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig(t).Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	sentinels := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no servers", func(c *Config) { c.Crawl.Servers = nil }, ErrNoServers},
		{"no seeds", func(c *Config) { c.Crawl.Seeds = nil }, ErrNoSeeds},
		{"zero interval", func(c *Config) { c.Crawl.Interval = 0 }, ErrInvalidInterval},
		{"negative timeout", func(c *Config) { c.Crawl.Timeout = -time.Second }, ErrInvalidTimeout},
		{"negative cool-down", func(c *Config) { c.Notify.CoolDown = -time.Second }, ErrInvalidCoolDown},
		{"negative body size", func(c *Config) { c.Crawl.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative rate", func(c *Config) { c.Crawl.Rate = -1 }, ErrInvalidRate},
		{"unknown repo driver", func(c *Config) { c.Repo.Driver = "s3" }, ErrInvalidRepoDriver},
		{"unknown notify driver", func(c *Config) { c.Notify.Driver = "email" }, ErrInvalidNotifyDriver},
	}
	for _, tt := range sentinels {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig(t)
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	invalid := []struct {
		name   string
		modify func(*Config)
	}{
		{"server with scheme", func(c *Config) { c.Crawl.Servers = []string{"https://pad.example"} }},
		{"empty seed", func(c *Config) { c.Crawl.Seeds = []string{""} }},
		{"proxy without port", func(c *Config) { c.Crawl.Proxy = "127.0.0.1" }},
		{"matrix without password", func(c *Config) { c.Notify.Password = "" }},
		{"malformed user id", func(c *Config) { c.Notify.Username = "bot" }},
		{"malformed room id", func(c *Config) { c.Notify.Room = "room" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"metrics without port", func(c *Config) { c.Metrics.Listen = "localhost" }},
		{"console with unknown format", func(c *Config) {
			c.Notify.Driver = NotifyDriverConsole
			c.Notify.Format = "yaml"
		}},
		{"empty repo path", func(c *Config) { c.Repo.Path = "" }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig(t)
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	t.Run("console driver needs no credentials", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig(t)
		cfg.Notify = NotifyConfig{Driver: NotifyDriverConsole, CoolDown: time.Minute, Format: "json"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("server with port is accepted", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig(t)
		cfg.Crawl.Servers = []string{"pad.example:8443"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Setenv("PADWATCH_TEST_PASSWORD", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := strings.Replace(minimalYAML, "password: secret", "password: ${PADWATCH_TEST_PASSWORD}", 1)
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Notify.Password != "from-env" {
		t.Errorf("expected password from environment, got %q", cfg.Notify.Password)
	}
	if cfg.Repo.Path != "/var/lib/padwatch" {
		t.Errorf("expected repo path /var/lib/padwatch, got %q", cfg.Repo.Path)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("crawl:\n  seeds: [x]\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		_, err := Load(path)
		if !errors.Is(err, ErrNoServers) {
			t.Errorf("expected ErrNoServers, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("crawl: [unclosed\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected parse error, got nil")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path that exists", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte(minimalYAML), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		got, err := FindConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		t.Parallel()
		_, err := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestCrawlConfigSite(t *testing.T) {
	t.Parallel()

	crawl := CrawlConfig{
		Servers: []string{"pad.example", "md.example", "plain.example"},
		SiteDefaults: SiteConfig{
			Headers: map[string]string{"X-Client": "padwatch"},
		},
		Sites: map[string]SiteConfig{
			"pad.example": {
				Cookie:  "connect.sid=abc",
				Headers: map[string]string{"X-Team": "docs"},
			},
			"md.example": {
				Headers: map[string]string{"X-Client": "override"},
			},
		},
	}

	t.Run("site values merge over defaults", func(t *testing.T) {
		t.Parallel()
		site := crawl.Site("pad.example")
		if site.Cookie != "connect.sid=abc" {
			t.Errorf("expected cookie, got %q", site.Cookie)
		}
		if site.Headers["X-Client"] != "padwatch" || site.Headers["X-Team"] != "docs" {
			t.Errorf("expected merged headers, got %v", site.Headers)
		}
	})

	t.Run("site header overrides default", func(t *testing.T) {
		t.Parallel()
		if got := crawl.Site("md.example").Headers["X-Client"]; got != "override" {
			t.Errorf("expected override, got %q", got)
		}
	})

	t.Run("merging does not mutate defaults", func(t *testing.T) {
		t.Parallel()
		_ = crawl.Site("pad.example")
		if _, ok := crawl.SiteDefaults.Headers["X-Team"]; ok {
			t.Error("expected defaults to be left untouched")
		}
	})

	t.Run("site configs cover every server", func(t *testing.T) {
		t.Parallel()
		sites := crawl.SiteConfigs()
		if len(sites) != 3 {
			t.Errorf("expected 3 sites, got %d", len(sites))
		}
		if sites["plain.example"].Headers["X-Client"] != "padwatch" {
			t.Errorf("expected default headers for plain.example, got %v", sites["plain.example"])
		}
	})
}
