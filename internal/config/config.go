package config

import (
	"fmt"
	"net"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AppName is the application name used for XDG directory paths.
const AppName = "padwatch"

// Repository drivers.
const (
	RepoDriverFS     = "fs"
	RepoDriverSQLite = "sqlite"
)

// Notification drivers.
const (
	NotifyDriverMatrix  = "matrix"
	NotifyDriverConsole = "console"
)

// Default configuration values.
const (
	// DefaultInterval is the pause between two crawl cycles.
	DefaultInterval = 5 * time.Minute

	// DefaultTimeout bounds each fetch, store and notify call.
	DefaultTimeout = 30 * time.Second

	// DefaultCoolDown is how long a pad must stay unedited before a
	// notification is sent.
	DefaultCoolDown = 15 * time.Minute

	// DefaultMaxBodySize limits each response body read from a pad server.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	// DefaultRate is the number of requests per second sent to one pad server.
	DefaultRate = 2.0

	// DefaultBurst is the number of requests allowed to exceed DefaultRate.
	DefaultBurst = 1
)

var (
	matrixUserID = regexp.MustCompile(`^@[^:\s]+:\S+$`)
	matrixRoomID = regexp.MustCompile(`^[!#][^:\s]+:\S+$`)
)

// Config represents the padwatch configuration file.
type Config struct {
	Repo    RepoConfig    `yaml:"repo"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// NewDefaultConfig returns a Config with every optional value set.
// Servers, seeds and Matrix credentials have no default.
func NewDefaultConfig() *Config {
	return &Config{
		Repo: RepoConfig{
			Driver: RepoDriverFS,
		},
		Crawl: CrawlConfig{
			Interval:    DefaultInterval,
			Timeout:     DefaultTimeout,
			MaxBodySize: DefaultMaxBodySize,
			Rate:        DefaultRate,
			Burst:       DefaultBurst,
		},
		Notify: NotifyConfig{
			Driver:   NotifyDriverMatrix,
			CoolDown: DefaultCoolDown,
			Format:   "markdown",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Repo.Validate(); err != nil {
		return fmt.Errorf("repo: %w", err)
	}
	if err := c.Crawl.Validate(); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// RepoConfig selects where pad snapshots are persisted.
type RepoConfig struct {
	// Driver is "fs" (one file per pad) or "sqlite" (a single database file).
	Driver string `yaml:"driver"`

	// Path is the repository directory.
	// Defaults to the XDG data directory (~/.local/share/padwatch on Linux).
	Path string `yaml:"path"`
}

// Validate validates the repository configuration.
func (c *RepoConfig) Validate() error {
	if c.Driver != RepoDriverFS && c.Driver != RepoDriverSQLite {
		return ErrInvalidRepoDriver
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// CrawlConfig controls which pads are watched and how they are fetched.
type CrawlConfig struct {
	// Servers are the pad server host names links may point to.
	Servers []string `yaml:"servers"`

	// Seeds are the pad URLs the crawl starts from.
	Seeds []string `yaml:"seeds"`

	// Interval is the pause between two crawl cycles.
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds each external call made while processing a link.
	Timeout time.Duration `yaml:"timeout"`

	UserAgent   string  `yaml:"user-agent"`
	MaxBodySize int64   `yaml:"max-body-size"`
	Rate        float64 `yaml:"rate"`
	Burst       int     `yaml:"burst"`

	// Proxy is an optional SOCKS5 proxy in "host:port" form.
	Proxy string `yaml:"proxy"`

	// Ignore lists glob patterns of pads never to crawl.
	// A pattern without "/" matches the pad name; with "/" it matches
	// "server/name".
	Ignore []string `yaml:"ignore"`

	SiteDefaults SiteConfig            `yaml:"site-defaults"`
	Sites        map[string]SiteConfig `yaml:"sites"`
}

// Validate validates the crawl configuration.
func (c *CrawlConfig) Validate() error {
	if len(c.Servers) == 0 {
		return ErrNoServers
	}
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Rate < 0 {
		return ErrInvalidRate
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Servers, validation.Each(validation.Required, validation.By(isHost))),
		validation.Field(&c.Seeds, validation.Each(validation.Required)),
		validation.Field(&c.Burst, validation.Min(0)),
		validation.Field(&c.Proxy, validation.By(isHostPort)),
		validation.Field(&c.Ignore, validation.Each(validation.Required)),
	)
}

// NotifyConfig controls where settle events are delivered.
type NotifyConfig struct {
	// Driver is "matrix" or "console".
	Driver string `yaml:"driver"`

	// CoolDown is how long a pad must stay unedited before it is reported.
	CoolDown time.Duration `yaml:"cool-down"`

	// Format is the console output format: markdown, text or json.
	Format string `yaml:"format"`

	// Homeserver overrides the homeserver discovered from Username.
	Homeserver string `yaml:"homeserver"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Room       string `yaml:"room"`
	DeviceName string `yaml:"device-name"`
}

// Validate validates the notification configuration.
func (c *NotifyConfig) Validate() error {
	if c.Driver != NotifyDriverMatrix && c.Driver != NotifyDriverConsole {
		return ErrInvalidNotifyDriver
	}
	if c.CoolDown < 0 {
		return ErrInvalidCoolDown
	}
	matrix := c.Driver == NotifyDriverMatrix
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.When(!matrix, validation.In("markdown", "text", "json"))),
		validation.Field(&c.Username, validation.When(matrix,
			validation.Required, validation.Match(matrixUserID).Error("must look like @user:server"))),
		validation.Field(&c.Password, validation.When(matrix, validation.Required)),
		validation.Field(&c.Room, validation.When(matrix,
			validation.Required, validation.Match(matrixRoomID).Error("must look like !room:server"))),
	)
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In("text", "json")),
	)
}

// MetricsConfig controls the optional metrics and health HTTP server.
type MetricsConfig struct {
	// Listen is the address to serve on, e.g. ":9108". Empty disables the server.
	Listen string `yaml:"listen"`
}

// Enabled reports whether the metrics server should be started.
func (c *MetricsConfig) Enabled() bool {
	return c.Listen != ""
}

// Validate validates the metrics configuration.
func (c *MetricsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Listen, validation.By(isHostPort)),
	)
}

// XDGDataDir returns the XDG data directory for padwatch.
// On Linux: ~/.local/share/padwatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for padwatch.
// On Linux: ~/.config/padwatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

func isHost(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if strings.ContainsAny(s, "/ ") {
		return fmt.Errorf("must be a host name, got %q", s)
	}
	if !strings.Contains(s, ":") {
		return nil
	}
	_, port, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("must be a host name, got %q", s)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("invalid port in %q", s)
	}
	return nil
}

func isHostPort(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(s); err != nil {
		return fmt.Errorf("must be host:port, got %q", s)
	}
	return nil
}
