package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/padwatch/internal/model"
	"github.com/nao1215/padwatch/internal/tracker"
)

// Fetcher retrieves the current content and metadata of a pad.
type Fetcher interface {
	Fetch(ctx context.Context, link model.Link) (*model.Pad, error)
}

// Store persists the last settled snapshot of every pad.
type Store interface {
	// Read returns the persisted content of link.
	// The boolean is false when no snapshot exists.
	Read(ctx context.Context, link model.Link) (string, bool, error)

	// Store replaces the persisted content of link.
	Store(ctx context.Context, link model.Link, content string) error

	// Links lists every link with a persisted snapshot.
	Links(ctx context.Context) ([]model.Link, error)
}

// Notifier delivers settle events.
type Notifier interface {
	Notify(ctx context.Context, change model.Change) error
}

// Recorder receives crawl events for metrics. All methods must be cheap.
type Recorder interface {
	// FetchDone is called after each fetch with its error, if any.
	FetchDone(server string, err error)
	// LinkFailed is called once for each link whose processing failed.
	LinkFailed(kind string)
	// Settled is called for each settle event.
	Settled(created bool)
	// Notified is called after each notification attempt.
	Notified(err error)
	// CycleDone is called at the end of each cycle.
	CycleDone(known int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) FetchDone(string, error) {}
func (nopRecorder) LinkFailed(string) {}
func (nopRecorder) Settled(bool) {}
func (nopRecorder) Notified(error) {}
func (nopRecorder) CycleDone(int, time.Duration) {}

const (
	// DefaultInterval is the pause between two cycles.
	DefaultInterval = 5 * time.Minute
	// DefaultCoolDown is how long a pad must stay unchanged before it settles.
	DefaultCoolDown = 15 * time.Minute
	// DefaultTimeout bounds each fetch, store and notify call.
	DefaultTimeout = 30 * time.Second
)

// Crawler is the polling loop. It owns the frontier and the trackers and is
// driven by a single goroutine.
type Crawler struct {
	servers  model.ServerSet
	seeds    []string
	fetcher  Fetcher
	store    Store
	notifier Notifier

	interval       time.Duration
	coolDown       time.Duration
	timeout        time.Duration
	ignorePatterns []string
	now            func() time.Time
	logger         *slog.Logger
	recorder       Recorder

	frontier *Frontier
	trackers map[model.Link]*tracker.Tracker
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithInterval sets the pause between cycles.
func WithInterval(d time.Duration) Option {
	return func(c *Crawler) {
		c.interval = d
	}
}

// WithCoolDown sets how long a pad must stay unchanged before it is reported.
func WithCoolDown(d time.Duration) Option {
	return func(c *Crawler) {
		c.coolDown = d
	}
}

// WithTimeout bounds every fetch, store and notify call. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		c.timeout = d
	}
}

// WithIgnorePatterns sets glob patterns for discovered links to skip.
// Seeds and persisted links are never skipped.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.ignorePatterns = patterns
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Crawler) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Crawler) {
		c.recorder = r
	}
}

// New creates a Crawler over the given pad servers. Seeds are pad URLs and
// are resolved by Seed.
func New(servers model.ServerSet, seeds []string, fetcher Fetcher, store Store, notifier Notifier, opts ...Option) *Crawler {
	c := &Crawler{
		servers:  servers,
		seeds:    seeds,
		fetcher:  fetcher,
		store:    store,
		notifier: notifier,
		interval: DefaultInterval,
		coolDown: DefaultCoolDown,
		timeout:  DefaultTimeout,
		now:      time.Now,
		logger:   slog.Default(),
		recorder: nopRecorder{},
		frontier: NewFrontier(),
		trackers: make(map[model.Link]*tracker.Tracker),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Seed fills the frontier with the configured seeds followed by every link
// the store has a snapshot for. A seed that is not a pad on a configured
// server is an error wrapping ErrInvalidSeed.
func (c *Crawler) Seed(ctx context.Context) error {
	for _, seed := range c.seeds {
		link, ok := c.servers.Resolve(seed)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidSeed, seed)
		}
		c.frontier.Add(link)
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	stored, err := c.store.Links(opCtx)
	if err != nil {
		return fmt.Errorf("%w: listing links: %w", ErrStore, err)
	}
	for _, link := range stored {
		c.frontier.Add(link)
	}

	c.logger.Info("frontier seeded",
		"seeds", len(c.seeds),
		"stored", len(stored),
		"known", c.frontier.Size())
	return nil
}

// Run executes cycles until ctx is cancelled, sleeping for the configured
// interval between them. It returns ctx.Err() on cancellation.
func (c *Crawler) Run(ctx context.Context) error {
	for {
		if err := c.RunCycle(ctx); err != nil {
			return err
		}

		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle processes every known link once, plus every link discovered on
// the way. Per-link failures are logged and do not stop the cycle. The only
// error returned is ctx.Err(), checked between links.
func (c *Crawler) RunCycle(ctx context.Context) error {
	start := c.now()
	c.frontier.Reset()

	var processed, failed int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		link, ok := c.frontier.Pop()
		if !ok {
			break
		}

		processed++
		if err := c.processLink(ctx, link); err != nil {
			failed++
			c.recorder.LinkFailed(Kind(err))
			c.logger.Error("processing link failed",
				"link", link.String(),
				"error", err)
		}
	}

	elapsed := c.now().Sub(start)
	c.recorder.CycleDone(c.frontier.Size(), elapsed)
	c.logger.Info("cycle complete",
		"processed", processed,
		"failed", failed,
		"known", c.frontier.Size(),
		"elapsed", elapsed)
	return nil
}

// Known returns every known link in discovery order.
func (c *Crawler) Known() []model.Link {
	return c.frontier.Known()
}

// Tracker returns the tracker of link, or nil if the link was never fetched.
func (c *Crawler) Tracker(link model.Link) *tracker.Tracker {
	return c.trackers[link]
}

func (c *Crawler) processLink(ctx context.Context, link model.Link) error {
	pad, err := c.fetch(ctx, link)
	if err != nil {
		return err
	}

	targets, err := ExtractLinks(pad)
	if err != nil {
		return err
	}
	for _, target := range targets {
		found, ok := c.servers.Resolve(target)
		if !ok || c.ignored(found) {
			continue
		}
		if c.frontier.Add(found) {
			c.logger.Debug("link discovered", "link", found.String(), "from", link.String())
		}
	}

	tr, ok := c.trackers[link]
	if ok {
		tr.Update(pad.Content, c.now())
	} else {
		prior, exists, err := c.read(ctx, link)
		if err != nil {
			return err
		}
		if exists {
			tr = tracker.FromExisting(prior, pad.Content, c.now())
		} else {
			tr = tracker.New(pad.Content, c.now())
		}
		c.trackers[link] = tr
	}

	if !tr.Quiesce(c.coolDown, c.now()) {
		return nil
	}
	return c.settle(ctx, pad)
}

// settle persists the settled content and notifies about it.
func (c *Crawler) settle(ctx context.Context, pad *model.Pad) error {
	prior, exists, err := c.read(ctx, pad.Link)
	if err != nil {
		return err
	}

	change := model.Change{Pad: pad, Prior: prior, Created: !exists}
	c.recorder.Settled(change.Created)
	c.logger.Info("pad settled",
		"link", pad.Link.String(),
		"title", pad.DisplayTitle(),
		"change", change.Verb())

	opCtx, cancel := c.opContext(ctx)
	err = c.store.Store(opCtx, pad.Link, pad.Content)
	cancel()
	if err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrStore, pad.Link, err)
	}

	opCtx, cancel = c.opContext(ctx)
	err = c.notifier.Notify(opCtx, change)
	cancel()
	c.recorder.Notified(err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotify, err)
	}
	return nil
}

func (c *Crawler) fetch(ctx context.Context, link model.Link) (*model.Pad, error) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	pad, err := c.fetcher.Fetch(opCtx, link)
	c.recorder.FetchDone(link.Server, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return pad, nil
}

func (c *Crawler) read(ctx context.Context, link model.Link) (string, bool, error) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	content, ok, err := c.store.Read(opCtx, link)
	if err != nil {
		return "", false, fmt.Errorf("%w: reading %s: %w", ErrStore, link, err)
	}
	return content, ok, nil
}

func (c *Crawler) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
