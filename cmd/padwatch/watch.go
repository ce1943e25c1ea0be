package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/padwatch/internal/config"
	"github.com/nao1215/padwatch/internal/crawler"
	"github.com/nao1215/padwatch/internal/metrics"
	"github.com/nao1215/padwatch/internal/model"
	"github.com/nao1215/padwatch/internal/notify"
	"github.com/nao1215/padwatch/internal/padserver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Crawl the configured pads and report settled changes",
		Long: `Watch seeds the crawl from the configured seed pads and every pad already
in the snapshot repository, then polls all known pads every crawl.interval.

A pad is reported once its content has changed and then stayed unchanged
for notify.cool-down. New pads linked from a known pad are picked up in the
same cycle.

Examples:
  # Run until interrupted
  padwatch watch

  # Run a single crawl cycle, e.g. from cron
  padwatch watch --once

  # Use a specific configuration file with debug logging
  padwatch watch -c ./padwatch.yaml -v`,
		Args: cobra.NoArgs,
		RunE: runWatchCmd,
	}

	cmd.Flags().Bool("once", false, "Run a single crawl cycle and exit")

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	once, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWatch(ctx, cfg, once, cmd.OutOrStdout(), logger)
}

// runWatch wires the crawler to its collaborators and runs it until ctx is
// cancelled, or for one cycle when once is set. clientOpts are applied after
// the options derived from cfg.
func runWatch(ctx context.Context, cfg *config.Config, once bool, out io.Writer, logger *slog.Logger, clientOpts ...padserver.Option) error {
	store, err := openStore(cfg.Repo)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close repository", "error", err)
		}
	}()

	client, err := newPadClient(cfg.Crawl, clientOpts...)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(ctx, cfg.Notify, out, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)

	c := crawler.New(
		model.NewServerSet(cfg.Crawl.Servers...),
		cfg.Crawl.Seeds,
		client,
		store,
		notifier,
		crawler.WithInterval(cfg.Crawl.Interval),
		crawler.WithTimeout(cfg.Crawl.Timeout),
		crawler.WithCoolDown(cfg.Notify.CoolDown),
		crawler.WithIgnorePatterns(cfg.Crawl.Ignore),
		crawler.WithLogger(logger),
		crawler.WithRecorder(recorder),
	)

	logger.Info("starting padwatch",
		"servers", cfg.Crawl.Servers,
		"repo", cfg.Repo.Path,
		"driver", cfg.Repo.Driver,
		"notify", cfg.Notify.Driver,
		"interval", cfg.Crawl.Interval,
		"cool_down", cfg.Notify.CoolDown)

	if err := c.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed crawl: %w", err)
	}

	if once {
		return ignoreCanceled(ctx, c.RunCycle(ctx))
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled() {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Listen, metrics.NewRouter(reg, recorder), logger)
		})
	}
	g.Go(func() error {
		return c.Run(gctx)
	})

	err = ignoreCanceled(ctx, g.Wait())
	if err == nil {
		logger.Info("shutting down")
	}
	return err
}

// ignoreCanceled turns the cancellation caused by a shutdown signal into a
// clean exit.
func ignoreCanceled(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// newPadClient builds the pad server client from the crawl section.
func newPadClient(cfg config.CrawlConfig, extra ...padserver.Option) (*padserver.Client, error) {
	opts := []padserver.Option{
		padserver.WithTimeout(cfg.Timeout),
		padserver.WithRate(cfg.Rate, cfg.Burst),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, padserver.WithUserAgent(cfg.UserAgent))
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, padserver.WithMaxBodySize(cfg.MaxBodySize))
	}
	if cfg.Proxy != "" {
		opts = append(opts, padserver.WithProxy(cfg.Proxy))
	}

	if siteConfigs := cfg.SiteConfigs(); len(siteConfigs) > 0 {
		sites := make(map[string]padserver.Site, len(siteConfigs))
		for host, sc := range siteConfigs {
			sites[host] = padserver.Site{Cookie: sc.Cookie, Headers: sc.Headers}
		}
		opts = append(opts, padserver.WithSites(sites))
	}

	client, err := padserver.NewClient(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pad client: %w", err)
	}
	return client, nil
}

// newNotifier builds the notifier selected by notify.driver. The Matrix
// driver logs in immediately so that bad credentials fail at startup.
func newNotifier(ctx context.Context, cfg config.NotifyConfig, out io.Writer, logger *slog.Logger) (crawler.Notifier, error) {
	switch cfg.Driver {
	case config.NotifyDriverConsole:
		return notify.NewConsole(out, notify.Format(cfg.Format)), nil
	case config.NotifyDriverMatrix:
		m, err := notify.NewMatrix(ctx, notify.MatrixConfig{
			Homeserver: cfg.Homeserver,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Room:       cfg.Room,
			DeviceName: cfg.DeviceName,
		}, notify.WithMatrixLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to set up matrix notifier: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidNotifyDriver, cfg.Driver)
	}
}
