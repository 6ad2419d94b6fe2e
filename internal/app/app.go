package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/config"
	"github.com/five82/homedash/internal/feed"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
	"github.com/five82/homedash/internal/logging"
	"github.com/five82/homedash/internal/state"
	"github.com/five82/homedash/internal/ui"
)

// warmUpTimeout bounds the initial load before the UI starts.
const warmUpTimeout = 3 * time.Second

// Options configure the homedash application.
type Options struct {
	ConfigPath string
}

// dashboard is the wired object graph shared by Run and RunCommand.
type dashboard struct {
	cfg     config.Config
	reg     *hosts.Registry
	cache   *cache.Cache
	store   *state.Store
	poller  *poller
	actions *actions
}

func newDashboard(cfg config.Config) *dashboard {
	reg := hosts.New(cfg.Primary)
	pool := homeapi.NewPool(cfg.RequestTimeout)
	fetcher := cache.NewAPIFetcher(pool)
	c := cache.New(reg, fetcher, cache.WithLogger(logging.Component("cache")))

	reg.Subscribe(func(change hosts.Change) {
		for _, h := range change.Removed {
			fetcher.Forget(h)
		}
	})

	store := &state.Store{}
	return &dashboard{
		cfg:     cfg,
		reg:     reg,
		cache:   c,
		store:   store,
		poller:  newPoller(c, reg, store, logging.Component("poller")),
		actions: &actions{reg: reg, pool: pool, bus: cache.NewBus(c, logging.Component("bus"))},
	}
}

// warmUp loads every kind from the primary once so the first frame is not
// empty. Failures are left in the cache for the UI to show.
func (d *dashboard) warmUp(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, warmUpTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	primary := d.reg.Primary()
	for _, kind := range cache.AllKinds {
		g.Go(func() error {
			_, _ = d.cache.Load(gctx, kind, primary)
			return nil
		})
	}
	_ = g.Wait()
	d.poller.sync()
}

// Run boots the dashboard TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closer, err := logging.Init(logging.Config{Level: cfg.LogLevel, Target: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()
	log := logging.Component("app")

	d := newDashboard(cfg)
	log.Info().Str("primary", cfg.Primary).Msg("starting dashboard")
	d.warmUp(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	d.cache.Start(gctx)
	g.Go(func() error { return d.poller.run(gctx) })
	if cfg.FeedListen != "" {
		g.Go(func() error {
			return feed.New(d.store, logging.Component("feed")).Run(gctx, cfg.FeedListen)
		})
	}

	uiErr := ui.Run(ui.Options{
		Context: gctx,
		Store:   d.store,
		Actions: d.actions,
	})

	cancel()
	groupErr := g.Wait()
	d.cache.Wait()

	if uiErr != nil {
		return fmt.Errorf("run ui: %w", uiErr)
	}
	if groupErr != nil {
		return fmt.Errorf("background task: %w", groupErr)
	}
	log.Info().Msg("dashboard stopped")
	return nil
}
