package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"memebot/internal/announce"
	"memebot/internal/broadcast"
	"memebot/internal/config"
	"memebot/internal/content"
	"memebot/internal/runtime/supervisor"
	"memebot/internal/scheduler"
	"memebot/internal/storage"
	"memebot/internal/transport"
	"memebot/internal/transport/telegram"
	"memebot/pkg/logx"
)

// App wires the engine together: config, store, transport adapter,
// content resolver, broadcast executor, version gate, and scheduler.
type App struct {
	cfgMgr *config.Manager
	cfg    *config.Config

	log       logx.Logger
	logCloser io.Closer

	store    storage.Store
	adapter  transport.Adapter
	exec     *broadcast.Executor
	resolver *content.Resolver
	gate     *announce.Gate
	sched    *scheduler.Service

	httpClient *http.Client

	period       time.Duration
	initialDelay time.Duration
	announceAt   time.Duration

	sup     *supervisor.Supervisor
	updates chan transport.Update
}

func New(cfgPath string) (*App, error) {
	boot := logx.NewConsole("info")
	mgr := config.NewManager(cfgPath, boot)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, logCloser, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	a := &App{cfgMgr: mgr, cfg: cfg, log: log, logCloser: logCloser}
	if err := a.build(); err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg := a.cfg

	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout.Or(5 * time.Second),
	}, a.log.With(logx.String("comp", "storage")))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store

	sendTimeout := cfg.Broadcast.SendTimeout.Or(15 * time.Second)
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout.Or(10 * time.Second),
		SendTimeout: sendTimeout,
	}, a.log.With(logx.String("comp", "telegram")))
	if err != nil {
		return fmt.Errorf("telegram adapter: %w", err)
	}
	a.adapter = adapter

	a.exec = broadcast.New(broadcast.Config{
		Workers:     cfg.Broadcast.Workers,
		RatePerSec:  cfg.Broadcast.RatePerSec,
		SendTimeout: sendTimeout,
	}, store, a.log.With(logx.String("comp", "broadcast")))

	a.httpClient = &http.Client{Timeout: cfg.Content.RequestTimeout.Or(8 * time.Second)}
	a.resolver = content.NewResolver(
		buildSources(cfg.Content, a.httpClient),
		content.DefaultFilter(cfg.Content.MinUps),
		a.log.With(logx.String("comp", "content")),
	)

	a.gate = announce.New(store, a.exec, a.adapter, a.log.With(logx.String("comp", "announce")))
	a.sched = scheduler.New(a.log.With(logx.String("comp", "scheduler")))

	a.period = cfg.Content.Period.Or(30 * time.Minute)
	a.initialDelay = cfg.Content.InitialDelay.Or(30 * time.Second)
	a.announceAt = cfg.Announce.Delay.Or(10 * time.Second)
	return nil
}

func buildSources(cc config.ContentConfig, client *http.Client) []content.Source {
	out := make([]content.Source, 0, len(cc.Sources))
	for _, s := range cc.Sources {
		out = append(out, content.NewMemeAPISource(cc.APIBase, s.Subreddit, s.Limit, client))
	}
	return out
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "app"))))
	a.updates = make(chan transport.Update, 64)

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return fmt.Errorf("start adapter: %w", err)
	}

	a.sup.Go0("updates.loop", func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case up := <-a.updates:
				a.handleUpdate(ctx, up)
			}
		}
	})

	a.sup.Go("config.watch", func(ctx context.Context) error {
		err := a.cfgMgr.Watch(ctx, a.applyConfig)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	a.sched.Add(scheduler.Job{
		ID:           "content.broadcast",
		InitialDelay: a.initialDelay,
		Period:       a.period,
		Timeout:      a.period, // a cycle must never outlive its slot
		Run:          a.contentJob,
	})
	a.sched.Add(scheduler.Job{
		ID:           "version.announce",
		InitialDelay: a.announceAt,
		Timeout:      10 * time.Minute,
		Run:          a.announceJob,
	})
	a.sched.Start(a.sup.Context())

	a.log.Info("memebot started",
		logx.String("version", a.cfg.Version),
		logx.Duration("period", a.period),
		logx.Int("sources", len(a.cfg.Content.Sources)))
	return nil
}

// applyConfig picks up hot-reloadable tunables: source list, filter
// threshold, broadcast pacing. The operator chat id is read live through
// the manager; everything else (token, storage path, schedule cadence,
// version) stays at its boot value until a restart, so a.cfg itself is
// never swapped.
func (a *App) applyConfig(cfg *config.Config) {
	a.resolver.Apply(buildSources(cfg.Content, a.httpClient), content.DefaultFilter(cfg.Content.MinUps))

	a.exec.Apply(broadcast.Config{
		Workers:     cfg.Broadcast.Workers,
		RatePerSec:  cfg.Broadcast.RatePerSec,
		SendTimeout: cfg.Broadcast.SendTimeout.Or(15 * time.Second),
	})
	a.log.Info("runtime tunables applied", logx.Int("sources", len(cfg.Content.Sources)), logx.Int("min_ups", cfg.Content.MinUps))
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("shutting down")
	if a.sched != nil {
		a.sched.Stop(ctx)
	}
	if a.adapter != nil {
		_ = a.adapter.Stop(ctx)
	}
	if a.sup != nil {
		a.sup.Cancel()
		_ = a.sup.Wait(ctx)
	}
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
	return err
}
