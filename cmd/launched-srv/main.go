package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bloops-games/launched/internal/bot"
	"github.com/bloops-games/launched/internal/bot/resource"
	"github.com/bloops-games/launched/internal/cache"
	"github.com/bloops-games/launched/internal/config"
	"github.com/bloops-games/launched/internal/cooldown"
	"github.com/bloops-games/launched/internal/engine"
	"github.com/bloops-games/launched/internal/logging"
	"github.com/bloops-games/launched/internal/metrics"
	"github.com/bloops-games/launched/internal/server"
	"github.com/bloops-games/launched/internal/shutdown"
	"github.com/bloops-games/launched/internal/snapshot"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	_, _ = fmt.Fprintf(os.Stdout, resource.GreetingCLI, resource.ProjectName, version)

	ctx, done := shutdown.New()
	defer done()

	cfg, err := config.Load()
	if err != nil {
		logging.DefaultLogger().Fatalf("main.config: %v", err)
	}

	logger := logging.NewLogger(cfg.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, cfg); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, cfg *config.Config) error {
	logger := logging.FromContext(ctx).Named("main.realMain")

	var (
		reg      *prometheus.Registry
		gatherer prometheus.Gatherer
	)
	if cfg.Server.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		gatherer = reg
	}

	var m metrics.Metrics = metrics.Noop{}
	if reg != nil {
		m = metrics.New(reg)
	}

	store, err := snapshot.Open(ctx, &cfg.Db)
	if err != nil {
		return fmt.Errorf("snapshot.Open: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf("close store: %v", err)
		}
	}()

	mgr, err := engine.NewManager(&cfg.Engine, store, nil, m)
	if err != nil {
		return fmt.Errorf("engine.NewManager: %w", err)
	}

	if err := mgr.Restore(ctx); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	logger.Infof("restored %d users", len(mgr.UserIDs()))

	srv, err := server.New(cfg.Server.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Bot.Token != "" {
		tg, updates, err := connectBot(gctx, &cfg.Bot)
		if err != nil {
			return err
		}

		tracker, err := cooldown.NewFromConfig(cfg.Bot.Cooldown)
		if err != nil {
			return fmt.Errorf("cooldown tracker: %w", err)
		}

		statsCache, err := cache.NewUsers(cfg.Bot.CacheSize)
		if err != nil {
			return fmt.Errorf("stats cache: %w", err)
		}

		b := bot.New(&cfg.Bot, tg, mgr, tracker, statsCache, m)
		mgr.SetNotifier(b)
		mgr.OnChange(b.Invalidate)

		g.Go(func() error {
			<-gctx.Done()
			tg.StopReceivingUpdates()
			return nil
		})
		g.Go(func() error {
			return b.Run(gctx, updates)
		})
	} else {
		logger.Warnf("telegram token is empty, bot commands are disabled")
	}

	g.Go(func() error {
		return mgr.Run(gctx, nil)
	})

	g.Go(func() error {
		handler := server.NewRouter(gctx, mgr, m, gatherer)
		httpSrv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
		if err := srv.ServeHTTP(gctx, httpSrv, cfg.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("srv.ServeHTTP: %w", err)
		}
		return nil
	})

	runErr := g.Wait()

	if err := mgr.Persist(context.WithoutCancel(ctx)); err != nil {
		logger.Errorf("final persist: %v", err)
	}

	return runErr
}

func connectBot(ctx context.Context, cfg *bot.Config) (*tgbotapi.BotAPI, tgbotapi.UpdatesChannel, error) {
	logger := logging.FromContext(ctx).Named("main.connectBot")

	tg, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("bot api: %w", err)
	}

	tg.Debug = cfg.Debug
	logger.Infof("authorization in telegram was successful: %s", tg.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(cfg.PollTimeout.Seconds())

	updates, err := tg.GetUpdatesChan(u)
	if err != nil {
		return nil, nil, fmt.Errorf("get updates chan: %w", err)
	}

	return tg, updates, nil
}
