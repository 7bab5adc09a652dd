package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tft-leaderboard-bot/internal/cache"
	"tft-leaderboard-bot/internal/config"
	"tft-leaderboard-bot/internal/domain"
	"tft-leaderboard-bot/internal/handlers"
	"tft-leaderboard-bot/internal/httpapi"
	"tft-leaderboard-bot/internal/repository"
	"tft-leaderboard-bot/internal/riot"
	"tft-leaderboard-bot/internal/scheduler"
	"tft-leaderboard-bot/internal/service"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.SetLevel(cfg.LogLevel)

	db, err := repository.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()
	if err := repository.Migrate(db, repository.Migrations()); err != nil {
		log.WithError(err).Fatal("db migration failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshotRepo := repository.NewSnapshotRepo(db)
	subscriptionRepo := repository.NewSubscriptionRepo(db)

	matchCache, closeCache := setupMatchCache(ctx, cfg)
	defer closeCache()

	if cfg.RiotAPIKey == "" {
		log.Warn("RIOT_API_KEY is not set, every player will be reported as missing the key")
	}
	riotClient := riot.NewClient(riot.Config{
		APIKey:      cfg.RiotAPIKey,
		PlatformURL: riot.PlatformURL(cfg.RiotPlatform),
		RegionURL:   riot.RegionURL(cfg.RiotRegion),
		Timeout:     cfg.RequestTimeout,
	})
	fetcher := service.NewRankFetcher(riotClient, matchCache, service.FetchOptions{
		MatchPages:     cfg.MatchPages,
		MatchPageSize:  cfg.MatchPageSize,
		MatchPageDelay: cfg.MatchPageDelay,
		HistoryPolicy:  cfg.HistoryPolicy,
	})
	leaderboardService := service.NewLeaderboardService(fetcher, cfg.Players, cfg.RiotAPIKey)
	sched := scheduler.NewScheduler(leaderboardService, snapshotRepo, cfg.RefreshInterval)

	if cfg.SnapshotRetention > 0 {
		sched.OnUpdate(func(_, _ domain.Snapshot) {
			if n, err := snapshotRepo.Prune(cfg.SnapshotRetention); err != nil {
				log.WithError(err).Warn("failed to prune old snapshots")
			} else if n > 0 {
				log.WithField("deleted", n).Debug("pruned old snapshots")
			}
		})
	}

	var updater *ext.Updater
	if cfg.BotToken != "" {
		updater = startBot(cfg, sched, subscriptionRepo)
	} else {
		log.Info("BOT_TOKEN is not set, telegram bot disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.HTTPAddr != "" {
		hub := httpapi.NewHub()
		api := httpapi.NewHandler(sched, snapshotRepo, hub)
		sched.OnUpdate(api.Publish)

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	sched.Start()
	log.WithFields(log.Fields{
		"players":  len(cfg.Players),
		"interval": cfg.RefreshInterval,
	}).Info("leaderboard scheduler started")

	<-gctx.Done()
	log.Info("shutting down")
	stop()

	if updater != nil {
		if err := updater.Stop(); err != nil {
			log.WithError(err).Warn("failed to stop telegram updater")
		}
	}
	sched.Stop()
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("http server stopped with error")
	}
}

func startBot(cfg *config.Config, sched *scheduler.Scheduler, subscriptionRepo *repository.SubscriptionRepo) *ext.Updater {
	b, err := gotgbot.NewBot(cfg.BotToken, nil)
	if err != nil {
		log.WithError(err).Fatal("failed to create telegram bot")
	}

	authService := service.NewAuthService(cfg.DevIDs)
	botService := service.NewLeaderboardBotService(sched, subscriptionRepo, authService)
	notifier := service.NewNotifier(b, subscriptionRepo)
	sched.OnUpdate(func(prev, next domain.Snapshot) {
		notifier.Notify(prev, next)
	})

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.WithError(err).Error("an error occurred while handling update")
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, &ext.UpdaterOpts{})

	dispatcher.AddHandler(handlers.GetLeaderboardCommand(botService))
	dispatcher.AddHandler(handlers.GetLeaderboardCallback(botService))
	dispatcher.AddHandler(handlers.GetRefreshCommand(botService))
	dispatcher.AddHandler(handlers.GetSubscribeCommand(botService))
	dispatcher.AddHandler(handlers.GetUnsubscribeCommand(botService))
	dispatcher.AddHandler(handlers.GetHelpCommand(botService))

	err = updater.StartPolling(b, &ext.PollingOpts{
		DropPendingUpdates:    true,
		EnableWebhookDeletion: true,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to start polling")
	}
	log.WithField("bot_username", b.User.Username).Info("bot has been started")
	return updater
}

// setupMatchCache prefers redis when configured and falls back to the file-backed memory cache.
// The returned func flushes or closes the cache on shutdown.
func setupMatchCache(ctx context.Context, cfg *config.Config) (cache.MatchCache, func()) {
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			log.WithField("addr", cfg.RedisAddr).Info("using redis match cache")
			return cache.NewRedisMatchCache(rdb, cfg.MatchCacheTTL), func() { rdb.Close() }
		}
		log.WithError(err).Warn("redis unavailable, falling back to in-memory match cache")
	}

	mem := cache.NewMemoryMatchCache(cfg.MatchCacheTTL)
	if cfg.MatchCacheFile == "" {
		return mem, func() {}
	}
	if err := mem.LoadFromFile(cfg.MatchCacheFile); err != nil {
		log.WithError(err).Warn("failed to load match cache file")
	}
	log.WithField("entries", mem.Len()).Info("using in-memory match cache")
	return mem, func() {
		mem.Prune()
		if err := mem.SaveToFile(cfg.MatchCacheFile); err != nil {
			log.WithError(err).Warn("failed to save match cache file")
		}
	}
}
