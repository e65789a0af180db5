package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobs-finder/internal/clients/backend"
	"github.com/maxaizer/jobs-finder/internal/clients/gemini"
	"github.com/maxaizer/jobs-finder/internal/config"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/maxaizer/jobs-finder/internal/repositories"
	"github.com/maxaizer/jobs-finder/internal/services"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

type app struct {
	cfg        *config.Config
	store      repositories.KeyValueStore
	bus        EventBus.Bus
	side       *services.SideChannel
	workspaces *services.Workspaces
	drafter    *services.ApplicationDrafter
	closers    []func() error
}

func newApp(ctx context.Context, cfg *config.Config) *app {

	a := &app{cfg: cfg, bus: EventBus.New()}
	a.store = a.openStore(ctx)

	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	backendClient.SetRateLimit(cfg.Backend.MaxRequestsPerSecond)
	backendClient.SetToken(cfg.Backend.Token)

	var favoritesClient services.FavoritesClient
	if cfg.Backend.Token != "" {
		favoritesClient = backendClient
	} else {
		log.Info("backend token is not set, favorites are kept locally only")
	}

	a.side = services.NewSideChannel(cfg.Watch.SideChannelWorkers, cfg.Watch.SideChannelBuffer)

	a.workspaces = services.NewWorkspaces(services.Dependencies{
		Store:         a.store,
		Retriever:     services.NewBackendListingsRetriever(backendClient, cfg.Backend.PageSize),
		Analytics:     backendClient,
		Favorites:     favoritesClient,
		Side:          a.side,
		Bus:           a.bus,
		TopCache:      gocache.New(cfg.Watch.TopSearchesTTL, 2*cfg.Watch.TopSearchesTTL),
		WatchInterval: cfg.Watch.Interval,
		SeenCapacity:  cfg.Watch.SeenCapacity,
	})

	if cfg.AI.Enabled() {
		aiClient, err := gemini.NewClient(ctx, cfg.AI.Key, gemini.Model(cfg.AI.Model))
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).Errorf("can't create AI client: %v", err)
		} else {
			aiClient.SetMinuteRateLimit(cfg.AI.MaxRequestsPerMinute)
			aiClient.SetDayRateLimit(cfg.AI.MaxRequestsPerDay)
			a.drafter = services.NewApplicationDrafter(aiClient)
			a.closers = append(a.closers, aiClient.Close)
		}
	}

	return a
}

// openStore opens the configured store and falls back to memory when it is unavailable.
func (a *app) openStore(ctx context.Context) repositories.KeyValueStore {

	switch a.cfg.Store.Driver {
	case config.DriverSqlite:
		dbContext, err := repositories.NewDbContext(a.cfg.Store.ConnectionString)
		if err == nil {
			err = dbContext.Migrate()
		}
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).
				Errorf("can't open sqlite store, falling back to memory: %v", err)
			return repositories.NewMemoryData()
		}
		a.closers = append(a.closers, dbContext.Close)
		return repositories.NewCachedData(repositories.NewDataRepository(dbContext.DB))

	case config.DriverRedis:
		redisData, err := repositories.NewRedisData(ctx, a.cfg.Store.RedisURL)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).
				Errorf("can't open redis store, falling back to memory: %v", err)
			return repositories.NewMemoryData()
		}
		a.closers = append(a.closers, redisData.Close)
		return redisData

	default:
		log.Warn("using in-memory store, nothing survives a restart")
		return repositories.NewMemoryData()
	}
}

func (a *app) Close() {
	a.workspaces.StopAll()
	a.side.Close()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Errorf("error during shutdown: %v", err)
		}
	}
}
