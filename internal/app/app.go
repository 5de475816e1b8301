// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the rank tracker binary.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/naver-rank-tracker/internal/api"
	"github.com/JakeFAU/naver-rank-tracker/internal/clock/system"
	"github.com/JakeFAU/naver-rank-tracker/internal/config"
	collyfetcher "github.com/JakeFAU/naver-rank-tracker/internal/fetcher/colly"
	"github.com/JakeFAU/naver-rank-tracker/internal/hash/sha256"
	"github.com/JakeFAU/naver-rank-tracker/internal/id/uuid"
	"github.com/JakeFAU/naver-rank-tracker/internal/logging"
	"github.com/JakeFAU/naver-rank-tracker/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/naver-rank-tracker/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/naver-rank-tracker/internal/publisher/pubsub"
	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
	"github.com/JakeFAU/naver-rank-tracker/internal/serp"
	"github.com/JakeFAU/naver-rank-tracker/internal/storage"
	"github.com/JakeFAU/naver-rank-tracker/internal/storage/memory"
	"github.com/JakeFAU/naver-rank-tracker/internal/storage/postgres"
	"github.com/JakeFAU/naver-rank-tracker/internal/tracker"
)

// store is what the service needs from a persistence backend.
type store interface {
	rank.EntityStore
	rank.RankingStore
}

// App holds the shared, long-lived services. It is built once at startup.
type App struct {
	logger    *zap.Logger
	store     store
	archive   *storage.Archive
	publisher rank.Publisher
	tracker   *tracker.Tracker
	server    *api.Server
	closers   []func() error
}

// New wires every service named in cfg. Any partially built services are
// released when an error is returned.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var ready api.Pinger
	if cfg.DB.DSN != "" {
		pg, pgErr := postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.DB.DSN,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: 30 * time.Minute,
		})
		if pgErr != nil {
			return nil, fmt.Errorf("init postgres store: %w", pgErr)
		}
		a.addCloser(func() error { pg.Close(); return nil })
		a.store = pg
		ready = pg
		logger.Info("using postgres store")
	} else {
		mem := memory.NewStore()
		if cfg.DB.SeedFile != "" {
			if err := mem.LoadSeedFile(cfg.DB.SeedFile); err != nil {
				return nil, fmt.Errorf("seed memory store: %w", err)
			}
		}
		a.store = mem
		logger.Info("using in-memory store", zap.String("seed_file", cfg.DB.SeedFile))
	}

	a.archive, err = storage.Open(ctx, storage.Config{
		Backend:   cfg.Storage.Backend,
		LocalDir:  cfg.Storage.LocalDir,
		GCSBucket: cfg.Storage.GCSBucket,
	}, logging.Component(logger, "archive"))
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	a.addCloser(a.archive.Close)

	if cfg.PubSub.ProjectID != "" {
		pub, pubErr := pubsubpublisher.Open(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if pubErr != nil {
			return nil, fmt.Errorf("init pubsub publisher: %w", pubErr)
		}
		a.addCloser(pub.Close)
		a.publisher = pub
		logger.Info("publishing ranking events", zap.String("topic", cfg.PubSub.TopicName))
	} else {
		a.publisher = memorypublisher.New()
	}

	fetchCfg := collyfetcher.Config{
		BaseURL:        cfg.SERP.BaseURL,
		UserAgent:      cfg.SERP.UserAgent,
		AcceptLanguage: cfg.SERP.AcceptLanguage,
		Timeout:        cfg.FetchTimeout(),
	}
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.SERP.RequestsPerSecond,
		Burst:             cfg.SERP.Burst,
	})
	fetcher := collyfetcher.New(fetchCfg, limiter, logging.Component(logger, "fetcher"))
	resolver := collyfetcher.NewResolver(fetchCfg, logging.Component(logger, "resolver"))
	parser := serp.NewParser(resolver, logging.Component(logger, "parser"))
	var checkerOpts []serp.Option
	if a.archive.Enabled() {
		hasher, hashErr := archiveHasher(cfg.Storage.KeyLength)
		if hashErr != nil {
			return nil, fmt.Errorf("init archive hasher: %w", hashErr)
		}
		checkerOpts = append(checkerOpts, serp.WithArchive(a.archive, hasher, cfg.Storage.Prefix))
	}
	checker := serp.NewChecker(fetcher, parser, logging.Component(logger, "serp"), checkerOpts...)

	a.tracker = tracker.New(
		a.store,
		a.store,
		checker,
		a.publisher,
		uuid.New(),
		system.New(),
		tracker.Config{DefaultScope: rank.SearchScope(cfg.SERP.DefaultScope)},
		logging.Component(logger, "tracker"),
	)
	a.server = api.NewServer(a.tracker, a.store, a.store, ready, cfg, logging.Component(logger, "api"))

	logger.Info("application services initialized")
	return a, nil
}

// Handler returns the HTTP handler for the API.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Tracker exposes the batch orchestrator for one-shot runs.
func (a *App) Tracker() *tracker.Tracker {
	return a.tracker
}

func archiveHasher(keyLength int) (*sha256.Hasher, error) {
	if keyLength == 0 {
		return sha256.New(), nil
	}
	return sha256.NewTruncated(keyLength)
}

func (a *App) addCloser(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases services in reverse order of construction.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error closing service", zap.Error(err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
