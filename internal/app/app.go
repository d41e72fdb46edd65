// Package app is the composition root: it builds every pipeline component
// once from Settings and exposes the run and watch entry points.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zenith-desktop/zenith/internal/config"
	"github.com/zenith-desktop/zenith/internal/httpcache"
	"github.com/zenith-desktop/zenith/internal/store"
	"github.com/zenith-desktop/zenith/internal/wallpaper"
	"github.com/zenith-desktop/zenith/internal/weather"
	"github.com/zenith-desktop/zenith/internal/weather/providers"
)

// Runtime holds the process-wide collaborators. It is created at startup,
// passed by reference, and closed at exit.
type Runtime struct {
	Settings config.Settings
	Logger   *slog.Logger

	Config  *store.ConfigStore
	Status  *store.StatusStore
	Service *weather.Service

	cache *httpcache.SQLiteStore
}

// Options override components, mostly for tests.
type Options struct {
	Setter wallpaper.Setter // nil uses the platform default
}

// New wires the pipeline from settings.
func New(settings config.Settings, logger *slog.Logger, opts Options) (*Runtime, error) {
	cache, err := httpcache.NewSQLiteStore(settings.CachePath())
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}
	if n, err := cache.Prune(context.Background(), time.Now().Add(-settings.CacheTTL)); err != nil {
		logger.Warn("could not prune response cache", "error", err)
	} else if n > 0 {
		logger.Debug("pruned stale cache entries", "count", n)
	}

	// Shared HTTP client for IP, geolocation and asset calls.
	plain := &http.Client{Timeout: settings.HTTPTimeout}

	// The weather client alone goes through the response cache.
	cached := &http.Client{
		Timeout:   settings.HTTPTimeout,
		Transport: httpcache.NewTransport(http.DefaultTransport, cache, settings.CacheTTL, logger),
	}

	configStore := store.NewConfigStore(settings.ConfigDir, plain, logger, store.WithProgress(settings.Progress))
	status := store.NewStatusStore()
	locator := providers.NewGeoResolver(plain, settings.IPServiceURL, settings.GeoServiceURL, logger)
	fetcher := providers.NewOpenMeteoClient(cached, settings.WeatherURL, settings.BackoffConfig(), logger)
	applicator := wallpaper.NewApplicator(settings.ConfigDir, opts.Setter, logger)

	service := weather.NewService(configStore, locator, fetcher, applicator, status, logger, settings.DefaultInterval)

	return &Runtime{
		Settings: settings,
		Logger:   logger,
		Config:   configStore,
		Status:   status,
		Service:  service,
		cache:    cache,
	}, nil
}

// Close releases the response cache.
func (r *Runtime) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

// RunOnce executes a single pipeline pass.
func (r *Runtime) RunOnce(ctx context.Context) error {
	_, err := r.Service.Run(ctx)
	return err
}
