package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service runs the weather-to-wallpaper pipeline.
type Service struct {
	store           ConfigStore
	locator         Locator
	fetcher         Fetcher
	applicator      Applicator
	recorder        RunRecorder
	logger          *slog.Logger
	defaultInterval int
}

// NewService creates a new Service. recorder may be nil.
func NewService(
	store ConfigStore,
	locator Locator,
	fetcher Fetcher,
	applicator Applicator,
	recorder RunRecorder,
	logger *slog.Logger,
	defaultInterval int,
) *Service {
	if defaultInterval <= 0 {
		defaultInterval = DefaultInterval
	}
	return &Service{
		store:           store,
		locator:         locator,
		fetcher:         fetcher,
		applicator:      applicator,
		recorder:        recorder,
		logger:          logger,
		defaultInterval: defaultInterval,
	}
}

// Run executes one pipeline pass. A run that classifies the weather as
// unknown ends in StageSkipped with a nil error.
func (s *Service) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{
		RunID:     uuid.NewString(),
		Stage:     StageInit,
		StartedAt: time.Now().UTC(),
	}
	log := s.logger.With("run", report.RunID)

	err := s.run(ctx, log, &report)
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Err = err.Error()
		log.Error("run failed", "stage", report.Stage, "error", err)
	} else {
		log.Info("run finished", "stage", report.Stage, "elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	}

	if s.recorder != nil {
		s.recorder.Record(report)
	}
	return report, err
}

func (s *Service) run(ctx context.Context, log *slog.Logger, report *RunReport) error {
	cfg, err := s.store.Load(s.defaultInterval)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err = s.store.EnsureBackgrounds(cfg)
	if err != nil {
		return fmt.Errorf("ensure backgrounds: %w", err)
	}
	report.Stage = StageConfigReady
	log.Debug("configuration ready", "interval", cfg.Interval, "backgrounds", len(cfg.Backgrounds))

	ip := s.locator.PublicIP(ctx)
	report.Stage = StageIPResolved
	log.Debug("public address", "ip", ip)

	coords, err := s.locator.Coordinates(ctx, ip)
	if err != nil {
		return fmt.Errorf("resolve coordinates: %w", err)
	}
	report.Stage = StageCoordinatesResolved
	log.Debug("coordinates resolved", "lat", coords.Latitude, "lon", coords.Longitude)

	log.Info("Fetching weather data...")
	sample, err := s.fetcher.FetchCurrent(ctx, coords)
	if err != nil {
		return fmt.Errorf("fetch weather: %w", err)
	}
	report.Stage = StageWeatherFetched
	report.Sample = &sample
	log.Info("Weather data fetched.",
		"time", sample.ObservedAt.Format(time.RFC3339),
		"temperature", sample.TemperatureC,
		"humidity", sample.RelativeHumidityPct,
		"weather_code", sample.WeatherCode,
	)

	if err := s.store.DownloadMissing(ctx, cfg); err != nil {
		// Only the asset for the resolved category matters; Apply reports it if absent.
		log.Warn("some background assets could not be downloaded", "error", err)
	}
	report.Stage = StageAssetsEnsured

	category := Classify(sample.WeatherCode)
	report.Category = category
	report.Stage = StageClassified
	log.Info("weather classified", "weather_code", sample.WeatherCode, "category", category)

	if category == CategoryUnknown {
		log.Warn("unrecognized weather code; leaving background unchanged", "weather_code", sample.WeatherCode)
		report.Stage = StageSkipped
		return nil
	}

	if err := s.applicator.Apply(ctx, cfg, category); err != nil {
		return fmt.Errorf("apply background: %w", err)
	}
	report.Stage = StageBackgroundApplied
	return nil
}
