package weather

import (
	"context"
	"time"
)

// ConfigStore owns the persisted Configuration and its background assets.
type ConfigStore interface {
	Load(defaultInterval int) (Configuration, error)
	EnsureBackgrounds(cfg Configuration) (Configuration, error)
	DownloadMissing(ctx context.Context, cfg Configuration) error
}

// Locator resolves the caller's public address and its coordinates.
// PublicIP never fails; it returns "" when the address could not be found.
type Locator interface {
	PublicIP(ctx context.Context) string
	Coordinates(ctx context.Context, ip string) (Coordinates, error)
}

// Fetcher abstracts the weather data source.
type Fetcher interface {
	FetchCurrent(ctx context.Context, coords Coordinates) (Sample, error)
}

// Applicator sets the desktop background for a category.
type Applicator interface {
	Apply(ctx context.Context, cfg Configuration, category Category) error
}

// RunRecorder receives the outcome of every pipeline run.
type RunRecorder interface {
	Record(report RunReport)
}

// Stage is the last state a pipeline run reached.
type Stage string

const (
	StageInit                Stage = "init"
	StageConfigReady         Stage = "config_ready"
	StageIPResolved          Stage = "ip_resolved"
	StageCoordinatesResolved Stage = "coordinates_resolved"
	StageWeatherFetched      Stage = "weather_fetched"
	StageAssetsEnsured       Stage = "assets_ensured"
	StageClassified          Stage = "classified"
	StageBackgroundApplied   Stage = "background_applied"
	StageSkipped             Stage = "skipped"
)

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID      string    `json:"runId"`
	Stage      Stage     `json:"stage"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Sample     *Sample   `json:"sample,omitempty"`
	Category   Category  `json:"category,omitempty"`
	Err        string    `json:"error,omitempty"`
}

// Completed reports whether the run reached a normal terminal state.
func (r RunReport) Completed() bool {
	return r.Stage == StageBackgroundApplied || r.Stage == StageSkipped
}
