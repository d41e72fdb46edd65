package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/zenith-desktop/zenith/internal/common"
	"github.com/zenith-desktop/zenith/internal/weather"
)

// Applicator resolves a category to its background and hands it to a Setter.
type Applicator struct {
	baseDir string
	setter  Setter
	logger  *slog.Logger
}

var _ weather.Applicator = (*Applicator)(nil)

// NewApplicator resolves relative background paths against baseDir.
func NewApplicator(baseDir string, setter Setter, logger *slog.Logger) *Applicator {
	if setter == nil {
		setter = DefaultSetter()
	}
	return &Applicator{baseDir: baseDir, setter: setter, logger: logger}
}

// Apply sets the background for category. Lookup failures are returned; the
// setter's own failure is only logged.
func (a *Applicator) Apply(ctx context.Context, cfg weather.Configuration, category weather.Category) error {
	bg, ok := cfg.Backgrounds[category]
	if !ok {
		return fmt.Errorf("%w: no background configured for %q", common.ErrMissingAsset, category)
	}
	path, err := bg.AbsPath(a.baseDir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrMissingAsset, category, err)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s background %s has not been downloaded", common.ErrMissingAsset, category, path)
		}
		return fmt.Errorf("%w: %s: %v", common.ErrMissingAsset, category, err)
	}

	a.logger.Info("setting background", "category", category, "path", path)
	output, err := a.setter.SetWallpaper(ctx, path)
	switch {
	case err != nil:
		a.logger.Error("background command failed", "error", err, "output", output)
	case common.HasAnyFold(output, "error", "failed", "no such"):
		a.logger.Warn("background command reported a problem", "output", output)
	case output != "":
		a.logger.Info("background command output", "output", output)
	default:
		a.logger.Info("background set", "category", category)
	}
	return nil
}
