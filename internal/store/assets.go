package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"

	"github.com/zenith-desktop/zenith/internal/common"
	"github.com/zenith-desktop/zenith/internal/weather"
)

// DownloadMissing fetches every catalog entry whose local file is absent.
// Entries are independent: a failure is logged and collected, and the rest
// are still attempted. The joined error is nil when nothing failed.
func (s *ConfigStore) DownloadMissing(ctx context.Context, cfg weather.Configuration) error {
	categories := make([]string, 0, len(cfg.Backgrounds))
	for c := range cfg.Backgrounds {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	var errs []error
	for _, c := range categories {
		bg := cfg.Backgrounds[weather.Category(c)]
		path, err := bg.AbsPath(s.dir)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
			continue
		}
		if _, err := os.Stat(path); err == nil {
			continue
		}

		s.logger.Info("downloading background", "category", c, "url", bg.RemoteURL, "path", path)
		if err := s.download(ctx, bg.RemoteURL, path, c); err != nil {
			s.logger.Error("background download failed", "category", c, "url", bg.RemoteURL, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

func (s *ConfigStore) download(ctx context.Context, rawURL, path, category string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", common.ErrNetwork, req.URL.Host, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}

	// Write to a sibling temp file so a partial download never looks present.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(s.progress),
		progressbar.OptionSetDescription(category),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)

	if _, err := io.Copy(io.MultiWriter(tmp, bar), resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: download body: %v", common.ErrNetwork, err)
	}
	_ = bar.Finish()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod asset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install asset: %w", err)
	}
	return nil
}
