package store

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-desktop/zenith/internal/common"
	"github.com/zenith-desktop/zenith/internal/weather"
)

type assetServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newAssetServer(t *testing.T, missing ...string) *assetServer {
	t.Helper()
	as := &assetServer{hits: map[string]int{}}
	gone := map[string]bool{}
	for _, m := range missing {
		gone["/"+m] = true
	}
	as.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		as.mu.Lock()
		as.hits[r.URL.Path]++
		as.mu.Unlock()
		if gone[r.URL.Path] {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("image:" + r.URL.Path))
	}))
	t.Cleanup(as.Close)
	return as
}

func (as *assetServer) total() int {
	as.mu.Lock()
	defer as.mu.Unlock()
	n := 0
	for _, v := range as.hits {
		n += v
	}
	return n
}

func catalogFor(base string) weather.Configuration {
	cfg := weather.NewConfiguration(120)
	for _, c := range weather.Categories {
		cfg.Backgrounds[c] = weather.Background{
			LocalPath: filepath.Join("backgrounds", string(c)+".jpg"),
			RemoteURL: base + "/" + string(c) + ".jpg",
		}
	}
	return cfg
}

func TestDownloadMissing_FetchesOnlyAbsentAssets(t *testing.T) {
	srv := newAssetServer(t)
	dir := t.TempDir()
	s := NewConfigStore(dir, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := catalogFor(srv.URL)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "backgrounds"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backgrounds", "snow.jpg"), []byte("mine"), 0o644))

	require.NoError(t, s.DownloadMissing(context.Background(), cfg))
	assert.Equal(t, 3, srv.total())

	data, err := os.ReadFile(filepath.Join(dir, "backgrounds", "rain.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image:/rain.jpg", string(data))

	kept, err := os.ReadFile(filepath.Join(dir, "backgrounds", "snow.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(kept))

	// Second pass is a no-op.
	require.NoError(t, s.DownloadMissing(context.Background(), cfg))
	assert.Equal(t, 3, srv.total())
}

func TestDownloadMissing_FailureIsolatedPerAsset(t *testing.T) {
	srv := newAssetServer(t, "cloudy.jpg")
	dir := t.TempDir()
	s := NewConfigStore(dir, srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := s.DownloadMissing(context.Background(), catalogFor(srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNetwork)
	assert.Contains(t, err.Error(), "cloudy")

	for _, name := range []string{"clear.jpg", "rain.jpg", "snow.jpg"} {
		_, err := os.Stat(filepath.Join(dir, "backgrounds", name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(dir, "backgrounds", "cloudy.jpg"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Join(dir, "backgrounds"))
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temp files left behind")
}
