package httpcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "cache.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type countingServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newCountingServer(t *testing.T, status int) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := cs.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"n":%d}`, n)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestTransport_ServesFreshEntryFromCache(t *testing.T) {
	srv := newCountingServer(t, http.StatusOK)
	tr := NewTransport(nil, newTestStore(t), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client := &http.Client{Transport: tr}

	first, body1 := get(t, client, srv.URL+"/forecast?latitude=1")
	second, body2 := get(t, client, srv.URL+"/forecast?latitude=1")

	assert.Equal(t, int32(1), srv.hits.Load())
	assert.Equal(t, body1, body2)
	assert.Empty(t, first.Header.Get(XFromCache))
	assert.Equal(t, "1", second.Header.Get(XFromCache))
	assert.Equal(t, "application/json", second.Header.Get("Content-Type"))
	assert.Equal(t, http.StatusOK, second.StatusCode)

	// A different query is a different key.
	get(t, client, srv.URL+"/forecast?latitude=2")
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestTransport_ExpiredEntryRefetched(t *testing.T) {
	srv := newCountingServer(t, http.StatusOK)
	tr := NewTransport(nil, newTestStore(t), time.Hour, nil)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	client := &http.Client{Transport: tr}

	get(t, client, srv.URL)
	now = now.Add(59 * time.Minute)
	get(t, client, srv.URL)
	assert.Equal(t, int32(1), srv.hits.Load())

	now = now.Add(2 * time.Minute)
	_, body := get(t, client, srv.URL)
	assert.Equal(t, int32(2), srv.hits.Load())
	assert.Equal(t, `{"n":2}`, body)

	// The refreshed entry replaced the stale one.
	_, body = get(t, client, srv.URL)
	assert.Equal(t, `{"n":2}`, body)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestTransport_DoesNotCacheErrors(t *testing.T) {
	srv := newCountingServer(t, http.StatusServiceUnavailable)
	client := &http.Client{Transport: NewTransport(nil, newTestStore(t), time.Hour, nil)}

	resp, _ := get(t, client, srv.URL)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	get(t, client, srv.URL)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestTransport_BypassesNonGET(t *testing.T) {
	srv := newCountingServer(t, http.StatusOK)
	client := &http.Client{Transport: NewTransport(nil, newTestStore(t), time.Hour, nil)}

	for i := 0; i < 2; i++ {
		resp, err := client.Post(srv.URL, "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestSQLiteStore_PutGetPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.Get(ctx, "GET http://example.invalid")
	require.NoError(t, err)
	assert.False(t, ok)

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := old.Add(2 * time.Hour)
	require.NoError(t, s.Put(ctx, "old", Entry{StatusCode: 200, Header: http.Header{"A": {"b"}}, Body: []byte("x"), StoredAt: old}))
	require.NoError(t, s.Put(ctx, "fresh", Entry{StatusCode: 200, Body: []byte("y"), StoredAt: fresh}))

	got, ok, err := s.Get(ctx, "old")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", got.Header.Get("A"))
	assert.Equal(t, []byte("x"), got.Body)
	assert.True(t, got.StoredAt.Equal(old))

	n, err := s.Prune(ctx, old.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err = s.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}
