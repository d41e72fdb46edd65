// Package httpcache provides an http.RoundTripper that serves repeated GET
// requests from a local store for a fixed freshness window, regardless of
// the response's own cache headers.
package httpcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTTL is the freshness window for stored responses.
const DefaultTTL = time.Hour

// XFromCache is set on responses served from the store.
const XFromCache = "X-From-Cache"

// Store persists cached responses.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
}

// Transport caches successful GET responses keyed by method and URL.
type Transport struct {
	Base   http.RoundTripper
	Store  Store
	TTL    time.Duration
	Logger *slog.Logger

	now func() time.Time
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, store Store, ttl time.Duration, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transport{Base: base, Store: store, TTL: ttl, Logger: logger, now: time.Now}
}

// Key returns the cache key for req. The URL already carries the encoded query.
func Key(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || t.Store == nil {
		return t.Base.RoundTrip(req)
	}

	ctx := req.Context()
	key := Key(req)

	entry, ok, err := t.Store.Get(ctx, key)
	if err != nil {
		t.Logger.Warn("cache read failed; going to network", "url", req.URL.Redacted(), "error", err)
	}
	if ok && t.now().Sub(entry.StoredAt) < t.TTL {
		t.Logger.Debug("cache hit", "url", req.URL.Redacted(), "age", t.now().Sub(entry.StoredAt).Round(time.Second))
		return entry.response(req), nil
	}

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	stored := Entry{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   t.now().UTC(),
	}
	if err := t.Store.Put(ctx, key, stored); err != nil {
		t.Logger.Warn("cache write failed", "url", req.URL.Redacted(), "error", err)
	}
	return resp, nil
}

func (e Entry) response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(XFromCache, "1")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
