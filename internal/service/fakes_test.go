package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sakif/portfolio/internal/asset"
	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/repository/memory"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// flakyStore wraps the in-memory store and lets a test make any operation
// on a given collection fail, which is how "Connection error" paths are
// exercised without a real network.

var errStoreDown = errors.New("store unavailable")

type flakyStore struct {
	*memory.Store
	failing map[string]bool // collection → every call fails
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memory.New(), failing: map[string]bool{}}
}

func (f *flakyStore) Get(ctx context.Context, collection, id string) (*repository.Document, error) {
	if f.failing[collection] {
		return nil, errStoreDown
	}
	return f.Store.Get(ctx, collection, id)
}

func (f *flakyStore) List(ctx context.Context, collection string) ([]repository.Document, error) {
	if f.failing[collection] {
		return nil, errStoreDown
	}
	return f.Store.List(ctx, collection)
}

func (f *flakyStore) Set(ctx context.Context, collection, id string, fields repository.Fields) error {
	if f.failing[collection] {
		return errStoreDown
	}
	return f.Store.Set(ctx, collection, id, fields)
}

func (f *flakyStore) Add(ctx context.Context, collection string, fields repository.Fields) (string, error) {
	if f.failing[collection] {
		return "", errStoreDown
	}
	return f.Store.Add(ctx, collection, fields)
}

func (f *flakyStore) Update(ctx context.Context, collection, id string, fields repository.Fields) error {
	if f.failing[collection] {
		return errStoreDown
	}
	return f.Store.Update(ctx, collection, id, fields)
}

func (f *flakyStore) Delete(ctx context.Context, collection, id string) error {
	if f.failing[collection] {
		return errStoreDown
	}
	return f.Store.Delete(ctx, collection, id)
}

// =========================================================================
// FAKE UPLOADER
// =========================================================================

type fakeUploader struct {
	calls []asset.Kind
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, file io.Reader, info asset.FileInfo, kind asset.Kind) (*asset.Result, error) {
	f.calls = append(f.calls, kind)
	if f.err != nil {
		return nil, f.err
	}
	_, _ = io.Copy(io.Discard, file)
	return &asset.Result{
		SecureURL:    "https://assets.example.com/" + string(kind) + "/" + info.Name,
		PublicID:     "portfolio/" + info.Name,
		ResourceType: string(kind),
	}, nil
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a settable time source for status-expiry tests.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
