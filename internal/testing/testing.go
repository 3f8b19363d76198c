// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/services"
)

// MockCatalog is a configurable test double for [services.Catalog]. Each
// field overrides one resource; unset resources return empty results. Calls
// records every invocation in order, under a lock, for fan-out assertions.
type MockCatalog struct {
	MeFunc                 func(ctx context.Context) (*services.UserProfile, error)
	PlaylistsPageFunc      func(ctx context.Context, limit, offset int) (*services.PlaylistPage, error)
	SavedTracksPageFunc    func(ctx context.Context, limit, offset int) (*services.TrackPage, error)
	PlaylistTracksPageFunc func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error)
	ArtistGenresFunc       func(ctx context.Context, ids []string) (map[string]string, error)
	AlbumLabelsFunc        func(ctx context.Context, ids []string) (map[string]string, error)
	AudioFeaturesFunc      func(ctx context.Context, ids []string) ([]*models.AudioFeatures, error)

	mu    sync.Mutex
	calls []CatalogCall
}

var _ services.Catalog = (*MockCatalog)(nil)

// CatalogCall records one invocation of a MockCatalog resource.
type CatalogCall struct {
	Resource string
	IDs      []string
	Limit    int
	Offset   int
	Stagger  time.Duration
}

func (m *MockCatalog) record(call CatalogCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns a copy of the recorded invocations.
func (m *MockCatalog) Calls() []CatalogCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CatalogCall(nil), m.calls...)
}

// CallsTo returns the recorded invocations of one resource.
func (m *MockCatalog) CallsTo(resource string) []CatalogCall {
	var matched []CatalogCall
	for _, call := range m.Calls() {
		if call.Resource == resource {
			matched = append(matched, call)
		}
	}
	return matched
}

func (m *MockCatalog) Me(ctx context.Context) (*services.UserProfile, error) {
	m.record(CatalogCall{Resource: "me"})
	if m.MeFunc != nil {
		return m.MeFunc(ctx)
	}
	return &services.UserProfile{ID: "mock-user"}, nil
}

func (m *MockCatalog) PlaylistsPage(ctx context.Context, limit, offset int, stagger time.Duration) (*services.PlaylistPage, error) {
	m.record(CatalogCall{Resource: "playlists", Limit: limit, Offset: offset, Stagger: stagger})
	if m.PlaylistsPageFunc != nil {
		return m.PlaylistsPageFunc(ctx, limit, offset)
	}
	return &services.PlaylistPage{}, nil
}

func (m *MockCatalog) SavedTracksPage(ctx context.Context, limit, offset int, stagger time.Duration) (*services.TrackPage, error) {
	m.record(CatalogCall{Resource: "saved_tracks", Limit: limit, Offset: offset, Stagger: stagger})
	if m.SavedTracksPageFunc != nil {
		return m.SavedTracksPageFunc(ctx, limit, offset)
	}
	return &services.TrackPage{}, nil
}

func (m *MockCatalog) PlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int, stagger time.Duration) (*services.TrackPage, error) {
	m.record(CatalogCall{Resource: "playlist_tracks", IDs: []string{playlistID}, Limit: limit, Offset: offset, Stagger: stagger})
	if m.PlaylistTracksPageFunc != nil {
		return m.PlaylistTracksPageFunc(ctx, playlistID, limit, offset)
	}
	return &services.TrackPage{}, nil
}

func (m *MockCatalog) ArtistGenres(ctx context.Context, ids []string, stagger time.Duration) (map[string]string, error) {
	m.record(CatalogCall{Resource: "artists", IDs: ids, Stagger: stagger})
	if m.ArtistGenresFunc != nil {
		return m.ArtistGenresFunc(ctx, ids)
	}
	return map[string]string{}, nil
}

func (m *MockCatalog) AlbumLabels(ctx context.Context, ids []string, stagger time.Duration) (map[string]string, error) {
	m.record(CatalogCall{Resource: "albums", IDs: ids, Stagger: stagger})
	if m.AlbumLabelsFunc != nil {
		return m.AlbumLabelsFunc(ctx, ids)
	}
	return map[string]string{}, nil
}

func (m *MockCatalog) AudioFeatures(ctx context.Context, ids []string, stagger time.Duration) ([]*models.AudioFeatures, error) {
	m.record(CatalogCall{Resource: "audio_features", IDs: ids, Stagger: stagger})
	if m.AudioFeaturesFunc != nil {
		return m.AudioFeaturesFunc(ctx, ids)
	}
	return make([]*models.AudioFeatures, len(ids)), nil
}

// MockDiscarder is a test double for the engine's session discarder.
type MockDiscarder struct {
	mu       sync.Mutex
	Err      error
	Discards int
}

func (m *MockDiscarder) Discard() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Discards++
	return m.Err
}

// Count returns how many times Discard ran.
func (m *MockDiscarder) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Discards
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
