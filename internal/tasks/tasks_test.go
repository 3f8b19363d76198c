package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/services"
	"github.com/visheshvs/nexportify/internal/shared"
	tu "github.com/visheshvs/nexportify/internal/testing"
)

// newTestEngine builds an Engine with pacing disabled so wave tests run fast.
func newTestEngine(catalog services.Catalog, sessions SessionDiscarder) *Engine {
	engine := NewEngine(catalog, sessions, shared.NewLogger(os.Stderr))
	engine.stagger = func(int) time.Duration { return 0 }
	engine.throttl = func(int) time.Duration { return 0 }
	return engine
}

// trackPageFor serves min(limit, total-offset) synthetic entries, each with a
// unique track URI and a shared pool of artist and album ids.
func trackPageFor(total int) func(limit, offset int) *services.TrackPage {
	return func(limit, offset int) *services.TrackPage {
		count := total - offset
		if count > limit {
			count = limit
		}
		if count < 0 {
			count = 0
		}
		entries := make([]models.TrackEntry, count)
		for i := range entries {
			n := offset + i
			entries[i] = models.TrackEntry{
				URI:         fmt.Sprintf("spotify:track:t%d", n),
				Name:        fmt.Sprintf("Track %d", n),
				AlbumID:     fmt.Sprintf("al%d", n%5),
				AlbumName:   fmt.Sprintf("Album %d", n%5),
				ArtistIDs:   []string{fmt.Sprintf("a%d", n%7)},
				ArtistNames: []string{fmt.Sprintf("Artist %d", n%7)},
				DurationMS:  180000,
			}
		}
		return &services.TrackPage{Total: total, Entries: entries}
	}
}

func TestEnumeratePlaylists(t *testing.T) {
	ctx := context.Background()

	t.Run("synthesizes liked songs first", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			MeFunc: func(ctx context.Context) (*services.UserProfile, error) {
				return &services.UserProfile{ID: "u1", DisplayName: "User One"}, nil
			},
			SavedTracksPageFunc: func(ctx context.Context, limit, offset int) (*services.TrackPage, error) {
				if limit != 1 || offset != 0 {
					t.Errorf("probe used limit=%d offset=%d, want 1/0", limit, offset)
				}
				return &services.TrackPage{Total: 1}, nil
			},
			PlaylistsPageFunc: func(ctx context.Context, limit, offset int) (*services.PlaylistPage, error) {
				return &services.PlaylistPage{Total: 0}, nil
			},
		}
		engine := newTestEngine(catalog, nil)

		playlists, err := engine.EnumeratePlaylists(ctx)
		if err != nil {
			t.Fatalf("EnumeratePlaylists failed: %v", err)
		}
		if len(playlists) != 1 {
			t.Fatalf("Expected exactly 1 playlist, got %d", len(playlists))
		}
		liked := playlists[0]
		if liked.Name != models.LikedSongsName {
			t.Errorf("Expected first entry %q, got %q", models.LikedSongsName, liked.Name)
		}
		if !liked.Liked {
			t.Error("Expected synthetic entry to be marked liked")
		}
		if liked.TrackCount != 1 {
			t.Errorf("Expected liked track count 1 from probe, got %d", liked.TrackCount)
		}
		if liked.Owner != "User One" {
			t.Errorf("Expected owner from profile display name, got %q", liked.Owner)
		}
	})

	t.Run("preserves provider order across parallel pages", func(t *testing.T) {
		const total = services.PlaylistPageSize + 1

		catalog := &tu.MockCatalog{
			SavedTracksPageFunc: func(ctx context.Context, limit, offset int) (*services.TrackPage, error) {
				return &services.TrackPage{Total: 0}, nil
			},
			PlaylistsPageFunc: func(ctx context.Context, limit, offset int) (*services.PlaylistPage, error) {
				count := total - offset
				if count > limit {
					count = limit
				}
				items := make([]models.Playlist, count)
				for i := range items {
					items[i] = models.Playlist{ID: fmt.Sprintf("pl%d", offset+i)}
				}
				return &services.PlaylistPage{Total: total, Items: items}, nil
			},
		}
		engine := newTestEngine(catalog, nil)

		playlists, err := engine.EnumeratePlaylists(ctx)
		if err != nil {
			t.Fatalf("EnumeratePlaylists failed: %v", err)
		}
		if len(playlists) != total+1 {
			t.Fatalf("Expected %d playlists (liked + %d), got %d", total+1, total, len(playlists))
		}
		for i := 1; i < len(playlists); i++ {
			want := fmt.Sprintf("pl%d", i-1)
			if playlists[i].ID != want {
				t.Fatalf("Position %d: expected %s, got %s", i, want, playlists[i].ID)
			}
		}
		if calls := catalog.CallsTo("playlists"); len(calls) != 2 {
			t.Errorf("Expected 2 playlist pages for %d playlists, got %d", total, len(calls))
		}
	})

	t.Run("page failure fails the whole enumeration", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			SavedTracksPageFunc: func(ctx context.Context, limit, offset int) (*services.TrackPage, error) {
				return &services.TrackPage{Total: 0}, nil
			},
			PlaylistsPageFunc: func(ctx context.Context, limit, offset int) (*services.PlaylistPage, error) {
				if offset > 0 {
					return nil, fmt.Errorf("boom")
				}
				return &services.PlaylistPage{Total: 120, Items: make([]models.Playlist, 50)}, nil
			},
		}
		engine := newTestEngine(catalog, nil)

		if _, err := engine.EnumeratePlaylists(ctx); err == nil {
			t.Error("Expected enumeration to fail when a page fails")
		}
	})
}

func TestBuildRowsRowCount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		total     int
		liked     bool
		wantPages int
	}{
		{"empty playlist", 0, false, 0},
		{"exactly one page", services.TrackPageSize, false, 1},
		{"one past the page boundary", services.TrackPageSize + 1, false, 2},
		{"liked songs use the smaller page", services.LikedPageSize + 1, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := trackPageFor(tt.total)
			catalog := &tu.MockCatalog{
				PlaylistTracksPageFunc: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
					return pages(limit, offset), nil
				},
				SavedTracksPageFunc: func(ctx context.Context, limit, offset int) (*services.TrackPage, error) {
					return pages(limit, offset), nil
				},
			}
			engine := newTestEngine(catalog, nil)

			playlist := models.Playlist{ID: "p1", Name: "P1", TrackCount: tt.total, Liked: tt.liked}
			rows, err := engine.BuildRows(ctx, playlist, nil)
			if err != nil {
				t.Fatalf("BuildRows failed: %v", err)
			}
			if len(rows) != tt.total {
				t.Errorf("Expected %d rows, got %d", tt.total, len(rows))
			}

			resource := "playlist_tracks"
			if tt.liked {
				resource = "saved_tracks"
			}
			if calls := catalog.CallsTo(resource); len(calls) != tt.wantPages {
				t.Errorf("Expected %d track pages, got %d", tt.wantPages, len(calls))
			}
		})
	}
}

func TestBuildRowsEnrichment(t *testing.T) {
	ctx := context.Background()

	entries := []models.TrackEntry{
		{URI: "spotify:track:t1", Name: "One", AlbumID: "al1", ArtistIDs: []string{"a1", "a2"}},
		{URI: "spotify:track:t2", Name: "Two", AlbumID: "al2", ArtistIDs: []string{"a2"}},
		{URI: "spotify:track:t3", Name: "Three", AlbumID: "al3", ArtistIDs: []string{"a3"}},
	}
	catalog := &tu.MockCatalog{
		PlaylistTracksPageFunc: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			return &services.TrackPage{Total: len(entries), Entries: entries}, nil
		},
		ArtistGenresFunc: func(ctx context.Context, ids []string) (map[string]string, error) {
			return map[string]string{"a1": "rock,indie", "a2": "indie"}, nil
		},
		AlbumLabelsFunc: func(ctx context.Context, ids []string) (map[string]string, error) {
			return map[string]string{"al1": "Label One", "al2": "Label Two"}, nil
		},
	}
	engine := newTestEngine(catalog, nil)

	rows, err := engine.BuildRows(ctx, models.Playlist{ID: "p1", Name: "P1", TrackCount: 3}, nil)
	if err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	t.Run("deduplicates genres across a row's artists", func(t *testing.T) {
		if rows[0].Genres != "rock,indie" {
			t.Errorf("Expected rock,indie, got %q", rows[0].Genres)
		}
		if rows[1].Genres != "indie" {
			t.Errorf("Expected indie, got %q", rows[1].Genres)
		}
	})

	t.Run("leaves genres and label blank for unknown ids", func(t *testing.T) {
		if rows[2].Genres != "" {
			t.Errorf("Expected blank genres for unknown artist, got %q", rows[2].Genres)
		}
		if rows[2].RecordLabel != "" {
			t.Errorf("Expected blank label for unknown album, got %q", rows[2].RecordLabel)
		}
	})

	t.Run("joins labels per album", func(t *testing.T) {
		if rows[0].RecordLabel != "Label One" || rows[1].RecordLabel != "Label Two" {
			t.Errorf("Unexpected labels: %q, %q", rows[0].RecordLabel, rows[1].RecordLabel)
		}
	})
}

func TestBuildRowsChunkCeilings(t *testing.T) {
	ctx := context.Background()

	// 120 distinct artists and 50 distinct albums across 120 tracks.
	entries := make([]models.TrackEntry, 120)
	for i := range entries {
		entries[i] = models.TrackEntry{
			URI:       fmt.Sprintf("spotify:track:t%d", i),
			AlbumID:   fmt.Sprintf("al%d", i%50),
			ArtistIDs: []string{fmt.Sprintf("a%d", i)},
		}
	}
	catalog := &tu.MockCatalog{
		PlaylistTracksPageFunc: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			count := len(entries) - offset
			if count > limit {
				count = limit
			}
			return &services.TrackPage{Total: len(entries), Entries: entries[offset : offset+count]}, nil
		},
	}
	engine := newTestEngine(catalog, nil)

	if _, err := engine.BuildRows(ctx, models.Playlist{ID: "p1", Name: "P1", TrackCount: 120}, nil); err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}

	t.Run("artist requests never exceed the chunk ceiling", func(t *testing.T) {
		calls := catalog.CallsTo("artists")
		if len(calls) != 3 {
			t.Errorf("Expected 3 artist chunks for 120 ids, got %d", len(calls))
		}
		seen := 0
		for _, call := range calls {
			if len(call.IDs) > services.ArtistChunkSize {
				t.Errorf("Artist chunk carried %d ids, ceiling is %d", len(call.IDs), services.ArtistChunkSize)
			}
			seen += len(call.IDs)
		}
		if seen != 120 {
			t.Errorf("Expected 120 artist ids across chunks, got %d", seen)
		}
	})

	t.Run("album requests never exceed the chunk ceiling", func(t *testing.T) {
		calls := catalog.CallsTo("albums")
		if len(calls) != 3 {
			t.Errorf("Expected 3 album chunks for 50 ids, got %d", len(calls))
		}
		for _, call := range calls {
			if len(call.IDs) > services.AlbumChunkSize {
				t.Errorf("Album chunk carried %d ids, ceiling is %d", len(call.IDs), services.AlbumChunkSize)
			}
		}
	})

	t.Run("feature requests never exceed the batch ceiling", func(t *testing.T) {
		for _, call := range catalog.CallsTo("audio_features") {
			if len(call.IDs) > services.FeaturesChunkSize {
				t.Errorf("Feature batch carried %d ids, ceiling is %d", len(call.IDs), services.FeaturesChunkSize)
			}
		}
	})
}

func TestBuildRowsFeatureDegradation(t *testing.T) {
	ctx := context.Background()

	t.Run("mid-batch failure degrades only that batch", func(t *testing.T) {
		const total = 250 // three pages: 100, 100, 50
		pages := trackPageFor(total)

		catalog := &tu.MockCatalog{
			PlaylistTracksPageFunc: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
				return pages(limit, offset), nil
			},
			AudioFeaturesFunc: func(ctx context.Context, ids []string) ([]*models.AudioFeatures, error) {
				for _, id := range ids {
					if id == "t150" { // second batch
						return nil, fmt.Errorf("batch unavailable")
					}
				}
				features := make([]*models.AudioFeatures, len(ids))
				for i := range features {
					features[i] = &models.AudioFeatures{Danceability: 0.5}
				}
				return features, nil
			},
		}
		engine := newTestEngine(catalog, nil)

		rows, err := engine.BuildRows(ctx, models.Playlist{ID: "p1", Name: "P1", TrackCount: total}, nil)
		if err != nil {
			t.Fatalf("BuildRows failed: %v", err)
		}
		if len(rows) != total {
			t.Fatalf("Expected %d rows, got %d", total, len(rows))
		}

		for i, row := range rows {
			inFailedBatch := i >= 100 && i < 200
			if inFailedBatch && row.Features != nil {
				t.Fatalf("Row %d should carry nil features after its batch failed", i)
			}
			if !inFailedBatch && row.Features == nil {
				t.Fatalf("Row %d lost its features to a neighboring batch failure", i)
			}
		}
	})

	t.Run("permission failure discards the session", func(t *testing.T) {
		pages := trackPageFor(10)
		discarder := &tu.MockDiscarder{}
		catalog := &tu.MockCatalog{
			PlaylistTracksPageFunc: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
				return pages(limit, offset), nil
			},
			AudioFeaturesFunc: func(ctx context.Context, ids []string) ([]*models.AudioFeatures, error) {
				return nil, fmt.Errorf("features: %w", shared.ErrForbidden)
			},
		}
		engine := newTestEngine(catalog, discarder)

		rows, err := engine.BuildRows(ctx, models.Playlist{ID: "p1", Name: "P1", TrackCount: 10}, nil)
		if err != nil {
			t.Fatalf("Expected degraded rows, got error: %v", err)
		}
		for i, row := range rows {
			if row.Features != nil {
				t.Errorf("Row %d should carry nil features", i)
			}
		}
		if discarder.Count() != 1 {
			t.Errorf("Expected exactly 1 session discard, got %d", discarder.Count())
		}
	})

	t.Run("track wave failure aborts aggregation", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			PlaylistTracksPageFunc: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
				return nil, fmt.Errorf("boom")
			},
		}
		engine := newTestEngine(catalog, nil)

		_, err := engine.BuildRows(ctx, models.Playlist{ID: "p1", Name: "P1", TrackCount: 10}, nil)
		if err == nil {
			t.Fatal("Expected track wave failure to abort aggregation")
		}
		if !strings.Contains(err.Error(), "track wave") {
			t.Errorf("Expected track wave in error, got: %v", err)
		}
	})
}

func TestBulkExport(t *testing.T) {
	ctx := context.Background()
	pages := trackPageFor(3)

	catalog := &tu.MockCatalog{
		PlaylistTracksPageFunc: func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			if playlistID == "bad" {
				return nil, fmt.Errorf("boom")
			}
			return pages(limit, offset), nil
		},
	}
	engine := newTestEngine(catalog, nil)

	outputDir := filepath.Join(t.TempDir(), "export")
	playlists := []models.Playlist{
		{ID: "good", Name: "Good", TrackCount: 3},
		{ID: "bad", Name: "Bad", TrackCount: 3},
	}

	result, err := engine.BulkExport(ctx, nil, playlists, BulkExportOpts{
		Format:    "csv",
		OutputDir: outputDir,
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}

	t.Run("isolates per-playlist failures", func(t *testing.T) {
		if result.TotalPlaylists != 2 {
			t.Errorf("Expected 2 playlists, got %d", result.TotalPlaylists)
		}
		if result.SuccessfulExports != 1 {
			t.Errorf("Expected 1 successful export, got %d", result.SuccessfulExports)
		}
		if result.FailedExports != 1 {
			t.Errorf("Expected 1 failed export, got %d", result.FailedExports)
		}
		for _, r := range result.Results {
			if r.PlaylistID == "bad" && r.Success {
				t.Error("Failed playlist reported as success")
			}
			if r.PlaylistID == "good" && !r.Success {
				t.Errorf("Good playlist reported as failure: %s", r.Error)
			}
		}
	})

	t.Run("writes documents and manifest", func(t *testing.T) {
		tu.AssertFileExists(t, filepath.Join(outputDir, "good_tracks.csv"))
		tu.AssertFileExists(t, filepath.Join(outputDir, "good_metadata.json"))
		tu.AssertFileExists(t, filepath.Join(outputDir, "export_manifest.json"))
		if result.ManifestPath == "" {
			t.Error("Expected manifest path on the result")
		}
	})
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []int
	}{
		{"empty", 0, 50, nil},
		{"under one chunk", 3, 50, []int{3}},
		{"exact boundary", 50, 50, []int{50}},
		{"one past boundary", 51, 50, []int{50, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]string, tt.n)
			for i := range ids {
				ids[i] = fmt.Sprintf("id%d", i)
			}
			chunks := chunk(ids, tt.size)
			if len(chunks) != len(tt.want) {
				t.Fatalf("Expected %d chunks, got %d", len(tt.want), len(chunks))
			}
			for i, want := range tt.want {
				if len(chunks[i]) != want {
					t.Errorf("Chunk %d: expected %d ids, got %d", i, want, len(chunks[i]))
				}
			}
		})
	}
}

func TestIDSet(t *testing.T) {
	set := newIDSet()
	set.add("a", "b", "a", "")
	set.add("c", "b")

	got := set.values()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPagesFor(t *testing.T) {
	tests := []struct {
		total, pageSize, want int
	}{
		{0, 100, 0},
		{1, 100, 1},
		{100, 100, 1},
		{101, 100, 2},
		{50, 50, 1},
		{51, 50, 2},
	}
	for _, tt := range tests {
		if got := pagesFor(tt.total, tt.pageSize); got != tt.want {
			t.Errorf("pagesFor(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
		}
	}
}
