// package services defines the Spotify API surface the aggregation engine consumes
package services

import (
	"context"
	"time"

	"github.com/visheshvs/nexportify/internal/models"
)

// Catalog is the provider surface the aggregation engine depends on: an HTTP
// GET with a bearer token per resource, with pagination and batch ceilings
// handled behind typed results. [Client] is the production implementation.
type Catalog interface {
	// Me retrieves the authenticated user's profile.
	Me(ctx context.Context) (*UserProfile, error)

	// PlaylistsPage retrieves one page (≤50) of the user's playlists.
	PlaylistsPage(ctx context.Context, limit, offset int, stagger time.Duration) (*PlaylistPage, error)

	// SavedTracksPage retrieves one page (≤50) of the user's liked songs.
	SavedTracksPage(ctx context.Context, limit, offset int, stagger time.Duration) (*TrackPage, error)

	// PlaylistTracksPage retrieves one page (≤100) of a playlist's tracks.
	PlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int, stagger time.Duration) (*TrackPage, error)

	// ArtistGenres maps ≤50 artist ids to comma-joined genre lists.
	ArtistGenres(ctx context.Context, ids []string, stagger time.Duration) (map[string]string, error)

	// AlbumLabels maps ≤20 album ids to record labels.
	AlbumLabels(ctx context.Context, ids []string, stagger time.Duration) (map[string]string, error)

	// AudioFeatures returns feature tuples positionally aligned with ≤100 ids.
	AudioFeatures(ctx context.Context, ids []string, stagger time.Duration) ([]*models.AudioFeatures, error)
}

var _ Catalog = (*Client)(nil)
