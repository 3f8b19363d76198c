package tasks

import (
	"context"
	"fmt"

	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/services"
)

// likedCoverURL is the fixed pseudo cover for the synthetic liked-songs entry;
// the provider never returns artwork for the saved-tracks collection.
const likedCoverURL = "https://misc.scdn.co/liked-songs/liked-songs-300.png"

const likedTracksHref = "https://api.spotify.com/v1/me/tracks"

// EnumeratePlaylists returns the user's playlists in provider order, prefixed
// with a synthetic entry representing liked songs.
//
// The liked-songs total comes from a 1-item probe of the saved-tracks
// collection, issued before any real playlist page. The remaining playlist
// pages are fetched in parallel, each staggered proportionally to its offset;
// a single page failure fails the whole enumeration (no partial listing).
func (e *Engine) EnumeratePlaylists(ctx context.Context) ([]models.Playlist, error) {
	me, err := e.catalog.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	probe, err := e.catalog.SavedTracksPage(ctx, 1, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("liked songs probe: %w", err)
	}

	owner := me.DisplayName
	if owner == "" {
		owner = me.ID
	}

	liked := models.Playlist{
		ID:         models.LikedSongsID,
		Name:       models.LikedSongsName,
		Owner:      owner,
		TracksHref: likedTracksHref,
		TrackCount: probe.Total,
		ImageURL:   likedCoverURL,
		Liked:      true,
	}

	first, err := e.catalog.PlaylistsPage(ctx, services.PlaylistPageSize, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("playlists page 0: %w", err)
	}

	pageCount := pagesFor(first.Total, services.PlaylistPageSize)
	pages := make([][]models.Playlist, pageCount)
	if pageCount > 0 {
		pages[0] = first.Items
	}

	if pageCount > 1 {
		err := fanOut(pageCount-1, func(i int) error {
			index := i + 1
			offset := index * services.PlaylistPageSize
			page, err := e.catalog.PlaylistsPage(ctx, services.PlaylistPageSize, offset, e.stagger(index))
			if err != nil {
				return fmt.Errorf("playlists page %d: %w", index, err)
			}
			pages[index] = page.Items
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	playlists := make([]models.Playlist, 0, first.Total+1)
	playlists = append(playlists, liked)
	for _, page := range pages {
		playlists = append(playlists, page...)
	}
	return playlists, nil
}

// pagesFor returns ceil(total/pageSize).
func pagesFor(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
