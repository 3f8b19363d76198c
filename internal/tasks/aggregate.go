package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/services"
	"github.com/visheshvs/nexportify/internal/shared"
)

// BuildRows aggregates one playlist into denormalized export rows through four
// strictly ordered waves: track pages, artist genres, album labels, and audio
// features. Within a wave, requests are issued in offset/chunk order with a
// fixed pacing step per index, complete in any order, and land in pre-sized
// slots keyed by index, so the join never depends on completion order.
//
// A failure in the track, genre, or label wave aborts this playlist's
// aggregation (no partial table). A failure confined to the feature wave
// degrades to twelve-null placeholder rows instead, because feature data is
// best effort.
func (e *Engine) BuildRows(ctx context.Context, playlist models.Playlist, progress chan<- ProgressUpdate) ([]models.ExportRow, error) {
	pageSize := services.TrackPageSize
	if playlist.Liked {
		pageSize = services.LikedPageSize
	}

	pageCount := pagesFor(playlist.TrackCount, pageSize)
	batches := make([]*models.TrackBatch, pageCount)
	artistIDs := newIDSet()
	albumIDs := newIDSet()

	e.sendProgress(progress, waveUpdate(TrackWave, playlist.Name, pageCount))
	err := fanOut(pageCount, func(index int) error {
		offset := index * pageSize
		page, err := e.fetchTrackPage(ctx, playlist, pageSize, offset, index)
		if err != nil {
			return fmt.Errorf("track wave page %d: %w", index, err)
		}

		batches[index] = &models.TrackBatch{Index: index, Offset: offset, Entries: page.Entries}
		for _, entry := range page.Entries {
			artistIDs.add(entry.ArtistIDs...)
			albumIDs.add(entry.AlbumID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	genres, err := e.genreWave(ctx, playlist.Name, artistIDs.values(), progress)
	if err != nil {
		return nil, err
	}

	labels, err := e.labelWave(ctx, playlist.Name, albumIDs.values(), progress)
	if err != nil {
		return nil, err
	}

	e.featureWave(ctx, playlist.Name, batches, progress)

	return joinRows(batches, genres, labels), nil
}

func (e *Engine) fetchTrackPage(ctx context.Context, playlist models.Playlist, limit, offset, index int) (*services.TrackPage, error) {
	if playlist.Liked {
		return e.catalog.SavedTracksPage(ctx, limit, offset, e.stagger(index))
	}
	return e.catalog.PlaylistTracksPage(ctx, playlist.ID, limit, offset, e.stagger(index))
}

// genreWave resolves the deduplicated artist id set into an artist→genres map.
func (e *Engine) genreWave(ctx context.Context, name string, artistIDs []string, progress chan<- ProgressUpdate) (map[string]string, error) {
	chunks := chunk(artistIDs, services.ArtistChunkSize)
	e.sendProgress(progress, waveUpdate(GenreWave, name, len(chunks)))

	genres := make(map[string]string, len(artistIDs))
	merged := newMapCollector(genres)

	err := fanOut(len(chunks), func(index int) error {
		part, err := e.catalog.ArtistGenres(ctx, chunks[index], e.stagger(index))
		if err != nil {
			return fmt.Errorf("genre wave chunk %d: %w", index, err)
		}
		merged.merge(part)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return genres, nil
}

// labelWave resolves the deduplicated album id set into an album→label map.
// Its pacing step is larger than the genre wave's to throttle further after
// that wave's burst.
func (e *Engine) labelWave(ctx context.Context, name string, albumIDs []string, progress chan<- ProgressUpdate) (map[string]string, error) {
	chunks := chunk(albumIDs, services.AlbumChunkSize)
	e.sendProgress(progress, waveUpdate(LabelWave, name, len(chunks)))

	labels := make(map[string]string, len(albumIDs))
	merged := newMapCollector(labels)

	err := fanOut(len(chunks), func(index int) error {
		part, err := e.catalog.AlbumLabels(ctx, chunks[index], e.throttl(index))
		if err != nil {
			return fmt.Errorf("label wave chunk %d: %w", index, err)
		}
		merged.merge(part)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}

// featureWave attaches audio features to each track batch. Feature data is
// best effort: an empty id set, a malformed response, or a failed request
// yields batch-length nil placeholders rather than an error, and a permission
// failure additionally discards the stored session so the next run
// re-authenticates.
func (e *Engine) featureWave(ctx context.Context, name string, batches []*models.TrackBatch, progress chan<- ProgressUpdate) {
	e.sendProgress(progress, waveUpdate(FeatureWave, name, len(batches)))

	fanOut(len(batches), func(index int) error {
		batch := batches[index]
		batch.Features = make([]*models.AudioFeatures, len(batch.Entries))

		ids := make([]string, 0, len(batch.Entries))
		positions := make([]int, 0, len(batch.Entries))
		for i, entry := range batch.Entries {
			if id := trackIDFromURI(entry.URI); id != "" {
				ids = append(ids, id)
				positions = append(positions, i)
			}
		}
		if len(ids) == 0 {
			return nil
		}

		features, err := e.catalog.AudioFeatures(ctx, ids, e.stagger(index))
		if err != nil {
			if errors.Is(err, shared.ErrForbidden) {
				e.discardSession()
			}
			e.logger.Warnf("feature wave batch %d degraded: %v", index, err)
			return nil
		}

		for i, f := range features {
			batch.Features[positions[i]] = f
		}
		return nil
	})
}

// joinRows flattens the batches in page order and joins the enrichment maps
// onto each row. Features[i] belongs to Entries[i] by construction, so one
// track's missing features never shift a neighbor's.
func joinRows(batches []*models.TrackBatch, genres, labels map[string]string) []models.ExportRow {
	rowCount := 0
	for _, batch := range batches {
		rowCount += len(batch.Entries)
	}

	rows := make([]models.ExportRow, 0, rowCount)
	for _, batch := range batches {
		for i, entry := range batch.Entries {
			row := models.ExportRow{
				TrackURI:    entry.URI,
				TrackName:   entry.Name,
				AlbumName:   entry.AlbumName,
				ArtistNames: entry.ArtistNames,
				ReleaseDate: entry.ReleaseDate,
				DurationMS:  entry.DurationMS,
				Popularity:  entry.Popularity,
				Explicit:    entry.Explicit,
				AddedBy:     entry.AddedBy,
				AddedAt:     entry.AddedAt,
				Genres:      joinGenres(entry.ArtistIDs, genres),
				RecordLabel: labels[entry.AlbumID],
			}
			if batch.Features != nil {
				row.Features = batch.Features[i]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// joinGenres deduplicates and comma-joins the genres of every artist on a row.
func joinGenres(artistIDs []string, genres map[string]string) string {
	seen := make(map[string]bool)
	var joined []string
	for _, id := range artistIDs {
		list, ok := genres[id]
		if !ok || list == "" {
			continue
		}
		for _, genre := range strings.Split(list, ",") {
			if genre == "" || seen[genre] {
				continue
			}
			seen[genre] = true
			joined = append(joined, genre)
		}
	}
	return strings.Join(joined, ",")
}

// trackIDFromURI extracts the bare id from a spotify:track:<id> URI.
func trackIDFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	parts := strings.Split(uri, ":")
	return parts[len(parts)-1]
}
