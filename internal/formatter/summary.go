package formatter

import (
	"sort"
	"strings"

	"github.com/visheshvs/nexportify/internal/models"
)

// topListSize bounds the top-artists and top-genres lists in summaries.
const topListSize = 10

// RankedEntry pairs a name with how many rows it appeared in.
type RankedEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FeatureAverages holds per-column means of the audio feature fields,
// computed only over rows that carry features.
type FeatureAverages struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
}

// Summary aggregates statistics over a set of export rows.
type Summary struct {
	TrackCount        int              `json:"track_count"`
	UniqueArtists     int              `json:"unique_artists"`
	TotalDurationMS   int              `json:"total_duration_ms"`
	AveragePopularity float64          `json:"average_popularity"`
	ExplicitCount     int              `json:"explicit_count"`
	TopArtists        []RankedEntry    `json:"top_artists"`
	TopGenres         []RankedEntry    `json:"top_genres"`
	RowsWithFeatures  int              `json:"rows_with_features"`
	Features          *FeatureAverages `json:"features,omitempty"`
}

// Summarize computes summary statistics for a set of export rows. Feature
// averages are nil when no row carries audio features.
func Summarize(rows []models.ExportRow) Summary {
	summary := Summary{TrackCount: len(rows)}

	artistCounts := map[string]int{}
	genreCounts := map[string]int{}
	var popularitySum int
	var features FeatureAverages

	for _, row := range rows {
		summary.TotalDurationMS += row.DurationMS
		popularitySum += row.Popularity
		if row.Explicit {
			summary.ExplicitCount++
		}

		for _, artist := range row.ArtistNames {
			if artist = strings.TrimSpace(artist); artist != "" {
				artistCounts[artist]++
			}
		}
		for _, genre := range strings.Split(row.Genres, ",") {
			if genre = strings.TrimSpace(genre); genre != "" {
				genreCounts[genre]++
			}
		}

		if f := row.Features; f != nil {
			summary.RowsWithFeatures++
			features.Danceability += f.Danceability
			features.Energy += f.Energy
			features.Loudness += f.Loudness
			features.Speechiness += f.Speechiness
			features.Acousticness += f.Acousticness
			features.Instrumentalness += f.Instrumentalness
			features.Liveness += f.Liveness
			features.Valence += f.Valence
			features.Tempo += f.Tempo
		}
	}

	summary.UniqueArtists = len(artistCounts)
	summary.TopArtists = topEntries(artistCounts, topListSize)
	summary.TopGenres = topEntries(genreCounts, topListSize)

	if len(rows) > 0 {
		summary.AveragePopularity = float64(popularitySum) / float64(len(rows))
	}
	if n := summary.RowsWithFeatures; n > 0 {
		d := float64(n)
		summary.Features = &FeatureAverages{
			Danceability:     features.Danceability / d,
			Energy:           features.Energy / d,
			Loudness:         features.Loudness / d,
			Speechiness:      features.Speechiness / d,
			Acousticness:     features.Acousticness / d,
			Instrumentalness: features.Instrumentalness / d,
			Liveness:         features.Liveness / d,
			Valence:          features.Valence / d,
			Tempo:            features.Tempo / d,
		}
	}
	return summary
}

// topEntries ranks counted names by frequency, breaking ties alphabetically.
func topEntries(counts map[string]int, limit int) []RankedEntry {
	entries := make([]RankedEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, RankedEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
