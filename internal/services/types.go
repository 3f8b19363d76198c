package services

import (
	"github.com/visheshvs/nexportify/internal/models"
)

// Wire payloads for each resource. Fields whose absence the pipeline tolerates
// are pointers; each has exactly one fallback rule, applied in the mappers
// below: a nil track yields a blank row (the playlist total still counts it),
// a nil album leaves the album/label fields blank, a nil artist entry is
// skipped, and a nil added_by leaves the Added By column blank.

type imagePayload struct {
	URL string `json:"url"`
}

type ownerPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type tracksRefPayload struct {
	Href  string `json:"href"`
	Total int    `json:"total"`
}

type playlistItemPayload struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Owner  *ownerPayload    `json:"owner"`
	Tracks tracksRefPayload `json:"tracks"`
	Images []imagePayload   `json:"images"`
}

func (p playlistItemPayload) toModel() models.Playlist {
	pl := models.Playlist{
		ID:         p.ID,
		Name:       p.Name,
		TracksHref: p.Tracks.Href,
		TrackCount: p.Tracks.Total,
	}
	if p.Owner != nil {
		pl.Owner = p.Owner.DisplayName
		if pl.Owner == "" {
			pl.Owner = p.Owner.ID
		}
	}
	if len(p.Images) > 0 {
		pl.ImageURL = p.Images[0].URL
	}
	return pl
}

type playlistsPayload struct {
	Total int                   `json:"total"`
	Items []playlistItemPayload `json:"items"`
}

type artistRefPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type albumRefPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

type trackPayload struct {
	URI        string             `json:"uri"`
	Name       string             `json:"name"`
	DurationMS int                `json:"duration_ms"`
	Popularity int                `json:"popularity"`
	Explicit   bool               `json:"explicit"`
	Album      *albumRefPayload   `json:"album"`
	Artists    []artistRefPayload `json:"artists"`
}

type addedByPayload struct {
	ID string `json:"id"`
}

type trackItemPayload struct {
	AddedAt string          `json:"added_at"`
	AddedBy *addedByPayload `json:"added_by"`
	Track   *trackPayload   `json:"track"`
}

// toEntry maps one membership record to a TrackEntry. A null track (a row the
// provider can no longer resolve) still produces a blank entry so the final
// row count matches the playlist's reported total.
func (item trackItemPayload) toEntry() models.TrackEntry {
	entry := models.TrackEntry{AddedAt: item.AddedAt}
	if item.AddedBy != nil {
		entry.AddedBy = item.AddedBy.ID
	}

	track := item.Track
	if track == nil {
		return entry
	}

	entry.URI = track.URI
	entry.Name = track.Name
	entry.DurationMS = track.DurationMS
	entry.Popularity = track.Popularity
	entry.Explicit = track.Explicit

	if track.Album != nil {
		entry.AlbumID = track.Album.ID
		entry.AlbumName = track.Album.Name
		entry.ReleaseDate = track.Album.ReleaseDate
	}

	for _, artist := range track.Artists {
		if artist.ID != "" {
			entry.ArtistIDs = append(entry.ArtistIDs, artist.ID)
		}
		if artist.Name != "" {
			entry.ArtistNames = append(entry.ArtistNames, artist.Name)
		}
	}

	return entry
}

type tracksPayload struct {
	Total int                `json:"total"`
	Items []trackItemPayload `json:"items"`
}

type artistPayload struct {
	ID     string   `json:"id"`
	Genres []string `json:"genres"`
}

type artistsPayload struct {
	Artists []*artistPayload `json:"artists"`
}

type albumPayload struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type albumsPayload struct {
	Albums []*albumPayload `json:"albums"`
}

type audioFeaturesPayload struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
}

type featuresPayload struct {
	AudioFeatures []*audioFeaturesPayload `json:"audio_features"`
}
