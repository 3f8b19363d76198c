// package models defines the data model for playlist aggregation and export
package models

// LikedSongsID is the pseudo-identifier of the synthetic playlist representing
// the user's saved tracks. The provider's playlist-list resource never returns
// it; the enumerator constructs it locally so downstream code treats liked
// songs like any other playlist.
const LikedSongsID = "liked-songs"

// LikedSongsName is the fixed display name of the synthetic playlist.
const LikedSongsName = "Liked Songs"

// Playlist represents one exportable playlist, real or synthetic.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	TracksHref string `json:"tracks_href"`
	TrackCount int    `json:"track_count"`
	ImageURL   string `json:"image_url,omitempty"`
	Liked      bool   `json:"liked,omitempty"` // synthetic liked-songs entry
}

// TrackEntry is one playlist membership record, immutable once fetched.
//
// ArtistIDs and AlbumID feed the enrichment waves; they are dropped from the
// final export row in favor of the joined genre and label strings.
type TrackEntry struct {
	URI         string
	Name        string
	AlbumID     string
	AlbumName   string
	ArtistIDs   []string
	ArtistNames []string
	ReleaseDate string
	DurationMS  int
	Popularity  int
	Explicit    bool
	AddedBy     string
	AddedAt     string
}

// AudioFeatures is the ordered 12-tuple of per-track analysis values.
type AudioFeatures struct {
	Danceability     float64
	Energy           float64
	Key              int
	Loudness         float64
	Mode             int
	Speechiness      float64
	Acousticness     float64
	Instrumentalness float64
	Liveness         float64
	Valence          float64
	Tempo            float64
	TimeSignature    int
}

// TrackBatch pairs the rows produced by one page request with the audio
// features derived from the same batch. Keeping both sides on one descriptor
// guarantees the positional alignment the join depends on: Features[i] always
// belongs to Entries[i], and a nil element means the provider has no features
// for that track.
type TrackBatch struct {
	Index    int
	Offset   int
	Entries  []TrackEntry
	Features []*AudioFeatures
}

// ExportRow is the final denormalized row, in CSV column order.
type ExportRow struct {
	TrackURI    string
	TrackName   string
	AlbumName   string
	ArtistNames []string
	ReleaseDate string
	DurationMS  int
	Popularity  int
	Explicit    bool
	AddedBy     string
	AddedAt     string
	Genres      string
	RecordLabel string
	Features    *AudioFeatures // nil renders as twelve empty fields
}

// Export bundles a playlist with its aggregated rows for the assembler.
type Export struct {
	Playlist Playlist
	Rows     []ExportRow
}
