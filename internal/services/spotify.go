// Spotify Web API client.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/session"
	"github.com/visheshvs/nexportify/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// Provider-imposed ceilings.
	PlaylistPageSize  = 50  // /me/playlists
	TrackPageSize     = 100 // /playlists/{id}/tracks
	LikedPageSize     = 50  // /me/tracks
	ArtistChunkSize   = 50  // /artists?ids=
	AlbumChunkSize    = 20  // /albums?ids=
	FeaturesChunkSize = 100 // /audio-features?ids=

	defaultRetryAfter  = time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// RetryPolicy configures how fetch responds to transient provider failures.
type RetryPolicy struct {
	// Timeout bounds each HTTP request. The provider never specifies one, and
	// without it a hung request would stall its wave forever.
	Timeout time.Duration

	// MaxBadGatewayRetries is the 502 retry budget before the error propagates.
	MaxBadGatewayRetries int

	// BadGatewayStep is added once per 502 attempt, so delays grow linearly.
	BadGatewayStep time.Duration

	// MaxRateLimitRetries caps 429 retries. Zero means retry until the
	// provider honors the request.
	MaxRateLimitRetries int
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:              defaultHTTPTimeout,
		MaxBadGatewayRetries: 2,
		BadGatewayStep:       500 * time.Millisecond,
		MaxRateLimitRetries:  0,
	}
}

// StatusError is an unclassified non-2xx response, carrying the numeric status
// so callers can report it at the per-playlist boundary.
type StatusError struct {
	Code     int
	Endpoint string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify API error: status %d on %s", e.Code, e.Endpoint)
}

// Client issues authorized, rate-limit-aware GET requests against the Spotify
// Web API and decodes typed responses. All network access in the aggregation
// pipeline funnels through [Client.fetch].
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	policy     RetryPolicy
	logger     *log.Logger

	// sleep is swappable so tests can observe pacing and backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Client bound to the given session.
func NewClient(sess *session.Session, policy RetryPolicy, logger *log.Logger) *Client {
	if policy.Timeout <= 0 {
		policy.Timeout = defaultHTTPTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Client{
		baseURL:    spotifyBaseURL,
		httpClient: &http.Client{Timeout: policy.Timeout},
		session:    sess,
		policy:     policy,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// fetch issues one authorized GET and decodes the JSON body into result.
//
// stagger is caller-supplied pacing that spreads a wave's burst across the
// rate-limit window; it applies to the first attempt only and never composes
// with retry backoff. Transient statuses are retried here, invisibly to the
// caller: 429 waits out the server-supplied Retry-After and reissues, 502
// retries with a linearly growing delay until the budget is exhausted.
func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values, stagger time.Duration, result any) error {
	token, err := c.session.Token()
	if err != nil {
		return err
	}

	if err := c.sleep(ctx, stagger); err != nil {
		return err
	}

	apiURL := c.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	badGateways := 0
	rateLimits := 0

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			err := decodeBody(resp, result)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", shared.ErrMalformedResponse, endpoint, err)
			}
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return fmt.Errorf("%w: %s", shared.ErrTokenExpired, endpoint)

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return fmt.Errorf("%w: %s", shared.ErrForbidden, endpoint)

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp)
			resp.Body.Close()
			rateLimits++
			if c.policy.MaxRateLimitRetries > 0 && rateLimits > c.policy.MaxRateLimitRetries {
				return &StatusError{Code: resp.StatusCode, Endpoint: endpoint}
			}
			c.logger.Warnf("rate limited on %s, retrying in %s", endpoint, wait)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}

		case resp.StatusCode == http.StatusBadGateway:
			resp.Body.Close()
			if badGateways >= c.policy.MaxBadGatewayRetries {
				return &StatusError{Code: resp.StatusCode, Endpoint: endpoint}
			}
			badGateways++
			wait := time.Duration(badGateways) * c.policy.BadGatewayStep
			c.logger.Warnf("bad gateway on %s, retry %d in %s", endpoint, badGateways, wait)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}

		default:
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Endpoint: endpoint}
		}
	}
}

func decodeBody(resp *http.Response, result any) error {
	defer resp.Body.Close()
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// retryAfter reads the server-supplied retry delay from a 429 response.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// UserProfile is the authenticated user's identity.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Me retrieves the current authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*UserProfile, error) {
	var user UserProfile
	if err := c.fetch(ctx, "/me", nil, 0, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PlaylistPage is one page of the current user's playlists.
type PlaylistPage struct {
	Total int
	Items []models.Playlist
}

// PlaylistsPage retrieves one page of the current user's playlists.
func (c *Client) PlaylistsPage(ctx context.Context, limit, offset int, stagger time.Duration) (*PlaylistPage, error) {
	if limit <= 0 || limit > PlaylistPageSize {
		limit = PlaylistPageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var page playlistsPayload
	if err := c.fetch(ctx, "/me/playlists", query, stagger, &page); err != nil {
		return nil, err
	}

	result := &PlaylistPage{Total: page.Total, Items: make([]models.Playlist, 0, len(page.Items))}
	for _, item := range page.Items {
		result.Items = append(result.Items, item.toModel())
	}
	return result, nil
}

// TrackPage is one page of playlist membership rows, the unit of positional
// alignment with the audio-features wave.
type TrackPage struct {
	Total   int
	Entries []models.TrackEntry
}

// SavedTracksPage retrieves one page of the user's liked songs.
//
// A limit of 1 with offset 0 doubles as the probe that teaches the enumerator
// the liked-songs total before it synthesizes the pseudo-playlist.
func (c *Client) SavedTracksPage(ctx context.Context, limit, offset int, stagger time.Duration) (*TrackPage, error) {
	if limit <= 0 || limit > LikedPageSize {
		limit = LikedPageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var page tracksPayload
	if err := c.fetch(ctx, "/me/tracks", query, stagger, &page); err != nil {
		return nil, err
	}
	return pageFromPayload(page), nil
}

// PlaylistTracksPage retrieves one page of a playlist's tracks.
func (c *Client) PlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int, stagger time.Duration) (*TrackPage, error) {
	if limit <= 0 || limit > TrackPageSize {
		limit = TrackPageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var page tracksPayload
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	if err := c.fetch(ctx, endpoint, query, stagger, &page); err != nil {
		return nil, err
	}
	return pageFromPayload(page), nil
}

func pageFromPayload(page tracksPayload) *TrackPage {
	result := &TrackPage{Total: page.Total, Entries: make([]models.TrackEntry, 0, len(page.Items))}
	for _, item := range page.Items {
		result.Entries = append(result.Entries, item.toEntry())
	}
	return result
}

// ArtistGenres retrieves up to [ArtistChunkSize] artists and maps each artist
// id to its comma-joined genre list. Artists absent from the response (e.g.
// deleted) are omitted from the mapping.
func (c *Client) ArtistGenres(ctx context.Context, ids []string, stagger time.Duration) (map[string]string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no artist IDs provided", shared.ErrInvalidArgument)
	}
	if len(ids) > ArtistChunkSize {
		return nil, fmt.Errorf("%w: maximum %d artist IDs allowed", shared.ErrInvalidArgument, ArtistChunkSize)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var batch artistsPayload
	if err := c.fetch(ctx, "/artists", query, stagger, &batch); err != nil {
		return nil, err
	}

	genres := make(map[string]string, len(batch.Artists))
	for _, artist := range batch.Artists {
		if artist == nil || artist.ID == "" {
			continue
		}
		genres[artist.ID] = strings.Join(artist.Genres, ",")
	}
	return genres, nil
}

// AlbumLabels retrieves up to [AlbumChunkSize] albums and maps each album id
// to its record-label string.
func (c *Client) AlbumLabels(ctx context.Context, ids []string, stagger time.Duration) (map[string]string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no album IDs provided", shared.ErrInvalidArgument)
	}
	if len(ids) > AlbumChunkSize {
		return nil, fmt.Errorf("%w: maximum %d album IDs allowed", shared.ErrInvalidArgument, AlbumChunkSize)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var batch albumsPayload
	if err := c.fetch(ctx, "/albums", query, stagger, &batch); err != nil {
		return nil, err
	}

	labels := make(map[string]string, len(batch.Albums))
	for _, album := range batch.Albums {
		if album == nil || album.ID == "" {
			continue
		}
		labels[album.ID] = album.Label
	}
	return labels, nil
}

// AudioFeatures retrieves the feature tuples for up to [FeaturesChunkSize]
// track ids. The returned slice is positionally aligned with ids; an element
// is nil when the provider has no features for that track.
func (c *Client) AudioFeatures(ctx context.Context, ids []string, stagger time.Duration) ([]*models.AudioFeatures, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidArgument)
	}
	if len(ids) > FeaturesChunkSize {
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed", shared.ErrInvalidArgument, FeaturesChunkSize)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var batch featuresPayload
	if err := c.fetch(ctx, "/audio-features", query, stagger, &batch); err != nil {
		return nil, err
	}
	if batch.AudioFeatures == nil {
		return nil, fmt.Errorf("%w: missing audio_features array", shared.ErrMalformedResponse)
	}
	if len(batch.AudioFeatures) != len(ids) {
		return nil, fmt.Errorf("%w: expected %d feature rows, got %d", shared.ErrMalformedResponse, len(ids), len(batch.AudioFeatures))
	}

	features := make([]*models.AudioFeatures, len(batch.AudioFeatures))
	for i, f := range batch.AudioFeatures {
		if f == nil {
			continue
		}
		features[i] = &models.AudioFeatures{
			Danceability:     f.Danceability,
			Energy:           f.Energy,
			Key:              f.Key,
			Loudness:         f.Loudness,
			Mode:             f.Mode,
			Speechiness:      f.Speechiness,
			Acousticness:     f.Acousticness,
			Instrumentalness: f.Instrumentalness,
			Liveness:         f.Liveness,
			Valence:          f.Valence,
			Tempo:            f.Tempo,
			TimeSignature:    f.TimeSignature,
		}
	}
	return features, nil
}
