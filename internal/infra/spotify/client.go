// Package spotify provides a catalog backend on top of the Spotify Web API.
// Spotify only exposes 30 second preview clips, which become the single
// stream source of each track.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/lokal/internal/domain/track"
)

// ErrNotFound is returned when a track ID is unknown to Spotify.
var ErrNotFound = errors.New("spotify: track not found")

// previewQuality is the bitrate Spotify serves preview clips at.
const previewQuality = track.Quality96

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	pageSize   int
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
	PageSize     int
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(spotifyauth.ScopeUserReadPrivate),
	)

	// Create token from refresh token
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// Get HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, token)
	return newWithClient(spotify.New(httpClient), cfg), nil
}

func newWithClient(client *spotify.Client, cfg Config) *Client {
	market := cfg.Market
	if market == "" {
		market = "JP"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 20
	}
	return &Client{
		client:     client,
		market:     market,
		pageSize:   pageSize,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// Search searches tracks. Pages start at 1.
func (c *Client) Search(ctx context.Context, query string, page int) (track.SearchPage, error) {
	if query == "" {
		return track.SearchPage{}, errors.New("search query is required")
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * c.pageSize

	var result *spotify.SearchResult
	err := c.retry(ctx, func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeTrack,
			spotify.Limit(c.pageSize),
			spotify.Offset(offset),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return track.SearchPage{}, errors.Wrap(err, "failed to search")
	}

	out := track.SearchPage{Results: []track.Track{}, Start: offset}
	if result.Tracks == nil {
		return out, nil
	}
	out.Total = int(result.Tracks.Total)
	for i := range result.Tracks.Tracks {
		out.Results = append(out.Results, c.convertTrack(&result.Tracks.Tracks[i]))
	}
	return out, nil
}

// Song retrieves a track by ID, URL, or URI.
func (c *Client) Song(ctx context.Context, trackID string) (track.Track, error) {
	id := extractTrackID(trackID)

	var result *spotify.FullTrack
	err := c.retry(ctx, func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if isNotFound(err) {
		return track.Track{}, errors.Wrapf(ErrNotFound, "id=%s", id)
	}
	if err != nil {
		return track.Track{}, errors.Wrap(err, "failed to get track")
	}

	return c.convertTrack(result), nil
}

// Suggestions returns tracks recommended from the given seed track.
func (c *Client) Suggestions(ctx context.Context, trackID string) ([]track.Track, error) {
	seed := spotify.ID(extractTrackID(trackID))

	var recs *spotify.Recommendations
	err := c.retry(ctx, func() error {
		r, err := c.client.GetRecommendations(ctx, spotify.Seeds{Tracks: []spotify.ID{seed}}, nil,
			spotify.Limit(c.pageSize),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		recs = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recommendations")
	}
	if len(recs.Tracks) == 0 {
		return []track.Track{}, nil
	}

	// Recommendations carry simplified tracks; fetch the full records for album data.
	ids := make([]spotify.ID, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		ids = append(ids, t.ID)
	}

	var full []*spotify.FullTrack
	err = c.retry(ctx, func() error {
		f, err := c.client.GetTracks(ctx, ids, spotify.Market(c.market))
		if err != nil {
			return err
		}
		full = f
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recommended tracks")
	}

	tracks := make([]track.Track, 0, len(full))
	for _, t := range full {
		if t != nil && t.ID != "" {
			tracks = append(tracks, c.convertTrack(t))
		}
	}
	return tracks, nil
}

// convertTrack converts a Spotify FullTrack to domain Track.
func (c *Client) convertTrack(t *spotify.FullTrack) track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	// Spotify lists images largest first; tracks keep them smallest first.
	artwork := make([]track.Image, 0, len(t.Album.Images))
	for i := len(t.Album.Images) - 1; i >= 0; i-- {
		img := t.Album.Images[i]
		artwork = append(artwork, track.Image{
			Quality: fmt.Sprintf("%dx%d", int(img.Width), int(img.Height)),
			URL:     img.URL,
		})
	}

	var sources []track.StreamSource
	if t.PreviewURL != "" {
		sources = []track.StreamSource{{Quality: previewQuality, URL: t.PreviewURL}}
	}

	year := t.Album.ReleaseDate
	if len(year) > 4 {
		year = year[:4]
	}

	return track.Track{
		ID:       string(t.ID),
		Name:     t.Name,
		Artists:  artists,
		Album:    t.Album.Name,
		AlbumID:  string(t.Album.ID),
		Artwork:  artwork,
		Duration: time.Duration(t.Duration) * time.Millisecond,
		Year:     year,
		Explicit: t.Explicit,
		URL:      GetTrackURL(string(t.ID)),
		Sources:  sources,
	}
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

// retry retries an operation with linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "retry aborted")
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == 404
	}
	return strings.Contains(err.Error(), "404")
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:track:TRACK_ID
	if strings.HasPrefix(input, "spotify:track:") {
		return strings.TrimPrefix(input, "spotify:track:")
	}

	// Handle URL format: https://open.spotify.com/track/TRACK_ID or https://open.spotify.com/intl-XX/track/TRACK_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		if len(parts) >= 2 {
			// Remove query parameters and trailing slashes
			id := strings.Split(parts[len(parts)-1], "?")[0]
			id = strings.TrimRight(id, "/")
			return id
		}
	}

	// Assume it's already a track ID
	return input
}
