// Package saavn provides a client for the JioSaavn-compatible catalog API.
package saavn

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/domain/track"
)

// DefaultBaseURL is the public catalog endpoint.
const DefaultBaseURL = "https://saavn.sumit.co"

// ErrNotFound is returned when the catalog has no song with the requested ID.
var ErrNotFound = errors.New("saavn: song not found")

// Config represents catalog client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a catalog API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new catalog client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// searchResponse represents the response from /api/search/songs.
type searchResponse struct {
	Status  string `json:"status"`
	Success bool   `json:"success"`
	Data    struct {
		Results []song `json:"results"`
		Total   int    `json:"total"`
		Start   int    `json:"start"`
	} `json:"data"`
}

// songsResponse represents the response from /api/songs/{id} and its suggestions.
type songsResponse struct {
	Success bool   `json:"success"`
	Data    []song `json:"data"`
}

// Search searches songs by free text. Pages start at 1.
func (c *Client) Search(ctx context.Context, query string, page int) (track.SearchPage, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var resp searchResponse
	if err := c.get(ctx, "/api/search/songs?"+params.Encode(), &resp); err != nil {
		return track.SearchPage{}, err
	}

	results := make([]track.Track, 0, len(resp.Data.Results))
	for _, s := range resp.Data.Results {
		results = append(results, s.toTrack())
	}

	zlog.Debug().Msgf("saavn: search: query=%q page=%d results=%d total=%d", query, page, len(results), resp.Data.Total)
	return track.SearchPage{Results: results, Total: resp.Data.Total, Start: resp.Data.Start}, nil
}

// Song fetches one song by ID.
func (c *Client) Song(ctx context.Context, id string) (track.Track, error) {
	var resp songsResponse
	if err := c.get(ctx, "/api/songs/"+url.PathEscape(id), &resp); err != nil {
		return track.Track{}, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return track.Track{}, errors.Wrapf(ErrNotFound, "id=%s", id)
	}
	return resp.Data[0].toTrack(), nil
}

// Suggestions returns songs related to the song with the given ID.
// An unsuccessful response yields no suggestions.
func (c *Client) Suggestions(ctx context.Context, id string) ([]track.Track, error) {
	var resp songsResponse
	if err := c.get(ctx, "/api/songs/"+url.PathEscape(id)+"/suggestions", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return []track.Track{}, nil
	}

	tracks := make([]track.Track, 0, len(resp.Data))
	for _, s := range resp.Data {
		tracks = append(tracks, s.toTrack())
	}
	return tracks, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(ErrNotFound, "GET %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("catalog API error: GET %s: status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
