package suggest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
	"github.com/osa030/lokal/internal/infra/config"
	"github.com/osa030/lokal/internal/infra/lastfm"
)

func playable(id, name, artist string) track.Track {
	return track.Track{
		ID:      id,
		Name:    name,
		Artists: []string{artist},
		Sources: []track.StreamSource{{Quality: track.Quality320, URL: "https://cdn.example/" + id}},
	}
}

// Mock catalog for testing
type mockCatalog struct {
	mu          sync.Mutex
	byQuery     map[string][]track.Track
	suggestions map[string][]track.Track
	searches    int
	suggestErr  error
}

func (m *mockCatalog) Search(ctx context.Context, query string, page int) (track.SearchPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	return track.SearchPage{Results: m.byQuery[strings.ToLower(query)]}, nil
}

func (m *mockCatalog) Suggestions(ctx context.Context, id string) ([]track.Track, error) {
	if m.suggestErr != nil {
		return nil, m.suggestErr
	}
	return m.suggestions[id], nil
}

// Mock Last.fm client for testing
type mockLastFm struct {
	similar   map[string][]lastfm.SimilarTrack
	tags      map[string][]lastfm.Tag
	tagTracks map[string][]lastfm.TopTrack
}

func (m *mockLastFm) GetSimilarTracks(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.SimilarTrack, error) {
	return m.similar[trackName], nil
}

func (m *mockLastFm) GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.Tag, error) {
	return m.tags[trackName], nil
}

func (m *mockLastFm) GetTopTracks(ctx context.Context, tagName string, limit int) ([]lastfm.TopTrack, error) {
	return m.tagTracks[tagName], nil
}

// Mock provider for chain tests
type mockProvider struct {
	name   string
	tracks []track.Track
	err    error
	asked  int
}

func (m *mockProvider) GetCandidates(ctx context.Context, count int, seedTracks []track.Track, existingTrackIDs map[string]bool) ([]track.Track, error) {
	m.asked = count
	if m.err != nil {
		return nil, m.err
	}
	var out []track.Track
	for _, t := range m.tracks {
		if !existingTrackIDs[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockProvider) Name() string { return m.name }

func TestProviderChain_FillsFromLaterProviders(t *testing.T) {
	first := &mockProvider{name: "first", tracks: []track.Track{playable("a", "A", "X"), playable("b", "B", "X")}}
	second := &mockProvider{name: "second", tracks: []track.Track{playable("b", "B", "X"), playable("c", "C", "Y"), playable("d", "D", "Y")}}
	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: first, DisplayName: "First"},
		{Provider: second, DisplayName: "Second"},
	})

	got, err := chain.GetCandidates(context.Background(), 3, nil, map[string]bool{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Track.ID)
	assert.Equal(t, "First", got[0].DisplayName)
	assert.Equal(t, "c", got[2].Track.ID)
	assert.Equal(t, "Second", got[2].DisplayName)
	assert.Equal(t, 1, second.asked)
}

func TestProviderChain_ExcludesSeedsAndQueued(t *testing.T) {
	p := &mockProvider{name: "p", tracks: []track.Track{playable("seed", "S", "X"), playable("queued", "Q", "X"), playable("new", "N", "X")}}
	chain := NewProviderChain([]ProviderWithMetadata{{Provider: p, DisplayName: "P"}})

	got, err := chain.GetCandidates(context.Background(), 5,
		[]track.Track{playable("seed", "S", "X")}, map[string]bool{"queued": true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Track.ID)
}

func TestProviderChain_Failures(t *testing.T) {
	failing := &mockProvider{name: "bad", err: errors.New("boom")}
	empty := &mockProvider{name: "empty"}

	chain := NewProviderChain([]ProviderWithMetadata{{Provider: failing, DisplayName: "Bad"}})
	_, err := chain.GetCandidates(context.Background(), 3, nil, nil)
	assert.Error(t, err)

	chain = NewProviderChain([]ProviderWithMetadata{
		{Provider: failing, DisplayName: "Bad"},
		{Provider: empty, DisplayName: "Empty"},
	})
	got, err := chain.GetCandidates(context.Background(), 3, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalogProvider(t *testing.T) {
	cat := &mockCatalog{suggestions: map[string][]track.Track{
		"seed": {playable("a", "A", "X"), playable("queued", "Q", "X"), playable("b", "B", "X")},
	}}
	p, err := NewCatalogProvider(cat, nil)
	require.NoError(t, err)

	got, err := p.GetCandidates(context.Background(), 5, []track.Track{playable("seed", "S", "X")}, map[string]bool{"queued": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, queue.TrackIDs(got))

	cat.suggestErr = errors.New("catalog down")
	_, err = p.GetCandidates(context.Background(), 5, []track.Track{playable("seed", "S", "X")}, nil)
	assert.Error(t, err)
}

func TestLastFmProvider_HybridScoring(t *testing.T) {
	cat := &mockCatalog{byQuery: map[string][]track.Track{
		"tum hi ho arijit singh":          {playable("tum", "Tum Hi Ho", "Arijit Singh")},
		"raataan lambiyan jubin nautiyal": {playable("raat", "Raataan Lambiyan", "Jubin Nautiyal")},
		"chaleya arijit singh":            {playable("chal", "Chaleya", "Arijit Singh")},
		"wrong artist someone":            {playable("w", "Wrong Artist", "Nobody")},
	}}
	lfm := &mockLastFm{
		similar: map[string][]lastfm.SimilarTrack{
			"Kesariya": {
				{Name: "Raataan Lambiyan", Artist: "Jubin Nautiyal"},
				{Name: "Tum Hi Ho", Artist: "Arijit Singh"},
				{Name: "Wrong Artist", Artist: "Someone"},
			},
		},
		tags: map[string][]lastfm.Tag{"Kesariya": {{Name: "bollywood", Count: 100}}},
		tagTracks: map[string][]lastfm.TopTrack{
			"bollywood": {{Name: "Tum Hi Ho", Artist: "Arijit Singh"}, {Name: "Chaleya", Artist: "Arijit Singh"}},
		},
	}

	p, err := newLastFmProvider(cat, lfm, &LastFmProviderConfig{SeedTrackCount: 3, TagCount: 2, TagWeight: 0.4, SimilarWeight: 0.6})
	require.NoError(t, err)

	seed := playable("kes", "Kesariya", "Arijit Singh")
	got, err := p.GetCandidates(context.Background(), 3, []track.Track{seed}, map[string]bool{})
	require.NoError(t, err)

	// Found by both strategies first, then similar-only, then tag-only
	assert.Equal(t, []string{"tum", "raat", "chal"}, queue.TrackIDs(got))

	// Resolution results are cached
	searches := cat.searches
	_, err = p.GetCandidates(context.Background(), 3, []track.Track{seed}, map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, searches, cat.searches)
}

func TestLastFmProvider_Config(t *testing.T) {
	cat := &mockCatalog{}

	_, err := NewLastFmProvider(cat, nil)
	assert.Error(t, err)

	_, err = NewLastFmProvider(cat, map[string]any{"seed_track_count": 2})
	assert.Error(t, err, "api_key is required")

	_, err = NewLastFmProvider(cat, map[string]any{"api_key": "k", "tag_weight": 0.5, "similar_weight": 0.6})
	assert.Error(t, err)

	p, err := NewLastFmProvider(cat, map[string]any{"api_key": "k"})
	require.NoError(t, err)
	assert.Equal(t, 3, p.config.SeedTrackCount)
	assert.Equal(t, "lastfm", p.Name())
}

func TestNewProviderChainFromConfig(t *testing.T) {
	cat := &mockCatalog{}

	chain, err := NewProviderChainFromConfig(config.SuggestionsConfig{}, cat)
	require.NoError(t, err)
	require.Len(t, chain.providers, 1)
	assert.Equal(t, "catalog", chain.providers[0].Provider.Name())

	_, err = NewProviderChainFromConfig(config.SuggestionsConfig{
		Providers: []config.ProviderConfig{{Type: "radio", DisplayName: "Radio"}},
	}, cat)
	assert.Error(t, err)
}
