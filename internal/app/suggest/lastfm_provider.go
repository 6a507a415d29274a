package suggest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/lokal/internal/domain/track"
	"github.com/osa030/lokal/internal/infra/lastfm"
)

// LastFmClient defines the interface for Last.fm operations.
type LastFmClient interface {
	GetSimilarTracks(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.SimilarTrack, error)
	GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.Tag, error)
	GetTopTracks(ctx context.Context, tagName string, limit int) ([]lastfm.TopTrack, error)
}

type LastFmProviderConfig struct {
	APIKey         string  `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	SeedTrackCount int     `yaml:"seed_track_count" mapstructure:"seed_track_count" default:"3" validate:"gte=1"`
	TagCount       int     `yaml:"tag_count" mapstructure:"tag_count" default:"3" validate:"gte=0"`
	TagWeight      float64 `yaml:"tag_weight" mapstructure:"tag_weight" default:"0.4" validate:"gte=0,lte=1.0"`
	SimilarWeight  float64 `yaml:"similar_weight" mapstructure:"similar_weight" default:"0.6" validate:"gte=0,lte=1.0"`
}

// LastFmProvider suggests tracks using Last.fm with hybrid scoring.
// Combines tag-based and similar-based strategies with configurable weights,
// then resolves each Last.fm result to a catalog track by search.
type LastFmProvider struct {
	lastfm  LastFmClient
	catalog Catalog

	// Cache for catalog search results; nil entries record misses
	searchCache map[string]*track.Track
	cacheMutex  sync.RWMutex

	config *LastFmProviderConfig
}

// ScoredTrack represents a track with its hybrid score.
type ScoredTrack struct {
	Track track.Track
	Score float64
}

// NewLastFmProvider creates a new LastFmProvider.
func NewLastFmProvider(catalog Catalog, settings map[string]any) (*LastFmProvider, error) {
	if len(settings) == 0 {
		return nil, errors.New("settings are required")
	}

	var config LastFmProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	lastfmClient, err := lastfm.New(lastfm.Config{APIKey: config.APIKey})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create last.fm client")
	}

	return newLastFmProvider(catalog, lastfmClient, &config)
}

func newLastFmProvider(catalog Catalog, client LastFmClient, config *LastFmProviderConfig) (*LastFmProvider, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if math.Abs(config.TagWeight+config.SimilarWeight-1.0) > 1e-9 {
		return nil, errors.New("tag weight and similar weight must sum to 1.0")
	}
	return &LastFmProvider{
		lastfm:      client,
		catalog:     catalog,
		searchCache: make(map[string]*track.Track),
		config:      config,
	}, nil
}

// GetCandidates retrieves suggestion candidates using hybrid scoring.
func (p *LastFmProvider) GetCandidates(ctx context.Context, count int, seedTracks []track.Track, existingTrackIDs map[string]bool) ([]track.Track, error) {
	if count <= 0 || len(seedTracks) == 0 {
		return []track.Track{}, nil
	}

	// Limit seed tracks
	if len(seedTracks) > p.config.SeedTrackCount {
		seedTracks = seedTracks[:p.config.SeedTrackCount]
	}

	// 1. Get tag-based candidates
	var tagCandidates []track.Track
	if p.config.TagCount > 0 && p.config.TagWeight > 0 {
		tagCandidates = p.getTagBasedCandidates(ctx, seedTracks, existingTrackIDs)
	}

	// 2. Get similar-based candidates
	similarCandidates := p.getSimilarBasedCandidates(ctx, seedTracks, existingTrackIDs)

	// 3. Score and merge
	scored := p.scoreAndMerge(tagCandidates, similarCandidates)

	// 4. Sort by score (descending), keeping discovery order for ties
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	result := make([]track.Track, 0, count)
	for i := 0; i < count && i < len(scored); i++ {
		result = append(result, scored[i].Track)
	}

	return result, nil
}

// Name returns the provider name.
func (p *LastFmProvider) Name() string {
	return "lastfm"
}

// getTagBasedCandidates retrieves candidates from the top tracks of the seeds' most common tags.
func (p *LastFmProvider) getTagBasedCandidates(ctx context.Context, seedTracks []track.Track, existingTrackIDs map[string]bool) []track.Track {
	// Collect tags from seed tracks
	tagCounts := make(map[string]int)
	for _, seed := range seedTracks {
		if len(seed.Artists) == 0 {
			continue
		}
		tags, err := p.lastfm.GetTopTags(ctx, seed.Name, seed.Artists[0], 10)
		if err != nil {
			continue // Skip on error
		}
		for _, tag := range tags {
			tagCounts[tag.Name] += tag.Count
		}
	}

	if len(tagCounts) == 0 {
		return []track.Track{}
	}

	topTags := p.sortAndTakeTopTags(tagCounts, p.config.TagCount)

	results := make([][]track.Track, len(topTags))
	var wg sync.WaitGroup
	for i, tagName := range topTags {
		wg.Add(1)
		go func(i int, tag string) {
			defer wg.Done()
			lfmTracks, err := p.lastfm.GetTopTracks(ctx, tag, 10)
			if err != nil {
				return // Skip on error
			}
			for _, lfmTrack := range lfmTracks {
				if t := p.searchOnCatalog(ctx, lfmTrack.Name, lfmTrack.Artist); t != nil && !existingTrackIDs[t.ID] {
					results[i] = append(results[i], *t)
				}
			}
		}(i, tagName)
	}
	wg.Wait()

	return deduplicateByID(flatten(results))
}

// getSimilarBasedCandidates retrieves candidates from Last.fm's similar tracks of each seed.
func (p *LastFmProvider) getSimilarBasedCandidates(ctx context.Context, seedTracks []track.Track, existingTrackIDs map[string]bool) []track.Track {
	results := make([][]track.Track, len(seedTracks))
	var wg sync.WaitGroup

	for i, seed := range seedTracks {
		if len(seed.Artists) == 0 {
			continue
		}

		wg.Add(1)
		go func(i int, s track.Track) {
			defer wg.Done()
			similar, err := p.lastfm.GetSimilarTracks(ctx, s.Name, s.Artists[0], 10)
			if err != nil {
				return // Skip on error
			}
			for _, sim := range similar {
				if t := p.searchOnCatalog(ctx, sim.Name, sim.Artist); t != nil && !existingTrackIDs[t.ID] {
					results[i] = append(results[i], *t)
				}
			}
		}(i, seed)
	}
	wg.Wait()

	return deduplicateByID(flatten(results))
}

// scoreAndMerge scores and merges tag-based and similar-based candidates.
// Tracks found by both strategies get both weights.
func (p *LastFmProvider) scoreAndMerge(tagCandidates, similarCandidates []track.Track) []ScoredTrack {
	result := make([]ScoredTrack, 0, len(tagCandidates)+len(similarCandidates))
	index := make(map[string]int)

	add := func(t track.Track, weight float64) {
		if i, ok := index[t.ID]; ok {
			result[i].Score += weight
			return
		}
		index[t.ID] = len(result)
		result = append(result, ScoredTrack{Track: t, Score: weight})
	}

	for _, t := range similarCandidates {
		add(t, p.config.SimilarWeight)
	}
	for _, t := range tagCandidates {
		add(t, p.config.TagWeight)
	}

	return result
}

// sortAndTakeTopTags sorts tags by count and returns top N tag names.
func (p *LastFmProvider) sortAndTakeTopTags(tagCounts map[string]int, topN int) []string {
	type tagCount struct {
		name  string
		count int
	}

	tags := make([]tagCount, 0, len(tagCounts))
	for name, count := range tagCounts {
		tags = append(tags, tagCount{name: name, count: count})
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].count == tags[j].count {
			return tags[i].name < tags[j].name
		}
		return tags[i].count > tags[j].count
	})

	result := make([]string, 0, topN)
	for i := 0; i < topN && i < len(tags); i++ {
		result = append(result, tags[i].name)
	}

	return result
}

// searchOnCatalog resolves a Last.fm track to a catalog track with caching.
// Only a playable result whose artists include artistName is accepted.
func (p *LastFmProvider) searchOnCatalog(ctx context.Context, trackName, artistName string) *track.Track {
	key := strings.ToLower(fmt.Sprintf("%s:%s", trackName, artistName))

	// Check cache
	p.cacheMutex.RLock()
	if cached, ok := p.searchCache[key]; ok {
		p.cacheMutex.RUnlock()
		return cached
	}
	p.cacheMutex.RUnlock()

	var found *track.Track
	page, err := p.catalog.Search(ctx, trackName+" "+artistName, 1)
	if err == nil {
		for _, t := range page.Results {
			if _, err := t.SelectStream(); err != nil {
				continue
			}
			if matchesArtist(t, artistName) {
				found = &t
				break
			}
		}
	}

	// Cache misses too, to avoid repeated failed searches
	p.cacheMutex.Lock()
	p.searchCache[key] = found
	p.cacheMutex.Unlock()

	return found
}

func matchesArtist(t track.Track, artistName string) bool {
	for _, a := range t.Artists {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(artistName)) {
			return true
		}
	}
	return false
}

func flatten(groups [][]track.Track) []track.Track {
	var out []track.Track
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
