// Package suggest provides "more like this" track suggestion strategies.
package suggest

import (
	"context"

	"github.com/osa030/lokal/internal/domain/track"
)

// Provider is the interface for suggestion providers.
type Provider interface {
	// GetCandidates retrieves suggestion candidates.
	// count: the number of candidates to retrieve
	// seedTracks: tracks the suggestions should resemble, most relevant first
	// existingTrackIDs: tracks already queued (for duplicate avoidance)
	GetCandidates(ctx context.Context, count int, seedTracks []track.Track, existingTrackIDs map[string]bool) ([]track.Track, error)

	// Name returns the provider name (used in config).
	Name() string
}

// Catalog defines the catalog operations needed by suggestion providers.
type Catalog interface {
	Search(ctx context.Context, query string, page int) (track.SearchPage, error)
	Suggestions(ctx context.Context, id string) ([]track.Track, error)
}

// deduplicateByID removes duplicate tracks by ID, keeping the first occurrence.
func deduplicateByID(tracks []track.Track) []track.Track {
	seen := make(map[string]bool)
	result := make([]track.Track, 0, len(tracks))

	for _, t := range tracks {
		if !seen[t.ID] {
			seen[t.ID] = true
			result = append(result, t)
		}
	}

	return result
}
