package suggest

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/domain/track"
)

// Candidate represents a suggested track with its source provider info.
type Candidate struct {
	Track       track.Track `json:"track"`
	DisplayName string      `json:"source"`
}

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// ProviderChain asks providers in order until enough candidates are found.
type ProviderChain struct {
	providers []ProviderWithMetadata
}

// NewProviderChain creates a new provider chain.
func NewProviderChain(providers []ProviderWithMetadata) *ProviderChain {
	return &ProviderChain{
		providers: providers,
	}
}

// GetCandidates retrieves up to count candidates. Later providers are only asked
// for what earlier ones could not supply, and never return a track twice.
// It fails only when every provider failed.
func (c *ProviderChain) GetCandidates(ctx context.Context, count int, seedTracks []track.Track, excludeIDs map[string]bool) ([]Candidate, error) {
	allCandidates := make([]Candidate, 0, count)
	if count <= 0 || len(c.providers) == 0 {
		return allCandidates, nil
	}

	currentExcludeIDs := make(map[string]bool, len(excludeIDs))
	for k, v := range excludeIDs {
		currentExcludeIDs[k] = v
	}
	for _, s := range seedTracks {
		currentExcludeIDs[s.ID] = true
	}

	failures := 0
	for i, pm := range c.providers {
		remaining := count - len(allCandidates)
		if remaining <= 0 {
			break
		}

		zlog.Debug().Msgf("suggest: trying provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		candidates, err := pm.Provider.GetCandidates(ctx, remaining, seedTracks, currentExcludeIDs)
		if err != nil {
			failures++
			zlog.Warn().Msgf("suggest: provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			continue
		}

		added := 0
		for _, t := range candidates {
			if currentExcludeIDs[t.ID] || added >= remaining {
				continue
			}
			allCandidates = append(allCandidates, Candidate{
				Track:       t,
				DisplayName: pm.DisplayName,
			})
			// Update exclude set to avoid duplicates from next provider
			currentExcludeIDs[t.ID] = true
			added++
		}

		zlog.Info().Msgf("suggest: provider returned candidates: provider=%s count=%d total_so_far=%d",
			pm.DisplayName, added, len(allCandidates))
	}

	if failures == len(c.providers) {
		return nil, errors.New("all suggestion providers failed")
	}

	return allCandidates, nil
}

// Name returns the chain name.
func (c *ProviderChain) Name() string {
	return "provider_chain"
}
