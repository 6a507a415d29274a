package suggest

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/domain/track"
)

type CatalogProviderConfig struct {
	SeedTrackCount int `yaml:"seed_track_count" mapstructure:"seed_track_count" default:"1" validate:"gte=1"`
}

// CatalogProvider suggests the tracks the catalog itself relates to the seeds.
type CatalogProvider struct {
	catalog Catalog
	config  *CatalogProviderConfig
}

// NewCatalogProvider creates a new CatalogProvider.
func NewCatalogProvider(catalog Catalog, settings map[string]any) (*CatalogProvider, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}

	var config CatalogProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &CatalogProvider{catalog: catalog, config: &config}, nil
}

// GetCandidates collects catalog suggestions for each seed in order.
func (p *CatalogProvider) GetCandidates(ctx context.Context, count int, seedTracks []track.Track, existingTrackIDs map[string]bool) ([]track.Track, error) {
	if count <= 0 || len(seedTracks) == 0 {
		return []track.Track{}, nil
	}
	if len(seedTracks) > p.config.SeedTrackCount {
		seedTracks = seedTracks[:p.config.SeedTrackCount]
	}

	var candidates []track.Track
	var lastErr error
	for _, seed := range seedTracks {
		suggested, err := p.catalog.Suggestions(ctx, seed.ID)
		if err != nil {
			zlog.Debug().Msgf("suggest: catalog suggestions failed: seed=%s error=%v", seed.ID, err)
			lastErr = err
			continue
		}
		for _, t := range suggested {
			if !existingTrackIDs[t.ID] {
				candidates = append(candidates, t)
			}
		}
	}

	if len(candidates) == 0 && lastErr != nil {
		return nil, errors.Wrap(lastErr, "failed to get catalog suggestions")
	}

	candidates = deduplicateByID(candidates)
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

// Name returns the provider name.
func (p *CatalogProvider) Name() string {
	return "catalog"
}
