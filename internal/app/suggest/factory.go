package suggest

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/infra/config"
)

// NewProviderChainFromConfig creates a provider chain from configuration.
// Without configured providers the chain falls back to catalog suggestions.
func NewProviderChainFromConfig(cfg config.SuggestionsConfig, catalog Catalog) (*ProviderChain, error) {
	providerConfigs := cfg.Providers
	if len(providerConfigs) == 0 {
		providerConfigs = []config.ProviderConfig{{Type: "catalog", DisplayName: "Related"}}
	}

	var providers []ProviderWithMetadata

	for i, pcfg := range providerConfigs {
		var provider Provider
		var err error
		zlog.Debug().Msgf("suggest: creating provider: index=%d type=%s", i+1, pcfg.Type)
		switch pcfg.Type {
		case "catalog":
			provider, err = NewCatalogProvider(catalog, pcfg.Settings)

		case "lastfm":
			provider, err = NewLastFmProvider(catalog, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("suggest: registered provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return NewProviderChain(providers), nil
}
