// Package catalog selects the remote music catalog backend and normalizes its errors.
package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/domain/track"
	"github.com/osa030/lokal/internal/infra/config"
	"github.com/osa030/lokal/internal/infra/saavn"
	"github.com/osa030/lokal/internal/infra/spotify"
)

// ErrNotFound is returned when the backend has no song with the requested ID.
var ErrNotFound = errors.New("catalog: song not found")

// Catalog is a remote music catalog.
type Catalog interface {
	// Search returns one page of results. Pages start at 1; an empty page marks the end.
	Search(ctx context.Context, query string, page int) (track.SearchPage, error)
	// Song returns a single song by ID.
	Song(ctx context.Context, id string) (track.Track, error)
	// Suggestions returns songs related to the given song.
	Suggestions(ctx context.Context, id string) ([]track.Track, error)
}

// New creates the catalog configured in cfg.
func New(ctx context.Context, cfg *config.Config) (Catalog, error) {
	switch cfg.Catalog.Provider {
	case config.CatalogSpotify:
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
			PageSize:     cfg.Catalog.PageSize,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create spotify catalog")
		}
		zlog.Info().Msgf("catalog: using spotify: market=%s", cfg.Spotify.Market)
		return Wrap(client, spotify.ErrNotFound), nil

	case config.CatalogSaavn, "":
		client := saavn.New(saavn.Config{
			BaseURL: cfg.Catalog.BaseURL,
			Timeout: cfg.Catalog.Timeout(),
		})
		zlog.Info().Msgf("catalog: using saavn: base_url=%s", cfg.Catalog.BaseURL)
		return Wrap(client, saavn.ErrNotFound), nil

	default:
		return nil, errors.Newf("unknown catalog provider: %s", cfg.Catalog.Provider)
	}
}

// Wrap adapts a backend so its notFound sentinel is reported as ErrNotFound.
func Wrap(backend Catalog, notFound error) Catalog {
	return &mapped{backend: backend, notFound: notFound}
}

type mapped struct {
	backend  Catalog
	notFound error
}

func (m *mapped) Search(ctx context.Context, query string, page int) (track.SearchPage, error) {
	result, err := m.backend.Search(ctx, query, page)
	return result, m.translate(err)
}

func (m *mapped) Song(ctx context.Context, id string) (track.Track, error) {
	t, err := m.backend.Song(ctx, id)
	return t, m.translate(err)
}

func (m *mapped) Suggestions(ctx context.Context, id string) ([]track.Track, error) {
	tracks, err := m.backend.Suggestions(ctx, id)
	return tracks, m.translate(err)
}

func (m *mapped) translate(err error) error {
	if err == nil {
		return nil
	}
	if m.notFound != nil && errors.Is(err, m.notFound) {
		return errors.Mark(err, ErrNotFound)
	}
	return err
}
