package filter

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/lokal/internal/domain/track"
)

// qualityRank orders stream qualities from worst to best.
var qualityRank = map[track.Quality]int{
	track.Quality96:  1,
	track.Quality160: 2,
	track.Quality320: 3,
}

// PlayableConfig represents the configuration for PlayableFilter.
type PlayableConfig struct {
	MinQuality string `yaml:"min_quality" mapstructure:"min_quality" default:"96kbps" validate:"oneof=96kbps 160kbps 320kbps"`
}

// PlayableFilter skips tracks that have no stream at or above the minimum quality.
type PlayableFilter struct {
	minRank int
}

// NewPlayableFilter creates a filter accepting any playable track.
func NewPlayableFilter() *PlayableFilter {
	return &PlayableFilter{minRank: qualityRank[track.Quality96]}
}

func (f *PlayableFilter) Name() string {
	return "playable_filter"
}

func (f *PlayableFilter) Description() string {
	return "Skips suggestions without a stream of the minimum quality"
}

func (f *PlayableFilter) ReturnCodes() []string {
	return []string{"no_playable_source", "quality_too_low"}
}

func (f *PlayableFilter) ValidateConfig(settings map[string]any) error {
	var config PlayableConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	f.minRank = qualityRank[track.Quality(config.MinQuality)]
	return nil
}

func (f *PlayableFilter) Check(ctx context.Context, t track.Track, queued []track.Track) Result {
	if _, err := t.SelectStream(); err != nil {
		return Reject("no_playable_source")
	}

	for _, s := range t.Sources {
		q := track.Quality(strings.ToLower(string(s.Quality)))
		if strings.TrimSpace(s.URL) != "" && qualityRank[q] >= f.minRank {
			return Accept()
		}
	}
	return Reject("quality_too_low")
}

func init() {
	Register("playable_filter", func() Filter {
		return NewPlayableFilter()
	})
}
