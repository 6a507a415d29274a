// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrNoPlayableSource is returned when a track has no usable stream URL.
var ErrNoPlayableSource = errors.New("no playable source")

// Quality is the bitrate label attached to a stream source.
type Quality string

const (
	Quality320 Quality = "320kbps"
	Quality160 Quality = "160kbps"
	Quality96  Quality = "96kbps"
)

// preferredQualities is the order in which stream sources are chosen.
var preferredQualities = []Quality{Quality320, Quality160, Quality96}

// StreamSource is a candidate audio URL for a track.
type StreamSource struct {
	Quality Quality `json:"quality"`
	URL     string  `json:"url"`
}

// Image is an artwork variant.
type Image struct {
	Quality string `json:"quality"` // e.g. "50x50", "500x500"
	URL     string `json:"url"`
}

// Track represents a playable catalog item.
// ID is the only equality key; other fields may differ between copies of the same track.
type Track struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Artists  []string       `json:"artists,omitempty"`
	Album    string         `json:"album,omitempty"`
	AlbumID  string         `json:"album_id,omitempty"`
	Artwork  []Image        `json:"artwork,omitempty"`
	Duration time.Duration  `json:"duration"`
	Language string         `json:"language,omitempty"`
	Year     string         `json:"year,omitempty"`
	Explicit bool           `json:"explicit,omitempty"`
	URL      string         `json:"url,omitempty"` // Catalog page URL
	Sources  []StreamSource `json:"sources,omitempty"`
}

// Same reports whether both values refer to the same track.
func (t Track) Same(other Track) bool {
	return t.ID == other.ID
}

// ArtistLine returns the artists joined for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// BestArtwork returns the URL of the largest artwork variant, or "" when none exists.
// Catalogs list variants smallest first.
func (t Track) BestArtwork() string {
	images := lo.Filter(t.Artwork, func(img Image, _ int) bool { return img.URL != "" })
	if len(images) == 0 {
		return ""
	}
	return images[len(images)-1].URL
}

// SelectStream picks the stream source to use for playback or download.
// Preference is 320kbps, then 160kbps, then 96kbps, then the first usable entry,
// independent of the order sources are listed in.
func (t Track) SelectStream() (StreamSource, error) {
	usable := lo.Filter(t.Sources, func(s StreamSource, _ int) bool {
		return strings.TrimSpace(s.URL) != ""
	})
	if len(usable) == 0 {
		return StreamSource{}, errors.Wrapf(ErrNoPlayableSource, "track %s", t.ID)
	}

	for _, q := range preferredQualities {
		if s, ok := lo.Find(usable, func(s StreamSource) bool {
			return strings.EqualFold(string(s.Quality), string(q))
		}); ok {
			return s, nil
		}
	}
	return usable[0], nil
}

// SearchPage is one page of catalog search results.
// An empty Results slice marks the end of the result set.
type SearchPage struct {
	Results []Track `json:"results"`
	Total   int     `json:"total"`
	Start   int     `json:"start"`
}

// IsEnd reports whether the page carries no further results.
func (p SearchPage) IsEnd() bool {
	return len(p.Results) == 0
}

// IndexOf returns the position of the first track with the given ID, or -1.
func IndexOf(tracks []Track, id string) int {
	_, idx, ok := lo.FindIndexOf(tracks, func(t Track) bool { return t.ID == id })
	if !ok {
		return -1
	}
	return idx
}
