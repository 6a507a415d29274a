package saavn

import (
	"bytes"
	"encoding/json"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/osa030/lokal/internal/domain/track"
)

// song is the catalog's song record. Several fields come in more than one shape.
type song struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Album           album        `json:"album"`
	Year            string       `json:"year"`
	Duration        flexSeconds  `json:"duration"`
	PrimaryArtists  string       `json:"primaryArtists"`
	ExplicitContent flexBool     `json:"explicitContent"`
	Language        string       `json:"language"`
	URL             string       `json:"url"`
	Image           []linkEntry  `json:"image"`
	DownloadURL     []linkEntry  `json:"downloadUrl"`
	Artists         *artistGroup `json:"artists"`
}

type album struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type artistGroup struct {
	Primary []artistRef `json:"primary"`
}

type artistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// linkEntry carries its address in either "link" or "url".
type linkEntry struct {
	Quality string `json:"quality"`
	Link    string `json:"link"`
	URL     string `json:"url"`
}

func (l linkEntry) address() string {
	if l.Link != "" {
		return l.Link
	}
	return l.URL
}

// flexSeconds decodes a duration in seconds given as a number or a numeric string.
type flexSeconds float64

func (f *flexSeconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexSeconds(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexSeconds(v)
	return nil
}

// flexBool decodes a boolean given as true/false or 0/1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "true", "1":
		*b = true
	default:
		*b = false
	}
	return nil
}

func (s song) artists() []string {
	if s.Artists != nil && len(s.Artists.Primary) > 0 {
		return lo.FilterMap(s.Artists.Primary, func(a artistRef, _ int) (string, bool) {
			name := html.UnescapeString(strings.TrimSpace(a.Name))
			return name, name != ""
		})
	}
	if s.PrimaryArtists == "" {
		return nil
	}
	return lo.FilterMap(strings.Split(s.PrimaryArtists, ","), func(name string, _ int) (string, bool) {
		name = html.UnescapeString(strings.TrimSpace(name))
		return name, name != ""
	})
}

// toTrack normalizes the record into a track.Track.
func (s song) toTrack() track.Track {
	return track.Track{
		ID:       s.ID,
		Name:     html.UnescapeString(s.Name),
		Artists:  s.artists(),
		Album:    html.UnescapeString(s.Album.Name),
		AlbumID:  s.Album.ID,
		Duration: time.Duration(float64(s.Duration) * float64(time.Second)),
		Language: s.Language,
		Year:     s.Year,
		Explicit: bool(s.ExplicitContent),
		URL:      s.URL,
		Artwork: lo.Map(s.Image, func(e linkEntry, _ int) track.Image {
			return track.Image{Quality: e.Quality, URL: e.address()}
		}),
		Sources: lo.Map(s.DownloadURL, func(e linkEntry, _ int) track.StreamSource {
			return track.StreamSource{Quality: track.Quality(e.Quality), URL: e.address()}
		}),
	}
}
