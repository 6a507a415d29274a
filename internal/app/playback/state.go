// Package playback provides the queue and playback controller: it owns the queue,
// the current track, repeat and shuffle modes, and the single live audio resource.
package playback

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
)

// State represents the playback state derived from the transport flags.
type State int

const (
	StateIdle    State = iota // No resource loaded
	StateLoading              // Resource creation or buffering in flight
	StatePlaying              // Resource is playing
	StatePaused               // Resource is loaded but not playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TransportState is the observable playback progress.
type TransportState struct {
	IsPlaying   bool          `json:"is_playing"`
	CurrentTime time.Duration `json:"current_time"`
	Duration    time.Duration `json:"duration"` // 0 when unknown
	IsLoading   bool          `json:"is_loading"`
	Error       string        `json:"error,omitempty"`
}

// Snapshot is a copy of the controller state safe to hand to other goroutines.
type Snapshot struct {
	Queue        []track.Track    `json:"queue"`
	CurrentIndex int              `json:"current_index"`
	CurrentSong  *track.Track     `json:"current_song,omitempty"`
	Repeat       queue.RepeatMode `json:"repeat"`
	Shuffle      bool             `json:"shuffle"`
	Transport    TransportState   `json:"transport"`
	State        State            `json:"state"`
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "loading":
		*s = StateLoading
	case "playing":
		*s = StatePlaying
	case "paused":
		*s = StatePaused
	default:
		return errors.Newf("unknown playback state %q", string(text))
	}
	return nil
}
