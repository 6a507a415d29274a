// Package audio provides the audio engine: it loads one stream at a time, plays it
// through the system speaker and reports playback status on a fixed interval.
package audio

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrAudioUnavailable  = errors.New("audio output not available in this build")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrReleased          = errors.New("resource already released")
)

// Options configures a newly loaded resource.
type Options struct {
	Autoplay   bool // Start playing as soon as the stream is loaded
	Background bool // Keep playing while the host application is in the background
	SilentMode bool // Play even when the device is in silent mode
}

// Status is a snapshot reported by a live resource.
type Status struct {
	Position     time.Duration
	Duration     time.Duration // 0 when unknown
	Playing      bool
	Buffering    bool
	JustFinished bool // The stream reached its end since the previous status
}

// StatusFunc receives status updates for one resource.
type StatusFunc func(Status)

// Resource is a loaded stream. It must be released before another one is loaded.
type Resource interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error
	Release(ctx context.Context) error
}

// Config holds engine configuration.
type Config struct {
	SampleRate     int           // Speaker sample rate
	StatusInterval time.Duration // How often status is reported while loaded
	HTTPClient     *http.Client
}
