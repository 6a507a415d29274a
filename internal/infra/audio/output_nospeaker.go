//go:build linux && !cgo

package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// Available indicates whether audio output is supported in this build.
// The Linux speaker backend needs cgo for ALSA.
const Available = false

// output is a placeholder for builds without a speaker backend.
type output struct{}

func newOutput(int) *output {
	return &output{}
}

func (o *output) start(streamer beep.StreamSeekCloser, _ beep.Format, _ Options, _ StatusFunc, _ time.Duration) (Resource, error) {
	streamer.Close()
	return nil, ErrAudioUnavailable
}
