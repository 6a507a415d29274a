//go:build !linux || cgo

package audio

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Available indicates whether audio output is supported in this build.
const Available = true

// output owns the process-wide speaker.
type output struct {
	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
}

func newOutput(sampleRate int) *output {
	return &output{sampleRate: beep.SampleRate(sampleRate)}
}

func (o *output) init() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return nil
	}
	if err := speaker.Init(o.sampleRate, o.sampleRate.N(time.Second/10)); err != nil {
		return errors.Wrap(err, "failed to initialize speaker")
	}
	o.initialized = true
	return nil
}

func (o *output) start(streamer beep.StreamSeekCloser, format beep.Format, opts Options, onStatus StatusFunc, interval time.Duration) (Resource, error) {
	if err := o.init(); err != nil {
		streamer.Close()
		return nil, err
	}

	r := &resource{
		streamer: streamer,
		format:   format,
	}
	r.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(4, format.SampleRate, o.sampleRate, streamer),
		Paused:   !opts.Autoplay,
	}
	r.reporter = newReporter(interval, r.status, r.finish, onStatus)

	speaker.Play(r.sequence())
	go r.reporter.run()

	return r, nil
}

// resource is one decoded stream queued on the speaker.
// Lock order: r.mu before speaker.Lock.
type resource struct {
	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	finished bool
	released bool
	reporter *reporter
}

// sequence wraps the stream so the end is observed. The callback runs on the
// speaker goroutine with the speaker lock held, so it must not block.
func (r *resource) sequence() beep.Streamer {
	return beep.Seq(r.ctrl, beep.Callback(r.reporter.notifyEnd))
}

func (r *resource) finish() (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released || r.finished {
		return Status{}, false
	}
	r.finished = true
	return r.statusLocked(), true
}

func (r *resource) status() (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return Status{}, false
	}
	return r.statusLocked(), true
}

func (r *resource) Play(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}

	if r.finished {
		speaker.Lock()
		if r.streamer.Position() >= r.streamer.Len() {
			if err := r.streamer.Seek(0); err != nil {
				speaker.Unlock()
				return errors.Wrap(err, "failed to rewind stream")
			}
		}
		r.ctrl.Paused = false
		speaker.Unlock()
		r.finished = false
		speaker.Play(r.sequence())
		return nil
	}

	speaker.Lock()
	r.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (r *resource) Pause(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	speaker.Lock()
	r.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

func (r *resource) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	speaker.Lock()
	defer speaker.Unlock()
	r.ctrl.Paused = true
	if err := r.streamer.Seek(0); err != nil {
		return errors.Wrap(err, "failed to rewind stream")
	}
	return nil
}

func (r *resource) Seek(ctx context.Context, position time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := r.format.SampleRate.N(position)
	if samples < 0 {
		samples = 0
	}
	if n := r.streamer.Len(); samples >= n && n > 0 {
		samples = n - 1
	}
	if err := r.streamer.Seek(samples); err != nil {
		return errors.Wrap(err, "failed to seek stream")
	}
	return nil
}

// Release detaches the stream from the speaker and stops status reporting.
// It does not wait for an in-flight status callback.
func (r *resource) Release(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil
	}
	r.released = true
	r.reporter.stop()

	speaker.Lock()
	r.ctrl.Streamer = nil
	speaker.Unlock()

	return r.streamer.Close()
}

// statusLocked must be called with r.mu held.
func (r *resource) statusLocked() Status {
	speaker.Lock()
	defer speaker.Unlock()

	return Status{
		Position: r.format.SampleRate.D(r.streamer.Position()),
		Duration: r.format.SampleRate.D(r.streamer.Len()),
		Playing:  !r.ctrl.Paused && !r.finished,
	}
}
