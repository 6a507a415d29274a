package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
	"github.com/osa030/lokal/internal/infra/audio"
)

// The helpers below must be called with c.mu held.

// playLocked starts or resumes the current song.
func (c *Controller) playLocked(ctx context.Context) error {
	if c.currentSong == nil {
		if c.currentIndex < 0 || c.currentIndex >= len(c.queue) {
			return nil
		}
		adopted := c.queue[c.currentIndex]
		c.setCurrentSongLocked(ctx, &adopted)
	}
	if c.resource == nil && c.cancelLoad != nil {
		// A load for the current song is already in flight.
		return nil
	}

	c.transport.IsLoading = true
	c.transport.Error = ""
	c.sendEventLocked(EventStateChanged)

	if c.resource != nil {
		if err := c.resource.Play(ctx); err != nil {
			return c.failLocked(errors.Wrap(err, "failed to resume"))
		}
	} else {
		err := c.loadLocked(ctx, *c.currentSong)
		if errors.Is(err, errLoadSuperseded) {
			return nil
		}
		if err != nil {
			return c.failLocked(err)
		}
	}

	c.transport.IsPlaying = true
	c.transport.IsLoading = false
	c.sendEventLocked(EventStateChanged)
	return nil
}

// errLoadSuperseded reports that another intent replaced a load while it was in flight.
var errLoadSuperseded = errors.New("load superseded")

// loadLocked creates the audio resource for t. The caller guarantees no resource is live.
// c.mu is released while the engine loads, so other operations and status reports
// proceed. A load whose generation moved in the meantime is released and reported
// as errLoadSuperseded.
func (c *Controller) loadLocked(ctx context.Context, t track.Track) error {
	source, err := t.SelectStream()
	if err != nil {
		return err
	}

	c.generation++
	gen := c.generation
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancelLoad = cancel
	opts := audio.Options{Autoplay: true, Background: true, SilentMode: true}

	c.mu.Unlock()
	res, err := c.engine.Load(loadCtx, source.URL, opts, func(st audio.Status) {
		c.handleStatus(gen, st)
	})
	c.mu.Lock()
	cancel()

	if gen != c.generation || c.resource != nil || c.closed {
		if res != nil {
			if rerr := errors.CombineErrors(res.Stop(ctx), res.Release(ctx)); rerr != nil {
				zlog.Warn().Msgf("playback: failed to release superseded resource: %v", rerr)
			}
		}
		zlog.Debug().Msgf("playback: load superseded: id=%s generation=%d current=%d", t.ID, gen, c.generation)
		return errLoadSuperseded
	}
	c.cancelLoad = nil
	if err != nil {
		return errors.Wrapf(err, "failed to load track %s", t.ID)
	}

	c.resource = res
	zlog.Info().Msgf("playback: loaded: id=%s name=%s quality=%s", t.ID, t.Name, source.Quality)
	return nil
}

// stopLocked tears down the live resource. It is a no-op without one.
func (c *Controller) stopLocked(ctx context.Context) error {
	if c.resource == nil {
		if c.cancelLoad != nil {
			c.abortLoadLocked()
			c.sendEventLocked(EventStateChanged)
		}
		return nil
	}

	res := c.resource
	c.resource = nil
	c.generation++
	c.transport.IsPlaying = false
	c.transport.CurrentTime = 0

	err := errors.CombineErrors(res.Stop(ctx), res.Release(ctx))
	if err != nil {
		zlog.Warn().Msgf("playback: teardown reported an error: %v", err)
	}
	c.sendEventLocked(EventStateChanged)
	return err
}

// abortLoadLocked cancels an in-flight load. The load notices the generation
// change when it returns and releases whatever it created.
func (c *Controller) abortLoadLocked() {
	c.cancelLoad()
	c.cancelLoad = nil
	c.generation++
	c.transport.IsLoading = false
}

// switchLocked tears down the previous resource before a different track is selected.
// Teardown errors do not block the switch.
func (c *Controller) switchLocked(ctx context.Context, next track.Track) {
	if c.currentSong != nil && c.currentSong.Same(next) {
		return
	}
	_ = c.stopLocked(ctx)
}

func (c *Controller) seekLocked(ctx context.Context, position time.Duration) error {
	if c.resource == nil {
		return nil
	}
	if position < 0 {
		position = 0
	}
	if err := c.resource.Seek(ctx, position); err != nil {
		return c.failLocked(errors.Wrap(err, "failed to seek"))
	}
	c.transport.CurrentTime = position
	c.sendEventLocked(EventProgress)
	return nil
}

// skipLocked moves to the track chosen by the advance rules. When the target is
// the current index the current track restarts instead.
func (c *Controller) skipLocked(ctx context.Context, dir queue.Direction) error {
	if len(c.queue) == 0 {
		return nil
	}

	target := queue.Advance(dir, c.currentIndex, len(c.queue), c.repeat, c.shuffle, c.intn)
	if target == c.currentIndex {
		if err := c.seekLocked(ctx, 0); err != nil {
			return err
		}
		return c.playLocked(ctx)
	}

	_ = c.stopLocked(ctx)
	if err := c.selectLocked(ctx, target); err != nil {
		return err
	}
	return c.playLocked(ctx)
}

func (c *Controller) selectLocked(ctx context.Context, index int) error {
	if index < 0 || index >= len(c.queue) {
		return errors.Wrapf(ErrIndexOutOfRange, "select %d in queue of %d", index, len(c.queue))
	}
	c.currentIndex = index
	selected := c.queue[index]
	c.setCurrentSongLocked(ctx, &selected)
	return nil
}

func (c *Controller) setCurrentSongLocked(ctx context.Context, t *track.Track) {
	if t == nil {
		c.currentSong = nil
	} else {
		song := *t
		c.currentSong = &song
	}
	if err := c.store.SaveCurrentSong(ctx, c.currentSong); err != nil {
		zlog.Warn().Msgf("playback: failed to save current song: %v", err)
	}
	c.sendEventLocked(EventTrackChanged)
}

func (c *Controller) persistQueueLocked(ctx context.Context) {
	if err := c.store.SaveQueue(ctx, c.queue); err != nil {
		zlog.Warn().Msgf("playback: failed to save queue: %v", err)
	}
}

// failLocked records err in the transport state and returns it.
func (c *Controller) failLocked(err error) error {
	c.transport.Error = err.Error()
	c.transport.IsLoading = false
	zlog.Error().Msgf("playback: %v", err)
	c.sendEventLocked(EventError)
	return err
}

// handleStatus applies an engine status report. Reports from a resource that has
// since been torn down are dropped.
func (c *Controller) handleStatus(gen uint64, st audio.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resource == nil || gen != c.generation {
		zlog.Debug().Msgf("playback: dropped stale status: generation=%d current=%d", gen, c.generation)
		return
	}

	c.transport.CurrentTime = st.Position
	c.transport.Duration = st.Duration
	c.transport.IsPlaying = st.Playing
	c.transport.IsLoading = st.Buffering

	if !st.JustFinished {
		c.sendEventLocked(EventProgress)
		return
	}

	c.transport.IsPlaying = false
	c.sendEventLocked(EventStateChanged)
	if c.config.AutoAdvance {
		c.autoAdvanceLocked()
	}
}

// autoAdvanceLocked continues with the next track after the current one ends.
// Without repeat or shuffle, playback ends after the last queued track.
func (c *Controller) autoAdvanceLocked() {
	if c.repeat == queue.RepeatNone && !c.shuffle &&
		(c.currentIndex < 0 || c.currentIndex >= len(c.queue)-1) {
		zlog.Info().Msg("playback: reached end of queue")
		return
	}
	if err := c.skipLocked(c.ctx, queue.Forward); err != nil {
		zlog.Warn().Msgf("playback: auto-advance failed: %v", err)
	}
}

func (c *Controller) stateLocked() State {
	switch {
	case c.transport.IsLoading:
		return StateLoading
	case c.resource == nil:
		return StateIdle
	case c.transport.IsPlaying:
		return StatePlaying
	default:
		return StatePaused
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	var song *track.Track
	if c.currentSong != nil {
		s := *c.currentSong
		song = &s
	}
	return Snapshot{
		Queue:        queue.Clone(c.queue),
		CurrentIndex: c.currentIndex,
		CurrentSong:  song,
		Repeat:       c.repeat,
		Shuffle:      c.shuffle,
		Transport:    c.transport,
		State:        c.stateLocked(),
	}
}

// sendEventLocked publishes an event without blocking. Events are dropped when
// the channel is full or closed.
func (c *Controller) sendEventLocked(t EventType) {
	if c.closed {
		return
	}
	e := Event{Type: t, Snapshot: c.snapshotLocked()}
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
		zlog.Debug().Msgf("playback: event channel full, dropped %s", t)
	}
}
