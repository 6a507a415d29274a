package playback

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
	"github.com/osa030/lokal/internal/infra/audio"
)

// ErrIndexOutOfRange is returned by queue mutations given an invalid position.
var ErrIndexOutOfRange = queue.ErrIndexOutOfRange

// Engine creates audio resources.
type Engine interface {
	Load(ctx context.Context, source string, opts audio.Options, onStatus audio.StatusFunc) (audio.Resource, error)
}

// Store persists the resumable parts of the controller state.
type Store interface {
	SaveQueue(ctx context.Context, tracks []track.Track) error
	Queue(ctx context.Context) ([]track.Track, error)
	SaveCurrentSong(ctx context.Context, t *track.Track) error
	CurrentSong(ctx context.Context) (*track.Track, error)
	SaveRepeatMode(ctx context.Context, mode queue.RepeatMode) error
	RepeatMode(ctx context.Context) (queue.RepeatMode, error)
	SaveShuffleMode(ctx context.Context, enabled bool) error
	ShuffleMode(ctx context.Context) (bool, error)
}

// Config holds controller configuration.
type Config struct {
	AutoAdvance bool // Move on when the engine reports the end of a track
	EventBuffer int  // Capacity of the event channel
}

// Controller manages the queue, the current track and the audio resource.
type Controller struct {
	mu sync.RWMutex

	// Queue management
	queue        []track.Track
	currentIndex int
	currentSong  *track.Track
	repeat       queue.RepeatMode
	shuffle      bool

	// Transport
	transport  TransportState
	resource   audio.Resource
	generation uint64             // Incremented per resource; stale status callbacks carry an older value
	cancelLoad context.CancelFunc // Set while engine.Load runs without c.mu

	// Collaborators
	engine Engine
	store  Store
	intn   func(int) int

	// Configuration
	config Config

	// Events
	eventCh chan Event
	closed  bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new playback controller.
func NewController(engine Engine, store Store, config Config) *Controller {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		queue:        make([]track.Track, 0),
		currentIndex: queue.NoIndex,
		repeat:       queue.RepeatNone,
		engine:       engine,
		store:        store,
		intn:         rand.Intn,
		config:       config,
		eventCh:      make(chan Event, config.EventBuffer),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Initialize hydrates the queue, current song and modes from the store.
// Any read failure resets all four to their defaults; the current index is only
// changed when the saved song is found in the saved queue.
func (c *Controller) Initialize(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	savedQueue, savedSong, repeat, shuffle, err := c.hydrate(ctx)
	if err != nil {
		zlog.Warn().Msgf("playback: failed to restore saved state, using defaults: %v", err)
		c.queue = make([]track.Track, 0)
		c.currentSong = nil
		c.repeat = queue.RepeatNone
		c.shuffle = false
		c.sendEventLocked(EventQueueChanged)
		return
	}

	c.queue = savedQueue
	c.currentSong = savedSong
	c.repeat = repeat
	c.shuffle = shuffle

	if savedSong != nil && len(savedQueue) > 0 {
		if idx := track.IndexOf(savedQueue, savedSong.ID); idx != -1 {
			c.currentIndex = idx
		}
	}

	zlog.Info().Msgf("playback: restored state: queue=%d current_index=%d repeat=%s shuffle=%v",
		len(c.queue), c.currentIndex, c.repeat, c.shuffle)
	c.sendEventLocked(EventQueueChanged)
}

func (c *Controller) hydrate(ctx context.Context) ([]track.Track, *track.Track, queue.RepeatMode, bool, error) {
	savedQueue, err := c.store.Queue(ctx)
	if err != nil {
		return nil, nil, queue.RepeatNone, false, errors.Wrap(err, "failed to read queue")
	}
	savedSong, err := c.store.CurrentSong(ctx)
	if err != nil {
		return nil, nil, queue.RepeatNone, false, errors.Wrap(err, "failed to read current song")
	}
	repeat, err := c.store.RepeatMode(ctx)
	if err != nil {
		return nil, nil, queue.RepeatNone, false, errors.Wrap(err, "failed to read repeat mode")
	}
	shuffle, err := c.store.ShuffleMode(ctx)
	if err != nil {
		return nil, nil, queue.RepeatNone, false, errors.Wrap(err, "failed to read shuffle mode")
	}
	if savedQueue == nil {
		savedQueue = make([]track.Track, 0)
	}
	return savedQueue, savedSong, repeat, shuffle, nil
}

// SetQueue replaces the queue. The current index is left as is.
func (c *Controller) SetQueue(ctx context.Context, tracks []track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = queue.Clone(tracks)
	c.persistQueueLocked(ctx)
	c.sendEventLocked(EventQueueChanged)
}

// AddToQueue appends a track to the end of the queue.
func (c *Controller) AddToQueue(ctx context.Context, t track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = append(c.queue, t)
	c.persistQueueLocked(ctx)
	c.sendEventLocked(EventQueueChanged)
}

// RemoveFromQueue removes the track at index, keeping the current index on the
// same logical track where possible.
func (c *Controller) RemoveFromQueue(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tracks, current, err := queue.Remove(c.queue, index, c.currentIndex)
	if err != nil {
		return err
	}
	c.queue = tracks
	c.currentIndex = current
	c.persistQueueLocked(ctx)
	c.sendEventLocked(EventQueueChanged)
	return nil
}

// ReorderQueue moves the track at fromIndex to toIndex.
func (c *Controller) ReorderQueue(ctx context.Context, fromIndex, toIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tracks, current, err := queue.Move(c.queue, fromIndex, toIndex, c.currentIndex)
	if err != nil {
		return err
	}
	c.queue = tracks
	c.currentIndex = current
	c.persistQueueLocked(ctx)
	c.sendEventLocked(EventQueueChanged)
	return nil
}

// SetCurrentIndex sets the current index without touching the current song.
func (c *Controller) SetCurrentIndex(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentIndex = index
	c.sendEventLocked(EventQueueChanged)
}

// SetCurrentSong sets the current song without touching the current index.
// A nil track clears it.
func (c *Controller) SetCurrentSong(ctx context.Context, t *track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setCurrentSongLocked(ctx, t)
}

// SelectTrack points both the current index and the current song at the queue
// entry at index.
func (c *Controller) SelectTrack(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selectLocked(ctx, index)
}

// PlayIndex selects the queue entry at index and plays it, tearing down the
// previous resource when the selection changes track.
func (c *Controller) PlayIndex(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.queue) {
		return errors.Wrapf(ErrIndexOutOfRange, "play %d in queue of %d", index, len(c.queue))
	}
	c.switchLocked(ctx, c.queue[index])
	if err := c.selectLocked(ctx, index); err != nil {
		return err
	}
	return c.playLocked(ctx)
}

// PlayTrack plays t as the current song, e.g. straight from search results.
// The current index follows t when it is already queued, otherwise it is cleared.
func (c *Controller) PlayTrack(ctx context.Context, t track.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.switchLocked(ctx, t)
	c.currentIndex = track.IndexOf(c.queue, t.ID)
	c.setCurrentSongLocked(ctx, &t)
	c.sendEventLocked(EventQueueChanged)
	return c.playLocked(ctx)
}

// Play starts or resumes playback of the current song.
// Without a current song it adopts the queue entry at the current index; with
// neither it does nothing.
func (c *Controller) Play(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.playLocked(ctx)
}

// Pause pauses the live resource, if any.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resource == nil {
		return nil
	}
	if err := c.resource.Pause(ctx); err != nil {
		return c.failLocked(errors.Wrap(err, "failed to pause"))
	}
	c.transport.IsPlaying = false
	c.sendEventLocked(EventStateChanged)
	return nil
}

// Stop stops and releases the live resource, if any.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopLocked(ctx)
}

// SeekTo moves the live resource to position, if any.
func (c *Controller) SeekTo(ctx context.Context, position time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.seekLocked(ctx, position)
}

// PlayNext moves to the next track according to the repeat and shuffle modes.
func (c *Controller) PlayNext(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.skipLocked(ctx, queue.Forward)
}

// PlayPrevious moves to the previous track according to the repeat and shuffle modes.
func (c *Controller) PlayPrevious(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.skipLocked(ctx, queue.Backward)
}

// ToggleRepeat cycles the repeat mode none -> all -> one -> none and returns the new mode.
func (c *Controller) ToggleRepeat(ctx context.Context) queue.RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repeat = c.repeat.Next()
	if err := c.store.SaveRepeatMode(ctx, c.repeat); err != nil {
		zlog.Warn().Msgf("playback: failed to save repeat mode: %v", err)
	}
	c.sendEventLocked(EventModeChanged)
	return c.repeat
}

// ToggleShuffle flips shuffle mode and returns the new value.
func (c *Controller) ToggleShuffle(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuffle = !c.shuffle
	if err := c.store.SaveShuffleMode(ctx, c.shuffle); err != nil {
		zlog.Warn().Msgf("playback: failed to save shuffle mode: %v", err)
	}
	c.sendEventLocked(EventModeChanged)
	return c.shuffle
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// GetQueue returns a copy of the queue.
func (c *Controller) GetQueue() []track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return queue.Clone(c.queue)
}

// GetCurrentIndex returns the current index, or -1.
func (c *Controller) GetCurrentIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentIndex
}

// GetTransport returns the transport state.
func (c *Controller) GetTransport() TransportState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport
}

// Close releases the live resource and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	_ = c.stopLocked(context.Background())
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
}
