package playback

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
	"github.com/osa030/lokal/internal/infra/audio"
)

func newTestController(t *testing.T, cfg Config) (*Controller, *mockEngine, *mockStore) {
	t.Helper()
	engine := &mockEngine{}
	store := &mockStore{}
	c := NewController(engine, store, cfg)
	t.Cleanup(c.Close)
	return c, engine, store
}

func queueABC() []track.Track {
	return []track.Track{testTrack("A"), testTrack("B"), testTrack("C")}
}

func TestController_ReorderThenNextAtEnd(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	c.SetCurrentIndex(0)

	require.NoError(t, c.ReorderQueue(ctx, 0, 2))
	assert.Equal(t, []string{"B", "C", "A"}, queue.TrackIDs(c.GetQueue()))
	assert.Equal(t, 2, c.GetCurrentIndex())

	require.NoError(t, c.PlayNext(ctx))
	assert.Equal(t, 2, c.GetCurrentIndex())
	snap := c.Snapshot()
	require.NotNil(t, snap.CurrentSong)
	assert.Equal(t, "A", snap.CurrentSong.ID)
}

func TestController_PlayWithNothingSelectedIsNoop(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	before := c.GetTransport()
	require.NoError(t, c.Play(ctx))

	assert.Equal(t, before, c.GetTransport())
	assert.Empty(t, engine.resources)
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestController_PlayAdoptsQueueEntry(t *testing.T) {
	ctx := context.Background()
	c, engine, store := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	c.SetCurrentIndex(1)
	require.NoError(t, c.Play(ctx))

	snap := c.Snapshot()
	require.NotNil(t, snap.CurrentSong)
	assert.Equal(t, "B", snap.CurrentSong.ID)
	assert.True(t, snap.Transport.IsPlaying)
	assert.False(t, snap.Transport.IsLoading)
	assert.Equal(t, StatePlaying, snap.State)

	require.Len(t, engine.resources, 1)
	assert.Equal(t, "https://cdn.example/B_320.mp4", engine.resources[0].source)
	require.NotNil(t, store.song)
	assert.Equal(t, "B", store.song.ID)
}

func TestController_PlayResumesExistingResource(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	require.NoError(t, c.PlayTrack(ctx, testTrack("A")))
	require.NoError(t, c.Pause(ctx))
	assert.False(t, c.GetTransport().IsPlaying)
	assert.Equal(t, StatePaused, c.Snapshot().State)

	require.NoError(t, c.Play(ctx))
	assert.True(t, c.GetTransport().IsPlaying)
	require.Len(t, engine.resources, 1)
	assert.Equal(t, 1, engine.resources[0].plays)
	assert.Equal(t, 1, engine.resources[0].pauses)
}

func TestController_PlayNoPlayableSource(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	err := c.PlayTrack(ctx, track.Track{ID: "X"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, track.ErrNoPlayableSource))

	tr := c.GetTransport()
	assert.NotEmpty(t, tr.Error)
	assert.False(t, tr.IsLoading)
	assert.False(t, tr.IsPlaying)
	assert.Empty(t, engine.resources)
}

func TestController_LoadFailureKeepsIsPlaying(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	require.NoError(t, c.PlayIndex(ctx, 0))
	require.True(t, c.GetTransport().IsPlaying)

	engine.loadErr = errors.New("codec failure")
	c.mu.Lock()
	c.currentIndex = 1
	_ = c.stopLocked(ctx)
	c.transport.IsPlaying = true
	c.mu.Unlock()

	err := c.PlayIndex(ctx, 1)
	require.Error(t, err)

	tr := c.GetTransport()
	assert.Contains(t, tr.Error, "codec failure")
	assert.False(t, tr.IsLoading)
	assert.True(t, tr.IsPlaying)
	assert.Empty(t, engine.live())
}

func TestController_ErrorClearedOnRetry(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	engine.loadErr = errors.New("network down")
	require.Error(t, c.PlayTrack(ctx, testTrack("A")))
	assert.NotEmpty(t, c.GetTransport().Error)

	engine.loadErr = nil
	require.NoError(t, c.Play(ctx))
	assert.Empty(t, c.GetTransport().Error)
	assert.True(t, c.GetTransport().IsPlaying)
}

func TestController_AtMostOneResource(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	require.NoError(t, c.PlayIndex(ctx, 0))
	require.NoError(t, c.PlayNext(ctx))
	require.NoError(t, c.PlayTrack(ctx, testTrack("Z")))
	require.NoError(t, c.PlayIndex(ctx, 2))
	require.NoError(t, c.Play(ctx))
	require.NoError(t, c.PlayPrevious(ctx))

	assert.Len(t, engine.live(), 1)
	for _, r := range engine.resources[:len(engine.resources)-1] {
		assert.True(t, r.released)
		assert.Equal(t, 1, r.stops)
	}

	require.NoError(t, c.Stop(ctx))
	assert.Empty(t, engine.live())
	tr := c.GetTransport()
	assert.False(t, tr.IsPlaying)
	assert.Equal(t, time.Duration(0), tr.CurrentTime)
}

func TestController_PlayIndexSameTrackKeepsResource(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	require.NoError(t, c.PlayIndex(ctx, 0))
	require.NoError(t, c.PlayIndex(ctx, 0))

	require.Len(t, engine.resources, 1)
	assert.Equal(t, 1, engine.resources[0].plays)
}

func TestController_StaleStatusIgnored(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	require.NoError(t, c.PlayIndex(ctx, 0))
	require.NoError(t, c.PlayIndex(ctx, 1))

	// Old resource reports after teardown
	engine.callback(0)(audio.Status{Position: 42 * time.Second, Duration: time.Minute, Playing: false})
	tr := c.GetTransport()
	assert.Equal(t, time.Duration(0), tr.CurrentTime)
	assert.True(t, tr.IsPlaying)

	engine.callback(1)(audio.Status{Position: 3 * time.Second, Duration: 3 * time.Minute, Playing: true})
	tr = c.GetTransport()
	assert.Equal(t, 3*time.Second, tr.CurrentTime)
	assert.Equal(t, 3*time.Minute, tr.Duration)

	require.NoError(t, c.Stop(ctx))
	engine.callback(1)(audio.Status{Position: 9 * time.Second, Playing: true})
	assert.Equal(t, time.Duration(0), c.GetTransport().CurrentTime)
	assert.False(t, c.GetTransport().IsPlaying)
}

func TestController_Advance(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		repeat  queue.RepeatMode
		forward bool
		want    int
		newRes  bool
	}{
		{name: "next moves forward", start: 0, repeat: queue.RepeatNone, forward: true, want: 1, newRes: true},
		{name: "previous moves back", start: 2, repeat: queue.RepeatNone, forward: false, want: 1, newRes: true},
		{name: "next wraps with repeat all", start: 2, repeat: queue.RepeatAll, forward: true, want: 0, newRes: true},
		{name: "previous wraps with repeat all", start: 0, repeat: queue.RepeatAll, forward: false, want: 2, newRes: true},
		{name: "next stops at end without repeat", start: 2, repeat: queue.RepeatNone, forward: true, want: 2},
		{name: "previous stops at start without repeat", start: 0, repeat: queue.RepeatNone, forward: false, want: 0},
		{name: "repeat one restarts", start: 1, repeat: queue.RepeatOne, forward: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, engine, _ := newTestController(t, Config{})

			c.SetQueue(ctx, queueABC())
			for c.Snapshot().Repeat != tt.repeat {
				c.ToggleRepeat(ctx)
			}
			require.NoError(t, c.PlayIndex(ctx, tt.start))

			if tt.forward {
				require.NoError(t, c.PlayNext(ctx))
			} else {
				require.NoError(t, c.PlayPrevious(ctx))
			}

			assert.Equal(t, tt.want, c.GetCurrentIndex())
			assert.Equal(t, queueABC()[tt.want].ID, c.Snapshot().CurrentSong.ID)
			if tt.newRes {
				assert.Len(t, engine.resources, 2)
			} else {
				require.Len(t, engine.resources, 1)
				assert.Equal(t, []time.Duration{0}, engine.resources[0].seeks)
			}
			assert.Len(t, engine.live(), 1)
		})
	}
}

func TestController_ShuffleUsesRandomIndex(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, Config{})
	c.intn = func(n int) int { return n - 1 }

	c.SetQueue(ctx, queueABC())
	assert.True(t, c.ToggleShuffle(ctx))
	require.NoError(t, c.PlayIndex(ctx, 0))
	require.NoError(t, c.PlayPrevious(ctx))

	assert.Equal(t, 2, c.GetCurrentIndex())
}

func TestController_NextOnEmptyQueue(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	require.NoError(t, c.PlayNext(ctx))
	require.NoError(t, c.PlayPrevious(ctx))
	assert.Equal(t, queue.NoIndex, c.GetCurrentIndex())
	assert.Empty(t, engine.resources)
}

func TestController_AutoAdvance(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{AutoAdvance: true})

	c.SetQueue(ctx, queueABC())
	require.NoError(t, c.PlayIndex(ctx, 1))

	engine.callback(0)(audio.Status{Position: time.Minute, Duration: time.Minute, JustFinished: true})
	assert.Equal(t, 2, c.GetCurrentIndex())
	assert.True(t, c.GetTransport().IsPlaying)
	assert.Len(t, engine.resources, 2)

	// Last track ends without repeat: playback stops there
	engine.callback(1)(audio.Status{Position: time.Minute, Duration: time.Minute, JustFinished: true})
	assert.Equal(t, 2, c.GetCurrentIndex())
	assert.False(t, c.GetTransport().IsPlaying)
	assert.Len(t, engine.resources, 2)
}

func TestController_AutoAdvanceDisabled(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	require.NoError(t, c.PlayIndex(ctx, 0))
	engine.callback(0)(audio.Status{JustFinished: true})

	assert.Equal(t, 0, c.GetCurrentIndex())
	assert.False(t, c.GetTransport().IsPlaying)
	assert.Len(t, engine.resources, 1)
}

func TestController_SeekTo(t *testing.T) {
	ctx := context.Background()
	c, engine, _ := newTestController(t, Config{})

	// No resource: no-op
	require.NoError(t, c.SeekTo(ctx, 10*time.Second))
	assert.Equal(t, time.Duration(0), c.GetTransport().CurrentTime)

	require.NoError(t, c.PlayTrack(ctx, testTrack("A")))
	require.NoError(t, c.SeekTo(ctx, 12*time.Second))
	assert.Equal(t, 12*time.Second, c.GetTransport().CurrentTime)
	assert.Equal(t, []time.Duration{12 * time.Second}, engine.last().seeks)
}

func TestController_RemoveFromQueue(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	c.SetCurrentIndex(2)

	require.NoError(t, c.RemoveFromQueue(ctx, 0))
	assert.Equal(t, 1, c.GetCurrentIndex())
	assert.Equal(t, []string{"B", "C"}, queue.TrackIDs(store.queue))

	err := c.RemoveFromQueue(ctx, 5)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.Len(t, c.GetQueue(), 2)

	err = c.ReorderQueue(ctx, -1, 0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestController_SelectTrack(t *testing.T) {
	ctx := context.Background()
	c, engine, store := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	require.NoError(t, c.SelectTrack(ctx, 1))

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.CurrentIndex)
	assert.Equal(t, "B", snap.CurrentSong.ID)
	assert.Equal(t, "B", store.song.ID)
	assert.Empty(t, engine.resources)

	assert.Error(t, c.SelectTrack(ctx, 3))
	assert.Equal(t, 1, c.GetCurrentIndex())
}

func TestController_SettersAreDecoupled(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	c.SetCurrentIndex(2)
	song := testTrack("Q")
	c.SetCurrentSong(ctx, &song)

	snap := c.Snapshot()
	assert.Equal(t, 2, snap.CurrentIndex)
	assert.Equal(t, "Q", snap.CurrentSong.ID)
	assert.Equal(t, "Q", store.song.ID)

	c.SetCurrentSong(ctx, nil)
	assert.Nil(t, c.Snapshot().CurrentSong)
	assert.Nil(t, store.song)
	assert.Equal(t, 2, c.GetCurrentIndex())
}

func TestController_TogglesPersist(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t, Config{})

	assert.Equal(t, queue.RepeatAll, c.ToggleRepeat(ctx))
	assert.Equal(t, queue.RepeatAll, store.repeat)
	assert.Equal(t, queue.RepeatOne, c.ToggleRepeat(ctx))
	assert.Equal(t, queue.RepeatNone, c.ToggleRepeat(ctx))
	assert.Equal(t, queue.RepeatNone, store.repeat)

	assert.True(t, c.ToggleShuffle(ctx))
	assert.True(t, store.shuffle)
	assert.False(t, c.ToggleShuffle(ctx))
	assert.False(t, store.shuffle)
}

func TestController_WriteFailuresDoNotAbort(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t, Config{})
	store.writeErr = errors.New("disk full")

	c.SetQueue(ctx, queueABC())
	c.AddToQueue(ctx, testTrack("D"))
	assert.Len(t, c.GetQueue(), 4)
	assert.Equal(t, 2, store.queueWrites)
	assert.Equal(t, queue.RepeatAll, c.ToggleRepeat(ctx))
}

func TestController_Initialize(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t, Config{})

	song := testTrack("B")
	store.queue = queueABC()
	store.song = &song
	store.repeat = queue.RepeatOne
	store.shuffle = true

	c.Initialize(ctx)

	snap := c.Snapshot()
	assert.Equal(t, []string{"A", "B", "C"}, queue.TrackIDs(snap.Queue))
	assert.Equal(t, 1, snap.CurrentIndex)
	assert.Equal(t, "B", snap.CurrentSong.ID)
	assert.Equal(t, queue.RepeatOne, snap.Repeat)
	assert.True(t, snap.Shuffle)
}

func TestController_InitializeSongNotInQueue(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t, Config{})

	song := testTrack("Z")
	store.queue = queueABC()
	store.song = &song

	c.Initialize(ctx)
	assert.Equal(t, queue.NoIndex, c.GetCurrentIndex())
	assert.Equal(t, "Z", c.Snapshot().CurrentSong.ID)
}

func TestController_InitializeMalformed(t *testing.T) {
	ctx := context.Background()
	c, _, store := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	c.SetCurrentIndex(1)
	c.ToggleShuffle(ctx)
	store.readErr = errMalformed

	c.Initialize(ctx)

	snap := c.Snapshot()
	assert.Empty(t, snap.Queue)
	assert.Nil(t, snap.CurrentSong)
	assert.Equal(t, queue.RepeatNone, snap.Repeat)
	assert.False(t, snap.Shuffle)
	assert.Equal(t, 1, snap.CurrentIndex)
}

func TestController_EventsCarrySnapshot(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, Config{})

	c.AddToQueue(ctx, testTrack("A"))

	select {
	case e := <-c.Events():
		assert.Equal(t, EventQueueChanged, e.Type)
		assert.Len(t, e.Snapshot.Queue, 1)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestController_CloseReleasesResource(t *testing.T) {
	ctx := context.Background()
	engine := &mockEngine{}
	c := NewController(engine, &mockStore{}, Config{})

	require.NoError(t, c.PlayTrack(ctx, testTrack("A")))
	c.Close()
	c.Close()

	assert.Empty(t, engine.live())
	for range c.Events() {
	}
}

func TestController_PublishesLoadingState(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t, Config{})

	c.SetQueue(ctx, queueABC())
	require.NoError(t, c.PlayIndex(ctx, 0))

	var states []State
drain:
	for {
		select {
		case e := <-c.Events():
			if e.Type == EventStateChanged {
				states = append(states, e.Snapshot.State)
				if e.Snapshot.State == StateLoading {
					assert.True(t, e.Snapshot.Transport.IsLoading)
					assert.Empty(t, e.Snapshot.Transport.Error)
				}
			}
		default:
			break drain
		}
	}
	assert.Equal(t, []State{StateLoading, StatePlaying}, states)
}

func TestController_SnapshotDuringLoad(t *testing.T) {
	ctx := context.Background()
	engine := newGatedEngine()
	c := NewController(engine, &mockStore{}, Config{})
	t.Cleanup(c.Close)

	c.SetQueue(ctx, queueABC())
	errCh := make(chan error, 1)
	go func() { errCh <- c.PlayIndex(ctx, 0) }()
	<-engine.started

	snapCh := make(chan Snapshot, 1)
	go func() { snapCh <- c.Snapshot() }()
	select {
	case snap := <-snapCh:
		assert.Equal(t, StateLoading, snap.State)
		require.NotNil(t, snap.CurrentSong)
		assert.Equal(t, "A", snap.CurrentSong.ID)
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked while the engine was loading")
	}

	// A second play for the same track waits for the load in flight
	require.NoError(t, c.Play(ctx))

	close(engine.gate)
	require.NoError(t, <-errCh)
	assert.Equal(t, StatePlaying, c.Snapshot().State)
	assert.Len(t, engine.live(), 1)
}

func TestController_StopDuringLoadDiscardsResource(t *testing.T) {
	ctx := context.Background()
	engine := newGatedEngine()
	c := NewController(engine, &mockStore{}, Config{})
	t.Cleanup(c.Close)

	c.SetQueue(ctx, queueABC())
	errCh := make(chan error, 1)
	go func() { errCh <- c.PlayIndex(ctx, 0) }()
	<-engine.started

	require.NoError(t, c.Stop(ctx))
	assert.False(t, c.GetTransport().IsLoading)

	close(engine.gate)
	require.NoError(t, <-errCh)

	require.Len(t, engine.resources, 1)
	assert.True(t, engine.resources[0].released)
	assert.Empty(t, engine.live())
	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.Transport.IsPlaying)
	assert.Empty(t, snap.Transport.Error)
}
