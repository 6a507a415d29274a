package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
	"github.com/osa030/lokal/internal/infra/audio"
)

// Mock audio resource for testing
type mockResource struct {
	source   string
	plays    int
	pauses   int
	stops    int
	seeks    []time.Duration
	released bool
	playErr  error
}

func (r *mockResource) Play(ctx context.Context) error {
	r.plays++
	return r.playErr
}

func (r *mockResource) Pause(ctx context.Context) error {
	r.pauses++
	return nil
}

func (r *mockResource) Stop(ctx context.Context) error {
	r.stops++
	return nil
}

func (r *mockResource) Seek(ctx context.Context, position time.Duration) error {
	r.seeks = append(r.seeks, position)
	return nil
}

func (r *mockResource) Release(ctx context.Context) error {
	r.released = true
	return nil
}

// Mock audio engine for testing
type mockEngine struct {
	mu        sync.Mutex
	resources []*mockResource
	callbacks []audio.StatusFunc
	loadErr   error

	// When gate is set, Load signals started and waits for gate to close.
	started chan struct{}
	gate    chan struct{}
}

func (e *mockEngine) Load(ctx context.Context, source string, opts audio.Options, onStatus audio.StatusFunc) (audio.Resource, error) {
	if e.gate != nil {
		e.started <- struct{}{}
		<-e.gate
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loadErr != nil {
		return nil, e.loadErr
	}
	r := &mockResource{source: source}
	e.resources = append(e.resources, r)
	e.callbacks = append(e.callbacks, onStatus)
	return r, nil
}

func newGatedEngine() *mockEngine {
	return &mockEngine{started: make(chan struct{}, 1), gate: make(chan struct{})}
}

func (e *mockEngine) live() []*mockResource {
	e.mu.Lock()
	defer e.mu.Unlock()

	var live []*mockResource
	for _, r := range e.resources {
		if !r.released {
			live = append(live, r)
		}
	}
	return live
}

func (e *mockEngine) last() *mockResource {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.resources) == 0 {
		return nil
	}
	return e.resources[len(e.resources)-1]
}

func (e *mockEngine) callback(i int) audio.StatusFunc {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callbacks[i]
}

// Mock store for testing
type mockStore struct {
	queue   []track.Track
	song    *track.Track
	repeat  queue.RepeatMode
	shuffle bool

	readErr  error
	writeErr error

	queueWrites int
	songWrites  int
}

func (s *mockStore) SaveQueue(ctx context.Context, tracks []track.Track) error {
	s.queueWrites++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.queue = queue.Clone(tracks)
	return nil
}

func (s *mockStore) Queue(ctx context.Context) ([]track.Track, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return queue.Clone(s.queue), nil
}

func (s *mockStore) SaveCurrentSong(ctx context.Context, t *track.Track) error {
	s.songWrites++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.song = t
	return nil
}

func (s *mockStore) CurrentSong(ctx context.Context) (*track.Track, error) {
	return s.song, nil
}

func (s *mockStore) SaveRepeatMode(ctx context.Context, mode queue.RepeatMode) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.repeat = mode
	return nil
}

func (s *mockStore) RepeatMode(ctx context.Context) (queue.RepeatMode, error) {
	return s.repeat, nil
}

func (s *mockStore) SaveShuffleMode(ctx context.Context, enabled bool) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.shuffle = enabled
	return nil
}

func (s *mockStore) ShuffleMode(ctx context.Context) (bool, error) {
	return s.shuffle, nil
}

var errMalformed = errors.New("malformed record")

func testTrack(id string) track.Track {
	return track.Track{
		ID:   id,
		Name: "Song " + id,
		Sources: []track.StreamSource{
			{Quality: track.Quality96, URL: "https://cdn.example/" + id + "_96.mp4"},
			{Quality: track.Quality320, URL: "https://cdn.example/" + id + "_320.mp4"},
		},
	}
}
