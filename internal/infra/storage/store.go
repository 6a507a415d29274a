package storage

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
)

// Keys under which playback state is persisted.
const (
	KeyQueue       = "music_queue"
	KeyCurrentSong = "current_song"
	KeyRepeatMode  = "repeat_mode"
	KeyShuffleMode = "shuffle_mode"
)

// Store persists playback state on top of a KV backend.
// Tracks are stored as JSON, the repeat mode as its name and shuffle as a boolean literal.
type Store struct {
	kv KV
}

// NewStore creates a Store backed by kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// SaveQueue stores the queue.
func (s *Store) SaveQueue(ctx context.Context, tracks []track.Track) error {
	if tracks == nil {
		tracks = []track.Track{}
	}
	raw, err := json.Marshal(tracks)
	if err != nil {
		return errors.Wrap(err, "failed to encode queue")
	}
	return s.kv.Set(ctx, KeyQueue, raw)
}

// Queue returns the stored queue, or an empty queue if none was saved.
func (s *Store) Queue(ctx context.Context) ([]track.Track, error) {
	raw, err := s.kv.Get(ctx, KeyQueue)
	if errors.Is(err, ErrNotFound) {
		return []track.Track{}, nil
	}
	if err != nil {
		return nil, err
	}

	var tracks []track.Track
	if err := json.Unmarshal(raw, &tracks); err != nil {
		return nil, errors.Wrap(err, "failed to decode queue")
	}
	if tracks == nil {
		tracks = []track.Track{}
	}
	return tracks, nil
}

// SaveCurrentSong stores t. A nil track deletes the key.
func (s *Store) SaveCurrentSong(ctx context.Context, t *track.Track) error {
	if t == nil {
		return s.kv.Delete(ctx, KeyCurrentSong)
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "failed to encode current song")
	}
	return s.kv.Set(ctx, KeyCurrentSong, raw)
}

// CurrentSong returns the stored song, or nil if none was saved.
func (s *Store) CurrentSong(ctx context.Context) (*track.Track, error) {
	raw, err := s.kv.Get(ctx, KeyCurrentSong)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var t track.Track
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, errors.Wrap(err, "failed to decode current song")
	}
	return &t, nil
}

// SaveRepeatMode stores the repeat mode.
func (s *Store) SaveRepeatMode(ctx context.Context, mode queue.RepeatMode) error {
	return s.kv.Set(ctx, KeyRepeatMode, []byte(mode.String()))
}

// RepeatMode returns the stored repeat mode, defaulting to none.
func (s *Store) RepeatMode(ctx context.Context) (queue.RepeatMode, error) {
	raw, err := s.kv.Get(ctx, KeyRepeatMode)
	if errors.Is(err, ErrNotFound) || (err == nil && len(raw) == 0) {
		return queue.RepeatNone, nil
	}
	if err != nil {
		return queue.RepeatNone, err
	}
	return queue.ParseRepeatMode(string(raw))
}

// SaveShuffleMode stores the shuffle flag.
func (s *Store) SaveShuffleMode(ctx context.Context, enabled bool) error {
	return s.kv.Set(ctx, KeyShuffleMode, []byte(strconv.FormatBool(enabled)))
}

// ShuffleMode returns the stored shuffle flag, defaulting to false.
func (s *Store) ShuffleMode(ctx context.Context) (bool, error) {
	raw, err := s.kv.Get(ctx, KeyShuffleMode)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	enabled, err := strconv.ParseBool(string(raw))
	if err != nil {
		return false, errors.Wrap(err, "failed to decode shuffle mode")
	}
	return enabled, nil
}
