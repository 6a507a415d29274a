package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
)

func TestStore_Defaults(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryKV())

	q, err := s.Queue(ctx)
	require.NoError(t, err)
	assert.NotNil(t, q)
	assert.Empty(t, q)

	song, err := s.CurrentSong(ctx)
	require.NoError(t, err)
	assert.Nil(t, song)

	mode, err := s.RepeatMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.RepeatNone, mode)

	shuffle, err := s.ShuffleMode(ctx)
	require.NoError(t, err)
	assert.False(t, shuffle)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewStore(kv)

	tracks := []track.Track{
		{
			ID:       "abc",
			Name:     "Kesariya",
			Artists:  []string{"Arijit Singh"},
			Duration: 268 * time.Second,
			Sources:  []track.StreamSource{{Quality: track.Quality320, URL: "https://cdn.example/abc.mp4"}},
		},
		{ID: "def", Name: "Apna Bana Le"},
	}
	require.NoError(t, s.SaveQueue(ctx, tracks))
	require.NoError(t, s.SaveCurrentSong(ctx, &tracks[0]))
	require.NoError(t, s.SaveRepeatMode(ctx, queue.RepeatOne))
	require.NoError(t, s.SaveShuffleMode(ctx, true))

	q, err := s.Queue(ctx)
	require.NoError(t, err)
	assert.Equal(t, tracks, q)

	song, err := s.CurrentSong(ctx)
	require.NoError(t, err)
	assert.Equal(t, &tracks[0], song)

	raw, err := kv.Get(ctx, KeyRepeatMode)
	require.NoError(t, err)
	assert.Equal(t, "one", string(raw))
	mode, err := s.RepeatMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.RepeatOne, mode)

	shuffle, err := s.ShuffleMode(ctx)
	require.NoError(t, err)
	assert.True(t, shuffle)

	require.NoError(t, s.SaveCurrentSong(ctx, nil))
	song, err = s.CurrentSong(ctx)
	require.NoError(t, err)
	assert.Nil(t, song)
}

func TestStore_MalformedRecords(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := NewStore(kv)

	require.NoError(t, kv.Set(ctx, KeyQueue, []byte(`{"id":`)))
	require.NoError(t, kv.Set(ctx, KeyCurrentSong, []byte(`[1,2]`)))
	require.NoError(t, kv.Set(ctx, KeyRepeatMode, []byte("sometimes")))
	require.NoError(t, kv.Set(ctx, KeyShuffleMode, []byte("maybe")))

	_, err := s.Queue(ctx)
	assert.Error(t, err)
	_, err = s.CurrentSong(ctx)
	assert.Error(t, err)
	_, err = s.RepeatMode(ctx)
	assert.Error(t, err)
	_, err = s.ShuffleMode(ctx)
	assert.Error(t, err)
}
