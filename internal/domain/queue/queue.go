// Package queue provides the ordered playback list rules: index translation on
// mutation, repeat modes and the next/previous advance algorithm.
package queue

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/osa030/lokal/internal/domain/track"
)

// ErrIndexOutOfRange is returned when a queue position is outside [0, len).
var ErrIndexOutOfRange = errors.New("index out of range")

// NoIndex marks the absence of a current track.
const NoIndex = -1

// Remove returns a copy of tracks without the slot at index, and the current index
// translated so it keeps pointing at the same logical track whenever possible.
func Remove(tracks []track.Track, index, current int) ([]track.Track, int, error) {
	if index < 0 || index >= len(tracks) {
		return nil, current, errors.Wrapf(ErrIndexOutOfRange, "remove %d from queue of %d", index, len(tracks))
	}

	out := make([]track.Track, 0, len(tracks)-1)
	out = append(out, tracks[:index]...)
	out = append(out, tracks[index+1:]...)

	switch {
	case index < current:
		current--
	case index == current:
		if len(out) == 0 {
			current = NoIndex
		} else {
			current = min(current, len(out)-1)
		}
	}
	return out, current, nil
}

// Move returns a copy of tracks with the element at from reinserted at to, and the
// current index translated by the list-move law.
func Move(tracks []track.Track, from, to, current int) ([]track.Track, int, error) {
	if from < 0 || from >= len(tracks) || to < 0 || to >= len(tracks) {
		return nil, current, errors.Wrapf(ErrIndexOutOfRange, "move %d to %d in queue of %d", from, to, len(tracks))
	}

	out := make([]track.Track, 0, len(tracks))
	out = append(out, tracks[:from]...)
	out = append(out, tracks[from+1:]...)
	moved := tracks[from]
	out = append(out[:to], append([]track.Track{moved}, out[to:]...)...)

	return out, TranslateMove(from, to, current), nil
}

// TranslateMove maps the current index across a move of from to to.
func TranslateMove(from, to, current int) int {
	switch {
	case current == from:
		return to
	case from < current && current <= to:
		return current - 1
	case to <= current && current < from:
		return current + 1
	default:
		return current
	}
}

// TrackIDs returns the IDs of tracks in queue order.
func TrackIDs(tracks []track.Track) []string {
	return lo.Map(tracks, func(t track.Track, _ int) string { return t.ID })
}

// TotalDuration returns the summed duration of tracks.
func TotalDuration(tracks []track.Track) time.Duration {
	return lo.SumBy(tracks, func(t track.Track) time.Duration { return t.Duration })
}

// Clone returns an independent copy of tracks.
func Clone(tracks []track.Track) []track.Track {
	out := make([]track.Track, len(tracks))
	copy(out, tracks)
	return out
}
