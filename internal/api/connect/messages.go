package connect

import (
	"github.com/osa030/lokal/internal/app/playback"
	"github.com/osa030/lokal/internal/app/suggest"
	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
)

// Empty is the request of RPCs that take no arguments.
type Empty struct{}

// StateResponse carries the controller state after an RPC.
type StateResponse struct {
	Snapshot playback.Snapshot `json:"snapshot"`
}

// SearchRequest searches the catalog. Page starts at 1.
type SearchRequest struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

// SearchResponse is one page of search results. Empty results mark the end.
type SearchResponse struct {
	track.SearchPage
}

// SetQueueRequest replaces the queue.
type SetQueueRequest struct {
	Tracks []track.Track `json:"tracks"`
}

// TrackRequest identifies a track either inline or by catalog ID.
// Track wins when both are set.
type TrackRequest struct {
	Track   *track.Track `json:"track,omitempty"`
	TrackID string       `json:"track_id,omitempty"`
}

// IndexRequest addresses a queue position.
type IndexRequest struct {
	Index int `json:"index"`
}

// ReorderQueueRequest moves the track at From to To.
type ReorderQueueRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// SeekToRequest moves the playback position.
type SeekToRequest struct {
	PositionMs int64 `json:"position_ms"`
}

// ToggleRepeatResponse returns the new repeat mode.
type ToggleRepeatResponse struct {
	Repeat queue.RepeatMode `json:"repeat"`
}

// ToggleShuffleResponse returns the new shuffle flag.
type ToggleShuffleResponse struct {
	Shuffle bool `json:"shuffle"`
}

// DownloadRequest names a catalog track to store locally.
type DownloadRequest struct {
	TrackID string `json:"track_id"`
}

// DownloadResponse returns where the file was written.
type DownloadResponse struct {
	Path string `json:"path"`
}

// IsDownloadedResponse reports whether a track is stored locally.
type IsDownloadedResponse struct {
	Downloaded bool `json:"downloaded"`
}

// ListDownloadsResponse lists the IDs of downloaded tracks.
type ListDownloadsResponse struct {
	TrackIDs []string `json:"track_ids"`
}

// SuggestionsRequest asks for tracks like TrackID, or like the current song when empty.
type SuggestionsRequest struct {
	TrackID string `json:"track_id,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// SuggestionsResponse lists suggested tracks with the provider that found them.
type SuggestionsResponse struct {
	Candidates []suggest.Candidate `json:"candidates"`
}
