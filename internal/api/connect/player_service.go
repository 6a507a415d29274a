// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/app/catalog"
	"github.com/osa030/lokal/internal/app/filter"
	"github.com/osa030/lokal/internal/app/notification"
	"github.com/osa030/lokal/internal/app/playback"
	"github.com/osa030/lokal/internal/app/suggest"
	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
)

// Player is the playback controller surface exposed over RPC.
type Player interface {
	SetQueue(ctx context.Context, tracks []track.Track)
	AddToQueue(ctx context.Context, t track.Track)
	RemoveFromQueue(ctx context.Context, index int) error
	ReorderQueue(ctx context.Context, fromIndex, toIndex int) error
	SelectTrack(ctx context.Context, index int) error
	PlayIndex(ctx context.Context, index int) error
	PlayTrack(ctx context.Context, t track.Track) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	SeekTo(ctx context.Context, position time.Duration) error
	PlayNext(ctx context.Context) error
	PlayPrevious(ctx context.Context) error
	ToggleRepeat(ctx context.Context) queue.RepeatMode
	ToggleShuffle(ctx context.Context) bool
	Snapshot() playback.Snapshot
}

// Downloads stores tracks for offline playback.
type Downloads interface {
	Download(ctx context.Context, t track.Track) (string, error)
	Exists(id string) bool
	Delete(id string) error
	List() ([]string, error)
}

// Suggester finds tracks similar to a set of seeds.
type Suggester interface {
	GetCandidates(ctx context.Context, count int, seedTracks []track.Track, excludeIDs map[string]bool) ([]suggest.Candidate, error)
}

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	player        Player
	catalog       catalog.Catalog
	downloads     Downloads
	suggester     Suggester
	filters       *filter.Chain
	notifications *notification.Manager
	suggestCount  int

	done      chan struct{}
	closeOnce sync.Once
}

// PlayerServiceConfig wires the collaborators of a PlayerService.
type PlayerServiceConfig struct {
	Player        Player
	Catalog       catalog.Catalog
	Downloads     Downloads
	Suggester     Suggester     // Optional
	Filters       *filter.Chain // Optional; applied to suggestions
	Notifications *notification.Manager
	SuggestCount  int
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(cfg PlayerServiceConfig) *PlayerService {
	count := cfg.SuggestCount
	if count <= 0 {
		count = 10
	}
	return &PlayerService{
		player:        cfg.Player,
		catalog:       cfg.Catalog,
		downloads:     cfg.Downloads,
		suggester:     cfg.Suggester,
		filters:       cfg.Filters,
		notifications: cfg.Notifications,
		suggestCount:  count,
		done:          make(chan struct{}),
	}
}

// Close ends all open SubscribeState streams.
func (s *PlayerService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *PlayerService) state() *connect.Response[StateResponse] {
	return connect.NewResponse(&StateResponse{Snapshot: s.player.Snapshot()})
}

// Search searches the catalog.
func (s *PlayerService) Search(
	ctx context.Context,
	req *connect.Request[SearchRequest],
) (*connect.Response[SearchResponse], error) {
	if req.Msg.Query == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("query is required"))
	}
	page, err := s.catalog.Search(ctx, req.Msg.Query, req.Msg.Page)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SearchResponse{SearchPage: page}), nil
}

// GetState returns the current controller snapshot.
func (s *PlayerService) GetState(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StateResponse], error) {
	return s.state(), nil
}

// SetQueue replaces the queue.
func (s *PlayerService) SetQueue(
	ctx context.Context,
	req *connect.Request[SetQueueRequest],
) (*connect.Response[StateResponse], error) {
	s.player.SetQueue(ctx, req.Msg.Tracks)
	return s.state(), nil
}

// AddToQueue appends a track to the queue.
func (s *PlayerService) AddToQueue(
	ctx context.Context,
	req *connect.Request[TrackRequest],
) (*connect.Response[StateResponse], error) {
	t, err := s.resolve(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	s.player.AddToQueue(ctx, t)
	return s.state(), nil
}

// RemoveFromQueue removes the track at an index.
func (s *PlayerService) RemoveFromQueue(
	ctx context.Context,
	req *connect.Request[IndexRequest],
) (*connect.Response[StateResponse], error) {
	if err := s.player.RemoveFromQueue(ctx, req.Msg.Index); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// ReorderQueue moves a track within the queue.
func (s *PlayerService) ReorderQueue(
	ctx context.Context,
	req *connect.Request[ReorderQueueRequest],
) (*connect.Response[StateResponse], error) {
	if err := s.player.ReorderQueue(ctx, req.Msg.From, req.Msg.To); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// SelectTrack makes a queue entry current without playing it.
func (s *PlayerService) SelectTrack(
	ctx context.Context,
	req *connect.Request[IndexRequest],
) (*connect.Response[StateResponse], error) {
	if err := s.player.SelectTrack(ctx, req.Msg.Index); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// PlayIndex plays a queue entry.
func (s *PlayerService) PlayIndex(
	ctx context.Context,
	req *connect.Request[IndexRequest],
) (*connect.Response[StateResponse], error) {
	if err := s.player.PlayIndex(ctx, req.Msg.Index); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// PlayTrack plays a track that need not be queued, such as a search result.
func (s *PlayerService) PlayTrack(
	ctx context.Context,
	req *connect.Request[TrackRequest],
) (*connect.Response[StateResponse], error) {
	t, err := s.resolve(ctx, req.Msg)
	if err != nil {
		return nil, err
	}
	if err := s.player.PlayTrack(ctx, t); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// Play starts or resumes playback.
func (s *PlayerService) Play(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StateResponse], error) {
	return s.transport(ctx, s.player.Play)
}

// Pause pauses playback.
func (s *PlayerService) Pause(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StateResponse], error) {
	return s.transport(ctx, s.player.Pause)
}

// Stop stops playback and releases the audio resource.
func (s *PlayerService) Stop(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StateResponse], error) {
	return s.transport(ctx, s.player.Stop)
}

// SeekTo moves the playback position.
func (s *PlayerService) SeekTo(
	ctx context.Context,
	req *connect.Request[SeekToRequest],
) (*connect.Response[StateResponse], error) {
	if req.Msg.PositionMs < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("position_ms must not be negative"))
	}
	position := time.Duration(req.Msg.PositionMs) * time.Millisecond
	if err := s.player.SeekTo(ctx, position); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// PlayNext skips forward.
func (s *PlayerService) PlayNext(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StateResponse], error) {
	return s.transport(ctx, s.player.PlayNext)
}

// PlayPrevious skips backward.
func (s *PlayerService) PlayPrevious(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StateResponse], error) {
	return s.transport(ctx, s.player.PlayPrevious)
}

// ToggleRepeat cycles the repeat mode.
func (s *PlayerService) ToggleRepeat(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ToggleRepeatResponse], error) {
	return connect.NewResponse(&ToggleRepeatResponse{Repeat: s.player.ToggleRepeat(ctx)}), nil
}

// ToggleShuffle flips shuffle.
func (s *PlayerService) ToggleShuffle(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ToggleShuffleResponse], error) {
	return connect.NewResponse(&ToggleShuffleResponse{Shuffle: s.player.ToggleShuffle(ctx)}), nil
}

// Download stores a catalog track locally.
func (s *PlayerService) Download(
	ctx context.Context,
	req *connect.Request[DownloadRequest],
) (*connect.Response[DownloadResponse], error) {
	t, err := s.resolve(ctx, &TrackRequest{TrackID: req.Msg.TrackID})
	if err != nil {
		return nil, err
	}
	path, err := s.downloads.Download(ctx, t)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DownloadResponse{Path: path}), nil
}

// IsDownloaded reports whether a track is stored locally.
func (s *PlayerService) IsDownloaded(
	ctx context.Context,
	req *connect.Request[DownloadRequest],
) (*connect.Response[IsDownloadedResponse], error) {
	if req.Msg.TrackID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("track_id is required"))
	}
	return connect.NewResponse(&IsDownloadedResponse{Downloaded: s.downloads.Exists(req.Msg.TrackID)}), nil
}

// DeleteDownload removes a downloaded track. Deleting a missing download succeeds.
func (s *PlayerService) DeleteDownload(
	ctx context.Context,
	req *connect.Request[DownloadRequest],
) (*connect.Response[Empty], error) {
	if err := s.downloads.Delete(req.Msg.TrackID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// ListDownloads lists downloaded track IDs.
func (s *PlayerService) ListDownloads(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ListDownloadsResponse], error) {
	ids, err := s.downloads.List()
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListDownloadsResponse{TrackIDs: ids}), nil
}

// Suggestions returns tracks like the requested one that are not queued yet.
func (s *PlayerService) Suggestions(
	ctx context.Context,
	req *connect.Request[SuggestionsRequest],
) (*connect.Response[SuggestionsResponse], error) {
	if s.suggester == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("suggestions are not configured"))
	}

	snapshot := s.player.Snapshot()
	var seed track.Track
	switch {
	case req.Msg.TrackID != "":
		t, err := s.resolve(ctx, &TrackRequest{TrackID: req.Msg.TrackID})
		if err != nil {
			return nil, err
		}
		seed = t
	case snapshot.CurrentSong != nil:
		seed = *snapshot.CurrentSong
	default:
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("no current song to base suggestions on"))
	}

	count := req.Msg.Count
	if count <= 0 {
		count = s.suggestCount
	}

	queued := make(map[string]bool, len(snapshot.Queue))
	for _, id := range queue.TrackIDs(snapshot.Queue) {
		queued[id] = true
	}

	// Over-fetch so filtered candidates can be replaced
	fetch := count
	if s.filters != nil && len(s.filters.Filters()) > 0 {
		fetch = count * 2
	}
	candidates, err := s.suggester.GetCandidates(ctx, fetch, []track.Track{seed}, queued)
	if err != nil {
		return nil, toConnectError(err)
	}

	accepted := make([]suggest.Candidate, 0, count)
	for _, c := range candidates {
		if len(accepted) == count {
			break
		}
		if s.filters != nil {
			if result := s.filters.Execute(ctx, c.Track, snapshot.Queue); !result.Accepted {
				zlog.Debug().Msgf("connect: suggestion filtered: id=%s code=%s", c.Track.ID, result.Code)
				continue
			}
		}
		accepted = append(accepted, c)
	}
	return connect.NewResponse(&SuggestionsResponse{Candidates: accepted}), nil
}

// SubscribeState streams a snapshot notification for every controller change,
// starting with the current state.
func (s *PlayerService) SubscribeState(
	ctx context.Context,
	req *connect.Request[Empty],
	stream *connect.ServerStream[notification.Notification],
) error {
	initial := &notification.Notification{
		Type:     "initial_state",
		Snapshot: s.player.Snapshot(),
	}
	subscriptionID := s.notifications.Subscribe(&notificationStreamAdapter{stream: stream}, initial)
	stopped := s.notifications.Done(subscriptionID)

	// Wait for context cancellation, service shutdown or a failed send
	select {
	case <-ctx.Done():
	case <-s.done:
	case <-stopped:
	}
	s.notifications.Unsubscribe(subscriptionID)
	// The stream must not be used once the handler returns
	<-stopped
	zlog.Debug().Msgf("connect: state subscription ended: id=%s", subscriptionID)
	return nil
}

func (s *PlayerService) transport(ctx context.Context, op func(context.Context) error) (*connect.Response[StateResponse], error) {
	if err := op(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// resolve returns the inline track, or looks the ID up in the catalog.
func (s *PlayerService) resolve(ctx context.Context, req *TrackRequest) (track.Track, error) {
	if req.Track != nil {
		if req.Track.ID == "" {
			return track.Track{}, connect.NewError(connect.CodeInvalidArgument, errors.New("track.id is required"))
		}
		return *req.Track, nil
	}
	if req.TrackID == "" {
		return track.Track{}, connect.NewError(connect.CodeInvalidArgument, errors.New("track or track_id is required"))
	}
	t, err := s.catalog.Song(ctx, req.TrackID)
	if err != nil {
		return track.Track{}, toConnectError(err)
	}
	return t, nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream *connect.ServerStream[notification.Notification]
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	return a.stream.Send(n)
}
