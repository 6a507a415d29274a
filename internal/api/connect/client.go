package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/osa030/lokal/internal/app/notification"
)

// PlayerClient is a client for the PlayerService.
type PlayerClient struct {
	search          *connect.Client[SearchRequest, SearchResponse]
	getState        *connect.Client[Empty, StateResponse]
	setQueue        *connect.Client[SetQueueRequest, StateResponse]
	addToQueue      *connect.Client[TrackRequest, StateResponse]
	removeFromQueue *connect.Client[IndexRequest, StateResponse]
	reorderQueue    *connect.Client[ReorderQueueRequest, StateResponse]
	selectTrack     *connect.Client[IndexRequest, StateResponse]
	playIndex       *connect.Client[IndexRequest, StateResponse]
	playTrack       *connect.Client[TrackRequest, StateResponse]
	play            *connect.Client[Empty, StateResponse]
	pause           *connect.Client[Empty, StateResponse]
	stop            *connect.Client[Empty, StateResponse]
	seekTo          *connect.Client[SeekToRequest, StateResponse]
	playNext        *connect.Client[Empty, StateResponse]
	playPrevious    *connect.Client[Empty, StateResponse]
	toggleRepeat    *connect.Client[Empty, ToggleRepeatResponse]
	toggleShuffle   *connect.Client[Empty, ToggleShuffleResponse]
	download        *connect.Client[DownloadRequest, DownloadResponse]
	isDownloaded    *connect.Client[DownloadRequest, IsDownloadedResponse]
	deleteDownload  *connect.Client[DownloadRequest, Empty]
	listDownloads   *connect.Client[Empty, ListDownloadsResponse]
	suggestions     *connect.Client[SuggestionsRequest, SuggestionsResponse]
	subscribeState  *connect.Client[Empty, notification.Notification]
}

// NewPlayerClient creates a client for the PlayerService served at baseURL.
func NewPlayerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &PlayerClient{
		search:          connect.NewClient[SearchRequest, SearchResponse](httpClient, baseURL+PlayerServiceSearchProcedure, opts...),
		getState:        connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServiceGetStateProcedure, opts...),
		setQueue:        connect.NewClient[SetQueueRequest, StateResponse](httpClient, baseURL+PlayerServiceSetQueueProcedure, opts...),
		addToQueue:      connect.NewClient[TrackRequest, StateResponse](httpClient, baseURL+PlayerServiceAddToQueueProcedure, opts...),
		removeFromQueue: connect.NewClient[IndexRequest, StateResponse](httpClient, baseURL+PlayerServiceRemoveFromQueueProcedure, opts...),
		reorderQueue:    connect.NewClient[ReorderQueueRequest, StateResponse](httpClient, baseURL+PlayerServiceReorderQueueProcedure, opts...),
		selectTrack:     connect.NewClient[IndexRequest, StateResponse](httpClient, baseURL+PlayerServiceSelectTrackProcedure, opts...),
		playIndex:       connect.NewClient[IndexRequest, StateResponse](httpClient, baseURL+PlayerServicePlayIndexProcedure, opts...),
		playTrack:       connect.NewClient[TrackRequest, StateResponse](httpClient, baseURL+PlayerServicePlayTrackProcedure, opts...),
		play:            connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServicePlayProcedure, opts...),
		pause:           connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServicePauseProcedure, opts...),
		stop:            connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServiceStopProcedure, opts...),
		seekTo:          connect.NewClient[SeekToRequest, StateResponse](httpClient, baseURL+PlayerServiceSeekToProcedure, opts...),
		playNext:        connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServicePlayNextProcedure, opts...),
		playPrevious:    connect.NewClient[Empty, StateResponse](httpClient, baseURL+PlayerServicePlayPreviousProcedure, opts...),
		toggleRepeat:    connect.NewClient[Empty, ToggleRepeatResponse](httpClient, baseURL+PlayerServiceToggleRepeatProcedure, opts...),
		toggleShuffle:   connect.NewClient[Empty, ToggleShuffleResponse](httpClient, baseURL+PlayerServiceToggleShuffleProcedure, opts...),
		download:        connect.NewClient[DownloadRequest, DownloadResponse](httpClient, baseURL+PlayerServiceDownloadProcedure, opts...),
		isDownloaded:    connect.NewClient[DownloadRequest, IsDownloadedResponse](httpClient, baseURL+PlayerServiceIsDownloadedProcedure, opts...),
		deleteDownload:  connect.NewClient[DownloadRequest, Empty](httpClient, baseURL+PlayerServiceDeleteDownloadProcedure, opts...),
		listDownloads:   connect.NewClient[Empty, ListDownloadsResponse](httpClient, baseURL+PlayerServiceListDownloadsProcedure, opts...),
		suggestions:     connect.NewClient[SuggestionsRequest, SuggestionsResponse](httpClient, baseURL+PlayerServiceSuggestionsProcedure, opts...),
		subscribeState:  connect.NewClient[Empty, notification.Notification](httpClient, baseURL+PlayerServiceSubscribeStateProcedure, opts...),
	}
}

// Search calls PlayerService.Search.
func (c *PlayerClient) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	return unary(ctx, c.search, req)
}

// GetState calls PlayerService.GetState.
func (c *PlayerClient) GetState(ctx context.Context) (*StateResponse, error) {
	return unary(ctx, c.getState, &Empty{})
}

// SetQueue calls PlayerService.SetQueue.
func (c *PlayerClient) SetQueue(ctx context.Context, req *SetQueueRequest) (*StateResponse, error) {
	return unary(ctx, c.setQueue, req)
}

// AddToQueue calls PlayerService.AddToQueue.
func (c *PlayerClient) AddToQueue(ctx context.Context, req *TrackRequest) (*StateResponse, error) {
	return unary(ctx, c.addToQueue, req)
}

// RemoveFromQueue calls PlayerService.RemoveFromQueue.
func (c *PlayerClient) RemoveFromQueue(ctx context.Context, req *IndexRequest) (*StateResponse, error) {
	return unary(ctx, c.removeFromQueue, req)
}

// ReorderQueue calls PlayerService.ReorderQueue.
func (c *PlayerClient) ReorderQueue(ctx context.Context, req *ReorderQueueRequest) (*StateResponse, error) {
	return unary(ctx, c.reorderQueue, req)
}

// SelectTrack calls PlayerService.SelectTrack.
func (c *PlayerClient) SelectTrack(ctx context.Context, req *IndexRequest) (*StateResponse, error) {
	return unary(ctx, c.selectTrack, req)
}

// PlayIndex calls PlayerService.PlayIndex.
func (c *PlayerClient) PlayIndex(ctx context.Context, req *IndexRequest) (*StateResponse, error) {
	return unary(ctx, c.playIndex, req)
}

// PlayTrack calls PlayerService.PlayTrack.
func (c *PlayerClient) PlayTrack(ctx context.Context, req *TrackRequest) (*StateResponse, error) {
	return unary(ctx, c.playTrack, req)
}

// Play calls PlayerService.Play.
func (c *PlayerClient) Play(ctx context.Context) (*StateResponse, error) {
	return unary(ctx, c.play, &Empty{})
}

// Pause calls PlayerService.Pause.
func (c *PlayerClient) Pause(ctx context.Context) (*StateResponse, error) {
	return unary(ctx, c.pause, &Empty{})
}

// Stop calls PlayerService.Stop.
func (c *PlayerClient) Stop(ctx context.Context) (*StateResponse, error) {
	return unary(ctx, c.stop, &Empty{})
}

// SeekTo calls PlayerService.SeekTo.
func (c *PlayerClient) SeekTo(ctx context.Context, req *SeekToRequest) (*StateResponse, error) {
	return unary(ctx, c.seekTo, req)
}

// PlayNext calls PlayerService.PlayNext.
func (c *PlayerClient) PlayNext(ctx context.Context) (*StateResponse, error) {
	return unary(ctx, c.playNext, &Empty{})
}

// PlayPrevious calls PlayerService.PlayPrevious.
func (c *PlayerClient) PlayPrevious(ctx context.Context) (*StateResponse, error) {
	return unary(ctx, c.playPrevious, &Empty{})
}

// ToggleRepeat calls PlayerService.ToggleRepeat.
func (c *PlayerClient) ToggleRepeat(ctx context.Context) (*ToggleRepeatResponse, error) {
	return unary(ctx, c.toggleRepeat, &Empty{})
}

// ToggleShuffle calls PlayerService.ToggleShuffle.
func (c *PlayerClient) ToggleShuffle(ctx context.Context) (*ToggleShuffleResponse, error) {
	return unary(ctx, c.toggleShuffle, &Empty{})
}

// Download calls PlayerService.Download.
func (c *PlayerClient) Download(ctx context.Context, req *DownloadRequest) (*DownloadResponse, error) {
	return unary(ctx, c.download, req)
}

// IsDownloaded calls PlayerService.IsDownloaded.
func (c *PlayerClient) IsDownloaded(ctx context.Context, req *DownloadRequest) (*IsDownloadedResponse, error) {
	return unary(ctx, c.isDownloaded, req)
}

// DeleteDownload calls PlayerService.DeleteDownload.
func (c *PlayerClient) DeleteDownload(ctx context.Context, req *DownloadRequest) error {
	_, err := unary(ctx, c.deleteDownload, req)
	return err
}

// ListDownloads calls PlayerService.ListDownloads.
func (c *PlayerClient) ListDownloads(ctx context.Context) (*ListDownloadsResponse, error) {
	return unary(ctx, c.listDownloads, &Empty{})
}

// Suggestions calls PlayerService.Suggestions.
func (c *PlayerClient) Suggestions(ctx context.Context, req *SuggestionsRequest) (*SuggestionsResponse, error) {
	return unary(ctx, c.suggestions, req)
}

// SubscribeState calls PlayerService.SubscribeState.
func (c *PlayerClient) SubscribeState(ctx context.Context) (*connect.ServerStreamForClient[notification.Notification], error) {
	return c.subscribeState.CallServerStream(ctx, connect.NewRequest(&Empty{}))
}

func unary[Req, Res any](ctx context.Context, client *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
