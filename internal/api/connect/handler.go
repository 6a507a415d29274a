package connect

import (
	"net/http"

	"connectrpc.com/connect"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "lokal.player.v1.PlayerService"

// Procedure paths of the PlayerService RPCs.
const (
	PlayerServiceSearchProcedure          = "/" + PlayerServiceName + "/Search"
	PlayerServiceGetStateProcedure        = "/" + PlayerServiceName + "/GetState"
	PlayerServiceSetQueueProcedure        = "/" + PlayerServiceName + "/SetQueue"
	PlayerServiceAddToQueueProcedure      = "/" + PlayerServiceName + "/AddToQueue"
	PlayerServiceRemoveFromQueueProcedure = "/" + PlayerServiceName + "/RemoveFromQueue"
	PlayerServiceReorderQueueProcedure    = "/" + PlayerServiceName + "/ReorderQueue"
	PlayerServiceSelectTrackProcedure     = "/" + PlayerServiceName + "/SelectTrack"
	PlayerServicePlayIndexProcedure       = "/" + PlayerServiceName + "/PlayIndex"
	PlayerServicePlayTrackProcedure       = "/" + PlayerServiceName + "/PlayTrack"
	PlayerServicePlayProcedure            = "/" + PlayerServiceName + "/Play"
	PlayerServicePauseProcedure           = "/" + PlayerServiceName + "/Pause"
	PlayerServiceStopProcedure            = "/" + PlayerServiceName + "/Stop"
	PlayerServiceSeekToProcedure          = "/" + PlayerServiceName + "/SeekTo"
	PlayerServicePlayNextProcedure        = "/" + PlayerServiceName + "/PlayNext"
	PlayerServicePlayPreviousProcedure    = "/" + PlayerServiceName + "/PlayPrevious"
	PlayerServiceToggleRepeatProcedure    = "/" + PlayerServiceName + "/ToggleRepeat"
	PlayerServiceToggleShuffleProcedure   = "/" + PlayerServiceName + "/ToggleShuffle"
	PlayerServiceDownloadProcedure        = "/" + PlayerServiceName + "/Download"
	PlayerServiceIsDownloadedProcedure    = "/" + PlayerServiceName + "/IsDownloaded"
	PlayerServiceDeleteDownloadProcedure  = "/" + PlayerServiceName + "/DeleteDownload"
	PlayerServiceListDownloadsProcedure   = "/" + PlayerServiceName + "/ListDownloads"
	PlayerServiceSuggestionsProcedure     = "/" + PlayerServiceName + "/Suggestions"
	PlayerServiceSubscribeStateProcedure  = "/" + PlayerServiceName + "/SubscribeState"
)

// NewPlayerServiceHandler builds an HTTP handler for the service. It returns the
// path to mount the handler on.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PlayerServiceSearchProcedure, connect.NewUnaryHandler(PlayerServiceSearchProcedure, svc.Search, opts...))
	mux.Handle(PlayerServiceGetStateProcedure, connect.NewUnaryHandler(PlayerServiceGetStateProcedure, svc.GetState, opts...))
	mux.Handle(PlayerServiceSetQueueProcedure, connect.NewUnaryHandler(PlayerServiceSetQueueProcedure, svc.SetQueue, opts...))
	mux.Handle(PlayerServiceAddToQueueProcedure, connect.NewUnaryHandler(PlayerServiceAddToQueueProcedure, svc.AddToQueue, opts...))
	mux.Handle(PlayerServiceRemoveFromQueueProcedure, connect.NewUnaryHandler(PlayerServiceRemoveFromQueueProcedure, svc.RemoveFromQueue, opts...))
	mux.Handle(PlayerServiceReorderQueueProcedure, connect.NewUnaryHandler(PlayerServiceReorderQueueProcedure, svc.ReorderQueue, opts...))
	mux.Handle(PlayerServiceSelectTrackProcedure, connect.NewUnaryHandler(PlayerServiceSelectTrackProcedure, svc.SelectTrack, opts...))
	mux.Handle(PlayerServicePlayIndexProcedure, connect.NewUnaryHandler(PlayerServicePlayIndexProcedure, svc.PlayIndex, opts...))
	mux.Handle(PlayerServicePlayTrackProcedure, connect.NewUnaryHandler(PlayerServicePlayTrackProcedure, svc.PlayTrack, opts...))
	mux.Handle(PlayerServicePlayProcedure, connect.NewUnaryHandler(PlayerServicePlayProcedure, svc.Play, opts...))
	mux.Handle(PlayerServicePauseProcedure, connect.NewUnaryHandler(PlayerServicePauseProcedure, svc.Pause, opts...))
	mux.Handle(PlayerServiceStopProcedure, connect.NewUnaryHandler(PlayerServiceStopProcedure, svc.Stop, opts...))
	mux.Handle(PlayerServiceSeekToProcedure, connect.NewUnaryHandler(PlayerServiceSeekToProcedure, svc.SeekTo, opts...))
	mux.Handle(PlayerServicePlayNextProcedure, connect.NewUnaryHandler(PlayerServicePlayNextProcedure, svc.PlayNext, opts...))
	mux.Handle(PlayerServicePlayPreviousProcedure, connect.NewUnaryHandler(PlayerServicePlayPreviousProcedure, svc.PlayPrevious, opts...))
	mux.Handle(PlayerServiceToggleRepeatProcedure, connect.NewUnaryHandler(PlayerServiceToggleRepeatProcedure, svc.ToggleRepeat, opts...))
	mux.Handle(PlayerServiceToggleShuffleProcedure, connect.NewUnaryHandler(PlayerServiceToggleShuffleProcedure, svc.ToggleShuffle, opts...))
	mux.Handle(PlayerServiceDownloadProcedure, connect.NewUnaryHandler(PlayerServiceDownloadProcedure, svc.Download, opts...))
	mux.Handle(PlayerServiceIsDownloadedProcedure, connect.NewUnaryHandler(PlayerServiceIsDownloadedProcedure, svc.IsDownloaded, opts...))
	mux.Handle(PlayerServiceDeleteDownloadProcedure, connect.NewUnaryHandler(PlayerServiceDeleteDownloadProcedure, svc.DeleteDownload, opts...))
	mux.Handle(PlayerServiceListDownloadsProcedure, connect.NewUnaryHandler(PlayerServiceListDownloadsProcedure, svc.ListDownloads, opts...))
	mux.Handle(PlayerServiceSuggestionsProcedure, connect.NewUnaryHandler(PlayerServiceSuggestionsProcedure, svc.Suggestions, opts...))
	mux.Handle(PlayerServiceSubscribeStateProcedure, connect.NewServerStreamHandler(PlayerServiceSubscribeStateProcedure, svc.SubscribeState, opts...))

	return "/" + PlayerServiceName + "/", mux
}
