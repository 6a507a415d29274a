package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/lokal/internal/app/catalog"
	"github.com/osa030/lokal/internal/app/playback"
	"github.com/osa030/lokal/internal/domain/track"
	"github.com/osa030/lokal/internal/infra/audio"
	"github.com/osa030/lokal/internal/infra/download"
)

// toConnectError maps domain errors to connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.Is(err, playback.ErrIndexOutOfRange), errors.Is(err, download.ErrInvalidID):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, catalog.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, track.ErrNoPlayableSource):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, audio.ErrAudioUnavailable), errors.Is(err, download.ErrDownloadFailed):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
