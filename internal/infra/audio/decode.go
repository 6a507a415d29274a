package audio

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// decode sniffs the container from its leading bytes and picks a decoder.
func decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	mt := mimetype.Detect(data)

	switch {
	case mt.Is("audio/mpeg"):
		s, f, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
		if err != nil {
			return nil, beep.Format{}, errors.Wrap(err, "failed to decode mp3")
		}
		return s, f, nil

	case mt.Is("audio/wav"):
		s, f, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, beep.Format{}, errors.Wrap(err, "failed to decode wav")
		}
		return s, f, nil

	default:
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupportedFormat, "detected %s", mt.String())
	}
}
