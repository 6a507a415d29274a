package audio

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Engine loads streams from http(s) URLs or local paths and plays them.
type Engine struct {
	cfg        Config
	httpClient *http.Client
	out        *output
}

// New creates a new audio engine.
func New(cfg Config) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 500 * time.Millisecond
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Engine{
		cfg:        cfg,
		httpClient: httpClient,
		out:        newOutput(cfg.SampleRate),
	}
}

// Load fetches and decodes source, then hands it to the speaker.
// onStatus is called from an engine goroutine until the resource is released.
func (e *Engine) Load(ctx context.Context, source string, opts Options, onStatus StatusFunc) (Resource, error) {
	if !Available {
		return nil, ErrAudioUnavailable
	}

	data, err := e.fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	streamer, format, err := decode(data)
	if err != nil {
		return nil, err
	}

	zlog.Debug().Msgf("audio: loaded stream: source=%s sample_rate=%d autoplay=%v background=%v silent_mode=%v",
		source, format.SampleRate, opts.Autoplay, opts.Background, opts.SilentMode)

	return e.out.start(streamer, format, opts, onStatus, e.cfg.StatusInterval)
}

// fetch reads the whole stream into memory.
func (e *Engine) fetch(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse source")
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}
		resp, err := e.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch stream")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, errors.Newf("stream request failed: status=%d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stream")
		}
		return data, nil

	case "file":
		return readFile(u.Path)

	case "":
		return readFile(source)

	default:
		return nil, errors.Newf("unsupported source scheme: %s", u.Scheme)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read local stream")
	}
	return data, nil
}
