// Package download stores tracks on local disk for offline playback.
package download

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lokal/internal/domain/track"
)

const fileExt = ".mp4"

var (
	// ErrInvalidID is returned for track IDs that cannot be used as file names.
	ErrInvalidID = errors.New("download: invalid track id")
	// ErrDownloadFailed is returned when the source responds with a non-200 status.
	ErrDownloadFailed = errors.New("download: failed")
)

// Config configures a Manager.
type Config struct {
	Dir        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Manager downloads tracks to <Dir>/<id>.mp4.
type Manager struct {
	dir        string
	httpClient *http.Client
}

// NewManager creates a download manager. The directory is created on first download.
func NewManager(cfg Config) *Manager {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Manager{dir: cfg.Dir, httpClient: client}
}

// Path returns the local file path for a track ID.
func (m *Manager) Path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", errors.Wrapf(ErrInvalidID, "%q", id)
	}
	return filepath.Join(m.dir, id+fileExt), nil
}

// Download fetches the preferred stream of t and returns the local file path.
// The file only appears once it is complete.
func (m *Manager) Download(ctx context.Context, t track.Track) (string, error) {
	dest, err := m.Path(t.ID)
	if err != nil {
		return "", err
	}
	source, err := t.SelectStream()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create download directory")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch %s", t.ID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(ErrDownloadFailed, "track %s: status %d", t.ID, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(m.dir, t.ID+".*.part")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return "", errors.Wrapf(err, "failed to write %s", t.ID)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(err, "failed to move download into place")
	}

	zlog.Info().Msgf("download: saved: id=%s quality=%s bytes=%d path=%s", t.ID, source.Quality, n, dest)
	return dest, nil
}

// Exists reports whether a completed download for id exists.
func (m *Manager) Exists(id string) bool {
	path, err := m.Path(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes the download for id. Missing files are not an error.
func (m *Manager) Delete(id string) error {
	path, err := m.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to delete %s", id)
	}
	return nil
}

// List returns the IDs of all completed downloads, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read download directory")
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}
