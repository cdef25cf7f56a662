// Package result owns the generated artifact between a successful submission
// and the next attempt.
//
// Adopted payloads are spooled to disk and exposed through a Handle whose URL
// can be handed to a player. Every handle must be released exactly once; the
// orchestrator releases on reset, on a new attempt and on shutdown.
package result

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"sidelines/internal/fileutil"
	"sidelines/internal/logging"
	"sidelines/internal/services"
	"sidelines/internal/textutil"
)

// ErrReleased is returned when a handle is used after Release.
var ErrReleased = errors.New("result handle already released")

const (
	lockRetryDelay = 100 * time.Millisecond
	// lockFileName is shared by every download into a directory and is never
	// removed, so all writers contend on the same inode.
	lockFileName = ".sidelines-download.lock"
)

// Payload is the artifact returned by the service.
type Payload struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Handle is an ephemeral local reference to an adopted artifact.
type Handle struct {
	id          string
	path        string
	size        int64
	contentType string
	suggested   string
	created     time.Time
}

func (h *Handle) ID() string            { return h.id }
func (h *Handle) Path() string          { return h.path }
func (h *Handle) Size() int64           { return h.size }
func (h *Handle) ContentType() string   { return h.contentType }
func (h *Handle) SuggestedName() string { return h.suggested }
func (h *Handle) Created() time.Time    { return h.created }

// URL returns a file:// URL for the spooled artifact.
func (h *Handle) URL() string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(h.path)}).String()
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPlayer overrides how artifacts are played.
func WithPlayer(player Player) Option {
	return func(m *Manager) {
		if player != nil {
			m.player = player
		}
	}
}

// WithDefaultName sets the download name used when neither caller nor server
// suggests one.
func WithDefaultName(name string) Option {
	return func(m *Manager) {
		if name = textutil.SanitizeFileName(filepath.Base(name)); name != "" {
			m.defaultName = name
		}
	}
}

// Manager tracks outstanding handles in a spool directory.
type Manager struct {
	dir         string
	logger      *slog.Logger
	player      Player
	defaultName string

	mu          sync.Mutex
	outstanding map[string]*Handle
}

// NewManager creates the spool directory if needed.
func NewManager(dir string, opts ...Option) (*Manager, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "result", "init", "spool directory is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	m := &Manager{
		dir:         dir,
		logger:      logging.NewNop(),
		player:      SystemPlayer{},
		defaultName: "commentated-trickshot.mp4",
		outstanding: make(map[string]*Handle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.logger = logging.NewComponentLogger(m.logger, "result")
	return m, nil
}

// Adopt spools payload and returns a handle to it.
func (m *Manager) Adopt(payload Payload) (*Handle, error) {
	id := uuid.NewString()
	suggested := textutil.SanitizeFileName(filepath.Base(payload.Filename))
	ext := filepath.Ext(suggested)
	if ext == "" {
		ext = filepath.Ext(m.defaultName)
	}
	path := filepath.Join(m.dir, id+ext)
	if err := fileutil.WriteFileAtomic(path, payload.Body, 0o600); err != nil {
		return nil, fmt.Errorf("spool result: %w", err)
	}
	handle := &Handle{
		id:          id,
		path:        path,
		size:        int64(len(payload.Body)),
		contentType: payload.ContentType,
		suggested:   suggested,
		created:     time.Now(),
	}

	m.mu.Lock()
	m.outstanding[id] = handle
	m.mu.Unlock()

	m.logger.Debug("result adopted", logging.String("path", path), logging.Int64("bytes", handle.size))
	return handle, nil
}

// Release removes the spooled artifact. Releasing twice returns ErrReleased.
func (m *Manager) Release(h *Handle) error {
	if h == nil {
		return nil
	}
	m.mu.Lock()
	if _, ok := m.outstanding[h.id]; !ok {
		m.mu.Unlock()
		return ErrReleased
	}
	delete(m.outstanding, h.id)
	m.mu.Unlock()

	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove spooled result: %w", err)
	}
	m.logger.Debug("result released", logging.String("path", h.path))
	return nil
}

// ReleaseAll releases every outstanding handle and reports how many there were.
func (m *Manager) ReleaseAll() int {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.outstanding))
	for _, h := range m.outstanding {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	released := 0
	for _, h := range handles {
		if err := m.Release(h); err != nil {
			if !errors.Is(err, ErrReleased) {
				m.logger.Warn("release result failed", logging.String("path", h.path), logging.Error(err))
			}
			continue
		}
		released++
	}
	return released
}

// Outstanding reports the number of unreleased handles.
func (m *Manager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outstanding)
}

func (m *Manager) live(h *Handle) bool {
	if h == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.outstanding[h.id]
	return ok
}

// DownloadOptions control where a result is saved.
type DownloadOptions struct {
	// Name overrides the file name. Empty uses the server suggestion, then the default name.
	Name string
	// Dir is the destination directory. Empty means the working directory.
	Dir string
	// Overwrite replaces an existing file instead of picking a free name.
	Overwrite bool
}

// Download copies the artifact to its destination and returns the final path.
// Name selection and the copy run under a directory-wide lock so concurrent
// downloads, in this process or another, never pick the same free name.
func (m *Manager) Download(ctx context.Context, h *Handle, opts DownloadOptions) (string, error) {
	if !m.live(h) {
		return "", ErrReleased
	}
	dest := m.destination(h, opts)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	lock := flock.New(filepath.Join(filepath.Dir(dest), lockFileName))
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("acquire download lock: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("download destination %s is locked", dest)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			m.logger.Warn("failed to release download lock", logging.Error(err))
		}
	}()

	if !opts.Overwrite {
		dest, err = fileutil.AvailablePath(dest)
		if err != nil {
			return "", err
		}
	}
	if err := fileutil.CopyFileVerified(h.path, dest); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	m.logger.Info("result saved", logging.String("path", dest), logging.Int64("bytes", h.size))
	return dest, nil
}

func (m *Manager) destination(h *Handle, opts DownloadOptions) string {
	name := textutil.SanitizeFileName(filepath.Base(strings.TrimSpace(opts.Name)))
	if name == "" {
		name = h.suggested
	}
	if name == "" {
		name = m.defaultName
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

// Play hands the spooled artifact to the configured player.
func (m *Manager) Play(ctx context.Context, h *Handle) error {
	if !m.live(h) {
		return ErrReleased
	}
	if err := m.player.Play(ctx, h.path); err != nil {
		return fmt.Errorf("play result: %w", err)
	}
	return nil
}
