// Package progress opens the per-attempt websocket the commentary service
// pushes step updates over.
//
// Open blocks until the handshake completes, which is the signal that the
// server has registered the correlation ID and it is safe to submit the job.
// The client never sends data frames; it only reads.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"sidelines/internal/logging"
	"sidelines/internal/services"
	"sidelines/internal/steps"
)

const closeGracePeriod = time.Second

// Option configures a Dialer.
type Option func(*Dialer)

// WithLogger sets the logger used for skipped frames and close diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dialer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHandshakeTimeout bounds the websocket upgrade.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(d *Dialer) {
		if timeout > 0 {
			d.dialer.HandshakeTimeout = timeout
		}
	}
}

// WithHeader adds request headers to the upgrade request.
func WithHeader(header http.Header) Option {
	return func(d *Dialer) {
		d.header = header.Clone()
	}
}

// Dialer opens progress channels against a websocket base URL such as
// ws://localhost:8000/ws. The correlation ID is appended as the final path
// segment.
type Dialer struct {
	base   string
	dialer *websocket.Dialer
	header http.Header
	logger *slog.Logger
}

// NewDialer constructs a dialer for the given base URL.
func NewDialer(base string, opts ...Option) *Dialer {
	d := &Dialer{
		base: strings.TrimRight(strings.TrimSpace(base), "/"),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	d.logger = logging.NewComponentLogger(d.logger, "progress")
	return d
}

// URL returns the channel address for a correlation ID.
func (d *Dialer) URL(correlationID string) string {
	return d.base + "/" + url.PathEscape(correlationID)
}

// Open dials the channel for correlationID and returns once the handshake has
// completed. Failures are tagged with services.ErrChannel.
func (d *Dialer) Open(ctx context.Context, correlationID string) (*Channel, error) {
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return nil, services.Wrap(services.ErrChannel, "progress", "open", "correlation id is empty", nil)
	}
	target := d.URL(correlationID)
	conn, resp, err := d.dialer.DialContext(ctx, target, d.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return nil, services.Wrap(services.ErrCanceled, "progress", "open", target, ctxErr)
		}
		message := target
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			message = fmt.Sprintf("%s: %s", target, resp.Status)
		}
		return nil, services.Wrap(services.ErrChannel, "progress", "open", message, err)
	}
	logger := logging.WithContext(services.WithCorrelationID(ctx, correlationID), d.logger)
	logger.Debug("progress channel ready", logging.String("url", target))
	return &Channel{
		id:         correlationID,
		conn:       conn,
		logger:     logger,
		frames:     make(chan steps.Frame),
		readerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Channel is one attempt's progress subscription.
type Channel struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	startOnce  sync.Once
	closeOnce  sync.Once
	started    bool
	frames     chan steps.Frame
	readerDone chan struct{}
	done       chan struct{}

	mu      sync.Mutex
	closing bool
	err     error
}

// ID returns the correlation ID the channel was opened with.
func (c *Channel) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Frames returns the inbound frame sequence in transport order. The reader
// starts on the first call; later calls return the same channel. The channel
// is closed when either side closes the connection.
func (c *Channel) Frames() <-chan steps.Frame {
	if c == nil {
		closed := make(chan steps.Frame)
		close(closed)
		return closed
	}
	c.startOnce.Do(func() {
		c.started = true
		go c.read()
	})
	return c.frames
}

// Err reports why the frame sequence ended. It is nil while reading, after a
// caller Close, and after a normal close from the server.
func (c *Channel) Err() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close shuts the connection down. It is idempotent and safe on a nil channel.
//
// Close sends a close frame and keeps delivering frames the server sent
// before acknowledging it, up to a short grace period, so a consumer still
// draining Frames sees every update that preceded the close.
func (c *Channel) Close() error {
	if c == nil {
		return nil
	}
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		c.mu.Unlock()

		deadline := time.Now().Add(closeGracePeriod)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		writeErr := c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		if writeErr != nil && !errors.Is(writeErr, websocket.ErrCloseSent) {
			c.logger.Debug("progress close handshake skipped", logging.Error(writeErr))
		}

		// The reader may never have started; the sequence still has to end.
		c.startOnce.Do(func() { close(c.frames) })
		if c.started && writeErr == nil {
			timer := time.NewTimer(closeGracePeriod)
			select {
			case <-c.readerDone:
			case <-timer.C:
				c.logger.Debug("progress close acknowledgement timed out")
			}
			timer.Stop()
		}
		close(c.done)
		err = c.conn.Close()
		if c.started {
			<-c.readerDone
		}
	})
	return err
}

func (c *Channel) read() {
	defer close(c.readerDone)
	defer close(c.frames)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.finish(err)
			return
		}
		frame, ok := decodeFrame(data)
		if !ok {
			c.logger.Warn("skipping malformed progress frame",
				logging.Int("bytes", len(data)),
				logging.String("payload", truncate(string(data), 120)),
			)
			continue
		}
		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}
}

func (c *Channel) finish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Debug("progress channel closed by server")
		return
	}
	c.err = services.Wrap(services.ErrChannel, "progress", "read", c.id, err)
	c.logger.Warn("progress channel dropped", logging.Error(err))
}

type wireFrame struct {
	Step    *int   `json:"step"`
	Message string `json:"message"`
}

func decodeFrame(data []byte) (steps.Frame, bool) {
	var wire wireFrame
	if err := json.Unmarshal(data, &wire); err != nil || wire.Step == nil {
		return steps.Frame{}, false
	}
	return steps.Frame{Step: *wire.Step, Message: wire.Message}, true
}

// truncate caps value at limit bytes without splitting a UTF-8 sequence.
func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	for limit > 0 && !utf8.RuneStart(value[limit]) {
		limit--
	}
	return value[:limit] + "…"
}
