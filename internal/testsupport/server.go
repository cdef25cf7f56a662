package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sidelines/internal/steps"
)

// Server event kinds recorded by CommentaryServer.
const (
	EventConnect    = "connect"
	EventSubmit     = "submit"
	EventClose      = "close"
	EventDisconnect = "disconnect"
)

// ServerEvent is one observation made by the fake server, in arrival order.
type ServerEvent struct {
	Kind     string
	ClientID string
}

// ReceivedSubmission captures one multipart request.
type ReceivedSubmission struct {
	ClientID         string
	Language         string
	TrickshotName    string
	HasTrickshotName bool
	Filename         string
	ContentType      string
	Video            []byte
}

// ServerOption customizes a CommentaryServer.
type ServerOption func(*CommentaryServer)

// WithFrames sets the frames pushed to the client once its submission arrives.
func WithFrames(frames ...steps.Frame) ServerOption {
	return func(s *CommentaryServer) {
		s.frames = frames
	}
}

// WithStatus makes the submission endpoint fail with code.
func WithStatus(code int) ServerOption {
	return func(s *CommentaryServer) {
		s.status = code
	}
}

// WithOutput sets the success payload.
func WithOutput(body []byte, filename string) ServerOption {
	return func(s *CommentaryServer) {
		s.output = body
		s.filename = filename
	}
}

// WithRejectedProgress makes the websocket endpoint answer 404.
func WithRejectedProgress() ServerOption {
	return func(s *CommentaryServer) {
		s.rejectProgress = true
	}
}

// WithHold blocks submissions after the frames are sent until release is
// closed or the client gives up.
func WithHold(release <-chan struct{}) ServerOption {
	return func(s *CommentaryServer) {
		s.hold = release
	}
}

// WithTruncatedOutput makes the submission endpoint promise a full payload,
// send only part of it, then drop the connection.
func WithTruncatedOutput() ServerOption {
	return func(s *CommentaryServer) {
		s.truncate = true
	}
}

// CommentaryServer is an in-process stand-in for the commentary service:
// POST /generate-commentary, GET /ws/{client_id} and GET /health.
type CommentaryServer struct {
	*httptest.Server

	frames         []steps.Frame
	status         int
	output         []byte
	filename       string
	rejectProgress bool
	hold           <-chan struct{}
	truncate       bool

	mu          sync.Mutex
	events      []ServerEvent
	submissions []ReceivedSubmission
	conns       map[string]*serverConn
	submitted   chan struct{}
}

type serverConn struct {
	ready chan struct{}
	mu    sync.Mutex
	conn  *websocket.Conn
}

// NewCommentaryServer starts a fake service and registers cleanup.
func NewCommentaryServer(t testing.TB, opts ...ServerOption) *CommentaryServer {
	t.Helper()

	s := &CommentaryServer{
		output:    []byte("commentated-video"),
		conns:     make(map[string]*serverConn),
		submitted: make(chan struct{}, 16),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /ws/{id}", s.handleProgress)
	mux.HandleFunc("POST /generate-commentary", s.handleSubmit)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Events returns a copy of the recorded events.
func (s *CommentaryServer) Events() []ServerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ServerEvent(nil), s.events...)
}

// Submissions returns a copy of the received submissions.
func (s *CommentaryServer) Submissions() []ReceivedSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedSubmission(nil), s.submissions...)
}

// Count returns how many events of kind were recorded for clientID.
func (s *CommentaryServer) Count(kind, clientID string) int {
	n := 0
	for _, evt := range s.Events() {
		if evt.Kind == kind && evt.ClientID == clientID {
			n++
		}
	}
	return n
}

// WaitForEvent polls until an event of kind has been recorded for clientID.
func (s *CommentaryServer) WaitForEvent(t testing.TB, kind, clientID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.Count(kind, clientID) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s event from %s; saw %+v", kind, clientID, s.Events())
}

// Submitted signals each time a submission has been read and its frames sent.
func (s *CommentaryServer) Submitted() <-chan struct{} {
	return s.submitted
}

func (s *CommentaryServer) record(kind, clientID string) {
	s.mu.Lock()
	s.events = append(s.events, ServerEvent{Kind: kind, ClientID: clientID})
	s.mu.Unlock()
}

func (s *CommentaryServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.rejectProgress {
		http.NotFound(w, r)
		return
	}
	id := r.PathValue("id")
	sc := &serverConn{ready: make(chan struct{})}
	s.mu.Lock()
	s.conns[id] = sc
	s.mu.Unlock()
	// Recorded before the upgrade response so it orders ahead of any
	// submission the client sends once the handshake completes.
	s.record(EventConnect, id)

	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		close(sc.ready)
		return
	}
	sc.conn = conn
	close(sc.ready)
	defer conn.Close()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.record(EventClose, id)
			} else {
				s.record(EventDisconnect, id)
			}
			return
		}
	}
}

func (s *CommentaryServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sub := ReceivedSubmission{
		ClientID: r.FormValue("client_id"),
		Language: r.FormValue("language"),
	}
	if values, ok := r.MultipartForm.Value["trickshot_name"]; ok && len(values) > 0 {
		sub.HasTrickshotName = true
		sub.TrickshotName = values[0]
	}
	if files := r.MultipartForm.File["video"]; len(files) > 0 {
		sub.Filename = files[0].Filename
		sub.ContentType = files[0].Header.Get("Content-Type")
		if f, err := files[0].Open(); err == nil {
			sub.Video, _ = io.ReadAll(f)
			f.Close()
		}
	}
	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	sc := s.conns[sub.ClientID]
	s.mu.Unlock()
	s.record(EventSubmit, sub.ClientID)

	if sc != nil {
		s.push(sc, r)
	}
	select {
	case s.submitted <- struct{}{}:
	default:
	}

	if s.hold != nil {
		select {
		case <-s.hold:
		case <-r.Context().Done():
			return
		}
	}

	if s.truncate {
		s.dropMidBody(w)
		return
	}
	if s.status != 0 && (s.status < 200 || s.status > 299) {
		http.Error(w, "commentary pipeline failed", s.status)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	if s.filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+s.filename+`"`)
	}
	_, _ = w.Write(s.output)
}

func (s *CommentaryServer) push(sc *serverConn, r *http.Request) {
	select {
	case <-sc.ready:
	case <-r.Context().Done():
		return
	}
	if sc.conn == nil {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, frame := range s.frames {
		data, _ := json.Marshal(frame)
		if err := sc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (s *CommentaryServer) dropMidBody(w http.ResponseWriter) {
	partial := s.output
	if len(partial) > 1 {
		partial = partial[:len(partial)/2]
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", strconv.Itoa(len(s.output)+1))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(partial)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	// Aborting closes the connection before Content-Length is satisfied.
	panic(http.ErrAbortHandler)
}
