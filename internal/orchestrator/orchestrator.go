// Package orchestrator runs one commentary attempt at a time: it opens the
// correlated progress channel, waits for it to be ready, submits the selected
// video and reconciles the two into a single job state.
//
// All state transitions happen here. Observers registered with Watch see every
// state in order, outside the orchestrator's lock.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sidelines/internal/correlation"
	"sidelines/internal/intake"
	"sidelines/internal/logging"
	"sidelines/internal/notifications"
	"sidelines/internal/progress"
	"sidelines/internal/result"
	"sidelines/internal/services"
	"sidelines/internal/steps"
	"sidelines/internal/submission"
)

var (
	// ErrAttemptInProgress is returned when Submit or Reset is called while
	// an attempt is connecting or in flight.
	ErrAttemptInProgress = errors.New("an attempt is already in progress")
	// ErrNotSettled is returned by Reset when no attempt has succeeded or
	// failed since the last reset.
	ErrNotSettled = errors.New("no settled attempt to reset")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("orchestrator closed")
)

const uploadingMessage = "uploading"

// Opener opens a progress channel for a correlation ID.
type Opener interface {
	Open(ctx context.Context, correlationID string) (*progress.Channel, error)
}

// Submitter performs the blocking submission request.
type Submitter interface {
	Submit(ctx context.Context, file *intake.File, params submission.Params) (*submission.Result, error)
}

// Params are the per-attempt job fields.
type Params struct {
	Language      string
	TrickshotName string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDs overrides the correlation ID generator.
func WithIDs(ids correlation.Generator) Option {
	return func(o *Orchestrator) {
		if ids != nil {
			o.ids = ids
		}
	}
}

// WithNotifier publishes terminal outcomes.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithConnectTimeout bounds the wait for the progress channel to become ready.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.connectTimeout = timeout
	}
}

// Orchestrator owns the job state machine.
type Orchestrator struct {
	intake    *intake.Intake
	opener    Opener
	submitter Submitter
	results   *result.Manager
	machine   *steps.Machine
	ids       correlation.Generator
	notifier  notifications.Service
	logger    *slog.Logger

	connectTimeout time.Duration

	// publishMu serializes transitions so observers see states in order.
	publishMu sync.Mutex

	mu       sync.Mutex
	state    State
	held     *result.Handle
	cancel   context.CancelFunc
	running  chan struct{}
	closed   bool
	watchers map[int]func(State)
	nextID   int
}

// New wires an orchestrator from its collaborators.
func New(in *intake.Intake, opener Opener, submitter Submitter, results *result.Manager, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		intake:    in,
		opener:    opener,
		submitter: submitter,
		results:   results,
		machine:   steps.NewMachine(),
		ids:       correlation.UUID{},
		notifier:  noopNotifier{},
		logger:    logging.NewNop(),
		state:     idleState(),
		watchers:  make(map[int]func(State)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.logger = logging.NewComponentLogger(o.logger, "orchestrator")
	return o
}

// State returns the current job state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Watch registers fn to receive every subsequent state. fn must not call
// Submit, Reset or Close. The returned function unregisters it.
func (o *Orchestrator) Watch(fn func(State)) (unwatch func()) {
	if fn == nil {
		return func() {}
	}
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.watchers[id] = fn
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		delete(o.watchers, id)
		o.mu.Unlock()
	}
}

// Select validates and holds a candidate file.
func (o *Orchestrator) Select(c intake.Candidate) (*intake.File, error) {
	return o.intake.Select(c)
}

// Submit runs one attempt to completion and returns its terminal state. The
// error is non-nil only when the attempt could not start.
func (o *Orchestrator) Submit(ctx context.Context, params Params) (State, error) {
	o.publishMu.Lock()
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.publishMu.Unlock()
		return State{}, ErrClosed
	}
	if o.state.Phase.Busy() {
		o.mu.Unlock()
		o.publishMu.Unlock()
		return State{}, ErrAttemptInProgress
	}
	file := o.intake.Selected()
	if file == nil {
		o.mu.Unlock()
		err := services.Wrap(services.ErrValidation, "orchestrator", "submit", "no file selected", nil)
		final := o.commitLocked(failedState("", err))
		o.publishMu.Unlock()
		return final, nil
	}

	prior := o.held
	o.held = nil
	attemptCtx, cancel := context.WithCancel(ctx)
	id := o.ids.Next()
	attemptCtx = services.WithCorrelationID(attemptCtx, id)
	o.cancel = cancel
	o.running = make(chan struct{})
	running := o.running
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.cancel = nil
		o.running = nil
		o.mu.Unlock()
		close(running)
	}()

	logger := logging.WithContext(attemptCtx, o.logger)
	if prior != nil {
		o.release(logger, prior)
	}
	o.commitLocked(connectingState(id))
	o.publishMu.Unlock()

	logger.Info("attempt started",
		logging.String("file", file.Name),
		logging.String("language", params.Language),
		logging.Bool("named", params.TrickshotName != ""),
	)
	started := time.Now()
	final := o.run(attemptCtx, logger, id, file, params)

	if final.Phase == Failed {
		logger.Warn("attempt failed",
			logging.String("kind", final.Kind.String()),
			logging.String("detail", final.Detail),
			logging.Duration("elapsed", time.Since(started)),
		)
	} else {
		logger.Info("attempt succeeded",
			logging.String("result", final.Result.Path()),
			logging.Int64("bytes", final.Result.Size()),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	o.notify(context.WithoutCancel(ctx), logger, file, params, final)
	return final, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, id string, file *intake.File, params Params) State {
	openCtx := ctx
	if o.connectTimeout > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(ctx, o.connectTimeout)
		defer cancel()
	}
	channel, err := o.opener.Open(openCtx, id)
	if err != nil {
		if ctx.Err() != nil {
			err = services.Wrap(services.ErrCanceled, "orchestrator", "open channel", "attempt canceled", err)
		} else if !errors.Is(err, services.ErrChannel) {
			err = services.Wrap(services.ErrChannel, "orchestrator", "open channel", "", err)
		}
		o.machine.Reset()
		return o.publish(failedState(id, err))
	}

	o.machine.Reset()
	o.publish(inFlightState(id, o.machine.Set(steps.Uploading, uploadingMessage)))

	var payload *submission.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o.pump(gctx, logger, id, channel)
		return nil
	})
	g.Go(func() error {
		defer channel.Close()
		res, err := o.submitter.Submit(gctx, file, submission.Params{
			ClientID:      id,
			Language:      params.Language,
			TrickshotName: params.TrickshotName,
		})
		if err != nil {
			return err
		}
		payload = res
		return nil
	})
	err = g.Wait()

	// The channel is closed and the pump has stopped by now; Close again in
	// case the submission goroutine never ran its defer.
	_ = channel.Close()
	if chErr := channel.Err(); chErr != nil {
		logger.Debug("progress channel ended early", logging.Error(chErr))
	}
	o.machine.Reset()

	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, services.ErrCanceled) {
			err = services.Wrap(services.ErrCanceled, "orchestrator", "submit", "attempt canceled", err)
		}
		return o.publish(failedState(id, err))
	}

	handle, err := o.results.Adopt(result.Payload{
		Body:        payload.Body,
		ContentType: payload.ContentType,
		Filename:    payload.Filename,
	})
	if err != nil {
		return o.publish(failedState(id, services.Wrap(services.ErrTransport, "orchestrator", "adopt result", "", err)))
	}

	o.mu.Lock()
	o.held = handle
	o.mu.Unlock()
	return o.publish(succeededState(id, handle))
}

// pump applies frames until the channel ends. Cancellation closes the channel
// immediately; frames still in flight are drained and dropped.
func (o *Orchestrator) pump(ctx context.Context, logger *slog.Logger, id string, channel *progress.Channel) {
	sampler := logging.NewProgressSampler()
	frames := channel.Frames()
	canceled := ctx.Done()
	stopped := false
	for {
		select {
		case <-canceled:
			canceled = nil
			stopped = true
			go channel.Close()
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if stopped {
				continue
			}
			snap := o.machine.Apply(frame)
			if sampler.ShouldLog(frame.Step, frame.Message) {
				logger.Info("progress",
					logging.Int(logging.FieldStep, frame.Step),
					logging.String("message", frame.Message),
					logging.Float64("fraction", steps.Fraction(frame.Step)),
				)
			}
			o.publish(inFlightState(id, snap))
		}
	}
}

// Cancel aborts the running attempt. It reports whether one was running.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Reset releases the held result, clears the selection and returns to Idle.
// It is only valid from Succeeded or Failed.
func (o *Orchestrator) Reset() error {
	o.publishMu.Lock()
	defer o.publishMu.Unlock()

	o.mu.Lock()
	if o.state.Phase.Busy() {
		o.mu.Unlock()
		return ErrAttemptInProgress
	}
	if !o.state.Phase.Terminal() {
		o.mu.Unlock()
		return ErrNotSettled
	}
	held := o.held
	o.held = nil
	o.mu.Unlock()

	if held != nil {
		o.release(o.logger, held)
	}
	o.intake.Clear()
	o.machine.Reset()
	o.commitLocked(idleState())
	return nil
}

// Close cancels any running attempt, waits for it to settle and releases the
// held result. Later calls to Submit fail with ErrClosed.
func (o *Orchestrator) Close() error {
	o.Cancel()
	o.mu.Lock()
	running := o.running
	o.closed = true
	o.mu.Unlock()
	if running != nil {
		<-running
	}

	o.mu.Lock()
	held := o.held
	o.held = nil
	o.mu.Unlock()
	if held != nil {
		o.release(o.logger, held)
	}
	if n := o.results.Outstanding(); n > 0 {
		o.logger.Debug("releasing outstanding results", logging.Int("count", n))
		o.results.ReleaseAll()
	}
	return nil
}

func (o *Orchestrator) release(logger *slog.Logger, handle *result.Handle) {
	if err := o.results.Release(handle); err != nil && !errors.Is(err, result.ErrReleased) {
		logger.Warn("release result failed", logging.Error(err))
	}
}

// publish records a transition from the attempt goroutines.
func (o *Orchestrator) publish(next State) State {
	o.publishMu.Lock()
	defer o.publishMu.Unlock()
	return o.commitLocked(next)
}

// commitLocked stores next and delivers it. publishMu must be held.
func (o *Orchestrator) commitLocked(next State) State {
	if next.Phase != InFlight {
		o.logger.Debug("state changed",
			logging.String(logging.FieldState, next.Phase.String()),
			logging.String(logging.FieldCorrelationID, next.CorrelationID),
		)
	}
	o.mu.Lock()
	o.state = next
	watchers := make([]func(State), 0, len(o.watchers))
	for i := 0; i < o.nextID; i++ {
		if fn, ok := o.watchers[i]; ok {
			watchers = append(watchers, fn)
		}
	}
	o.mu.Unlock()

	for _, fn := range watchers {
		fn(next)
	}
	return next
}

func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, file *intake.File, params Params, final State) {
	name := params.TrickshotName
	if name == "" {
		name = file.Name
	}
	event := notifications.EventJobSucceeded
	payload := notifications.Payload{"name": name, "file": file.Name}
	switch {
	case final.Phase == Failed && final.Kind == services.KindCanceled:
		event = notifications.EventJobCanceled
	case final.Phase == Failed:
		event = notifications.EventJobFailed
		payload["kind"] = final.Kind.String()
		payload["error"] = final.Detail
	}
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, notifications.Event, notifications.Payload) error {
	return nil
}
