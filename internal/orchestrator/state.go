package orchestrator

import (
	"sidelines/internal/result"
	"sidelines/internal/services"
	"sidelines/internal/steps"
)

// Phase is the coarse job state.
type Phase int

const (
	Idle Phase = iota
	Connecting
	InFlight
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether an attempt owns the channel or submission.
func (p Phase) Busy() bool {
	return p == Connecting || p == InFlight
}

// Terminal reports whether the attempt has settled.
func (p Phase) Terminal() bool {
	return p == Succeeded || p == Failed
}

// State is a point-in-time view of the job. Only the fields relevant to Phase
// are populated.
type State struct {
	Phase         Phase
	CorrelationID string

	// InFlight
	Step     steps.Step
	Message  string
	Fraction float64

	// Succeeded
	Result *result.Handle

	// Failed
	Kind   services.Kind
	Detail string
	Err    error
}

func idleState() State {
	return State{Phase: Idle}
}

func connectingState(id string) State {
	return State{Phase: Connecting, CorrelationID: id}
}

func inFlightState(id string, snap steps.Snapshot) State {
	return State{
		Phase:         InFlight,
		CorrelationID: id,
		Step:          snap.Step,
		Message:       snap.Message,
		Fraction:      snap.Fraction,
	}
}

func succeededState(id string, handle *result.Handle) State {
	return State{Phase: Succeeded, CorrelationID: id, Result: handle, Fraction: 1}
}

func failedState(id string, err error) State {
	return State{
		Phase:         Failed,
		CorrelationID: id,
		Kind:          services.Classify(err),
		Detail:        err.Error(),
		Err:           err,
	}
}
