// Package steps models the fixed catalog of remote processing stages and the
// state machine that tracks which stage the server last reported.
package steps

import (
	"fmt"
	"sync"
)

// Step identifies a processing stage. Step 0 means the job has not started
// yet (the upload is still in progress); steps 1..Count follow the server's
// pipeline.
type Step int

const (
	Uploading Step = iota
	Analyze
	Script
	Voice
	CrowdAudio
	Combine
)

// Count is the number of processing stages (N). Frames report steps in [0, Count].
const Count = int(Combine)

var labels = [...]string{
	"uploading",
	"analyze",
	"script",
	"voice",
	"crowd audio",
	"combine",
}

var descriptions = [...]string{
	"Uploading video",
	"Analyzing video",
	"Generating commentary script",
	"Generating commentary audio",
	"Generating crowd noise",
	"Combining video with audio",
}

// Valid reports whether s lies within [0, Count].
func (s Step) Valid() bool {
	return s >= Uploading && int(s) <= Count
}

// Label returns the short catalog name.
func (s Step) Label() string {
	if !s.Valid() {
		return fmt.Sprintf("step %d", int(s))
	}
	return labels[s]
}

// Description returns the human-readable status line for the stage.
func (s Step) Description() string {
	if !s.Valid() {
		return fmt.Sprintf("Step %d", int(s))
	}
	return descriptions[s]
}

func (s Step) String() string {
	return s.Label()
}

// Catalog returns the processing stages 1..Count in pipeline order.
func Catalog() []Step {
	out := make([]Step, 0, Count)
	for s := Analyze; int(s) <= Count; s++ {
		out = append(out, s)
	}
	return out
}

// Frame is a single progress update pushed by the server.
type Frame struct {
	Step    int    `json:"step"`
	Message string `json:"message"`
}

// Fraction returns step / Count clamped to [0, 1].
func Fraction(step int) float64 {
	f := float64(step) / float64(Count)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// Snapshot is a point-in-time copy of the machine.
type Snapshot struct {
	Step     Step
	Message  string
	Fraction float64
}

// Machine holds the current step and status text. The server is the sole
// authority on ordering: Apply never rejects a regressing step.
type Machine struct {
	mu      sync.Mutex
	step    Step
	message string
}

// NewMachine returns a machine at step 0 with an empty message.
func NewMachine() *Machine {
	return &Machine{}
}

// Apply overwrites the current step and message with the frame's values.
func (m *Machine) Apply(frame Frame) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = Step(frame.Step)
	m.message = frame.Message
	return m.snapshotLocked()
}

// Set is Apply for callers that already hold a typed step.
func (m *Machine) Set(step Step, message string) Snapshot {
	return m.Apply(Frame{Step: int(step), Message: message})
}

// Reset returns the machine to step 0 with an empty message.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = Uploading
	m.message = ""
}

// Snapshot returns the current values.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Fraction returns the progress fraction for display.
func (m *Machine) Fraction() float64 {
	return m.Snapshot().Fraction
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		Step:     m.step,
		Message:  m.message,
		Fraction: Fraction(int(m.step)),
	}
}
