package steps

import (
	"math"
	"testing"
)

func TestCatalogHasFiveStagesInOrder(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != Count || Count != 5 {
		t.Fatalf("expected 5 stages, got %d (Count=%d)", len(catalog), Count)
	}
	want := []string{"analyze", "script", "voice", "crowd audio", "combine"}
	for i, step := range catalog {
		if step.Label() != want[i] {
			t.Fatalf("catalog[%d] = %q, want %q", i, step.Label(), want[i])
		}
		if int(step) != i+1 {
			t.Fatalf("catalog[%d] has index %d", i, int(step))
		}
	}
}

func TestStepValidity(t *testing.T) {
	for s := Step(0); int(s) <= Count; s++ {
		if !s.Valid() {
			t.Fatalf("expected %d to be valid", int(s))
		}
	}
	for _, s := range []Step{-1, Step(Count + 1)} {
		if s.Valid() {
			t.Fatalf("expected %d to be invalid", int(s))
		}
		if s.Label() == "" || s.Description() == "" {
			t.Fatalf("expected fallback text for %d", int(s))
		}
	}
}

func TestApplyTracksFractionAfterEachFrame(t *testing.T) {
	m := NewMachine()
	for step := 0; step <= Count; step++ {
		snap := m.Apply(Frame{Step: step, Message: "msg"})
		want := float64(step) / float64(Count)
		if math.Abs(snap.Fraction-want) > 1e-9 {
			t.Fatalf("step %d: fraction = %v, want %v", step, snap.Fraction, want)
		}
		if snap.Fraction < 0 || snap.Fraction > 1 {
			t.Fatalf("fraction out of range: %v", snap.Fraction)
		}
	}
	if m.Fraction() != 1 {
		t.Fatalf("expected fraction 1 at step N, got %v", m.Fraction())
	}
}

func TestApplyIsLastWriterWins(t *testing.T) {
	m := NewMachine()
	m.Apply(Frame{Step: 4, Message: "crowd"})
	snap := m.Apply(Frame{Step: 2, Message: "script again"})
	if snap.Step != Script || snap.Message != "script again" {
		t.Fatalf("expected regressing frame to be applied, got %+v", snap)
	}
	snap = m.Apply(Frame{Step: 2, Message: "duplicate"})
	if snap.Step != Script || snap.Message != "duplicate" {
		t.Fatalf("expected duplicate frame to overwrite message, got %+v", snap)
	}
}

func TestFractionClampsOutOfRangeSteps(t *testing.T) {
	m := NewMachine()
	if got := m.Apply(Frame{Step: 99}).Fraction; got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	if got := m.Apply(Frame{Step: -3}).Fraction; got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestResetReturnsToNeutral(t *testing.T) {
	m := NewMachine()
	m.Set(Voice, "voicing")
	m.Reset()
	snap := m.Snapshot()
	if snap.Step != Uploading || snap.Message != "" || snap.Fraction != 0 {
		t.Fatalf("expected neutral snapshot, got %+v", snap)
	}
}
