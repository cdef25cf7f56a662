package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"sidelines/internal/deps"
	"sidelines/internal/orchestrator"
	"sidelines/internal/steps"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Commentary service", statusError, "unreachable", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Commentary service:", "[ERROR] unreachable")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Sidelines", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "Player", Optional: true, Detail: `binary "mpv" not found`},
		{Name: "Opener", Available: true, Path: "/usr/bin/xdg-open"},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[WARN] 1 optional missing") {
		t.Fatalf("expected warn summary first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], `[WARN] binary "mpv" not found`) {
		t.Fatalf("unexpected player line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] Ready (/usr/bin/xdg-open)") {
		t.Fatalf("unexpected opener line %q", lines[2])
	}

	lines = dependencyLines([]deps.Status{{Name: "Tool", Detail: "missing"}}, false)
	if !strings.Contains(lines[0], "[ERROR] 1 required missing") {
		t.Fatalf("expected error summary, got %q", lines[0])
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0, 4); got != "[----]" {
		t.Fatalf("empty bar %q", got)
	}
	if got := progressBar(0.5, 4); got != "[##--]" {
		t.Fatalf("half bar %q", got)
	}
	if got := progressBar(2, 4); got != "[####]" {
		t.Fatalf("clamped bar %q", got)
	}
}

func TestProgressPrinterDedupes(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)
	inFlight := func(step steps.Step, message string) orchestrator.State {
		return orchestrator.State{
			Phase:    orchestrator.InFlight,
			Step:     step,
			Message:  message,
			Fraction: steps.Fraction(int(step)),
		}
	}
	p.observe(orchestrator.State{Phase: orchestrator.Connecting})
	p.observe(inFlight(steps.Uploading, ""))
	p.observe(inFlight(steps.Analyze, "Analyzing video"))
	p.observe(inFlight(steps.Analyze, "Analyzing video"))
	p.observe(orchestrator.State{Phase: orchestrator.Succeeded})
	p.finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[1], "0/5 Uploading video") {
		t.Fatalf("expected step description fallback, got %q", lines[1])
	}
	if !strings.Contains(lines[2], " 20% 1/5 Analyzing video") {
		t.Fatalf("unexpected progress line %q", lines[2])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
