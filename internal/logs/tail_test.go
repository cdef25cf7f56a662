package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sidelines/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sidelines.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()
}

func TestLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", offset)
	}

	lines, _, err = logs.Last(path, 10, nil)
	if err != nil || len(lines) != 3 {
		t.Fatalf("expected all lines, got %#v, %v", lines, err)
	}
}

func TestLastFiltersByJob(t *testing.T) {
	path := writeLog(t, ""+
		"10:00:00 INFO [orchestrator] job 1a2b3c4d – attempt started\n"+
		"10:00:01 INFO [orchestrator] job 99999999 – attempt started\n"+
		"10:00:02 INFO [orchestrator] job 1a2b3c4d – attempt succeeded\n",
	)
	lines, _, err := logs.Last(path, 5, logs.JobFilter("1a2b3c4d-0000-4000-8000-000000000000"))
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 matching lines, got %#v", lines)
	}
	if logs.JobFilter("  ") != nil {
		t.Fatal("expected nil matcher for empty id")
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "none.log"), 5, nil)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result, got %#v %d %v", lines, offset, err)
	}
}

type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) emit(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func waitForLines(t *testing.T, c *collector, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d lines, got %#v", n, c.snapshot())
	return nil
}

func TestFollowDeliversCompleteLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, 1, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{}
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 20*time.Millisecond, nil, c.emit)
	}()

	appendLog(t, path, "later\npart")
	got := waitForLines(t, c, 1)
	if got[0] != "later" {
		t.Fatalf("unexpected line %q", got[0])
	}
	time.Sleep(60 * time.Millisecond)
	if n := len(c.snapshot()); n != 1 {
		t.Fatalf("partial line delivered early: %#v", c.snapshot())
	}

	appendLog(t, path, "ial\n")
	got = waitForLines(t, c, 2)
	if got[1] != "partial" {
		t.Fatalf("unexpected joined line %q", got[1])
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop")
	}
}

func TestFollowRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\n")
	_, offset, err := logs.Last(path, 0, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &collector{}
	go func() { _ = logs.Follow(ctx, path, offset, 20*time.Millisecond, nil, c.emit) }()

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	got := waitForLines(t, c, 1)
	if got[0] != "new" {
		t.Fatalf("expected line from rewritten file, got %#v", got)
	}
}
