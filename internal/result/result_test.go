package result_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"sidelines/internal/result"
)

func newManager(t *testing.T, opts ...result.Option) *result.Manager {
	t.Helper()
	m, err := result.NewManager(filepath.Join(t.TempDir(), "spool"), opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestAdoptSpoolsPayload(t *testing.T) {
	m := newManager(t)
	h, err := m.Adopt(result.Payload{Body: []byte("video"), ContentType: "video/mp4", Filename: "clip.mp4"})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	data, err := os.ReadFile(h.Path())
	if err != nil || string(data) != "video" {
		t.Fatalf("spool content = %q, %v", data, err)
	}
	if !strings.HasPrefix(h.URL(), "file://") || !strings.HasSuffix(h.URL(), ".mp4") {
		t.Fatalf("unexpected url %q", h.URL())
	}
	if h.Size() != 5 || h.ContentType() != "video/mp4" || h.SuggestedName() != "clip.mp4" {
		t.Fatalf("unexpected handle metadata: %+v", h)
	}
	if m.Outstanding() != 1 {
		t.Fatalf("Outstanding = %d, want 1", m.Outstanding())
	}
}

func TestReleaseIsSingleUse(t *testing.T) {
	m := newManager(t)
	h, err := m.Adopt(result.Payload{Body: []byte("x")})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if err := m.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(h.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected spool file removed, got %v", err)
	}
	if err := m.Release(h); !errors.Is(err, result.ErrReleased) {
		t.Fatalf("expected ErrReleased on second release, got %v", err)
	}
	if m.Outstanding() != 0 {
		t.Fatalf("Outstanding = %d, want 0", m.Outstanding())
	}
	if err := m.Release(nil); err != nil {
		t.Fatalf("Release(nil): %v", err)
	}
}

func TestReleaseAll(t *testing.T) {
	m := newManager(t)
	for range 3 {
		if _, err := m.Adopt(result.Payload{Body: []byte("x")}); err != nil {
			t.Fatalf("Adopt: %v", err)
		}
	}
	if got := m.ReleaseAll(); got != 3 {
		t.Fatalf("ReleaseAll = %d, want 3", got)
	}
	if m.Outstanding() != 0 {
		t.Fatalf("Outstanding = %d after ReleaseAll", m.Outstanding())
	}
}

func TestDownloadNaming(t *testing.T) {
	m := newManager(t, result.WithDefaultName("commentated-trickshot.mp4"))
	dir := t.TempDir()

	unnamed, err := m.Adopt(result.Payload{Body: []byte("one")})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	path, err := m.Download(context.Background(), unnamed, result.DownloadOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(path) != "commentated-trickshot.mp4" {
		t.Fatalf("expected default name, got %s", path)
	}

	again, err := m.Download(context.Background(), unnamed, result.DownloadOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(again) != "commentated-trickshot (1).mp4" {
		t.Fatalf("expected collision-free name, got %s", again)
	}

	named, err := m.Adopt(result.Payload{Body: []byte("two"), Filename: "server.mp4"})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	path, err = m.Download(context.Background(), named, result.DownloadOptions{Dir: dir})
	if err != nil || filepath.Base(path) != "server.mp4" {
		t.Fatalf("expected server suggestion, got %s, %v", path, err)
	}
	path, err = m.Download(context.Background(), named, result.DownloadOptions{Dir: dir, Name: "../escape.mp4"})
	if err != nil || path != filepath.Join(dir, "escape.mp4") {
		t.Fatalf("expected caller name confined to dir, got %s, %v", path, err)
	}

	odd, err := m.Adopt(result.Payload{Body: []byte("three"), Filename: "Triple: Bank?.mp4"})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if odd.SuggestedName() != "Triple- Bank.mp4" {
		t.Fatalf("expected sanitized suggestion, got %q", odd.SuggestedName())
	}

	overwritten, err := m.Download(context.Background(), named, result.DownloadOptions{Dir: dir, Name: "server.mp4", Overwrite: true})
	if err != nil || overwritten != filepath.Join(dir, "server.mp4") {
		t.Fatalf("expected overwrite in place, got %s, %v", overwritten, err)
	}
	data, _ := os.ReadFile(overwritten)
	if string(data) != "two" {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := os.Stat(overwritten + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("expected no per-file lock, got %v", err)
	}
}

func TestConcurrentDownloadsPickDistinctNames(t *testing.T) {
	m := newManager(t)
	dir := t.TempDir()
	const workers = 16

	handles := make([]*result.Handle, workers)
	for i := range handles {
		h, err := m.Adopt(result.Payload{Body: []byte(fmt.Sprintf("clip-%d", i))})
		if err != nil {
			t.Fatalf("Adopt: %v", err)
		}
		handles[i] = h
	}

	paths := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paths[i], errs[i] = m.Download(context.Background(), h, result.DownloadOptions{Dir: dir, Name: "out.mp4"})
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, workers)
	for i, path := range paths {
		if errs[i] != nil {
			t.Fatalf("Download %d: %v", i, errs[i])
		}
		if seen[path] {
			t.Fatalf("two downloads wrote %s", path)
		}
		seen[path] = true
		data, err := os.ReadFile(path)
		if err != nil || string(data) != fmt.Sprintf("clip-%d", i) {
			t.Fatalf("download %d: got %q, %v", i, data, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var files int
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			files++
		}
	}
	if files != workers {
		t.Fatalf("expected %d saved files, got %d", workers, files)
	}
}

func TestDownloadAndPlayAfterRelease(t *testing.T) {
	m := newManager(t, result.WithPlayer(result.PlayerFunc(func(context.Context, string) error {
		t.Fatal("player should not run for released handle")
		return nil
	})))
	h, err := m.Adopt(result.Payload{Body: []byte("x")})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	_ = m.Release(h)
	if _, err := m.Download(context.Background(), h, result.DownloadOptions{Dir: t.TempDir()}); !errors.Is(err, result.ErrReleased) {
		t.Fatalf("expected ErrReleased from Download, got %v", err)
	}
	if err := m.Play(context.Background(), h); !errors.Is(err, result.ErrReleased) {
		t.Fatalf("expected ErrReleased from Play, got %v", err)
	}
}

func TestPlayUsesPlayer(t *testing.T) {
	var played string
	m := newManager(t, result.WithPlayer(result.PlayerFunc(func(_ context.Context, path string) error {
		played = path
		return nil
	})))
	h, err := m.Adopt(result.Payload{Body: []byte("x")})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if err := m.Play(context.Background(), h); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if played != h.Path() {
		t.Fatalf("played %q, want %q", played, h.Path())
	}
}

func TestSystemPlayerMissingCommand(t *testing.T) {
	err := result.SystemPlayer{Command: "sidelines-no-such-opener"}.Play(context.Background(), "/tmp/x.mp4")
	if err == nil {
		t.Fatal("expected error for missing opener")
	}
}

func TestNewManagerRequiresDir(t *testing.T) {
	if _, err := result.NewManager("  "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
