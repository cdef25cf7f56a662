package result

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Player presents an artifact to the user.
type Player interface {
	Play(ctx context.Context, path string) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, path string) error

func (f PlayerFunc) Play(ctx context.Context, path string) error { return f(ctx, path) }

// SystemPlayer opens files with the desktop's default handler.
type SystemPlayer struct {
	// Command overrides the opener binary.
	Command string
}

// Play starts the opener and returns without waiting for playback to end.
func (p SystemPlayer) Play(ctx context.Context, path string) error {
	name := p.Command
	if name == "" {
		name = DefaultOpener()
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("find opener %q: %w", name, err)
	}
	cmd := exec.CommandContext(ctx, bin, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// DefaultOpener returns the platform file opener used when no player is configured.
func DefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "explorer"
	default:
		return "xdg-open"
	}
}
