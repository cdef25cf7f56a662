package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"sidelines/internal/config"
	"sidelines/internal/correlation"
	"sidelines/internal/deps"
	"sidelines/internal/progress"
	"sidelines/internal/result"
)

const (
	serverCheckName   = "Commentary service"
	progressCheckName = "Progress channel"
	checkTimeout      = 5 * time.Second
)

// CheckServerHealth verifies that the service health endpoint answers
// {"status":"ok"}.
func CheckServerHealth(ctx context.Context, healthURL string) Result {
	healthURL = strings.TrimSpace(healthURL)
	if healthURL == "" {
		return Result{Name: serverCheckName, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, healthURL, nil)
	if err != nil {
		return Result{Name: serverCheckName, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: serverCheckName, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: serverCheckName, Detail: fmt.Sprintf("health check failed (%s)", resp.Status)}
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err != nil {
		return Result{Name: serverCheckName, Detail: "health check returned invalid JSON"}
	}
	if !strings.EqualFold(body.Status, "ok") {
		return Result{Name: serverCheckName, Detail: fmt.Sprintf("service reports status %q", body.Status)}
	}
	return Result{Name: serverCheckName, Passed: true, Detail: fmt.Sprintf("%s (ok)", healthURL)}
}

// CheckProgressChannel opens and immediately closes a progress channel with a
// throwaway correlation ID.
func CheckProgressChannel(ctx context.Context, wsBase string) Result {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	channel, err := progress.NewDialer(wsBase, progress.WithHandshakeTimeout(checkTimeout)).
		Open(checkCtx, "preflight-"+correlation.UUID{}.Next())
	if err != nil {
		return Result{Name: progressCheckName, Detail: summarizeNetError(err)}
	}
	_ = channel.Close()
	return Result{Name: progressCheckName, Passed: true, Detail: fmt.Sprintf("%s (handshake ok)", wsBase)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps reports the external programs the CLI may launch.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	player := result.DefaultOpener()
	if cfg != nil && cfg.Output.Player != "" {
		player = cfg.Output.Player
	}
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "Player",
			Command:     player,
			Description: "Opens results for submit --play",
			Optional:    true,
		},
	})
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (service unreachable)"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Sprintf("unreachable (%v)", opErr.Err)
	}
	return err.Error()
}
