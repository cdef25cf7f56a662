package preflight

import (
	"context"

	"sidelines/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckServerHealth(ctx, cfg.HealthURL()),
	}

	if base, err := cfg.ProgressBaseURL(); err != nil {
		results = append(results, Result{Name: progressCheckName, Detail: err.Error()})
	} else {
		results = append(results, CheckProgressChannel(ctx, base))
	}

	results = append(results, CheckDirectoryAccess("Spool directory", cfg.Paths.SpoolDir))
	results = append(results, CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
