package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"sidelines/internal/deps"
	"sidelines/internal/orchestrator"
	"sidelines/internal/preflight"
	"sidelines/internal/steps"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
	progressBarWidth = 24
	connectingLine   = "Connecting to commentary service..."
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	required, optional := deps.Missing(statuses)
	switch {
	case required > 0:
		lines = append(lines, renderStatusLine("Summary", statusError, fmt.Sprintf("%d required missing", required), colorize))
	case optional > 0:
		lines = append(lines, renderStatusLine("Summary", statusWarn, fmt.Sprintf("%d optional missing", optional), colorize))
	default:
		lines = append(lines, renderStatusLine("Summary", statusOK, "all available", colorize))
	}
	for _, s := range statuses {
		switch {
		case s.Available:
			lines = append(lines, renderStatusLine(s.Name, statusOK, fmt.Sprintf("Ready (%s)", s.Path), colorize))
		case s.Optional:
			lines = append(lines, renderStatusLine(s.Name, statusWarn, s.Detail, colorize))
		default:
			lines = append(lines, renderStatusLine(s.Name, statusError, s.Detail, colorize))
		}
	}
	return lines
}

func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// progressLine renders an in-flight state as a single line, for example
// "[##########--------------]  40% 2/5 Generating commentary script".
func progressLine(state orchestrator.State) string {
	return fmt.Sprintf("%s %3.0f%% %d/%d %s",
		progressBar(state.Fraction, progressBarWidth),
		state.Fraction*100,
		int(state.Step), steps.Count,
		stepMessage(state),
	)
}

func stepMessage(state orchestrator.State) string {
	if message := strings.TrimSpace(state.Message); message != "" {
		return message
	}
	return state.Step.Description()
}

// progressPrinter renders orchestrator states as they are published. On a
// terminal it drives a progress bar; otherwise it prints one line per distinct
// update.
type progressPrinter struct {
	out io.Writer
	bar *progressbar.ProgressBar

	mu   sync.Mutex
	last string
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	p := &progressPrinter{out: out}
	if shouldColorize(out) {
		p.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetWidth(progressBarWidth),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetDescription(connectingLine),
		)
	}
	return p
}

func (p *progressPrinter) observe(state orchestrator.State) {
	var line string
	switch state.Phase {
	case orchestrator.Connecting:
		line = connectingLine
	case orchestrator.InFlight:
		line = progressLine(state)
	default:
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if line == p.last {
		return
	}
	p.last = line
	if p.bar == nil {
		fmt.Fprintln(p.out, line)
		return
	}
	if state.Phase == orchestrator.InFlight {
		p.bar.Describe(fmt.Sprintf("[blue]%d/%d[reset] %s", int(state.Step), steps.Count, stepMessage(state)))
		_ = p.bar.Set(int(state.Fraction*100 + 0.5))
		return
	}
	p.bar.Describe(line)
}

// finish leaves the bar at its last value so later output starts on a fresh row.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Exit()
		fmt.Fprintln(p.out)
	}
}
