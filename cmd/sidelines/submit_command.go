package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"sidelines/internal/config"
	"sidelines/internal/intake"
	"sidelines/internal/language"
	"sidelines/internal/notifications"
	"sidelines/internal/orchestrator"
	"sidelines/internal/progress"
	"sidelines/internal/result"
	"sidelines/internal/services"
	"sidelines/internal/submission"
)

type submitOptions struct {
	language  string
	name      string
	output    string
	dir       string
	overwrite bool
	play      bool
	json      bool
}

type submitSummary struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	Status        string `json:"status"`
	File          string `json:"file"`
	Language      string `json:"language"`
	TrickshotName string `json:"trickshot_name,omitempty"`
	Output        string `json:"output,omitempty"`
	Bytes         int64  `json:"bytes,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Error         string `json:"error,omitempty"`
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit <video>",
		Short: "Upload a trickshot video and save the commentated result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runSubmit(cmd, ctx, cfg, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Commentary language code (default from config)")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Trickshot name announced in the commentary")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "File name for the saved result")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Directory to save the result into (default from config)")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Replace an existing file instead of picking a free name")
	cmd.Flags().BoolVar(&opts.play, "play", false, "Open the result with the configured player")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the outcome as JSON instead of live progress")
	return cmd
}

func runSubmit(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, path string, opts submitOptions) error {
	logger := ctx.logger()
	out := cmd.OutOrStdout()

	lang := strings.TrimSpace(opts.language)
	if lang == "" {
		lang = cfg.Job.Language
	}
	if !language.Supported(lang) {
		return fmt.Errorf("unsupported language %q (supported: %s)", lang, joinCodes(language.SupportedCodes()))
	}
	lang = language.ToISO2(lang)

	name := opts.name
	if !cmd.Flags().Changed("name") {
		name = cfg.Job.Name
	}

	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	candidate, err := intake.FromPath(expanded)
	if err != nil {
		return err
	}

	progressURL, err := cfg.ProgressBaseURL()
	if err != nil {
		return err
	}
	results, err := result.NewManager(cfg.Paths.SpoolDir,
		result.WithLogger(logger),
		result.WithDefaultName(cfg.Output.DefaultFilename),
		result.WithPlayer(result.SystemPlayer{Command: cfg.Output.Player}),
	)
	if err != nil {
		return err
	}

	orch := orchestrator.New(
		intake.New(intake.WithMaxBytes(cfg.MaxFileBytes())),
		progress.NewDialer(progressURL,
			progress.WithLogger(logger),
			progress.WithHandshakeTimeout(cfg.ConnectTimeout()),
		),
		submission.NewClient(cfg.SubmitURL(),
			submission.WithTimeout(cfg.RequestTimeout()),
			submission.WithLogger(logger),
		),
		results,
		orchestrator.WithLogger(logger),
		orchestrator.WithNotifier(notifications.NewService(cfg)),
		orchestrator.WithConnectTimeout(cfg.ConnectTimeout()),
	)
	defer orch.Close()

	file, err := orch.Select(candidate)
	if err != nil {
		return err
	}

	var printer *progressPrinter
	if !opts.json {
		printer = newProgressPrinter(out)
		unwatch := orch.Watch(printer.observe)
		defer unwatch()
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	final, err := orch.Submit(runCtx, orchestrator.Params{Language: lang, TrickshotName: name})
	if printer != nil {
		printer.finish()
	}
	if err != nil {
		return err
	}

	summary := submitSummary{
		CorrelationID: final.CorrelationID,
		Status:        final.Phase.String(),
		File:          file.Name,
		Language:      lang,
		TrickshotName: strings.TrimSpace(name),
	}

	if final.Phase == orchestrator.Failed {
		summary.ErrorKind = final.Kind.String()
		summary.Error = final.Detail
		if opts.json {
			if err := writeJSON(cmd, summary); err != nil {
				return err
			}
		} else if final.Kind == services.KindCanceled {
			fmt.Fprintln(out, "Submission canceled")
		}
		return attemptError(final)
	}

	dir := strings.TrimSpace(opts.dir)
	if dir == "" {
		dir = cfg.Paths.DownloadDir
	}
	saved, err := results.Download(context.WithoutCancel(runCtx), final.Result, result.DownloadOptions{
		Name:      opts.output,
		Dir:       dir,
		Overwrite: opts.overwrite || cfg.Output.Overwrite,
	})
	if err != nil {
		return err
	}
	summary.Output = saved
	summary.Bytes = final.Result.Size()
	summary.ContentType = final.Result.ContentType()

	if opts.play {
		if err := results.Play(runCtx, final.Result); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", err)
		}
	}

	if opts.json {
		return writeJSON(cmd, summary)
	}
	fmt.Fprintln(out, renderTable(tableLayout{
		title:   "Commentary ready",
		headers: []string{"Field", "Value"},
		rows: [][]string{
			{"Saved", saved},
			{"Size", formatBytes(summary.Bytes)},
			{"Language", language.DisplayName(lang)},
			{"Job", final.CorrelationID},
		},
	}))
	return nil
}

func attemptError(state orchestrator.State) error {
	if state.Kind == services.KindCanceled {
		return context.Canceled
	}
	if state.Err == nil {
		return errors.New(state.Detail)
	}
	return fmt.Errorf("commentary failed (%s): %w", state.Kind, state.Err)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
