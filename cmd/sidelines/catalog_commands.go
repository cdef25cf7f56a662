package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sidelines/internal/language"
	"sidelines/internal/steps"
)

type languageRow struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Native  string `json:"native"`
	Default bool   `json:"default"`
}

type stepRow struct {
	Index       int     `json:"index"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Fraction    float64 `json:"fraction"`
}

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List commentary languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			def := ""
			if cfg, err := ctx.ensureConfig(); err == nil && cfg != nil {
				def = cfg.Job.Language
			}
			options := language.Options(def)
			if asJSON {
				rows := make([]languageRow, 0, len(options))
				for _, opt := range options {
					rows = append(rows, languageRow(opt))
				}
				return writeJSON(cmd, rows)
			}
			rows := make([][]string, 0, len(options))
			for _, opt := range options {
				marker := ""
				if opt.Default {
					marker = "*"
				}
				rows = append(rows, []string{opt.Code, opt.Name, opt.Native, marker})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableLayout{
				headers: []string{"Code", "Language", "Native", "Default"},
				rows:    rows,
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStepsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:         "steps",
		Short:       "List the processing steps reported during a job",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			all := append([]steps.Step{steps.Uploading}, steps.Catalog()...)
			if asJSON {
				rows := make([]stepRow, 0, len(all))
				for _, s := range all {
					rows = append(rows, stepRow{
						Index:       int(s),
						Label:       s.Label(),
						Description: s.Description(),
						Fraction:    steps.Fraction(int(s)),
					})
				}
				return writeJSON(cmd, rows)
			}
			rows := make([][]string, 0, len(all))
			for _, s := range all {
				rows = append(rows, []string{
					fmt.Sprintf("%d", int(s)),
					s.Label(),
					s.Description(),
					fmt.Sprintf("%.0f%%", steps.Fraction(int(s))*100),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableLayout{
				headers: []string{"#", "Step", "Description", "Progress"},
				rows:    rows,
				aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func joinCodes(codes []string) string {
	return strings.Join(codes, ", ")
}
