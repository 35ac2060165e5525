package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/c360studio/c4/model"
	"github.com/c360studio/c4/parser"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// validationReport is the `validate --json` document.
type validationReport struct {
	Name     string                   `json:"name"`
	Valid    bool                     `json:"valid"`
	Stats    model.Stats              `json:"stats"`
	Errors   []parser.ValidationError `json:"errors"`
	Warnings []parser.ValidationError `json:"warnings"`
}

func validateCmd(opts *globalOptions) *cobra.Command {
	var (
		strict bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the workspace and check every reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			m, mf, err := e.loadWorkspace()
			if err != nil {
				return err
			}

			report := validationReport{
				Name:     mf.Name,
				Stats:    m.Stats(),
				Errors:   parser.Resolve(m),
				Warnings: parser.Lint(m),
			}
			report.Valid = len(report.Errors) == 0 && (!strict || len(report.Warnings) == 0)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
			} else {
				printReport(out, report)
			}

			switch {
			case len(report.Errors) > 0:
				return fmt.Errorf("validation failed with %d errors", len(report.Errors))
			case !report.Valid:
				return fmt.Errorf("validation failed with %d warnings (strict)", len(report.Warnings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func printReport(w io.Writer, r validationReport) {
	fmt.Fprintln(w, headerStyle.Render(r.Name))
	s := r.Stats
	for _, row := range []struct {
		label string
		n     int
	}{
		{"persons", s.Persons},
		{"systems", s.Systems},
		{"containers", s.Containers},
		{"components", s.Components},
		{"relationships", s.Relationships},
		{"flows", s.Flows},
		{"deployments", s.Deployments},
	} {
		fmt.Fprintf(w, "  %-14s %s\n", row.label, mutedStyle.Render(fmt.Sprint(row.n)))
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Errors (%d):", len(r.Errors))))
		for _, ve := range r.Errors {
			fmt.Fprintf(w, "  %s %s\n", errorStyle.Render("✗"), ve.Error())
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Warnings (%d):", len(r.Warnings))))
		for _, ve := range r.Warnings {
			fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("!"), ve.Error())
		}
	}

	fmt.Fprintln(w)
	if r.Valid {
		fmt.Fprintf(w, "%s Model is valid\n", successStyle.Render("✓"))
	} else {
		fmt.Fprintf(w, "%s Model is invalid\n", errorStyle.Render("✗"))
	}
}
