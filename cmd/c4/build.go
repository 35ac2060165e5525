package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/c4/export"
	"github.com/c360studio/c4/parser"
)

func buildCmd(opts *globalOptions) *cobra.Command {
	var (
		output  string
		formats []string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Export the model to the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("output") {
				e.cfg.Build.Output = output
			}
			if cmd.Flags().Changed("format") {
				e.cfg.Build.Formats = formats
			}
			fs, err := export.ParseFormats(e.cfg.Build.Formats)
			if err != nil {
				return err
			}

			m, _, err := e.loadWorkspace()
			if err != nil {
				return err
			}
			if verrs := parser.Resolve(m); len(verrs) > 0 {
				for _, ve := range verrs {
					e.logger.Error("Validation error", "path", ve.Path, "message", ve.Message)
				}
				return fmt.Errorf("validation failed with %d errors; run 'c4 validate' for details", len(verrs))
			}

			outDir := e.resolvePath(e.cfg.Build.Output)
			exp := export.NewExporter(m, outDir,
				export.WithBaseIRI(e.cfg.Build.BaseIRI),
				export.WithLogger(e.logger))
			written, err := exp.Export(fs...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range written {
				if rel, err := filepath.Rel(e.dir, p); err == nil {
					p = rel
				}
				fmt.Fprintf(out, "%s wrote %s\n", successStyle.Render("✓"), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from config: dist)")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "Export formats (json, yaml, turtle, ntriples)")

	return cmd
}
