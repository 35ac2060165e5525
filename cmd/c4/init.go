package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/c4/workspace"
)

func initCmd(opts *globalOptions) *cobra.Command {
	var (
		minimal bool
		example bool
	)

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Initialize a new workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			var name string
			if len(args) > 0 {
				name = args[0]
			}

			res, err := workspace.Init(e.dir, workspace.Options{
				Name:    name,
				Minimal: minimal,
				Example: example,
				Logger:  e.logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Initialized workspace %s in %s\n", successStyle.Render("✓"), res.Name, e.dir)
			for _, f := range res.Files {
				fmt.Fprintf(out, "  created %s\n", f)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("Next steps:"))
			fmt.Fprintln(out, "  1. Edit shared/personas.yaml to define your users")
			fmt.Fprintln(out, "  2. Edit systems/*/system.yaml to describe your systems")
			fmt.Fprintln(out, "  3. Run 'c4 validate' to check the model")
			fmt.Fprintln(out, "  4. Run 'c4 serve' to start the dev server")
			return nil
		},
	}

	cmd.Flags().BoolVar(&minimal, "minimal", false, "Create only the manifest and shared directories")
	cmd.Flags().BoolVar(&example, "example", false, "Include an example model")

	return cmd
}
