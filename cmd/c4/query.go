package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/c4/query"
)

func queryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <jsonpath>",
		Short: "Evaluate a JSONPath expression against the model",
		Example: `  c4 query '$.systems[*].id'
  c4 query '$.containers[?(@.systemId=="shop")].technology'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query.Compile(args[0])
			if err != nil {
				return err
			}

			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			m, _, err := e.loadWorkspace()
			if err != nil {
				return err
			}

			v, err := q.Eval(cmd.Context(), m)
			if err != nil {
				return fmt.Errorf("query %s: %w", q, err)
			}
			s, err := query.Format(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}
