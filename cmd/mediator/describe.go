package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fxsml/mediator/config"
)

func newDescribeCmd(a *app) *cobra.Command {
	var showEnv bool
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the compiled chain of every request type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if showEnv {
				for _, key := range config.Keys() {
					fmt.Fprintln(out, key)
				}
				return nil
			}
			for _, c := range a.mediator.Table().Chains() {
				req := c.Request()
				fmt.Fprintf(out, "%s (%s)\n", req.Type, req.Kind)
				for i, id := range c.Links() {
					fmt.Fprintf(out, "  %d. %s\n", i+1, id)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showEnv, "env", false, "list the environment variables instead")
	return cmd
}
