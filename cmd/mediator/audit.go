package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAuditCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List the most recent audit events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.audit == nil {
				return errors.New("audit store disabled, set MEDIATOR_AUDIT_PATH")
			}
			events, err := a.audit.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range events {
				fmt.Fprintf(out, "%s %-8s %s %s", e.CreatedAt.Format(time.RFC3339), e.Outcome, e.Kind, e.Request)
				if e.Error != "" {
					fmt.Fprintf(out, " error=%q", e.Error)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of events")
	return cmd
}
