package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// execute runs the command line args and releases every resource the
// command acquired, also when it failed.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	a := &app{}
	defer func() {
		err = errors.Join(err, a.close(context.WithoutCancel(ctx)))
	}()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "mediator",
		Short: "In-process command and query dispatch",
		Long: `mediator dispatches commands and queries of the sample user service
through compiled behavior chains.

Configuration is read from MEDIATOR_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr(), logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override MEDIATOR_LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newDescribeCmd(a),
		newSendCmd(a),
		newQueryCmd(a),
		newBenchCmd(a),
		newAuditCmd(a),
		newServeCmd(a),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
