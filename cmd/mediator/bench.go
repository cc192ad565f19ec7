package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fxsml/mediator/internal/sample"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		requests    int
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Create users concurrently and report dispatch counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if requests <= 0 || concurrency <= 0 {
				return errors.New("requests and concurrency must be positive")
			}
			start := time.Now()
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i := range requests {
				g.Go(func() error {
					_, err := a.mediator.SendResult(ctx, sample.CreateUserCommand{Name: fmt.Sprintf("user-%d", i+1)})
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			s := a.counters.Snapshot()
			elapsed := time.Since(start)
			fmt.Fprintf(cmd.OutOrStdout(), "requests=%d success=%d failure=%d cancel=%d elapsed=%s\n",
				s.Total(), s.Success, s.Failure, s.Cancel, elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVarP(&requests, "requests", "n", 1000, "number of commands to send")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 16, "number of concurrent senders")
	return cmd
}
