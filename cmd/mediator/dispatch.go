package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fxsml/mediator"
	"github.com/fxsml/mediator/internal/sample"
)

func newSendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a command",
	}

	var create sample.CreateUserCommand
	createCmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := mediator.SendAs[sample.UserDto](cmd.Context(), a.mediator, create)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "user name")
	createCmd.Flags().StringVar(&create.RequestID, "request-id", "", "idempotency key")

	var (
		update    sample.UpdateUserCommand
		expiresIn time.Duration
	)
	updateCmd := &cobra.Command{
		Use:   "update-user",
		Short: "Rename a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if expiresIn > 0 {
				update.ExpiresAt = time.Now().Add(expiresIn)
			}
			return a.mediator.Send(cmd.Context(), update)
		},
	}
	updateCmd.Flags().IntVar(&update.ID, "id", 0, "user id")
	updateCmd.Flags().StringVar(&update.Name, "name", "", "new user name")
	updateCmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "reject the command after this duration")

	cmd.AddCommand(createCmd, updateCmd)
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query",
	}

	var get sample.GetUserQuery
	getCmd := &cobra.Command{
		Use:   "get-user",
		Short: "Get a user by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := mediator.QueryAs[sample.UserDto](cmd.Context(), a.mediator, get)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	getCmd.Flags().IntVar(&get.ID, "id", 0, "user id")

	listCmd := &cobra.Command{
		Use:   "get-users",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := mediator.QueryAs[sample.UsersDto](cmd.Context(), a.mediator, sample.GetUsersQuery{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), users)
		},
	}

	cmd.AddCommand(getCmd, listCmd)
	return cmd
}
