package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/lexibatch/internal/auth"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:         "token",
		Short:       "Issue a development access token for the user",
		Annotations: map[string]string{"skipStore": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.userID() <= 0 {
				return fmt.Errorf("user id must be positive")
			}
			token, err := auth.GenerateAccessToken(ctx.userID(), ctx.configValue().JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
