package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var userFlag int64

	ctx := newCommandContext(&userFlag)

	rootCmd := &cobra.Command{
		Use:           "lexibatch-admin",
		Short:         "Administer lexibatch vocabulary databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipStore(cmd) {
				return nil
			}
			_, err := ctx.ensureService(cmd.Context())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Int64VarP(&userFlag, "user", "u", 1, "User ID to act as")

	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newDatabasesCommand(ctx))
	rootCmd.AddCommand(newBatchesCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))
	rootCmd.AddCommand(newRemindCommand(ctx))

	return rootCmd
}
