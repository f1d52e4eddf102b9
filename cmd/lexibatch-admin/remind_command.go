package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/lexibatch/internal/bot"
	"github.com/example/lexibatch/internal/scheduler"
)

func newRemindCommand(ctx *commandContext) *cobra.Command {
	var chatID int64

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send a due-card reminder to a Telegram chat now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if chatID == 0 {
				settings, err := ctx.service.GetNotificationSettings(cmd.Context(), ctx.userID())
				if err != nil {
					return err
				}
				chatID = settings.TelegramChatID
			}
			if chatID == 0 {
				return fmt.Errorf("no telegram chat configured; pass --chat")
			}
			notifier, err := bot.New(cfg.TelegramBotToken, cfg.AppURL, ctx.logger)
			if err != nil {
				return err
			}
			sched := scheduler.New(ctx.service, notifier, nil, scheduler.Config{Logger: ctx.logger})
			if err := sched.RunManualCheck(cmd.Context(), ctx.userID(), chatID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder check completed for chat %d\n", chatID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Telegram chat ID (defaults to the user's notification settings)")
	return cmd
}
