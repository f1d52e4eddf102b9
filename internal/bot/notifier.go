// Package bot delivers due-card reminders through Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lexibatch/internal/logging"
)

// MenuButton represents a button under a reminder message
type MenuButton struct {
	Text string
	URL  string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the part of tgbotapi.BotAPI the notifier uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends reminder messages to Telegram chats
type Notifier struct {
	api    sender
	appURL string
	logger *slog.Logger
}

// New creates a notifier authorized with token. appURL, when set, is linked
// from a button under each reminder.
func New(token, appURL string, logger *slog.Logger) (*Notifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	n := newNotifier(botAPI, appURL, logger)
	n.logger.Info("telegram notifier authorized", logging.String("account", botAPI.Self.UserName))
	return n, nil
}

func newNotifier(api sender, appURL string, logger *slog.Logger) *Notifier {
	return &Notifier{api: api, appURL: appURL, logger: logging.NewComponentLogger(logger, "telegram")}
}

// ReminderText formats the reminder for count due cards
func ReminderText(count int) string {
	noun := "cards"
	if count == 1 {
		noun = "card"
	}
	return fmt.Sprintf("You have %d %s due for review. Keep your streak going!", count, noun)
}

// SendReminder implements scheduler.Notifier
func (n *Notifier) SendReminder(ctx context.Context, chatID int64, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, ReminderText(count))
	if n.appURL != "" {
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "Start review", URL: n.appURL}}})
	}

	if _, err := n.api.Send(msg); err != nil {
		n.logger.Warn("error sending reminder", logging.Args(logging.Int64("chat_id", chatID), logging.Error(err))...)
		return fmt.Errorf("send reminder to chat %d: %w", chatID, err)
	}
	n.logger.Debug("reminder sent", logging.Args(logging.Int64("chat_id", chatID), logging.Int("due", count))...)
	return nil
}
