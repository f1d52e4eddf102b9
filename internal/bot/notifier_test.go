package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lexibatch/internal/logging"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestReminderText(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{1, "You have 1 card due for review. Keep your streak going!"},
		{7, "You have 7 cards due for review. Keep your streak going!"},
	}
	for _, tt := range tests {
		if got := ReminderText(tt.count); got != tt.want {
			t.Errorf("ReminderText(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestSendReminder(t *testing.T) {
	fake := &fakeSender{}
	n := newNotifier(fake, "https://app.example/study", logging.NewNop())

	if err := n.SendReminder(context.Background(), 99, 3); err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.sent))
	}
	msg := fake.sent[0]
	if msg.ChatID != 99 || msg.Text != ReminderText(3) {
		t.Fatalf("unexpected message %+v", msg)
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(markup.InlineKeyboard) != 1 || *markup.InlineKeyboard[0][0].URL != "https://app.example/study" {
		t.Fatalf("expected review button, got %#v", msg.ReplyMarkup)
	}
}

func TestSendReminderError(t *testing.T) {
	boom := errors.New("network down")
	n := newNotifier(&fakeSender{err: boom}, "", logging.NewNop())
	if err := n.SendReminder(context.Background(), 1, 1); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New("", "", nil); err == nil {
		t.Fatal("expected error for empty token")
	}
}
