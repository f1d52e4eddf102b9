package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/lexibatch/pkg/models"
)

// DefaultNotificationHour is used for users without stored settings
const DefaultNotificationHour = 9

// GetSettings returns reminder settings, falling back to defaults
func (s *Store) GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.get(ctx, &settings,
		`SELECT user_id, notification_enabled, notification_hour, telegram_chat_id, updated_at
		 FROM user_settings WHERE user_id = ?`, userID)
	if errors.Is(err, ErrNotFound) {
		return &models.UserSettings{
			UserID:              userID,
			NotificationEnabled: true,
			NotificationHour:    DefaultNotificationHour,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

// UpsertSettings creates or updates a user's reminder settings
func (s *Store) UpsertSettings(ctx context.Context, settings *models.UserSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	_, err := s.exec(ctx,
		`INSERT INTO user_settings (user_id, notification_enabled, notification_hour, telegram_chat_id, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			notification_enabled = excluded.notification_enabled,
			notification_hour = excluded.notification_hour,
			telegram_chat_id = excluded.telegram_chat_id,
			updated_at = excluded.updated_at`,
		settings.UserID, settings.NotificationEnabled, settings.NotificationHour,
		settings.TelegramChatID, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ListUsersForNotification returns users who want reminders at hour
func (s *Store) ListUsersForNotification(ctx context.Context, hour int) ([]models.UserSettings, error) {
	var out []models.UserSettings
	err := s.selectRows(ctx, &out,
		`SELECT user_id, notification_enabled, notification_hour, telegram_chat_id, updated_at
		 FROM user_settings WHERE notification_enabled = ? AND notification_hour = ? AND telegram_chat_id <> 0
		 ORDER BY user_id`, true, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return out, nil
}
