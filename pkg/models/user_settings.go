package models

import "time"

// UserSettings holds reminder preferences for a user
type UserSettings struct {
	UserID              int64     `json:"user_id" db:"user_id"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // Hour of day for notifications (0-23)
	TelegramChatID      int64     `json:"telegram_chat_id" db:"telegram_chat_id"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}
