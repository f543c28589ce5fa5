package model

import "time"

// User is a registered account that can own tasks, place bids and receive
// notifications.
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"uniqueIndex"`
	DisplayName    string
	TelegramChatID int64 `gorm:"index"` // 0 when no Telegram chat is linked
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
