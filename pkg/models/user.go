package models

import "time"

// User represents a Telegram user using the bot
type User struct {
	ID                   int64     `json:"id" db:"telegram_id"` // Telegram User ID
	Username             string    `json:"username" db:"username"`
	FirstName            string    `json:"first_name" db:"first_name"`
	LastName             string    `json:"last_name" db:"last_name"`
	NotificationsEnabled bool      `json:"notifications_enabled" db:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}
