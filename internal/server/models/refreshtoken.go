package models

import "time"

// RefreshToken is the single stored refresh token of a user.
type RefreshToken struct {
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
}
