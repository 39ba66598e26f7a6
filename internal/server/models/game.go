package models

import "time"

type Game struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
