package models

import "time"

// Video is the metadata row of an uploaded video. The content lives in
// object storage under Path.
type Video struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Path      string    `db:"path"`
	GameID    *int64    `db:"game_id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
