package domain

import "time"

// DiaryEntry is a personal foraging note.
type DiaryEntry struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	Note               string    `json:"note"`
	MushroomsCollected int       `json:"mushrooms_collected"`
	Timestamp          time.Time `json:"timestamp"`
}
