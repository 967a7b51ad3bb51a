package domain

import "time"

// Thread is a persisted conversation. UserID is empty for anonymous threads;
// threads never cross the authenticated/anonymous boundary when listed.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const MaxThreadTitleLength = 60
