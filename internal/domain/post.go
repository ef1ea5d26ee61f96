package domain

import "time"

// Post is a feed entry, optionally linked to a vacation.
type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"image_url,omitempty"`
	VacationID *string   `json:"vacation_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
