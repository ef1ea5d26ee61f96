package domain

import "time"

// Memory is a photo attached to a vacation. The bytes live in the storage
// backend; the row keeps only the URL.
type Memory struct {
	ID         string     `json:"id"`
	VacationID string     `json:"vacation_id"`
	UploadedBy string     `json:"uploaded_by"`
	URL        string     `json:"url"`
	Caption    string     `json:"caption,omitempty"`
	TakenOn    *time.Time `json:"taken_on,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
