package domain

import "time"

// Notification types.
const (
	NotificationFriendRequested = "FRIEND_REQUESTED"
	NotificationFriendAccepted  = "FRIEND_ACCEPTED"
	NotificationVacationInvite  = "VACATION_INVITE"
	NotificationMemberAccepted  = "MEMBER_ACCEPTED"
)

// Notification is an in-app message for a user. SubjectID points at the
// entity the notification is about (friendship, vacation, ...).
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	ActorID   string     `json:"actor_id,omitempty"`
	SubjectID string     `json:"subject_id,omitempty"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Read reports whether the notification has been read.
func (n *Notification) Read() bool {
	return n.ReadAt != nil
}
