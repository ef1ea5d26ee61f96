package domain

import "time"

// Vacation member roles and invite statuses.
const (
	MemberRoleOwner  = "OWNER"
	MemberRoleMember = "MEMBER"

	MemberStatusInvited  = "INVITED"
	MemberStatusAccepted = "ACCEPTED"
)

// Vacation is a trip plan owned by one user and shared with members.
type Vacation struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartsOn    *time.Time `json:"starts_on,omitempty"`
	EndsOn      *time.Time `json:"ends_on,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// VacationMember links a user to a vacation. The owner always has an
// ACCEPTED membership row with role OWNER.
type VacationMember struct {
	VacationID string    `json:"vacation_id"`
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
