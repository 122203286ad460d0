package models

import "time"

// InvitationStatus is the lifecycle state of a classroom invitation.
// PENDING is the only non-terminal state; the transition to EXPIRED happens
// lazily when the invitation is next read or acted on.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

// ClassroomInvitation is a token-based, time-boxed offer for a specific email
// to join a specific section in a specific role.
type ClassroomInvitation struct {
	ID        string           `db:"id" json:"id"`
	SectionID string           `db:"section_id" json:"section_id"`
	Email     string           `db:"email" json:"email"`
	InvitedBy string           `db:"invited_by" json:"invited_by"`
	Role      UserRole         `db:"role" json:"role"`
	Status    InvitationStatus `db:"status" json:"status"`
	Token     string           `db:"token" json:"-"`
	ExpiresAt time.Time        `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// IsExpired reports whether a pending invitation's deadline has passed.
func (i *ClassroomInvitation) IsExpired(now time.Time) bool {
	return i.Status == InvitationPending && i.ExpiresAt.Before(now)
}
