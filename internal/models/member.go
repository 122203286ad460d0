package models

import "time"

// UserModel discriminates which directory a member id points into.
type UserModel string

const (
	UserModelFaculty UserModel = "Faculty"
	UserModelStudent UserModel = "Student"
)

// JoinMethod records how a membership came to exist.
type JoinMethod string

const (
	JoinMethodSelf   JoinMethod = "self"
	JoinMethodInvite JoinMethod = "invite"
)

// ClassroomMember represents one user's membership in one section. At most one
// row exists per (section_id, user_id); the database enforces this.
type ClassroomMember struct {
	ID         string     `db:"id" json:"id"`
	SectionID  string     `db:"section_id" json:"section_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	UserModel  UserModel  `db:"user_model" json:"user_model"`
	Role       UserRole   `db:"role" json:"role"`
	JoinMethod JoinMethod `db:"join_method" json:"join_method"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// ClassMemberDetail joins a membership row with its directory record.
type ClassMemberDetail struct {
	ClassroomMember
	Name         string  `db:"name" json:"name"`
	Email        string  `db:"email" json:"email"`
	ProfileImage *string `db:"profile_image" json:"profile_image,omitempty"`
}
