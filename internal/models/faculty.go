package models

import "time"

// Faculty is a canonical faculty directory record.
type Faculty struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	ProfileImage *string   `db:"profile_image" json:"profile_image,omitempty"`
	Department   string    `db:"department" json:"department"`
	Designation  string    `db:"designation" json:"designation"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StaffSnapshot is the point-in-time copy of a faculty record embedded in a
// section. It is not kept in sync automatically; the section service owns an
// explicit refresh path.
type StaffSnapshot struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	ProfileImage *string `json:"profile_image,omitempty"`
}
