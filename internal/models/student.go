package models

import "time"

// Student is a canonical student directory record.
type Student struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	ProfileImage *string   `db:"profile_image" json:"profile_image,omitempty"`
	Department   string    `db:"department" json:"department"`
	RegisterNo   string    `db:"register_no" json:"register_no"`
	Semester     int       `db:"semester" json:"semester"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
