package models

import "time"

// Section is a named sub-group of an allocated subject with at most one
// assigned staff member and a shareable join code.
type Section struct {
	ID                  string    `db:"id" json:"id"`
	AllocationSubjectID string    `db:"allocation_subject_id" json:"-"`
	Name                string    `db:"name" json:"section_name"`
	ClassroomCode       string    `db:"classroom_code" json:"classroom_code"`
	StaffID             *string   `db:"staff_id" json:"-"`
	StaffName           *string   `db:"staff_name" json:"-"`
	StaffEmail          *string   `db:"staff_email" json:"-"`
	StaffImage          *string   `db:"staff_image" json:"-"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Staff returns the embedded staff snapshot, nil when unassigned.
func (s *Section) Staff() *StaffSnapshot {
	if s.StaffID == nil {
		return nil
	}
	snapshot := &StaffSnapshot{ID: *s.StaffID, ProfileImage: s.StaffImage}
	if s.StaffName != nil {
		snapshot.Name = *s.StaffName
	}
	if s.StaffEmail != nil {
		snapshot.Email = *s.StaffEmail
	}
	return snapshot
}

// SectionView is the API representation of a section.
type SectionView struct {
	ID            string         `json:"id"`
	SectionName   string         `json:"section_name"`
	ClassroomCode string         `json:"classroom_code"`
	Staff         *StaffSnapshot `json:"staff,omitempty"`
}

// View converts the row into its API shape.
func (s *Section) View() SectionView {
	return SectionView{
		ID:            s.ID,
		SectionName:   s.Name,
		ClassroomCode: s.ClassroomCode,
		Staff:         s.Staff(),
	}
}
