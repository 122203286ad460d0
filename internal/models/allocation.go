package models

import "time"

// AllocationKey is the natural key identifying an allocation. String fields
// match case-insensitively.
type AllocationKey struct {
	Department   string `json:"department"`
	SubjectType  string `json:"subject_type"`
	Semester     int    `json:"semester"`
	SemesterType string `json:"semester_type"`
	Regulation   string `json:"regulation"`
}

// Allocation binds a department/semester/regulation combination to a list of
// allocated subjects.
type Allocation struct {
	ID           string    `db:"id" json:"id"`
	Department   string    `db:"department" json:"department"`
	SubjectType  string    `db:"subject_type" json:"subject_type"`
	Semester     int       `db:"semester" json:"semester"`
	SemesterType string    `db:"semester_type" json:"semester_type"`
	Regulation   string    `db:"regulation" json:"regulation"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Key returns the allocation's natural key.
func (a *Allocation) Key() AllocationKey {
	return AllocationKey{
		Department:   a.Department,
		SubjectType:  a.SubjectType,
		Semester:     a.Semester,
		SemesterType: a.SemesterType,
		Regulation:   a.Regulation,
	}
}

// AllocationSubject is one subject row owned by an allocation. Identity within
// an allocation is the subject code; the row id is stable across re-allocations
// that retain the code, which is what keeps its sections alive.
type AllocationSubject struct {
	ID           string  `db:"id" json:"id"`
	AllocationID string  `db:"allocation_id" json:"-"`
	Code         string  `db:"code" json:"code"`
	Name         string  `db:"name" json:"subject"`
	SubjectRef   *string `db:"subject_ref" json:"subject_id,omitempty"`
	Credits      int     `db:"credits" json:"credits"`
	Position     int     `db:"position" json:"-"`
}

// SubjectWithSections is the read-side shape of an allocation subject.
type SubjectWithSections struct {
	AllocationSubject
	Sections []SectionView `json:"sections"`
}

// AllocationDetail is the full allocation document returned by the API. For a
// key with no allocation it acts as the empty-subjects placeholder echoing the
// queried key fields.
type AllocationDetail struct {
	ID           string                `json:"id,omitempty"`
	Department   string                `json:"department"`
	SubjectType  string                `json:"subject_type"`
	Semester     int                   `json:"semester"`
	SemesterType string                `json:"semester_type"`
	Regulation   string                `json:"regulation"`
	Subjects     []SubjectWithSections `json:"subjects"`
}
