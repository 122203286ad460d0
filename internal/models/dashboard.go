package models

// DashboardSection is one synthesized or actual section in the HOD view.
// Sections that exist in storage carry their id, join code and staff snapshot;
// synthesized placeholders carry only the name.
type DashboardSection struct {
	ID            string         `json:"id,omitempty"`
	SectionName   string         `json:"section_name"`
	ClassroomCode string         `json:"classroom_code,omitempty"`
	Staff         *StaffSnapshot `json:"staff,omitempty"`
}

// DashboardSubject is a subject with its merged section list.
type DashboardSubject struct {
	ID       string             `json:"id"`
	Code     string             `json:"code"`
	Subject  string             `json:"subject"`
	Credits  int                `json:"credits"`
	Sections []DashboardSection `json:"sections"`
}

// FacultySummary is the roster entry in the HOD dashboard.
type FacultySummary struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Email        string  `db:"email" json:"email"`
	ProfileImage *string `db:"profile_image" json:"profile_image,omitempty"`
	Designation  string  `db:"designation" json:"designation"`
}

// HodDashboard is the department head presentation view.
type HodDashboard struct {
	SemesterType string             `json:"semester_type"`
	Subjects     []DashboardSubject `json:"subjects"`
	Faculty      []FacultySummary   `json:"faculty"`
}
