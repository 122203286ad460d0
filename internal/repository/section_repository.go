package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuskit/campus-admin-api/internal/models"
)

// SectionRepository persists sections as first-class rows keyed to their
// allocation subject.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `id, allocation_subject_id, name, classroom_code, staff_id, staff_name, staff_email, staff_image, created_at, updated_at`

// FindByID returns a section by id; sql.ErrNoRows when absent.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1 LIMIT 1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section by id: %w", err)
	}
	return &section, nil
}

// FindBySubjectAndName returns the section with the exact name under a subject.
func (r *SectionRepository) FindBySubjectAndName(ctx context.Context, subjectID, name string) (*models.Section, error) {
	const query = `SELECT ` + sectionColumns + ` FROM sections WHERE allocation_subject_id = $1 AND name = $2 LIMIT 1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, subjectID, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section by subject and name: %w", err)
	}
	return &section, nil
}

// FindByClassroomCode resolves a section by its join code. Codes are assumed
// unique by construction; the first match wins.
func (r *SectionRepository) FindByClassroomCode(ctx context.Context, code string) (*models.Section, error) {
	const query = `SELECT ` + sectionColumns + ` FROM sections WHERE classroom_code = $1 ORDER BY created_at ASC LIMIT 1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section by classroom code: %w", err)
	}
	return &section, nil
}

// ListBySubjectIDs returns all sections for the given subject rows.
func (r *SectionRepository) ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.Section, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + sectionColumns + ` FROM sections WHERE allocation_subject_id = ANY($1) ORDER BY created_at ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list sections by subjects: %w", err)
	}
	return sections, nil
}

// Create inserts a new section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO sections (id, allocation_subject_id, name, classroom_code, staff_id, staff_name, staff_email, staff_image, created_at, updated_at)
		VALUES (:id, :allocation_subject_id, :name, :classroom_code, :staff_id, :staff_name, :staff_email, :staff_image, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// UpdateStaff overwrites the section's staff snapshot; a nil snapshot clears it.
func (r *SectionRepository) UpdateStaff(ctx context.Context, sectionID string, staff *models.StaffSnapshot) error {
	const query = `UPDATE sections SET staff_id = $2, staff_name = $3, staff_email = $4, staff_image = $5, updated_at = $6 WHERE id = $1`
	var (
		staffID, staffName, staffEmail *string
		staffImage                     *string
	)
	if staff != nil {
		staffID = &staff.ID
		staffName = &staff.Name
		staffEmail = &staff.Email
		staffImage = staff.ProfileImage
	}
	result, err := r.db.ExecContext(ctx, query, sectionID, staffID, staffName, staffEmail, staffImage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update section staff: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated section rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a section. Membership rows cascade at the schema level.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sections WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted section rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
