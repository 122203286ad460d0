package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuskit/campus-admin-api/internal/models"
)

// FacultyRepository reads the faculty directory.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs the repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

const facultyColumns = `id, name, email, profile_image, department, designation, active, created_at, updated_at`

// FindByID returns a faculty record by id; sql.ErrNoRows when absent.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	const query = `SELECT ` + facultyColumns + ` FROM faculty WHERE id = $1 LIMIT 1`
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty by id: %w", err)
	}
	return &faculty, nil
}

// FindByEmail returns a faculty record by email, case-insensitively.
func (r *FacultyRepository) FindByEmail(ctx context.Context, email string) (*models.Faculty, error) {
	const query = `SELECT ` + facultyColumns + ` FROM faculty WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty by email: %w", err)
	}
	return &faculty, nil
}

// ListByDepartment returns the active faculty roster for a department.
func (r *FacultyRepository) ListByDepartment(ctx context.Context, department string) ([]models.FacultySummary, error) {
	const query = `SELECT id, name, email, profile_image, designation FROM faculty
WHERE LOWER(department) = LOWER($1) AND active = TRUE
ORDER BY name ASC`
	var roster []models.FacultySummary
	if err := r.db.SelectContext(ctx, &roster, query, department); err != nil {
		return nil, fmt.Errorf("list faculty by department: %w", err)
	}
	return roster, nil
}
