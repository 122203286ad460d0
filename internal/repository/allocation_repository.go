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

// AllocationRepository persists allocations and their subject rows.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs the repository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

const allocationColumns = `id, department, subject_type, semester, semester_type, regulation, created_at, updated_at`

// FindByKey resolves an allocation by its five-field natural key. String
// fields match case-insensitively. Returns sql.ErrNoRows when absent.
func (r *AllocationRepository) FindByKey(ctx context.Context, key models.AllocationKey) (*models.Allocation, error) {
	const query = `SELECT ` + allocationColumns + ` FROM allocations
WHERE LOWER(department) = LOWER($1)
  AND LOWER(subject_type) = LOWER($2)
  AND semester = $3
  AND LOWER(semester_type) = LOWER($4)
  AND LOWER(regulation) = LOWER($5)
LIMIT 1`
	var allocation models.Allocation
	if err := r.db.GetContext(ctx, &allocation, query, key.Department, key.SubjectType, key.Semester, key.SemesterType, key.Regulation); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find allocation by key: %w", err)
	}
	return &allocation, nil
}

// FindByPartialKey resolves an allocation ignoring subject type, used by reads
// where the subject-type filter is optional.
func (r *AllocationRepository) FindByPartialKey(ctx context.Context, key models.AllocationKey) (*models.Allocation, error) {
	const query = `SELECT ` + allocationColumns + ` FROM allocations
WHERE LOWER(department) = LOWER($1)
  AND semester = $2
  AND LOWER(semester_type) = LOWER($3)
  AND LOWER(regulation) = LOWER($4)
ORDER BY created_at ASC
LIMIT 1`
	var allocation models.Allocation
	if err := r.db.GetContext(ctx, &allocation, query, key.Department, key.Semester, key.SemesterType, key.Regulation); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find allocation by partial key: %w", err)
	}
	return &allocation, nil
}

// Create inserts a new allocation record.
func (r *AllocationRepository) Create(ctx context.Context, allocation *models.Allocation) error {
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = now
	}
	allocation.UpdatedAt = now
	const query = `INSERT INTO allocations (id, department, subject_type, semester, semester_type, regulation, created_at, updated_at)
		VALUES (:id, :department, :subject_type, :semester, :semester_type, :regulation, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, allocation); err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

// ListSubjects returns the allocation's subject rows in position order.
func (r *AllocationRepository) ListSubjects(ctx context.Context, allocationID string) ([]models.AllocationSubject, error) {
	const query = `SELECT id, allocation_id, code, name, subject_ref, credits, position
FROM allocation_subjects WHERE allocation_id = $1 ORDER BY position ASC`
	var subjects []models.AllocationSubject
	if err := r.db.SelectContext(ctx, &subjects, query, allocationID); err != nil {
		return nil, fmt.Errorf("list allocation subjects: %w", err)
	}
	return subjects, nil
}

// FindSubjectByID resolves a subject row within an allocation.
func (r *AllocationRepository) FindSubjectByID(ctx context.Context, allocationID, subjectID string) (*models.AllocationSubject, error) {
	const query = `SELECT id, allocation_id, code, name, subject_ref, credits, position
FROM allocation_subjects WHERE allocation_id = $1 AND id = $2 LIMIT 1`
	var subject models.AllocationSubject
	if err := r.db.GetContext(ctx, &subject, query, allocationID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find allocation subject: %w", err)
	}
	return &subject, nil
}

// ReplaceSubjects makes the given list the allocation's subject set. Rows whose
// id is retained keep their sections; rows absent from the list are deleted and
// their sections cascade away. Runs in one transaction.
func (r *AllocationRepository) ReplaceSubjects(ctx context.Context, allocationID string, subjects []models.AllocationSubject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace subjects: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	keep := make([]string, 0, len(subjects))
	const upsert = `INSERT INTO allocation_subjects (id, allocation_id, code, name, subject_ref, credits, position)
		VALUES (:id, :allocation_id, :code, :name, :subject_ref, :credits, :position)
		ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name,
			subject_ref = EXCLUDED.subject_ref, credits = EXCLUDED.credits, position = EXCLUDED.position`
	for i := range subjects {
		subject := &subjects[i]
		if subject.ID == "" {
			subject.ID = uuid.NewString()
		}
		subject.AllocationID = allocationID
		subject.Position = i
		if _, err := tx.NamedExecContext(ctx, upsert, subject); err != nil {
			return fmt.Errorf("upsert allocation subject %s: %w", subject.Code, err)
		}
		keep = append(keep, subject.ID)
	}

	const prune = `DELETE FROM allocation_subjects WHERE allocation_id = $1 AND NOT (id = ANY($2))`
	if _, err := tx.ExecContext(ctx, prune, allocationID, pq.Array(keep)); err != nil {
		return fmt.Errorf("prune allocation subjects: %w", err)
	}

	const touch = `UPDATE allocations SET updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, touch, allocationID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touch allocation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace subjects: %w", err)
	}
	return nil
}
