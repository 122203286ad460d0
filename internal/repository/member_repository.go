package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuskit/campus-admin-api/internal/models"
)

// MemberRepository persists classroom membership rows. The UNIQUE
// (section_id, user_id) constraint is the single storage-level guarantee
// against duplicate memberships under concurrent writers.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository constructs the repository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Upsert inserts the membership if absent and reports whether a row was
// created. An existing row is left untouched; losing a concurrent race is not
// an error.
func (r *MemberRepository) Upsert(ctx context.Context, member *models.ClassroomMember) (bool, error) {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classroom_members (id, section_id, user_id, user_model, role, join_method, created_at)
		VALUES (:id, :section_id, :user_id, :user_model, :role, :join_method, :created_at)
		ON CONFLICT (section_id, user_id) DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, member)
	if err != nil {
		return false, fmt.Errorf("upsert classroom member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check upserted member rows: %w", err)
	}
	return affected > 0, nil
}

// Exists reports whether a membership row exists for (sectionID, userID).
func (r *MemberRepository) Exists(ctx context.Context, sectionID, userID string) (bool, error) {
	const query = `SELECT 1 FROM classroom_members WHERE section_id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, sectionID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check classroom member: %w", err)
	}
	return true, nil
}

// ListBySection returns the section roster joined with the directory.
func (r *MemberRepository) ListBySection(ctx context.Context, sectionID string) ([]models.ClassMemberDetail, error) {
	const query = `
SELECT cm.id, cm.section_id, cm.user_id, cm.user_model, cm.role, cm.join_method, cm.created_at,
       COALESCE(f.name, s.name, '') AS name,
       COALESCE(f.email, s.email, '') AS email,
       COALESCE(f.profile_image, s.profile_image) AS profile_image
FROM classroom_members cm
LEFT JOIN faculty f ON cm.user_model = 'Faculty' AND f.id = cm.user_id
LEFT JOIN students s ON cm.user_model = 'Student' AND s.id = cm.user_id
WHERE cm.section_id = $1
ORDER BY cm.created_at ASC`
	var members []models.ClassMemberDetail
	if err := r.db.SelectContext(ctx, &members, query, sectionID); err != nil {
		return nil, fmt.Errorf("list classroom members: %w", err)
	}
	return members, nil
}

// Delete removes a membership row; sql.ErrNoRows when none existed.
func (r *MemberRepository) Delete(ctx context.Context, sectionID, userID string) error {
	const query = `DELETE FROM classroom_members WHERE section_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, sectionID, userID)
	if err != nil {
		return fmt.Errorf("delete classroom member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted member rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
