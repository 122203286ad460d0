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

// InvitationRepository persists classroom invitations.
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository constructs the repository.
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = `id, section_id, email, invited_by, role, status, token, expires_at, created_at, updated_at`

// Create inserts a new invitation.
func (r *InvitationRepository) Create(ctx context.Context, invitation *models.ClassroomInvitation) error {
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = now
	}
	invitation.UpdatedAt = now
	const query = `INSERT INTO classroom_invitations (id, section_id, email, invited_by, role, status, token, expires_at, created_at, updated_at)
		VALUES (:id, :section_id, :email, :invited_by, :role, :status, :token, :expires_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invitation); err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// FindByToken resolves an invitation by its token; sql.ErrNoRows when absent.
func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*models.ClassroomInvitation, error) {
	const query = `SELECT ` + invitationColumns + ` FROM classroom_invitations WHERE token = $1 LIMIT 1`
	var invitation models.ClassroomInvitation
	if err := r.db.GetContext(ctx, &invitation, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find invitation by token: %w", err)
	}
	return &invitation, nil
}

// FindPending returns the pending invitation for (sectionID, email, role),
// ignoring expiry; the caller decides whether it still counts.
func (r *InvitationRepository) FindPending(ctx context.Context, sectionID, email string, role models.UserRole) (*models.ClassroomInvitation, error) {
	const query = `SELECT ` + invitationColumns + ` FROM classroom_invitations
WHERE section_id = $1 AND email = $2 AND role = $3 AND status = $4
ORDER BY created_at DESC
LIMIT 1`
	var invitation models.ClassroomInvitation
	if err := r.db.GetContext(ctx, &invitation, query, sectionID, email, role, models.InvitationPending); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pending invitation: %w", err)
	}
	return &invitation, nil
}

// UpdateStatus transitions the invitation's lifecycle state.
func (r *InvitationRepository) UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) error {
	const query = `UPDATE classroom_invitations SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update invitation status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated invitation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
