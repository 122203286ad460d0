package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/internal/models"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
)

type sectionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	FindByClassroomCode(ctx context.Context, code string) (*models.Section, error)
}

type memberRepository interface {
	Upsert(ctx context.Context, member *models.ClassroomMember) (bool, error)
	Exists(ctx context.Context, sectionID, userID string) (bool, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.ClassMemberDetail, error)
	Delete(ctx context.Context, sectionID, userID string) error
}

// JoinByCodeRequest is the self-enrollment payload.
type JoinByCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// MembershipService guards the one-row-per-(section, user) membership index
// across all entry paths.
type MembershipService struct {
	sections  sectionFinder
	members   memberRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMembershipService creates a service instance.
func NewMembershipService(sections sectionFinder, members memberRepository, validate *validator.Validate, logger *zap.Logger) *MembershipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{sections: sections, members: members, validator: validate, logger: logger}
}

// JoinByCode enrolls the caller into the section bearing the join code.
func (s *MembershipService) JoinByCode(ctx context.Context, claims *models.JWTClaims, req JoinByCodeRequest) (*models.ClassroomMember, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid join payload")
	}

	userModel, memberRole, err := memberIdentity(claims.Role)
	if err != nil {
		return nil, err
	}

	section, err := s.sections.FindByClassroomCode(ctx, req.Code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invalid classroom code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve classroom code")
	}

	userID := claims.MemberID()
	exists, err := s.members.Exists(ctx, section.ID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already a member of this section")
	}

	member := &models.ClassroomMember{
		SectionID:  section.ID,
		UserID:     userID,
		UserModel:  userModel,
		Role:       memberRole,
		JoinMethod: models.JoinMethodSelf,
	}
	created, err := s.members.Upsert(ctx, member)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create membership")
	}
	if !created {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already a member of this section")
	}

	return member, nil
}

// ListMembers returns the roster for a section.
func (s *MembershipService) ListMembers(ctx context.Context, sectionID string) ([]models.ClassMemberDetail, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	members, err := s.members.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}

// RemoveMember deletes a membership row. The requester must hold a staff-side
// role, may not remove themselves, and may not remove the section's assigned
// staff through this path.
func (s *MembershipService) RemoveMember(ctx context.Context, claims *models.JWTClaims, sectionID, userID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleFaculty, models.RoleHOD, models.RoleAdmin:
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "only faculty or admin can remove members")
	}
	if claims.MemberID() == userID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot remove yourself from a section")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.StaffID != nil && *section.StaffID == userID {
		return appErrors.Clone(appErrors.ErrForbidden, "assigned staff must be reassigned or removed via section management")
	}

	if err := s.members.Delete(ctx, sectionID, userID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "membership not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove member")
	}
	return nil
}

// memberIdentity maps a caller role onto the membership discriminator pair.
func memberIdentity(role models.UserRole) (models.UserModel, models.UserRole, error) {
	switch role {
	case models.RoleStudent:
		return models.UserModelStudent, models.RoleStudent, nil
	case models.RoleFaculty, models.RoleHOD:
		return models.UserModelFaculty, models.RoleFaculty, nil
	default:
		return "", "", appErrors.Clone(appErrors.ErrForbidden, "only students and faculty can join classrooms")
	}
}
