package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/internal/models"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
	"github.com/campuskit/campus-admin-api/pkg/mailer"
)

type invitationRepository interface {
	Create(ctx context.Context, invitation *models.ClassroomInvitation) error
	FindByToken(ctx context.Context, token string) (*models.ClassroomInvitation, error)
	FindPending(ctx context.Context, sectionID, email string, role models.UserRole) (*models.ClassroomInvitation, error)
	UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) error
}

type facultyEmailReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Faculty, error)
}

type studentEmailReader interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
}

type invitationMemberRepo interface {
	Upsert(ctx context.Context, member *models.ClassroomMember) (bool, error)
	Exists(ctx context.Context, sectionID, userID string) (bool, error)
}

type invitationSectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

// SendInvitationsRequest is the invite batch payload.
type SendInvitationsRequest struct {
	Emails []string `json:"emails" validate:"required,min=1"`
	Role   string   `json:"role" validate:"required,oneof=student faculty"`
}

// SkippedInvitation records why an address was not invited.
type SkippedInvitation struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// SendInvitationsResult partitions the batch into invited and skipped
// addresses.
type SendInvitationsResult struct {
	Invited []string            `json:"invited"`
	Skipped []SkippedInvitation `json:"skipped"`
}

// RespondInvitationRequest resolves an invitation token.
type RespondInvitationRequest struct {
	Token  string `json:"token" validate:"required"`
	Action string `json:"action" validate:"required,oneof=accept reject"`
}

// RespondInvitationResult reports the invitation's final state.
type RespondInvitationResult struct {
	Status    models.InvitationStatus `json:"status"`
	SectionID string                  `json:"section_id"`
}

var inviteEmailTemplate = template.Must(template.New("invite").Parse(`
<p>You have been invited to join <strong>{{.SectionName}}</strong> as a {{.Role}}.</p>
<p><a href="{{.Link}}">Accept or decline the invitation</a></p>
<p>This invitation expires on {{.ExpiresAt}}.</p>
`))

// InvitationService issues time-boxed join invitations and resolves their
// accept/reject lifecycle.
type InvitationService struct {
	sections    invitationSectionReader
	members     invitationMemberRepo
	invitations invitationRepository
	faculty     facultyEmailReader
	students    studentEmailReader
	mail        mailer.Mailer
	ttl         time.Duration
	baseURL     string
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewInvitationService creates a service instance.
func NewInvitationService(
	sections invitationSectionReader,
	members invitationMemberRepo,
	invitations invitationRepository,
	faculty facultyEmailReader,
	students studentEmailReader,
	mail mailer.Mailer,
	ttl time.Duration,
	baseURL string,
	validate *validator.Validate,
	logger *zap.Logger,
) *InvitationService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvitationService{
		sections:    sections,
		members:     members,
		invitations: invitations,
		faculty:     faculty,
		students:    students,
		mail:        mail,
		ttl:         ttl,
		baseURL:     strings.TrimRight(baseURL, "/"),
		validator:   validate,
		logger:      logger,
	}
}

// Send issues invitations for a deduplicated, lower-cased email batch.
// Addresses already holding a membership or a live pending invitation are
// skipped with a reason. Delivery is best effort: a failed send is reported
// for that address only and never rolls back earlier invitations.
func (s *InvitationService) Send(ctx context.Context, claims *models.JWTClaims, sectionID string, req SendInvitationsRequest) (*SendInvitationsResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation payload")
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	role := models.UserRole(req.Role)
	now := time.Now().UTC()
	result := &SendInvitationsResult{Invited: []string{}, Skipped: []SkippedInvitation{}}

	seen := make(map[string]struct{}, len(req.Emails))
	for _, raw := range req.Emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}

		if !strings.Contains(email, "@") {
			result.Skipped = append(result.Skipped, SkippedInvitation{Email: email, Reason: "invalid email address"})
			continue
		}

		userID, err := s.resolveDirectoryUser(ctx, email, role)
		if err != nil {
			return nil, err
		}
		if userID != "" {
			exists, err := s.members.Exists(ctx, section.ID, userID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
			}
			if exists {
				result.Skipped = append(result.Skipped, SkippedInvitation{Email: email, Reason: "already a member"})
				continue
			}
		}

		pending, err := s.invitations.FindPending(ctx, section.ID, email, role)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending invitations")
		}
		if pending != nil {
			if !pending.IsExpired(now) {
				result.Skipped = append(result.Skipped, SkippedInvitation{Email: email, Reason: "already invited"})
				continue
			}
			// The lapsed invitation is retired before a fresh one is issued.
			if err := s.invitations.UpdateStatus(ctx, pending.ID, models.InvitationExpired); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire stale invitation")
			}
		}

		token, err := generateInvitationToken()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invitation token")
		}

		invitation := &models.ClassroomInvitation{
			SectionID: section.ID,
			Email:     email,
			InvitedBy: claims.UserID,
			Role:      role,
			Status:    models.InvitationPending,
			Token:     token,
			ExpiresAt: now.Add(s.ttl),
		}
		if err := s.invitations.Create(ctx, invitation); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist invitation")
		}

		if err := s.sendInviteEmail(ctx, section, invitation); err != nil {
			appErr := appErrors.FromError(err)
			if appErr.Code == appErrors.ErrEmailNotConfigured.Code {
				return nil, err
			}
			s.logger.Warn("invitation email delivery failed",
				zap.String("section_id", section.ID),
				zap.String("email", email),
				zap.Error(err),
			)
			result.Skipped = append(result.Skipped, SkippedInvitation{Email: email, Reason: "email delivery failed"})
			continue
		}

		result.Invited = append(result.Invited, email)
	}

	return result, nil
}

// Respond resolves an invitation token. Expiry is evaluated lazily: a pending
// invitation past its deadline is persisted as EXPIRED before the call fails.
// Accept is idempotent with respect to an existing membership.
func (s *InvitationService) Respond(ctx context.Context, claims *models.JWTClaims, req RespondInvitationRequest) (*RespondInvitationResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation response")
	}

	invitation, err := s.invitations.FindByToken(ctx, req.Token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invitation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invitation")
	}

	now := time.Now().UTC()
	if invitation.IsExpired(now) {
		if err := s.invitations.UpdateStatus(ctx, invitation.ID, models.InvitationExpired); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire invitation")
		}
		return nil, appErrors.Clone(appErrors.ErrInvitationExpired, "")
	}
	if !strings.EqualFold(claims.Email, invitation.Email) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invitation was issued to a different email")
	}
	userModel, memberRole, err := memberIdentity(claims.Role)
	if err != nil {
		return nil, err
	}
	if memberRole != invitation.Role {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invitation was issued for a different role")
	}

	if invitation.Status != models.InvitationPending {
		// Replaying accept on an accepted invitation is a success; the
		// membership row already exists and stays single.
		if req.Action == "accept" && invitation.Status == models.InvitationAccepted {
			return &RespondInvitationResult{Status: models.InvitationAccepted, SectionID: invitation.SectionID}, nil
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("invitation already %s", strings.ToLower(string(invitation.Status))))
	}

	if req.Action == "reject" {
		if err := s.invitations.UpdateStatus(ctx, invitation.ID, models.InvitationRejected); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject invitation")
		}
		return &RespondInvitationResult{Status: models.InvitationRejected, SectionID: invitation.SectionID}, nil
	}

	userID := claims.MemberID()

	exists, err := s.members.Exists(ctx, invitation.SectionID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if !exists {
		member := &models.ClassroomMember{
			SectionID:  invitation.SectionID,
			UserID:     userID,
			UserModel:  userModel,
			Role:       invitation.Role,
			JoinMethod: models.JoinMethodInvite,
		}
		// A lost insert race means the membership already exists, which is
		// exactly the idempotent-accept outcome.
		if _, err := s.members.Upsert(ctx, member); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create membership")
		}
	}

	if err := s.invitations.UpdateStatus(ctx, invitation.ID, models.InvitationAccepted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept invitation")
	}

	return &RespondInvitationResult{Status: models.InvitationAccepted, SectionID: invitation.SectionID}, nil
}

// resolveDirectoryUser maps an email onto a directory id for the target role;
// an unknown email yields an empty id and is still invitable.
func (s *InvitationService) resolveDirectoryUser(ctx context.Context, email string, role models.UserRole) (string, error) {
	switch role {
	case models.RoleFaculty:
		faculty, err := s.faculty.FindByEmail(ctx, email)
		if err != nil {
			if err == sql.ErrNoRows {
				return "", nil
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve faculty email")
		}
		return faculty.ID, nil
	default:
		student, err := s.students.FindByEmail(ctx, email)
		if err != nil {
			if err == sql.ErrNoRows {
				return "", nil
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student email")
		}
		return student.ID, nil
	}
}

func (s *InvitationService) sendInviteEmail(ctx context.Context, section *models.Section, invitation *models.ClassroomInvitation) error {
	link := fmt.Sprintf("%s/classroom/invitations?token=%s", s.baseURL, invitation.Token)

	var body bytes.Buffer
	data := map[string]string{
		"SectionName": section.Name,
		"Role":        string(invitation.Role),
		"Link":        link,
		"ExpiresAt":   invitation.ExpiresAt.Format(time.RFC1123),
	}
	if err := inviteEmailTemplate.Execute(&body, data); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render invitation email")
	}

	return s.mail.Send(ctx, mailer.Message{
		ToEmail: invitation.Email,
		Subject: fmt.Sprintf("Invitation to join %s", section.Name),
		HTML:    body.String(),
		Text:    fmt.Sprintf("You have been invited to join %s as a %s. Open %s to respond.", section.Name, invitation.Role, link),
	})
}

func generateInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invitation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
