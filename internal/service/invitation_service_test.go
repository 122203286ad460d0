package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/internal/models"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
	"github.com/campuskit/campus-admin-api/pkg/mailer"
)

type mockInvitationRepo struct {
	items  map[string]*models.ClassroomInvitation
	nextID int
}

func (m *mockInvitationRepo) Create(ctx context.Context, invitation *models.ClassroomInvitation) error {
	if m.items == nil {
		m.items = make(map[string]*models.ClassroomInvitation)
	}
	m.nextID++
	invitation.ID = fmt.Sprintf("inv%d", m.nextID)
	cp := *invitation
	m.items[invitation.ID] = &cp
	return nil
}

func (m *mockInvitationRepo) FindByToken(ctx context.Context, token string) (*models.ClassroomInvitation, error) {
	for _, inv := range m.items {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockInvitationRepo) FindPending(ctx context.Context, sectionID, email string, role models.UserRole) (*models.ClassroomInvitation, error) {
	for _, inv := range m.items {
		if inv.SectionID == sectionID && inv.Email == email && inv.Role == role && inv.Status == models.InvitationPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockInvitationRepo) UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) error {
	inv, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	inv.Status = status
	return nil
}

type mockFacultyEmails struct {
	byEmail map[string]*models.Faculty
}

func (m *mockFacultyEmails) FindByEmail(ctx context.Context, email string) (*models.Faculty, error) {
	if f, ok := m.byEmail[email]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentEmails struct {
	byEmail map[string]*models.Student
}

func (m *mockStudentEmails) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if s, ok := m.byEmail[email]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockMailer struct {
	sent    []mailer.Message
	failFor map[string]error
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	if err, ok := m.failFor[msg.ToEmail]; ok {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type invitationFixture struct {
	svc         *InvitationService
	invitations *mockInvitationRepo
	members     *mockMemberRepo
	mail        *mockMailer
}

func newInvitationFixture() *invitationFixture {
	sections := &mockSectionFinder{items: map[string]*models.Section{"sec1": staffedSection()}}
	members := &mockMemberRepo{}
	invitations := &mockInvitationRepo{}
	mail := &mockMailer{}
	students := &mockStudentEmails{byEmail: map[string]*models.Student{
		"asha@campus.edu": {ID: "stu1", Name: "Asha", Email: "asha@campus.edu"},
	}}
	faculty := &mockFacultyEmails{byEmail: map[string]*models.Faculty{
		"iyer@campus.edu": {ID: "f2", Name: "Dr. Iyer", Email: "iyer@campus.edu"},
	}}
	svc := NewInvitationService(
		sections, members, invitations, faculty, students, mail,
		24*time.Hour, "https://campus.example.edu", validator.New(), zap.NewNop(),
	)
	return &invitationFixture{svc: svc, invitations: invitations, members: members, mail: mail}
}

func inviterClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u1", Role: models.RoleHOD, Email: "hod@campus.edu", FacultyID: "f1"}
}

func TestInvitationServiceSendPartitionsBatch(t *testing.T) {
	fx := newInvitationFixture()

	// asha is already a member, so her address is skipped.
	_, err := fx.members.Upsert(context.Background(), &models.ClassroomMember{
		SectionID: "sec1", UserID: "stu1", UserModel: models.UserModelStudent,
		Role: models.RoleStudent, JoinMethod: models.JoinMethodSelf,
	})
	require.NoError(t, err)

	result, err := fx.svc.Send(context.Background(), inviterClaims(), "sec1", SendInvitationsRequest{
		Emails: []string{"Asha@Campus.edu", "ravi@campus.edu", "ravi@campus.edu", "not-an-email"},
		Role:   "student",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ravi@campus.edu"}, result.Invited)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "not-an-email", result.Skipped[1].Email)
	assert.Equal(t, "invalid email address", result.Skipped[1].Reason)
	assert.Equal(t, "asha@campus.edu", result.Skipped[0].Email)
	assert.Equal(t, "already a member", result.Skipped[0].Reason)

	require.Len(t, fx.mail.sent, 1)
	assert.Equal(t, "ravi@campus.edu", fx.mail.sent[0].ToEmail)
	assert.Contains(t, fx.mail.sent[0].Text, "https://campus.example.edu/classroom/invitations?token=")
	assert.Len(t, fx.invitations.items, 1)
}

func TestInvitationServiceSendSkipsLivePendingInvitation(t *testing.T) {
	fx := newInvitationFixture()

	first, err := fx.svc.Send(context.Background(), inviterClaims(), "sec1", SendInvitationsRequest{
		Emails: []string{"ravi@campus.edu"}, Role: "student",
	})
	require.NoError(t, err)
	require.Len(t, first.Invited, 1)

	second, err := fx.svc.Send(context.Background(), inviterClaims(), "sec1", SendInvitationsRequest{
		Emails: []string{"ravi@campus.edu"}, Role: "student",
	})
	require.NoError(t, err)
	assert.Empty(t, second.Invited)
	require.Len(t, second.Skipped, 1)
	assert.Equal(t, "already invited", second.Skipped[0].Reason)
}

func TestInvitationServiceSendRetiresExpiredPendingInvitation(t *testing.T) {
	fx := newInvitationFixture()

	first, err := fx.svc.Send(context.Background(), inviterClaims(), "sec1", SendInvitationsRequest{
		Emails: []string{"ravi@campus.edu"}, Role: "student",
	})
	require.NoError(t, err)
	require.Len(t, first.Invited, 1)

	var stale *models.ClassroomInvitation
	for _, inv := range fx.invitations.items {
		stale = inv
	}
	require.NotNil(t, stale)
	stale.ExpiresAt = time.Now().Add(-time.Hour)

	second, err := fx.svc.Send(context.Background(), inviterClaims(), "sec1", SendInvitationsRequest{
		Emails: []string{"ravi@campus.edu"}, Role: "student",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ravi@campus.edu"}, second.Invited)
	assert.Equal(t, models.InvitationExpired, stale.Status)
	assert.Len(t, fx.invitations.items, 2)
}

func TestInvitationServiceSendDeliveryFailureIsPerAddress(t *testing.T) {
	fx := newInvitationFixture()
	fx.mail.failFor = map[string]error{
		"ravi@campus.edu": appErrors.Clone(appErrors.ErrEmailSendFailed, ""),
	}

	result, err := fx.svc.Send(context.Background(), inviterClaims(), "sec1", SendInvitationsRequest{
		Emails: []string{"ravi@campus.edu", "mala@campus.edu"}, Role: "student",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mala@campus.edu"}, result.Invited)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "email delivery failed", result.Skipped[0].Reason)
}

func TestInvitationServiceSendAbortsWhenMailerUnconfigured(t *testing.T) {
	fx := newInvitationFixture()
	fx.mail.failFor = map[string]error{
		"ravi@campus.edu": appErrors.Clone(appErrors.ErrEmailNotConfigured, ""),
	}

	_, err := fx.svc.Send(context.Background(), inviterClaims(), "sec1", SendInvitationsRequest{
		Emails: []string{"ravi@campus.edu", "mala@campus.edu"}, Role: "student",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestInvitationServiceSendUnknownSection(t *testing.T) {
	fx := newInvitationFixture()

	_, err := fx.svc.Send(context.Background(), inviterClaims(), "ghost", SendInvitationsRequest{
		Emails: []string{"ravi@campus.edu"}, Role: "student",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func sendOne(t *testing.T, fx *invitationFixture, email, role string) *models.ClassroomInvitation {
	t.Helper()
	result, err := fx.svc.Send(context.Background(), inviterClaims(), "sec1", SendInvitationsRequest{
		Emails: []string{email}, Role: role,
	})
	require.NoError(t, err)
	require.Len(t, result.Invited, 1)
	for _, inv := range fx.invitations.items {
		if inv.Email == email {
			return inv
		}
	}
	t.Fatalf("invitation for %s not stored", email)
	return nil
}

func TestInvitationServiceRespondAccept(t *testing.T) {
	fx := newInvitationFixture()
	invitation := sendOne(t, fx, "asha@campus.edu", "student")

	claims := &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent, Email: "Asha@Campus.edu"}
	result, err := fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{
		Token: invitation.Token, Action: "accept",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, result.Status)
	assert.Equal(t, "sec1", result.SectionID)
	assert.Equal(t, models.InvitationAccepted, fx.invitations.items[invitation.ID].Status)

	require.Len(t, fx.members.members, 1)
	member := fx.members.members[memberKey("sec1", "stu1")]
	assert.Equal(t, models.JoinMethodInvite, member.JoinMethod)
}

func TestInvitationServiceRespondAcceptIdempotentWithMembership(t *testing.T) {
	fx := newInvitationFixture()
	invitation := sendOne(t, fx, "asha@campus.edu", "student")

	_, err := fx.members.Upsert(context.Background(), &models.ClassroomMember{
		SectionID: "sec1", UserID: "stu1", UserModel: models.UserModelStudent,
		Role: models.RoleStudent, JoinMethod: models.JoinMethodSelf,
	})
	require.NoError(t, err)

	claims := &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent, Email: "asha@campus.edu"}
	result, err := fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{
		Token: invitation.Token, Action: "accept",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, result.Status)
	assert.Len(t, fx.members.members, 1)
}

func TestInvitationServiceRespondReject(t *testing.T) {
	fx := newInvitationFixture()
	invitation := sendOne(t, fx, "asha@campus.edu", "student")

	claims := &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent, Email: "asha@campus.edu"}
	result, err := fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{
		Token: invitation.Token, Action: "reject",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationRejected, result.Status)
	assert.Empty(t, fx.members.members)
}

func TestInvitationServiceRespondExpiredIsPersisted(t *testing.T) {
	fx := newInvitationFixture()
	invitation := sendOne(t, fx, "asha@campus.edu", "student")
	fx.invitations.items[invitation.ID].ExpiresAt = time.Now().Add(-time.Hour)

	claims := &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent, Email: "asha@campus.edu"}
	_, err := fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{
		Token: invitation.Token, Action: "accept",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvitationExpired.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.InvitationExpired, fx.invitations.items[invitation.ID].Status)
}

func TestInvitationServiceRespondIdentityGuards(t *testing.T) {
	fx := newInvitationFixture()
	invitation := sendOne(t, fx, "asha@campus.edu", "student")

	// Wrong email.
	wrongEmail := &models.JWTClaims{UserID: "stu2", Role: models.RoleStudent, Email: "other@campus.edu"}
	_, err := fx.svc.Respond(context.Background(), wrongEmail, RespondInvitationRequest{Token: invitation.Token, Action: "accept"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Wrong role.
	wrongRole := &models.JWTClaims{UserID: "f9", Role: models.RoleFaculty, Email: "asha@campus.edu"}
	_, err = fx.svc.Respond(context.Background(), wrongRole, RespondInvitationRequest{Token: invitation.Token, Action: "accept"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Unknown token.
	_, err = fx.svc.Respond(context.Background(), wrongEmail, RespondInvitationRequest{Token: "ghost", Action: "accept"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestInvitationServiceRespondAcceptReplaySucceeds(t *testing.T) {
	fx := newInvitationFixture()
	invitation := sendOne(t, fx, "asha@campus.edu", "student")

	claims := &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent, Email: "asha@campus.edu"}
	first, err := fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{Token: invitation.Token, Action: "accept"})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, first.Status)

	second, err := fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{Token: invitation.Token, Action: "accept"})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, second.Status)
	assert.Equal(t, "sec1", second.SectionID)
	assert.Len(t, fx.members.members, 1)
}

func TestInvitationServiceRespondAfterTerminalConflicts(t *testing.T) {
	fx := newInvitationFixture()
	claims := &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent, Email: "asha@campus.edu"}

	// Reject after accept.
	accepted := sendOne(t, fx, "asha@campus.edu", "student")
	_, err := fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{Token: accepted.Token, Action: "accept"})
	require.NoError(t, err)
	_, err = fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{Token: accepted.Token, Action: "reject"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Accept after reject.
	fx = newInvitationFixture()
	rejected := sendOne(t, fx, "asha@campus.edu", "student")
	_, err = fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{Token: rejected.Token, Action: "reject"})
	require.NoError(t, err)
	_, err = fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{Token: rejected.Token, Action: "accept"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestInvitationServiceRespondHodAnswersFacultyInvitation(t *testing.T) {
	fx := newInvitationFixture()
	invitation := sendOne(t, fx, "iyer@campus.edu", "faculty")

	claims := &models.JWTClaims{UserID: "u7", Role: models.RoleHOD, Email: "iyer@campus.edu", FacultyID: "f2"}
	result, err := fx.svc.Respond(context.Background(), claims, RespondInvitationRequest{
		Token: invitation.Token, Action: "accept",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, result.Status)

	member := fx.members.members[memberKey("sec1", "f2")]
	require.NotNil(t, member)
	assert.Equal(t, models.UserModelFaculty, member.UserModel)
	assert.Equal(t, models.RoleFaculty, member.Role)
}
