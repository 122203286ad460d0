package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/internal/models"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
)

type mockSectionFinder struct {
	items map[string]*models.Section
}

func (m *mockSectionFinder) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if s, ok := m.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSectionFinder) FindByClassroomCode(ctx context.Context, code string) (*models.Section, error) {
	for _, s := range m.items {
		if s.ClassroomCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockMemberRepo struct {
	members map[string]models.ClassroomMember
	deleted []string
}

func memberKey(sectionID, userID string) string { return sectionID + "/" + userID }

func (m *mockMemberRepo) Upsert(ctx context.Context, member *models.ClassroomMember) (bool, error) {
	key := memberKey(member.SectionID, member.UserID)
	if _, ok := m.members[key]; ok {
		return false, nil
	}
	if m.members == nil {
		m.members = make(map[string]models.ClassroomMember)
	}
	m.members[key] = *member
	return true, nil
}

func (m *mockMemberRepo) Exists(ctx context.Context, sectionID, userID string) (bool, error) {
	_, ok := m.members[memberKey(sectionID, userID)]
	return ok, nil
}

func (m *mockMemberRepo) ListBySection(ctx context.Context, sectionID string) ([]models.ClassMemberDetail, error) {
	var out []models.ClassMemberDetail
	for _, member := range m.members {
		if member.SectionID == sectionID {
			out = append(out, models.ClassMemberDetail{ClassroomMember: member})
		}
	}
	return out, nil
}

func (m *mockMemberRepo) Delete(ctx context.Context, sectionID, userID string) error {
	key := memberKey(sectionID, userID)
	if _, ok := m.members[key]; !ok {
		return sql.ErrNoRows
	}
	delete(m.members, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func staffedSection() *models.Section {
	staffID := "f1"
	return &models.Section{
		ID: "sec1", AllocationSubjectID: "s1", Name: "Section A",
		ClassroomCode: "XK4T9Q", StaffID: &staffID,
	}
}

func newMembershipFixture() (*MembershipService, *mockMemberRepo) {
	sections := &mockSectionFinder{items: map[string]*models.Section{"sec1": staffedSection()}}
	members := &mockMemberRepo{}
	return NewMembershipService(sections, members, validator.New(), zap.NewNop()), members
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent, Email: "asha@campus.edu"}
}

func facultyClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u9", Role: models.RoleFaculty, Email: "iyer@campus.edu", FacultyID: "f2"}
}

func TestMembershipServiceJoinByCodeStudent(t *testing.T) {
	svc, members := newMembershipFixture()

	member, err := svc.JoinByCode(context.Background(), studentClaims(), JoinByCodeRequest{Code: "XK4T9Q"})
	require.NoError(t, err)
	assert.Equal(t, "sec1", member.SectionID)
	assert.Equal(t, "stu1", member.UserID)
	assert.Equal(t, models.UserModelStudent, member.UserModel)
	assert.Equal(t, models.RoleStudent, member.Role)
	assert.Equal(t, models.JoinMethodSelf, member.JoinMethod)
	assert.Len(t, members.members, 1)
}

func TestMembershipServiceJoinByCodeFacultyUsesDirectoryID(t *testing.T) {
	svc, _ := newMembershipFixture()

	member, err := svc.JoinByCode(context.Background(), facultyClaims(), JoinByCodeRequest{Code: "XK4T9Q"})
	require.NoError(t, err)
	// Faculty memberships key on the directory faculty id, not the account id.
	assert.Equal(t, "f2", member.UserID)
	assert.Equal(t, models.UserModelFaculty, member.UserModel)
}

func TestMembershipServiceJoinByCodeInvalidCode(t *testing.T) {
	svc, _ := newMembershipFixture()

	_, err := svc.JoinByCode(context.Background(), studentClaims(), JoinByCodeRequest{Code: "NOPE99"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMembershipServiceJoinByCodeTwiceConflicts(t *testing.T) {
	svc, _ := newMembershipFixture()

	_, err := svc.JoinByCode(context.Background(), studentClaims(), JoinByCodeRequest{Code: "XK4T9Q"})
	require.NoError(t, err)

	_, err = svc.JoinByCode(context.Background(), studentClaims(), JoinByCodeRequest{Code: "XK4T9Q"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestMembershipServiceJoinByCodeAdminForbidden(t *testing.T) {
	svc, _ := newMembershipFixture()

	claims := &models.JWTClaims{UserID: "adm1", Role: models.RoleAdmin}
	_, err := svc.JoinByCode(context.Background(), claims, JoinByCodeRequest{Code: "XK4T9Q"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMembershipServiceListMembersUnknownSection(t *testing.T) {
	svc, _ := newMembershipFixture()

	_, err := svc.ListMembers(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMembershipServiceRemoveMember(t *testing.T) {
	svc, members := newMembershipFixture()

	_, err := svc.JoinByCode(context.Background(), studentClaims(), JoinByCodeRequest{Code: "XK4T9Q"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveMember(context.Background(), facultyClaims(), "sec1", "stu1"))
	assert.Empty(t, members.members)
}

func TestMembershipServiceRemoveMemberGuards(t *testing.T) {
	svc, _ := newMembershipFixture()

	_, err := svc.JoinByCode(context.Background(), studentClaims(), JoinByCodeRequest{Code: "XK4T9Q"})
	require.NoError(t, err)

	// Students cannot remove members.
	err = svc.RemoveMember(context.Background(), studentClaims(), "sec1", "stu1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Staff cannot remove themselves.
	self := facultyClaims()
	err = svc.RemoveMember(context.Background(), self, "sec1", self.FacultyID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// The section's assigned staff can only be detached via section management.
	err = svc.RemoveMember(context.Background(), facultyClaims(), "sec1", "f1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Removing an absent membership is a not found.
	err = svc.RemoveMember(context.Background(), facultyClaims(), "sec1", "ghost")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
