package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/campus-admin-api/internal/middleware"
	"github.com/campuskit/campus-admin-api/internal/models"
	"github.com/campuskit/campus-admin-api/internal/service"
)

type sectionFinderStub struct {
	section *models.Section
}

func (s *sectionFinderStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if s.section == nil || s.section.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.section, nil
}

func (s *sectionFinderStub) FindByClassroomCode(ctx context.Context, code string) (*models.Section, error) {
	if s.section == nil || s.section.ClassroomCode != code {
		return nil, sql.ErrNoRows
	}
	return s.section, nil
}

type memberRepoStub struct {
	members  []models.ClassMemberDetail
	upserted *models.ClassroomMember
	deleted  []string
}

func (s *memberRepoStub) Upsert(ctx context.Context, member *models.ClassroomMember) (bool, error) {
	s.upserted = member
	return true, nil
}

func (s *memberRepoStub) Exists(ctx context.Context, sectionID, userID string) (bool, error) {
	for _, m := range s.members {
		if m.SectionID == sectionID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memberRepoStub) ListBySection(ctx context.Context, sectionID string) ([]models.ClassMemberDetail, error) {
	return s.members, nil
}

func (s *memberRepoStub) Delete(ctx context.Context, sectionID, userID string) error {
	s.deleted = append(s.deleted, userID)
	return nil
}

func newClassroomTestHandler(sections *sectionFinderStub, members *memberRepoStub) *ClassroomHandler {
	memberships := service.NewMembershipService(sections, members, nil, nil)
	return NewClassroomHandler(memberships, nil)
}

func classroomTestContext(t *testing.T, method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestClassroomHandlerJoin(t *testing.T) {
	sections := &sectionFinderStub{section: &models.Section{ID: "sec1", ClassroomCode: "XK4T9Q"}}
	members := &memberRepoStub{}
	handler := newClassroomTestHandler(sections, members)

	payload, _ := json.Marshal(service.JoinByCodeRequest{Code: "XK4T9Q"})
	c, w := classroomTestContext(t, http.MethodPost, "/classrooms/join", payload,
		&models.JWTClaims{UserID: "stu1", Role: models.RoleStudent})

	handler.Join(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, members.upserted)
	assert.Equal(t, "sec1", members.upserted.SectionID)
	assert.Equal(t, "stu1", members.upserted.UserID)
	assert.Equal(t, models.JoinMethodSelf, members.upserted.JoinMethod)
}

func TestClassroomHandlerJoinInvalidCode(t *testing.T) {
	handler := newClassroomTestHandler(&sectionFinderStub{}, &memberRepoStub{})

	payload, _ := json.Marshal(service.JoinByCodeRequest{Code: "NOPE42"})
	c, w := classroomTestContext(t, http.MethodPost, "/classrooms/join", payload,
		&models.JWTClaims{UserID: "stu1", Role: models.RoleStudent})

	handler.Join(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassroomHandlerJoinMalformedBody(t *testing.T) {
	handler := newClassroomTestHandler(&sectionFinderStub{}, &memberRepoStub{})

	c, w := classroomTestContext(t, http.MethodPost, "/classrooms/join", []byte(`{"code":`),
		&models.JWTClaims{UserID: "stu1", Role: models.RoleStudent})

	handler.Join(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassroomHandlerMembers(t *testing.T) {
	sections := &sectionFinderStub{section: &models.Section{ID: "sec1", ClassroomCode: "XK4T9Q"}}
	members := &memberRepoStub{members: []models.ClassMemberDetail{
		{ClassroomMember: models.ClassroomMember{SectionID: "sec1", UserID: "stu1"}, Name: "Asha"},
	}}
	handler := newClassroomTestHandler(sections, members)

	c, w := classroomTestContext(t, http.MethodGet, "/classrooms/sec1/members", nil,
		&models.JWTClaims{UserID: "f1", Role: models.RoleFaculty})
	c.Params = gin.Params{{Key: "id", Value: "sec1"}}

	handler.Members(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.ClassMemberDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Asha", envelope.Data[0].Name)
}

func TestClassroomHandlerRemoveMemberForbiddenForStudents(t *testing.T) {
	sections := &sectionFinderStub{section: &models.Section{ID: "sec1", ClassroomCode: "XK4T9Q"}}
	members := &memberRepoStub{}
	handler := newClassroomTestHandler(sections, members)

	c, w := classroomTestContext(t, http.MethodDelete, "/classrooms/sec1/members/stu2", nil,
		&models.JWTClaims{UserID: "stu1", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "sec1"}, {Key: "userId", Value: "stu2"}}

	handler.RemoveMember(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, members.deleted)
}

func TestClassroomHandlerRemoveMember(t *testing.T) {
	sections := &sectionFinderStub{section: &models.Section{ID: "sec1", ClassroomCode: "XK4T9Q"}}
	members := &memberRepoStub{}
	handler := newClassroomTestHandler(sections, members)

	c, w := classroomTestContext(t, http.MethodDelete, "/classrooms/sec1/members/stu2", nil,
		&models.JWTClaims{UserID: "u9", FacultyID: "f1", Role: models.RoleFaculty})
	c.Params = gin.Params{{Key: "id", Value: "sec1"}, {Key: "userId", Value: "stu2"}}

	handler.RemoveMember(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"stu2"}, members.deleted)
}
