package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/campus-admin-api/internal/models"
)

func TestMemberRepositoryUpsertCreated(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectExec("INSERT INTO classroom_members").
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.Upsert(context.Background(), &models.ClassroomMember{
		SectionID: "sec1", UserID: "stu1", UserModel: models.UserModelStudent,
		Role: models.RoleStudent, JoinMethod: models.JoinMethodSelf,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryUpsertConflictIsNotCreated(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	// ON CONFLICT DO NOTHING reports zero affected rows for an existing pair.
	mock.ExpectExec("INSERT INTO classroom_members").
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.Upsert(context.Background(), &models.ClassroomMember{
		SectionID: "sec1", UserID: "stu1", UserModel: models.UserModelStudent,
		Role: models.RoleStudent, JoinMethod: models.JoinMethodInvite,
	})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMemberRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectQuery("SELECT 1 FROM classroom_members").
		WithArgs("sec1", "stu1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "sec1", "stu1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM classroom_members").
		WithArgs("sec1", "ghost").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.Exists(context.Background(), "sec1", "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryListBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	rows := sqlmock.NewRows([]string{"id", "section_id", "user_id", "user_model", "role", "join_method", "created_at", "name", "email", "profile_image"}).
		AddRow("m1", "sec1", "f1", "Faculty", "faculty", "self", time.Now(), "Dr. Rao", "rao@campus.edu", nil).
		AddRow("m2", "sec1", "stu1", "Student", "student", "invite", time.Now(), "Asha", "asha@campus.edu", nil)
	mock.ExpectQuery("SELECT cm.id, cm.section_id").
		WithArgs("sec1").
		WillReturnRows(rows)

	members, err := repo.ListBySection(context.Background(), "sec1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Dr. Rao", members[0].Name)
	assert.Equal(t, models.JoinMethodInvite, members[1].JoinMethod)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectExec("DELETE FROM classroom_members").
		WithArgs("sec1", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "sec1", "ghost"), sql.ErrNoRows)
}
