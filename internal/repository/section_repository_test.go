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

func sectionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "allocation_subject_id", "name", "classroom_code", "staff_id", "staff_name", "staff_email", "staff_image", "created_at", "updated_at"}).
		AddRow("sec1", "s1", "Section A", "XK4T9Q", "f1", "Dr. Rao", "rao@campus.edu", nil, time.Now(), time.Now())
}

func TestSectionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM sections WHERE id = \$1`).
		WithArgs("sec1").
		WillReturnRows(sectionRows())

	section, err := repo.FindByID(context.Background(), "sec1")
	require.NoError(t, err)
	assert.Equal(t, "Section A", section.Name)
	require.NotNil(t, section.Staff())
	assert.Equal(t, "Dr. Rao", section.Staff().Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryFindByClassroomCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM sections WHERE classroom_code = \$1`).
		WithArgs("XK4T9Q").
		WillReturnRows(sectionRows())

	section, err := repo.FindByClassroomCode(context.Background(), "XK4T9Q")
	require.NoError(t, err)
	assert.Equal(t, "sec1", section.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListBySubjectIDsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	sections, err := repo.ListBySubjectIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, sections)
}

func TestSectionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec("INSERT INTO sections").
		WillReturnResult(sqlmock.NewResult(0, 1))

	section := &models.Section{AllocationSubjectID: "s1", Name: "Section B", ClassroomCode: "QW23NP"}
	require.NoError(t, repo.Create(context.Background(), section))
	assert.NotEmpty(t, section.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpdateStaffClears(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec("UPDATE sections SET staff_id").
		WithArgs("sec1", nil, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStaff(context.Background(), "sec1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpdateStaffMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec("UPDATE sections SET staff_id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStaff(context.Background(), "missing", &models.StaffSnapshot{ID: "f1", Name: "Dr. Rao", Email: "rao@campus.edu"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSectionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec("DELETE FROM sections").
		WithArgs("sec1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "sec1"))

	mock.ExpectExec("DELETE FROM sections").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
