package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/campus-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func allocationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "department", "subject_type", "semester", "semester_type", "regulation", "created_at", "updated_at"}).
		AddRow("a1", "CSE", "Theory", 5, "ODD", "R21", time.Now(), time.Now())
}

func TestAllocationRepositoryFindByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM allocations\s+WHERE LOWER\(department\) = LOWER\(\$1\)`).
		WithArgs("cse", "theory", 5, "odd", "r21").
		WillReturnRows(allocationRows())

	allocation, err := repo.FindByKey(context.Background(), models.AllocationKey{
		Department: "cse", SubjectType: "theory", Semester: 5, SemesterType: "odd", Regulation: "r21",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", allocation.ID)
	assert.Equal(t, "CSE", allocation.Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryFindByKeyNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM allocations`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), models.AllocationKey{Department: "cse"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAllocationRepositoryFindByPartialKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM allocations\s+WHERE LOWER\(department\) = LOWER\(\$1\)\s+AND semester = \$2`).
		WithArgs("cse", 5, "odd", "r21").
		WillReturnRows(allocationRows())

	allocation, err := repo.FindByPartialKey(context.Background(), models.AllocationKey{
		Department: "cse", Semester: 5, SemesterType: "odd", Regulation: "r21",
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", allocation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectExec("INSERT INTO allocations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	allocation := &models.Allocation{Department: "CSE", SubjectType: "Theory", Semester: 5, SemesterType: "ODD", Regulation: "R21"}
	require.NoError(t, repo.Create(context.Background(), allocation))
	assert.NotEmpty(t, allocation.ID)
	assert.False(t, allocation.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryListSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "allocation_id", "code", "name", "subject_ref", "credits", "position"}).
		AddRow("s1", "a1", "CS501", "Operating Systems", nil, 4, 0).
		AddRow("s2", "a1", "CS502", "Computer Networks", "cat-7", 3, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, allocation_id, code, name, subject_ref, credits, position")).
		WithArgs("a1").
		WillReturnRows(rows)

	subjects, err := repo.ListSubjects(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "CS501", subjects[0].Code)
	assert.Equal(t, "cat-7", *subjects[1].SubjectRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryReplaceSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO allocation_subjects").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO allocation_subjects").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM allocation_subjects").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE allocations SET updated_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	subjects := []models.AllocationSubject{
		{ID: "s1", Code: "CS501", Name: "Operating Systems", Credits: 4},
		{Code: "CS503", Name: "Compilers", Credits: 3},
	}
	require.NoError(t, repo.ReplaceSubjects(context.Background(), "a1", subjects))
	// Retained rows keep their id; new codes get one assigned.
	assert.Equal(t, "s1", subjects[0].ID)
	assert.NotEmpty(t, subjects[1].ID)
	assert.Equal(t, 1, subjects[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryReplaceSubjectsRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO allocation_subjects").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceSubjects(context.Background(), "a1", []models.AllocationSubject{{Code: "CS501", Name: "OS"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
