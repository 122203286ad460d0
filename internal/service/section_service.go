package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/internal/models"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
)

type facultyReader interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

type sectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	FindBySubjectAndName(ctx context.Context, subjectID, name string) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	UpdateStaff(ctx context.Context, sectionID string, staff *models.StaffSnapshot) error
	Delete(ctx context.Context, id string) error
}

type memberUpserter interface {
	Upsert(ctx context.Context, member *models.ClassroomMember) (bool, error)
}

// AssignStaffRequest binds a faculty member to a (subject, section) pair within
// an allocation, creating the section on first assignment.
type AssignStaffRequest struct {
	Department   string `json:"department" validate:"required"`
	SubjectType  string `json:"subject_type" validate:"required"`
	Semester     int    `json:"semester" validate:"required,min=1"`
	SemesterType string `json:"semester_type" validate:"required"`
	Regulation   string `json:"regulation" validate:"required"`
	SubjectID    string `json:"subject_id" validate:"required"`
	SectionName  string `json:"section_name" validate:"required"`
	StaffID      string `json:"staff_id" validate:"required"`
}

// SectionService manages sections and their staff assignments, keeping the
// classroom membership index in sync.
type SectionService struct {
	faculty        facultyReader
	allocations    allocationRepository
	sections       sectionRepository
	members        memberUpserter
	cache          dashboardCacheInvalidator
	joinCodeLength int
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewSectionService creates a service instance.
func NewSectionService(
	faculty facultyReader,
	allocations allocationRepository,
	sections sectionRepository,
	members memberUpserter,
	cache dashboardCacheInvalidator,
	joinCodeLength int,
	validate *validator.Validate,
	logger *zap.Logger,
) *SectionService {
	if joinCodeLength <= 0 {
		joinCodeLength = 6
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{
		faculty:        faculty,
		allocations:    allocations,
		sections:       sections,
		members:        members,
		cache:          cache,
		joinCodeLength: joinCodeLength,
		validator:      validate,
		logger:         logger,
	}
}

// AssignStaff binds staff to a section, creating the section lazily. A fresh
// section gets a random join code; an existing one has its staff snapshot
// overwritten. Both paths upsert the faculty membership row.
func (s *SectionService) AssignStaff(ctx context.Context, req AssignStaffRequest) (*models.SectionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff assignment payload")
	}

	faculty, err := s.faculty.FindByID(ctx, req.StaffID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}

	key := models.AllocationKey{
		Department:   req.Department,
		SubjectType:  req.SubjectType,
		Semester:     req.Semester,
		SemesterType: req.SemesterType,
		Regulation:   req.Regulation,
	}
	allocation, err := s.allocations.FindByKey(ctx, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}

	subject, err := s.allocations.FindSubjectByID(ctx, allocation.ID, req.SubjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found in allocation")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	snapshot := staffSnapshot(faculty)

	section, err := s.sections.FindBySubjectAndName(ctx, subject.ID, req.SectionName)
	switch {
	case err == nil:
		if err := s.sections.UpdateStaff(ctx, section.ID, snapshot); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section staff")
		}
		applySnapshot(section, snapshot)
	case err == sql.ErrNoRows:
		// Join codes are short random strings; global uniqueness is not
		// verified before accepting one.
		code, err := generateJoinCode(s.joinCodeLength)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate classroom code")
		}
		section = &models.Section{
			AllocationSubjectID: subject.ID,
			Name:                req.SectionName,
			ClassroomCode:       code,
		}
		applySnapshot(section, snapshot)
		if err := s.sections.Create(ctx, section); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	if err := s.syncStaffMembership(ctx, section.ID, faculty.ID); err != nil {
		return nil, err
	}

	s.invalidateDashboards(ctx)

	view := section.View()
	return &view, nil
}

// UpdateStaff replaces the staff bound to an existing section.
func (s *SectionService) UpdateStaff(ctx context.Context, sectionID, staffID string) (*models.SectionView, error) {
	if sectionID == "" || staffID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section id and staff id are required")
	}

	section, err := s.findSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	faculty, err := s.faculty.FindByID(ctx, staffID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}

	snapshot := staffSnapshot(faculty)
	if err := s.sections.UpdateStaff(ctx, section.ID, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section staff")
	}
	applySnapshot(section, snapshot)

	if err := s.syncStaffMembership(ctx, section.ID, faculty.ID); err != nil {
		return nil, err
	}

	s.invalidateDashboards(ctx)

	view := section.View()
	return &view, nil
}

// RemoveStaff clears the staff snapshot, leaving the section and its
// membership rows in place.
func (s *SectionService) RemoveStaff(ctx context.Context, sectionID string) (*models.SectionView, error) {
	section, err := s.findSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	if err := s.sections.UpdateStaff(ctx, section.ID, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove section staff")
	}
	applySnapshot(section, nil)

	s.invalidateDashboards(ctx)

	view := section.View()
	return &view, nil
}

// DeleteSection removes the section; membership rows cascade at the schema
// level.
func (s *SectionService) DeleteSection(ctx context.Context, sectionID string) error {
	if err := s.sections.Delete(ctx, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}

	s.invalidateDashboards(ctx)
	return nil
}

// RefreshStaffSnapshot re-reads the canonical faculty record and rewrites the
// section's embedded snapshot. This is the explicit resync path for snapshots
// that have drifted from the directory.
func (s *SectionService) RefreshStaffSnapshot(ctx context.Context, sectionID string) (*models.SectionView, error) {
	section, err := s.findSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if section.StaffID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section has no assigned staff")
	}

	faculty, err := s.faculty.FindByID(ctx, *section.StaffID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}

	snapshot := staffSnapshot(faculty)
	if err := s.sections.UpdateStaff(ctx, section.ID, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh staff snapshot")
	}
	applySnapshot(section, snapshot)

	s.invalidateDashboards(ctx)

	view := section.View()
	return &view, nil
}

func (s *SectionService) findSection(ctx context.Context, sectionID string) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// syncStaffMembership upserts the assigned faculty's membership row. Losing a
// concurrent insert race means the row already exists, which is success here.
func (s *SectionService) syncStaffMembership(ctx context.Context, sectionID, staffID string) error {
	member := &models.ClassroomMember{
		SectionID:  sectionID,
		UserID:     staffID,
		UserModel:  models.UserModelFaculty,
		Role:       models.RoleFaculty,
		JoinMethod: models.JoinMethodSelf,
	}
	if _, err := s.members.Upsert(ctx, member); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync classroom membership")
	}
	return nil
}

func (s *SectionService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:hod:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func staffSnapshot(faculty *models.Faculty) *models.StaffSnapshot {
	return &models.StaffSnapshot{
		ID:           faculty.ID,
		Name:         faculty.Name,
		Email:        faculty.Email,
		ProfileImage: faculty.ProfileImage,
	}
}

func applySnapshot(section *models.Section, snapshot *models.StaffSnapshot) {
	if snapshot == nil {
		section.StaffID = nil
		section.StaffName = nil
		section.StaffEmail = nil
		section.StaffImage = nil
		return
	}
	section.StaffID = &snapshot.ID
	section.StaffName = &snapshot.Name
	section.StaffEmail = &snapshot.Email
	section.StaffImage = snapshot.ProfileImage
}

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateJoinCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}
