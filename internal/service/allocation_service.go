package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/internal/models"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
)

type allocationRepository interface {
	FindByKey(ctx context.Context, key models.AllocationKey) (*models.Allocation, error)
	FindByPartialKey(ctx context.Context, key models.AllocationKey) (*models.Allocation, error)
	Create(ctx context.Context, allocation *models.Allocation) error
	ListSubjects(ctx context.Context, allocationID string) ([]models.AllocationSubject, error)
	FindSubjectByID(ctx context.Context, allocationID, subjectID string) (*models.AllocationSubject, error)
	ReplaceSubjects(ctx context.Context, allocationID string, subjects []models.AllocationSubject) error
}

type sectionReader interface {
	ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.Section, error)
}

type subjectCatalogReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
}

type dashboardCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AllocateSubjectInput is one subject entry in an allocation request.
type AllocateSubjectInput struct {
	Code      string  `json:"code" validate:"required"`
	Subject   string  `json:"subject" validate:"required"`
	SubjectID *string `json:"subject_id"`
	Credits   int     `json:"credits" validate:"min=0"`
}

// AllocateSubjectsRequest describes the allocation upsert payload.
type AllocateSubjectsRequest struct {
	Department   string                 `json:"department" validate:"required"`
	SubjectType  string                 `json:"subject_type" validate:"required"`
	Semester     int                    `json:"semester" validate:"required,min=1"`
	SemesterType string                 `json:"semester_type" validate:"required"`
	Regulation   string                 `json:"regulation" validate:"required"`
	Subjects     []AllocateSubjectInput `json:"subjects" validate:"required,min=1,dive"`
}

// GetAllocatedQuery identifies an allocation on the read side. SubjectType is
// optional; when given it also filters subjects by their catalog type.
type GetAllocatedQuery struct {
	Department   string `form:"department" validate:"required"`
	SubjectType  string `form:"subject_type"`
	Semester     int    `form:"semester" validate:"required,min=1"`
	SemesterType string `form:"semester_type" validate:"required"`
	Regulation   string `form:"regulation" validate:"required"`
}

// AllocationService owns the allocation upsert and read paths.
type AllocationService struct {
	allocations allocationRepository
	sections    sectionReader
	catalog     subjectCatalogReader
	cache       dashboardCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAllocationService creates a service instance.
func NewAllocationService(
	allocations allocationRepository,
	sections sectionReader,
	catalog subjectCatalogReader,
	cache dashboardCacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		allocations: allocations,
		sections:    sections,
		catalog:     catalog,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Allocate creates or updates the allocation for the request's natural key.
// Subjects are replaced wholesale; a subject matched by code keeps its row id
// and therefore its sections, new codes start empty, and dropped codes lose
// their sections.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateSubjectsRequest) (*models.AllocationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}

	key := models.AllocationKey{
		Department:   req.Department,
		SubjectType:  req.SubjectType,
		Semester:     req.Semester,
		SemesterType: req.SemesterType,
		Regulation:   req.Regulation,
	}

	allocation, err := s.allocations.FindByKey(ctx, key)
	var existing []models.AllocationSubject
	switch {
	case err == nil:
		existing, err = s.allocations.ListSubjects(ctx, allocation.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocated subjects")
		}
	case err == sql.ErrNoRows:
		allocation = &models.Allocation{
			Department:   req.Department,
			SubjectType:  req.SubjectType,
			Semester:     req.Semester,
			SemesterType: req.SemesterType,
			Regulation:   req.Regulation,
		}
		if err := s.allocations.Create(ctx, allocation); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create allocation")
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}

	byCode := make(map[string]models.AllocationSubject, len(existing))
	for _, subject := range existing {
		byCode[subject.Code] = subject
	}

	subjects := make([]models.AllocationSubject, 0, len(req.Subjects))
	for _, input := range req.Subjects {
		subject := models.AllocationSubject{
			Code:       input.Code,
			Name:       input.Subject,
			SubjectRef: input.SubjectID,
			Credits:    input.Credits,
		}
		if prior, ok := byCode[input.Code]; ok {
			subject.ID = prior.ID
		}
		subjects = append(subjects, subject)
	}

	if err := s.allocations.ReplaceSubjects(ctx, allocation.ID, subjects); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save allocated subjects")
	}

	s.invalidateDashboards(ctx)

	return s.buildDetail(ctx, allocation)
}

// GetAllocated resolves the allocation view for a key. An absent allocation is
// not an error: the result echoes the queried key with an empty subject list.
func (s *AllocationService) GetAllocated(ctx context.Context, query GetAllocatedQuery) (*models.AllocationDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation query")
	}

	key := models.AllocationKey{
		Department:   query.Department,
		SubjectType:  query.SubjectType,
		Semester:     query.Semester,
		SemesterType: query.SemesterType,
		Regulation:   query.Regulation,
	}

	var (
		allocation *models.Allocation
		err        error
	)
	if query.SubjectType != "" {
		allocation, err = s.allocations.FindByKey(ctx, key)
	} else {
		allocation, err = s.allocations.FindByPartialKey(ctx, key)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.AllocationDetail{
				Department:   query.Department,
				SubjectType:  query.SubjectType,
				Semester:     query.Semester,
				SemesterType: query.SemesterType,
				Regulation:   query.Regulation,
				Subjects:     []models.SubjectWithSections{},
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}

	detail, err := s.buildDetail(ctx, allocation)
	if err != nil {
		return nil, err
	}

	if query.SubjectType != "" {
		detail.Subjects, err = s.filterByCatalogType(ctx, detail.Subjects, query.SubjectType)
		if err != nil {
			return nil, err
		}
	}

	return detail, nil
}

// FindSubject exposes subject resolution within an allocation for collaborating
// services.
func (s *AllocationService) FindSubject(ctx context.Context, allocationID, subjectID string) (*models.AllocationSubject, error) {
	subject, err := s.allocations.FindSubjectByID(ctx, allocationID, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found in allocation")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

func (s *AllocationService) buildDetail(ctx context.Context, allocation *models.Allocation) (*models.AllocationDetail, error) {
	subjects, err := s.allocations.ListSubjects(ctx, allocation.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocated subjects")
	}

	subjectIDs := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		subjectIDs = append(subjectIDs, subject.ID)
	}

	sections, err := s.sections.ListBySubjectIDs(ctx, subjectIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}

	bySubject := make(map[string][]models.SectionView, len(subjects))
	for i := range sections {
		section := &sections[i]
		bySubject[section.AllocationSubjectID] = append(bySubject[section.AllocationSubjectID], section.View())
	}

	detail := &models.AllocationDetail{
		ID:           allocation.ID,
		Department:   allocation.Department,
		SubjectType:  allocation.SubjectType,
		Semester:     allocation.Semester,
		SemesterType: allocation.SemesterType,
		Regulation:   allocation.Regulation,
		Subjects:     make([]models.SubjectWithSections, 0, len(subjects)),
	}
	for _, subject := range subjects {
		views := bySubject[subject.ID]
		if views == nil {
			views = []models.SectionView{}
		}
		detail.Subjects = append(detail.Subjects, models.SubjectWithSections{
			AllocationSubject: subject,
			Sections:          views,
		})
	}

	return detail, nil
}

// filterByCatalogType keeps subjects whose catalog reference matches the
// requested type. Subjects without a catalog reference have nothing to compare
// against and are retained.
func (s *AllocationService) filterByCatalogType(ctx context.Context, subjects []models.SubjectWithSections, subjectType string) ([]models.SubjectWithSections, error) {
	refs := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if subject.SubjectRef != nil {
			refs = append(refs, *subject.SubjectRef)
		}
	}
	if len(refs) == 0 {
		return subjects, nil
	}

	catalog, err := s.catalog.ListByIDs(ctx, refs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject catalog")
	}
	typeByID := make(map[string]string, len(catalog))
	for _, entry := range catalog {
		typeByID[entry.ID] = entry.Type
	}

	filtered := make([]models.SubjectWithSections, 0, len(subjects))
	for _, subject := range subjects {
		if subject.SubjectRef != nil {
			if resolved, ok := typeByID[*subject.SubjectRef]; ok && !strings.EqualFold(resolved, subjectType) {
				continue
			}
		}
		filtered = append(filtered, subject)
	}

	return filtered, nil
}

func (s *AllocationService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:hod:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
