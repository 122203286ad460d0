package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/internal/models"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
)

type dashboardAllocationReader interface {
	FindByKey(ctx context.Context, key models.AllocationKey) (*models.Allocation, error)
	ListSubjects(ctx context.Context, allocationID string) ([]models.AllocationSubject, error)
}

type dashboardSectionReader interface {
	ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.Section, error)
}

type departmentFacultyLister interface {
	ListByDepartment(ctx context.Context, department string) ([]models.FacultySummary, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// HodDashboardQuery identifies the department slice the HOD view covers.
type HodDashboardQuery struct {
	Department   string `form:"department" validate:"required"`
	SubjectType  string `form:"subject_type" validate:"required"`
	Semester     int    `form:"semester" validate:"required,min=1"`
	SemesterType string `form:"semester_type" validate:"required"`
	Regulation   string `form:"regulation" validate:"required"`
}

// DashboardService builds the department head view: allocated subjects with
// their sections merged against a fixed set of default section slots, plus the
// department faculty roster.
type DashboardService struct {
	allocations  dashboardAllocationReader
	sections     dashboardSectionReader
	faculty      departmentFacultyLister
	cache        dashboardCache
	metrics      *MetricsService
	sectionNames []string
	cacheEnabled bool
	cacheTTL     time.Duration
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewDashboardService creates a service instance.
func NewDashboardService(
	allocations dashboardAllocationReader,
	sections dashboardSectionReader,
	faculty departmentFacultyLister,
	cache dashboardCache,
	metrics *MetricsService,
	sectionNames []string,
	cacheEnabled bool,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *DashboardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		allocations:  allocations,
		sections:     sections,
		faculty:      faculty,
		cache:        cache,
		metrics:      metrics,
		sectionNames: sectionNames,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
		validator:    validate,
		logger:       logger,
	}
}

// HodDashboard assembles the department head view. The faculty roster is
// always populated, even when no allocation exists for the requested key.
func (s *DashboardService) HodDashboard(ctx context.Context, query HodDashboardQuery) (*models.HodDashboard, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dashboard query")
	}

	key := s.cacheKey(query)
	if s.cacheEnabled && s.cache != nil {
		start := time.Now()
		var cached models.HodDashboard
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true, time.Since(start))
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false, time.Since(start))
		if appErrors.FromError(err).Code != appErrors.ErrCacheMiss.Code {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	dashboard, err := s.buildDashboard(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled && s.cache != nil {
		if err := s.cache.Set(ctx, key, dashboard, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return dashboard, nil
}

func (s *DashboardService) buildDashboard(ctx context.Context, query HodDashboardQuery) (*models.HodDashboard, error) {
	dashboard := &models.HodDashboard{
		SemesterType: query.SemesterType,
		Subjects:     []models.DashboardSubject{},
		Faculty:      []models.FacultySummary{},
	}

	roster, err := s.faculty.ListByDepartment(ctx, query.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department faculty")
	}
	if roster != nil {
		dashboard.Faculty = roster
	}

	allocation, err := s.allocations.FindByKey(ctx, models.AllocationKey{
		Department:   query.Department,
		SubjectType:  query.SubjectType,
		Semester:     query.Semester,
		SemesterType: query.SemesterType,
		Regulation:   query.Regulation,
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return dashboard, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}

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

	bySubject := make(map[string][]models.Section, len(subjects))
	for i := range sections {
		section := sections[i]
		bySubject[section.AllocationSubjectID] = append(bySubject[section.AllocationSubjectID], section)
	}

	for _, subject := range subjects {
		dashboard.Subjects = append(dashboard.Subjects, models.DashboardSubject{
			ID:       subject.ID,
			Code:     subject.Code,
			Subject:  subject.Name,
			Credits:  subject.Credits,
			Sections: s.mergeSections(bySubject[subject.ID]),
		})
	}

	return dashboard, nil
}

// mergeSections overlays actual sections onto the configured default section
// slots, matched by name case-insensitively. Defaults without a stored section
// appear as empty placeholders; stored sections outside the default set are
// appended after them.
func (s *DashboardService) mergeSections(actual []models.Section) []models.DashboardSection {
	merged := make([]models.DashboardSection, 0, len(s.sectionNames)+len(actual))
	used := make(map[string]bool, len(actual))

	for _, name := range s.sectionNames {
		entry := models.DashboardSection{SectionName: name}
		for i := range actual {
			section := &actual[i]
			if used[section.ID] || !strings.EqualFold(section.Name, name) {
				continue
			}
			used[section.ID] = true
			entry = models.DashboardSection{
				ID:            section.ID,
				SectionName:   section.Name,
				ClassroomCode: section.ClassroomCode,
				Staff:         section.Staff(),
			}
			break
		}
		merged = append(merged, entry)
	}

	for i := range actual {
		section := &actual[i]
		if used[section.ID] {
			continue
		}
		merged = append(merged, models.DashboardSection{
			ID:            section.ID,
			SectionName:   section.Name,
			ClassroomCode: section.ClassroomCode,
			Staff:         section.Staff(),
		})
	}

	return merged
}

func (s *DashboardService) cacheKey(query HodDashboardQuery) string {
	return fmt.Sprintf("dashboard:hod:%s:%s:%d:%s:%s",
		strings.ToLower(query.Department),
		strings.ToLower(query.SubjectType),
		query.Semester,
		strings.ToLower(query.SemesterType),
		strings.ToLower(query.Regulation),
	)
}
