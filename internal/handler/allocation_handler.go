package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campus-admin-api/internal/service"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
	"github.com/campuskit/campus-admin-api/pkg/response"
)

// AllocationHandler wires HTTP endpoints to the allocation and section services.
type AllocationHandler struct {
	allocations *service.AllocationService
	sections    *service.SectionService
}

// NewAllocationHandler creates a new handler.
func NewAllocationHandler(allocations *service.AllocationService, sections *service.SectionService) *AllocationHandler {
	return &AllocationHandler{allocations: allocations, sections: sections}
}

// Allocate godoc
// @Summary Allocate subjects
// @Description Create or replace the subject list for a department, semester, semester type and regulation
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body service.AllocateSubjectsRequest true "Allocation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /allocations [post]
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req service.AllocateSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid allocation payload"))
		return
	}

	detail, err := h.allocations.Allocate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// GetAllocated godoc
// @Summary Get allocated subjects
// @Description Fetch the allocation with subjects and sections for the given key
// @Tags Allocations
// @Produce json
// @Param department query string true "Department"
// @Param subject_type query string false "Subject type filter"
// @Param semester query int true "Semester"
// @Param semester_type query string true "Semester type"
// @Param regulation query string true "Regulation"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /allocations/subjects [get]
func (h *AllocationHandler) GetAllocated(c *gin.Context) {
	var query service.GetAllocatedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid allocation query"))
		return
	}

	detail, err := h.allocations.GetAllocated(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// AssignStaff godoc
// @Summary Assign staff to a section
// @Description Assign a faculty member to a named section of an allocated subject, creating the section on first use
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body service.AssignStaffRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /allocations/staff [post]
func (h *AllocationHandler) AssignStaff(c *gin.Context) {
	var req service.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	view, err := h.sections.AssignStaff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}
