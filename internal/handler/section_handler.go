package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campus-admin-api/internal/service"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
	"github.com/campuskit/campus-admin-api/pkg/response"
)

// SectionHandler wires HTTP endpoints to the section service.
type SectionHandler struct {
	service *service.SectionService
}

// NewSectionHandler creates a new handler.
func NewSectionHandler(svc *service.SectionService) *SectionHandler {
	return &SectionHandler{service: svc}
}

// UpdateStaff godoc
// @Summary Update section staff
// @Description Replace the staff assignment of an existing section
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body map[string]string true "Staff payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id}/staff [patch]
func (h *SectionHandler) UpdateStaff(c *gin.Context) {
	var payload struct {
		StaffID string `json:"staff_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "staff_id is required"))
		return
	}

	view, err := h.service.UpdateStaff(c.Request.Context(), c.Param("id"), payload.StaffID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// RemoveStaff godoc
// @Summary Remove section staff
// @Description Clear the staff assignment of a section, leaving memberships untouched
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id}/staff [delete]
func (h *SectionHandler) RemoveStaff(c *gin.Context) {
	view, err := h.service.RemoveStaff(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete a section
// @Description Delete a section along with its memberships and invitations
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteSection(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RefreshStaff godoc
// @Summary Refresh staff snapshot
// @Description Re-copy the assigned staff's directory profile into the section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /sections/{id}/staff/refresh [post]
func (h *SectionHandler) RefreshStaff(c *gin.Context) {
	view, err := h.service.RefreshStaffSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}
