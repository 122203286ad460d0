package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campus-admin-api/internal/service"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
	"github.com/campuskit/campus-admin-api/pkg/response"
)

// DashboardHandler wires HTTP endpoints to the dashboard service.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// HodDashboard godoc
// @Summary Department head dashboard
// @Description Allocated subjects with merged section slots and the department faculty roster
// @Tags Dashboard
// @Produce json
// @Param department query string true "Department"
// @Param subject_type query string true "Subject type"
// @Param semester query int true "Semester"
// @Param semester_type query string true "Semester type"
// @Param regulation query string true "Regulation"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /allocations/hod-dashboard [get]
func (h *DashboardHandler) HodDashboard(c *gin.Context) {
	var query service.HodDashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid dashboard query"))
		return
	}

	dashboard, err := h.service.HodDashboard(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil)
}
