package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/campus-admin-api/internal/service"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
	"github.com/campuskit/campus-admin-api/pkg/response"
)

// ClassroomHandler wires HTTP endpoints to the membership and invitation services.
type ClassroomHandler struct {
	memberships *service.MembershipService
	invitations *service.InvitationService
}

// NewClassroomHandler creates a new handler.
func NewClassroomHandler(memberships *service.MembershipService, invitations *service.InvitationService) *ClassroomHandler {
	return &ClassroomHandler{memberships: memberships, invitations: invitations}
}

// Members godoc
// @Summary List classroom members
// @Description List the members of a section with directory details
// @Tags Classrooms
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms/{id}/members [get]
func (h *ClassroomHandler) Members(c *gin.Context) {
	members, err := h.memberships.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, members, nil)
}

// RemoveMember godoc
// @Summary Remove a classroom member
// @Description Remove a user's membership from a section
// @Tags Classrooms
// @Produce json
// @Param id path string true "Section ID"
// @Param userId path string true "Member user ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms/{id}/members/{userId} [delete]
func (h *ClassroomHandler) RemoveMember(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.memberships.RemoveMember(c.Request.Context(), claims, c.Param("id"), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Join godoc
// @Summary Join a classroom by code
// @Description Enroll the caller into the section bearing the join code
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param payload body service.JoinByCodeRequest true "Join payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms/join [post]
func (h *ClassroomHandler) Join(c *gin.Context) {
	var req service.JoinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid join payload"))
		return
	}

	member, err := h.memberships.JoinByCode(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, member)
}

// Invite godoc
// @Summary Send classroom invitations
// @Description Invite a batch of email addresses to join a section
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.SendInvitationsRequest true "Invitation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms/{id}/invitations [post]
func (h *ClassroomHandler) Invite(c *gin.Context) {
	var req service.SendInvitationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invitation payload"))
		return
	}

	result, err := h.invitations.Send(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// RespondInvitation godoc
// @Summary Respond to an invitation
// @Description Accept or reject a classroom invitation by token
// @Tags Classrooms
// @Accept json
// @Produce json
// @Param payload body service.RespondInvitationRequest true "Response payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Security BearerAuth
// @Router /classrooms/invitations/respond [post]
func (h *ClassroomHandler) RespondInvitation(c *gin.Context) {
	var req service.RespondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid response payload"))
		return
	}

	result, err := h.invitations.Respond(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
