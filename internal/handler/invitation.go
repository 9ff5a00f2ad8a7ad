package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/carebridge/portal-api/internal/model"
	invitationService "github.com/carebridge/portal-api/internal/service/invitation"
	"github.com/carebridge/portal-api/pkg/httputil"
)

type InvitationHandler struct {
	invitationSvc invitationService.InvitationServicer
}

func NewInvitationHandler(invitationSvc invitationService.InvitationServicer) *InvitationHandler {
	return &InvitationHandler{invitationSvc: invitationSvc}
}

// Create issues an invitation for a practice. Admin only; the response
// carries email_queued=false when the delivery event could not be queued.
func (h *InvitationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	practiceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.invitationSvc.Create(c.Request.Context(), practiceID, userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, result)
}

// Get resolves an invitation by token. This endpoint is public so the
// acceptance page can render before the invitee signs in.
func (h *InvitationHandler) Get(c *gin.Context) {
	invitation, err := h.invitationSvc.Get(c.Request.Context(), c.Param("token"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, invitation)
}

// Accept joins the caller to the inviting practice. The caller's account
// email must match the invited address.
func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	err := h.invitationSvc.Accept(c.Request.Context(), c.Param("token"), userID, currentUserEmail(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"accepted": true})
}

func (h *InvitationHandler) Revoke(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	err := h.invitationSvc.Revoke(c.Request.Context(), c.Param("token"), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"revoked": true})
}

func (h *InvitationHandler) ListByPractice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	practiceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	invitations, err := h.invitationSvc.ListByPractice(c.Request.Context(), practiceID, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, invitations)
}
