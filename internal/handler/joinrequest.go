package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/carebridge/portal-api/internal/model"
	joinrequestService "github.com/carebridge/portal-api/internal/service/joinrequest"
	"github.com/carebridge/portal-api/pkg/httputil"
)

type JoinRequestHandler struct {
	joinRequestSvc joinrequestService.JoinRequestServicer
}

func NewJoinRequestHandler(joinRequestSvc joinrequestService.JoinRequestServicer) *JoinRequestHandler {
	return &JoinRequestHandler{joinRequestSvc: joinRequestSvc}
}

// Submit files a request to join a practice. A second pending request for
// the same practice comes back 409.
func (h *JoinRequestHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	practiceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.SubmitJoinRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	request, err := h.joinRequestSvc.Submit(c.Request.Context(), practiceID, userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, request)
}

func (h *JoinRequestHandler) ListPending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	practiceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	requests, err := h.joinRequestSvc.ListPending(c.Request.Context(), practiceID, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, requests)
}

func (h *JoinRequestHandler) Approve(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.joinRequestSvc.Approve(c.Request.Context(), id, userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "approved"})
}

func (h *JoinRequestHandler) Reject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.joinRequestSvc.Reject(c.Request.Context(), id, userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"status": "rejected"})
}
