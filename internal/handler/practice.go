package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/carebridge/portal-api/internal/model"
	practiceService "github.com/carebridge/portal-api/internal/service/practice"
	"github.com/carebridge/portal-api/pkg/httputil"
)

type PracticeHandler struct {
	practiceSvc practiceService.PracticeServicer
}

func NewPracticeHandler(practiceSvc practiceService.PracticeServicer) *PracticeHandler {
	return &PracticeHandler{practiceSvc: practiceSvc}
}

// Create provisions a practice with the caller as its admin.
func (h *PracticeHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req model.CreatePracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	practice, err := h.practiceSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, practice)
}

func (h *PracticeHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	practice, err := h.practiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, practice)
}

func (h *PracticeHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	practice, err := h.practiceSvc.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, practice)
}

func (h *PracticeHandler) List(c *gin.Context) {
	practices, err := h.practiceSvc.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, practices)
}

func (h *PracticeHandler) ListStaff(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	staff, err := h.practiceSvc.ListStaff(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, staff)
}
