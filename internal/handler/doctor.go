package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/carebridge/portal-api/internal/model"
	doctorService "github.com/carebridge/portal-api/internal/service/doctor"
	"github.com/carebridge/portal-api/pkg/httputil"
	"github.com/carebridge/portal-api/pkg/metrics"
	"github.com/carebridge/portal-api/pkg/realtime"
)

type DoctorHandler struct {
	doctorSvc doctorService.DoctorServicer
	hub       *realtime.Hub
	metrics   *metrics.Metrics
}

func NewDoctorHandler(doctorSvc doctorService.DoctorServicer, hub *realtime.Hub, m *metrics.Metrics) *DoctorHandler {
	return &DoctorHandler{doctorSvc: doctorSvc, hub: hub, metrics: m}
}

// UpsertMe creates or updates the caller's doctor profile.
func (h *DoctorHandler) UpsertMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req model.UpsertDoctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	profile, err := h.doctorSvc.Upsert(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, profile)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	profile, err := h.doctorSvc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, profile)
}

// SetAvailability toggles the caller's availability. The response carries
// the stored state, which is also what gets mirrored to live viewers.
func (h *DoctorHandler) SetAvailability(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req model.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	profile, err := h.doctorSvc.SetAvailability(c.Request.Context(), userID, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, profile)
}

// StreamStatus mirrors one doctor's availability over SSE. The stream opens
// with a snapshot of the stored profile so viewers never start blind.
func (h *DoctorHandler) StreamStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	profile, err := h.doctorSvc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	snapshot := map[string]string{
		"doctor_id":           profile.UserID.String(),
		"availability_status": profile.AvailabilityStatus,
	}
	streamChanges(c, h.hub, h.metrics, doctorService.ChangeTable, profile.UserID.String(), snapshot)
}
