package handler

import (
	"github.com/gin-gonic/gin"

	notificationService "github.com/carebridge/portal-api/internal/service/notification"
	"github.com/carebridge/portal-api/pkg/httputil"
	"github.com/carebridge/portal-api/pkg/metrics"
	"github.com/carebridge/portal-api/pkg/realtime"
)

type NotificationHandler struct {
	notificationSvc notificationService.NotificationServicer
	hub             *realtime.Hub
	metrics         *metrics.Metrics
}

func NewNotificationHandler(notificationSvc notificationService.NotificationServicer, hub *realtime.Hub, m *metrics.Metrics) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc, hub: hub, metrics: m}
}

// Feed returns the caller's most recent notifications and unread count.
func (h *NotificationHandler) Feed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	feed, err := h.notificationSvc.Feed(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, feed)
}

// MarkRead flips one notification and returns the confirmed unread count.
// Repeats are no-ops.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	unread, err := h.notificationSvc.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"unread_count": unread})
}

// Stream mirrors the caller's notification inserts over SSE, opening with
// the current feed as a snapshot.
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	feed, err := h.notificationSvc.Feed(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	streamChanges(c, h.hub, h.metrics, notificationService.ChangeTable, userID.String(), feed)
}
