package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/portal-api/pkg/httputil"
	"github.com/carebridge/portal-api/pkg/metrics"
	"github.com/carebridge/portal-api/pkg/realtime"
)

// streamChanges serves one row's change feed over SSE. The current state is
// sent first as a "snapshot" event, then every change event as it arrives,
// until the client disconnects.
func streamChanges(c *gin.Context, hub *realtime.Hub, m *metrics.Metrics, table, key string, snapshot interface{}) {
	sub, err := hub.Subscribe(c.Request.Context(), table, key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httputil.Response{
			Success: false,
			Error:   &httputil.Error{Code: http.StatusInternalServerError, Message: "failed to open change feed"},
		})
		return
	}
	defer sub.Close()

	if m != nil {
		m.RealtimeSubscriptions.Inc()
		defer m.RealtimeSubscriptions.Dec()
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("snapshot", snapshot)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("change", event)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
