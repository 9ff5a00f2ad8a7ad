package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/portal-api/internal/model"
	matcherService "github.com/carebridge/portal-api/internal/service/matcher"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/httputil"
)

type MatcherHandler struct {
	matcherSvc matcherService.MatcherServicer
}

func NewMatcherHandler(matcherSvc matcherService.MatcherServicer) *MatcherHandler {
	return &MatcherHandler{matcherSvc: matcherSvc}
}

// Search proxies a structured patient query to the model gateway. Invalid
// input is rejected before anything leaves the process. When the gateway
// fails, the response is a 500 that still carries an empty physician list so
// clients render a "no matches" state instead of breaking.
func (h *MatcherHandler) Search(c *gin.Context) {
	var query model.MatchQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.matcherSvc.Match(c.Request.Context(), &query)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrUpstream) {
			message := "physician matching is temporarily unavailable"
			if appErr, ok := apperrors.AsAppError(err); ok {
				message = appErr.Message
			}
			c.JSON(http.StatusInternalServerError, httputil.Response{
				Success: false,
				Data: model.MatchResponse{
					Physicians: []model.Physician{},
					Error:      message,
				},
				Error: &httputil.Error{Code: http.StatusInternalServerError, Message: message},
			})
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, result)
}
