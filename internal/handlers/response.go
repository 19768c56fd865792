package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/exampilot-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAppError maps domain error kinds onto HTTP statuses so handlers
// don't each re-implement the switch.
func RespondAppError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		RespondError(c, http.StatusNotFound, "not_found", err)
	case apperr.KindPlanInfeasible:
		RespondError(c, http.StatusUnprocessableEntity, "plan_infeasible", err)
	case apperr.KindDataIntegrity:
		RespondError(c, http.StatusConflict, "data_integrity", err)
	case apperr.KindRateLimited:
		RespondError(c, http.StatusTooManyRequests, "rate_limited", err)
	case apperr.KindEnrichmentUnavailable:
		RespondError(c, http.StatusServiceUnavailable, "enrichment_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
