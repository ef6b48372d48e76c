package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrQueueFull):
		return http.StatusServiceUnavailable
	case common.StageOf(err) != "":
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(c *gin.Context, err error) {
	body := errorBody{
		Error:     err.Error(),
		Stage:     common.StageOf(err),
		RequestID: common.RequestIDFromContext(c.Request.Context()),
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
	}
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		a.logger.Error("http.handler.failed", "req_id", body.RequestID, "path", c.FullPath(), "stage", body.Stage, "error", err)
	}
	c.AbortWithStatusJSON(code, body)
}
