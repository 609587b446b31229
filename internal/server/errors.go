package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/assistant"
	"github.com/xaenox/legal-assistant/internal/document"
	"github.com/xaenox/legal-assistant/internal/provider"
)

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func notConfigured(c echo.Context, what string) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: what + " is not configured"})
}

// isUploadError reports rejections of the uploaded file itself.
func isUploadError(err error) bool {
	var sizeErr *document.SizeError
	return errors.As(err, &sizeErr) ||
		errors.Is(err, document.ErrNoFile) ||
		errors.Is(err, document.ErrPDFOnly) ||
		errors.Is(err, document.ErrFileType) ||
		errors.Is(err, document.ErrNoText) ||
		errors.Is(err, document.ErrEmptyInput)
}

// errorResponse maps err to a status and envelope. Upload rejections are
// client errors; everything else is a 500 carrying upstream details.
func errorResponse(summary string, err error) (int, ErrorResponse) {
	if isUploadError(err) {
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	}

	resp := ErrorResponse{Error: summary, Details: err.Error()}

	var perr *provider.Error
	switch {
	case errors.As(err, &perr):
		resp.Type = perr.Type
		resp.Code = perr.Code
		if resp.Code == "" && perr.Status != 0 {
			resp.Code = strconv.Itoa(perr.Status)
		}
	case errors.Is(err, assistant.ErrEmptyResult), errors.Is(err, assistant.ErrUnsupportedAction):
		resp.Type = provider.TypeContract
	}
	return http.StatusInternalServerError, resp
}

func (s *Server) fail(c echo.Context, summary string, err error) error {
	status, resp := errorResponse(summary, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(summary,
			zap.String("path", c.Path()),
			zap.Error(err))
	} else {
		s.logger.Warn("Request rejected",
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.JSON(status, resp)
}
