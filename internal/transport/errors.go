package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

type (
	ErrorResp struct {
		Error ErrorBody `json:"error"`
	}

	ErrorBody struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	}
)

var kindStatus = map[models.Kind]int{
	models.KindValidation:        http.StatusBadRequest,
	models.KindDuplicateName:     http.StatusBadRequest,
	models.KindDuplicateBookmark: http.StatusBadRequest,
	models.KindInvalidReference:  http.StatusBadRequest,
	models.KindUnauthorized:      http.StatusUnauthorized,
	models.KindForbidden:         http.StatusForbidden,
	models.KindNotFound:          http.StatusNotFound,
	models.KindCascadeFailure:    http.StatusConflict,
}

func (s *HTTPServer) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.Errorw("request failed",
			"method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		s.logger.Errorw("write error response", "error", werr)
	}
}

func errorResponse(err error) (int, ErrorResp) {
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		status, ok := kindStatus[domainErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, ErrorResp{Error: ErrorBody{
			Code:    string(domainErr.Kind),
			Message: domainErr.Message,
			Fields:  domainErr.Fields,
		}}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, ErrorResp{Error: ErrorBody{
			Code:    codeForStatus(httpErr.Code),
			Message: msg,
		}}
	}

	return http.StatusInternalServerError, ErrorResp{Error: ErrorBody{
		Code:    "internal_error",
		Message: "internal server error",
	}}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return string(models.KindNotFound)
	case http.StatusUnauthorized:
		return string(models.KindUnauthorized)
	case http.StatusForbidden:
		return string(models.KindForbidden)
	case http.StatusBadRequest:
		return string(models.KindValidation)
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	}
	return "http_error"
}
