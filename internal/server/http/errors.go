package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/validate"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string                `json:"message"`
	Code    string                `json:"code"`
	Errors  []validate.FieldError `json:"errors,omitempty"`
}

var codeStatus = map[string]int{
	errs.CodeUnauthenticated:  http.StatusUnauthorized,
	errs.CodeForbidden:        http.StatusForbidden,
	errs.CodeNotFound:         http.StatusNotFound,
	errs.CodeConflict:         http.StatusConflict,
	errs.CodeBadRequest:       http.StatusBadRequest,
	errs.CodeValidationFailed: http.StatusBadRequest,
	errs.CodeRateLimited:      http.StatusTooManyRequests,
	errs.CodeInternal:         http.StatusInternalServerError,
}

var statusCode = map[int]string{
	http.StatusUnauthorized:          errs.CodeUnauthenticated,
	http.StatusForbidden:             errs.CodeForbidden,
	http.StatusNotFound:              errs.CodeNotFound,
	http.StatusMethodNotAllowed:      errs.CodeNotFound,
	http.StatusConflict:              errs.CodeConflict,
	http.StatusTooManyRequests:       errs.CodeRateLimited,
	http.StatusRequestEntityTooLarge: errs.CodeBadRequest,
	http.StatusUnsupportedMediaType:  errs.CodeBadRequest,
	http.StatusBadRequest:            errs.CodeBadRequest,
}

// errorBody maps err to a status and body.
func errorBody(err error) (int, ErrorBody) {
	if fields, ok := validate.Fields(err); ok {
		return http.StatusBadRequest, ErrorBody{
			Message: errs.DefaultMessage(errs.CodeValidationFailed),
			Code:    errs.CodeValidationFailed,
			Errors:  fields,
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code, ok := statusCode[he.Code]
		if !ok {
			code = errs.CodeInternal
		}
		msg := errs.DefaultMessage(code)
		if s, ok := he.Message.(string); ok && he.Code < 500 {
			msg = s
		}
		return he.Code, ErrorBody{Message: msg, Code: code}
	}

	code := errs.Code(err)
	return codeStatus[code], ErrorBody{Message: errs.PublicMessage(err), Code: code}
}

// ErrorHandler renders errors as ErrorBody and logs server-side failures.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorBody(err)
		if status >= 500 {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
