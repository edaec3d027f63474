package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"sales-service/internal/apperror"
	"sales-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Response is the envelope of every successful response with a body
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error    string              `json:"error"`
	Message  string              `json:"message,omitempty"`
	Messages map[string][]string `json:"messages,omitempty"`
}

func success(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, Response{Status: "success", Message: message, Data: data})
}

// ErrorHandler renders application errors and Echo's own HTTP errors
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   ErrorResponse
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		body.Error = http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
	} else {
		appErr := apperror.As(err)
		status = appErr.Status()
		switch appErr.Kind {
		case apperror.KindInternal:
			logger.FromEcho(c).Error("Request failed", zap.Error(err))
			body = ErrorResponse{Error: "Server Error", Message: appErr.Message}
		case apperror.KindValidation:
			body = ErrorResponse{Error: appErr.Message, Messages: appErr.Fields}
		default:
			body = ErrorResponse{Error: appErr.Message}
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.FromEcho(c).Error("Failed to write error response", zap.Error(err))
	}
}

// bind decodes the JSON body into dst and validates it
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		var ute *json.UnmarshalTypeError
		if errors.As(err, &he) && errors.As(he.Internal, &ute) && ute.Field != "" {
			return apperror.FieldError(ute.Field, fmt.Sprintf("The %s field has an invalid type.", ute.Field))
		}
		return apperror.FieldError("body", "The request body must be valid JSON.")
	}
	return c.Validate(dst)
}

// pathID parses the :id parameter; anything that is not a positive id is reported as notFound
func pathID(c echo.Context, notFound string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound(notFound)
	}
	return uint(id), nil
}
