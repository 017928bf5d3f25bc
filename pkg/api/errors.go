package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coolbeans/kmdp/pkg/answer"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// NewAPIError creates an API error.
func NewAPIError(code int, message, details string) *APIError {
	return &APIError{Code: code, Message: message, Details: details}
}

func BadRequestError(message, details string) *APIError {
	return NewAPIError(http.StatusBadRequest, message, details)
}

func NotFoundError(resource, key string) *APIError {
	return &APIError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Context: map[string]string{"key": key},
	}
}

func NotAcceptableError(accept string) *APIError {
	return &APIError{
		Code:    http.StatusNotAcceptable,
		Message: "No acceptable representation",
		Details: fmt.Sprintf("offered: %s", offeredList()),
		Context: map[string]string{"accept": accept},
	}
}

// HTTPErrorHandler renders errors as APIError JSON. Failed answers keep
// their outcome as the status code.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		apiErr    *APIError
		httpErr   *echo.HTTPError
		answerErr *answer.Error
	)
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Code:    httpErr.Code,
			Message: httpMessage(httpErr.Code),
			Details: fmt.Sprintf("%v", httpErr.Message),
		}
	case errors.As(err, &answerErr):
		apiErr = &APIError{
			Code:    int(answerErr.Outcome),
			Message: httpMessage(int(answerErr.Outcome)),
			Details: answerErr.Explanation,
		}
	default:
		apiErr = &APIError{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
			Details: err.Error(),
		}
	}

	if apiErr.Code == http.StatusInternalServerError && !c.Echo().Debug {
		apiErr.Details = "An internal error occurred."
	}

	if err := c.JSON(apiErr.Code, apiErr); err != nil {
		c.Logger().Error(err)
	}
}

func httpMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Bad request"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	case http.StatusNotAcceptable:
		return "No acceptable representation"
	case http.StatusTooManyRequests:
		return "Too many requests"
	case http.StatusInternalServerError:
		return "Internal server error"
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("Status %d", code)
}
