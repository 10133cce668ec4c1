package types

import "net/http"

// API error codes
const (
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeUnsupported = "UNSUPPORTED_OPERATION"
	ErrCodeExhausted   = "EEPROM_EXHAUSTED"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeUnavailable = "UNAVAILABLE"
)

var codeStatus = map[string]int{
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeUnsupported: http.StatusBadRequest,
	ErrCodeExhausted:   http.StatusConflict,
	ErrCodeUnavailable: http.StatusConflict,
	ErrCodeInternal:    http.StatusInternalServerError,
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// HTTPStatus maps the error code to a response status; unknown codes are 500.
func (r ErrorResponse) HTTPStatus() int {
	if status, ok := codeStatus[r.Error.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
