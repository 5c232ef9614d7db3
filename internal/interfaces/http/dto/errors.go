package dto

import (
	"net/http"
	"strings"
)

// API error codes, ERR_<DESCRIPTION>.
const (
	ErrCodeUnknown          = "ERR_UNKNOWN"
	ErrCodeInternal         = "ERR_INTERNAL"
	ErrCodeBadRequest       = "ERR_BAD_REQUEST"
	ErrCodeValidation       = "ERR_VALIDATION"        // a bound query value failed validation
	ErrCodeInvalidParameter = "ERR_INVALID_PARAMETER" // unknown parameter, filter or ordering key
	ErrCodeInvalidInput     = "ERR_INVALID_INPUT"
	ErrCodeUnauthorized     = "ERR_UNAUTHORIZED" // the presented api-key was not accepted
	ErrCodeForbidden        = "ERR_FORBIDDEN"
	ErrCodeTokenExpired     = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid     = "ERR_TOKEN_INVALID" // malformed, badly signed or revoked bearer token
	ErrCodeNotFound         = "ERR_NOT_FOUND"
	ErrCodeRateLimited      = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus is the status each API error code is served with.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:          http.StatusInternalServerError,
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeInvalidParameter: http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
}

// GetHTTPStatus returns the status for code. Field level domain codes such
// as INVALID_TSHIRT are client errors; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var domainCodes = map[string]string{
	"NOT_FOUND":         ErrCodeNotFound,
	"INVALID_PARAMETER": ErrCodeInvalidParameter,
	"INVALID_INPUT":     ErrCodeInvalidInput,
	"UNAUTHORIZED":      ErrCodeUnauthorized,
	"FORBIDDEN":         ErrCodeForbidden,
	"BAD_REQUEST":       ErrCodeBadRequest,
	"INTERNAL_ERROR":    ErrCodeInternal,
}

// NormalizeErrorCode maps the generic domain codes to API codes. Field level
// codes are kept so clients can tell which value was rejected.
func NormalizeErrorCode(code string) string {
	if api, ok := domainCodes[code]; ok {
		return api
	}
	return code
}
