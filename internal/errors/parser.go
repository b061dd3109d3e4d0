package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo carries a classified error code and a safe message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError classifies storage-layer errors into response codes without
// leaking driver internals to the caller.
func ParseError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "An internal error occurred",
		}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "The requested record was not found",
		}
	}

	// Unique constraint violations: expected on review/image dedup keys and
	// normally swallowed before reaching here, surfaced only for business rows
	if strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "unique constraint") ||
		strings.Contains(errStr, "constraint failed") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A record with the same key already exists",
		}
	}

	if strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "bad connection") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "The backing store is unavailable, please retry later",
		}
	}

	return ErrorInfo{
		Code:    StorageFailure,
		Message: "The operation could not be completed",
	}
}
