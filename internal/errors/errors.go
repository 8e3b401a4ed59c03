// Package errors provides the error taxonomy of the budget engine.
// Service and engine code returns *AppError so callers (HTTP handlers, the
// CLI, scheduled jobs) can branch on a stable Code without parsing messages
// or leaking internal details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an *AppError with the same code, so copies
// produced by Wrap and WithMessage still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Budget definition errors.
var (
	ErrBudgetNotFound                = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound              = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrInconsistentCategoryReference = &AppError{Code: "INCONSISTENT_CATEGORY_REFERENCE", Message: "A budget category must reference exactly one of category_id or transfer_account_id", StatusCode: http.StatusBadRequest}
	ErrInvalidPeriodConfig           = &AppError{Code: "INVALID_PERIOD_CONFIG", Message: "Budget period configuration is missing required cadence fields", StatusCode: http.StatusBadRequest}
)

// Analysis errors. InsufficientHistory is normally reported as a flag on a
// partial result; the sentinel exists for callers that require full history.
var (
	ErrInsufficientHistory = &AppError{Code: "INSUFFICIENT_HISTORY", Message: "Not enough transaction history for this analysis", StatusCode: http.StatusUnprocessableEntity}
)

// Period close errors.
var (
	ErrPeriodNotEnded        = &AppError{Code: "PERIOD_NOT_ENDED", Message: "Period has not ended yet", StatusCode: http.StatusConflict}
	ErrConcurrentPeriodClose = &AppError{Code: "CONCURRENT_PERIOD_CLOSE", Message: "Period is being closed by another request", StatusCode: http.StatusConflict}
)

// Alert errors.
var (
	ErrAlertNotFound = &AppError{Code: "ALERT_NOT_FOUND", Message: "Alert not found", StatusCode: http.StatusNotFound}
)
