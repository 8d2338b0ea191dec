package errors

import (
	"fmt"
)

// AppError represents a structured application error. For hard-gate
// refusals, Remedy carries the remediation hint shown to the user.
type AppError struct {
	Code    string
	Message string
	Remedy  string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Refusal creates a hard-gate refusal with a remediation hint
func Refusal(code, message, remedy string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Remedy:  remedy,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Remedy:  appErr.Remedy,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Remedy:  appErr.Remedy,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// GetRemedy returns the remediation hint, if any
func GetRemedy(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Remedy
	}
	return ""
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeBannerEmpty     = "BANNER_EMPTY"
	CodeBannerDeadColumn = "BANNER_DEAD_COLUMN"
	CodeNoQuestions     = "NO_QUESTIONS"
	CodeDataMissing     = "DATA_MISSING"
	CodeWeightsInvalid  = "WEIGHTS_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeReportError     = "REPORT_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return Refusal(CodeConfigInvalid, message,
		"fix the run configuration and resubmit; see Config.Validate for the accepted ranges")
}

func BannerEmpty() *AppError {
	return Refusal(CodeBannerEmpty, "banner produced no usable columns",
		"add at least one banner entry, or run with the Total column only")
}

func BannerDeadColumn(label string) *AppError {
	return Refusal(CodeBannerDeadColumn,
		fmt.Sprintf("banner column %q matches zero respondents", label),
		"check the column's source question and accepted codes against the data")
}

func NoQuestions() *AppError {
	return Refusal(CodeNoQuestions, "no questions selected for tabulation",
		"select at least one question")
}

func DataMissing(message string) *AppError {
	return Refusal(CodeDataMissing, message,
		"check that the dataset carries the columns the selected questions and banner need")
}

func WeightsInvalid(cause error) *AppError {
	return &AppError{
		Code:    CodeWeightsInvalid,
		Message: "weight vector failed validation",
		Remedy:  "supply one non-negative weight per respondent, or omit weights to run unweighted",
		Cause:   cause,
	}
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
