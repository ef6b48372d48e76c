package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
	ErrDatabase          = errors.New("database error")
	ErrOCRUnavailable    = errors.New("ocr unavailable")
	ErrMalformedResponse = errors.New("malformed llm response")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrQueueFull         = errors.New("queue full")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(message string) *AppError {
	return NewAppError("VALIDATION_ERROR", message, ErrInvalidInput)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError("NOT_FOUND", message, ErrNotFound)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StageError reports which pipeline stage failed. Raw keeps the collaborator
// output (e.g. an unparseable LLM response) for diagnostics.
type StageError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage of err, or "" when err is not a StageError.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// RawResponseOf returns the retained collaborator output of a StageError.
func RawResponseOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Raw
	}
	return ""
}

// GRPCError maps an application error onto a gRPC status.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrQueueFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	case StageOf(err) != "":
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
