// Package backend is the boundary to the paid generation provider. It
// classifies provider failures so callers can decide what is worth
// retrying, and supplies a deterministic placeholder generator for when
// the provider is unreachable or misconfigured.
package backend

import (
	"context"
	"fmt"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// Backend produces raw content for a generation request using the model
// the selector chose for it.
type Backend interface {
	Generate(ctx context.Context, model string, req *models.GenerationRequest) (*models.RawContent, error)
}

// ErrorClass buckets provider failures by how the caller should react.
type ErrorClass string

const (
	ClassAuthentication      ErrorClass = "authentication"
	ClassRateLimit           ErrorClass = "rate_limit"
	ClassInsufficientBalance ErrorClass = "insufficient_balance"
	ClassValidation          ErrorClass = "validation"
	ClassServiceUnavailable  ErrorClass = "service_unavailable"
	ClassUnknown             ErrorClass = "unknown"
)

// ProviderError is a classified upstream failure.
type ProviderError struct {
	Class      ErrorClass
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (%s, status %d): %s", e.Class, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error (%s): %s", e.Class, e.Message)
}

// Classify maps an HTTP status code to an error class.
func Classify(statusCode int) ErrorClass {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ClassAuthentication
	case statusCode == 402:
		return ClassInsufficientBalance
	case statusCode == 429:
		return ClassRateLimit
	case statusCode == 400 || statusCode == 422:
		return ClassValidation
	case statusCode >= 500:
		return ClassServiceUnavailable
	default:
		return ClassUnknown
	}
}

// retryable reports whether the class can plausibly succeed on another
// attempt. Authentication, validation, and balance failures never will.
func retryable(class ErrorClass) bool {
	switch class {
	case ClassRateLimit, ClassServiceUnavailable:
		return true
	default:
		return false
	}
}
