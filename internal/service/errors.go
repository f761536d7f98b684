package service

import (
	"fmt"

	"github.com/maheshrc27/postpilot/internal/models"
)

// ValidationError is a bad or missing request field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// ExternalServiceError wraps a failed call to the LLM, Graph API, storage or
// OAuth provider. Message carries the provider's text when there is one.
type ExternalServiceError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Service, e.Message)
}

// ComplianceError means generated content did not pass the quality gate.
type ComplianceError struct {
	Violations []string
	Caption    string
}

func (e *ComplianceError) Error() string {
	return fmt.Sprintf("caption failed quality gate with %d violation(s)", len(e.Violations))
}

// SelectionRequiredError is returned by the OAuth callback when the user
// has several eligible pages. The state stays valid for completion.
type SelectionRequiredError struct {
	State string
	Pages []models.PageCandidate
}

func (e *SelectionRequiredError) Error() string { return "Page selection required" }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
