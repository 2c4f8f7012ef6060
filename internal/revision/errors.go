package revision

import (
	"fmt"
	"net/http"
)

// Error codes surfaced by the revision service.
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeNotFound              = "NOT_FOUND"
	CodeStaleIndex            = "STALE_INDEX"
	CodePatchConflict         = "PATCH_CONFLICT"
	CodeEmptyRequest          = "EMPTY_REQUEST"
	CodeMalformedProposal     = "MALFORMED_PROPOSAL"
	CodeGenerationUnavailable = "GENERATION_UNAVAILABLE"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(message string) *DomainError {
	return domainError(http.StatusBadRequest, CodeValidation, message, nil)
}

func notFoundError(message string) *DomainError {
	return domainError(http.StatusNotFound, CodeNotFound, message, nil)
}

func emptyRequestError() *DomainError {
	return domainError(http.StatusBadRequest, CodeEmptyRequest,
		"provide a request or pin at least one paragraph", nil)
}

func staleIndexError(message string, index int) *DomainError {
	return domainError(http.StatusConflict, CodeStaleIndex, message, index)
}

func patchConflictError(message string, index int) *DomainError {
	return domainError(http.StatusConflict, CodePatchConflict, message, index)
}

func malformedProposalError(details any) *DomainError {
	return domainError(http.StatusBadGateway, CodeMalformedProposal,
		"generation collaborator returned a proposal with an invalid shape", details)
}

func generationUnavailableError(details any) *DomainError {
	return domainError(http.StatusServiceUnavailable, CodeGenerationUnavailable,
		"generation collaborator is unavailable", details)
}
