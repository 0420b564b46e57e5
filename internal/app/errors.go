package app

import "fmt"

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

func notFound(message string) *DomainError {
	return domainError(404, "NOT_FOUND", message, nil)
}

func forbidden() *DomainError {
	return domainError(403, "FORBIDDEN", "Forbidden", nil)
}

// validationError carries the attempted input back so forms can be
// re-filled.
func validationError(message string, details any) *DomainError {
	return domainError(422, "VALIDATION_ERROR", message, details)
}
