package domain

import "fmt"

// Error types for consistent error handling across the BFF.
// None of these is fatal to the process: every one maps to falling back
// to an unauthenticated or pre-transfer state.

// ErrValidation indicates caller-supplied input failed a precondition.
// It is always reported synchronously and never follows a state mutation.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNotFound indicates a referenced resource is absent.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates missing, expired, or unparseable credentials.
// Expired and unparseable tokens are deliberately indistinguishable here:
// both fail closed to "not logged in".
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the session lacks a required role.
type ErrForbidden struct {
	Role string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: missing role %q", e.Role)
}

// ErrGatewayRejected indicates the gateway answered with a non-success
// status. The initiating caller sees it; for transfers it additionally
// triggers compensation.
type ErrGatewayRejected struct {
	Operation string
	Status    int
}

func (e *ErrGatewayRejected) Error() string {
	return fmt.Sprintf("gateway rejected %s: status %d", e.Operation, e.Status)
}

// ErrExternalService indicates a failure reaching an external service.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrStaleSession indicates a response arrived for a session that has
// since been reset; the result was discarded, not merged.
type ErrStaleSession struct{}

func (e *ErrStaleSession) Error() string {
	return "session reset while request was in flight; result discarded"
}
