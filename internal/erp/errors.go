package erp

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates the tenant has no ERP integration. Callers
	// surface it as an unavailable feature.
	ErrNotConfigured = errors.New("erp: integration not configured")
	// ErrInvalidConfig indicates connection parameters failed validation.
	ErrInvalidConfig = errors.New("erp: invalid configuration")
)

// AuthError reports rejected credentials or a failed authenticate call.
type AuthError struct {
	TenantID string
	Cause    error
}

func (e *AuthError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("erp: authentication failed for tenant %s: invalid credentials", e.TenantID)
	}
	return fmt.Sprintf("erp: authentication failed for tenant %s: %v", e.TenantID, e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// RPCError wraps a transport or remote-side fault for one model method. The
// cause message is kept verbatim for diagnostics. Callers may retry.
type RPCError struct {
	Model  string
	Method string
	Cause  error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("erp: %s.%s: %v", e.Model, e.Method, e.Cause)
}

func (e *RPCError) Unwrap() error { return e.Cause }

// IsAuthError reports whether err carries an AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsRPCError reports whether err carries an RPCError.
func IsRPCError(err error) bool {
	var target *RPCError
	return errors.As(err, &target)
}
