package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTenantRequired occurs when an operation runs without a tenant scope.
	ErrTenantRequired = errors.New("tenant id required")
)
