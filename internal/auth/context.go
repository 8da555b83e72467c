package auth

import "context"

type contextKey string

const (
	contextKeyTenant  contextKey = "auth.tenant_id"
	contextKeyRole    contextKey = "auth.role"
	contextKeySubject contextKey = "auth.subject"
)

// WithIdentity stores the caller's identity in ctx.
func WithIdentity(ctx context.Context, tenantID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyTenant, tenantID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	return context.WithValue(ctx, contextKeySubject, subject)
}

// TenantIDFromContext returns the tenant scope, "" when unauthenticated.
func TenantIDFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(contextKeyTenant).(string)
	return tenantID
}

// RoleFromContext returns the caller's role.
func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(contextKeyRole).(Role)
	return role
}

// SubjectFromContext returns the token subject.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(contextKeySubject).(string)
	return subject
}
