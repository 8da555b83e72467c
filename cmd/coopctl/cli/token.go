package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/coopfinance/internal/auth"
)

// ErrUnknownRole is returned for roles outside viewer and admin.
var ErrUnknownRole = errors.New("token: unknown role")

// IssueToken signs a bearer token for local testing and operator scripts.
func IssueToken(secret, tenantID, role, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("token: secret required")
	}
	normalized, ok := auth.NormalizeRole(role)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if subject == "" {
		subject = "coopctl"
	}
	return auth.IssueJWT([]byte(secret), tenantID, normalized, subject, ttl)
}
