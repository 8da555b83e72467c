package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/coopfinance/internal/erp"
	"github.com/odyssey-erp/coopfinance/internal/shared"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		title  string
	}{
		{"not configured", fmt.Errorf("resolve: %w", erp.ErrNotConfigured), http.StatusNotFound, "ERP Not Configured"},
		{"auth", &erp.AuthError{TenantID: "t1"}, http.StatusUnprocessableEntity, "ERP Authentication Failed"},
		{"rpc", &erp.RPCError{Model: "account.move.line", Method: "search_read", Cause: errors.New("fault")}, http.StatusBadGateway, "ERP Unavailable"},
		{"period", shared.ErrInvalidPeriod, http.StatusBadRequest, "Validation Failed"},
		{"config", erp.ErrInvalidConfig, http.StatusBadRequest, "Validation Failed"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"tenant", shared.ErrTenantRequired, http.StatusUnauthorized, "Unauthorized"},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var body ProblemDetail
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.title, body.Title)
			assert.Equal(t, tc.status, body.Status)
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("password=hunter2"))
	assert.NotContains(t, rec.Body.String(), "hunter2")
}
