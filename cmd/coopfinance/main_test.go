package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/coopfinance/internal/app"
	_ "github.com/odyssey-erp/coopfinance/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	require.True(t, app.InTestMode())
	require.NotPanics(t, main)
}
