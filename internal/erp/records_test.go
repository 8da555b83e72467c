package erp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordAccessorsTolerateOdooFalse(t *testing.T) {
	rec := Record{
		"id":         int64(12),
		"name":       false,
		"ref":        "INV/001",
		"debit":      float64(150.25),
		"credit":     int64(3),
		"account_id": []any{int64(44), "101 Cash"},
		"partner_id": false,
		"date":       "2024-03-15",
	}
	assert.EqualValues(t, 12, rec.Int64("id"))
	assert.Equal(t, "", rec.String("name"))
	assert.Equal(t, "INV/001", rec.String("ref"))
	assert.Equal(t, 150.25, rec.Float("debit"))
	assert.Equal(t, 3.0, rec.Float("credit"))
	id, name := rec.Many2One("account_id")
	assert.EqualValues(t, 44, id)
	assert.Equal(t, "101 Cash", name)
	id, name = rec.Many2One("partner_id")
	assert.Zero(t, id)
	assert.Empty(t, name)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), rec.Date("date"))
	assert.True(t, rec.Date("missing").IsZero())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
	cfg := validConfig()
	cfg.URL = "erp.example.coop"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	cfg = validConfig()
	cfg.CompanyID = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	cfg = validConfig()
	cfg.URL = "https://erp.example.coop/"
	assert.Equal(t, "https://erp.example.coop", cfg.BaseURL())
}
