package erp

import (
	"fmt"
	"strconv"
	"time"
)

// Record is one row returned by search_read. Odoo encodes empty values as
// false and many2one fields as [id, display_name].
type Record map[string]any

// Int64 returns an integer field, 0 when empty.
func (r Record) Int64(key string) int64 {
	return toInt64(r[key])
}

// Float returns a numeric field, 0 when empty.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// String returns a text field, "" when empty.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil, bool:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Many2One returns the id and display name of a relational field.
func (r Record) Many2One(key string) (int64, string) {
	switch v := r[key].(type) {
	case []any:
		if len(v) == 0 {
			return 0, ""
		}
		id := toInt64(v[0])
		name := ""
		if len(v) > 1 {
			if s, ok := v[1].(string); ok {
				name = s
			}
		}
		return id, name
	default:
		return toInt64(v), ""
	}
}

// Date parses a YYYY-MM-DD field. The zero time is returned when absent.
func (r Record) Date(key string) time.Time {
	raw := r.String(key)
	if raw == "" {
		return time.Time{}
	}
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DateLayout is the ERP date wire format.
const DateLayout = "2006-01-02"

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func toRecords(result any) ([]Record, error) {
	switch rows := result.(type) {
	case nil:
		return nil, nil
	case []any:
		records := make([]Record, 0, len(rows))
		for i, row := range rows {
			m, ok := row.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("row %d: unexpected %T", i, row)
			}
			records = append(records, Record(m))
		}
		return records, nil
	default:
		return nil, fmt.Errorf("unexpected search_read result %T", result)
	}
}
